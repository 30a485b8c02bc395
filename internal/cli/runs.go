package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/formparity/parity-go/internal/report"
	"github.com/formparity/parity-go/internal/temporal/activities"
	"github.com/formparity/parity-go/internal/temporal/querier"
	"github.com/formparity/parity-go/internal/temporal/versioning"
	"github.com/formparity/parity-go/internal/temporal/workflows"
)

// withRuns dials Temporal for the duration of fn.
func (a *App) withRuns(fn func(runs querier.RunQuerier) error) error {
	runs, closeFn, err := a.Dial(a.cfg, a.logger)
	if err != nil {
		return failed(err)
	}
	if closeFn != nil {
		defer closeFn()
	}
	return fn(runs)
}

func (a *App) triggerCmd() *cobra.Command {
	var (
		from, to string
		forms    []string
		publish  bool
	)

	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Start a sanity check on the Temporal worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input := workflows.SanityCheckInput{
				MigrationInput: activities.MigrationInput{From: from, To: to, Forms: forms},
				Publish:        publish,
			}
			return a.withRuns(func(runs querier.RunQuerier) error {
				id, err := runs.StartRun(cmd.Context(), input)
				if err != nil {
					return failed(err)
				}
				fmt.Fprintf(a.Stdout, "started run %s\n", id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "source environment key (worker default when empty)")
	cmd.Flags().StringVar(&to, "to", "", "target environment key (worker default when empty)")
	cmd.Flags().StringSliceVar(&forms, "forms", nil, "form names to compare (comma separated)")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish the outcome as CloudWatch metrics")
	return cmd
}

func (a *App) statusCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status WORKFLOW_ID",
		Short: "Show the progress or report of a run",
		Long: `Print the state of a run as JSON. With --format, print the rendered
report of a completed run; the exit code then follows its outcome.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuns(func(runs querier.RunQuerier) error {
				state, err := runs.GetRun(cmd.Context(), args[0])
				if err != nil {
					return failed(err)
				}

				if format == "" {
					data, err := json.MarshalIndent(state, "", "  ")
					if err != nil {
						return failed(err)
					}
					fmt.Fprintln(a.Stdout, string(data))
					return nil
				}

				f, err := report.ParseFormat(format)
				if err != nil {
					return failed(err)
				}
				if state.Result == nil {
					if state.Error != "" {
						return failed(fmt.Errorf("run %s failed: %s", args[0], state.Error))
					}
					return failed(fmt.Errorf("run %s has no report yet (status %s)", args[0], state.Status))
				}
				if err := report.Render(a.Stdout, f, &state.Result.Report); err != nil {
					return failed(err)
				}
				if code := state.Result.Outcome.ExitCode(); code != 0 {
					return &exitError{code: code}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "render the report: html, json or table")
	return cmd
}

func (a *App) listCmd() *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sanity-check runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return failed(errors.New("--limit must not be negative"))
			}
			return a.withRuns(func(runs querier.RunQuerier) error {
				summaries, err := runs.ListRuns(cmd.Context(), querier.ListOptions{
					TaskQueue:    versioning.QueueCheck,
					StatusFilter: status,
					PageSize:     limit,
				})
				if err != nil {
					return failed(err)
				}
				fmt.Fprintln(a.Stdout, runsTable(summaries))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (Running, Completed, Failed)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum runs to list (0 = server default)")
	return cmd
}

func runsTable(summaries []querier.WorkflowSummary) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Workflow ID", "Status", "Started", "Closed").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, s := range summaries {
		t.Row(s.WorkflowID, s.Status, formatTime(s.StartTime), formatTime(s.CloseTime))
	}
	return t.Render()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.DateTime)
}
