package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/formparity/parity-go/internal/connectors/vault"
	"github.com/formparity/parity-go/internal/parity"
	"github.com/formparity/parity-go/internal/report"
	"github.com/formparity/parity-go/internal/temporal/activities"
)

func (a *App) runCmd() *cobra.Command {
	var (
		from, to, format, out string
		forms                 []string
		isolate, publish      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a sanity check and render the report",
		Long: `Authorize against both environments, probe every form template of the
target, compare record counts of the configured forms, and render the report.

Examples:
  # Terminal tables for the file defaults
  parity run

  # HTML report for an explicit pair
  parity run --from dev --to qa --format html --out report.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return failed(err)
			}

			cfg := a.cfg
			if from != "" {
				cfg.From = from
			}
			if to != "" {
				cfg.To = to
			}
			if len(forms) > 0 {
				cfg.Forms = forms
			}
			if cmd.Flags().Changed("isolate") {
				cfg.IsolateFailures = isolate
			}

			m, err := cfg.Migration()
			if err != nil {
				return failed(err)
			}
			runner := &parity.Runner{
				From:       m.From,
				To:         m.To,
				Forms:      m.Forms,
				Options:    parity.Options{IsolateFailures: cfg.IsolateFailures, Logger: a.logger},
				HTTPClient: vault.NewHTTPClient(cfg.HTTPTimeout),
			}

			ctx := cmd.Context()
			// The publisher is built before either environment is contacted.
			var pub activities.Publisher
			if publish {
				if pub, err = a.NewPublisher(ctx, cfg); err != nil {
					return failed(fmt.Errorf("publish: %w", err))
				}
			}

			rep, err := runner.Run(ctx)
			if err != nil {
				return failed(fmt.Errorf("sanity check failed: %w", err))
			}

			var w io.Writer = a.Stdout
			if out != "" {
				file, err := os.Create(out)
				if err != nil {
					return failed(fmt.Errorf("create %s: %w", out, err))
				}
				defer file.Close()
				w = file
			}
			if err := report.Render(w, f, rep); err != nil {
				return failed(err)
			}

			if pub != nil {
				if err := pub.Publish(ctx, rep); err != nil {
					a.logger.Warn("publish failed", "run_id", rep.RunID, "error", err)
				}
			}

			outcome := rep.Outcome()
			a.logger.Info("sanity check complete", "run_id", rep.RunID, "outcome", outcome)
			if code := outcome.ExitCode(); code != 0 {
				return &exitError{code: code}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "source environment key")
	cmd.Flags().StringVar(&to, "to", "", "target environment key")
	cmd.Flags().StringSliceVar(&forms, "forms", nil, "form names to compare (comma separated)")
	cmd.Flags().StringVar(&format, "format", string(report.FormatTable), "output format: html, json or table")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&isolate, "isolate", false, "record per-form failures instead of aborting")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish the outcome as CloudWatch metrics")
	return cmd
}
