// Package workflows defines the Temporal workflow functions.
package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/formparity/parity-go/internal/domain"
	"github.com/formparity/parity-go/internal/temporal/activities"
	"github.com/formparity/parity-go/internal/temporal/versioning"
)

// QueryNameProgress is the Temporal Query handler name for run progress.
const QueryNameProgress = "progress"

// Phase is the step a sanity-check run is in.
type Phase string

const (
	PhaseTemplates Phase = "templates"
	PhaseForms     Phase = "forms"
	PhasePublish   Phase = "publish"
	PhaseDone      Phase = "done"
)

// SanityCheckInput is the input to the sanity-check workflow.
type SanityCheckInput struct {
	activities.MigrationInput
	// Publish sends the finished report to the publish queue.
	Publish bool `json:"publish,omitempty"`
}

// SanityCheckResult is the output of the sanity-check workflow.
type SanityCheckResult struct {
	Report    domain.ComparisonReport `json:"report"`
	Outcome   domain.Outcome          `json:"outcome"`
	Published bool                    `json:"published"`
}

// Progress is returned by the progress query.
type Progress struct {
	Phase     Phase          `json:"phase"`
	Templates int            `json:"templates"`
	Forms     int            `json:"forms"`
	Outcome   domain.Outcome `json:"outcome,omitempty"`
}

// SanityCheckWorkflow runs one sanity check as three activities:
//
//	CheckTemplates -> CompareForms -> PublishReport (optional)
//
// Nothing is retried; any activity failure fails the run. Publishing
// failures are logged and do not change the report.
func SanityCheckWorkflow(ctx workflow.Context, input SanityCheckInput) (SanityCheckResult, error) {
	logger := workflow.GetLogger(ctx)
	progress := Progress{Phase: PhaseTemplates}

	if err := workflow.SetQueryHandler(ctx, QueryNameProgress, func() (Progress, error) {
		return progress, nil
	}); err != nil {
		return SanityCheckResult{}, fmt.Errorf("register progress query: %w", err)
	}

	// Version marker for future changes to the activity sequence.
	_ = workflow.GetVersion(ctx, versioning.SanityCheckV1, workflow.DefaultVersion, 1)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	actCtx := workflow.WithActivityOptions(ctx, actOpts)

	var templates activities.CheckTemplatesOutput
	if err := workflow.ExecuteActivity(actCtx, "CheckTemplates", input.MigrationInput).Get(ctx, &templates); err != nil {
		return SanityCheckResult{}, fmt.Errorf("check templates: %w", err)
	}
	progress.Templates = len(templates.Templates)
	progress.Phase = PhaseForms

	var forms activities.CompareFormsOutput
	if err := workflow.ExecuteActivity(actCtx, "CompareForms", input.MigrationInput).Get(ctx, &forms); err != nil {
		return SanityCheckResult{}, fmt.Errorf("compare forms: %w", err)
	}
	progress.Forms = len(forms.Forms)

	report := domain.ComparisonReport{
		RunID:          workflow.GetInfo(ctx).WorkflowExecution.ID,
		From:           templates.FromName,
		To:             templates.ToName,
		GeneratedAt:    workflow.Now(ctx).UTC(),
		TemplateCounts: templates.Counts,
		Templates:      templates.Templates,
		Forms:          forms.Forms,
	}
	result := SanityCheckResult{Report: report, Outcome: report.Outcome()}
	progress.Outcome = result.Outcome

	if input.Publish {
		progress.Phase = PhasePublish
		pubCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
			TaskQueue:           versioning.QueuePublish,
			StartToCloseTimeout: 2 * time.Minute,
			RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
		})
		var pub activities.PublishReportOutput
		if err := workflow.ExecuteActivity(pubCtx, "PublishReport", activities.PublishReportInput{Report: report}).Get(ctx, &pub); err != nil {
			logger.Warn("publish failed", "run_id", report.RunID, "error", err)
		} else {
			result.Published = pub.Published
		}
	}

	progress.Phase = PhaseDone
	logger.Info("sanity check complete",
		"run_id", report.RunID,
		"outcome", result.Outcome,
		"templates", progress.Templates,
		"forms", progress.Forms,
	)
	return result, nil
}
