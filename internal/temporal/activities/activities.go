package activities

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"go.temporal.io/sdk/temporal"

	"github.com/formparity/parity-go/internal/config"
	"github.com/formparity/parity-go/internal/domain"
	"github.com/formparity/parity-go/internal/observability"
	"github.com/formparity/parity-go/internal/parity"
	"github.com/formparity/parity-go/internal/ratelimit"
)

// Publisher sends a finished report to an external sink.
// Implemented by cloudwatch.Publisher.
type Publisher interface {
	Publish(ctx context.Context, r *domain.ComparisonReport) error
}

// Activities holds the dependencies for all Temporal activities.
// Each method is registered as a Temporal activity. Every activity that
// talks to the platform authorizes afresh; sessions never cross the
// serialization boundary.
type Activities struct {
	Environments    config.EnvironmentsFile
	HTTPClient      *http.Client
	IsolateFailures bool
	Publisher       Publisher              // nil = publishing disabled
	Budget          *ratelimit.RunBudget   // nil = no budget enforcement
	Metrics         *observability.Metrics // nil = no metrics
	Logger          *slog.Logger
}

func (a *Activities) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// checkBudget enforces per-migration run budgets when configured.
func (a *Activities) checkBudget(m config.Migration) error {
	if a.Budget == nil {
		return nil
	}
	if err := a.Budget.Take(m.From.Key + "->" + m.To.Key); err != nil {
		return temporal.NewNonRetryableApplicationError(err.Error(), "BudgetExceeded", err)
	}
	return nil
}

func (a *Activities) record(ctx context.Context, name string) {
	if a.Metrics != nil {
		a.Metrics.RecordActivity(ctx, name)
	}
}

func (a *Activities) resolve(in MigrationInput) (config.Migration, error) {
	m, err := a.Environments.Resolve(in.From, in.To, in.Forms)
	if err != nil {
		return config.Migration{}, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidMigration", err)
	}
	return m, nil
}

func (a *Activities) connect(ctx context.Context, m config.Migration) (*parity.Checker, error) {
	runner := &parity.Runner{
		From:       m.From,
		To:         m.To,
		Forms:      m.Forms,
		Options:    parity.Options{IsolateFailures: a.IsolateFailures, Logger: a.logger()},
		HTTPClient: a.HTTPClient,
	}
	return runner.Connect(ctx)
}

// CheckTemplates validates both template lists and probes every template of
// the target environment. The run budget is taken before either environment
// is authorized.
func (a *Activities) CheckTemplates(ctx context.Context, in MigrationInput) (CheckTemplatesOutput, error) {
	a.record(ctx, "CheckTemplates")
	m, err := a.resolve(in)
	if err != nil {
		return CheckTemplatesOutput{}, fmt.Errorf("check templates activity: %w", err)
	}
	if err := a.checkBudget(m); err != nil {
		return CheckTemplatesOutput{}, err
	}
	c, err := a.connect(ctx, m)
	if err != nil {
		return CheckTemplatesOutput{}, fmt.Errorf("check templates activity: %w", err)
	}
	templates, counts, err := c.CheckTemplates(ctx)
	if err != nil {
		return CheckTemplatesOutput{}, fmt.Errorf("check templates activity: %w", err)
	}
	return CheckTemplatesOutput{
		FromName:  m.From.DisplayName(),
		ToName:    m.To.DisplayName(),
		Counts:    counts,
		Templates: templates,
	}, nil
}

// CompareForms compares record counts for the configured forms.
func (a *Activities) CompareForms(ctx context.Context, in MigrationInput) (CompareFormsOutput, error) {
	a.record(ctx, "CompareForms")
	m, err := a.resolve(in)
	if err != nil {
		return CompareFormsOutput{}, fmt.Errorf("compare forms activity: %w", err)
	}
	c, err := a.connect(ctx, m)
	if err != nil {
		return CompareFormsOutput{}, fmt.Errorf("compare forms activity: %w", err)
	}
	forms, err := c.CompareForms(ctx)
	if err != nil {
		return CompareFormsOutput{}, fmt.Errorf("compare forms activity: %w", err)
	}
	return CompareFormsOutput{Forms: forms}, nil
}

// PublishReport sends the report to the configured publisher, if any.
func (a *Activities) PublishReport(ctx context.Context, in PublishReportInput) (PublishReportOutput, error) {
	a.record(ctx, "PublishReport")
	if a.Publisher == nil {
		a.logger().Info("publishing disabled, skipping", "run_id", in.Report.RunID)
		return PublishReportOutput{}, nil
	}
	if err := a.Publisher.Publish(ctx, &in.Report); err != nil {
		return PublishReportOutput{}, fmt.Errorf("publish report activity: %w", err)
	}
	return PublishReportOutput{Published: true}, nil
}
