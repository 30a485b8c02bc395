package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/formparity/parity-go/internal/domain"
)

// Metrics holds OTel metric instruments for sanity-check runs.
type Metrics struct {
	Runs                 metric.Int64Counter
	RunDuration          metric.Float64Histogram
	UnreachableTemplates metric.Int64Counter
	MismatchedForms      metric.Int64Counter
	ActivityCalls        metric.Int64Counter
}

// NewMetrics creates the parity metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("parity")

	runs, err := meter.Int64Counter("parity.runs",
		metric.WithDescription("Number of sanity-check runs by outcome"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram("parity.run.duration_seconds",
		metric.WithDescription("Wall time of one sanity-check run"),
	)
	if err != nil {
		return nil, err
	}

	unreachable, err := meter.Int64Counter("parity.templates.unreachable",
		metric.WithDescription("Form templates not reachable in the target environment"),
	)
	if err != nil {
		return nil, err
	}

	mismatched, err := meter.Int64Counter("parity.forms.mismatched",
		metric.WithDescription("Forms whose record counts differ between environments"),
	)
	if err != nil {
		return nil, err
	}

	activityCalls, err := meter.Int64Counter("parity.activity.calls",
		metric.WithDescription("Number of activity invocations"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Runs:                 runs,
		RunDuration:          runDuration,
		UnreachableTemplates: unreachable,
		MismatchedForms:      mismatched,
		ActivityCalls:        activityCalls,
	}, nil
}

// RecordRun records a finished run. A nil report counts as a failed run.
func (m *Metrics) RecordRun(ctx context.Context, r *domain.ComparisonReport, d time.Duration) {
	outcome := domain.OutcomeFailed
	var attrs []attribute.KeyValue
	if r != nil {
		outcome = r.Outcome()
		attrs = []attribute.KeyValue{attribute.String("from", r.From), attribute.String("to", r.To)}
		s := r.Summary()
		m.UnreachableTemplates.Add(ctx, int64(s.Unreachable), metric.WithAttributes(attrs...))
		m.MismatchedForms.Add(ctx, int64(s.Failed), metric.WithAttributes(attrs...))
	}
	m.Runs.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("outcome", string(outcome)))...))
	m.RunDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("outcome", string(outcome))))
}

// RecordActivity records an activity invocation.
func (m *Metrics) RecordActivity(ctx context.Context, name string) {
	m.ActivityCalls.Add(ctx, 1,
		metric.WithAttributes(attribute.String("activity", name)),
	)
}
