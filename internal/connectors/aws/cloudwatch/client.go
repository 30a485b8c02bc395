// Package cloudwatch publishes sanity-check results as CloudWatch metrics.
package cloudwatch

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cw "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/formparity/parity-go/internal/domain"
	"github.com/formparity/parity-go/internal/ratelimit"
)

// DefaultNamespace is used when no namespace is configured.
const DefaultNamespace = "FormParity"

// maxDatumsPerCall stays well below the PutMetricData request limit.
const maxDatumsPerCall = 500

// API is the subset of the CloudWatch client used by this package.
type API interface {
	PutMetricData(ctx context.Context, params *cw.PutMetricDataInput, optFns ...func(*cw.Options)) (*cw.PutMetricDataOutput, error)
}

// Publisher writes report summaries to CloudWatch.
type Publisher struct {
	api       API
	namespace string
	limiter   *ratelimit.Limiter
}

// New creates a Publisher from an AWS config. A nil limiter disables throttling.
func New(cfg aws.Config, namespace string, limiter *ratelimit.Limiter) *Publisher {
	return NewFromAPI(cw.NewFromConfig(cfg), namespace, limiter)
}

// NewFromAPI creates a Publisher from an explicit API implementation (for testing).
func NewFromAPI(api API, namespace string, limiter *ratelimit.Limiter) *Publisher {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Publisher{api: api, namespace: namespace, limiter: limiter}
}

// Namespace returns the metric namespace.
func (p *Publisher) Namespace() string {
	return p.namespace
}

// Publish emits run-level metrics dimensioned by From/To, plus a per-form
// record count delta (B minus A).
func (p *Publisher) Publish(ctx context.Context, r *domain.ComparisonReport) error {
	data := Datums(r)
	for start := 0; start < len(data); start += maxDatumsPerCall {
		end := min(start+maxDatumsPerCall, len(data))
		if err := p.limiter.Wait(ctx, ratelimit.KeyCloudWatch); err != nil {
			return fmt.Errorf("cloudwatch: %w", err)
		}
		_, err := p.api.PutMetricData(ctx, &cw.PutMetricDataInput{
			Namespace:  aws.String(p.namespace),
			MetricData: data[start:end],
		})
		if err != nil {
			return fmt.Errorf("cloudwatch: put metric data: %w", err)
		}
	}
	return nil
}

// Datums converts a report into metric data.
func Datums(r *domain.ComparisonReport) []cwtypes.MetricDatum {
	ts := r.GeneratedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	runDims := []cwtypes.Dimension{
		{Name: aws.String("From"), Value: aws.String(r.From)},
		{Name: aws.String("To"), Value: aws.String(r.To)},
	}
	s := r.Summary()
	passed := 0.0
	if r.Outcome() == domain.OutcomePassed {
		passed = 1
	}

	count := func(name string, v float64) cwtypes.MetricDatum {
		return cwtypes.MetricDatum{
			MetricName: aws.String(name),
			Dimensions: runDims,
			Timestamp:  aws.Time(ts),
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(v),
		}
	}
	data := []cwtypes.MetricDatum{
		count("RunPassed", passed),
		count("TemplatesReachable", float64(s.Reachable)),
		count("TemplatesUnreachable", float64(s.Unreachable)),
		count("FormsPassed", float64(s.Passed)),
		count("FormsFailed", float64(s.Failed)),
	}
	for _, f := range r.Forms {
		if f.Error != "" {
			continue
		}
		dims := append([]cwtypes.Dimension{{Name: aws.String("FormName"), Value: aws.String(f.FormName)}}, runDims...)
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String("RecordCountDelta"),
			Dimensions: dims,
			Timestamp:  aws.Time(ts),
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(float64(f.CountB - f.CountA)),
		})
	}
	return data
}
