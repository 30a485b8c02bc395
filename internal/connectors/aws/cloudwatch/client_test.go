package cloudwatch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cw "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formparity/parity-go/internal/domain"
)

type mockCWAPI struct {
	inputs []*cw.PutMetricDataInput
	err    error
}

func (m *mockCWAPI) PutMetricData(_ context.Context, in *cw.PutMetricDataInput, _ ...func(*cw.Options)) (*cw.PutMetricDataOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.inputs = append(m.inputs, in)
	return &cw.PutMetricDataOutput{}, nil
}

func sampleReport() *domain.ComparisonReport {
	return &domain.ComparisonReport{
		From:        "dev",
		To:          "qa",
		GeneratedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Templates: []domain.EntityCheckResult{
			{Name: "A", Reachable: true},
			{Name: "B", ErrorDetail: "Not Found"},
		},
		Forms: []domain.ParityResult{
			domain.NewParityResult("Email Notification", 5, 4),
			domain.FailedParityResult("Process Timeframe", errors.New("status 404")),
		},
	}
}

func valueOf(t *testing.T, data []cwtypes.MetricDatum, name string) float64 {
	t.Helper()
	for _, d := range data {
		if aws.ToString(d.MetricName) == name {
			return aws.ToFloat64(d.Value)
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestPublish(t *testing.T) {
	mock := &mockCWAPI{}
	p := NewFromAPI(mock, "", nil)
	require.NoError(t, p.Publish(context.Background(), sampleReport()))

	require.Len(t, mock.inputs, 1)
	in := mock.inputs[0]
	assert.Equal(t, DefaultNamespace, aws.ToString(in.Namespace))

	data := in.MetricData
	assert.Len(t, data, 6) // five run metrics + one delta; the isolated failure has no delta
	assert.Equal(t, 0.0, valueOf(t, data, "RunPassed"))
	assert.Equal(t, 1.0, valueOf(t, data, "TemplatesReachable"))
	assert.Equal(t, 1.0, valueOf(t, data, "TemplatesUnreachable"))
	assert.Equal(t, 2.0, valueOf(t, data, "FormsFailed"))
	assert.Equal(t, -1.0, valueOf(t, data, "RecordCountDelta"))
}

func TestPublish_Batches(t *testing.T) {
	r := sampleReport()
	r.Forms = nil
	for i := range 600 {
		r.Forms = append(r.Forms, domain.NewParityResult(fmt.Sprintf("form-%d", i), 1, 1))
	}

	mock := &mockCWAPI{}
	require.NoError(t, NewFromAPI(mock, "Custom", nil).Publish(context.Background(), r))
	require.Len(t, mock.inputs, 2)
	assert.Len(t, mock.inputs[0].MetricData, maxDatumsPerCall)
	assert.Len(t, mock.inputs[1].MetricData, 605-maxDatumsPerCall)
	assert.Equal(t, "Custom", aws.ToString(mock.inputs[1].Namespace))
}

func TestPublish_Error(t *testing.T) {
	p := NewFromAPI(&mockCWAPI{err: errors.New("throttled")}, "", nil)
	err := p.Publish(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cloudwatch: put metric data: throttled")
}
