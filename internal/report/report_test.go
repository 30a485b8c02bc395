package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formparity/parity-go/internal/domain"
)

func sampleReport() *domain.ComparisonReport {
	return &domain.ComparisonReport{
		RunID:          "run-1",
		From:           "V5 Dev",
		To:             "V5 QA",
		GeneratedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TemplateCounts: domain.TemplateCounts{From: 2, To: 2},
		Templates: []domain.EntityCheckResult{
			{Name: "Intake", URL: "https://qa/api/v1/a/b/formtemplates/1/forms?expand=true", Reachable: true},
			{Name: "Archive <old>", URL: "https://qa/api/v1/a/b/formtemplates/2/forms?expand=true", ErrorDetail: "Not Found"},
		},
		Forms: []domain.ParityResult{
			domain.NewParityResult("Email Notification", 5, 5),
			domain.NewParityResult("Process Timeframe", 5, 4),
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatHTML, false},
		{"HTML", FormatHTML, false},
		{" json ", FormatJSON, false},
		{"table", FormatTable, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTML_Structure(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatHTML, sampleReport()))
	out := buf.String()

	templatesAt := strings.Index(out, "Form Templates")
	recordsAt := strings.Index(out, "Form Records")
	require.NotEqual(t, -1, templatesAt)
	require.NotEqual(t, -1, recordsAt)
	assert.Less(t, templatesAt, recordsAt)

	assert.Contains(t, out, "V5 Dev Count")
	assert.Contains(t, out, "V5 QA Count")
	assert.Contains(t, out, `style="color:green">OK</td>`)
	assert.Contains(t, out, `style="color:red">Not Found</td>`)
	assert.Contains(t, out, `<span style="color:green">YES</span>`)
	assert.Contains(t, out, `<span style="color:red">NO</span>`)
	assert.Contains(t, out, "2026-03-01 12:00:00 UTC")
	assert.Contains(t, out, "Archive &lt;old&gt;")
	assert.NotContains(t, out, "Archive <old>")
}

func TestHTML_IsolatedFailure(t *testing.T) {
	r := sampleReport()
	r.Forms = append(r.Forms, domain.ParityResult{FormName: "zFirstNameLookup", Error: "V5 QA: forms: status 404"})

	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, r))
	assert.Contains(t, buf.String(), "V5 QA: forms: status 404")
}

func TestJSON_IsolatedFailureIsFailedOutcome(t *testing.T) {
	r := sampleReport()
	r.Forms = append(r.Forms, domain.ParityResult{FormName: "zFirstNameLookup", Error: "V5 QA: forms: status 404"})

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, r))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "failed", got["outcome"])
	summary := got["summary"].(map[string]any)
	assert.EqualValues(t, 1, summary["errored"])
	assert.EqualValues(t, 2, summary["failed"])
}

func TestHTML_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, HTML(&a, sampleReport()))
	require.NoError(t, HTML(&b, sampleReport()))
	assert.Equal(t, a.String(), b.String())
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatJSON, sampleReport()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Equal(t, "divergent", got["outcome"])
	summary := got["summary"].(map[string]any)
	assert.EqualValues(t, 1, summary["unreachable"])
	assert.EqualValues(t, 1, summary["failed"])
	assert.Len(t, got["forms"], 2)
}

func TestTable(t *testing.T) {
	out := Table(sampleReport())
	assert.Contains(t, out, "Form Templates")
	assert.Contains(t, out, "Form Records")
	assert.Contains(t, out, "Intake")
	assert.Contains(t, out, "Not Found")
	assert.Contains(t, out, "YES")
	assert.Contains(t, out, "NO")
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.True(t, strings.HasPrefix(FormatHTML.ContentType(), "text/html"))
}
