package mcpserver_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formparity/parity-go/internal/domain"
	"github.com/formparity/parity-go/internal/mcpserver"
	"github.com/formparity/parity-go/internal/parity"
	"github.com/formparity/parity-go/internal/temporal/querier"
	"github.com/formparity/parity-go/internal/temporal/workflows"
	"github.com/formparity/parity-go/internal/testutil"
)

type stubRuns struct {
	started []workflows.SanityCheckInput
	states  map[string]*querier.RunState
}

func (s *stubRuns) StartRun(_ context.Context, in workflows.SanityCheckInput) (string, error) {
	s.started = append(s.started, in)
	return "sanity-check-dev-qa-1234abcd", nil
}

func (s *stubRuns) GetRun(_ context.Context, id string) (*querier.RunState, error) {
	return s.states[id], nil
}

func (s *stubRuns) ListRuns(context.Context, querier.ListOptions) ([]querier.WorkflowSummary, error) {
	return nil, nil
}

func newRunner(t *testing.T, from, to testutil.VaultFixture) *parity.Runner {
	t.Helper()
	a := testutil.NewVaultServer(t, from)
	b := testutil.NewVaultServer(t, to)
	return &parity.Runner{
		From:       a.Environment("dev"),
		To:         b.Environment("qa"),
		Forms:      []string{"Email Notification"},
		Options:    parity.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))},
		HTTPClient: http.DefaultClient,
	}
}

// connect registers the tools on a server and returns a connected client
// session over in-memory transports.
func connect(t *testing.T, conn mcpserver.Connector, runs querier.RunQuerier) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "v1"}, nil)
	mcpserver.RegisterTools(server, conn, runs)

	serverT, clientT := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v1"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callText(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func toolNames(t *testing.T, cs *mcp.ClientSession) []string {
	t.Helper()
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestRegisterTools_WithoutRuns(t *testing.T) {
	runner := newRunner(t, testutil.VaultFixture{Name: "A"}, testutil.VaultFixture{Name: "B"})
	cs := connect(t, runner, nil)

	assert.ElementsMatch(t, []string{"run_sanity_check", "compare_form"}, toolNames(t, cs))
}

func TestRegisterTools_WithRuns(t *testing.T) {
	runner := newRunner(t, testutil.VaultFixture{Name: "A"}, testutil.VaultFixture{Name: "B"})
	cs := connect(t, runner, &stubRuns{})

	assert.ElementsMatch(t,
		[]string{"run_sanity_check", "compare_form", "start_run", "list_runs", "get_run"},
		toolNames(t, cs))
}

func TestRunSanityCheck(t *testing.T) {
	tpls := testutil.Templates(2)
	runner := newRunner(t,
		testutil.VaultFixture{Name: "V5 Dev", Templates: tpls, FormCounts: map[string]int{"Email Notification": 3}},
		testutil.VaultFixture{Name: "V5 QA", Templates: tpls, FormCounts: map[string]int{"Email Notification": 3}},
	)
	cs := connect(t, runner, nil)

	text, isErr := callText(t, cs, "run_sanity_check", map[string]any{"format": "json"})
	require.False(t, isErr, text)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &got))
	assert.Equal(t, "V5 Dev", got["from"])
	assert.Equal(t, string(domain.OutcomePassed), got["outcome"])
}

func TestRunSanityCheck_DefaultsToTable(t *testing.T) {
	tpls := testutil.Templates(1)
	runner := newRunner(t,
		testutil.VaultFixture{Name: "V5 Dev", Templates: tpls, FormCounts: map[string]int{"Email Notification": 3}},
		testutil.VaultFixture{Name: "V5 QA", Templates: tpls, FormCounts: map[string]int{"Email Notification": 3}},
	)
	cs := connect(t, runner, nil)

	text, isErr := callText(t, cs, "run_sanity_check", map[string]any{})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Email Notification")
	assert.NotContains(t, text, "<html")
}

func TestRunSanityCheck_Errors(t *testing.T) {
	runner := newRunner(t,
		testutil.VaultFixture{Name: "A"},
		testutil.VaultFixture{Name: "B", RejectAuth: true},
	)
	cs := connect(t, runner, nil)

	text, isErr := callText(t, cs, "run_sanity_check", map[string]any{"format": "pdf"})
	assert.True(t, isErr)
	assert.Contains(t, text, "unknown format")

	text, isErr = callText(t, cs, "run_sanity_check", map[string]any{})
	assert.True(t, isErr)
	assert.Contains(t, text, "There was an error: parity: connect to")
}

func TestCompareForm(t *testing.T) {
	runner := newRunner(t,
		testutil.VaultFixture{Name: "A", FormCounts: map[string]int{"Process Timeframe": 4}},
		testutil.VaultFixture{Name: "B", FormCounts: map[string]int{"Process Timeframe": 2}},
	)
	cs := connect(t, runner, nil)

	text, isErr := callText(t, cs, "compare_form", map[string]any{"form": "Process Timeframe"})
	require.False(t, isErr, text)

	var got domain.ParityResult
	require.NoError(t, json.Unmarshal([]byte(text), &got))
	assert.Equal(t, domain.NewParityResult("Process Timeframe", 4, 2), got)

	text, isErr = callText(t, cs, "compare_form", map[string]any{"form": ""})
	assert.True(t, isErr)
	assert.Equal(t, "form is required", text)
}

func TestRunTools(t *testing.T) {
	runs := &stubRuns{states: map[string]*querier.RunState{
		"wf-1": {WorkflowSummary: querier.WorkflowSummary{WorkflowID: "wf-1", Status: "Running"}},
	}}
	runner := newRunner(t, testutil.VaultFixture{Name: "A"}, testutil.VaultFixture{Name: "B"})
	cs := connect(t, runner, runs)

	text, isErr := callText(t, cs, "start_run", map[string]any{"from": "dev", "to": "qa", "publish": true})
	require.False(t, isErr, text)
	assert.JSONEq(t, `{"workflow_id":"sanity-check-dev-qa-1234abcd"}`, text)
	require.Len(t, runs.started, 1)
	assert.Equal(t, "dev", runs.started[0].From)
	assert.True(t, runs.started[0].Publish)

	text, isErr = callText(t, cs, "list_runs", map[string]any{})
	require.False(t, isErr, text)
	assert.JSONEq(t, `[]`, text)

	text, isErr = callText(t, cs, "get_run", map[string]any{"workflow_id": "wf-1"})
	require.False(t, isErr, text)
	assert.Contains(t, text, `"status": "Running"`)

	text, isErr = callText(t, cs, "get_run", map[string]any{"workflow_id": ""})
	assert.True(t, isErr)
	assert.Equal(t, "workflow_id is required", text)
}
