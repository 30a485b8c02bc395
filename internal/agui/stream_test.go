package agui_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formparity/parity-go/internal/agui"
	"github.com/formparity/parity-go/internal/domain"
	"github.com/formparity/parity-go/internal/temporal/querier"
	"github.com/formparity/parity-go/internal/temporal/workflows"
)

// stubRuns returns states in order, repeating the last one.
type stubRuns struct {
	mu     sync.Mutex
	states []*querier.RunState
	calls  int
	err    error
}

func (s *stubRuns) StartRun(context.Context, workflows.SanityCheckInput) (string, error) {
	return "", nil
}

func (s *stubRuns) ListRuns(context.Context, querier.ListOptions) ([]querier.WorkflowSummary, error) {
	return nil, nil
}

func (s *stubRuns) GetRun(context.Context, string) (*querier.RunState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	i := min(s.calls, len(s.states)-1)
	s.calls++
	return s.states[i], nil
}

func running(phase workflows.Phase, templates, forms int) *querier.RunState {
	return &querier.RunState{
		WorkflowSummary: querier.WorkflowSummary{WorkflowID: "wf-1", Status: "Running"},
		Progress:        &workflows.Progress{Phase: phase, Templates: templates, Forms: forms},
	}
}

func stream(t *testing.T, runs querier.RunQuerier) []sseEvent {
	t.Helper()
	cfg := agui.StreamConfig{PollInterval: 10 * time.Millisecond, MaxDuration: 5 * time.Second}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/runs/{id}/stream", agui.StreamHandler(runs, cfg))
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/api/v1/runs/wf-1/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return parseSSE(t, resp)
}

func types(events []sseEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestStreamHandler_CompletedRun(t *testing.T) {
	runs := &stubRuns{states: []*querier.RunState{{
		WorkflowSummary: querier.WorkflowSummary{WorkflowID: "wf-1", Status: "Completed"},
		Result:          &workflows.SanityCheckResult{Outcome: domain.OutcomeDivergent},
	}}}

	events := stream(t, runs)
	require.Equal(t, []string{"RUN_STARTED", "STATE_SNAPSHOT", "RUN_FINISHED"}, types(events))

	var finished agui.Event
	require.NoError(t, json.Unmarshal([]byte(events[2].Data), &finished))
	data := finished.Data.(map[string]any)
	assert.Equal(t, "Completed", data["status"])
	assert.Equal(t, "divergent", data["outcome"])
}

func TestStreamHandler_ProgressToCompletion(t *testing.T) {
	runs := &stubRuns{states: []*querier.RunState{
		running(workflows.PhaseTemplates, 0, 0),
		running(workflows.PhaseTemplates, 0, 0),
		running(workflows.PhaseForms, 12, 0),
		{
			WorkflowSummary: querier.WorkflowSummary{WorkflowID: "wf-1", Status: "Completed"},
			Result:          &workflows.SanityCheckResult{Outcome: domain.OutcomePassed},
		},
	}}

	events := stream(t, runs)
	assert.Equal(t, []string{
		"RUN_STARTED",
		"STATE_SNAPSHOT",
		"STEP_FINISHED", // templates
		"STEP_STARTED",  // forms
		"STATE_DELTA",
		"STEP_FINISHED", // forms
		"STEP_STARTED",  // done
		"RUN_FINISHED",
	}, types(events))

	var delta struct {
		Data agui.StateDeltaData `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(events[4].Data), &delta))
	assert.Equal(t, workflows.PhaseForms, delta.Data.Phase)
	paths := make([]string, 0, len(delta.Data.Patches))
	for _, p := range delta.Data.Patches {
		paths = append(paths, p.Path)
	}
	assert.Equal(t, []string{"/progress/phase", "/progress/templates"}, paths)
}

func TestStreamHandler_FailedRun(t *testing.T) {
	runs := &stubRuns{states: []*querier.RunState{
		running(workflows.PhaseForms, 3, 0),
		{
			WorkflowSummary: querier.WorkflowSummary{WorkflowID: "wf-1", Status: "Failed"},
			Error:           "V5 QA: forms \"F\": no data",
		},
	}}

	events := stream(t, runs)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, "RUN_ERROR", last.Type)
	assert.Contains(t, last.Data, "no data")
}

func TestStreamHandler_ErrorQuerying(t *testing.T) {
	events := stream(t, &stubRuns{err: assert.AnError})
	require.Len(t, events, 2)
	assert.Equal(t, "RUN_STARTED", events[0].Type)
	assert.Equal(t, "RUN_ERROR", events[1].Type)
}

type sseEvent struct {
	Type string
	Data string
}

func parseSSE(t *testing.T, resp *http.Response) []sseEvent {
	t.Helper()
	var events []sseEvent
	scanner := bufio.NewScanner(resp.Body)
	var current sseEvent
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			current.Type = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			current.Data = strings.TrimPrefix(line, "data: ")
		} else if line == "" && current.Type != "" {
			events = append(events, current)
			current = sseEvent{}
		}
	}
	return events
}

func TestEventSerialization(t *testing.T) {
	event := agui.Event{
		Type:       agui.EventRunStarted,
		Timestamp:  time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC),
		WorkflowID: "wf-test",
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "RUN_STARTED", decoded["type"])
	assert.Equal(t, "wf-test", decoded["workflow_id"])
	assert.NotContains(t, decoded, "data")
}
