// Package agui implements AG-UI protocol SSE streaming for sanity-check runs.
package agui

import (
	"time"

	"github.com/formparity/parity-go/internal/domain"
	"github.com/formparity/parity-go/internal/temporal/querier"
	"github.com/formparity/parity-go/internal/temporal/workflows"
)

// EventType identifies an AG-UI event.
type EventType string

const (
	EventRunStarted    EventType = "RUN_STARTED"
	EventRunFinished   EventType = "RUN_FINISHED"
	EventRunError      EventType = "RUN_ERROR"
	EventStepStarted   EventType = "STEP_STARTED"
	EventStepFinished  EventType = "STEP_FINISHED"
	EventStateSnapshot EventType = "STATE_SNAPSHOT"
	EventStateDelta    EventType = "STATE_DELTA"
)

// Event is a single SSE event emitted to the client.
type Event struct {
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
	Data       any       `json:"data,omitempty"`
}

// StateSnapshotData carries the full run state in a STATE_SNAPSHOT event.
type StateSnapshotData struct {
	Phase workflows.Phase   `json:"phase,omitempty"`
	State *querier.RunState `json:"state"`
}

// StateDeltaData carries progress changes in a STATE_DELTA event.
type StateDeltaData struct {
	Phase   workflows.Phase `json:"phase"`
	Patches []Patch         `json:"patches"`
}

// Patch is an RFC 6902-style JSON Patch operation against the progress object.
type Patch struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// StepData carries phase transition info.
type StepData struct {
	Phase workflows.Phase `json:"phase"`
}

// RunFinishedData closes the stream of a run that reached a terminal status.
type RunFinishedData struct {
	Status  string         `json:"status"`
	Outcome domain.Outcome `json:"outcome,omitempty"`
}

// ErrorData carries error info for RUN_ERROR events.
type ErrorData struct {
	Message string `json:"message"`
}
