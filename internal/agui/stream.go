package agui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/formparity/parity-go/internal/temporal/querier"
	"github.com/formparity/parity-go/internal/temporal/workflows"
)

// statusRunning is the Temporal execution status of a run still in progress.
const statusRunning = "Running"

// StreamConfig controls SSE stream behavior.
type StreamConfig struct {
	PollInterval time.Duration
	MaxDuration  time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() StreamConfig {
	return StreamConfig{
		PollInterval: 2 * time.Second,
		MaxDuration:  10 * time.Minute,
	}
}

// StreamHandler serves SSE events for a run's progress until it reaches a
// terminal status.
func StreamHandler(runs querier.RunQuerier, cfg StreamConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wfID := r.PathValue("id")
		if wfID == "" {
			http.Error(w, "workflow id required", http.StatusBadRequest)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		ctx, cancel := context.WithTimeout(r.Context(), cfg.MaxDuration)
		defer cancel()

		emit := func(t EventType, data any) {
			writeSSE(w, flusher, Event{
				Type:       t,
				Timestamp:  time.Now().UTC(),
				WorkflowID: wfID,
				Data:       data,
			})
		}

		emit(EventRunStarted, nil)

		state, err := runs.GetRun(ctx, wfID)
		if err != nil {
			emit(EventRunError, ErrorData{Message: err.Error()})
			return
		}
		emit(EventStateSnapshot, StateSnapshotData{Phase: phaseOf(state), State: state})
		if state.Status != statusRunning {
			finish(state, emit)
			return
		}

		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()

		last := state
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				state, err = runs.GetRun(ctx, wfID)
				if err != nil {
					emit(EventRunError, ErrorData{Message: err.Error()})
					return
				}

				lastPhase, phase := phaseOf(last), phaseOf(state)
				if phase != "" && phase != lastPhase {
					if lastPhase != "" {
						emit(EventStepFinished, StepData{Phase: lastPhase})
					}
					emit(EventStepStarted, StepData{Phase: phase})
				}
				if patches := computePatches(last.Progress, state.Progress); len(patches) > 0 {
					emit(EventStateDelta, StateDeltaData{Phase: phase, Patches: patches})
				}

				if state.Status != statusRunning {
					finish(state, emit)
					return
				}
				last = state
			}
		}
	}
}

func finish(state *querier.RunState, emit func(EventType, any)) {
	if state.Error != "" {
		emit(EventRunError, ErrorData{Message: state.Error})
		return
	}
	data := RunFinishedData{Status: state.Status}
	if state.Result != nil {
		data.Outcome = state.Result.Outcome
	}
	emit(EventRunFinished, data)
}

func phaseOf(state *querier.RunState) workflows.Phase {
	if state.Progress != nil {
		return state.Progress.Phase
	}
	if state.Result != nil {
		return workflows.PhaseDone
	}
	return ""
}

// computePatches compares two progress snapshots field by field.
func computePatches(prev, cur *workflows.Progress) []Patch {
	if cur == nil {
		return nil
	}
	if prev == nil {
		return []Patch{{Op: "replace", Path: "/progress", Value: cur}}
	}
	var patches []Patch
	if prev.Phase != cur.Phase {
		patches = append(patches, Patch{Op: "replace", Path: "/progress/phase", Value: cur.Phase})
	}
	if prev.Templates != cur.Templates {
		patches = append(patches, Patch{Op: "replace", Path: "/progress/templates", Value: cur.Templates})
	}
	if prev.Forms != cur.Forms {
		patches = append(patches, Patch{Op: "replace", Path: "/progress/forms", Value: cur.Forms})
	}
	if prev.Outcome != cur.Outcome {
		patches = append(patches, Patch{Op: "replace", Path: "/progress/outcome", Value: cur.Outcome})
	}
	return patches
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
	flusher.Flush()
}
