// Package querier provides access to sanity-check runs executed on Temporal.
package querier

import (
	"time"

	"github.com/formparity/parity-go/internal/temporal/workflows"
)

// ListOptions controls filtering for ListRuns.
type ListOptions struct {
	// TaskQueue filters by task queue name. Empty means no filter.
	TaskQueue string
	// StatusFilter filters by workflow status (e.g. "Running", "Completed").
	StatusFilter string
	// PageSize limits the number of results.
	PageSize int
}

// WorkflowSummary is a lightweight overview of a workflow execution.
type WorkflowSummary struct {
	WorkflowID string    `json:"workflow_id"`
	RunID      string    `json:"run_id"`
	Status     string    `json:"status"`
	StartTime  time.Time `json:"start_time"`
	CloseTime  time.Time `json:"close_time,omitempty"`
	TaskQueue  string    `json:"task_queue"`
}

// RunState is the progress of a running sanity check, the result of a
// completed one, or the failure of a failed one.
type RunState struct {
	WorkflowSummary
	Progress *workflows.Progress          `json:"progress,omitempty"`
	Result   *workflows.SanityCheckResult `json:"result,omitempty"`
	// Error is the failure message of a failed run.
	Error string `json:"error,omitempty"`
}
