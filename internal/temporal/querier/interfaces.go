package querier

import (
	"context"

	"github.com/formparity/parity-go/internal/temporal/workflows"
)

// RunQuerier starts sanity-check runs on Temporal and reads their results.
// Used by the HTTP API, the MCP server, and the CLI.
type RunQuerier interface {
	StartRun(ctx context.Context, input workflows.SanityCheckInput) (string, error)
	GetRun(ctx context.Context, workflowID string) (*RunState, error)
	ListRuns(ctx context.Context, opts ListOptions) ([]WorkflowSummary, error)
}
