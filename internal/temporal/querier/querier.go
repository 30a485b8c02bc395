package querier

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"

	"github.com/formparity/parity-go/internal/temporal/versioning"
	"github.com/formparity/parity-go/internal/temporal/workflows"
)

// TemporalQuerier implements RunQuerier using a Temporal client.
type TemporalQuerier struct {
	client client.Client
}

// Compile-time check.
var _ RunQuerier = (*TemporalQuerier)(nil)

// New creates a TemporalQuerier.
func New(c client.Client) *TemporalQuerier {
	return &TemporalQuerier{client: c}
}

// WorkflowID builds the ID of a new run for the given environments.
func WorkflowID(input workflows.SanityCheckInput) string {
	from, to := input.From, input.To
	if from == "" {
		from = "default"
	}
	if to == "" {
		to = "default"
	}
	return fmt.Sprintf("sanity-check-%s-%s-%s", from, to, uuid.NewString()[:8])
}

// StartRun starts a SanityCheckWorkflow and returns its workflow ID.
func (q *TemporalQuerier) StartRun(ctx context.Context, input workflows.SanityCheckInput) (string, error) {
	run, err := q.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        WorkflowID(input),
		TaskQueue: versioning.QueueCheck,
	}, workflows.SanityCheckWorkflow, input)
	if err != nil {
		return "", fmt.Errorf("start sanity check: %w", err)
	}
	return run.GetID(), nil
}

// ListRuns lists workflow executions using Temporal's visibility API.
func (q *TemporalQuerier) ListRuns(ctx context.Context, opts ListOptions) ([]WorkflowSummary, error) {
	query := ""
	if opts.TaskQueue != "" {
		query = fmt.Sprintf("TaskQueue = %q", opts.TaskQueue)
	}
	if opts.StatusFilter != "" {
		if query != "" {
			query += " AND "
		}
		query += fmt.Sprintf("ExecutionStatus = %q", opts.StatusFilter)
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	resp, err := q.client.ListWorkflow(ctx, &workflowservice.ListWorkflowExecutionsRequest{
		Query:    query,
		PageSize: int32(pageSize),
	})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	var summaries []WorkflowSummary
	for _, exec := range resp.Executions {
		s := WorkflowSummary{
			WorkflowID: exec.Execution.WorkflowId,
			RunID:      exec.Execution.RunId,
			Status:     exec.Status.String(),
			StartTime:  exec.StartTime.AsTime(),
			TaskQueue:  exec.TaskQueue,
		}
		if exec.CloseTime != nil {
			s.CloseTime = exec.CloseTime.AsTime()
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// GetRun returns the result of a completed run or the progress of a running one.
func (q *TemporalQuerier) GetRun(ctx context.Context, workflowID string) (*RunState, error) {
	desc, err := q.client.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		return nil, fmt.Errorf("describe run: %w", err)
	}

	info := desc.WorkflowExecutionInfo
	state := &RunState{
		WorkflowSummary: WorkflowSummary{
			WorkflowID: info.Execution.WorkflowId,
			RunID:      info.Execution.RunId,
			Status:     info.Status.String(),
			StartTime:  info.StartTime.AsTime(),
			TaskQueue:  info.TaskQueue,
		},
	}
	if info.CloseTime != nil {
		state.CloseTime = info.CloseTime.AsTime()
	}

	switch info.Status {
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		var result workflows.SanityCheckResult
		if err := q.client.GetWorkflow(ctx, workflowID, "").Get(ctx, &result); err != nil {
			return nil, fmt.Errorf("get run result: %w", err)
		}
		state.Result = &result
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING:
		resp, err := q.client.QueryWorkflow(ctx, workflowID, "", workflows.QueryNameProgress)
		if err != nil {
			return nil, fmt.Errorf("query run progress: %w", err)
		}
		var progress workflows.Progress
		if err := resp.Get(&progress); err != nil {
			return nil, fmt.Errorf("decode run progress: %w", err)
		}
		state.Progress = &progress
	case enumspb.WORKFLOW_EXECUTION_STATUS_FAILED:
		if err := q.client.GetWorkflow(ctx, workflowID, "").Get(ctx, nil); err != nil {
			state.Error = err.Error()
		}
	}
	return state, nil
}
