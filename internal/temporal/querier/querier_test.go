package querier_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	commonpb "go.temporal.io/api/common/v1"
	enumspb "go.temporal.io/api/enums/v1"
	workflowpb "go.temporal.io/api/workflow/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	"github.com/formparity/parity-go/internal/domain"
	"github.com/formparity/parity-go/internal/temporal/activities"
	"github.com/formparity/parity-go/internal/temporal/querier"
	"github.com/formparity/parity-go/internal/temporal/versioning"
	"github.com/formparity/parity-go/internal/temporal/workflows"
)

func TestWorkflowID(t *testing.T) {
	id := querier.WorkflowID(workflows.SanityCheckInput{MigrationInput: activities.MigrationInput{From: "dev", To: "qa"}})
	assert.True(t, strings.HasPrefix(id, "sanity-check-dev-qa-"), id)

	id = querier.WorkflowID(workflows.SanityCheckInput{})
	assert.True(t, strings.HasPrefix(id, "sanity-check-default-default-"), id)
}

func TestStartRun(t *testing.T) {
	c := &mocks.Client{}
	run := &mocks.WorkflowRun{}
	run.On("GetID").Return("sanity-check-dev-qa-1234")
	c.On("ExecuteWorkflow", mock.Anything, mock.MatchedBy(func(o client.StartWorkflowOptions) bool {
		return o.TaskQueue == versioning.QueueCheck && strings.HasPrefix(o.ID, "sanity-check-dev-qa-")
	}), mock.Anything, mock.Anything).Return(run, nil)

	q := querier.New(c)
	id, err := q.StartRun(context.Background(), workflows.SanityCheckInput{MigrationInput: activities.MigrationInput{From: "dev", To: "qa"}})
	require.NoError(t, err)
	assert.Equal(t, "sanity-check-dev-qa-1234", id)
	c.AssertExpectations(t)
}

func TestStartRun_Error(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("unavailable"))

	_, err := querier.New(c).StartRun(context.Background(), workflows.SanityCheckInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start sanity check")
}

func describeResponse(id string, status enumspb.WorkflowExecutionStatus) *workflowservice.DescribeWorkflowExecutionResponse {
	return &workflowservice.DescribeWorkflowExecutionResponse{
		WorkflowExecutionInfo: &workflowpb.WorkflowExecutionInfo{
			Execution: &commonpb.WorkflowExecution{WorkflowId: id, RunId: "run-1"},
			Status:    status,
			TaskQueue: versioning.QueueCheck,
		},
	}
}

func TestGetRun_Completed(t *testing.T) {
	c := &mocks.Client{}
	c.On("DescribeWorkflowExecution", mock.Anything, "wf-1", "").
		Return(describeResponse("wf-1", enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED), nil)

	run := &mocks.WorkflowRun{}
	run.On("Get", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		out := args.Get(1).(*workflows.SanityCheckResult)
		*out = workflows.SanityCheckResult{
			Report:  domain.ComparisonReport{RunID: "wf-1"},
			Outcome: domain.OutcomePassed,
		}
	}).Return(nil)
	c.On("GetWorkflow", mock.Anything, "wf-1", "").Return(run)

	state, err := querier.New(c).GetRun(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "wf-1", state.WorkflowID)
	assert.Equal(t, "Completed", state.Status)
	require.NotNil(t, state.Result)
	assert.Equal(t, domain.OutcomePassed, state.Result.Outcome)
	assert.Nil(t, state.Progress)
}

func TestGetRun_Failed(t *testing.T) {
	c := &mocks.Client{}
	c.On("DescribeWorkflowExecution", mock.Anything, "wf-2", "").
		Return(describeResponse("wf-2", enumspb.WORKFLOW_EXECUTION_STATUS_FAILED), nil)
	run := &mocks.WorkflowRun{}
	run.On("Get", mock.Anything, mock.Anything).Return(errors.New("check templates: status 404"))
	c.On("GetWorkflow", mock.Anything, "wf-2", "").Return(run)

	state, err := querier.New(c).GetRun(context.Background(), "wf-2")
	require.NoError(t, err)
	assert.Equal(t, "Failed", state.Status)
	assert.Contains(t, state.Error, "status 404")
	assert.Nil(t, state.Result)
}

func TestGetRun_DescribeError(t *testing.T) {
	c := &mocks.Client{}
	c.On("DescribeWorkflowExecution", mock.Anything, "missing", "").Return(nil, errors.New("not found"))

	_, err := querier.New(c).GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "describe run")
}

func TestListRuns(t *testing.T) {
	c := &mocks.Client{}
	c.On("ListWorkflow", mock.Anything, mock.MatchedBy(func(r *workflowservice.ListWorkflowExecutionsRequest) bool {
		return r.Query == `TaskQueue = "parity-check" AND ExecutionStatus = "Running"` && r.PageSize == 50
	})).Return(&workflowservice.ListWorkflowExecutionsResponse{
		Executions: []*workflowpb.WorkflowExecutionInfo{
			{Execution: &commonpb.WorkflowExecution{WorkflowId: "wf-1", RunId: "r1"}, Status: enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING, TaskQueue: versioning.QueueCheck},
		},
	}, nil)

	runs, err := querier.New(c).ListRuns(context.Background(), querier.ListOptions{
		TaskQueue:    versioning.QueueCheck,
		StatusFilter: "Running",
	})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "wf-1", runs[0].WorkflowID)
	assert.Equal(t, "Running", runs[0].Status)
}
