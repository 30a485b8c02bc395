// Package mcpserver exposes sanity checks and Temporal runs via MCP tools.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/formparity/parity-go/internal/parity"
	"github.com/formparity/parity-go/internal/report"
	"github.com/formparity/parity-go/internal/temporal/activities"
	"github.com/formparity/parity-go/internal/temporal/querier"
	"github.com/formparity/parity-go/internal/temporal/versioning"
	"github.com/formparity/parity-go/internal/temporal/workflows"
)

// Connector authorizes both environments. Satisfied by *parity.Runner.
type Connector interface {
	Connect(ctx context.Context) (*parity.Checker, error)
}

// RegisterTools registers the sanity-check tools on the given server. The run
// tools are only registered when runs is non-nil.
func RegisterTools(server *mcp.Server, conn Connector, runs querier.RunQuerier) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "run_sanity_check",
			Description: "Compare template reachability and form record counts between the configured environments",
		},
		runSanityCheckHandler(conn),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "compare_form",
			Description: "Compare the record count of one form between the configured environments",
		},
		compareFormHandler(conn),
	)

	if runs == nil {
		return
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "start_run",
			Description: "Start a sanity check on Temporal and return its workflow ID",
		},
		startRunHandler(runs),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_runs",
			Description: "List recent sanity-check runs with status",
		},
		listRunsHandler(runs),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_run",
			Description: "Get progress, report, or failure of a sanity-check run",
		},
		getRunHandler(runs),
	)
}

type runSanityCheckInput struct {
	Format string `json:"format,omitempty" jsonschema:"html, json or table; defaults to table"`
}

func runSanityCheckHandler(conn Connector) mcp.ToolHandlerFor[runSanityCheckInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input runSanityCheckInput) (*mcp.CallToolResult, any, error) {
		if input.Format == "" {
			input.Format = string(report.FormatTable)
		}
		format, err := report.ParseFormat(input.Format)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}

		checker, err := conn.Connect(ctx)
		if err != nil {
			return errorResult("There was an error: " + err.Error()), nil, nil
		}
		rep, err := checker.Run(ctx)
		if err != nil {
			return errorResult("There was an error: " + err.Error()), nil, nil
		}

		var buf bytes.Buffer
		if err := report.Render(&buf, format, rep); err != nil {
			return nil, nil, fmt.Errorf("run_sanity_check: %w", err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: buf.String()},
			},
		}, nil, nil
	}
}

type compareFormInput struct {
	Form string `json:"form" jsonschema:"form template name"`
}

func compareFormHandler(conn Connector) mcp.ToolHandlerFor[compareFormInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input compareFormInput) (*mcp.CallToolResult, any, error) {
		if input.Form == "" {
			return errorResult("form is required"), nil, nil
		}

		checker, err := conn.Connect(ctx)
		if err != nil {
			return errorResult("There was an error: " + err.Error()), nil, nil
		}
		result, err := checker.CompareForm(ctx, input.Form)
		if err != nil {
			return errorResult("There was an error: " + err.Error()), nil, nil
		}
		return textResult(result)
	}
}

type startRunInput struct {
	From    string   `json:"from,omitempty" jsonschema:"source environment key"`
	To      string   `json:"to,omitempty" jsonschema:"target environment key"`
	Forms   []string `json:"forms,omitempty" jsonschema:"form names to compare"`
	Publish bool     `json:"publish,omitempty" jsonschema:"publish the outcome as metrics"`
}

func startRunHandler(runs querier.RunQuerier) mcp.ToolHandlerFor[startRunInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input startRunInput) (*mcp.CallToolResult, any, error) {
		id, err := runs.StartRun(ctx, workflows.SanityCheckInput{
			MigrationInput: activities.MigrationInput{From: input.From, To: input.To, Forms: input.Forms},
			Publish:        input.Publish,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("start_run: %w", err)
		}
		return textResult(map[string]string{"workflow_id": id})
	}
}

type listRunsInput struct {
	Status string `json:"status,omitempty"`
}

func listRunsHandler(runs querier.RunQuerier) mcp.ToolHandlerFor[listRunsInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input listRunsInput) (*mcp.CallToolResult, any, error) {
		opts := querier.ListOptions{TaskQueue: versioning.QueueCheck}
		if input.Status != "" {
			opts.StatusFilter = input.Status
		}

		summaries, err := runs.ListRuns(ctx, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("list_runs: %w", err)
		}
		if summaries == nil {
			summaries = []querier.WorkflowSummary{}
		}
		return textResult(summaries)
	}
}

type workflowIDInput struct {
	WorkflowID string `json:"workflow_id"`
}

func getRunHandler(runs querier.RunQuerier) mcp.ToolHandlerFor[workflowIDInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input workflowIDInput) (*mcp.CallToolResult, any, error) {
		if input.WorkflowID == "" {
			return errorResult("workflow_id is required"), nil, nil
		}

		state, err := runs.GetRun(ctx, input.WorkflowID)
		if err != nil {
			return nil, nil, fmt.Errorf("get_run: %w", err)
		}
		return textResult(state)
	}
}

func textResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshal result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
