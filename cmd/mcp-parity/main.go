// Command mcp-parity runs the MCP tool server for sanity checks.
// Uses stdio transport for integration with AI assistants.
package main

import (
	"context"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.temporal.io/sdk/client"

	"github.com/formparity/parity-go/internal/config"
	"github.com/formparity/parity-go/internal/connectors/vault"
	"github.com/formparity/parity-go/internal/mcpserver"
	"github.com/formparity/parity-go/internal/observability"
	"github.com/formparity/parity-go/internal/parity"
	"github.com/formparity/parity-go/internal/temporal/querier"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	// Stdout carries the protocol; logs go to stderr.
	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	m, err := cfg.Migration()
	if err != nil {
		log.Fatalf("migration: %v", err)
	}
	runner := &parity.Runner{
		From:       m.From,
		To:         m.To,
		Forms:      m.Forms,
		Options:    parity.Options{IsolateFailures: cfg.IsolateFailures, Logger: logger},
		HTTPClient: vault.NewHTTPClient(cfg.HTTPTimeout),
	}

	var runs querier.RunQuerier
	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    observability.NewTemporalSlogAdapter(logger),
	})
	if err != nil {
		logger.Warn("temporal unavailable, run tools disabled", "error", err)
	} else {
		defer c.Close()
		runs = querier.New(c)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "form-parity",
		Version: "v1.0.0",
	}, nil)
	mcpserver.RegisterTools(server, runner, runs)

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
