// Command api runs the HTTP API server that renders sanity-check reports.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.temporal.io/sdk/client"

	"github.com/formparity/parity-go/internal/api"
	"github.com/formparity/parity-go/internal/config"
	"github.com/formparity/parity-go/internal/connectors/vault"
	"github.com/formparity/parity-go/internal/observability"
	"github.com/formparity/parity-go/internal/parity"
	"github.com/formparity/parity-go/internal/ratelimit"
	"github.com/formparity/parity-go/internal/temporal/querier"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.OTelEnabled {
		shutdown, err := observability.InitTracer(context.Background(), "parity-api", cfg.OTelSampleRatio)
		if err != nil {
			logger.Error("otel init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	m, err := cfg.Migration()
	if err != nil {
		logger.Error("migration config error", "error", err)
		os.Exit(1)
	}
	runner := &parity.Runner{
		From:       m.From,
		To:         m.To,
		Forms:      m.Forms,
		Options:    parity.Options{IsolateFailures: cfg.IsolateFailures, Logger: logger},
		HTTPClient: vault.NewHTTPClient(cfg.HTTPTimeout),
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		logger.Error("metrics init failed", "error", err)
		os.Exit(1)
	}

	opts := api.Options{
		CORSOrigins: cfg.CORSOrigins,
		OIDC: api.OIDCConfig{
			IssuerURL: cfg.OIDCIssuer,
			Audience:  cfg.OIDCAudience,
			Enabled:   cfg.OIDCEnabled(),
		},
		Limiter: ratelimit.NewLimiter(map[string]float64{ratelimit.KeySanityCheck: cfg.RouteRPS}),
		Budget:  ratelimit.NewRunBudget(cfg.RunsPerWindow, cfg.RunWindow),
		Metrics: metrics,
	}

	// The run routes need Temporal; the synchronous route does not.
	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    observability.NewTemporalSlogAdapter(logger),
	})
	if err != nil {
		logger.Warn("temporal unavailable, run routes disabled", "address", cfg.TemporalAddress, "error", err)
	} else {
		defer c.Close()
		opts.Runs = querier.New(c)
	}

	srv, err := api.New(context.Background(), runner, opts)
	if err != nil {
		logger.Error("api init failed", "error", err)
		os.Exit(1)
	}

	var handler http.Handler = srv
	if cfg.OTelEnabled {
		handler = otelhttp.NewHandler(handler, "parity-api")
	}

	addr := ":" + cfg.APIPort
	logger.Info("starting API server",
		"addr", addr,
		"from", m.From.DisplayName(),
		"to", m.To.DisplayName(),
		"oidc_enabled", opts.OIDC.Enabled,
		"runs_enabled", opts.Runs != nil,
	)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
