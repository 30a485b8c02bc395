// Package api serves sanity-check reports over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/formparity/parity-go/internal/agui"
	"github.com/formparity/parity-go/internal/domain"
	"github.com/formparity/parity-go/internal/observability"
	"github.com/formparity/parity-go/internal/ratelimit"
	"github.com/formparity/parity-go/internal/temporal/querier"
)

// Runner performs one synchronous sanity check. Satisfied by *parity.Runner.
type Runner interface {
	Run(ctx context.Context) (*domain.ComparisonReport, error)
}

// Options configures optional server features. The zero value serves the
// sanity-check route without auth, limits, metrics or Temporal routes.
type Options struct {
	CORSOrigins []string
	OIDC        OIDCConfig
	// Limiter throttles the sanity-check route globally.
	Limiter *ratelimit.Limiter
	// Budget limits runs per caller.
	Budget  *ratelimit.RunBudget
	Metrics *observability.Metrics
	// Runs enables the /api/v1/runs routes backed by Temporal.
	Runs querier.RunQuerier
	// Stream tunes the run progress SSE stream. Zero means agui.DefaultConfig.
	Stream agui.StreamConfig
}

// Server is the HTTP API server.
type Server struct {
	runner  Runner
	opts    Options
	mux     *http.ServeMux
	handler http.Handler
}

// New creates a Server. When OIDC is enabled the issuer is discovered
// using ctx.
func New(ctx context.Context, runner Runner, opts Options) (*Server, error) {
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.Stream == (agui.StreamConfig{}) {
		opts.Stream = agui.DefaultConfig()
	}
	s := &Server{runner: runner, opts: opts, mux: http.NewServeMux()}
	s.routes()

	var h http.Handler = s.mux
	if opts.OIDC.Enabled {
		provider, err := oidc.NewProvider(ctx, opts.OIDC.IssuerURL)
		if err != nil {
			return nil, fmt.Errorf("api: oidc discovery: %w", err)
		}
		h = oidcAuth(provider, opts.OIDC.Audience)(h)
	}
	s.handler = requestID(logging(cors(opts.CORSOrigins, h)))
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/sanity-check", s.handleSanityCheck)
	if s.opts.Runs != nil {
		s.mux.HandleFunc("POST /api/v1/runs", s.handleStartRun)
		s.mux.HandleFunc("GET /api/v1/runs", s.handleListRuns)
		s.mux.HandleFunc("GET /api/v1/runs/{id}", s.handleGetRun)
		s.mux.HandleFunc("GET /api/v1/runs/{id}/stream", agui.StreamHandler(s.opts.Runs, s.opts.Stream))
	}
}
