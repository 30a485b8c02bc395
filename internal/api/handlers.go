package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/formparity/parity-go/internal/ratelimit"
	"github.com/formparity/parity-go/internal/report"
	"github.com/formparity/parity-go/internal/temporal/querier"
	"github.com/formparity/parity-go/internal/temporal/versioning"
	"github.com/formparity/parity-go/internal/temporal/workflows"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSanityCheck runs a check synchronously and renders the report.
// Failures answer 500 with a plain-text message.
func (s *Server) handleSanityCheck(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.opts.Limiter.Allow(ratelimit.KeySanityCheck) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	if s.opts.Budget != nil {
		if err := s.opts.Budget.Take(caller(r)); err != nil {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}
	}

	start := time.Now()
	rep, err := s.runner.Run(r.Context())
	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordRun(r.Context(), rep, time.Since(start))
	}
	if err != nil {
		slog.Error("sanity check failed", "message", err.Error(), "error", err)
		writeText(w, http.StatusInternalServerError, "There was an error: "+err.Error())
		return
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, format, rep); err != nil {
		slog.Error("render report failed", "error", err)
		writeText(w, http.StatusInternalServerError, "There was an error: "+err.Error())
		return
	}
	slog.Info("sanity check complete", "run_id", rep.RunID, "outcome", rep.Outcome())
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	// An empty body starts a run with the configured defaults.
	var in workflows.SanityCheckInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.opts.Budget != nil {
		if err := s.opts.Budget.Take(caller(r)); err != nil {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}
	}

	id, err := s.opts.Runs.StartRun(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"workflow_id": id})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	opts := querier.ListOptions{
		TaskQueue: versioning.QueueCheck,
	}
	if status := r.URL.Query().Get("status"); status != "" {
		opts.StatusFilter = status
	}

	runs, err := s.opts.Runs.ListRuns(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []querier.WorkflowSummary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleGetRun returns the run state as JSON, or the rendered report of a
// completed run when format is html or table.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "run id required")
		return
	}

	state, err := s.opts.Runs.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	raw := r.URL.Query().Get("format")
	if raw == "" {
		writeJSON(w, http.StatusOK, state)
		return
	}
	format, err := report.ParseFormat(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if state.Result == nil {
		writeError(w, http.StatusConflict, "run "+id+" has no report (status "+state.Status+")")
		return
	}
	var buf bytes.Buffer
	if err := report.Render(&buf, format, &state.Result.Report); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	_, _ = buf.WriteTo(w)
}

// caller identifies the budget holder: the authenticated user, else the
// client address.
func caller(r *http.Request) string {
	if p, ok := PrincipalFromContext(r.Context()); ok {
		return p.Key()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}
