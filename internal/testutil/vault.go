// Package testutil provides an in-process stand-in for the forms platform API.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/formparity/parity-go/internal/domain"
)

// VaultFixture describes what a stub environment serves.
type VaultFixture struct {
	Name string
	// Token is issued by the token endpoint and required on every API call.
	Token     string
	Templates []domain.FormTemplate
	// TemplatesBody overrides the template list response when set.
	TemplatesBody string
	// FormCounts maps form name to the number of records returned.
	FormCounts map[string]int
	// FormBodies overrides the records response for a form name.
	FormBodies map[string]string
	// ProbeStatus maps template ID to the HTTP status of its detail endpoint.
	// Missing IDs return 200.
	ProbeStatus map[string]int
	// RejectAuth makes the token endpoint fail.
	RejectAuth bool
}

// VaultServer is a running stub environment.
type VaultServer struct {
	*httptest.Server
	fixture VaultFixture

	mu       sync.Mutex
	requests []string
}

// NewVaultServer starts a stub environment and closes it on test cleanup.
func NewVaultServer(t *testing.T, fixture VaultFixture) *VaultServer {
	t.Helper()
	if fixture.Token == "" {
		fixture.Token = "token-" + strings.ReplaceAll(strings.ToLower(fixture.Name), " ", "-")
	}
	vs := &VaultServer{fixture: fixture}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /OAuth/Token", vs.handleToken)
	mux.HandleFunc("GET /api/v1/{customer}/{database}/formtemplates", vs.authorized(vs.handleTemplates))
	mux.HandleFunc("GET /api/v1/{customer}/{database}/formtemplates/{id}/forms", vs.authorized(vs.handleForms))

	vs.Server = httptest.NewServer(mux)
	t.Cleanup(vs.Close)
	return vs
}

// Environment returns credentials that authorize against this server.
func (vs *VaultServer) Environment(key string) domain.Environment {
	return domain.Environment{
		Key:           key,
		Name:          vs.fixture.Name,
		BaseURL:       vs.URL,
		CustomerAlias: "acme",
		DatabaseAlias: "main",
		UserID:        "svc-user",
		Password:      "svc-password",
		ClientID:      "client-id",
		ClientSecret:  "client-secret",
	}
}

// Requests returns the request URIs the server has seen, in arrival order.
func (vs *VaultServer) Requests() []string {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	out := make([]string, len(vs.requests))
	copy(out, vs.requests)
	return out
}

func (vs *VaultServer) record(r *http.Request) {
	vs.mu.Lock()
	vs.requests = append(vs.requests, r.URL.RequestURI())
	vs.mu.Unlock()
}

func (vs *VaultServer) handleToken(w http.ResponseWriter, r *http.Request) {
	vs.record(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if vs.fixture.RejectAuth || r.PostForm.Get("grant_type") != "password" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"bad credentials"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": vs.fixture.Token,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (vs *VaultServer) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vs.record(r)
		if r.Header.Get("Authorization") != "Bearer "+vs.fixture.Token {
			writeEnvelope(w, http.StatusUnauthorized, `{"meta":{"status":401,"errors":[{"reason":"invalid token"}]}}`)
			return
		}
		next(w, r)
	}
}

func (vs *VaultServer) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	if vs.fixture.TemplatesBody != "" {
		writeEnvelope(w, http.StatusOK, vs.fixture.TemplatesBody)
		return
	}
	data, _ := json.Marshal(vs.fixture.Templates)
	writeEnvelope(w, http.StatusOK, fmt.Sprintf(`{"meta":{"status":200},"data":%s}`, data))
}

func (vs *VaultServer) handleForms(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if r.URL.Query().Get("expand") == "true" {
		status, ok := vs.fixture.ProbeStatus[id]
		if !ok {
			status = http.StatusOK
		}
		writeEnvelope(w, status, fmt.Sprintf(`{"meta":{"status":%d},"data":[]}`, status))
		return
	}

	if body, ok := vs.fixture.FormBodies[id]; ok {
		writeEnvelope(w, http.StatusOK, body)
		return
	}
	n, ok := vs.fixture.FormCounts[id]
	if !ok {
		writeEnvelope(w, http.StatusNotFound, fmt.Sprintf(`{"meta":{"status":404,"errors":[{"reason":"form %s not found"}]}}`, id))
		return
	}
	records := make([]map[string]any, n)
	for i := range records {
		records[i] = map[string]any{"instanceName": fmt.Sprintf("%s-%d", id, i+1)}
	}
	data, _ := json.Marshal(records)
	writeEnvelope(w, http.StatusOK, fmt.Sprintf(`{"meta":{"status":200},"data":%s}`, data))
}

func writeEnvelope(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Templates builds n templates named "Template 1".."Template n".
func Templates(n int) []domain.FormTemplate {
	out := make([]domain.FormTemplate, n)
	for i := range out {
		out[i] = domain.FormTemplate{
			ID:   fmt.Sprintf("00000000-0000-0000-0000-%012d", i+1),
			Name: fmt.Sprintf("Template %d", i+1),
		}
	}
	return out
}
