package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCConfig holds OIDC authentication settings.
type OIDCConfig struct {
	IssuerURL string
	Audience  string
	Enabled   bool
}

// Principal is the verified identity behind a request, decoded from the
// token claims.
type Principal struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
}

// Key scopes the per-caller run budget: the subject, else the email.
func (p Principal) Key() string {
	if p.Subject != "" {
		return p.Subject
	}
	return p.Email
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal set by the auth middleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// publicPaths skip authentication.
var publicPaths = map[string]bool{
	"/api/v1/health": true,
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("missing Authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errors.New("invalid Authorization header format")
	}
	return token, nil
}

// oidcAuth verifies Bearer tokens against the issuer's keys and stores the
// token's Principal in the request context. Tokens naming neither a subject
// nor an email are rejected, since every run is charged to a caller.
func oidcAuth(provider *oidc.Provider, audience string) func(http.Handler) http.Handler {
	verifier := provider.Verifier(&oidc.Config{ClientID: audience})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := bearerToken(r.Header.Get("Authorization"))
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}
			token, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token: "+err.Error())
				return
			}

			var p Principal
			if err := token.Claims(&p); err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}
			if p.Key() == "" {
				writeError(w, http.StatusUnauthorized, "token has no sub or email claim")
				return
			}
			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
		})
	}
}
