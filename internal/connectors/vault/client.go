// Package vault provides an authorized HTTP client for the forms platform
// REST API, satisfying parity.FormsClient.
package vault

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/formparity/parity-go/internal/domain"
	"github.com/formparity/parity-go/internal/envelope"
)

// TokenPath is the OAuth token endpoint relative to an environment base URL.
const TokenPath = "/OAuth/Token"

// Session is what an authorized client needs to build raw API calls.
type Session struct {
	BaseURL     string
	APIURL      string
	AccessToken string
}

// ProbeResult is the outcome of one raw GET that completed at the HTTP level.
type ProbeResult struct {
	URL        string
	StatusCode int
	StatusText string
}

// OK reports whether the probe got a 2xx status.
func (p ProbeResult) OK() bool {
	return p.StatusCode >= 200 && p.StatusCode < 300
}

// Client is an authorized view of one environment.
type Client struct {
	env        domain.Environment
	session    Session
	httpClient *http.Client
}

// NewHTTPClient returns an instrumented HTTP client with the given timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Authorize exchanges the environment credentials for an access token using
// the OAuth2 password grant and returns a client bound to the session.
func Authorize(ctx context.Context, env domain.Environment, httpClient *http.Client) (*Client, error) {
	if err := domain.ValidateEnvironment(env); err != nil {
		return nil, fmt.Errorf("vault: environment %s: %w", env.DisplayName(), err)
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(30 * time.Second)
	}

	baseURL := strings.TrimRight(env.BaseURL, "/")
	cfg := &oauth2.Config{
		ClientID:     env.ClientID,
		ClientSecret: env.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  baseURL + TokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	tokCtx := context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	tok, err := cfg.PasswordCredentialsToken(tokCtx, env.UserID, env.Password)
	if err != nil {
		return nil, fmt.Errorf("vault: authorize %s: %w", env.DisplayName(), err)
	}

	return NewWithSession(env, Session{
		BaseURL:     baseURL,
		APIURL:      APIURL(env.CustomerAlias, env.DatabaseAlias),
		AccessToken: tok.AccessToken,
	}, httpClient), nil
}

// NewWithSession creates a client from an existing session (for testing).
func NewWithSession(env domain.Environment, session Session, httpClient *http.Client) *Client {
	return &Client{env: env, session: session, httpClient: httpClient}
}

// APIURL builds the customer/database scoped API prefix.
func APIURL(customerAlias, databaseAlias string) string {
	return "api/v1/" + url.PathEscape(customerAlias) + "/" + url.PathEscape(databaseAlias)
}

// Name returns the environment display name.
func (c *Client) Name() string {
	return c.env.DisplayName()
}

// Session returns the session the client was authorized with.
func (c *Client) Session() Session {
	return c.session
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.session.BaseURL + "/" + c.session.APIURL + "/" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// FormTemplates fetches the full form template list.
func (c *Client) FormTemplates(ctx context.Context) (envelope.Response, error) {
	return c.getEnvelope(ctx, c.endpoint("formtemplates", nil))
}

// Forms fetches the records of the named form.
func (c *Client) Forms(ctx context.Context, formName string, expand bool) (envelope.Response, error) {
	q := url.Values{}
	q.Set("expand", strconv.FormatBool(expand))
	return c.getEnvelope(ctx, c.endpoint("formtemplates/"+url.PathEscape(formName)+"/forms", q))
}

// TemplateFormsURL is the per-template detail endpoint used for reachability.
func (c *Client) TemplateFormsURL(templateID string) string {
	return c.endpoint("formtemplates/"+url.PathEscape(templateID)+"/forms", url.Values{"expand": {"true"}})
}

// Probe issues an authenticated GET and reports the HTTP outcome. Only
// transport failures are returned as errors.
func (c *Client) Probe(ctx context.Context, rawURL string) (ProbeResult, error) {
	resp, err := c.do(ctx, rawURL)
	if err != nil {
		return ProbeResult{}, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	final := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return ProbeResult{
		URL:        final,
		StatusCode: resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
	}, nil
}

// getEnvelope returns the decoded body regardless of HTTP status; the meta
// envelope carries the status the validators check.
func (c *Client) getEnvelope(ctx context.Context, rawURL string) (envelope.Response, error) {
	resp, err := c.do(ctx, rawURL)
	if err != nil {
		return envelope.Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope.Response{}, fmt.Errorf("vault: read response: %w", err)
	}
	return envelope.Decode(body), nil
}

func (c *Client) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("vault: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.session.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vault: request failed: %w", err)
	}
	return resp, nil
}
