// Package parity compares two environments of the forms platform after a
// migration: template reachability in the target and record counts per form.
package parity

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/formparity/parity-go/internal/connectors/vault"
	"github.com/formparity/parity-go/internal/domain"
	"github.com/formparity/parity-go/internal/envelope"
	"github.com/formparity/parity-go/internal/validate"
)

// FormsClient is the authorized view of one environment used by the checker.
// Satisfied by *vault.Client.
type FormsClient interface {
	Name() string
	FormTemplates(ctx context.Context) (envelope.Response, error)
	Forms(ctx context.Context, formName string, expand bool) (envelope.Response, error)
	TemplateFormsURL(templateID string) string
	Probe(ctx context.Context, rawURL string) (vault.ProbeResult, error)
}

// DefaultForms is the form list checked when none is configured.
var DefaultForms = []string{
	"Email Notification",
	"zDropdown List Form",
	"Process Timeframe",
	"zFirstNameLookup",
}

var templateIDRe = regexp.MustCompile(`formtemplates/([^/\s]+)/`)

// Options tunes a Checker.
type Options struct {
	// IsolateFailures records per-form validation failures as failed rows
	// instead of aborting the run.
	IsolateFailures bool
	Logger          *slog.Logger
}

// Checker compares environment A ("from") with environment B ("to").
type Checker struct {
	from, to FormsClient
	forms    []string
	opts     Options
	now      func() time.Time
}

// NewChecker creates a Checker for the given form names.
func NewChecker(from, to FormsClient, forms []string, opts Options) *Checker {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(forms) == 0 {
		forms = DefaultForms
	}
	return &Checker{from: from, to: to, forms: forms, opts: opts, now: time.Now}
}

// Run checks templates, then forms, and returns the finished report.
func (c *Checker) Run(ctx context.Context) (*domain.ComparisonReport, error) {
	templates, counts, err := c.CheckTemplates(ctx)
	if err != nil {
		return nil, err
	}
	forms, err := c.CompareForms(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.ComparisonReport{
		RunID:          uuid.NewString(),
		From:           c.from.Name(),
		To:             c.to.Name(),
		GeneratedAt:    c.now().UTC(),
		TemplateCounts: counts,
		Templates:      templates,
		Forms:          forms,
	}, nil
}

func (c *Checker) templateList(ctx context.Context, env FormsClient) ([]domain.FormTemplate, error) {
	resp, err := env.FormTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: get form templates: %w", env.Name(), err)
	}
	resp, err = validate.Validate(resp, validate.NoIgnoredStatus)
	if err != nil {
		return nil, fmt.Errorf("%s: form templates: %w", env.Name(), err)
	}
	var templates []domain.FormTemplate
	if err := resp.DecodeData(&templates); err != nil {
		return nil, fmt.Errorf("%s: decode form templates: %w", env.Name(), err)
	}
	return templates, nil
}

// CheckTemplates validates both template lists and probes every template of
// the target environment in parallel. A transport failure on any probe
// aborts the batch; HTTP error statuses are recorded as unreachable rows.
// Row order is unspecified.
func (c *Checker) CheckTemplates(ctx context.Context) ([]domain.EntityCheckResult, domain.TemplateCounts, error) {
	fromTemplates, err := c.templateList(ctx, c.from)
	if err != nil {
		return nil, domain.TemplateCounts{}, err
	}
	toTemplates, err := c.templateList(ctx, c.to)
	if err != nil {
		return nil, domain.TemplateCounts{}, err
	}
	counts := domain.TemplateCounts{From: len(fromTemplates), To: len(toTemplates)}

	probes := make([]vault.ProbeResult, len(toTemplates))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range toTemplates {
		g.Go(func() error {
			p, err := c.to.Probe(gctx, c.to.TemplateFormsURL(t.ID))
			if err != nil {
				return fmt.Errorf("%s: probe template %q: %w", c.to.Name(), t.Name, err)
			}
			probes[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, counts, err
	}

	byID := make(map[string]domain.FormTemplate, len(toTemplates))
	for _, t := range toTemplates {
		byID[t.ID] = t
	}
	results := make([]domain.EntityCheckResult, 0, len(probes))
	for _, p := range probes {
		results = append(results, c.classify(p, byID))
	}

	c.opts.Logger.Info("template reachability checked",
		"environment", c.to.Name(),
		"templates", len(results),
	)
	return results, counts, nil
}

// classify matches a probe back to its template through the id embedded in
// the request URL.
func (c *Checker) classify(p vault.ProbeResult, byID map[string]domain.FormTemplate) domain.EntityCheckResult {
	id := templateIDFromURL(p.URL)
	name := id
	if t, ok := byID[id]; ok {
		name = t.Name
	} else {
		c.opts.Logger.Warn("probe did not match a template", "url", p.URL)
	}

	r := domain.EntityCheckResult{Name: name, URL: p.URL, Reachable: p.OK()}
	if !r.Reachable {
		r.ErrorDetail = p.StatusText
		if r.ErrorDetail == "" {
			r.ErrorDetail = fmt.Sprintf("status %d", p.StatusCode)
		}
	}
	return r
}

func templateIDFromURL(rawURL string) string {
	m := templateIDRe.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	if id, err := url.PathUnescape(m[1]); err == nil {
		return id
	}
	return m[1]
}

// CompareForms compares every configured form sequentially.
func (c *Checker) CompareForms(ctx context.Context) ([]domain.ParityResult, error) {
	results := make([]domain.ParityResult, 0, len(c.forms))
	for _, name := range c.forms {
		r, err := c.CompareForm(ctx, name)
		if err != nil {
			if !c.opts.IsolateFailures {
				return nil, err
			}
			c.opts.Logger.Warn("form comparison failed", "form", name, "error", err)
			r = domain.FailedParityResult(name, err)
		}
		results = append(results, r)
	}
	return results, nil
}

// CompareForm fetches the records of one form from both environments and
// compares their counts.
func (c *Checker) CompareForm(ctx context.Context, formName string) (domain.ParityResult, error) {
	countA, err := c.recordCount(ctx, c.from, formName)
	if err != nil {
		return domain.ParityResult{}, err
	}
	countB, err := c.recordCount(ctx, c.to, formName)
	if err != nil {
		return domain.ParityResult{}, err
	}

	r := domain.NewParityResult(formName, countA, countB)
	c.opts.Logger.Debug("form compared", "form", formName, "count_a", countA, "count_b", countB, "passed", r.Passed)
	return r, nil
}

func (c *Checker) recordCount(ctx context.Context, env FormsClient, formName string) (int, error) {
	resp, err := env.Forms(ctx, formName, false)
	if err != nil {
		return 0, fmt.Errorf("%s: get forms %q: %w", env.Name(), formName, err)
	}
	resp, err = validate.Validate(resp, validate.NoIgnoredStatus)
	if err != nil {
		return 0, fmt.Errorf("%s: forms %q: %w", env.Name(), formName, err)
	}
	records, err := resp.Records()
	if err != nil {
		return 0, fmt.Errorf("%s: forms %q: data is not a list: %w", env.Name(), formName, err)
	}
	return len(records), nil
}
