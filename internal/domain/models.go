// Package domain holds the value types shared by the parity checker, its
// renderers, and its transports.
package domain

import "time"

// Environment is one platform instance taking part in a migration, along
// with the credentials used to authorize against it.
type Environment struct {
	Key           string `json:"key" yaml:"-"`
	Name          string `json:"name" yaml:"name"`
	BaseURL       string `json:"base_url" yaml:"base_url"`
	CustomerAlias string `json:"customer_alias" yaml:"customer_alias"`
	DatabaseAlias string `json:"database_alias" yaml:"database_alias"`
	UserID        string `json:"-" yaml:"user_id"`
	Password      string `json:"-" yaml:"password"`
	ClientID      string `json:"-" yaml:"client_id"`
	ClientSecret  string `json:"-" yaml:"client_secret"`
}

// DisplayName returns Name, falling back to Key.
func (e Environment) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Key
}

// FormTemplate is one entry of the form template list.
type FormTemplate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EntityCheckResult records whether one form template was reachable through
// the API of the target environment.
type EntityCheckResult struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Reachable   bool   `json:"reachable"`
	ErrorDetail string `json:"error_detail,omitempty"`
}

// ParityResult compares the record count of one form across environments.
type ParityResult struct {
	FormName string `json:"form_name"`
	CountA   int    `json:"count_a"`
	CountB   int    `json:"count_b"`
	Passed   bool   `json:"passed"`
	Error    string `json:"error,omitempty"`
}

// NewParityResult derives Passed from the two counts.
func NewParityResult(formName string, countA, countB int) ParityResult {
	return ParityResult{
		FormName: formName,
		CountA:   countA,
		CountB:   countB,
		Passed:   countA == countB,
	}
}

// FailedParityResult records a form whose comparison could not be made.
func FailedParityResult(formName string, err error) ParityResult {
	return ParityResult{FormName: formName, Error: err.Error()}
}

// TemplateCounts holds the size of the template list in each environment.
type TemplateCounts struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// ComparisonReport is the outcome of one sanity-check run. It is built once
// and not modified afterwards.
type ComparisonReport struct {
	RunID          string              `json:"run_id"`
	From           string              `json:"from"`
	To             string              `json:"to"`
	GeneratedAt    time.Time           `json:"generated_at"`
	TemplateCounts TemplateCounts      `json:"template_counts"`
	Templates      []EntityCheckResult `json:"templates"`
	Forms          []ParityResult      `json:"forms"`
}

// Summary tallies a report.
type Summary struct {
	Reachable   int `json:"reachable"`
	Unreachable int `json:"unreachable"`
	Passed      int `json:"passed"`
	Failed      int `json:"failed"`
	// Errored counts the failed forms that could not be compared at all.
	Errored int `json:"errored"`
}

// Summary counts reachable templates and passing forms.
func (r ComparisonReport) Summary() Summary {
	var s Summary
	for _, t := range r.Templates {
		if t.Reachable {
			s.Reachable++
		} else {
			s.Unreachable++
		}
	}
	for _, f := range r.Forms {
		switch {
		case f.Passed:
			s.Passed++
		case f.Error != "":
			s.Failed++
			s.Errored++
		default:
			s.Failed++
		}
	}
	return s
}

// Outcome is OutcomeFailed when any form could not be compared,
// OutcomePassed when every template is reachable and every form count
// matches, and OutcomeDivergent otherwise. Isolating per-form failures keeps
// the rest of the report but never turns an error into a divergence.
func (r ComparisonReport) Outcome() Outcome {
	s := r.Summary()
	if s.Errored > 0 {
		return OutcomeFailed
	}
	if s.Unreachable == 0 && s.Failed == 0 {
		return OutcomePassed
	}
	return OutcomeDivergent
}
