// Package activities defines the Temporal activity I/O structs and the
// Activities implementation that bridges Temporal's serialization boundary
// to the parity checker.
package activities

import "github.com/formparity/parity-go/internal/domain"

// MigrationInput names the environments to compare by their key in the
// environments file. Empty values fall back to the file's defaults.
type MigrationInput struct {
	From  string   `json:"from,omitempty"`
	To    string   `json:"to,omitempty"`
	Forms []string `json:"forms,omitempty"`
}

// CheckTemplatesOutput is the activity output from the reachability phase.
type CheckTemplatesOutput struct {
	FromName  string                     `json:"from_name"`
	ToName    string                     `json:"to_name"`
	Counts    domain.TemplateCounts      `json:"counts"`
	Templates []domain.EntityCheckResult `json:"templates"`
}

// CompareFormsOutput is the activity output from the record count phase.
type CompareFormsOutput struct {
	Forms []domain.ParityResult `json:"forms"`
}

// PublishReportInput is the activity input for publishing a finished report.
type PublishReportInput struct {
	Report domain.ComparisonReport `json:"report"`
}

// PublishReportOutput reports whether anything was published.
type PublishReportOutput struct {
	Published bool `json:"published"`
}
