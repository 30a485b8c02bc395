// Package report renders a finished domain.ComparisonReport. Rendering is a
// pure function of the report.
package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/Masterminds/sprig/v3"

	"github.com/formparity/parity-go/internal/domain"
)

// Format selects a renderer.
type Format string

const (
	FormatHTML  Format = "html"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

// ParseFormat accepts a case-insensitive format name. Empty means HTML.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatHTML, nil
	case FormatHTML, FormatJSON, FormatTable:
		return f, nil
	default:
		return "", fmt.Errorf("report: unknown format %q (want html, json or table)", s)
	}
}

// ContentType is the HTTP media type of a rendered format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatTable:
		return "text/plain; charset=utf-8"
	default:
		return "text/html; charset=utf-8"
	}
}

//go:embed templates/*.tmpl
var templateFS embed.FS

var htmlTemplate = template.Must(
	template.New("report.html.tmpl").
		Funcs(sprig.HtmlFuncMap()).
		ParseFS(templateFS, "templates/report.html.tmpl"),
)

// Render writes r to w in the given format.
func Render(w io.Writer, f Format, r *domain.ComparisonReport) error {
	switch f {
	case FormatHTML, "":
		return HTML(w, r)
	case FormatJSON:
		return JSON(w, r)
	case FormatTable:
		_, err := io.WriteString(w, Table(r))
		return err
	default:
		return fmt.Errorf("report: unknown format %q", f)
	}
}

// HTML renders the templates table followed by the form records table.
func HTML(w io.Writer, r *domain.ComparisonReport) error {
	if err := htmlTemplate.Execute(w, r); err != nil {
		return fmt.Errorf("report: render html: %w", err)
	}
	return nil
}

type jsonReport struct {
	*domain.ComparisonReport
	Summary domain.Summary `json:"summary"`
	Outcome domain.Outcome `json:"outcome"`
}

// JSON renders the report with its summary and outcome.
func JSON(w io.Writer, r *domain.ComparisonReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonReport{ComparisonReport: r, Summary: r.Summary(), Outcome: r.Outcome()}); err != nil {
		return fmt.Errorf("report: render json: %w", err)
	}
	return nil
}
