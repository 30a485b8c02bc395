package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/formparity/parity-go/internal/domain"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = cellStyle.Foreground(lipgloss.Color("2"))
	badStyle    = cellStyle.Foreground(lipgloss.Color("1"))
)

// Table renders the report as two terminal tables.
func Table(r *domain.ComparisonReport) string {
	var b strings.Builder
	s := r.Summary()

	b.WriteString(titleStyle.Render("Form Templates"))
	fmt.Fprintf(&b, "\n%s: %d templates, %s: %d templates, %d reachable, %d unreachable\n",
		r.From, r.TemplateCounts.From, r.To, r.TemplateCounts.To, s.Reachable, s.Unreachable)

	templates := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Form Template Name", "Status").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 && row >= 0 && row < len(r.Templates) {
				if r.Templates[row].Reachable {
					return okStyle
				}
				return badStyle
			}
			return cellStyle
		})
	for _, t := range r.Templates {
		status := "OK"
		if !t.Reachable {
			status = t.ErrorDetail
		}
		templates.Row(t.Name, status)
	}
	b.WriteString(templates.Render())

	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render("Form Records"))
	b.WriteString("\n")

	forms := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Form Name", r.From+" Count", r.To+" Count", "Passed").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 3 && row >= 0 && row < len(r.Forms) {
				if r.Forms[row].Passed {
					return okStyle
				}
				return badStyle
			}
			return cellStyle
		})
	for _, f := range r.Forms {
		a, bCount := strconv.Itoa(f.CountA), strconv.Itoa(f.CountB)
		if f.Error != "" {
			a, bCount = "-", "-"
		}
		forms.Row(f.FormName, a, bCount, yesNo(f.Passed))
	}
	b.WriteString(forms.Render())
	b.WriteString("\n")
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}
