package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/unbound-force/lfcmap/internal/quality"
)

// Styles defines the visual theme for terminal report output.
// Lipgloss automatically degrades to no-color when output is not a TTY.
type Styles struct {
	// Header is used for section headers (e.g. "=== Mapping ===").
	Header lipgloss.Style

	// SubHeader is used for secondary information lines.
	SubHeader lipgloss.Style

	// GradeExcellent through GradePoor color-code quality grades.
	GradeExcellent  lipgloss.Style
	GradeGood       lipgloss.Style
	GradeAcceptable lipgloss.Style
	GradePoor       lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// TableCell styles regular table cells.
	TableCell lipgloss.Style

	// SignMismatch styles rows whose scores disagree in sign.
	SignMismatch lipgloss.Style

	// Pass styles PASS indicators.
	Pass lipgloss.Style

	// Fail styles FAIL indicators.
	Fail lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// Muted is used for de-emphasized text.
	Muted lipgloss.Style
}

// DefaultStyles returns the default color scheme for terminal reports.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		SubHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		GradeExcellent:  lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true),
		GradeGood:       lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		GradeAcceptable: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		GradePoor:       lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		TableCell:   lipgloss.NewStyle().PaddingRight(1),

		SignMismatch: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),

		Pass: lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true),
		Fail: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),

		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// GradeStyle returns the style for a quality grade.
func (s Styles) GradeStyle(g quality.Grade) lipgloss.Style {
	switch g {
	case quality.GradeExcellent:
		return s.GradeExcellent
	case quality.GradeGood:
		return s.GradeGood
	case quality.GradeAcceptable:
		return s.GradeAcceptable
	case quality.GradePoor:
		return s.GradePoor
	default:
		return s.Muted
	}
}
