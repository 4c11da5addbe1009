package quality

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Description returns the one-line verdict printed next to a grade.
func (g Grade) Description() string {
	switch g {
	case GradeExcellent:
		return "Near-perfect mapping"
	case GradeGood:
		return "High-quality mapping"
	case GradeAcceptable:
		return "Reasonable mapping with some discrepancies"
	default:
		return "Mapping may not be reliable"
	}
}

// WriteText writes a human-readable quality report with lipgloss
// styling.
func WriteText(w io.Writer, r *Report) error {
	header := lipgloss.NewStyle().Bold(true)
	good := lipgloss.NewStyle().Foreground(lipgloss.Color("2"))    // green
	warn := lipgloss.NewStyle().Foreground(lipgloss.Color("3"))    // yellow
	bad := lipgloss.NewStyle().Foreground(lipgloss.Color("1"))     // red
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("240")) // gray

	_, _ = fmt.Fprintln(w, header.Render("=== Mapping Quality ==="))
	_, _ = fmt.Fprintf(w, "    Mapped genes: %d\n", r.Mapped)

	_, _ = fmt.Fprintln(w, muted.Render("    Correlation:"))
	if r.Pearson != nil {
		_, _ = fmt.Fprintf(w, "      Pearson R^2: %.4f\n", r.Pearson.RSquared)
		_, _ = fmt.Fprintf(w, "      Pearson R:   %.4f (p=%.2e)\n", r.Pearson.R, r.Pearson.P)
	} else {
		_, _ = fmt.Fprintln(w, "      Pearson R:   "+warn.Render("undefined"))
	}
	if r.Spearman != nil {
		_, _ = fmt.Fprintf(w, "      Spearman R:  %.4f (p=%.2e)\n", r.Spearman.R, r.Spearman.P)
	} else {
		_, _ = fmt.Fprintln(w, "      Spearman R:  "+warn.Render("undefined"))
	}

	dirStyle := good
	if r.DirectionAgreementPct < 90 {
		dirStyle = bad
	} else if r.DirectionAgreementPct < 100 {
		dirStyle = warn
	}
	_, _ = fmt.Fprintf(w, "    Direction agreement: %s (%d/%d)\n",
		dirStyle.Render(fmt.Sprintf("%.1f%%", r.DirectionAgreementPct)),
		r.DirectionMatches, r.Mapped)

	_, _ = fmt.Fprintln(w, muted.Render("    LFC difference:"))
	_, _ = fmt.Fprintf(w, "      Mean:    %.6f\n", r.Distance.Mean)
	_, _ = fmt.Fprintf(w, "      Median:  %.6f\n", r.Distance.Median)
	_, _ = fmt.Fprintf(w, "      Std dev: %.6f\n", r.Distance.Std)
	_, _ = fmt.Fprintf(w, "      Min:     %.6f\n", r.Distance.Min)
	_, _ = fmt.Fprintf(w, "      Max:     %.6f\n", r.Distance.Max)

	if r.Agreement != nil {
		_, _ = fmt.Fprintf(w, "    Bland-Altman: mean %.4f, limits [%.4f, %.4f]\n",
			r.Agreement.MeanDiff, r.Agreement.LowerLimit, r.Agreement.UpperLimit)
	}
	if r.Regression != nil {
		_, _ = fmt.Fprintf(w, "    Fit: target = %.4f * source %+.4f\n",
			r.Regression.Slope, r.Regression.Intercept)
	}

	for _, msg := range r.Warnings {
		_, _ = fmt.Fprintln(w, warn.Render("    warning: "+msg))
	}

	gradeStyle := good
	switch r.Grade {
	case GradeAcceptable:
		gradeStyle = warn
	case GradePoor:
		gradeStyle = bad
	}
	_, _ = fmt.Fprintf(w, "    Status: %s - %s\n",
		gradeStyle.Render(string(r.Grade)), r.Grade.Description())

	return nil
}
