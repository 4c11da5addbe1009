package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/lfcmap/internal/loader"
	"github.com/unbound-force/lfcmap/internal/pipeline"
	"github.com/unbound-force/lfcmap/internal/quality"
	"github.com/unbound-force/lfcmap/internal/stats"
)

// TextOptions controls the text report.
type TextOptions struct {
	// MaxRows limits the mapping table. Zero or negative prints every
	// entry.
	MaxRows int
}

// DefaultTextOptions shows the 20 closest pairs.
func DefaultTextOptions() TextOptions {
	return TextOptions{MaxRows: 20}
}

// maxUnmatchedListed caps the unmatched identifiers printed inline.
const maxUnmatchedListed = 10

// WriteText writes one pipeline outcome as human-readable styled text.
// Output uses lipgloss for color and formatting when the output is a
// TTY; degrades gracefully for pipes and CI.
func WriteText(w io.Writer, out *pipeline.Outcome, opts TextOptions) error {
	s := DefaultStyles()

	if out.SourceLoad != nil || out.TargetLoad != nil {
		fmt.Fprintln(w, s.Header.Render("=== Inputs ==="))
		writeTableLine(w, s, "Source", out.SourceLoad)
		writeTableLine(w, s, "Target", out.TargetLoad)
		fmt.Fprintln(w)
	}

	if d := out.Direction; d != nil {
		verdict := "kept as-is"
		if d.Negate {
			verdict = "negated"
		}
		fmt.Fprintf(w, "%s target %s (r as-is %s, r negated %s)\n\n",
			s.Header.Render("Direction:"), verdict,
			formatTrialR(d.AsIs.R, d.AsIs.Defined), formatTrialR(d.Negated.R, d.Negated.Defined))
	}

	m := out.Mapping
	fmt.Fprintln(w, s.Header.Render("=== Mapping ==="))
	tol := "none"
	if m.Tolerance != nil {
		tol = fmt.Sprintf("%g", *m.Tolerance)
	}
	fmt.Fprintln(w, s.SubHeader.Render(fmt.Sprintf("    mode %s, tolerance %s", m.Mode, tol)))
	fmt.Fprintln(w, s.SubHeader.Render(fmt.Sprintf(
		"    %d pair(s), %d distinct target(s), total distance %.4f",
		m.Len(), m.UniqueTargets(), m.TotalDistance())))

	writeMappingTable(w, s, out, opts)

	if n := len(out.Unmatched); n > 0 {
		listed := out.Unmatched
		if n > maxUnmatchedListed {
			listed = listed[:maxUnmatchedListed]
		}
		more := ""
		if n > len(listed) {
			more = fmt.Sprintf(", ... (%d more)", n-len(listed))
		}
		fmt.Fprintf(w, "    Unmatched: %d (%s%s)\n", n, strings.Join(listed, ", "), more)
	}
	fmt.Fprintln(w)

	return quality.WriteText(w, out.Quality)
}

func writeTableLine(w io.Writer, s Styles, label string, res *loader.Result) {
	if res == nil {
		return
	}
	fmt.Fprintf(w, "    %s: %s [%s, %s]: %d of %d row(s) loaded",
		label, res.Set.Name, res.IDColumn, res.ScoreColumn, res.Stats.Loaded, res.Stats.Rows)
	if res.Stats.Dropped() > 0 {
		fmt.Fprint(w, s.Muted.Render(fmt.Sprintf(" (dropped %d empty id, %d bad score)",
			res.Stats.DroppedEmptyID, res.Stats.DroppedBadScore)))
	}
	fmt.Fprintln(w)
}

func formatTrialR(r float64, defined bool) string {
	if !defined {
		return "undefined"
	}
	return fmt.Sprintf("%.4f", r)
}

func writeMappingTable(w io.Writer, s Styles, out *pipeline.Outcome, opts TextOptions) {
	entries := out.Mapping.Entries
	if opts.MaxRows > 0 && len(entries) > opts.MaxRows {
		entries = entries[:opts.MaxRows]
	}

	rows := make([][]string, 0, len(entries))
	mismatch := make([]bool, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.SourceID,
			fmt.Sprintf("%.4f", e.SourceScore),
			e.TargetID,
			fmt.Sprintf("%.4f", e.TargetScore),
			fmt.Sprintf("%.4f", e.Distance),
		})
		mismatch = append(mismatch, stats.Sign(e.SourceScore) != stats.Sign(e.TargetScore))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if row >= 0 && row < len(mismatch) && mismatch[row] {
				return s.SignMismatch.PaddingRight(1)
			}
			return s.TableCell
		}).
		Headers("SOURCE", "LFC", "TARGET", "LFC", "DISTANCE").
		Rows(rows...)

	fmt.Fprintln(w, t)

	if hidden := out.Mapping.Len() - len(entries); hidden > 0 {
		fmt.Fprintln(w, s.Muted.Render(fmt.Sprintf("    ... %d more pair(s); use --output to write the full table", hidden)))
	}
}

// WriteBatchText writes a one-row-per-pair summary of a batch run.
func WriteBatchText(w io.Writer, results []pipeline.JobResult) error {
	s := DefaultStyles()

	rows := make([][]string, 0, len(results))
	grades := make([]quality.Grade, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			rows = append(rows, []string{r.Name, "-", "-", "-", "FAIL"})
			grades = append(grades, "")
			continue
		}
		q := r.Outcome.Quality
		pearson := "undefined"
		if q.Pearson != nil {
			pearson = fmt.Sprintf("%.4f", q.Pearson.R)
		}
		rows = append(rows, []string{
			r.Name,
			fmt.Sprintf("%d", q.Mapped),
			pearson,
			fmt.Sprintf("%.1f%%", q.DirectionAgreementPct),
			string(q.Grade),
		})
		grades = append(grades, q.Grade)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if col == 4 && row >= 0 && row < len(grades) {
				if grades[row] == "" {
					return s.Fail
				}
				return s.GradeStyle(grades[row])
			}
			return s.TableCell
		}).
		Headers("PAIR", "MAPPED", "PEARSON R", "DIRECTION", "GRADE").
		Rows(rows...)

	fmt.Fprintln(w, s.Header.Render("=== Batch ==="))
	fmt.Fprintln(w, t)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "    %s %s: %v\n", s.Fail.Render("FAIL"), r.Name, r.Err)
		}
	}

	fmt.Fprintf(w, "\n%s\n", s.Header.Render(fmt.Sprintf(
		"%d pair(s) processed, %d failed", len(results), pipeline.Failed(results))))
	return nil
}
