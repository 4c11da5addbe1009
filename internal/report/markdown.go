package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/unbound-force/lfcmap/internal/pipeline"
	"github.com/unbound-force/lfcmap/internal/quality"
)

// WriteMarkdown writes a quality summary and the mapping table as
// GitHub-flavored Markdown, for pasting into a notebook or a report.
func WriteMarkdown(w io.Writer, out *pipeline.Outcome, opts TextOptions) error {
	q := out.Quality

	fmt.Fprintln(w, "## Mapping quality")
	fmt.Fprintln(w)

	summary := table.NewWriter()
	summary.AppendHeader(table.Row{"Metric", "Value"})
	summary.AppendRow(table.Row{"Mapped genes", q.Mapped})
	if out.Direction != nil {
		summary.AppendRow(table.Row{"Target negated", out.Direction.Negate})
	}
	summary.AppendRow(table.Row{"Pearson R", formatCorrelation(q.Pearson)})
	summary.AppendRow(table.Row{"Spearman R", formatCorrelation(q.Spearman)})
	summary.AppendRow(table.Row{"Direction agreement",
		fmt.Sprintf("%.1f%% (%d/%d)", q.DirectionAgreementPct, q.DirectionMatches, q.Mapped)})
	summary.AppendRow(table.Row{"Mean distance", fmt.Sprintf("%.6f", q.Distance.Mean)})
	summary.AppendRow(table.Row{"Median distance", fmt.Sprintf("%.6f", q.Distance.Median)})
	summary.AppendRow(table.Row{"Max distance", fmt.Sprintf("%.6f", q.Distance.Max)})
	summary.AppendRow(table.Row{"Unmatched", len(out.Unmatched)})
	summary.AppendRow(table.Row{"Grade", fmt.Sprintf("%s (%s)", q.Grade, q.Grade.Description())})
	fmt.Fprintln(w, summary.RenderMarkdown())

	for _, msg := range q.Warnings {
		fmt.Fprintf(w, "\n> warning: %s\n", msg)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "## Mapping")
	fmt.Fprintln(w)

	entries := out.Mapping.Entries
	if opts.MaxRows > 0 && len(entries) > opts.MaxRows {
		entries = entries[:opts.MaxRows]
	}
	mapping := table.NewWriter()
	mapping.AppendHeader(table.Row{"Source", "Source LFC", "Target", "Target LFC", "Distance"})
	for _, e := range entries {
		mapping.AppendRow(table.Row{
			e.SourceID,
			fmt.Sprintf("%.4f", e.SourceScore),
			e.TargetID,
			fmt.Sprintf("%.4f", e.TargetScore),
			fmt.Sprintf("%.4f", e.Distance),
		})
	}
	fmt.Fprintln(w, mapping.RenderMarkdown())

	if hidden := out.Mapping.Len() - len(entries); hidden > 0 {
		fmt.Fprintf(w, "\n_%d more pair(s) not shown._\n", hidden)
	}
	return nil
}

func formatCorrelation(c *quality.Correlation) string {
	if c == nil {
		return "undefined"
	}
	return fmt.Sprintf("%.4f (p=%.2e)", c.R, c.P)
}
