package main

import (
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unbound-force/lfcmap/internal/model"
	"github.com/unbound-force/lfcmap/internal/pipeline"
)

func browseOutcome(t *testing.T) *pipeline.Outcome {
	t.Helper()
	out, err := pipeline.RunSets(
		model.NewScoreSet("paper", []string{"gB", "gA", "gC"}, []float64{5.0, -3.0, 0.5}),
		model.NewScoreSet("deseq", []string{"h2", "h1", "h3"}, []float64{5.1, -2.9, -0.1}),
		pipeline.DefaultOptions())
	if err != nil {
		t.Fatalf("RunSets: %v", err)
	}
	return out
}

// TestRenderMatchContent_Summary verifies the title carries the pair
// count and grade, and every pair appears in the table.
func TestRenderMatchContent_Summary(t *testing.T) {
	out := browseOutcome(t)
	output := renderMatchContent(out, byDistance)

	if !strings.Contains(output, "3 pair(s), 0 unmatched") {
		t.Errorf("expected pair count in title, got:\n%s", output)
	}
	if !strings.Contains(output, "grade "+string(out.Quality.Grade)) {
		t.Errorf("expected grade %s in title, got:\n%s", out.Quality.Grade, output)
	}
	for _, id := range []string{"gA", "gB", "gC", "h1", "h2", "h3"} {
		if !strings.Contains(output, id) {
			t.Errorf("expected output to contain %q, got:\n%s", id, output)
		}
	}
	if !strings.Contains(output, "by distance") {
		t.Errorf("expected sort order in heading, got:\n%s", output)
	}
}

// TestRenderMatchContent_SortBySource verifies rows follow source ID
// order when requested.
func TestRenderMatchContent_SortBySource(t *testing.T) {
	output := renderMatchContent(browseOutcome(t), bySource)

	a, b, c := strings.Index(output, "gA"), strings.Index(output, "gB"), strings.Index(output, "gC")
	if a < 0 || !(a < b && b < c) {
		t.Errorf("expected gA < gB < gC, got positions %d %d %d:\n%s", a, b, c, output)
	}
}

// TestRenderMatchContent_Unmatched verifies unmatched source genes are
// listed.
func TestRenderMatchContent_Unmatched(t *testing.T) {
	opts := pipeline.DefaultOptions()
	tol := 0.2
	opts.Match.Tolerance = &tol
	out, err := pipeline.RunSets(
		model.NewScoreSet("paper", []string{"g1", "g2", "far"}, []float64{5.0, -3.0, 40}),
		model.NewScoreSet("deseq", []string{"h1", "h2"}, []float64{5.1, -2.9}),
		opts)
	if err != nil {
		t.Fatalf("RunSets: %v", err)
	}

	output := renderMatchContent(out, byDistance)
	if !strings.Contains(output, "1 unmatched") {
		t.Errorf("expected unmatched count in title, got:\n%s", output)
	}
	if !strings.Contains(output, "=== Unmatched ===") || !strings.Contains(output, "far") {
		t.Errorf("expected unmatched list, got:\n%s", output)
	}
}

// TestRenderMatchContent_IDTruncation verifies long identifiers are
// shortened with "...".
func TestRenderMatchContent_IDTruncation(t *testing.T) {
	long := strings.Repeat("x", maxIDWidth+10)
	out, err := pipeline.RunSets(
		model.NewScoreSet("paper", []string{long}, []float64{1}),
		model.NewScoreSet("deseq", []string{"h1"}, []float64{1}),
		pipeline.DefaultOptions())
	if err != nil {
		t.Fatalf("RunSets: %v", err)
	}

	output := renderMatchContent(out, byDistance)
	if strings.Contains(output, long) {
		t.Error("expected long identifier to be truncated")
	}
	if !strings.Contains(output, long[:maxIDWidth-3]+"...") {
		t.Errorf("expected truncated identifier, got:\n%s", output)
	}
}

// TestTruncateID_MultiByte verifies truncation counts runes, so
// multi-byte identifiers stay valid UTF-8.
func TestTruncateID_MultiByte(t *testing.T) {
	id := strings.Repeat("基因", maxIDWidth)
	got := truncateID(id)
	if !utf8.ValidString(got) {
		t.Fatalf("truncateID produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != maxIDWidth {
		t.Errorf("truncated to %d runes, want %d", n, maxIDWidth)
	}
	if short := "αβγ"; truncateID(short) != short {
		t.Errorf("short id changed: %q", truncateID(short))
	}
}

// TestMatchModel_SortKeyCycles verifies the sort key re-renders the
// content in the next order and wraps around.
func TestMatchModel_SortKeyCycles(t *testing.T) {
	var m tea.Model = newMatchModel(browseOutcome(t))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	want := []sortOrder{bySource, byTarget, byDistance}
	for _, order := range want {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
		mm := m.(matchModel)
		if mm.order != order {
			t.Fatalf("order = %v, want %v", mm.order, order)
		}
		if !strings.Contains(mm.content, "by "+order.String()) {
			t.Errorf("content not re-rendered for %v", order)
		}
	}
}

// TestMatchModel_Quit verifies q returns the quit command.
func TestMatchModel_Quit(t *testing.T) {
	m := newMatchModel(browseOutcome(t))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

// TestMatchModel_ViewBeforeResize verifies the placeholder view.
func TestMatchModel_ViewBeforeResize(t *testing.T) {
	if got := newMatchModel(browseOutcome(t)).View(); got != "Initializing..." {
		t.Errorf("View() = %q", got)
	}
}
