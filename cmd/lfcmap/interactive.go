package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/lfcmap/internal/model"
	"github.com/unbound-force/lfcmap/internal/pipeline"
	"github.com/unbound-force/lfcmap/internal/quality"
	"github.com/unbound-force/lfcmap/internal/stats"
)

// keyMap defines keybindings for the interactive TUI.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Sort     key.Binding
	Quit     key.Binding
	Help     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Sort, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Sort, k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("^/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("v/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// Styles for the TUI.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	tuiHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	tuiBorderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))

	mismatchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

// sortOrder selects how the mapping table is ordered.
type sortOrder int

const (
	byDistance sortOrder = iota
	bySource
	byTarget
)

func (o sortOrder) String() string {
	switch o {
	case bySource:
		return "source id"
	case byTarget:
		return "target id"
	default:
		return "distance"
	}
}

func (o sortOrder) next() sortOrder {
	return (o + 1) % 3
}

// maxIDWidth truncates long identifiers in the table.
const maxIDWidth = 30

// matchModel is the Bubble Tea model for browsing a mapping.
type matchModel struct {
	outcome  *pipeline.Outcome
	order    sortOrder
	viewport viewport.Model
	help     help.Model
	keys     keyMap
	ready    bool
	content  string
}

func newMatchModel(out *pipeline.Outcome) matchModel {
	return matchModel{
		outcome: out,
		help:    help.New(),
		keys:    defaultKeyMap,
		content: renderMatchContent(out, byDistance),
	}
}

// truncateID shortens id to maxIDWidth runes, never splitting a rune.
func truncateID(id string) string {
	r := []rune(id)
	if len(r) > maxIDWidth {
		return string(r[:maxIDWidth-3]) + "..."
	}
	return id
}

// sortedEntries returns a copy of the entries in the requested order.
// Distance order is the solver's order.
func sortedEntries(entries []model.MappingEntry, order sortOrder) []model.MappingEntry {
	out := append([]model.MappingEntry(nil), entries...)
	switch order {
	case bySource:
		sort.SliceStable(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	case byTarget:
		sort.SliceStable(out, func(i, j int) bool { return out[i].TargetID < out[j].TargetID })
	}
	return out
}

func renderMatchContent(out *pipeline.Outcome, order sortOrder) string {
	var sb strings.Builder

	q := out.Quality
	sb.WriteString(titleStyle.Render(
		fmt.Sprintf("lfcmap: %d pair(s), %d unmatched, grade %s",
			out.Mapping.Len(), len(out.Unmatched), q.Grade)))
	sb.WriteString("\n\n")

	if d := out.Direction; d != nil && d.Negate {
		sb.WriteString(statusStyle.Render("    target scores were negated before matching"))
		sb.WriteString("\n\n")
	}

	entries := sortedEntries(out.Mapping.Entries, order)
	rows := make([][]string, 0, len(entries))
	mismatch := make([]bool, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			truncateID(e.SourceID),
			fmt.Sprintf("%.4f", e.SourceScore),
			truncateID(e.TargetID),
			fmt.Sprintf("%.4f", e.TargetScore),
			fmt.Sprintf("%.4f", e.Distance),
		})
		mismatch = append(mismatch, stats.Sign(e.SourceScore) != stats.Sign(e.TargetScore))
	}

	sb.WriteString(tuiHeaderStyle.Render(fmt.Sprintf("=== Mapping (by %s) ===", order)))
	sb.WriteString("\n")

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tuiBorderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tuiHeaderStyle
			}
			if row >= 0 && row < len(mismatch) && mismatch[row] {
				return mismatchStyle
			}
			return lipgloss.NewStyle()
		}).
		Headers("SOURCE", "LFC", "TARGET", "LFC", "DISTANCE").
		Rows(rows...)

	sb.WriteString(t.String())
	sb.WriteString("\n\n")

	if len(out.Unmatched) > 0 {
		sb.WriteString(tuiHeaderStyle.Render("=== Unmatched ==="))
		sb.WriteString("\n")
		for _, id := range out.Unmatched {
			sb.WriteString("    " + id + "\n")
		}
		sb.WriteString("\n")
	}

	_ = quality.WriteText(&sb, q)

	return sb.String()
}

func (m matchModel) Init() tea.Cmd {
	return nil
}

func (m matchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 0
		footerHeight := 2
		verticalMargin := headerHeight + footerHeight

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-verticalMargin)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - verticalMargin
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Sort):
			m.order = m.order.next()
			m.content = renderMatchContent(m.outcome, m.order)
			if m.ready {
				m.viewport.SetContent(m.content)
				m.viewport.GotoTop()
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m matchModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	footer := statusStyle.Render(
		fmt.Sprintf(" %3.f%% ", m.viewport.ScrollPercent()*100)) +
		" " + m.help.View(m.keys)

	return m.viewport.View() + "\n" + footer
}

// runInteractiveMatch launches the Bubble Tea TUI for browsing a
// mapping.
func runInteractiveMatch(out *pipeline.Outcome) error {
	p := tea.NewProgram(newMatchModel(out), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
