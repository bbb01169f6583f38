package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unbound-force/tstpatch/internal/patch"
	"github.com/unbound-force/tstpatch/internal/report"
)

// keyMap defines keybindings for the interactive TUI.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Changed  key.Binding
	Quit     key.Binding
	Help     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Changed, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Changed, k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("^/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("v/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Changed:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "changed only")),
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

	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// patchModel is the Bubble Tea model for browsing patch results.
type patchModel struct {
	results     []patch.Result
	changedOnly bool
	viewport    viewport.Model
	help        help.Model
	keys        keyMap
	ready       bool
	content     string
}

func newPatchModel(results []patch.Result) patchModel {
	return patchModel{
		results: results,
		help:    help.New(),
		keys:    defaultKeyMap,
		content: renderPatchContent(results, false),
	}
}

func renderPatchContent(results []patch.Result, changedOnly bool) string {
	var sb strings.Builder
	sum := report.Summarize(results)
	s := report.DefaultStyles()

	title := fmt.Sprintf("tstpatch: %d test case(s), %d insertion(s)", sum.Cases, sum.Insertions)
	if changedOnly {
		title += " [changed only]"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")

	for _, result := range results {
		if changedOnly && !result.Changed() {
			continue
		}
		sb.WriteString(tuiHeaderStyle.Render(fmt.Sprintf("=== %s ===", report.Title(result))))
		sb.WriteString("\n")
		sb.WriteString(statusStyle.Render(fmt.Sprintf("    %s", result.Original.Subprogram)))
		sb.WriteString("\n")

		switch {
		case result.Skipped:
			sb.WriteString(statusStyle.Render("    Excluded by configuration."))
			sb.WriteString("\n\n")
			continue
		case !result.Resolved:
			sb.WriteString(warnStyle.Render("    No type information."))
			sb.WriteString("\n\n")
			continue
		case !result.Changed():
			sb.WriteString(statusStyle.Render("    Nothing to insert."))
			sb.WriteString("\n\n")
			continue
		}

		t := report.InsertionTable(result.Insertions, s, 100).
			Border(lipgloss.RoundedBorder())
		sb.WriteString(t.String())
		sb.WriteString("\n\n")
	}

	return sb.String()
}

func (m patchModel) Init() tea.Cmd {
	return nil
}

func (m patchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
		case key.Matches(msg, m.keys.Changed):
			m.changedOnly = !m.changedOnly
			m.content = renderPatchContent(m.results, m.changedOnly)
			if m.ready {
				m.viewport.SetContent(m.content)
				m.viewport.GotoTop()
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m patchModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	footer := statusStyle.Render(
		fmt.Sprintf(" %3.f%% ", m.viewport.ScrollPercent()*100)) +
		" " + m.help.View(m.keys)

	return m.viewport.View() + "\n" + footer
}

// runInteractivePatch launches the Bubble Tea TUI for browsing patch
// results.
func runInteractivePatch(results []patch.Result) error {
	model := newPatchModel(results)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
