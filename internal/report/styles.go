package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/unbound-force/tstpatch/internal/patch"
)

// Styles defines the visual theme for terminal report output.
// Lipgloss automatically degrades to no-color when output is not a TTY.
type Styles struct {
	// Header is used for per-test headers (e.g. "=== name ===").
	Header lipgloss.Style

	// SubHeader is used for secondary information lines.
	SubHeader lipgloss.Style

	// Reason styles color-code why an assignment was inserted.
	ReasonParam       lipgloss.Style
	ReasonGlobal      lipgloss.Style
	ReasonUsed        lipgloss.Style
	ReasonConstructor lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// TableCell styles regular table cells.
	TableCell lipgloss.Style

	// Unresolved marks test cases whose subprogram had no type
	// information.
	Unresolved lipgloss.Style

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

		ReasonParam:       lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		ReasonGlobal:      lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		ReasonUsed:        lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		ReasonConstructor: lipgloss.NewStyle().Foreground(lipgloss.Color("40")),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		TableCell:   lipgloss.NewStyle().PaddingRight(1),

		Unresolved: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),

		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// ReasonStyle returns the style for an insertion reason.
func (s Styles) ReasonStyle(r patch.Reason) lipgloss.Style {
	switch r {
	case patch.ReasonParam:
		return s.ReasonParam
	case patch.ReasonGlobal:
		return s.ReasonGlobal
	case patch.ReasonUsed:
		return s.ReasonUsed
	case patch.ReasonConstructor:
		return s.ReasonConstructor
	default:
		return s.Muted
	}
}
