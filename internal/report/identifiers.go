package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/tstpatch/internal/ident"
)

// IdentifierListing is the JSON form of a flattened subprogram.
type IdentifierListing struct {
	Subprogram  string             `json:"subprogram"`
	Identifiers []ident.Identifier `json:"identifiers"`
}

// WriteIdentifiersJSON writes the identifiers of one subprogram as
// formatted JSON.
func WriteIdentifiersJSON(w io.Writer, subprogram string, ids []ident.Identifier) error {
	if ids == nil {
		ids = []ident.Identifier{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(IdentifierListing{Subprogram: subprogram, Identifiers: ids})
}

// WriteIdentifiersText writes the identifiers of one subprogram as a
// table of identifier, kind and scope.
func WriteIdentifiersText(w io.Writer, subprogram string, ids []ident.Identifier) error {
	s := DefaultStyles()
	fmt.Fprintln(w, s.Header.Render(fmt.Sprintf("=== %s ===", subprogram)))
	if len(ids) == 0 {
		fmt.Fprintln(w, s.Muted.Render("    No identifiers."))
		return nil
	}

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		m := id.Meta()
		rows = append(rows, []string{truncateLeft(id.String(), 40), kindLabel(m), scope(m)})
	}

	t := table.New().
		Width(76).
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			return s.TableCell
		}).
		Headers("IDENTIFIER", "KIND", "SCOPE").
		Rows(rows...)
	fmt.Fprintln(w, t)
	fmt.Fprintln(w, s.SubHeader.Render(fmt.Sprintf("    %d identifier(s)", len(ids))))
	return nil
}

// kindLabel names the kind with its type, e.g. "pointer int*" or
// "constructor Point". Scalars are blank.
func kindLabel(m ident.Meta) string {
	for _, key := range []string{ident.KeyPointerType, ident.KeyUnconstrainedArrayType, ident.KeyConstructorType} {
		if name, ok := m.Name(key); ok {
			return strings.TrimSpace(m.Kind.String() + " " + name)
		}
	}
	return ""
}

var scopes = []struct{ key, label string }{
	{ident.KeyParamFor, "param"},
	{ident.KeyGlobalIn, "global"},
	{ident.KeyCallsiteFunctionType, "via"},
}

func scope(m ident.Meta) string {
	for _, s := range scopes {
		if name, ok := m.Name(s.key); ok {
			return s.label + " " + name
		}
	}
	return ""
}
