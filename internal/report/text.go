package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/tstpatch/internal/patch"
)

// WriteText writes patch results as human-readable styled text to
// the writer. Output uses lipgloss for color and formatting when the
// output is a TTY; degrades gracefully for pipes and CI.
func WriteText(w io.Writer, results []patch.Result) error {
	s := DefaultStyles()

	for i, result := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		writeOneResult(w, result, s)
	}

	sum := Summarize(results)
	fmt.Fprintf(w, "\n%s\n",
		s.Header.Render(fmt.Sprintf(
			"%d test case(s) patched, %d assignment(s) inserted",
			sum.Cases, sum.Insertions)))
	if sum.Skipped > 0 {
		fmt.Fprintln(w, s.Muted.Render(fmt.Sprintf(
			"%d test case(s) excluded by configuration", sum.Skipped)))
	}
	if sum.Unresolved > 0 {
		fmt.Fprintln(w, s.Unresolved.Render(fmt.Sprintf(
			"%d test case(s) had no type information", sum.Unresolved)))
	}
	return nil
}

// Title names a test case for display.
func Title(r patch.Result) string {
	if r.Original.Name != "" {
		return r.Original.Name
	}
	return r.Original.Subprogram
}

func writeOneResult(w io.Writer, result patch.Result, s Styles) {
	fmt.Fprintln(w, s.Header.Render(fmt.Sprintf("=== %s ===", Title(result))))
	fmt.Fprintln(w, s.SubHeader.Render(fmt.Sprintf("    subprogram %s", result.Original.Subprogram)))
	fmt.Fprintln(w, s.SubHeader.Render(fmt.Sprintf("    %d input(s), %d after patching",
		len(result.Original.InputValues), len(result.Patched.InputValues))))

	if result.Skipped {
		fmt.Fprintln(w, s.Muted.Render("    Excluded by configuration; passed through unchanged."))
		return
	}
	if !result.Resolved {
		fmt.Fprintln(w, s.Unresolved.Render("    No type information; passed through unchanged."))
		return
	}
	if len(result.Insertions) == 0 {
		fmt.Fprintln(w, s.Muted.Render("    Nothing to insert."))
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, InsertionTable(result.Insertions, s, 76))
}

// InsertionTable renders insertions as a table no wider than width.
func InsertionTable(ins []patch.Insertion, s Styles, width int) *table.Table {
	// POS=3, REASON=11, VALUE=14; identifiers take the rest.
	maxID := max(width-4-8-3-11-14, 12)
	rows := make([][]string, 0, len(ins))
	reasons := make([]patch.Reason, 0, len(ins))
	for _, in := range ins {
		rows = append(rows, []string{
			strconv.Itoa(in.Position),
			string(in.Reason),
			truncateLeft(in.Mapping.Identifier, maxID),
			in.Mapping.Value,
		})
		reasons = append(reasons, in.Reason)
	}

	return table.New().
		Width(width).
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if col == 1 && row >= 0 && row < len(reasons) {
				return s.ReasonStyle(reasons[row])
			}
			return s.TableCell
		}).
		Headers("POS", "REASON", "IDENTIFIER", "VALUE").
		Rows(rows...)
}

// truncateLeft shortens s to n runes, keeping its tail.
func truncateLeft(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "..." + string(r[len(r)-(n-3):])
}
