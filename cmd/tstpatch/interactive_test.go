package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unbound-force/tstpatch/internal/patch"
	"github.com/unbound-force/tstpatch/internal/testcase"
)

func sampleResults() []patch.Result {
	changed := testcase.TestCase{Name: "scale_second", Subprogram: "scale"}
	return []patch.Result{
		{
			Original: changed,
			Patched:  changed,
			Resolved: true,
			Insertions: []patch.Insertion{{
				Mapping:  testcase.ValueMapping{Identifier: "geom.scale.p", Value: "<<malloc 2>>"},
				Position: 0,
				Reason:   patch.ReasonParam,
			}},
		},
		{
			Original: testcase.TestCase{Name: "unknown_fn", Subprogram: "nope"},
		},
		{
			Original: testcase.TestCase{Name: "fill_buf", Subprogram: "fill"},
			Skipped:  true,
		},
		{
			Original: testcase.TestCase{Name: "plain", Subprogram: "helper"},
			Resolved: true,
		},
	}
}

func TestRenderPatchContent_EmptyResults(t *testing.T) {
	output := renderPatchContent(nil, false)

	if !strings.Contains(output, "0 test case(s), 0 insertion(s)") {
		t.Errorf("expected zero counts, got:\n%s", output)
	}
}

func TestRenderPatchContent_AllResults(t *testing.T) {
	output := renderPatchContent(sampleResults(), false)

	for _, want := range []string{
		"4 test case(s), 1 insertion(s)",
		"=== scale_second ===",
		"geom.scale.p",
		"<<malloc 2>>",
		"param",
		"=== unknown_fn ===",
		"No type information.",
		"=== fill_buf ===",
		"Excluded by configuration.",
		"=== plain ===",
		"Nothing to insert.",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
	if strings.Contains(output, "[changed only]") {
		t.Error("unfiltered view should not be marked changed only")
	}
}

func TestRenderPatchContent_ChangedOnly(t *testing.T) {
	output := renderPatchContent(sampleResults(), true)

	if !strings.Contains(output, "[changed only]") {
		t.Errorf("expected changed-only marker, got:\n%s", output)
	}
	if !strings.Contains(output, "scale_second") {
		t.Error("changed case missing from filtered view")
	}
	for _, hidden := range []string{"unknown_fn", "fill_buf", "plain"} {
		if strings.Contains(output, hidden) {
			t.Errorf("unchanged case %q shown in filtered view", hidden)
		}
	}
}

func TestPatchModel_Update(t *testing.T) {
	m := newPatchModel(sampleResults())
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View before sizing = %q", got)
	}

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(patchModel)
	if !m.ready {
		t.Fatal("model not ready after WindowSizeMsg")
	}
	if !strings.Contains(m.View(), "scale_second") {
		t.Errorf("view missing content:\n%s", m.View())
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	m = next.(patchModel)
	if !m.changedOnly || !strings.Contains(m.content, "[changed only]") {
		t.Error("c should switch to the changed-only view")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	m = next.(patchModel)
	if m.changedOnly || !strings.Contains(m.content, "unknown_fn") {
		t.Error("second c should restore the full view")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
