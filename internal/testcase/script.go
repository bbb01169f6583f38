package testcase

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// scriptFeatures are enabled in every emitted script header.
var scriptFeatures = []string{
	"C_DIRECT_ARRAY_INDEXING",
	"CPP_CLASS_OBJECT_REVISION",
	"MULTIPLE_UUT_SUPPORT",
	"MIXED_CASE_NAMES",
	"STATIC_HEADER_FUNCS_IN_UUTS",
}

var (
	arrowRe = regexp.MustCompile(`(\w+)->`)
	derefRe = regexp.MustCompile(`\*(\w+)\.`)
)

// ScriptOptions configures WriteScript.
type ScriptOptions struct {
	// Environment is written into the header comment.
	Environment string

	// AddUUID appends a unique suffix to every test name so that
	// repeated imports do not overwrite earlier tests.
	AddUUID bool

	// NewID generates the suffix when AddUUID is set. Defaults to
	// uuid.NewString.
	NewID func() string
}

// WriteScript renders cases as a test script: a header followed by
// one TEST.NEW ... TEST.END block per case.
func WriteScript(w io.Writer, cases []TestCase, opts ScriptOptions) error {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	var sb strings.Builder
	sb.WriteString("-- Test Case Script\n")
	fmt.Fprintf(&sb, "-- Environment    : %s\n", opts.Environment)
	fmt.Fprintf(&sb, "-- Unit(s) Under Test: %s\n", strings.Join(units(cases), ", "))
	sb.WriteString("-- \n")
	sb.WriteString("-- Script Features\n")
	for _, f := range scriptFeatures {
		fmt.Fprintf(&sb, "TEST.SCRIPT_FEATURE:%s\n", f)
	}
	sb.WriteString("--\n\n")

	for _, tc := range cases {
		name := tc.Name
		if opts.AddUUID {
			name = fmt.Sprintf("%s-%s", name, opts.NewID())
		}
		writeCase(&sb, tc, name)
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeCase(sb *strings.Builder, tc TestCase, name string) {
	fmt.Fprintf(sb, "TEST.UNIT:%s\n", tc.Unit)
	fmt.Fprintf(sb, "TEST.SUBPROGRAM:%s\n", tc.Subprogram)
	sb.WriteString("TEST.NEW\n")
	fmt.Fprintf(sb, "TEST.NAME:%s\n", name)
	if tc.RequirementID != "" {
		fmt.Fprintf(sb, "TEST.REQUIREMENT_KEY:%s\n", tc.RequirementID)
	}
	sb.WriteString("TEST.NOTES:\n")
	for _, line := range strings.Split(tc.Description, "\n") {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("TEST.END_NOTES:\n")
	for _, v := range tc.InputValues {
		fmt.Fprintf(sb, "TEST.VALUE:%s:%s\n", ScriptIdentifier(v.Identifier), v.Value)
	}
	for _, v := range tc.ExpectedValues {
		fmt.Fprintf(sb, "TEST.EXPECTED:%s:%s\n", ScriptIdentifier(v.Identifier), v.Value)
	}
	sb.WriteString("TEST.END\n")
}

// ScriptIdentifier rewrites C member access through pointers into the
// indexed form the test framework expects: "p->x" becomes "*p[0].x".
func ScriptIdentifier(id string) string {
	id = arrowRe.ReplaceAllString(id, "*$1.")
	return derefRe.ReplaceAllString(id, "*$1[0].")
}

// units returns the distinct unit names in first-seen order.
func units(cases []TestCase) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tc := range cases {
		if tc.Unit == "" || seen[tc.Unit] {
			continue
		}
		seen[tc.Unit] = true
		out = append(out, tc.Unit)
	}
	return out
}
