package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/unbound-force/tstpatch/internal/report"
	"github.com/unbound-force/tstpatch/internal/testcase"
)

var fixtureTypes = resolverFlags{
	typesPath:  filepath.Join("testdata", "types.xml"),
	paramsPath: filepath.Join("testdata", "param.xml"),
}

func fixturePatch(format string, stdout *bytes.Buffer) patchParams {
	return patchParams{
		inputPath: filepath.Join("testdata", "cases.json"),
		resolver:  fixtureTypes,
		format:    format,
		stdout:    stdout,
	}
}

// ---------------------------------------------------------------------------
// runPatch tests
// ---------------------------------------------------------------------------

func TestRunPatch_InvalidFormat(t *testing.T) {
	err := runPatch(fixturePatch("yaml", &bytes.Buffer{}))
	if err == nil {
		t.Fatal("expected error for invalid format")
	}
	if !strings.Contains(err.Error(), `invalid format "yaml"`) {
		t.Errorf("unexpected error message: %s", err)
	}
}

func TestRunPatch_MissingTypeInformation(t *testing.T) {
	p := fixturePatch("text", &bytes.Buffer{})
	p.resolver = resolverFlags{typesPath: filepath.Join("testdata", "types.xml")}
	err := runPatch(p)
	if err == nil || !strings.Contains(err.Error(), "type information required") {
		t.Errorf("expected missing type information error, got %v", err)
	}
}

func TestRunPatch_MissingInput(t *testing.T) {
	p := fixturePatch("text", &bytes.Buffer{})
	p.inputPath = filepath.Join("testdata", "nope.json")
	if err := runPatch(p); err == nil {
		t.Fatal("expected error for missing input file")
	}
}

func TestRunPatch_TextFormat(t *testing.T) {
	var stdout bytes.Buffer
	if err := runPatch(fixturePatch("text", &stdout)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{
		"scale_second", "fill_buf", "<<malloc 2>>", "<<malloc 3>>",
		"3 test case(s) patched", "3 assignment(s) inserted",
		"1 test case(s) had no type information",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRunPatch_JSONFormat_ValidAgainstSchema(t *testing.T) {
	var stdout bytes.Buffer
	if err := runPatch(fixturePatch("json", &stdout)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rpt report.JSONReport
	if err := json.Unmarshal(stdout.Bytes(), &rpt); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput:\n%s", err, stdout.String())
	}
	want := report.Summary{Cases: 3, Changed: 2, Unresolved: 1, Insertions: 3}
	if rpt.Summary != want {
		t.Errorf("summary = %+v, want %+v", rpt.Summary, want)
	}

	sch, err := jsonschema.UnmarshalJSON(strings.NewReader(report.Schema))
	if err != nil {
		t.Fatal(err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", sch); err != nil {
		t.Fatal(err)
	}
	compiled, err := c.Compile("schema.json")
	if err != nil {
		t.Fatal(err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(stdout.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if err := compiled.Validate(inst); err != nil {
		t.Errorf("output does not conform to schema:\n%v", err)
	}
}

func TestRunPatch_TSTFormat(t *testing.T) {
	var stdout bytes.Buffer
	if err := runPatch(fixturePatch("tst", &stdout)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{
		"TEST.NAME:scale_second\n",
		"TEST.VALUE:geom.scale.p:<<malloc 2>>\nTEST.VALUE:geom.scale.p[1]:5\n",
		"TEST.EXPECTED:geom.scale.return:10\n",
		"TEST.VALUE:geom.fill.buf:<<malloc 3>>\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected script to contain %q, got:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "TEST.NEW\n"); n != 3 {
		t.Errorf("expected 3 tests in script, got %d", n)
	}
}

func TestRunPatch_CasesFormatIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "patched.json")

	p := fixturePatch("cases", &bytes.Buffer{})
	p.output = first
	if err := runPatch(p); err != nil {
		t.Fatalf("first run: %v", err)
	}

	cases, err := testcase.LoadFile(first)
	if err != nil {
		t.Fatalf("patched output does not load: %v", err)
	}
	if len(cases) != 3 || len(cases[0].InputValues) != 2 {
		t.Fatalf("unexpected patched cases: %+v", cases)
	}

	var stdout bytes.Buffer
	p = fixturePatch("json", &stdout)
	p.inputPath = first
	if err := runPatch(p); err != nil {
		t.Fatalf("second run: %v", err)
	}
	var rpt report.JSONReport
	if err := json.Unmarshal(stdout.Bytes(), &rpt); err != nil {
		t.Fatal(err)
	}
	if rpt.Summary.Insertions != 0 {
		t.Errorf("patching patched cases inserted %d assignment(s)", rpt.Summary.Insertions)
	}
}

func TestRunPatch_StaticResolver(t *testing.T) {
	var stdout bytes.Buffer
	p := fixturePatch("json", &stdout)
	p.resolver = resolverFlags{staticPath: filepath.Join("testdata", "static.yaml")}
	if err := runPatch(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rpt report.JSONReport
	if err := json.Unmarshal(stdout.Bytes(), &rpt); err != nil {
		t.Fatal(err)
	}
	if rpt.Summary.Insertions != 2 {
		t.Errorf("insertions = %d, want 2", rpt.Summary.Insertions)
	}
}

func TestRunPatch_ConfigExcludesSubprogram(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "tstpatch.yaml")
	if err := os.WriteFile(cfgPath, []byte("subprograms:\n  exclude: [fill]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout bytes.Buffer
	p := fixturePatch("json", &stdout)
	p.configPath = cfgPath
	if err := runPatch(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rpt report.JSONReport
	if err := json.Unmarshal(stdout.Bytes(), &rpt); err != nil {
		t.Fatal(err)
	}
	want := report.Summary{Cases: 3, Changed: 1, Unresolved: 1, Skipped: 1, Insertions: 1}
	if rpt.Summary != want {
		t.Errorf("summary = %+v, want %+v", rpt.Summary, want)
	}
	if !rpt.Results[2].Skipped {
		t.Error("fill_buf should be skipped")
	}
}

func TestRunPatch_ConfigSuppliesFormat(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "tstpatch.yaml")
	if err := os.WriteFile(cfgPath, []byte("format: tst\nscript:\n  environment: GEOM_ENV\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout bytes.Buffer
	p := fixturePatch("", &stdout)
	p.configPath = cfgPath
	if err := runPatch(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout.String(), "-- Environment    : GEOM_ENV") {
		t.Errorf("expected script header from config, got:\n%s", stdout.String())
	}
}

func TestRunPatch_MissingConfigFile(t *testing.T) {
	p := fixturePatch("text", &bytes.Buffer{})
	p.configPath = filepath.Join(t.TempDir(), "absent.yaml")
	if err := runPatch(p); err == nil {
		t.Fatal("expected error for an explicit config path that does not exist")
	}
}

func TestRunPatch_MaxIndexFlag(t *testing.T) {
	var stdout bytes.Buffer
	p := patchParams{
		inputPath: filepath.Join("testdata", "cases.json"),
		resolver:  fixtureTypes,
		format:    "text",
		maxIndex:  1,
		workers:   2,
		stdout:    &stdout,
	}
	if err := runPatch(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Sizes come from the written indices, not from the expansion limit.
	if !strings.Contains(stdout.String(), "<<malloc 2>>") {
		t.Errorf("expected malloc sized from input, got:\n%s", stdout.String())
	}
}

// ---------------------------------------------------------------------------
// runIdentifiers tests
// ---------------------------------------------------------------------------

func TestRunIdentifiers_ListsSubprograms(t *testing.T) {
	var stdout bytes.Buffer
	err := runIdentifiers(identifiersParams{resolver: fixtureTypes, format: "text", stdout: &stdout})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Point::norm\nfill\nfunc_9_9\nhelper\nscale\nwalk\n"
	if stdout.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", stdout.String(), want)
	}
}

func TestRunIdentifiers_Text(t *testing.T) {
	var stdout bytes.Buffer
	err := runIdentifiers(identifiersParams{subprogram: "scale", resolver: fixtureTypes, format: "text", stdout: &stdout})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"=== scale ===", "geom.scale.p[2]", "pointer", "8 identifier(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRunIdentifiers_JSONRespectsMaxIndex(t *testing.T) {
	var stdout bytes.Buffer
	err := runIdentifiers(identifiersParams{
		subprogram: "scale", resolver: fixtureTypes, format: "json", maxIndex: 1, stdout: &stdout,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var listing struct {
		Identifiers []struct {
			ID string `json:"id"`
		} `json:"identifiers"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &listing); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	var ids []string
	for _, id := range listing.Identifiers {
		ids = append(ids, id.ID)
	}
	got := strings.Join(ids, ",")
	want := "geom.<<GLOBAL>>.counter,geom.scale.p,geom.scale.p[0],geom.scale.return,geom.helper.n,geom.helper.return"
	if got != want {
		t.Errorf("identifiers = %s, want %s", got, want)
	}
}

func TestRunIdentifiers_Under(t *testing.T) {
	var stdout bytes.Buffer
	err := runIdentifiers(identifiersParams{
		subprogram: "scale", under: "geom.scale.p", resolver: fixtureTypes, format: "json", stdout: &stdout,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var listing struct {
		Identifiers []struct {
			ID string `json:"id"`
		} `json:"identifiers"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &listing); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	var ids []string
	for _, id := range listing.Identifiers {
		ids = append(ids, id.ID)
	}
	if got, want := strings.Join(ids, ","), "geom.scale.p,geom.scale.p[0],geom.scale.p[1],geom.scale.p[2]"; got != want {
		t.Errorf("identifiers = %s, want %s", got, want)
	}
}

func TestRunIdentifiers_FallsBackToTypes(t *testing.T) {
	var stdout bytes.Buffer
	err := runIdentifiers(identifiersParams{subprogram: "Node", resolver: fixtureTypes, format: "text", stdout: &stdout})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out := stdout.String(); !strings.Contains(out, "=== Node ===") || !strings.Contains(out, "Node.value") {
		t.Errorf("expected the Node fields, got:\n%s", out)
	}
}

func TestRunIdentifiers_UnderNamesClosestAncestor(t *testing.T) {
	err := runIdentifiers(identifiersParams{
		subprogram: "scale", under: "geom.scale.p[0].x", resolver: fixtureTypes, format: "text", stdout: &bytes.Buffer{},
	})
	if err == nil || !strings.Contains(err.Error(), `closest is "geom.scale.p[0]"`) {
		t.Errorf("error = %v, want closest ancestor geom.scale.p[0]", err)
	}
}

func TestRunIdentifiers_Errors(t *testing.T) {
	tests := []struct {
		name string
		p    identifiersParams
		want string
	}{
		{"bad format", identifiersParams{format: "xml", resolver: fixtureTypes}, `invalid format "xml"`},
		{"unknown subprogram", identifiersParams{subprogram: "nope", format: "text", resolver: fixtureTypes}, `subprogram "nope" not found`},
		{"unknown static subprogram", identifiersParams{subprogram: "nope", format: "text", resolver: resolverFlags{staticPath: filepath.Join("testdata", "static.yaml")}}, `subprogram "nope" not found`},
		{"no types", identifiersParams{format: "text"}, "type information required"},
		{"unknown root", identifiersParams{subprogram: "scale", under: "geom.scale.q", format: "text", resolver: fixtureTypes}, `no identifier "geom.scale.q"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.p.stdout = &bytes.Buffer{}
			err := runIdentifiers(tt.p)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// schema command tests
// ---------------------------------------------------------------------------

func TestSchemaCmd_OutputsValidJSON(t *testing.T) {
	for _, args := range [][]string{{}, {"report"}, {"input"}} {
		cmd := newSchemaCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetArgs(args)
		if err := cmd.Execute(); err != nil {
			t.Fatalf("schema %v failed: %v", args, err)
		}

		var parsed map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Errorf("schema %v output is not valid JSON: %v", args, err)
		}
	}
}

func TestSchemaCmd_ContainsSchemaFields(t *testing.T) {
	cmd := newSchemaCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	output := buf.String()
	for _, field := range []string{
		`"$schema"`, `"title"`, `"Result"`, `"Insertion"`, `"Summary"`,
	} {
		if !strings.Contains(output, field) {
			t.Errorf("schema output missing %s", field)
		}
	}
}

func TestSchemaCmd_Unknown(t *testing.T) {
	cmd := newSchemaCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown schema")
	}
}

// ---------------------------------------------------------------------------
// init and logging
// ---------------------------------------------------------------------------

func TestInitCmd_WritesConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cmd := newInitCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".tstpatch.yaml")); err != nil {
		t.Errorf("expected .tstpatch.yaml: %v", err)
	}
	if !strings.Contains(buf.String(), "created: .tstpatch.yaml") {
		t.Errorf("unexpected init output:\n%s", buf.String())
	}
}

func TestInitCmd_WritesFlagsIntoConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cmd := newInitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "tst", "--environment", "GEOM_ENV"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loading scaffolded config: %v", err)
	}
	if cfg.Format != "tst" || cfg.Script.Environment != "GEOM_ENV" {
		t.Errorf("config = %+v", cfg)
	}
}

func TestInitCmd_RejectsInvalidFormat(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cmd := newInitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "yaml"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for invalid format")
	}
	if _, err := os.Stat(filepath.Join(dir, ".tstpatch.yaml")); !os.IsNotExist(err) {
		t.Error("config written despite invalid format")
	}
}

func TestRunPatch_OutputFileUnwritable(t *testing.T) {
	p := fixturePatch("json", &bytes.Buffer{})
	p.output = filepath.Join(t.TempDir(), "missing", "out.json")
	err := runPatch(p)
	if err == nil || !strings.Contains(err.Error(), "creating output") {
		t.Errorf("error = %v, want creating output failure", err)
	}
}

func TestRunPatch_OutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")
	var stdout bytes.Buffer
	p := fixturePatch("json", &stdout)
	p.output = out
	if err := runPatch(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout should be empty when writing to a file, got:\n%s", stdout.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var rpt report.JSONReport
	if err := json.Unmarshal(data, &rpt); err != nil {
		t.Fatalf("output file is not valid JSON: %v", err)
	}
	if rpt.Summary.Cases != 3 {
		t.Errorf("summary cases = %d, want 3", rpt.Summary.Cases)
	}
}

func TestSetLogLevel(t *testing.T) {
	defer setLogLevel(false, false)

	tests := []struct {
		verbose, quiet bool
		want           charmlog.Level
	}{
		{false, false, charmlog.InfoLevel},
		{true, false, charmlog.DebugLevel},
		{false, true, charmlog.ErrorLevel},
		{true, true, charmlog.ErrorLevel},
	}
	for _, tt := range tests {
		setLogLevel(tt.verbose, tt.quiet)
		if got := logger.GetLevel(); got != tt.want {
			t.Errorf("setLogLevel(%v, %v) level = %v, want %v", tt.verbose, tt.quiet, got, tt.want)
		}
	}
}
