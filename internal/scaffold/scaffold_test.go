package scaffold

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/unbound-force/tstpatch/internal/config"
	"github.com/unbound-force/tstpatch/internal/testcase"
)

var expectedFiles = []string{config.FileName, ExamplePath}

// withDumps creates an empty project holding both type dumps.
func withDumps(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"types.xml", "param.xml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("<x/>\n"), 0o644); err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
	}
	return dir
}

func TestRun_CreatesFiles(t *testing.T) {
	dir := withDumps(t)

	var buf bytes.Buffer
	result, err := Run(Options{TargetDir: dir, Version: "1.2.3", Stdout: &buf})
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	if strings.Join(result.Created, ",") != strings.Join(expectedFiles, ",") {
		t.Errorf("created = %v, want %v", result.Created, expectedFiles)
	}
	if len(result.Skipped) != 0 || len(result.Overwritten) != 0 {
		t.Errorf("expected nothing skipped or overwritten, got %v / %v", result.Skipped, result.Overwritten)
	}
	if result.Types != "types.xml" || result.Params != "param.xml" {
		t.Errorf("dumps = %q, %q", result.Types, result.Params)
	}

	output := buf.String()
	if !strings.Contains(output, "created: .tstpatch.yaml") {
		t.Errorf("summary should list the config, got:\n%s", output)
	}
	if !strings.Contains(output, "--types types.xml --params param.xml") {
		t.Errorf("summary should suggest the patch command, got:\n%s", output)
	}
	if strings.Contains(output, "Warning") {
		t.Errorf("unexpected warning:\n%s", output)
	}
}

func TestRun_ConfigRoundTrips(t *testing.T) {
	dir := withDumps(t)
	if _, err := Run(Options{TargetDir: dir, Stdout: &bytes.Buffer{}}); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	cfg, err := config.LoadDir(dir)
	if err != nil {
		t.Fatalf("scaffolded config does not load: %v", err)
	}
	def := config.DefaultConfig()
	if cfg.MaxIdentifierIndex != def.MaxIdentifierIndex || cfg.Workers != def.Workers || cfg.Format != def.Format {
		t.Errorf("scaffolded config %+v differs from defaults %+v", cfg, def)
	}
}

func TestRun_RendersGivenConfig(t *testing.T) {
	dir := withDumps(t)
	cfg := config.DefaultConfig()
	cfg.Format = config.FormatTST
	cfg.Script.Environment = "GEOM_ENV"
	cfg.Subprograms.Exclude = []string{"legacy::**"}

	if _, err := Run(Options{TargetDir: dir, Config: cfg, Stdout: &bytes.Buffer{}}); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	got, err := config.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if got.Format != config.FormatTST || got.Script.Environment != "GEOM_ENV" {
		t.Errorf("loaded %+v", got)
	}
	if len(got.Subprograms.Exclude) != 1 || got.Subprograms.Exclude[0] != "legacy::**" {
		t.Errorf("exclude = %v", got.Subprograms.Exclude)
	}
}

func TestRun_InvalidConfigWritesNothing(t *testing.T) {
	dir := withDumps(t)
	cfg := config.DefaultConfig()
	cfg.Workers = 0

	if _, err := Run(Options{TargetDir: dir, Config: cfg, Stdout: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for invalid config")
	}
	for _, rel := range expectedFiles {
		if _, err := os.Stat(filepath.Join(dir, rel)); !os.IsNotExist(err) {
			t.Errorf("%s written despite invalid config", rel)
		}
	}
}

func TestRun_ExampleCasesLoad(t *testing.T) {
	dir := withDumps(t)
	if _, err := Run(Options{TargetDir: dir, Stdout: &bytes.Buffer{}}); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	cases, err := testcase.LoadFile(filepath.Join(dir, ExamplePath))
	if err != nil {
		t.Fatalf("scaffolded example cases do not load: %v", err)
	}
	if len(cases) != 1 || cases[0].Subprogram != "scale" {
		t.Errorf("unexpected example cases: %+v", cases)
	}
}

func TestRun_SkipsExisting(t *testing.T) {
	dir := withDumps(t)

	if _, err := Run(Options{TargetDir: dir, Stdout: &bytes.Buffer{}}); err != nil {
		t.Fatalf("first Run() returned error: %v", err)
	}

	var buf bytes.Buffer
	result, err := Run(Options{TargetDir: dir, Stdout: &buf})
	if err != nil {
		t.Fatalf("second Run() returned error: %v", err)
	}
	if len(result.Created) != 0 {
		t.Errorf("expected 0 created, got %v", result.Created)
	}
	if len(result.Skipped) != len(expectedFiles) {
		t.Errorf("expected %d skipped, got %v", len(expectedFiles), result.Skipped)
	}
	if !strings.Contains(buf.String(), "use --force to overwrite") {
		t.Errorf("summary should suggest --force, got:\n%s", buf.String())
	}
}

func TestRun_ForceOverwrites(t *testing.T) {
	dir := withDumps(t)

	cfgPath := filepath.Join(dir, config.FileName)
	if err := os.WriteFile(cfgPath, []byte("workers: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := Run(Options{TargetDir: dir, Force: true, Stdout: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if len(result.Overwritten) != 1 || result.Overwritten[0] != config.FileName {
		t.Errorf("expected %s overwritten, got %v", config.FileName, result.Overwritten)
	}
	if len(result.Created) != 1 || result.Created[0] != ExamplePath {
		t.Errorf("expected example cases created, got %v", result.Created)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != config.DefaultConfig().Workers {
		t.Errorf("existing config was not overwritten: workers = %d", cfg.Workers)
	}
}

func TestRun_VersionHeader(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"1.2.3", "# scaffolded by tstpatch 1.2.3"},
		{"", "# scaffolded by tstpatch dev"},
	}
	for _, tt := range tests {
		dir := withDumps(t)
		if _, err := Run(Options{TargetDir: dir, Version: tt.version, Stdout: &bytes.Buffer{}}); err != nil {
			t.Fatalf("Run() returned error: %v", err)
		}
		for _, rel := range expectedFiles {
			data, err := os.ReadFile(filepath.Join(dir, rel))
			if err != nil {
				t.Fatal(err)
			}
			firstLine, _, _ := strings.Cut(string(data), "\n")
			if firstLine != tt.want {
				t.Errorf("%s: expected first line %q, got %q", rel, tt.want, firstLine)
			}
		}
	}
}

func TestRun_MissingDumps(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "types.xml"), []byte("<x/>\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	result, err := Run(Options{TargetDir: dir, Stdout: &buf})
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if result.Types != "types.xml" || result.Params != "" {
		t.Errorf("dumps = %q, %q", result.Types, result.Params)
	}
	if len(result.Created) != len(expectedFiles) {
		t.Errorf("files should still be written, got %v", result.Created)
	}
	if !strings.Contains(buf.String(), "Warning: types.xml and param.xml not both found") {
		t.Errorf("expected dump warning, got:\n%s", buf.String())
	}
}
