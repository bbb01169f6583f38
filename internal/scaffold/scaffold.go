// Package scaffold sets up a project for tstpatch: a configuration
// file rendered from the defaults and an example test-case file that
// the patch command accepts.
package scaffold

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/unbound-force/tstpatch/internal/config"
	"github.com/unbound-force/tstpatch/internal/testcase"
)

// ExamplePath is where the example test cases are written, relative
// to the project root.
var ExamplePath = filepath.Join("tstpatch", "cases.example.yaml")

//go:embed cases.example.yaml
var exampleCases []byte

// Options configures Run.
type Options struct {
	// TargetDir is the project root. Defaults to the working
	// directory.
	TargetDir string

	// Config is rendered into .tstpatch.yaml. Nil means
	// config.DefaultConfig().
	Config *config.Config

	// Force replaces files that already exist.
	Force bool

	// Version is recorded in the header of each written file.
	Version string

	// Stdout receives the summary. Defaults to os.Stdout.
	Stdout io.Writer
}

// Result lists the project-relative paths Run touched.
type Result struct {
	Created     []string
	Skipped     []string
	Overwritten []string

	// Types and Params are the type dumps found in the project root,
	// empty when absent.
	Types  string
	Params string
}

type file struct {
	path   string
	render func() ([]byte, error)
}

// Run writes .tstpatch.yaml and the example test cases into the
// project. Existing files are kept unless opts.Force is set. Nothing
// is written when either file fails to render.
func Run(opts Options) (*Result, error) {
	if opts.TargetDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		opts.TargetDir = cwd
	}
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	header := fmt.Sprintf("# scaffolded by tstpatch %s\n", versionOrDev(opts.Version))

	files := []file{
		{config.FileName, func() ([]byte, error) { return renderConfig(opts.Config) }},
		{ExamplePath, renderExample},
	}
	contents := make([][]byte, len(files))
	for i, f := range files {
		data, err := f.render()
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", f.path, err)
		}
		contents[i] = append([]byte(header), data...)
	}

	result := &Result{
		Types:  existing(opts.TargetDir, "types.xml"),
		Params: existing(opts.TargetDir, "param.xml"),
	}
	for i, f := range files {
		out := filepath.Join(opts.TargetDir, f.path)
		_, statErr := os.Stat(out)
		exists := statErr == nil
		if exists && !opts.Force {
			result.Skipped = append(result.Skipped, f.path)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return nil, fmt.Errorf("creating directory for %s: %w", f.path, err)
		}
		if err := os.WriteFile(out, contents[i], 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", f.path, err)
		}
		if exists {
			result.Overwritten = append(result.Overwritten, f.path)
		} else {
			result.Created = append(result.Created, f.path)
		}
	}

	printSummary(opts.Stdout, result)
	return result, nil
}

func versionOrDev(v string) string {
	if v == "" {
		return "dev"
	}
	return v
}

// renderConfig marshals cfg after checking that Load would accept
// it back.
func renderConfig(cfg *config.Config) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	return append([]byte("# tstpatch project configuration. Flags given to tstpatch override these values.\n"), data...), nil
}

func renderExample() ([]byte, error) {
	if _, err := testcase.Decode(exampleCases, testcase.FormatYAML); err != nil {
		return nil, err
	}
	return exampleCases, nil
}

func existing(dir, name string) string {
	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		return ""
	}
	return name
}

func printSummary(w io.Writer, r *Result) {
	fmt.Fprintln(w, "tstpatch initialized:")
	for _, f := range r.Created {
		fmt.Fprintf(w, "  created: %s\n", f)
	}
	for _, f := range r.Skipped {
		fmt.Fprintf(w, "  skipped: %s (already exists)\n", f)
	}
	for _, f := range r.Overwritten {
		fmt.Fprintf(w, "  overwritten: %s\n", f)
	}
	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "%d file(s) skipped (use --force to overwrite).\n", len(r.Skipped))
	}
	fmt.Fprintln(w)

	if r.Types == "" || r.Params == "" {
		fmt.Fprintln(w, "Warning: types.xml and param.xml not both found in the project root.")
		fmt.Fprintln(w, "Export them from the test environment, then run:")
		fmt.Fprintf(w, "  tstpatch patch %s --types types.xml --params param.xml\n", ExamplePath)
		return
	}
	fmt.Fprintln(w, "Next:")
	fmt.Fprintf(w, "  tstpatch patch %s --types %s --params %s\n", ExamplePath, r.Types, r.Params)
}
