package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/unbound-force/tstpatch/internal/config"
	"github.com/unbound-force/tstpatch/internal/ident"
	"github.com/unbound-force/tstpatch/internal/patch"
	"github.com/unbound-force/tstpatch/internal/report"
	"github.com/unbound-force/tstpatch/internal/scaffold"
	"github.com/unbound-force/tstpatch/internal/testcase"
	"github.com/unbound-force/tstpatch/internal/typeres"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose, quiet bool

	root := &cobra.Command{
		Use:   "tstpatch",
		Short: "tstpatch - complete generated unit tests before they run",
		Long: `tstpatch inserts the allocations and constructor selections that
generated test cases leave out, using the type information the test
framework exports for the unit under test.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setLogLevel(verbose, quiet)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"log debug output")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"log errors only")

	root.AddCommand(newPatchCmd())
	root.AddCommand(newIdentifiersCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newInitCmd())
	return root
}

func setLogLevel(verbose, quiet bool) {
	switch {
	case quiet:
		logger.SetLevel(charmlog.ErrorLevel)
	case verbose:
		logger.SetLevel(charmlog.DebugLevel)
	default:
		logger.SetLevel(charmlog.InfoLevel)
	}
}

// loadConfig reads the configuration at path, or .tstpatch.yaml in
// the working directory when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadDir(".")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	return config.Load(path)
}

// catalog is a resolver that can list its subprograms.
type catalog interface {
	patch.Resolver
	Functions() []string
}

// resolverFlags selects the type source shared by patch and
// identifiers.
type resolverFlags struct {
	typesPath  string
	paramsPath string
	staticPath string
}

func (f resolverFlags) load(maxIndex int) (catalog, error) {
	switch {
	case f.staticPath != "":
		s, err := typeres.LoadStatic(f.staticPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case f.typesPath != "" && f.paramsPath != "":
		r, err := typeres.Load(f.typesPath, f.paramsPath, typeres.Limits{MaxIndex: maxIndex})
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, errors.New("type information required: pass --types and --params, or --static")
	}
}

func (f *resolverFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.typesPath, "types", "",
		"path to the types dump (types.xml)")
	cmd.Flags().StringVar(&f.paramsPath, "params", "",
		"path to the parameter dump (param.xml)")
	cmd.Flags().StringVar(&f.staticPath, "static", "",
		"path to a YAML file declaring identifiers directly")
}

// patchParams holds the parsed flags for the patch command.
type patchParams struct {
	inputPath   string
	resolver    resolverFlags
	configPath  string
	format      string
	output      string
	workers     int
	maxIndex    int
	interactive bool
	ctx         context.Context
	stdout      io.Writer
}

// runPatch is the extracted, testable body of the patch command.
func runPatch(p patchParams) error {
	cfg, err := loadConfig(p.configPath)
	if err != nil {
		return err
	}
	if p.format != "" {
		cfg.Format = p.format
	}
	if p.workers > 0 {
		cfg.Workers = p.workers
	}
	if p.maxIndex > 0 {
		cfg.MaxIdentifierIndex = p.maxIndex
	}
	switch cfg.Format {
	case config.FormatText, config.FormatJSON, config.FormatTST, config.FormatCases:
	default:
		return fmt.Errorf("invalid format %q: must be 'text', 'json', 'tst', or 'cases'", cfg.Format)
	}

	res, err := p.resolver.load(cfg.MaxIdentifierIndex)
	if err != nil {
		return err
	}

	cases, err := testcase.LoadFile(p.inputPath)
	if err != nil {
		return err
	}
	logger.Info("patching test cases", "file", p.inputPath, "cases", len(cases))

	patcher := patch.New(res, patch.Options{
		Logger:  logger,
		Workers: cfg.Workers,
		Filter:  cfg.Filter,
	})
	ctx := p.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := patcher.ExplainMany(ctx, cases)
	if err != nil {
		return err
	}

	sum := report.Summarize(results)
	logger.Info("patch complete",
		"changed", sum.Changed, "insertions", sum.Insertions,
		"unresolved", sum.Unresolved, "skipped", sum.Skipped)

	if p.interactive {
		return runInteractivePatch(results)
	}

	if p.output == "" {
		return writePatchOutput(p.stdout, cfg, results)
	}
	f, err := os.Create(p.output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := writePatchOutput(f, cfg, results); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	logger.Info("wrote output", "path", p.output, "format", cfg.Format)
	return nil
}

// writePatchOutput writes results in the configured format.
func writePatchOutput(w io.Writer, cfg *config.Config, results []patch.Result) error {
	switch cfg.Format {
	case config.FormatJSON:
		return report.WriteJSON(w, results, version)
	case config.FormatTST:
		return testcase.WriteScript(w, patchedCases(results), testcase.ScriptOptions{
			Environment: cfg.Script.Environment,
			AddUUID:     cfg.Script.AddUUID,
		})
	case config.FormatCases:
		return testcase.WriteJSON(w, patchedCases(results))
	default:
		return report.WriteText(w, results)
	}
}

func patchedCases(results []patch.Result) []testcase.TestCase {
	out := make([]testcase.TestCase, len(results))
	for i, r := range results {
		out[i] = r.Patched
	}
	return out
}

func newPatchCmd() *cobra.Command {
	var p patchParams

	cmd := &cobra.Command{
		Use:   "patch [file]",
		Short: "Insert missing allocations and constructor calls",
		Long: `Load generated test cases (JSON or YAML), insert the pointer and
array allocations and constructor selections they need, and write the
result as a report, as patched test cases or as a test script.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.inputPath = args[0]
			p.ctx = cmd.Context()
			p.stdout = cmd.OutOrStdout()
			return runPatch(p)
		},
	}

	p.resolver.register(cmd)
	cmd.Flags().StringVar(&p.configPath, "config", "",
		"path to the configuration file (default: ./.tstpatch.yaml)")
	cmd.Flags().StringVar(&p.format, "format", "",
		"output format: text, json, tst, or cases (default from config)")
	cmd.Flags().StringVarP(&p.output, "output", "o", "",
		"write output to a file instead of stdout")
	cmd.Flags().IntVar(&p.workers, "workers", 0,
		"test cases patched concurrently (default from config)")
	cmd.Flags().IntVar(&p.maxIndex, "max-index", 0,
		"elements expanded per pointer or unbounded array (default from config)")
	cmd.Flags().BoolVarP(&p.interactive, "interactive", "i", false,
		"launch interactive TUI for browsing results")

	return cmd
}

// identifiersParams holds the parsed flags for the identifiers
// command.
type identifiersParams struct {
	subprogram string
	under      string
	resolver   resolverFlags
	configPath string
	format     string
	maxIndex   int
	stdout     io.Writer
}

// runIdentifiers is the extracted, testable body of the identifiers
// command. Without a subprogram it lists the known subprograms.
func runIdentifiers(p identifiersParams) error {
	if p.format != config.FormatText && p.format != config.FormatJSON {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", p.format)
	}

	cfg, err := loadConfig(p.configPath)
	if err != nil {
		return err
	}
	if p.maxIndex > 0 {
		cfg.MaxIdentifierIndex = p.maxIndex
	}

	res, err := p.resolver.load(cfg.MaxIdentifierIndex)
	if err != nil {
		return err
	}

	if p.subprogram == "" {
		for _, name := range res.Functions() {
			fmt.Fprintln(p.stdout, name)
		}
		return nil
	}

	ids, err := flatten(res, p.subprogram)
	if err != nil {
		return err
	}
	if p.under != "" {
		if ids, err = subtree(ids, p.under); err != nil {
			return fmt.Errorf("%s: %w", p.subprogram, err)
		}
	}
	logger.Debug("flattened subprogram", "subprogram", p.subprogram, "identifiers", len(ids))

	if p.format == config.FormatJSON {
		return report.WriteIdentifiersJSON(p.stdout, p.subprogram, ids)
	}
	return report.WriteIdentifiersText(p.stdout, p.subprogram, ids)
}

// typeCatalog is implemented by resolvers that can also flatten
// declared types.
type typeCatalog interface {
	TypeIdentifiers(name string) ([]ident.Identifier, error)
}

// flatten returns the identifiers of a subprogram, or of a declared
// type when the resolver knows types and no subprogram matches.
func flatten(res catalog, name string) ([]ident.Identifier, error) {
	if ft, ok := res.Resolve(name); ok {
		return ft.Identifiers(true), nil
	}
	tc, ok := res.(typeCatalog)
	if !ok {
		return nil, fmt.Errorf("subprogram %q not found", name)
	}
	ids, err := tc.TypeIdentifiers(name)
	if err != nil {
		return nil, fmt.Errorf("subprogram %q not found: %w", name, err)
	}
	return ids, nil
}

// subtree returns the identifier named root, if present, followed by
// the identifiers below it. When nothing matches, the error names the
// closest listed ancestor.
func subtree(ids []ident.Identifier, root string) ([]ident.Identifier, error) {
	tree := ident.NewTree(ids)
	at := ident.Parse(root, ident.Meta{})
	var out []ident.Identifier
	if id, ok := tree.Get(at); ok {
		out = append(out, id)
	}
	out = append(out, tree.Descendants(at)...)
	if len(out) > 0 {
		return out, nil
	}
	if anc := tree.Ancestors(at); len(anc) > 0 {
		return nil, fmt.Errorf("no identifier %q (closest is %q)", root, anc[len(anc)-1].String())
	}
	return nil, fmt.Errorf("no identifier %q", root)
}

func newIdentifiersCmd() *cobra.Command {
	var p identifiersParams

	cmd := &cobra.Command{
		Use:   "identifiers [subprogram]",
		Short: "List the identifiers a subprogram's tests can assign",
		Long: `Flatten a subprogram's parameters, return value, globals and called
functions into the identifiers the patcher works with, with their kind
and scope. With --types and --params, a name that is not a subprogram
is looked up as a type name or type id. Without an argument, list the
known subprograms.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				p.subprogram = args[0]
			}
			p.stdout = cmd.OutOrStdout()
			return runIdentifiers(p)
		},
	}

	p.resolver.register(cmd)
	cmd.Flags().StringVar(&p.configPath, "config", "",
		"path to the configuration file (default: ./.tstpatch.yaml)")
	cmd.Flags().StringVar(&p.format, "format", config.FormatText,
		"output format: text or json")
	cmd.Flags().StringVar(&p.under, "under", "",
		"list only this identifier and the ones below it")
	cmd.Flags().IntVar(&p.maxIndex, "max-index", 0,
		"elements expanded per pointer or unbounded array (default from config)")

	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [report|input]",
		Short: "Print the JSON Schema for tstpatch input or output",
		Long: `Print the JSON Schema (Draft 2020-12) that documents either the
structure of tstpatch patch --format=json output (report, the default)
or the test-case files tstpatch patch accepts (input).`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"report", "input"},
		RunE: func(cmd *cobra.Command, args []string) error {
			which := "report"
			if len(args) == 1 {
				which = args[0]
			}
			var schema string
			switch which {
			case "report":
				schema = report.Schema
			case "input":
				schema = testcase.Schema
			default:
				return fmt.Errorf("unknown schema %q: must be 'report' or 'input'", which)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), schema)
			return err
		},
	}
}

func newInitCmd() *cobra.Command {
	var (
		force       bool
		format      string
		environment string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .tstpatch.yaml and example input",
		Long: `Write a .tstpatch.yaml configuration, rendered from the defaults
and the flags below, and an example test-case file into the current
directory. Existing files are kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			cfg.Format = format
			cfg.Script.Environment = environment
			_, err := scaffold.Run(scaffold.Options{
				Config:  cfg,
				Force:   force,
				Version: version,
				Stdout:  cmd.OutOrStdout(),
			})
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"overwrite existing files")
	cmd.Flags().StringVar(&format, "format", config.FormatText,
		"default output format written to the configuration")
	cmd.Flags().StringVar(&environment, "environment", "",
		"test environment name written to the configuration")

	return cmd
}
