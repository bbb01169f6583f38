// Package patch repairs generated test cases so the test framework
// can execute them.
//
// A generated test assigns values to identifiers such as "p[2]" or
// "obj.field" but routinely forgets the assignments the framework
// needs first: an allocation for every pointer or unbounded array it
// indexes into, and a constructor selection for every class instance
// it populates. Patch inserts exactly those missing assignments,
// each immediately before the first existing assignment that writes
// into what it creates.
//
// Patching is a pure function of the test case and the resolver's
// view of the subprogram: inputs are never mutated and a patched
// case patches to itself.
package patch

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/unbound-force/tstpatch/internal/ident"
	"github.com/unbound-force/tstpatch/internal/testcase"
)

// ErrInvariant reports resolver metadata that breaks the identifier
// contract, such as a constructor identifier without a class name.
var ErrInvariant = errors.New("identifier metadata invariant violated")

// FunctionType is the resolver's view of one subprogram.
type FunctionType interface {
	// Identifiers returns the raw identifiers relevant to the
	// subprogram in a stable order.
	Identifiers(topLevel bool) []ident.Identifier
}

// Resolver maps subprogram names to their type view. Implementations
// must be safe for concurrent reads when PatchMany runs with more
// than one worker.
type Resolver interface {
	Resolve(subprogram string) (FunctionType, bool)
}

// Reason explains why an assignment was inserted.
type Reason string

// Insertion reasons.
const (
	ReasonParam       Reason = "param"
	ReasonGlobal      Reason = "global"
	ReasonUsed        Reason = "used"
	ReasonConstructor Reason = "constructor"
)

// Insertion records one assignment added by the patcher.
type Insertion struct {
	Mapping  testcase.ValueMapping `json:"mapping"`
	Position int                   `json:"position"`
	Reason   Reason                `json:"reason"`

	// Class is set for constructor insertions.
	Class string `json:"class,omitempty"`
}

// Result is a patched test case together with what changed.
type Result struct {
	Original testcase.TestCase `json:"original"`
	Patched  testcase.TestCase `json:"patched"`

	// Resolved is false when the resolver had no type for the
	// subprogram; Patched is then an unchanged copy.
	Resolved   bool        `json:"resolved"`
	Insertions []Insertion `json:"insertions"`

	// Skipped is set when Options.Filter excluded the subprogram.
	Skipped bool `json:"skipped,omitempty"`
}

// Changed reports whether any assignment was inserted.
func (r Result) Changed() bool { return len(r.Insertions) > 0 }

// Options configures a Patcher.
type Options struct {
	// Logger receives the missing-type warnings. Nil discards.
	Logger *log.Logger

	// Workers bounds PatchMany concurrency. Values below 1 mean 1.
	Workers int

	// Filter, when set, selects the subprograms to patch. Cases for
	// other subprograms are returned unchanged and marked Skipped.
	Filter func(subprogram string) bool
}

// Patcher completes test cases against a Resolver.
type Patcher struct {
	resolver Resolver
	logger   *log.Logger
	workers  int
	filter   func(string) bool
}

// New returns a Patcher backed by r.
func New(r Resolver, opts Options) *Patcher {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Patcher{resolver: r, logger: logger, workers: workers, filter: opts.Filter}
}

// Patch returns a copy of tc with the missing allocation and
// constructor assignments inserted.
func (p *Patcher) Patch(tc testcase.TestCase) (testcase.TestCase, error) {
	res, err := p.Explain(tc)
	if err != nil {
		return testcase.TestCase{}, err
	}
	return res.Patched, nil
}

// Explain patches tc and reports each insertion.
func (p *Patcher) Explain(tc testcase.TestCase) (Result, error) {
	res := Result{
		Original: tc.Clone(),
		Patched:  tc.Clone(),
	}

	if p.filter != nil && !p.filter(tc.Subprogram) {
		p.logger.Debug("subprogram excluded", "subprogram", tc.Subprogram)
		res.Skipped = true
		return res, nil
	}

	ft, ok := p.resolver.Resolve(tc.Subprogram)
	if !ok || ft == nil {
		p.logger.Warn("no type found for subprogram", "subprogram", tc.Subprogram)
		return res, nil
	}
	res.Resolved = true

	ids := ft.Identifiers(true)
	if len(ids) == 0 {
		return res, nil
	}

	w := &working{tc: res.Patched}
	for _, t := range allocationTargets(ids, tc) {
		w.allocate(&res, t, tc.InputValues)
	}

	groups, err := constructorGroups(ids)
	if err != nil {
		return Result{}, fmt.Errorf("patching %s: %w", tc.Subprogram, err)
	}
	for _, g := range groups {
		if slices.ContainsFunc(g.ids, func(id ident.Identifier) bool { return w.has(id.String()) }) {
			continue
		}
		m, pos := w.insert(g.ids[0], testcase.ConstructorSelector)
		res.Insertions = append(res.Insertions, Insertion{
			Mapping:  m,
			Position: pos,
			Reason:   ReasonConstructor,
			Class:    g.class,
		})
	}

	// Inserted keys can sit below pointers that are neither parameters
	// nor globals, e.g. a constructor slot behind a callee's pointer
	// parameter. Those pointers are written through as well.
	for _, t := range enclosingTargets(ids, res.Insertions) {
		w.allocate(&res, t, tc.InputValues)
	}

	res.Patched = w.tc
	return res, nil
}

// working is the test case being patched by one Explain call.
type working struct {
	tc testcase.TestCase
}

func (w *working) has(key string) bool {
	return w.tc.HasInput(key)
}

// insert places id = value before the first assignment whose key
// starts with id, or at the front when there is none, and returns the
// mapping and the position used.
func (w *working) insert(id ident.Identifier, value string) (testcase.ValueMapping, int) {
	m := testcase.ValueMapping{Identifier: id.String(), Value: value}
	pos := firstIndexOfPrefix(w.tc.InputValues, id)
	w.tc.InputValues = slices.Insert(w.tc.InputValues, pos, m)
	return m, pos
}

// allocate inserts an allocation for t unless its key is already
// assigned. The size comes from the original assignments.
func (w *working) allocate(res *Result, t target, original []testcase.ValueMapping) {
	key := t.id.String()
	if w.has(key) {
		return
	}
	m, pos := w.insert(t.id, testcase.MallocValue(allocationSize(key, original)))
	res.Insertions = append(res.Insertions, Insertion{Mapping: m, Position: pos, Reason: t.reason})
}
