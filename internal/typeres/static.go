package typeres

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/unbound-force/tstpatch/internal/ident"
	"github.com/unbound-force/tstpatch/internal/patch"
)

// StaticIdentifier is one declared identifier in a static resolver
// file.
type StaticIdentifier struct {
	ID         string `yaml:"id"`
	ident.Meta `yaml:",inline"`
}

// Static is a resolver whose identifier lists are declared directly
// rather than derived from type dumps:
//
//	subprograms:
//	  process:
//	    - id: unit.process.buf
//	      kind: pointer
//	      param_of: process
//	    - id: unit.process.buf[0]
//	      param_of: process
type Static struct {
	Subprograms map[string][]StaticIdentifier `yaml:"subprograms"`
}

var _ patch.Resolver = (*Static)(nil)

// LoadStatic reads a static resolver from a YAML file.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading static resolver: %w", err)
	}
	var s Static
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing static resolver %s: %w", path, err)
	}
	return &s, nil
}

// Resolve returns the declared identifiers of subprogram.
func (s *Static) Resolve(subprogram string) (patch.FunctionType, bool) {
	decl, ok := s.Subprograms[subprogram]
	if !ok {
		return nil, false
	}
	ids := make([]ident.Identifier, len(decl))
	for i, d := range decl {
		ids[i] = ident.Parse(d.ID, d.Meta)
	}
	return staticFunc(ids), true
}

// Functions returns the declared subprogram names in sorted order.
func (s *Static) Functions() []string {
	names := make([]string, 0, len(s.Subprograms))
	for name := range s.Subprograms {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type staticFunc []ident.Identifier

// Identifiers returns the declared list; the top-level flag has no
// effect on declared identifiers.
func (f staticFunc) Identifiers(bool) []ident.Identifier {
	return slices.Clone([]ident.Identifier(f))
}
