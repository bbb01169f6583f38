package typeres

import (
	"errors"
	"fmt"
	"slices"

	"github.com/unbound-force/tstpatch/internal/ident"
	"github.com/unbound-force/tstpatch/internal/patch"
)

// ErrUnknownType is returned by Lookup for names that are neither a
// function nor a type.
var ErrUnknownType = errors.New("unknown type")

// Resolver answers type queries for one test environment. It is
// immutable after Load and safe for concurrent use.
type Resolver struct {
	types     map[string]Type
	typeOrder []string
	functions map[string]*Function
	limits    Limits
}

var _ patch.Resolver = (*Resolver)(nil)

// Resolve returns the function called name.
func (r *Resolver) Resolve(name string) (patch.FunctionType, bool) {
	f, ok := r.Function(name)
	if !ok {
		return nil, false
	}
	return f, true
}

// Function returns the function called name.
func (r *Resolver) Function(name string) (*Function, bool) {
	f, ok := r.functions[name]
	return f, ok
}

// TypeByID returns the type with the given type id.
func (r *Resolver) TypeByID(id string) (Type, bool) {
	t, ok := r.types[id]
	return t, ok
}

// TypeByName returns the first type, in declaration order, whose name
// is name.
func (r *Resolver) TypeByName(name string) (Type, bool) {
	for _, id := range r.typeOrder {
		if t := r.types[id]; t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Lookup resolves name as a function, then a type name, then a type
// id.
func (r *Resolver) Lookup(name string) (Type, error) {
	if f, ok := r.functions[name]; ok {
		return f, nil
	}
	if t, ok := r.TypeByName(name); ok {
		return t, nil
	}
	if t, ok := r.TypeByID(name); ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// TypeIdentifiers flattens whatever Lookup finds for name. Functions
// flatten as the subprogram under test; other types are listed under
// their own name.
func (r *Resolver) TypeIdentifiers(name string) ([]ident.Identifier, error) {
	t, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	if f, ok := t.(*Function); ok {
		return f.Identifiers(true), nil
	}
	base := ident.New(ident.Meta{}, t.Name())
	var out []ident.Identifier
	for _, id := range expand(t, stack{}, expandOpts{limits: r.limits}) {
		out = append(out, base.Join(id))
	}
	return ident.Dedupe(out), nil
}

// Functions returns the names of all known functions in sorted
// order.
func (r *Resolver) Functions() []string {
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
