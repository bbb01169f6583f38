package typeres

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/unbound-force/tstpatch/internal/ident"
)

// Function is a subprogram together with everything a test can
// assign for it: parameters, return value, globals it reads, the
// instance of its class for member functions, and, transitively, the
// functions it calls.
type Function struct {
	FuncName    string
	Unit        string
	Params      []Member
	Return      Type
	Globals     []Member
	Calls       []*Function
	OriginClass *Class

	limits Limits

	mu    sync.Mutex
	cache map[bool][]ident.Identifier
}

// Name returns the subprogram name as the test framework spells it.
func (f *Function) Name() string { return f.FuncName }

// SanitizedName is the bare function name without scope, template
// arguments or overload signature.
func (f *Function) SanitizedName() string {
	name := SanitizeName(f.FuncName)
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	return name
}

// Identifiers flattens the function into its identifiers, first
// occurrence winning for identifiers with the same string form.
// topLevel marks the function under test: its return value is then
// treated as already constructed. Results are memoised.
func (f *Function) Identifiers(topLevel bool) []ident.Identifier {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ids, ok := f.cache[topLevel]; ok {
		return slices.Clone(ids)
	}
	ids := ident.Dedupe(expand(f, stack{}, expandOpts{limits: f.limits, topLevel: topLevel}))
	if f.cache == nil {
		f.cache = make(map[bool][]ident.Identifier)
	}
	f.cache[topLevel] = ids
	return slices.Clone(ids)
}

func (f *Function) identifiers(st stack, o expandOpts) []ident.Identifier {
	if o.constructedFuncs[f.FuncName] {
		return nil
	}

	paramPrefix := ident.New(ident.Meta{}, f.Unit, f.FuncName)
	globalPrefix := ident.New(ident.Meta{}, f.Unit, "<<GLOBAL>>")

	inner := o
	inner.topLevel = false
	inner.parentConstructed = false
	inner.constructedFuncs = nil

	var out []ident.Identifier

	if f.OriginClass != nil {
		base := globalPrefix.Append("(cl)", f.OriginClass.TypeName)
		for _, id := range expand(f.OriginClass, st, inner) {
			out = append(out, base.Join(id))
		}
	}

	for _, g := range f.Globals {
		base := globalPrefix.Append(g.Name)
		if _, isClass := g.Type.(*Class); isClass {
			base = globalPrefix.Append("(cl)", g.Name)
		}
		for _, id := range expand(g.Type, st, inner) {
			id = base.Join(id).WithMeta(func(m *ident.Meta) { m.GlobalOf = f.FuncName })
			out = append(out, withSearchTerm(id, g.Name))
		}
	}

	for _, p := range f.Params {
		base := paramPrefix.Append(p.Name)
		for _, id := range expand(p.Type, st, inner) {
			id = base.Join(id).WithMeta(func(m *ident.Meta) { m.ParamOf = f.FuncName })
			out = append(out, withSearchTerm(id, p.Name))
		}
	}

	if f.Return != nil {
		ret := inner
		ret.parentConstructed = o.topLevel || o.parentConstructed
		base := paramPrefix.Append("return")
		for _, id := range expand(f.Return, st, ret) {
			out = append(out, withSearchTerm(base.Join(id), f.SanitizedName()))
		}
	}

	called := inner
	called.constructedFuncs = maps.Clone(o.constructedFuncs)
	if called.constructedFuncs == nil {
		called.constructedFuncs = make(map[string]bool)
	}
	called.constructedFuncs[f.FuncName] = true
	for _, c := range f.Calls {
		for _, id := range expand(c, st, called) {
			out = append(out, id.WithMeta(func(m *ident.Meta) {
				if m.Callsite == "" {
					m.Callsite = f.FuncName
				}
			}))
		}
	}

	for i, id := range out {
		out[i] = withSearchTerm(id, f.SanitizedName()).WithMeta(func(m *ident.Meta) {
			if m.Function == "" {
				m.Function = f.FuncName
			}
		})
	}
	return out
}
