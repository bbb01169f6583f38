// Package typeres resolves subprograms to the typed identifier trees
// that test cases assign into.
//
// Types are read from the test framework's types and parameter dumps
// (see Load) and flattened on demand into ordered identifier lists.
// Each identifier carries the metadata the patcher inspects: whether
// it is a pointer, an unbounded array or a constructor slot, and
// which subprogram it is a parameter of or a global read by.
package typeres

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/unbound-force/tstpatch/internal/ident"
)

// Type is a node in the type graph.
type Type interface {
	// Name is the declared type name.
	Name() string

	identifiers(st stack, o expandOpts) []ident.Identifier
}

// Member is a named field, parameter or global.
type Member struct {
	Name string
	Type Type
}

// setMember replaces the member called name or appends a new one,
// keeping declaration order.
func setMember(ms []Member, name string, t Type) []Member {
	for i := range ms {
		if ms[i].Name == name {
			ms[i].Type = t
			return ms
		}
	}
	return append(ms, Member{Name: name, Type: t})
}

// Basic is a scalar such as int, float or char.
type Basic struct{ TypeName string }

func (t *Basic) Name() string { return t.TypeName }

func (t *Basic) identifiers(stack, expandOpts) []ident.Identifier {
	return []ident.Identifier{ident.New(ident.Meta{})}
}

// Enum is an enumeration; it flattens like a scalar.
type Enum struct {
	TypeName string
	Values   []string
}

func (t *Enum) Name() string { return t.TypeName }

func (t *Enum) identifiers(stack, expandOpts) []ident.Identifier {
	return []ident.Identifier{ident.New(ident.Meta{})}
}

// String is a character string assigned as a whole.
type String struct {
	TypeName string
	Size     int
}

func (t *String) Name() string { return t.TypeName }

func (t *String) identifiers(stack, expandOpts) []ident.Identifier {
	return []ident.Identifier{ident.New(ident.Meta{})}
}

// NotSupported is a type the framework cannot assign; it produces no
// identifiers. Unresolved type references also become NotSupported.
type NotSupported struct{ TypeName string }

func (t *NotSupported) Name() string { return t.TypeName }

func (t *NotSupported) identifiers(stack, expandOpts) []ident.Identifier { return nil }

// Pointer points at Pointee.
type Pointer struct {
	TypeName string
	Pointee  Type
}

func (t *Pointer) Name() string { return t.TypeName }

// identifiers yields the pointer itself followed by the pointee's
// identifiers under [0], [1], ... Pointers below this one expand only
// index 0. A pointer to nothing assignable yields nothing.
func (t *Pointer) identifiers(st stack, o expandOpts) []ident.Identifier {
	inner := o
	inner.maxPointerIndex = 1
	pointed := expand(orUnsupported(t.Pointee), st, inner)
	if len(pointed) == 0 {
		return nil
	}

	n := o.maxPointerIndex
	if n == 0 {
		n = o.limits.maxIndex()
	}
	out := []ident.Identifier{ident.New(ident.Meta{Kind: ident.Pointer, TypeName: t.TypeName})}
	for idx := 0; idx < n; idx++ {
		for _, id := range pointed {
			out = append(out, id.Prepend(indexSegment(idx)))
		}
	}
	return out
}

// Array holds Size elements of Element. Size 0 means the bound is
// not fixed and must be allocated.
type Array struct {
	TypeName string
	Element  Type
	Size     int
}

func (t *Array) Name() string { return t.TypeName }

func (t *Array) identifiers(st stack, o expandOpts) []ident.Identifier {
	var out []ident.Identifier
	if t.Size == 0 {
		out = append(out, ident.New(ident.Meta{Kind: ident.UnconstrainedArray, TypeName: t.TypeName}))
	}

	bound := t.Size
	if bound == 0 {
		bound = o.limits.maxIndex()
	}
	limit := o.maxArrayIndex
	if limit == 0 {
		limit = o.limits.maxIndex()
	}
	n := min(limit, bound)

	inner := o
	inner.maxArrayIndex = 1
	elems := expand(orUnsupported(t.Element), st, inner)
	for idx := 0; idx < n; idx++ {
		for _, id := range elems {
			out = append(out, id.Prepend(indexSegment(idx)))
		}
	}
	return out
}

// Struct is a record or union.
type Struct struct {
	TypeName string
	Fields   []Member
}

func (t *Struct) Name() string { return t.TypeName }

func (t *Struct) identifiers(st stack, o expandOpts) []ident.Identifier {
	var out []ident.Identifier
	for _, f := range t.Fields {
		for _, id := range expand(f.Type, st, o) {
			out = append(out, withSearchTerm(id.Prepend(f.Name), f.Name))
		}
	}
	return out
}

// Constructor is one constructor overload of a class.
type Constructor struct {
	// Name is the unqualified constructor name including its
	// parameterization, e.g. "Point(int,int)".
	Name  string
	Index string
}

// Class is a C++ class with fields and constructors.
type Class struct {
	TypeName     string
	Fields       []Member
	Constructors []Constructor
}

func (t *Class) Name() string { return t.TypeName }

// identifiers yields, unless an enclosing object already constructs
// this one, the instance itself and one constructor slot per
// overload, followed by the class fields.
func (t *Class) identifiers(st stack, o expandOpts) []ident.Identifier {
	var out []ident.Identifier
	if !o.parentConstructed {
		out = append(out, ident.New(ident.Meta{}))
		for _, c := range t.Constructors {
			out = append(out, ident.New(
				ident.Meta{Kind: ident.Constructor, ClassName: t.TypeName, TypeName: t.TypeName},
				t.TypeName, "<<constructor>>", c.Name, "<<call>>",
			))
		}
	}

	inner := o
	inner.parentConstructed = true
	for _, f := range t.Fields {
		base := ident.New(ident.Meta{}, t.TypeName, f.Name)
		for _, id := range expand(f.Type, st, inner) {
			out = append(out, withSearchTerm(base.Join(id), f.Name))
		}
	}
	return out
}

func orUnsupported(t Type) Type {
	if t == nil {
		return &NotSupported{TypeName: "unknown"}
	}
	return t
}

func indexSegment(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

func withSearchTerm(id ident.Identifier, term string) ident.Identifier {
	return id.WithMeta(func(m *ident.Meta) {
		if m.SearchTerm == "" {
			m.SearchTerm = term
		}
	})
}

var templateRe = regexp.MustCompile(`<[^<>]*?>`)

// SanitizeName strips template arguments and the overload signature
// from a subprogram name: "ns::Foo<int>::bar(int)" becomes
// "ns::Foo::bar".
func SanitizeName(name string) string {
	for {
		next := templateRe.ReplaceAllString(name, "")
		if next == name {
			break
		}
		name = next
	}
	name, _, _ = strings.Cut(name, "(")
	return strings.TrimSpace(name)
}
