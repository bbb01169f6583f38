// Package ident models qualified test identifiers such as
// "unit.func.arg[3].field": their segments, the metadata the type
// resolver attaches to them, and the stable string form used to match
// them against assignment keys.
package ident

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Kind is the structural variant of an identifier.
type Kind int

// Identifier kinds.
const (
	Scalar Kind = iota
	Pointer
	UnconstrainedArray
	Constructor
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case Pointer:
		return "pointer"
	case UnconstrainedArray:
		return "unconstrained_array"
	case Constructor:
		return "constructor"
	default:
		return "scalar"
	}
}

// MarshalText encodes the kind as its name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name. The empty string is Scalar.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "", "scalar":
		*k = Scalar
	case "pointer":
		*k = Pointer
	case "unconstrained_array":
		*k = UnconstrainedArray
	case "constructor":
		*k = Constructor
	default:
		return fmt.Errorf("unknown identifier kind %q", string(b))
	}
	return nil
}

// Metadata key names. They match the keys written by the vendor
// identifier exports and are accepted by Meta.Name.
const (
	KeyPointerType            = "pointer_type"
	KeyUnconstrainedArrayType = "unconstrained_array_type"
	KeyConstructorType        = "constructor_type"
	KeyParamFor               = "param_for"
	KeyGlobalIn               = "global_in"
	KeyCallsiteFunctionType   = "callsite_function_type"
)

// Meta is the read-only metadata carried by a raw identifier.
//
// Kind replaces the presence tests on pointer_type,
// unconstrained_array_type and constructor_type. ParamOf and GlobalOf
// are orthogonal scope tags naming the subprogram the identifier
// belongs to; empty means unset.
type Meta struct {
	Kind Kind `json:"kind" yaml:"kind"`

	// ClassName is the class a Constructor identifier builds.
	ClassName string `json:"class_name,omitempty" yaml:"class_name,omitempty"`

	// TypeName is the declared name of the pointer, array or class
	// type the identifier was expanded from.
	TypeName string `json:"type_name,omitempty" yaml:"type_name,omitempty"`

	ParamOf  string `json:"param_of,omitempty" yaml:"param_of,omitempty"`
	GlobalOf string `json:"global_of,omitempty" yaml:"global_of,omitempty"`

	// SearchTerm is the source-level name used to locate the
	// identifier in code (field, parameter or function name).
	SearchTerm string `json:"search_term,omitempty" yaml:"search_term,omitempty"`

	// Function is the subprogram whose expansion produced the
	// identifier; Callsite is the caller when it was reached through
	// a called function.
	Function string `json:"function,omitempty" yaml:"function,omitempty"`
	Callsite string `json:"callsite,omitempty" yaml:"callsite,omitempty"`
}

// Name returns the value stored under key. For the kind keys the
// value is the type name (class name for constructor_type).
func (m Meta) Name(key string) (string, bool) {
	switch key {
	case KeyPointerType:
		return m.TypeName, m.Kind == Pointer
	case KeyUnconstrainedArrayType:
		return m.TypeName, m.Kind == UnconstrainedArray
	case KeyConstructorType:
		return m.ClassName, m.Kind == Constructor
	case KeyParamFor:
		return m.ParamOf, m.ParamOf != ""
	case KeyGlobalIn:
		return m.GlobalOf, m.GlobalOf != ""
	case KeyCallsiteFunctionType:
		return m.Callsite, m.Callsite != ""
	}
	return "", false
}

// Allocatable reports whether the identifier must be allocated before
// anything below it can be assigned.
func (m Meta) Allocatable() bool {
	return m.Kind == Pointer || m.Kind == UnconstrainedArray
}

// merge overlays the set fields of o onto m.
func (m Meta) merge(o Meta) Meta {
	if o.Kind != Scalar {
		m.Kind = o.Kind
		m.ClassName = o.ClassName
		m.TypeName = o.TypeName
	}
	overlay(&m.ParamOf, o.ParamOf)
	overlay(&m.GlobalOf, o.GlobalOf)
	overlay(&m.SearchTerm, o.SearchTerm)
	overlay(&m.Function, o.Function)
	overlay(&m.Callsite, o.Callsite)
	return m
}

func overlay(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// Identifier is an immutable qualified path with metadata. Its string
// form is computed once at construction.
type Identifier struct {
	segments []string
	meta     Meta
	str      string
}

// New builds an identifier from segments.
func New(meta Meta, segments ...string) Identifier {
	segs := slices.Clone(segments)
	return Identifier{segments: segs, meta: meta, str: stringify(segs)}
}

// Parse splits a string form back into segments: "p[0].x" becomes
// ["p", "[0]", "x"]. Dots inside parentheses or angle brackets do not
// separate segments.
func Parse(s string, meta Meta) Identifier {
	var segs []string
	depth, start := 0, 0
	flush := func(end int) {
		if end > start {
			segs = append(segs, s[start:end])
		}
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '(' || c == '<':
			depth++
		case (c == ')' || c == '>') && depth > 0:
			depth--
		case c == '.' && depth == 0:
			flush(i)
			start = i + 1
		case c == '[' && depth == 0:
			flush(i)
			start = i
		}
	}
	flush(len(s))
	return New(meta, segs...)
}

// stringify joins segments with dots and folds index segments onto
// their parent: ["p", "[0]", "x"] becomes "p[0].x".
func stringify(segments []string) string {
	return strings.ReplaceAll(strings.Join(segments, "."), ".[", "[")
}

// String returns the stable assignment-key form of the identifier.
func (id Identifier) String() string { return id.str }

// Meta returns the identifier's metadata.
func (id Identifier) Meta() Meta { return id.meta }

// Append returns a new identifier with segs added at the end.
func (id Identifier) Append(segs ...string) Identifier {
	return New(id.meta, append(slices.Clone(id.segments), segs...)...)
}

// Prepend returns a new identifier with seg added at the front.
func (id Identifier) Prepend(seg string) Identifier {
	return New(id.meta, append([]string{seg}, id.segments...)...)
}

// Join appends other's segments and overlays its metadata.
func (id Identifier) Join(other Identifier) Identifier {
	out := id.Append(other.segments...)
	out.meta = id.meta.merge(other.meta)
	return out
}

// WithMeta returns a copy whose metadata has been passed through fn.
func (id Identifier) WithMeta(fn func(m *Meta)) Identifier {
	out := id
	fn(&out.meta)
	return out
}

// Equal reports structural equality of path and metadata.
func (id Identifier) Equal(other Identifier) bool {
	return slices.Equal(id.segments, other.segments) && id.meta == other.meta
}

// PrefixOf reports whether key starts with the identifier's string
// form. Equality counts as a prefix.
func (id Identifier) PrefixOf(key string) bool {
	return strings.HasPrefix(key, id.str)
}

// StrictPrefixOf reports whether key extends the identifier's string
// form with a non-empty suffix.
func (id Identifier) StrictPrefixOf(key string) bool {
	return len(key) > len(id.str) && strings.HasPrefix(key, id.str)
}

// MarshalJSON encodes the identifier as its string form with its
// metadata.
func (id Identifier) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID   string `json:"id"`
		Meta Meta   `json:"meta"`
	}{id.str, id.meta})
}

// Dedupe drops identifiers whose string form was already seen,
// keeping the first occurrence.
func Dedupe(ids []Identifier) []Identifier {
	seen := make(map[string]bool, len(ids))
	out := make([]Identifier, 0, len(ids))
	for _, id := range ids {
		if seen[id.str] {
			continue
		}
		seen[id.str] = true
		out = append(out, id)
	}
	return out
}
