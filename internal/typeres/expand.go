package typeres

import (
	"maps"

	"github.com/unbound-force/tstpatch/internal/ident"
)

// Default expansion limits.
const (
	DefaultMaxIndex   = 3
	DefaultDepthLimit = 32
)

// Limits bounds identifier expansion.
type Limits struct {
	// MaxIndex is how many elements of each pointer or unbounded
	// array are expanded.
	MaxIndex int

	// DepthLimit caps the number of nested types on one expansion
	// path.
	DepthLimit int
}

func (l Limits) maxIndex() int {
	if l.MaxIndex > 0 {
		return l.MaxIndex
	}
	return DefaultMaxIndex
}

func (l Limits) depthLimit() int {
	if l.DepthLimit > 0 {
		return l.DepthLimit
	}
	return DefaultDepthLimit
}

// expandOpts is the state threaded down one expansion path. Zero
// index limits mean "use Limits.MaxIndex".
type expandOpts struct {
	limits            Limits
	maxPointerIndex   int
	maxArrayIndex     int
	parentConstructed bool
	topLevel          bool
	constructedFuncs  map[string]bool
}

// stack counts the type names on the current expansion path.
type stack struct {
	counts map[string]int
	total  int
}

// push returns the stack with name added, or false when name is
// already on the path or the path is too deep.
func (s stack) push(name string, limit int) (stack, bool) {
	if s.counts[name] >= 1 {
		return s, false
	}
	next := stack{counts: maps.Clone(s.counts), total: s.total + 1}
	if next.counts == nil {
		next.counts = make(map[string]int)
	}
	next.counts[name]++
	if next.total >= limit {
		return s, false
	}
	return next, true
}

// expand flattens t one level deeper on the path.
func expand(t Type, st stack, o expandOpts) []ident.Identifier {
	next, ok := st.push(t.Name(), o.limits.depthLimit())
	if !ok {
		return nil
	}
	return t.identifiers(next, o)
}
