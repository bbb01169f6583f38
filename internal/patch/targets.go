package patch

import (
	"fmt"
	"strings"

	"github.com/unbound-force/tstpatch/internal/ident"
	"github.com/unbound-force/tstpatch/internal/testcase"
)

type target struct {
	id     ident.Identifier
	reason Reason
}

// allocationTargets returns the pointers and unbounded arrays that
// tc never assigns but must allocate: parameters of the subprogram,
// globals it reads, and any identifier tc writes below. The three
// groups are concatenated in that order without de-duplication; the
// caller skips keys it has already inserted.
func allocationTargets(ids []ident.Identifier, tc testcase.TestCase) []target {
	assigned := tc.InputKeys()

	var uninit []ident.Identifier
	for _, id := range ids {
		if !assigned[id.String()] && id.Meta().Allocatable() {
			uninit = append(uninit, id)
		}
	}

	var params, globals, used []target
	for _, id := range uninit {
		if id.Meta().ParamOf == tc.Subprogram {
			params = append(params, target{id, ReasonParam})
		}
	}
	for _, id := range uninit {
		if id.Meta().GlobalOf == tc.Subprogram {
			globals = append(globals, target{id, ReasonGlobal})
		}
	}
	for _, id := range uninit {
		if writesBelow(id, tc.InputValues) {
			used = append(used, target{id, ReasonUsed})
		}
	}

	out := make([]target, 0, len(params)+len(globals)+len(used))
	out = append(out, params...)
	out = append(out, globals...)
	return append(out, used...)
}

func writesBelow(id ident.Identifier, inputs []testcase.ValueMapping) bool {
	for _, v := range inputs {
		if id.StrictPrefixOf(v.Identifier) {
			return true
		}
	}
	return false
}

// allocationSize is one more than the largest index written directly
// under key, or 1 when there is none. Only the first bracket after
// key counts; deeper dimensions belong to descendant identifiers.
func allocationSize(key string, inputs []testcase.ValueMapping) int {
	size := 1
	for _, v := range inputs {
		rest, ok := strings.CutPrefix(v.Identifier, key)
		if !ok || rest == "" || rest[0] != '[' {
			continue
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			continue
		}
		idx, ok := testcase.ParseIndex(rest[1:end])
		if !ok {
			continue
		}
		size = max(size, idx+1)
	}
	return size
}

// enclosingTargets returns the pointers and unbounded arrays whose
// key strictly prefixes an inserted key.
func enclosingTargets(ids []ident.Identifier, inserted []Insertion) []target {
	var out []target
	for _, id := range ids {
		if !id.Meta().Allocatable() {
			continue
		}
		for _, ins := range inserted {
			if id.StrictPrefixOf(ins.Mapping.Identifier) {
				out = append(out, target{id, ReasonUsed})
				break
			}
		}
	}
	return out
}

type constructorGroup struct {
	class string
	ids   []ident.Identifier
}

// constructorGroups partitions constructor identifiers by class,
// ordered by each class's first appearance.
func constructorGroups(ids []ident.Identifier) ([]constructorGroup, error) {
	var groups []constructorGroup
	index := make(map[string]int)
	for _, id := range ids {
		m := id.Meta()
		if m.Kind != ident.Constructor {
			continue
		}
		if m.ClassName == "" {
			return nil, fmt.Errorf("%w: constructor %q has no class name", ErrInvariant, id.String())
		}
		i, ok := index[m.ClassName]
		if !ok {
			i = len(groups)
			index[m.ClassName] = i
			groups = append(groups, constructorGroup{class: m.ClassName})
		}
		groups[i].ids = append(groups[i].ids, id)
	}
	return groups, nil
}

// firstIndexOfPrefix returns the index of the first assignment whose
// key starts with id, or 0 when none does.
func firstIndexOfPrefix(inputs []testcase.ValueMapping, id ident.Identifier) int {
	for i, v := range inputs {
		if id.PrefixOf(v.Identifier) {
			return i
		}
	}
	return 0
}
