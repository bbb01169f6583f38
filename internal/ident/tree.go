package ident

// Tree indexes identifiers by segment path so that the identifiers
// above or below a given path can be found without scanning.
type Tree struct {
	root node
}

type node struct {
	children map[string]*node
	order    []string
	id       *Identifier
}

// NewTree builds a tree over ids. Later identifiers with the same
// segments replace earlier ones.
func NewTree(ids []Identifier) *Tree {
	t := &Tree{}
	for _, id := range ids {
		t.Insert(id)
	}
	return t
}

// Insert adds id to the tree.
func (t *Tree) Insert(id Identifier) {
	n := &t.root
	for _, seg := range id.segments {
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		child, ok := n.children[seg]
		if !ok {
			child = &node{}
			n.children[seg] = child
			n.order = append(n.order, seg)
		}
		n = child
	}
	stored := id
	n.id = &stored
}

// Get returns the inserted identifier with exactly id's segments.
func (t *Tree) Get(id Identifier) (Identifier, bool) {
	n := t.find(id.segments)
	if n == nil || n.id == nil {
		return Identifier{}, false
	}
	return *n.id, true
}

// Descendants returns the identifiers strictly below id, depth first
// in insertion order.
func (t *Tree) Descendants(id Identifier) []Identifier {
	n := t.find(id.segments)
	if n == nil {
		return nil
	}
	var out []Identifier
	var walk func(*node)
	walk = func(n *node) {
		for _, seg := range n.order {
			child := n.children[seg]
			if child.id != nil {
				out = append(out, *child.id)
			}
			walk(child)
		}
	}
	walk(n)
	return out
}

// Ancestors returns the identifiers strictly above id, outermost
// first.
func (t *Tree) Ancestors(id Identifier) []Identifier {
	if len(id.segments) == 0 {
		return nil
	}
	var out []Identifier
	n := &t.root
	for _, seg := range id.segments[:len(id.segments)-1] {
		child, ok := n.children[seg]
		if !ok {
			break
		}
		n = child
		if n.id != nil {
			out = append(out, *n.id)
		}
	}
	return out
}

func (t *Tree) find(segments []string) *node {
	n := &t.root
	for _, seg := range segments {
		child, ok := n.children[seg]
		if !ok {
			return nil
		}
		n = child
	}
	return n
}
