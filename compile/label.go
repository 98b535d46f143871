// Package compile translates an interned rule graph into a control-flow
// automaton program for a GLL-style runtime. Rules are lowered through a
// continuation-passing thunk algebra: code fragments are built suffix first,
// sealed under labels, fanned out for alternation, and tied into fix-points
// for self-referential repetition. The package also resolves the parse node
// kind and shape of every rule the runtime will store in a forest.
package compile

import (
	"strconv"
)

// Label is a compile-time automaton address: the entry of a named rule, or
// point i nested in an enclosing label. Labels are minted once per
// compilation pass, so pointer identity matches label identity.
type Label struct {
	// Name is the unique flattened name, e.g. "expr" or "expr__0__1".
	Name string

	parent *Label
	index  int
}

func namedLabel(rule string) *Label {
	return &Label{Name: rule}
}

func nestedLabel(parent *Label, i int) *Label {
	return &Label{
		Name:   parent.Name + "__" + strconv.Itoa(i),
		parent: parent,
		index:  i,
	}
}

// Rule returns the named rule owning an entry label, or empty string for
// nested labels.
func (l *Label) Rule() string {
	if l.parent == nil {
		return l.Name
	}
	return ""
}

func (l *Label) String() string {
	return l.Name
}
