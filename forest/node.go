// Package forest defines parse node kinds and shapes, the shared packed parse
// forest they key, and ambiguity-safe reading of finished forests. A forest
// stores every interpretation of an ambiguous parse as extra recorded choices
// and splits; readers either get the single interpretation or an explicit
// Ambiguity value, never a silently picked one.
package forest

import (
	"strconv"
)

// Kind is the stable identity of a grammar position: either a named rule or
// an anonymous sub-rule numbered in first-encounter order. Anonymous identity
// is a pure function of rule content, so structurally equal sub-rules of
// different named rules share one kind.
type Kind struct {
	name string
	anon int
}

// NamedKind returns the kind of a named rule. The name must be non-empty,
// anonymous kinds are keyed by index instead.
func NamedKind(name string) Kind {
	if name == "" {
		panic("named parse node kind with an empty rule name")
	}
	return Kind{name: name}
}

func AnonKind(i int) Kind {
	return Kind{anon: i}
}

// IsNamed reports whether the kind identifies a named rule.
func (k Kind) IsNamed() bool {
	return k.name != ""
}

// RuleName returns the named rule's name or empty string.
func (k Kind) RuleName() string {
	return k.name
}

// AnonIndex returns the anonymous kind index; meaningless for named kinds.
func (k Kind) AnonIndex() int {
	return k.anon
}

func (k Kind) String() string {
	if k.name != "" {
		return k.name
	}
	return "_" + strconv.Itoa(k.anon)
}

type ShapeTag int

const (
	// ShapeOpaque is a leaf: the forest stores no children.
	ShapeOpaque ShapeTag = iota
	// ShapeAlias forwards to a single inner kind covering the same range.
	ShapeAlias
	// ShapeChoice stores one or more mutually exclusive child kinds.
	ShapeChoice
	// ShapeOpt stores a present inner child or nothing.
	ShapeOpt
	// ShapeSplit stores an ordered pair divided at recorded split points.
	ShapeSplit
)

// Shape tells how the forest stores a kind's children. A and B carry the
// child kinds: A is the alias/optional inner or the left half, B the right
// half of a split.
type Shape struct {
	Tag  ShapeTag
	A, B Kind
}

func OpaqueShape() Shape {
	return Shape{Tag: ShapeOpaque}
}

func AliasShape(inner Kind) Shape {
	return Shape{Tag: ShapeAlias, A: inner}
}

func ChoiceShape() Shape {
	return Shape{Tag: ShapeChoice}
}

func OptShape(inner Kind) Shape {
	return Shape{Tag: ShapeOpt, A: inner}
}

func SplitShape(left, right Kind) Shape {
	return Shape{Tag: ShapeSplit, A: left, B: right}
}

func (s Shape) String() string {
	switch s.Tag {
	case ShapeOpaque:
		return "Opaque"
	case ShapeAlias:
		return "Alias(" + s.A.String() + ")"
	case ShapeChoice:
		return "Choice"
	case ShapeOpt:
		return "Opt(" + s.A.String() + ")"
	case ShapeSplit:
		return "Split(" + s.A.String() + ", " + s.B.String() + ")"
	}
	return "?"
}

// Reflector exposes the per-kind tables of a compiled grammar. The compile
// package produces an implementation; forest reading consumes one.
type Reflector interface {
	// ShapeOf returns the storage shape of a kind.
	ShapeOf(Kind) Shape
	// DescOf returns the parenthesized rule rendering of a kind, for diagnostics.
	DescOf(Kind) string
}

// Node is one forest node: a kind over a half-open input range.
type Node struct {
	Kind       Kind
	Start, End int
}

func (n Node) String() string {
	return n.Kind.String() + "[" + strconv.Itoa(n.Start) + ".." + strconv.Itoa(n.End) + "]"
}
