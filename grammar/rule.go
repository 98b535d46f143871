// Package grammar defines the interned rule graph consumed by the compile
// package: a DAG of structurally deduplicated rules plus named top-level
// productions with optional field maps.
package grammar

import (
	"strconv"
)

// RuleRef is a stable handle into a Context. Structurally equal rules always
// receive the same handle, which makes handles usable as identity keys.
type RuleRef int

// NoRule is the zero separator/rule placeholder.
const NoRule RuleRef = -1

type RuleTag int

const (
	Empty RuleTag = iota
	Eat
	Call
	Concat
	Or
	Opt
	RepeatMany
	RepeatMore
)

// SepKind tells whether a separated repetition permits a dangling separator.
type SepKind int

const (
	SepSimple SepKind = iota
	SepTrailing
)

// Rule is one interned node of the rule graph. Which fields are meaningful
// depends on Tag:
//
//	Eat                    Pat
//	Call                   Name
//	Concat                 Left, Right
//	Or                     Cases
//	Opt                    Inner
//	RepeatMany, RepeatMore Elem, Sep (NoRule if unseparated), SepKind
type Rule struct {
	Tag     RuleTag
	Pat     Pat
	Name    string
	Left    RuleRef
	Right   RuleRef
	Cases   []RuleRef
	Inner   RuleRef
	Elem    RuleRef
	Sep     RuleRef
	SepKind SepKind
}

type patKind int

const (
	patStr patKind = iota
	patRange
)

// Pat is a scannerless input pattern: either a literal string or an inclusive
// rune range. The zero Pat is the empty literal.
type Pat struct {
	kind   patKind
	str    string
	lo, hi rune
}

// Str returns a literal string pattern.
func Str(s string) Pat {
	return Pat{kind: patStr, str: s}
}

// Range returns an inclusive rune range pattern.
func Range(lo, hi rune) Pat {
	return Pat{kind: patRange, lo: lo, hi: hi}
}

// IsRange reports whether the pattern is a rune range.
func (p Pat) IsRange() bool {
	return p.kind == patRange
}

// Literal returns the literal string of a non-range pattern.
func (p Pat) Literal() string {
	return p.str
}

// Bounds returns the inclusive bounds of a range pattern.
func (p Pat) Bounds() (lo, hi rune) {
	return p.lo, p.hi
}

// MatchesEmpty reports whether the pattern can consume zero input.
func (p Pat) MatchesEmpty() bool {
	return p.kind == patStr && p.str == ""
}

// String renders the pattern for diagnostics and parse node descriptions.
func (p Pat) String() string {
	if p.kind == patRange {
		return strconv.QuoteRune(p.lo) + ".." + strconv.QuoteRune(p.hi)
	}
	return strconv.Quote(p.str)
}
