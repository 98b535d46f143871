package compile

import (
	"github.com/ava12/gllx/forest"
	"github.com/ava12/gllx/grammar"
)

// ruleMap assigns forest identity to rules. Call rules map to their named
// rule's kind; every other rule gets an anonymous kind numbered in
// first-encounter order. Since rules are interned, structurally equal
// sub-rules reached from different named rules share one kind, and every
// lookup is memoizable per handle.
type ruleMap struct {
	cx        *grammar.Context
	anon      []grammar.RuleRef
	anonIndex map[grammar.RuleRef]int
	descs     map[grammar.RuleRef]string
	shapes    map[grammar.RuleRef]forest.Shape
}

func newRuleMap(cx *grammar.Context) *ruleMap {
	return &ruleMap{
		cx:        cx,
		anon:      make([]grammar.RuleRef, 0),
		anonIndex: make(map[grammar.RuleRef]int),
		descs:     make(map[grammar.RuleRef]string),
		shapes:    make(map[grammar.RuleRef]forest.Shape),
	}
}

func (rm *ruleMap) kindOf(r grammar.RuleRef) forest.Kind {
	rule := rm.cx.Rule(r)
	if rule.Tag == grammar.Call {
		return forest.NamedKind(rule.Name)
	}

	i, has := rm.anonIndex[r]
	if !has {
		i = len(rm.anon)
		rm.anon = append(rm.anon, r)
		rm.anonIndex[r] = i
	}
	return forest.AnonKind(i)
}

// descOf renders the parenthesized rule description, for diagnostics only.
func (rm *ruleMap) descOf(r grammar.RuleRef) string {
	desc, has := rm.descs[r]
	if has {
		return desc
	}

	desc = rm.descUncached(r)
	rm.descs[r] = desc
	return desc
}

func (rm *ruleMap) descUncached(r grammar.RuleRef) string {
	rule := rm.cx.Rule(r)
	switch rule.Tag {
	case grammar.Empty:
		return ""
	case grammar.Eat:
		return rule.Pat.String()
	case grammar.Call:
		return rule.Name
	case grammar.Concat:
		return "(" + rm.descOf(rule.Left) + " " + rm.descOf(rule.Right) + ")"
	case grammar.Or:
		desc := "(" + rm.descOf(rule.Cases[0])
		for _, c := range rule.Cases[1:] {
			desc += " | " + rm.descOf(c)
		}
		return desc + ")"
	case grammar.Opt:
		return rm.descOf(rule.Inner) + "?"
	case grammar.RepeatMany:
		return rm.descOf(rule.Elem) + "*" + rm.sepDesc(rule)
	case grammar.RepeatMore:
		return rm.descOf(rule.Elem) + "+" + rm.sepDesc(rule)
	}
	return "?"
}

func (rm *ruleMap) sepDesc(rule grammar.Rule) string {
	if rule.Sep == grammar.NoRule {
		return ""
	}
	op := " % "
	if rule.SepKind == grammar.SepTrailing {
		op = " %% "
	}
	return op + rm.descOf(rule.Sep)
}

// fillShape resolves and caches the storage shape of one anonymous rule.
// Derived rules (the one-or-more behind a zero-or-more, repetition tails)
// go through the interner, so a re-derived rule hits the anonIndex memo
// instead of recursing forever.
func (rm *ruleMap) fillShape(r grammar.RuleRef) {
	if rm.cx.Rule(r).Tag == grammar.Call {
		return
	}
	_, has := rm.shapes[r]
	if has {
		return
	}
	rm.shapes[r] = rm.shapeUncached(r)
}

func (rm *ruleMap) shapeUncached(r grammar.RuleRef) forest.Shape {
	cx := rm.cx
	rule := cx.Rule(r)
	switch rule.Tag {
	case grammar.Empty, grammar.Eat:
		return forest.OpaqueShape()
	case grammar.Concat:
		return forest.SplitShape(rm.kindOf(rule.Left), rm.kindOf(rule.Right))
	case grammar.Or:
		return forest.ChoiceShape()
	case grammar.Opt:
		return forest.OptShape(rm.kindOf(rule.Inner))
	case grammar.RepeatMany:
		// zero-or-more is an optional one-or-more
		more := cx.More(rule.Elem, rule.Sep, rule.SepKind)
		return forest.OptShape(rm.kindOf(more))
	case grammar.RepeatMore:
		if rule.Sep == grammar.NoRule {
			// the tail is the zero-or-more itself, already optional by shape
			many := cx.Many(rule.Elem, grammar.NoRule, grammar.SepSimple)
			return forest.SplitShape(rm.kindOf(rule.Elem), rm.kindOf(many))
		}
		if rule.SepKind == grammar.SepSimple {
			tail := cx.Concat(rule.Sep, r)
			return forest.SplitShape(rm.kindOf(rule.Elem), rm.kindOf(cx.Opt(tail)))
		}
		// a trailing-separator tail restarts at zero-or-more, permitting
		// a dangling separator with no following element
		many := cx.Many(rule.Elem, rule.Sep, grammar.SepTrailing)
		tail := cx.Concat(rule.Sep, many)
		return forest.SplitShape(rm.kindOf(rule.Elem), rm.kindOf(cx.Opt(tail)))
	}
	panic("compile: no shape for rule " + rm.descOf(r))
}
