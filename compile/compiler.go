package compile

import (
	"github.com/ava12/gllx/forest"
	"github.com/ava12/gllx/grammar"
)

// concatSplit compiles an ordered pair with forest split recording: the left
// operand's completed node is saved, carried across whatever the right
// operand compiles to, then taken back to record where the pair divides.
func concatSplit(leftKind forest.Kind, left, right thunk, kind forest.Kind) thunk {
	return seq(
		left,
		pushSaved(leftKind),
		right,
		popSaved(inst(&AddSplit{kind})),
	)
}

// compileRule lowers one rule into automaton code. Fieldless rules (nil
// cont.rules) skip every forest-recording instruction: nothing reads their
// structure back, only whether they matched.
func compileRule(r grammar.RuleRef) thunk {
	return func(c *cont) {
		cx := c.g.cx
		rm := c.rules
		rule := cx.Rule(r)

		switch rule.Tag {
		case grammar.Empty:
			// identity

		case grammar.Eat:
			check(rule.Pat)(c)

		case grammar.Call:
			call(c.g.ruleLabel(rule.Name))(c)

		case grammar.Concat:
			if rm == nil {
				seq(compileRule(rule.Left), compileRule(rule.Right))(c)
				break
			}
			concatSplit(
				rm.kindOf(rule.Left),
				compileRule(rule.Left),
				compileRule(rule.Right),
				rm.kindOf(r),
			)(c)

		case grammar.Or:
			branches := make([]thunk, len(rule.Cases))
			for i, cs := range rule.Cases {
				if rm == nil {
					branches[i] = compileRule(cs)
				} else {
					branches[i] = seq(
						compileRule(cs),
						inst(&AddChoice{rm.kindOf(r), rm.kindOf(cs)}),
					)
				}
			}
			parallel(branches...)(c)

		case grammar.Opt:
			opt(compileRule(rule.Inner))(c)

		case grammar.RepeatMany:
			compileMany(c, r, rule)

		case grammar.RepeatMore:
			compileMore(c, r, rule)
		}
	}
}

func compileMany(c *cont, r grammar.RuleRef, rule grammar.Rule) {
	cx := c.g.cx
	rm := c.rules

	if rule.Sep != grammar.NoRule {
		// desugar to an optional one-or-more, fielded or not
		more := cx.More(rule.Elem, rule.Sep, rule.SepKind)
		opt(compileRule(more))(c)
		return
	}

	if rm == nil {
		fix(func(label *Label) thunk {
			return opt(seq(compileRule(rule.Elem), call(label)))
		})(c)
		return
	}

	more := cx.More(rule.Elem, grammar.NoRule, grammar.SepSimple)
	elemKind := rm.kindOf(rule.Elem)
	moreKind := rm.kindOf(more)
	fix(func(label *Label) thunk {
		return opt(concatSplit(elemKind, compileRule(rule.Elem), call(label), moreKind))
	})(c)
}

func compileMore(c *cont, r grammar.RuleRef, rule grammar.Rule) {
	cx := c.g.cx
	rm := c.rules

	if rm == nil {
		switch {
		case rule.Sep == grammar.NoRule:
			fix(func(label *Label) thunk {
				return seq(compileRule(rule.Elem), opt(call(label)))
			})(c)
		case rule.SepKind == grammar.SepSimple:
			fix(func(label *Label) thunk {
				return seq(
					compileRule(rule.Elem),
					opt(seq(compileRule(rule.Sep), call(label))),
				)
			})(c)
		default:
			fix(func(label *Label) thunk {
				return seq(
					compileRule(rule.Elem),
					opt(seq(compileRule(rule.Sep), opt(call(label)))),
				)
			})(c)
		}
		return
	}

	elemKind := rm.kindOf(rule.Elem)
	selfKind := rm.kindOf(r)

	switch {
	case rule.Sep == grammar.NoRule:
		fix(func(label *Label) thunk {
			return concatSplit(elemKind, compileRule(rule.Elem), opt(call(label)), selfKind)
		})(c)

	case rule.SepKind == grammar.SepSimple:
		sepKind := rm.kindOf(rule.Sep)
		tailKind := rm.kindOf(cx.Concat(rule.Sep, r))
		fix(func(label *Label) thunk {
			return concatSplit(
				elemKind,
				compileRule(rule.Elem),
				opt(concatSplit(sepKind, compileRule(rule.Sep), call(label), tailKind)),
				selfKind,
			)
		})(c)

	default:
		sepKind := rm.kindOf(rule.Sep)
		many := cx.Many(rule.Elem, rule.Sep, grammar.SepTrailing)
		tailKind := rm.kindOf(cx.Concat(rule.Sep, many))
		fix(func(label *Label) thunk {
			return concatSplit(
				elemKind,
				compileRule(rule.Elem),
				opt(concatSplit(sepKind, compileRule(rule.Sep), opt(call(label)), tailKind)),
				selfKind,
			)
		})(c)
	}
}
