package compile

import (
	"strings"
	"testing"

	"github.com/ava12/gllx/forest"
	"github.com/ava12/gllx/grammar"
	"github.com/ava12/gllx/internal/test"
)

func define(t *testing.T, cx *grammar.Context, g *grammar.Grammar, name string, rule grammar.RuleRef, fields ...grammar.Field) {
	e := g.Define(cx, name, rule, fields...)
	test.Assert(t, e == nil, "rule %q: unexpected error: %s", name, e)
}

func generate(t *testing.T, cx *grammar.Context, g *grammar.Grammar) *Program {
	p, e := Generate(cx, g)
	test.Assert(t, e == nil, "unexpected error: %s", e)
	return p
}

// flatten lists instructions in control-flow order, descending into the
// success branches of conditional consumptions.
func flatten(code []Inst) []Inst {
	result := make([]Inst, 0, len(code))
	for _, i := range code {
		result = append(result, i)
		if c, ok := i.(*Consume); ok {
			result = append(result, flatten(c.Then)...)
		}
	}
	return result
}

func allInsts(p *Program) []Inst {
	result := make([]Inst, 0)
	for _, arm := range p.Arms {
		result = append(result, flatten(arm.Code)...)
	}
	return result
}

func instNames(code []Inst) string {
	parts := make([]string, len(code))
	for i, inst := range code {
		name := inst.String()
		if sp := strings.IndexByte(name, ' '); sp > 0 {
			name = name[:sp]
		}
		parts[i] = name
	}
	return strings.Join(parts, " ")
}

func nodeByDesc(t *testing.T, p *Program, desc string) NodeInfo {
	for _, n := range p.Nodes {
		if n.Desc == desc {
			return n
		}
	}
	test.Assert(t, false, "no node described as %s", desc)
	return NodeInfo{}
}

func TestGenerateErrors(t *testing.T) {
	cx := grammar.NewContext()
	g := grammar.New()
	a := cx.Eat(grammar.Str("a"))

	define(t, cx, g, "lone", cx.Opt(cx.Or(a)))
	_, e := Generate(cx, g)
	test.ExpectErrorCode(t, EmptyOrError, e)

	g = grammar.New()
	define(t, cx, g, "caller", cx.Concat(a, cx.NamedCall("missing")))
	_, e = Generate(cx, g)
	test.ExpectErrorCode(t, UndefinedRuleError, e)
}

func TestClosedLabelSet(t *testing.T) {
	cx := grammar.NewContext()
	g := grammar.New()
	a := cx.Eat(grammar.Str("a"))
	b := cx.Eat(grammar.Str("b"))
	or := cx.Or(a, cx.Concat(b, cx.NamedCall("item")))

	define(t, cx, g, "item", a)
	define(t, cx, g, "list", cx.More(cx.NamedCall("item"), b, grammar.SepSimple),
		grammar.Field{Name: "items", Paths: [][]int{{}}})
	define(t, cx, g, "alt", or,
		grammar.Field{Name: "A", Paths: [][]int{{0}}},
		grammar.Field{Name: "Pair", Paths: [][]int{{1}}})
	p := generate(t, cx, g)

	known := make(map[*Label]bool)
	for _, l := range p.Labels {
		known[l] = true
		test.Assert(t, p.Label(l.Name) == l, "label %s not found by name", l.Name)
		test.Assert(t, p.EnclosingFn(l) != nil, "label %s has no enclosing function", l.Name)
		test.Assert(t, known[p.EnclosingFn(l)], "enclosing function of %s listed after it", l.Name)
	}
	for _, arm := range p.Arms {
		test.Assert(t, known[arm.Label], "arm for unlisted label %s", arm.Label.Name)
		for _, i := range flatten(arm.Code) {
			switch i := i.(type) {
			case *Call:
				test.Assert(t, known[i.Callee], "call to unlisted label %s", i.Callee.Name)
				test.Assert(t, known[i.Ret], "return to unlisted label %s", i.Ret.Name)
			case *Spawn:
				test.Assert(t, known[i.Label], "spawn of unlisted label %s", i.Label.Name)
			}
		}
	}

	armless := make(map[*Label]bool)
	for _, l := range p.Labels {
		armless[l] = true
	}
	for _, arm := range p.Arms {
		delete(armless, arm.Label)
	}
	test.ExpectInt(t, 0, len(armless))
}

func TestNodeTables(t *testing.T) {
	cx := grammar.NewContext()
	g := grammar.New()
	a := cx.Eat(grammar.Str("a"))
	b := cx.Eat(grammar.Str("b"))

	define(t, cx, g, "plain", cx.Concat(a, b))
	define(t, cx, g, "pair", cx.Concat(a, b),
		grammar.Field{Name: "lhs", Paths: [][]int{{0}}})
	define(t, cx, g, "named", cx.NamedCall("pair"),
		grammar.Field{Name: "inner", Paths: [][]int{{}}})
	p := generate(t, cx, g)

	test.ExpectString(t, "plain", p.Nodes[0].Desc)
	test.ExpectInt(t, int(forest.ShapeOpaque), int(p.ShapeOf(forest.NamedKind("plain")).Tag))

	pair := p.ShapeOf(forest.NamedKind("pair"))
	test.ExpectInt(t, int(forest.ShapeAlias), int(pair.Tag))
	test.ExpectString(t, `("a" "b")`, p.DescOf(pair.A))
	test.ExpectInt(t, int(forest.ShapeSplit), int(p.ShapeOf(pair.A).Tag))

	named := p.ShapeOf(forest.NamedKind("named"))
	test.ExpectInt(t, int(forest.ShapeAlias), int(named.Tag))
	test.Expect(t, named.A == forest.NamedKind("pair"), forest.NamedKind("pair"), named.A)

	for i, n := range p.Nodes {
		if !n.Kind.IsNamed() {
			test.ExpectInt(t, i-len(g.Rules()), n.Kind.AnonIndex())
		}
		test.ExpectString(t, n.Desc, p.DescOf(n.Kind))
	}
}

func TestDescs(t *testing.T) {
	cx := grammar.NewContext()
	g := grammar.New()
	a := cx.Eat(grammar.Str("a"))
	comma := cx.Eat(grammar.Str(","))
	digit := cx.Eat(grammar.Range('0', '9'))

	rule := cx.Concat(
		cx.Or(a, cx.Opt(digit)),
		cx.Concat(
			cx.Many(a, comma, grammar.SepSimple),
			cx.More(a, comma, grammar.SepTrailing),
		),
	)
	define(t, cx, g, "top", rule, grammar.Field{Name: "all", Paths: [][]int{{}}})
	p := generate(t, cx, g)

	for _, desc := range []string{
		`("a" | '0'..'9'?)`,
		`"a"* % ","`,
		`"a"+ %% ","`,
		`("a"* % "," "a"+ %% ",")`,
	} {
		nodeByDesc(t, p, desc)
	}
}

func TestShapeDerivation(t *testing.T) {
	cx := grammar.NewContext()
	g := grammar.New()
	x := cx.Eat(grammar.Str("x"))
	comma := cx.Eat(grammar.Str(","))

	define(t, cx, g, "bare", cx.Many(x, grammar.NoRule, grammar.SepSimple),
		grammar.Field{Name: "xs", Paths: [][]int{{}}})
	define(t, cx, g, "sep", cx.More(x, comma, grammar.SepSimple),
		grammar.Field{Name: "xs", Paths: [][]int{{}}})
	define(t, cx, g, "trail", cx.More(x, comma, grammar.SepTrailing),
		grammar.Field{Name: "xs", Paths: [][]int{{}}})
	define(t, cx, g, "seplist", cx.Many(x, comma, grammar.SepSimple),
		grammar.Field{Name: "xs", Paths: [][]int{{}}})
	p := generate(t, cx, g)

	// X* is an optional X+
	many := nodeByDesc(t, p, `"x"*`)
	test.ExpectInt(t, int(forest.ShapeOpt), int(many.Shape.Tag))
	more := nodeByDesc(t, p, `"x"+`)
	test.Expect(t, many.Shape.A == more.Kind, more.Kind, many.Shape.A)

	// the tail of an unseparated X+ is the X* itself
	test.ExpectInt(t, int(forest.ShapeSplit), int(more.Shape.Tag))
	test.ExpectString(t, `"x"`, p.DescOf(more.Shape.A))
	test.Expect(t, more.Shape.B == many.Kind, many.Kind, more.Shape.B)

	// a separated X+ continues with an optional (sep X+) pair
	sep := nodeByDesc(t, p, `"x"+ % ","`)
	test.ExpectInt(t, int(forest.ShapeSplit), int(sep.Shape.Tag))
	tail := p.ShapeOf(sep.Shape.B)
	test.ExpectInt(t, int(forest.ShapeOpt), int(tail.Tag))
	pair := p.ShapeOf(tail.A)
	test.ExpectInt(t, int(forest.ShapeSplit), int(pair.Tag))
	test.ExpectString(t, `","`, p.DescOf(pair.A))
	test.Expect(t, pair.B == sep.Kind, sep.Kind, pair.B)

	// a trailing-separator X+ restarts at X* %% "," after the separator
	trail := nodeByDesc(t, p, `"x"+ %% ","`)
	tailPair := p.ShapeOf(p.ShapeOf(trail.Shape.B).A)
	test.ExpectInt(t, int(forest.ShapeSplit), int(tailPair.Tag))
	test.ExpectString(t, `"x"* %% ","`, p.DescOf(tailPair.B))
	test.ExpectInt(t, int(forest.ShapeOpt), int(p.ShapeOf(tailPair.B).Tag))
	test.Expect(t, p.ShapeOf(tailPair.B).A == trail.Kind, trail.Kind, p.ShapeOf(tailPair.B).A)

	// the separated X* desugars through the separated X+ as well
	seplist := nodeByDesc(t, p, `"x"* % ","`)
	test.ExpectInt(t, int(forest.ShapeOpt), int(seplist.Shape.Tag))
	test.Expect(t, seplist.Shape.A == sep.Kind, sep.Kind, seplist.Shape.A)
}

func TestFieldlessOmitsRecording(t *testing.T) {
	cx := grammar.NewContext()
	g := grammar.New()
	a := cx.Eat(grammar.Str("a"))
	b := cx.Eat(grammar.Str("b"))
	rule := cx.Concat(cx.Or(a, b), cx.Many(a, b, grammar.SepSimple))

	define(t, cx, g, "plain", rule)
	p := generate(t, cx, g)
	for _, i := range allInsts(p) {
		switch i.(type) {
		case *Save, *TakeSaved, *AddChoice, *AddSplit:
			test.Assert(t, false, "fieldless rule records %s", i)
		}
	}

	g = grammar.New()
	define(t, cx, g, "fielded", rule, grammar.Field{Name: "head", Paths: [][]int{{0}}})
	p = generate(t, cx, g)
	saves, takes, choices, splits := 0, 0, 0, 0
	for _, i := range allInsts(p) {
		switch i.(type) {
		case *Save:
			saves++
		case *TakeSaved:
			takes++
		case *AddChoice:
			choices++
		case *AddSplit:
			splits++
		}
	}
	test.Assert(t, saves > 0 && saves == takes, "%d saves against %d takes", saves, takes)
	test.Assert(t, saves == splits, "%d saves against %d splits", saves, splits)
	test.ExpectInt(t, 2, choices)
}

func TestConcatInstOrder(t *testing.T) {
	cx := grammar.NewContext()
	g := grammar.New()
	a := cx.Eat(grammar.Str("a"))
	b := cx.Eat(grammar.Str("b"))

	define(t, cx, g, "pair", cx.Concat(a, b),
		grammar.Field{Name: "lhs", Paths: [][]int{{0}}})
	p := generate(t, cx, g)

	code := flatten(p.Code(p.Label("pair")))
	test.ExpectString(t, "consume save consume take-saved add-split ret", instNames(code))
}

func TestFramePromotion(t *testing.T) {
	cx := grammar.NewContext()
	g := grammar.New()
	a := cx.Eat(grammar.Str("a"))
	b := cx.Eat(grammar.Str("b"))
	c := cx.Eat(grammar.Str("c"))

	// the inner pair's carry crosses into the outer pair's pending save,
	// forcing the tail into a function of its own
	define(t, cx, g, "triple", cx.Concat(a, cx.Concat(b, c)),
		grammar.Field{Name: "head", Paths: [][]int{{0}}})
	p := generate(t, cx, g)

	promoted := make([]*Label, 0)
	for _, l := range p.Labels {
		if l.Rule() == "" && p.EnclosingFn(l) == l {
			promoted = append(promoted, l)
		}
	}
	test.ExpectInt(t, 1, len(promoted))

	// the outer save fills the carry slot before the call into the split-off
	// tail, never inside it
	entry := flatten(p.Code(p.Label("triple")))
	test.ExpectString(t, "consume save call", instNames(entry))
	entryCall, isCall := entry[2].(*Call)
	test.Assert(t, isCall, "expecting a call, got %s", entry[2])
	test.Expect(t, entryCall.Callee == promoted[0], promoted[0], entryCall.Callee)

	tail := flatten(p.Code(promoted[0]))
	test.ExpectString(t, "consume save consume take-saved add-split ret", instNames(tail))
	retCode := flatten(p.Code(entryCall.Ret))
	test.ExpectString(t, "take-saved add-split ret", instNames(retCode))

	code := allInsts(p)
	saves, splits := 0, 0
	for _, i := range code {
		switch i.(type) {
		case *Save:
			saves++
		case *AddSplit:
			splits++
		}
	}
	test.ExpectInt(t, 2, saves)
	test.ExpectInt(t, 2, splits)
}

func TestPromotionInsideAlternation(t *testing.T) {
	cx := grammar.NewContext()
	g := grammar.New()
	a := cx.Eat(grammar.Str("a"))
	b := cx.Eat(grammar.Str("b"))
	c := cx.Eat(grammar.Str("c"))
	d := cx.Eat(grammar.Str("d"))

	// one branch promotes the outer frame, the other does not; the compiler
	// must still merge them at equal frame depth
	rule := cx.Concat(a, cx.Or(cx.Concat(b, c), d))
	define(t, cx, g, "mixed", rule, grammar.Field{Name: "head", Paths: [][]int{{0}}})
	p := generate(t, cx, g)

	calls := 0
	for _, i := range allInsts(p) {
		if _, ok := i.(*Call); ok {
			calls++
		}
	}
	test.Assert(t, calls >= 2, "expecting branch calls, got %d", calls)
}

func TestRepetitionCompilesOnce(t *testing.T) {
	cx := grammar.NewContext()
	g := grammar.New()
	x := cx.Eat(grammar.Str("x"))

	define(t, cx, g, "xs", cx.More(x, grammar.NoRule, grammar.SepSimple),
		grammar.Field{Name: "xs", Paths: [][]int{{}}})
	p := generate(t, cx, g)

	// the fix-point body is emitted once; recursion shows up as calls to it
	fns := make([]*Label, 0)
	for _, l := range p.Labels {
		if l.Rule() == "" && p.EnclosingFn(l) == l {
			fns = append(fns, l)
		}
	}
	test.ExpectInt(t, 1, len(fns))

	recursive := 0
	for _, arm := range p.Arms {
		for _, i := range flatten(arm.Code) {
			if call, ok := i.(*Call); ok && call.Callee == fns[0] {
				recursive++
			}
		}
	}
	test.Assert(t, recursive >= 2, "expecting an entry call and a recursive call, got %d", recursive)
}

func TestKindSharing(t *testing.T) {
	cx := grammar.NewContext()
	g := grammar.New()
	a := cx.Eat(grammar.Str("a"))
	b := cx.Eat(grammar.Str("b"))
	shared := cx.Concat(a, b)

	define(t, cx, g, "first", cx.Opt(shared),
		grammar.Field{Name: "pair", Paths: [][]int{{0}}})
	define(t, cx, g, "second", cx.Concat(shared, a),
		grammar.Field{Name: "pair", Paths: [][]int{{0}}})
	p := generate(t, cx, g)

	seen := 0
	for _, n := range p.Nodes {
		if n.Desc == `("a" "b")` {
			seen++
		}
	}
	test.ExpectInt(t, 1, seen)
}

func TestProgramDrivesForest(t *testing.T) {
	cx := grammar.NewContext()
	g := grammar.New()
	x := cx.Eat(grammar.Str("x"))
	comma := cx.Eat(grammar.Str(","))

	define(t, cx, g, "list", cx.More(x, comma, grammar.SepSimple),
		grammar.Field{Name: "xs", Paths: [][]int{{}}})
	p := generate(t, cx, g)

	more := nodeByDesc(t, p, `"x"+ % ","`).Kind
	elem := p.ShapeOf(more).A
	tail := p.ShapeOf(p.ShapeOf(more).B).A

	// x , x , x  recorded the way a runtime executing the program would
	f := forest.New(p)
	f.AddSplit(forest.Node{Kind: more, Start: 0, End: 5}, 1)
	f.AddSplit(forest.Node{Kind: tail, Start: 1, End: 5}, 2)
	f.AddSplit(forest.Node{Kind: more, Start: 2, End: 5}, 3)
	f.AddSplit(forest.Node{Kind: tail, Start: 3, End: 5}, 4)
	f.AddSplit(forest.Node{Kind: more, Start: 4, End: 5}, 5)

	top := forest.Handle{Node: forest.Node{Kind: forest.NamedKind("list"), Start: 0, End: 5}, Forest: f}
	h, e := top.One()
	test.Assert(t, e == nil, "unexpected error: %s", e)
	test.Expect(t, h.Node.Kind == more, more, h.Node.Kind)

	elems, amb := h.Elems()
	test.Assert(t, amb == nil, "unexpected ambiguity: %s", amb)
	test.ExpectInt(t, 3, len(elems))
	for i, at := range []int{0, 2, 4} {
		want := forest.Node{Kind: elem, Start: at, End: at + 1}
		test.Expect(t, elems[i].Node == want, want, elems[i].Node)
	}
}

func TestDeterministicOutput(t *testing.T) {
	build := func() *Program {
		cx := grammar.NewContext()
		g := grammar.New()
		a := cx.Eat(grammar.Str("a"))
		comma := cx.Eat(grammar.Str(","))
		define(t, cx, g, "item", cx.Or(a, cx.NamedCall("list")),
			grammar.Field{Name: "A", Paths: [][]int{{0}}},
			grammar.Field{Name: "List", Paths: [][]int{{1}}})
		define(t, cx, g, "list", cx.Many(cx.NamedCall("item"), comma, grammar.SepTrailing),
			grammar.Field{Name: "items", Paths: [][]int{{}}})
		return generate(t, cx, g)
	}

	render := func(p *Program) string {
		var sb strings.Builder
		for _, l := range p.Labels {
			sb.WriteString(l.Name + ":" + p.EnclosingFn(l).Name + "\n")
		}
		for _, arm := range p.Arms {
			sb.WriteString(arm.Label.Name + " = ")
			for _, i := range flatten(arm.Code) {
				sb.WriteString(i.String() + "; ")
			}
			sb.WriteString("\n")
		}
		for _, n := range p.Nodes {
			sb.WriteString(n.Kind.String() + " " + n.Desc + " " + n.Shape.String() + "\n")
		}
		return sb.String()
	}

	first := render(build())
	second := render(build())
	test.Assert(t, first == second, "programs differ:\n%s\nagainst:\n%s", first, second)
}
