package compile

import (
	"github.com/ava12/gllx/forest"
	"github.com/ava12/gllx/grammar"
)

// NodeInfo describes one parse node kind of a compiled grammar: its
// identity, its diagnostic rendering, and how the forest stores it.
type NodeInfo struct {
	Kind  forest.Kind
	Desc  string
	Shape forest.Shape
}

// Program is the compiled automaton: one code body per label, the
// enclosing-function table the runtime schedules against, and the parse node
// tables the forest is built and read with. A Program is immutable and
// implements forest.Reflector.
type Program struct {
	// Labels lists every automaton label: named rule entries in definition
	// order, then nested labels grouped per enclosing function.
	Labels []*Label

	// Arms lists every sealed label body in emission order.
	Arms []Arm

	// Nodes lists every parse node kind: named rules first, then anonymous
	// kinds in first-encounter order.
	Nodes []NodeInfo

	code      map[*Label][]Inst
	enclosing map[*Label]*Label
	labels    map[string]*Label
	shapes    map[forest.Kind]forest.Shape
	descs     map[forest.Kind]string
}

// Label returns the label with the given flattened name or nil.
func (p *Program) Label(name string) *Label {
	return p.labels[name]
}

// Code returns the instruction body of a label.
func (p *Program) Code(l *Label) []Inst {
	return p.code[l]
}

// EnclosingFn returns the function label a label belongs to. A label that is
// a function of its own (a named rule entry or a fix-point body) encloses
// itself.
func (p *Program) EnclosingFn(l *Label) *Label {
	return p.enclosing[l]
}

// ShapeOf implements forest.Reflector.
func (p *Program) ShapeOf(k forest.Kind) forest.Shape {
	shape, has := p.shapes[k]
	if !has {
		panic("compile: unknown parse node kind " + k.String())
	}
	return shape
}

// DescOf implements forest.Reflector.
func (p *Program) DescOf(k forest.Kind) string {
	desc, has := p.descs[k]
	if !has {
		panic("compile: unknown parse node kind " + k.String())
	}
	return desc
}

// Generate compiles every named rule of the grammar into one Program.
// Grammar-shape violations (an alternation with fewer than two cases, a call
// to an undefined rule) abort compilation; they are grammar author errors
// and are never recoverable. Output is deterministic for a given grammar:
// labels and anonymous kinds are numbered in compilation order.
func Generate(cx *grammar.Context, g *grammar.Grammar) (*Program, error) {
	st := newGenState(cx)

	for _, nr := range g.Rules() {
		e := validateRule(cx, g, st.rules, nr)
		if e != nil {
			return nil, e
		}
	}

	for _, nr := range g.Rules() {
		label := st.ruleLabel(nr.Name)
		var rm *ruleMap
		if nr.HasFields() {
			rm = st.rules
		}
		c := &cont{g: st, rules: rm, fnLabel: label, code: make([]Inst, 0)}
		seq(compileRule(nr.Rule), ret())(c)
		c.reifyAs(label)
	}

	// make sure every fielded rule's top kind exists, then close the shape
	// table over all anonymous kinds registered so far and by fillShape itself
	for _, nr := range g.Rules() {
		if nr.HasFields() {
			st.rules.kindOf(nr.Rule)
		}
	}
	for i := 0; i < len(st.rules.anon); i++ {
		st.rules.fillShape(st.rules.anon[i])
	}

	return newProgram(st, g), nil
}

func validateRule(cx *grammar.Context, g *grammar.Grammar, rm *ruleMap, nr *grammar.NamedRule) error {
	seen := make(map[grammar.RuleRef]bool)
	stack := []grammar.RuleRef{nr.Rule}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[r] {
			continue
		}
		seen[r] = true

		rule := cx.Rule(r)
		switch rule.Tag {
		case grammar.Call:
			if g.Get(rule.Name) == nil {
				return undefinedRuleError(nr.Name, rule.Name)
			}
		case grammar.Concat:
			stack = append(stack, rule.Left, rule.Right)
		case grammar.Or:
			if len(rule.Cases) < 2 {
				return emptyOrError(nr.Name, rm.descOf(r))
			}
			stack = append(stack, rule.Cases...)
		case grammar.Opt:
			stack = append(stack, rule.Inner)
		case grammar.RepeatMany, grammar.RepeatMore:
			stack = append(stack, rule.Elem)
			if rule.Sep != grammar.NoRule {
				stack = append(stack, rule.Sep)
			}
		}
	}
	return nil
}

func newProgram(st *genState, g *grammar.Grammar) *Program {
	p := &Program{
		Arms:      st.arms,
		code:      make(map[*Label][]Inst),
		enclosing: make(map[*Label]*Label),
		labels:    make(map[string]*Label),
		shapes:    make(map[forest.Kind]forest.Shape),
		descs:     make(map[forest.Kind]string),
	}

	for _, nr := range g.Rules() {
		p.Labels = append(p.Labels, st.ruleLabel(nr.Name))
	}
	for _, fn := range st.fnLabels {
		p.Labels = append(p.Labels, st.nested[fn]...)
	}
	for _, l := range p.Labels {
		p.labels[l.Name] = l
		_, isFn := st.counters[l]
		switch {
		case isFn || l.parent == nil:
			p.enclosing[l] = l
		default:
			p.enclosing[l] = l.parent
		}
	}
	for _, arm := range p.Arms {
		p.code[arm.Label] = arm.Code
	}

	for _, nr := range g.Rules() {
		kind := forest.NamedKind(nr.Name)
		shape := forest.OpaqueShape()
		if nr.HasFields() {
			// the named type is a transparent rename of its rule's node
			shape = forest.AliasShape(st.rules.kindOf(nr.Rule))
		}
		p.addNode(NodeInfo{kind, nr.Name, shape})
	}
	for i, r := range st.rules.anon {
		p.addNode(NodeInfo{forest.AnonKind(i), st.rules.descOf(r), st.rules.shapes[r]})
	}

	return p
}

func (p *Program) addNode(n NodeInfo) {
	p.Nodes = append(p.Nodes, n)
	p.shapes[n.Kind] = n.Shape
	p.descs[n.Kind] = n.Desc
}
