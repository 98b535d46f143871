package compile

import (
	"github.com/ava12/gllx/forest"
	"github.com/ava12/gllx/grammar"
)

// thunk is a unit of deferred automaton code: applying it to a continuation
// prepends the thunk's code in front of whatever the continuation already
// holds. seq composes thunks in source order by applying them suffix first,
// so the most recently applied prefix decides how control reaches the rest.
type thunk func(c *cont)

func seq(thunks ...thunk) thunk {
	return func(c *cont) {
		for i := len(thunks) - 1; i >= 0; i-- {
			thunks[i](c)
		}
	}
}

// frame is a promoted nested call frame: a pop/push pair that crossed a
// function boundary. retLabel is where the promoted call returns to, outerFn
// the function the continuation resumes in. An open, not yet promoted frame
// marker is a nil entry on the frame stack.
type frame struct {
	retLabel *Label
	outerFn  *Label
}

// genState is the per-pass mutable state shared by every continuation of one
// compilation: the interner, the kind resolver, minted labels, fresh-label
// counters, and the accumulated label bodies. Discarded after compilation.
type genState struct {
	cx       *grammar.Context
	rules    *ruleMap
	named    map[string]*Label
	counters map[*Label]int      // fresh-label counter per function label
	fnLabels []*Label            // function labels in first-mint order
	nested   map[*Label][]*Label // nested labels per function, in mint order
	arms     []Arm
}

// Arm is one sealed label body.
type Arm struct {
	Label *Label
	Code  []Inst
}

func newGenState(cx *grammar.Context) *genState {
	return &genState{
		cx:       cx,
		rules:    newRuleMap(cx),
		named:    make(map[string]*Label),
		counters: make(map[*Label]int),
		nested:   make(map[*Label][]*Label),
	}
}

func (g *genState) ruleLabel(name string) *Label {
	l, has := g.named[name]
	if !has {
		l = namedLabel(name)
		g.named[name] = l
	}
	return l
}

// registerFn marks a label as a function of its own: a scope nested labels
// are minted in and the enclosing-function target of those labels.
func (g *genState) registerFn(l *Label) {
	_, has := g.counters[l]
	if !has {
		g.counters[l] = 0
		g.fnLabels = append(g.fnLabels, l)
	}
}

// cont is the mutable compilation continuation: the in-progress code
// fragment (inline, or sealed behind a label reachable only by jump or
// call), the enclosing function label, and the stack of open nested-frame
// markers. rules is nil when compiling a fieldless rule, which suppresses
// all forest-recording instructions.
type cont struct {
	g       *genState
	rules   *ruleMap
	fnLabel *Label
	code    []Inst
	label   *Label
	frames  []*frame
}

func (c *cont) clone() *cont {
	return &cont{
		g:       c.g,
		rules:   c.rules,
		fnLabel: c.fnLabel,
		code:    append([]Inst(nil), c.code...),
		label:   c.label,
		frames:  append([]*frame(nil), c.frames...),
	}
}

func (c *cont) nextLabel() *Label {
	c.g.registerFn(c.fnLabel)
	i := c.g.counters[c.fnLabel]
	c.g.counters[c.fnLabel] = i + 1
	l := nestedLabel(c.fnLabel, i)
	c.g.nested[c.fnLabel] = append(c.g.nested[c.fnLabel], l)
	return l
}

// toInline turns a sealed continuation back into code: the only way to reach
// a sealed label from straight-line code is to spawn it.
func (c *cont) toInline() []Inst {
	if c.label != nil {
		c.code = []Inst{&Spawn{c.label}}
		c.label = nil
	}
	return c.code
}

// toLabel seals the current point under a fresh label unless already sealed.
func (c *cont) toLabel() *Label {
	if c.label == nil {
		c.reifyAs(c.nextLabel())
	}
	return c.label
}

// reifyAs seals the current code under the given label, emitting its body.
func (c *cont) reifyAs(l *Label) {
	code := c.toInline()
	c.g.arms = append(c.g.arms, Arm{l, code})
	c.code = nil
	c.label = l
}

func (c *cont) prepend(insts ...Inst) {
	code := c.toInline()
	c.code = append(append([]Inst(nil), insts...), code...)
}

func inst(insts ...Inst) thunk {
	return func(c *cont) {
		c.prepend(insts...)
	}
}

// check guards the downstream code with a pattern consumption that may fail.
func check(p grammar.Pat) thunk {
	return func(c *cont) {
		code := c.toInline()
		c.code = []Inst{&Consume{p, code}}
	}
}

// call seals the current point as the return address and emits a call.
func call(callee *Label) thunk {
	return func(c *cont) {
		ret := c.toLabel()
		c.code = []Inst{&Call{callee, ret}}
		c.label = nil
	}
}

// ret emits a return. It is structurally terminal: the continuation must be
// empty, nothing can follow a return in a fragment.
func ret() thunk {
	return seq(
		inst(&Ret{}),
		func(c *cont) {
			if len(c.toInline()) != 0 {
				panic("compile: code after return")
			}
		},
	)
}

func reifyAs(l *Label) thunk {
	return func(c *cont) {
		c.reifyAs(l)
	}
}

// parallel fans one entry point out to every thunk and merges the branches
// into one block. A branch that promoted the innermost open frame is rewired
// to call its private function and return through the shared frame return
// label, so the frame stack depth stays equal across branches.
func parallel(thunks ...thunk) thunk {
	return func(c *cont) {
		c.toLabel()
		merged := make([]Inst, 0)
		childFrames := -1
		snapshot := append([]*frame(nil), c.frames...)

		for _, t := range thunks {
			child := c.clone()
			t(child)

			if childFrames < 0 {
				childFrames = len(child.frames)
			} else if childFrames != len(child.frames) {
				panic("compile: unbalanced frame stacks across parallel branches")
			}

			if n := len(child.frames); n > 0 {
				fr := child.frames[n-1]
				if fr != nil && snapshot[n-1] == nil {
					inner := child.fnLabel
					child.fnLabel = fr.outerFn
					child.reifyAs(inner)
					child.code = []Inst{&Call{inner, fr.retLabel}}
					child.label = nil
					child.frames[n-1] = nil
				}
			}
			for i, fr := range child.frames {
				if fr != snapshot[i] {
					panic("compile: frame stack mismatch in parallel branch")
				}
			}

			merged = append(merged, child.toInline()...)
		}

		c.code = merged
		c.label = nil
		if childFrames >= 0 {
			for len(c.frames) > childFrames {
				n := len(c.frames) - 1
				if c.frames[n] != nil {
					panic("compile: leftover promoted frame after parallel")
				}
				c.frames = c.frames[:n]
			}
		}
	}
}

// opt is a two-way fan-out: take the thunk, or skip it entirely.
func opt(t thunk) thunk {
	return parallel(t, seq())
}

// fix compiles a self-referential fragment: mints a label, enters it as its
// own function scope, lets f build a body that calls back into the label by
// name, then wires the outer continuation to call it. Each distinct label's
// body is compiled exactly once; recursive occurrences emit calls.
func fix(f func(*Label) thunk) thunk {
	return func(c *cont) {
		saved := c.frames
		c.frames = nil
		retLabel := c.toLabel()
		c.code = make([]Inst, 0)
		c.label = nil

		label := c.nextLabel()
		outerFn := c.fnLabel
		c.fnLabel = label
		c.g.registerFn(label)

		seq(reifyAs(label), f(label), ret())(c)

		c.fnLabel = outerFn
		c.frames = saved
		c.code = []Inst{&Call{label, retLabel}}
		c.label = nil
	}
}

// pushSaved emits the save instruction carrying the completed left operand
// and closes the frame opened by the matching popSaved. If that frame was
// promoted across a function boundary in between, the downstream code is
// sealed as the nested function and entered through an explicit call
// returning at the frame's return label. The save always stays in the outer
// function, in front of that call: the carry slot must be filled before the
// call boundary, where the matching take on the other side reads it.
func pushSaved(kind forest.Kind) thunk {
	return seq(
		inst(&Save{kind}),
		func(c *cont) {
			n := len(c.frames) - 1
			if n < 0 {
				panic("compile: save without a matching frame")
			}
			fr := c.frames[n]
			c.frames = c.frames[:n]
			if fr != nil {
				inner := c.fnLabel
				c.fnLabel = fr.outerFn
				c.reifyAs(inner)
				c.code = []Inst{&Call{inner, fr.retLabel}}
				c.label = nil
			}
		},
	)
}

// popSaved opens a frame marker, takes the carry slot, and runs f against it.
// If an enclosing frame marker is still open at this point, some function
// boundary intervened between this pair and its enclosing one: the enclosing
// marker is promoted into a real call/return, splitting the current code off
// into its own function.
func popSaved(f thunk) thunk {
	return seq(
		inst(&TakeSaved{}),
		f,
		func(c *cont) {
			if n := len(c.frames) - 1; n >= 0 && c.frames[n] == nil {
				retLabel := c.toLabel()
				c.frames[n] = &frame{retLabel, c.fnLabel}
				c.fnLabel = c.nextLabel()
				c.g.registerFn(c.fnLabel)
				c.code = make([]Inst, 0)
				c.label = nil
				ret()(c)
			}
			c.frames = append(c.frames, nil)
		},
	)
}
