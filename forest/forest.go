package forest

// Forest is a shared packed parse forest. The parsing runtime fills it through
// AddChoice and AddSplit while executing compiled automaton code; once parsing
// ends the forest is read-only and safe for concurrent readers.
type Forest struct {
	refl    Reflector
	choices map[Node][]Kind
	splits  map[Node][]int
}

func New(refl Reflector) *Forest {
	return &Forest{
		refl:    refl,
		choices: make(map[Node][]Kind),
		splits:  make(map[Node][]int),
	}
}

// Reflector returns the kind/shape tables the forest was built against.
func (f *Forest) Reflector() Reflector {
	return f.refl
}

// AddChoice records that a Choice-shaped parent was produced by the given
// case kind. Recording the same pair twice is a no-op.
func (f *Forest) AddChoice(parent Node, choice Kind) {
	f.shapeOf(parent, ShapeChoice)
	for _, k := range f.choices[parent] {
		if k == choice {
			return
		}
	}
	f.choices[parent] = append(f.choices[parent], choice)
}

// AddSplit records a division point of a Split-shaped parent. Recording the
// same point twice is a no-op; a second distinct point makes the node
// ambiguous.
func (f *Forest) AddSplit(parent Node, split int) {
	f.shapeOf(parent, ShapeSplit)
	if split < parent.Start || split > parent.End {
		panic("split point " + Node{parent.Kind, split, split}.String() + " outside of " + parent.String())
	}
	for _, s := range f.splits[parent] {
		if s == split {
			return
		}
	}
	f.splits[parent] = append(f.splits[parent], split)
}

func (f *Forest) shapeOf(n Node, want ShapeTag) Shape {
	shape := f.refl.ShapeOf(n.Kind)
	if shape.Tag != want {
		panic("forest node " + n.String() + " has shape " + shape.String())
	}
	return shape
}

// AllChoices returns every recorded case of a Choice node, in recording order.
func (f *Forest) AllChoices(n Node) []Node {
	f.shapeOf(n, ShapeChoice)
	cases := f.choices[n]
	result := make([]Node, len(cases))
	for i, k := range cases {
		result[i] = Node{k, n.Start, n.End}
	}
	return result
}

// OneChoice returns the single recorded case of a Choice node.
// The bool result is false if more than one case is recorded.
func (f *Forest) OneChoice(n Node) (Node, bool) {
	all := f.AllChoices(n)
	if len(all) == 0 {
		panic("no choice recorded for forest node " + n.String())
	}
	if len(all) > 1 {
		return Node{}, false
	}
	return all[0], true
}

// AllSplits returns the (left, right) child pair for every recorded split
// point of a Split node, in recording order.
func (f *Forest) AllSplits(n Node) [][2]Node {
	shape := f.shapeOf(n, ShapeSplit)
	points := f.splits[n]
	result := make([][2]Node, len(points))
	for i, s := range points {
		result[i] = [2]Node{
			{shape.A, n.Start, s},
			{shape.B, s, n.End},
		}
	}
	return result
}

// OneSplit returns the single recorded (left, right) child pair of a Split
// node. The bool result is false if more than one split point is recorded.
func (f *Forest) OneSplit(n Node) ([2]Node, bool) {
	all := f.AllSplits(n)
	if len(all) == 0 {
		panic("no split recorded for forest node " + n.String())
	}
	if len(all) > 1 {
		return [2]Node{}, false
	}
	return all[0], true
}

// UnpackOpt returns the present child of an Opt node. An Opt node spanning an
// empty range is the absent case.
func (f *Forest) UnpackOpt(n Node) (Node, bool) {
	shape := f.shapeOf(n, ShapeOpt)
	if n.Start == n.End {
		return Node{}, false
	}
	return Node{shape.A, n.Start, n.End}, true
}

// UnpackAlias resolves Alias forwarding; other nodes pass through unchanged.
func (f *Forest) UnpackAlias(n Node) Node {
	shape := f.refl.ShapeOf(n.Kind)
	if shape.Tag == ShapeAlias {
		return Node{shape.A, n.Start, n.End}
	}
	return n
}
