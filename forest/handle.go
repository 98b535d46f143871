package forest

// Handle is a reference to one forest node together with the forest it lives
// in. Handles are small values; copying one is free and restarting any
// traversal only needs a fresh copy.
type Handle struct {
	Node   Node
	Forest *Forest
}

// Ambiguity reports that a forest region records more than one
// interpretation. It carries the handle needed to enumerate the alternatives;
// it is an expected, recoverable outcome, not a parse failure.
type Ambiguity struct {
	Handle Handle
}

func (a *Ambiguity) Error() string {
	desc := a.Handle.Forest.refl.DescOf(a.Handle.Node.Kind)
	return "more than one interpretation of " + desc + " at " + a.Handle.Node.String()
}

// One resolves alias forwarding and returns the single recorded
// interpretation: the one case of a Choice node, or a Split node with one
// recorded split point. It fails with a *Ambiguity error when the node
// records more than one case or split; other nodes pass through unchanged.
func (h Handle) One() (Handle, error) {
	n := h.Forest.UnpackAlias(h.Node)
	switch h.Forest.refl.ShapeOf(n.Kind).Tag {
	case ShapeChoice:
		one, ok := h.Forest.OneChoice(n)
		if !ok {
			return Handle{}, &Ambiguity{Handle{n, h.Forest}}
		}
		return Handle{one, h.Forest}, nil
	case ShapeSplit:
		_, ok := h.Forest.OneSplit(n)
		if !ok {
			return Handle{}, &Ambiguity{Handle{n, h.Forest}}
		}
	}
	return Handle{n, h.Forest}, nil
}

// All enumerates every recorded interpretation of the node: each case of a
// Choice node, or the node itself otherwise.
func (h Handle) All() []Handle {
	n := h.Forest.UnpackAlias(h.Node)
	if h.Forest.refl.ShapeOf(n.Kind).Tag != ShapeChoice {
		return []Handle{{n, h.Forest}}
	}

	cases := h.Forest.AllChoices(n)
	result := make([]Handle, len(cases))
	for i, c := range cases {
		result[i] = Handle{c, h.Forest}
	}
	return result
}

// ListIter reads a repetition-typed forest node back as a sequence.
// One algorithm serves `X*`, `X+`, and all separated and trailing-separator
// variants: the grammar-level distinctions were already erased into
// Split/Opt shapes when the grammar was compiled.
type ListIter struct {
	h    Handle
	amb  *Ambiguity
	done bool
}

// List starts reading the handle as a sequence. The handle must reference a
// repetition node (Opt-wrapped for `X*`, Split-shaped for `X+`).
func (h Handle) List() *ListIter {
	return &ListIter{h: h}
}

// Next yields the next unambiguous element. When the forest records more than
// one way to split off the current head, Next stops and the ambiguity is
// reported by Ambiguity; resolving it is the caller's decision.
func (it *ListIter) Next() (Handle, bool) {
	if it.done {
		return Handle{}, false
	}

	heads, cons := it.h.allListHeads()
	if !cons {
		it.done = true
		return Handle{}, false
	}

	if len(heads) > 1 {
		it.amb = &Ambiguity{it.h}
		it.done = true
		return Handle{}, false
	}

	it.h = heads[0].rest
	return heads[0].elem, true
}

// Ambiguity returns the terminal ambiguity marker, or nil if iteration ended
// (or is still running) without one. The marker wraps the remaining sequence
// handle, so callers can enumerate the alternatives through allListHeads
// semantics rather than guess.
func (it *ListIter) Ambiguity() *Ambiguity {
	return it.amb
}

// Elems collects all unambiguous elements, stopping at the first ambiguity.
func (h Handle) Elems() ([]Handle, *Ambiguity) {
	it := h.List()
	elems := make([]Handle, 0)
	for {
		e, ok := it.Next()
		if !ok {
			return elems, it.Ambiguity()
		}
		elems = append(elems, e)
	}
}

type listHead struct {
	elem, rest Handle
}

// allListHeads enumerates every recorded way to split off the first element.
// The second result is false for the empty sequence.
func (h Handle) allListHeads() ([]listHead, bool) {
	f := h.Forest
	n := h.Node

	// A maybe-empty list is always optional, peel that off first.
	if f.refl.ShapeOf(n.Kind).Tag == ShapeOpt {
		child, ok := f.UnpackOpt(n)
		if !ok {
			return nil, false
		}
		n = child
	}

	// n is now a "more" node, i.e. a cons. Its tail is always Opt-shaped:
	// empty means the list ends here; a tail of the node's own kind is the
	// unseparated continuation; anything else starts with a separator and is
	// split once more to drop it.
	heads := make([]listHead, 0, 1)
	for _, pair := range f.AllSplits(n) {
		elem := Handle{pair[0], f}
		rest := pair[1]

		tail, ok := f.UnpackOpt(rest)
		switch {
		case !ok:
			heads = append(heads, listHead{elem, Handle{rest, f}})
		case tail.Kind == n.Kind:
			heads = append(heads, listHead{elem, Handle{tail, f}})
		default:
			for _, sepPair := range f.AllSplits(tail) {
				heads = append(heads, listHead{elem, Handle{sepPair[1], f}})
			}
		}
	}
	return heads, true
}
