package compile

import (
	"github.com/ava12/gllx/forest"
	"github.com/ava12/gllx/grammar"
)

// Inst is one automaton instruction. The set is exactly the low-level runtime
// surface the compiler emits against: call/return scheduling, the single-slot
// save carry, forest recording, and conditional input consumption.
type Inst interface {
	isInst()
	String() string
}

// Consume attempts to consume one pattern match from the input; on success
// the runtime continues with Then, on failure the parse thread dies.
type Consume struct {
	Pat  grammar.Pat
	Then []Inst
}

// Call suspends the current thread, remembers Ret as the return address, and
// enters Callee.
type Call struct {
	Callee, Ret *Label
}

// Spawn schedules Label as an independent continuation of the current thread.
type Spawn struct {
	Label *Label
}

// Ret returns to the address recorded by the matching Call. Nothing may
// follow it in a fragment.
type Ret struct{}

// Save stores the last completed node of the given kind in the runtime's
// single carry slot, surviving across a call boundary.
type Save struct {
	Kind forest.Kind
}

// TakeSaved empties the carry slot; the following AddSplit reads it.
type TakeSaved struct{}

// AddChoice records into the forest that the Choice-shaped Parent node was
// produced by the Choice case.
type AddChoice struct {
	Parent, Choice forest.Kind
}

// AddSplit records into the forest a division of the Split-shaped Parent
// node at the boundary of the node taken from the carry slot.
type AddSplit struct {
	Parent forest.Kind
}

func (*Consume) isInst()   {}
func (*Call) isInst()      {}
func (*Spawn) isInst()     {}
func (*Ret) isInst()       {}
func (*Save) isInst()      {}
func (*TakeSaved) isInst() {}
func (*AddChoice) isInst() {}
func (*AddSplit) isInst()  {}

func (i *Consume) String() string {
	return "consume " + i.Pat.String()
}

func (i *Call) String() string {
	return "call " + i.Callee.Name + " ret " + i.Ret.Name
}

func (i *Spawn) String() string {
	return "spawn " + i.Label.Name
}

func (i *Ret) String() string {
	return "ret"
}

func (i *Save) String() string {
	return "save " + i.Kind.String()
}

func (i *TakeSaved) String() string {
	return "take-saved"
}

func (i *AddChoice) String() string {
	return "add-choice " + i.Parent.String() + " <- " + i.Choice.String()
}

func (i *AddSplit) String() string {
	return "add-split " + i.Parent.String()
}
