// Copyright © 2018 The ELPS authors

package lisp

import (
	"github.com/luthersystems/kiln/parser/token"
)

// Frame holds the variables of one activation of a block scope that uses
// framed storage.  Frames are shared by the activation and every closure
// created inside it.
type Frame struct {
	Values []Value
	Names  []*Symbol // diagnostics only
	Link   *Frame
}

func newFrame(names []*Symbol, link *Frame) *Frame {
	return &Frame{
		Values: make([]Value, len(names)),
		Names:  names,
		Link:   link,
	}
}

func (f *Frame) up(depth int) *Frame {
	for ; depth > 0; depth-- {
		f = f.Link
	}
	return f
}

// SpecialBinding is a dynamic binding of a special variable.  Bindings form
// a chain owned by a single thread.
type SpecialBinding struct {
	Symbol *Symbol
	Value  Value
	Next   *SpecialBinding
}

func (b *SpecialBinding) find(sym *Symbol) *SpecialBinding {
	for ; b != nil; b = b.Next {
		if b.Symbol == sym {
			return b
		}
	}
	return nil
}

func (b *SpecialBinding) clone() *SpecialBinding {
	if b == nil {
		return nil
	}
	head := &SpecialBinding{Symbol: b.Symbol, Value: b.Value}
	tail := head
	for b = b.Next; b != nil; b = b.Next {
		tail.Next = &SpecialBinding{Symbol: b.Symbol, Value: b.Value}
		tail = tail.Next
	}
	return head
}

// ControlState is a snapshot of the parts of a thread that dynamic extents
// modify.  An extent saves the state on entry and restores it on every exit
// path.
type ControlState struct {
	Specials *SpecialBinding
	Stack    *CallFrame
	Frame    *Frame
	Depth    int
}

// Thread is a logical thread of evaluation.  A thread must only be used by
// one goroutine at a time.
type Thread struct {
	Runtime  *Runtime
	Specials *SpecialBinding
	Stack    *CallFrame
	Frame    *Frame
	Depth    int

	locals []Value
	gen    *Generator
}

// NewThread returns a thread with no bindings.
func (rt *Runtime) NewThread() *Thread {
	return &Thread{Runtime: rt}
}

// Save returns a snapshot of the thread's control state.
func (t *Thread) Save() ControlState {
	return ControlState{
		Specials: t.Specials,
		Stack:    t.Stack,
		Frame:    t.Frame,
		Depth:    t.Depth,
	}
}

// Restore resets the thread's control state to s.
func (t *Thread) Restore(s ControlState) {
	t.Specials = s.Specials
	t.Stack = s.Stack
	t.Frame = s.Frame
	t.Depth = s.Depth
}

// Spawn returns a new thread for the same runtime.  The new thread starts
// with a copy of the special variable bindings of t so that later
// assignments in either thread are not visible to the other.
func (t *Thread) Spawn() *Thread {
	return &Thread{
		Runtime:  t.Runtime,
		Specials: t.Specials.clone(),
	}
}

// enter pushes a call stack entry and increments the nesting depth.  The
// caller is responsible for restoring a saved state.
func (t *Thread) enter(name string, src *token.Location, marker bool) error {
	max := t.Runtime.MaxNestingDepth
	if max > 0 && t.Depth >= max {
		err := &Error{
			Condition: CondStackOverflow,
			Message:   (&StackOverflowError{Depth: t.Depth + 1}).Error(),
		}
		err.capture(t, src)
		return err
	}
	t.Depth++
	t.Stack = t.Stack.push(name, src, marker)
	return nil
}

// bindSpecial pushes a dynamic binding.
func (t *Thread) bindSpecial(sym *Symbol, v Value) {
	t.Specials = &SpecialBinding{Symbol: sym, Value: v, Next: t.Specials}
}

// SpecialValue returns the current value of a special variable and whether
// it has any value.
func (t *Thread) SpecialValue(sym *Symbol) (Value, bool) {
	if b := t.Specials.find(sym); b != nil {
		return b.Value, true
	}
	return sym.Value, sym.IsDefined()
}

func (t *Thread) setSpecial(sym *Symbol, v Value) error {
	if b := t.Specials.find(sym); b != nil {
		b.Value = v
		return nil
	}
	return sym.CheckedValue(v)
}

// Errorf returns an Error carrying the thread's current context.
func (t *Thread) Errorf(src *token.Location, condition string, format string, v ...interface{}) *Error {
	err := Errorf(condition, format, v...)
	err.capture(t, src)
	return err
}

// raise attaches the current context to err if it is a condition that has
// none.  Control signals pass through untouched.
func (t *Thread) raise(err error, src *token.Location) error {
	if c, ok := err.(Condition); ok {
		c.ErrorTrace().capture(t, src)
	}
	return err
}

// returnLabel identifies one compiled lambda body as the target of return
// and recur.
type returnLabel struct {
	name string
}

// tagLabel identifies a goto target in one compiled tagbody.
type tagLabel struct {
	name  Value
	index int
	body  *tagBody
}

// tagBody identifies one compiled tagbody.
type tagBody struct {
	labels []*tagLabel
}

type returnSignal struct {
	label *returnLabel
	value Value
}

func (s *returnSignal) Error() string {
	return "return from " + s.label.name + " outside of its extent"
}

type recurSignal struct {
	label *returnLabel
	args  []Value
}

func (s *recurSignal) Error() string {
	return "recur to " + s.label.name + " outside of its extent"
}

type gotoSignal struct {
	tag *tagLabel
}

func (s *gotoSignal) Error() string {
	return "goto " + Repr(s.tag.name) + " outside of its tagbody"
}

// abandonLoadSignal stops the load of the current file.
type abandonLoadSignal struct {
	value Value
}

func (s *abandonLoadSignal) Error() string {
	return "return outside of a load"
}

// AbortSignal unwinds to the enclosing interactive debugging level.
type AbortSignal struct{}

func (*AbortSignal) Error() string {
	return "abort outside of a debugging level"
}

// IsControlSignal returns true if err is used to implement non-local
// control transfer rather than reporting a failure.
func IsControlSignal(err error) bool {
	switch err.(type) {
	case *returnSignal, *recurSignal, *gotoSignal, *abandonLoadSignal, *AbortSignal:
		return true
	}
	return false
}
