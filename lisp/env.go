// Copyright © 2018 The ELPS authors

package lisp

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/luthersystems/kiln/parser/token"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// Environment is a captured lexical environment: the runtime frame chain
// together with the analysis scope describing it.  Code evaluated in an
// environment sees the variables that were visible where it was captured.
type Environment struct {
	Frame *Frame
	Scope *AnalysisScope
}

func (env *Environment) String() string {
	return "#<environment>"
}

// Bindings returns the variables of env by name.  Inner bindings shadow
// outer ones.
func (env *Environment) Bindings() *Map {
	m := NewMap()
	for f := env.Frame; f != nil; f = f.Link {
		for i, sym := range f.Names {
			if _, ok := m.Get(sym); !ok {
				_ = m.Set(sym, f.Values[i])
			}
		}
	}
	return m
}

// Eval evaluates form in env on the runtime's main thread.
func (rt *Runtime) Eval(form Value, env *Environment) (Value, error) {
	return rt.main.Eval(form, env)
}

// Eval compiles and evaluates form.  If env is not nil the form is compiled
// in the scope of env and evaluated with its frame.  Control signals that
// escape the form are reported as errors.
func (t *Thread) Eval(form Value, env *Environment) (v Value, err error) {
	c := t.newCompiler()
	var scope *AnalysisScope
	var frame *Frame
	if env != nil {
		scope = &AnalysisScope{Parent: env.Scope, IsLambda: true, unit: &unitInfo{}}
		frame = env.Frame
	} else {
		scope = newRootScope(false)
	}
	code, err := c.compileUnit(form, scope)
	if err != nil {
		return nil, err
	}
	saved := t.Save()
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, t.Errorf(sourceOf(form), CondPanic, "%v", r)
		}
		t.Restore(saved)
	}()
	t.Frame = frame
	v, err = code(t)
	if err != nil {
		return nil, t.escapedSignal(err, sourceOf(form))
	}
	return v, nil
}

// escapedSignal converts a control signal that left its extent into an
// error.  Aborts pass through to the interactive level that handles them.
func (t *Thread) escapedSignal(err error, src *token.Location) error {
	switch err.(type) {
	case *returnSignal, *recurSignal, *gotoSignal, *abandonLoadSignal:
		return t.Errorf(src, CondControlError, "%v", err)
	}
	return err
}

// DumpEnvironment writes the variables of a frame chain and a special
// binding chain to w, innermost first.
func DumpEnvironment(w io.Writer, frame *Frame, specials *SpecialBinding) (int, error) {
	var buf bytes.Buffer
	buf.WriteString("Environment:\n")
	depth := 0
	for f := frame; f != nil; f = f.Link {
		fmt.Fprintf(&buf, "  frame %d:\n", depth)
		for i, sym := range f.Names {
			buf.WriteString(indent.String(bindingLine(sym.Name, f.Values[i]), 4))
		}
		depth++
	}
	if specials != nil {
		buf.WriteString("  dynamic:\n")
		for b := specials; b != nil; b = b.Next {
			buf.WriteString(indent.String(bindingLine(b.Symbol.Name, b.Value), 4))
		}
	}
	return w.Write(buf.Bytes())
}

func bindingLine(name string, v Value) string {
	return wordwrap.String(name+" = "+Describe(v), 76) + "\n"
}

// Describe returns a readable representation of v.  Host values that have
// no lisp representation are dumped with their Go structure.
func Describe(v Value) string {
	if isLispValue(v) {
		return Repr(v)
	}
	return strings.TrimSpace(spew.Sdump(v))
}

func isLispValue(v Value) bool {
	switch v.(type) {
	case nil, bool, int, float64, string, *Symbol, *Cons, *Vector, *Map,
		*Lambda, *MultiMethod, *Builtin, *Environment, *Task, *Generator, *Type, voidValue:
		return true
	case Condition:
		return true
	}
	return false
}
