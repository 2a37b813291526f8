// Copyright © 2018 The ELPS authors

package lisp

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/luthersystems/kiln/parser/token"
	"github.com/pkg/errors"
)

// Condition is implemented by every error that lisp code may catch with
// try.  Control signals do not implement Condition.
type Condition interface {
	error
	// ConditionName classifies the error, e.g. CondCompileError.
	ConditionName() string
	// ErrorMessage returns the message without location or classification.
	ErrorMessage() string
	// ErrorTrace returns the execution context captured when the error was
	// raised.
	ErrorTrace() *Trace
}

// Trace is the execution context of a thread at the point an error was
// raised.
type Trace struct {
	Source   *token.Location
	Stack    *CallFrame
	Frame    *Frame
	Specials *SpecialBinding
}

// ErrorTrace returns tr.  Condition implementations embed a Trace.
func (tr *Trace) ErrorTrace() *Trace {
	return tr
}

func (tr *Trace) capture(t *Thread, src *token.Location) {
	if tr.Source == nil {
		tr.Source = src
	}
	if t == nil || tr.Stack != nil || tr.Frame != nil {
		return
	}
	tr.Stack = t.Stack
	tr.Frame = t.Frame
	tr.Specials = t.Specials
}

func (tr *Trace) prefix() string {
	if tr.Source != nil {
		return tr.Source.String() + ": "
	}
	return ""
}

// Error is a runtime error raised by throw, the error builtin or a failing
// operation.
type Error struct {
	Trace
	Condition string
	Message   string
	Data      Value
}

// Errorf returns an Error with the given condition.
func Errorf(condition string, format string, v ...interface{}) *Error {
	return &Error{
		Condition: condition,
		Message:   fmt.Sprintf(format, v...),
	}
}

func (e *Error) Error() string {
	fun := e.Stack.FunName()
	switch {
	case e.Condition != CondError:
		return fmt.Sprintf("%s%s: %s", e.prefix(), e.Condition, e.Message)
	case fun != "":
		return fmt.Sprintf("%s%s: %s", e.prefix(), fun, e.Message)
	}
	return e.prefix() + e.Message
}

func (e *Error) ConditionName() string { return e.Condition }
func (e *Error) ErrorMessage() string  { return e.Message }

// CompileError reports a malformed form.  It is fatal to the top-level form
// being compiled.
type CompileError struct {
	Trace
	Form    Value
	Message string
}

func compileErrorf(form Value, format string, v ...interface{}) *CompileError {
	err := &CompileError{
		Form:    form,
		Message: fmt.Sprintf(format, v...),
	}
	err.Source = sourceOf(form)
	return err
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%scompile-error: %s: %s", e.prefix(), e.Message, Repr(e.Form))
}

func (e *CompileError) ConditionName() string { return CondCompileError }
func (e *CompileError) ErrorMessage() string  { return e.Message + ": " + Repr(e.Form) }

// UndefinedReferenceError is raised when a symbol without a value is used.
type UndefinedReferenceError struct {
	Trace
	Symbol *Symbol
}

func (e *UndefinedReferenceError) Error() string {
	return fmt.Sprintf("%sundefined-symbol: %s", e.prefix(), e.Symbol.Name)
}

func (e *UndefinedReferenceError) ConditionName() string { return CondUndefinedSymbol }
func (e *UndefinedReferenceError) ErrorMessage() string {
	return "unbound symbol: " + e.Symbol.Name
}

// DispatchError is raised when no method of a generic function or overload
// of a host function accepts the arguments of a call.
type DispatchError struct {
	Trace
	Name     string
	ArgTypes []string
	Reason   string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%sno-applicable-method: %s", e.prefix(), e.ErrorMessage())
}

func (e *DispatchError) ConditionName() string { return CondNoApplicableMethod }
func (e *DispatchError) ErrorMessage() string {
	reason := e.Reason
	if reason == "" {
		reason = "no applicable method"
	}
	return fmt.Sprintf("%s for %s (%s)", reason, e.Name, strings.Join(e.ArgTypes, " "))
}

// HostInteropError wraps an error raised by a host function.
type HostInteropError struct {
	Trace
	Name string
	Err  error
}

func wrapHostError(name string, err error) *HostInteropError {
	if herr, ok := err.(*HostInteropError); ok {
		return herr
	}
	return &HostInteropError{Name: name, Err: errors.Cause(err)}
}

func (e *HostInteropError) Error() string {
	return fmt.Sprintf("%shost-error: %s: %v", e.prefix(), e.Name, e.Err)
}

func (e *HostInteropError) ConditionName() string { return CondHostError }
func (e *HostInteropError) ErrorMessage() string  { return e.Err.Error() }
func (e *HostInteropError) Unwrap() error         { return e.Err }

// AsCondition converts err to a Condition.  Host errors that are not
// conditions are wrapped in a HostInteropError.
func AsCondition(err error) Condition {
	if c, ok := err.(Condition); ok {
		return c
	}
	return &HostInteropError{Name: "host", Err: err}
}

// WriteTrace writes err, the environment captured with it and its stack
// trace to w.
func WriteTrace(w io.Writer, e error) (int, error) {
	bw := bufio.NewWriter(w)
	var n int
	var err error
	wrote := func(_n int, _err error) bool {
		n += _n
		err = _err
		return err == nil
	}
	if !wrote(bw.WriteString(e.Error())) || !wrote(bw.WriteString("\n")) {
		return n, err
	}
	c, ok := e.(Condition)
	if ok {
		tr := c.ErrorTrace()
		if tr.Frame != nil || tr.Specials != nil {
			if !wrote(DumpEnvironment(bw, tr.Frame, tr.Specials)) {
				return n, err
			}
		}
		if tr.Stack != nil {
			if !wrote(tr.Stack.DebugPrint(bw)) {
				return n, err
			}
		}
	}
	return n, bw.Flush()
}
