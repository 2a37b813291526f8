// Copyright © 2018 The ELPS authors

package libutil

import (
	"github.com/luthersystems/kiln/lisp"
	"github.com/pkg/errors"
)

// Function returns a Builtin with overloads fns.
func Function(name string, fns ...interface{}) *Builtin {
	return &Builtin{name: name, fns: fns}
}

// FunctionDoc returns a documented Builtin with overloads fns.
func FunctionDoc(name string, docs string, fns ...interface{}) *Builtin {
	return &Builtin{name: name, docs: docs, fns: fns}
}

// Builtin is a library function waiting to be registered with a runtime.
type Builtin struct {
	name string
	docs string
	fns  []interface{}
}

func (fun *Builtin) Name() string {
	return fun.name
}

func (fun *Builtin) Docstring() string {
	return fun.docs
}

// Define registers builtins in rt under the qualified names pkg:name.  Every
// library function is pure.
func Define(rt *lisp.Runtime, pkg string, builtins []*Builtin) error {
	for _, fun := range builtins {
		b, err := rt.DefineBuiltin(pkg+":"+fun.name, true, fun.fns...)
		if err != nil {
			return errors.Wrapf(err, "package %s", pkg)
		}
		b.Doc = fun.docs
	}
	return nil
}
