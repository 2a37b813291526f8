// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"
)

// Reader abstracts a parser implementation so that it may be implemented in a
// separate package as an optional/swappable component.
type Reader interface {
	// Read the contents of r and return the sequence of terms that it
	// contains.  Symbols are interned with in.
	Read(in Interner, name string, r io.Reader) ([]Value, error)
}

// Loader evaluates a parsed source stream on a thread.
type Loader func(t *Thread) (Value, error)

// TextLoader parses a text stream using r and returns a Loader which evaluates
// the stream's expressions when called.  The reader will be invoked only once.
func TextLoader(rt *Runtime, r Reader, name string, stream io.Reader) (Loader, error) {
	forms, err := r.Read(rt.Registry, name, stream)
	if err != nil {
		return nil, err
	}
	return func(t *Thread) (Value, error) {
		return t.LoadForms(name, forms)
	}, nil
}

// Load reads and evaluates the contents of r on the main thread.
func (rt *Runtime) Load(name string, r io.Reader) (Value, error) {
	return rt.main.Load(name, r)
}

// LoadString evaluates the source text src.
func (rt *Runtime) LoadString(name string, src string) (Value, error) {
	return rt.main.Load(name, strings.NewReader(src))
}

// LoadFile evaluates the file at path.
func (rt *Runtime) LoadFile(path string) (Value, error) {
	return rt.main.LoadFile(path)
}

// LoadFile evaluates the file at path.
func (t *Thread) LoadFile(path string) (Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return t.Load(path, f)
}

// Load reads and evaluates the contents of r.
func (t *Thread) Load(name string, r io.Reader) (Value, error) {
	if t.Runtime.Reader == nil {
		return nil, fmt.Errorf("no reader configured")
	}
	forms, err := t.Runtime.Reader.Read(t.Runtime.Registry, name, r)
	if err != nil {
		return nil, err
	}
	return t.LoadForms(name, forms)
}

// LoadForms compiles and evaluates each top-level form in order and returns
// the value of the last one.  Each form is compiled in a fresh file scope
// only after the forms before it have run, so macros and definitions take
// effect for the rest of the load.
//
// In batch mode a compile error stops the load.  Otherwise compile errors
// are written to the runtime's Stderr, the load continues with the next
// form and the errors are returned combined.  A return at file scope stops
// the load with its value.
func (t *Thread) LoadForms(name string, forms []Value) (v Value, err error) {
	rt := t.Runtime
	rt.loaderLog.Infof("loading %s (%d forms)", name, len(forms))
	saved := t.Save()
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, t.Errorf(nil, CondPanic, "%v", r)
		}
		t.Restore(saved)
	}()
	if err := t.enter(name, nil, true); err != nil {
		return nil, err
	}
	c := t.newCompiler()
	var result Value
	var errs error
	for _, form := range forms {
		code, err := c.compileUnit(form, newRootScope(true))
		if err != nil {
			if _, ok := err.(*CompileError); !ok || rt.Batch {
				return nil, multierr.Append(errs, err)
			}
			fmt.Fprintln(rt.Stderr, err)
			errs = multierr.Append(errs, err)
			continue
		}
		t.Frame = nil
		v, err := code(t)
		if err != nil {
			if sig, ok := err.(*abandonLoadSignal); ok {
				return sig.value, errs
			}
			return nil, multierr.Append(errs, t.escapedSignal(err, sourceOf(form)))
		}
		if IsVoid(v) {
			continue
		}
		result = v
	}
	return result, errs
}
