// Copyright © 2018 The ELPS authors

// Package lisplib is used to conveniently load the standard library for the
// kiln runtime
package lisplib

import (
	"github.com/luthersystems/kiln/lisp"
	"github.com/luthersystems/kiln/lisp/lisplib/libbase64"
	"github.com/luthersystems/kiln/lisp/lisplib/libmath"
	"github.com/luthersystems/kiln/lisp/lisplib/libregexp"
	"github.com/luthersystems/kiln/lisp/lisplib/libstring"
)

// LoadLibrary defines the standard library functions in rt.
func LoadLibrary(rt *lisp.Runtime) error {
	for _, load := range []func(*lisp.Runtime) error{
		libmath.LoadPackage,
		libstring.LoadPackage,
		libregexp.LoadPackage,
		libbase64.LoadPackage,
	} {
		if err := load(rt); err != nil {
			return err
		}
	}
	return nil
}
