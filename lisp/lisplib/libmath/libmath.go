// Copyright © 2018 The ELPS authors

package libmath

import (
	"math"

	"github.com/luthersystems/kiln/lisp"
	"github.com/luthersystems/kiln/lisp/lisplib/internal/libutil"
)

// DefaultPackageName is the package name used by LoadPackage.
const DefaultPackageName = "math"

// LoadPackage adds the math package to rt
func LoadPackage(rt *lisp.Runtime) error {
	if err := rt.Intern(DefaultPackageName + ":pi").DefineConstant(math.Pi); err != nil {
		return err
	}
	return libutil.Define(rt, DefaultPackageName, builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("sqrt",
		`Returns the square root of number as a float. Accepts int or
		float arguments.`,
		math.Sqrt),
	libutil.FunctionDoc("pow",
		`Returns x raised to the power y as a float.`,
		math.Pow),
	libutil.FunctionDoc("floor",
		`Returns the largest value not greater than number.  Integers are
		returned unchanged.`,
		identityInt, math.Floor),
	libutil.FunctionDoc("ceil",
		`Returns the smallest value not less than number.  Integers are
		returned unchanged.`,
		identityInt, math.Ceil),
}

func identityInt(x int) int {
	return x
}
