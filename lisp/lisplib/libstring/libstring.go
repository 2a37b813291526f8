// Copyright © 2018 The ELPS authors

package libstring

import (
	"strings"

	"github.com/luthersystems/kiln/lisp"
	"github.com/luthersystems/kiln/lisp/lisplib/internal/libutil"
)

// DefaultPackageName is the package name used by LoadPackage.
const DefaultPackageName = "string"

// LoadPackage adds the string package to rt
func LoadPackage(rt *lisp.Runtime) error {
	return libutil.Define(rt, DefaultPackageName, builtins)
}

var builtins = []*libutil.Builtin{
	libutil.Function("lower", strings.ToLower),
	libutil.Function("upper", strings.ToUpper),
	libutil.FunctionDoc("split",
		`Returns a list of the substrings of str separated by sep.`,
		builtinSplit),
	libutil.FunctionDoc("join",
		`Returns the strings in seq concatenated with sep between them.`,
		builtinJoin),
	libutil.Function("trim", strings.TrimSpace, strings.Trim),
	libutil.Function("contains?", strings.Contains),
	libutil.FunctionDoc("repeat",
		`Returns str repeated n times.  n must not be negative.`,
		builtinRepeat),
}

func builtinSplit(str string, sep string) *lisp.Cons {
	parts := strings.Split(str, sep)
	items := make([]lisp.Value, len(parts))
	for i, s := range parts {
		items[i] = s
	}
	return lisp.List(items...)
}

func builtinJoin(t *lisp.Thread, seq lisp.Value, sep string) (string, error) {
	items, err := t.Items(seq)
	if err != nil {
		return "", err
	}
	strs := make([]string, len(items))
	for i, x := range items {
		s, ok := x.(string)
		if !ok {
			return "", t.Errorf(nil, lisp.CondTypeError, "element %d is not a string: %s", i, lisp.Repr(x))
		}
		strs[i] = s
	}
	return strings.Join(strs, sep), nil
}

func builtinRepeat(t *lisp.Thread, str string, n int) (string, error) {
	if n < 0 {
		return "", t.Errorf(nil, lisp.CondArgumentError, "negative repeat count: %d", n)
	}
	return strings.Repeat(str, n), nil
}
