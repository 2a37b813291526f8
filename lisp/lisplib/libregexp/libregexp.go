// Copyright © 2018 The ELPS authors

package libregexp

import (
	"regexp"

	"github.com/luthersystems/kiln/lisp"
	"github.com/luthersystems/kiln/lisp/lisplib/internal/libutil"
)

// DefaultPackageName is the package name used by LoadPackage.
const DefaultPackageName = "regexp"

// CondInvalidPattern is the condition of errors raised for patterns that do
// not compile.
const CondInvalidPattern = "invalid-regexp-pattern"

// LoadPackage adds the regexp package to rt
func LoadPackage(rt *lisp.Runtime) error {
	return libutil.Define(rt, DefaultPackageName, builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("regexp?",
		`Returns true if v is a compiled regular expression.`,
		builtinIsRegexp),
	libutil.FunctionDoc("compile",
		`Compiles a pattern in Go RE2 syntax.  An invalid pattern raises
		invalid-regexp-pattern.`,
		builtinCompile),
	libutil.FunctionDoc("pattern",
		`Returns the source pattern of a compiled regular expression.`,
		func(re *regexp.Regexp) string { return re.String() }),
	libutil.FunctionDoc("match?",
		`Returns true if re matches text.  re may be a compiled regular
		expression or a pattern string.`,
		func(re *regexp.Regexp, text string) bool { return re.MatchString(text) },
		withPattern(func(re *regexp.Regexp, text string) lisp.Value { return re.MatchString(text) })),
	libutil.FunctionDoc("find-all",
		`Returns a list of the successive matches of re in text.`,
		func(re *regexp.Regexp, text string) *lisp.Cons { return findAll(re, text) },
		withPattern(func(re *regexp.Regexp, text string) lisp.Value { return findAll(re, text) })),
	libutil.FunctionDoc("replace",
		`Returns text with every match of re replaced by repl.  Inside repl
		$1 refers to the first submatch.`,
		func(re *regexp.Regexp, text string, repl string) string { return re.ReplaceAllString(text, repl) }),
}

func builtinIsRegexp(v lisp.Value) bool {
	_, ok := v.(*regexp.Regexp)
	return ok
}

func builtinCompile(t *lisp.Thread, pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, t.Errorf(nil, CondInvalidPattern, "%v", err)
	}
	return re, nil
}

// withPattern returns an overload that compiles its first argument before
// calling fn.
func withPattern(fn func(re *regexp.Regexp, text string) lisp.Value) func(*lisp.Thread, string, string) (lisp.Value, error) {
	return func(t *lisp.Thread, pattern string, text string) (lisp.Value, error) {
		re, err := builtinCompile(t, pattern)
		if err != nil {
			return nil, err
		}
		return fn(re, text), nil
	}
}

func findAll(re *regexp.Regexp, text string) *lisp.Cons {
	matches := re.FindAllString(text, -1)
	items := make([]lisp.Value, len(matches))
	for i, m := range matches {
		items[i] = m
	}
	return lisp.List(items...)
}
