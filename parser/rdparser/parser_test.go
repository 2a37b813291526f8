// Copyright © 2018 The ELPS authors

package rdparser

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/luthersystems/kiln/lisp"
	"github.com/luthersystems/kiln/parser/lexer"
	"github.com/luthersystems/kiln/parser/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser(t *testing.T) {
	tests := []struct {
		source string
		output string
	}{
		{`0`, `0`},
		{`12`, `12`},
		{`0.3`, `0.3`},
		{`1.0`, `1.0`},
		{`-1`, `-1`},
		{`-1.5`, `-1.5`},
		{`#x1F`, `31`},
		{`#o17`, `15`},
		{`true`, `true`},
		{`false`, `false`},
		{`null`, `null`},
		{`abc`, `abc`},
		{`abc?`, `abc?`},
		{`xyz:abc?`, `xyz:abc?`},
		{`:key`, `:key`},
		{`$depth`, `$depth`},
		{`'xyz`, `'xyz`},
		{`"xyz"`, `"xyz"`},
		{`"x\nyz"`, `"x\nyz"`},
		{`"x	yz"`, `"x\tyz"`},
		{`""`, `""`},
		{`""""""`, `""`},
		{`"""\n"""`, `"\\n"`},
		{`()`, `null`},
		{`'()`, `'null`},
		{`(1 2 3)`, `(1 2 3)`},
		{`(1 "abc" '(x y z))`, `(1 "abc" '(x y z))`},
		{`(1 "abc" [x y z])`, `(1 "abc" [x y z])`},
		{`{:a 1 "b" [2]}`, `{:a 1 "b" [2]}`},
		{"`(a ,b ,@c)", "`(a ,b ,@c)"},
		{`(abc :def)`, `(abc :def)`},
	}

	for i, test := range tests {
		name := fmt.Sprintf("test%d", i)
		s := token.NewScanner(name, strings.NewReader(test.source))
		p := New(lisp.NewRegistry(), s)
		exprs, err := p.ParseProgram()
		if !assert.NoError(t, err, "test %d", i) {
			continue
		}
		if !assert.Len(t, exprs, 1, "test %d", i) {
			continue
		}
		testSourceLocation(t, exprs[0])
		assert.Equal(t, test.output, lisp.Repr(exprs[0]), "test %d", i)
	}
}

func TestComments(t *testing.T) {
	tests := []struct {
		source string
		output string
	}{
		{`(1 2 3) ; A comment`, `(1 2 3)`},
		{`	; A comment
			(1 "abc" '(x y z))`, `(1 "abc" '(x y z))`},
		{`(1 "abc" ; A comment
			'(x y z))`, `(1 "abc" '(x y z))`},
		{`(1 "abc" ; A comment
			)`, `(1 "abc")`},
		{`#!/usr/bin/env kiln
(1 2)`, `(1 2)`},
	}

	for i, test := range tests {
		name := fmt.Sprintf("test%d", i)
		p := New(lisp.NewRegistry(), token.NewScanner(name, strings.NewReader(test.source)))
		exprs, err := p.ParseProgram()
		if !assert.NoError(t, err, "test %d", i) {
			continue
		}
		if assert.Len(t, exprs, 1, "test %d", i) {
			assert.Equal(t, test.output, lisp.Repr(exprs[0]), "test %d", i)
		}
	}
}

func TestInterning(t *testing.T) {
	reg := lisp.NewRegistry()
	p := New(reg, token.NewScanner("test", strings.NewReader(`(a b a)`)))
	exprs, err := p.ParseProgram()
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	items := exprs[0].(*lisp.Cons).Slice()
	assert.Same(t, items[0], items[2])
	assert.Same(t, reg.Intern("b"), items[1])
}

func TestSourceLocation(t *testing.T) {
	p := New(lisp.NewRegistry(), token.NewScanner("test", strings.NewReader("(a\n  (b c))")))
	exprs, err := p.ParseProgram()
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	outer := exprs[0].(*lisp.Cons)
	assert.Equal(t, "test:1:1", outer.Source.String())
	inner := outer.Nth(1).(*lisp.Cons)
	assert.Equal(t, "test:2:3", inner.Source.String())
}

func testSourceLocation(t *testing.T, v lisp.Value) {
	switch v := v.(type) {
	case *lisp.Cons:
		assert.NotNil(t, v.Source, "form missing source location: %s", lisp.Repr(v))
		for _, x := range v.Slice() {
			testSourceLocation(t, x)
		}
	case *lisp.Vector:
		for _, x := range v.Items {
			testSourceLocation(t, x)
		}
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		source string
		line   int
		errmsg string
	}{
		{`(1 2 3`, 1, `unmatched (`},
		{`[1 2 3`, 1, `unmatched [`},
		{`(1 2 3))`, 1, `unexpected token: )`},
		{`{:a}`, 1, `odd number of elements`},
		{`(1 2 3)
		0
		#xABC
		#xabc
		#o123
		#o9
`, 6, `invalid octal literal character: '9'`},
		{`(1 2 3)
		0
		#xABC
		#xDEADBEEG
		#o123
		#o9
`, 4, `invalid hexadecimal literal character: 'G'`},
		{`(1 2 3)
		134.
		"abc"`, 2, `invalid floating point literal starting: 134.`},
		{`#!/usr/bin/env kiln
		(1 2 3)
		0
		#xABC
		#!/usr/bin/env foo
		#o123
		#o9
`, 5, `unexpected token: #!`},
		{`a:b:c`, 1, `invalid symbol "a:b:c"`},
		{`(a b`, 1, `unmatched (`},
	}

	for i, test := range tests {
		name := fmt.Sprintf("test%d", i)
		p := New(lisp.NewRegistry(), token.NewScanner(name, strings.NewReader(test.source)))
		_, err := p.ParseProgram()
		if !assert.Error(t, err, "test %d", i) {
			continue
		}
		var locErr *token.LocationError
		if assert.True(t, errors.As(err, &locErr), "test %d: %v", i, err) {
			assert.Equal(t, name, locErr.Source.File, "test %d", i)
			assert.Equal(t, test.line, locErr.Source.Line, "test %d", i)
		}
		assert.Contains(t, err.Error(), test.errmsg, "test %d", i)
	}
}

func TestInteractive(t *testing.T) {
	lex := lexer.New(token.NewScanner("repl", strings.NewReader("(+ 1\n 2) x")))
	p := NewInteractive(lisp.NewRegistry(), lex.ReadToken)
	p.SetPrompts("> ", "  ")
	assert.Equal(t, "> ", p.Prompt())

	v, err := p.Parse()
	require.NoError(t, err)
	assert.Equal(t, "(+ 1 2)", lisp.Repr(v))

	v, err = p.Parse()
	require.NoError(t, err)
	assert.Equal(t, "x", lisp.Repr(v))

	_, err = p.Parse()
	assert.Equal(t, io.EOF, err)
	assert.False(t, p.IsParsing())
}
