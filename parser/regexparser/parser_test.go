// Copyright © 2018 The ELPS authors

package regexparser

import (
	"errors"
	"strings"
	"testing"

	"github.com/luthersystems/kiln/lisp"
	"github.com/luthersystems/kiln/parser/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		source string
		output string
	}{
		{`12`, `12`},
		{`-3`, `-3`},
		{`0.25`, `0.25`},
		{`#x10`, `16`},
		{`abc`, `abc`},
		{`string:upper`, `string:upper`},
		{`:key`, `:key`},
		{`"a b"`, `"a b"`},
		{`"""raw"""`, `"raw"`},
		{`true`, `true`},
		{`()`, `null`},
		{`(1 (2 3) ; note
		  4)`, `(1 (2 3) 4)`},
		{`[1 x]`, `[1 x]`},
		{`{:a 1}`, `{:a 1}`},
		{`'(a b)`, `'(a b)`},
		{"`(a ,b ,@c)", "`(a ,b ,@c)"},
	}
	for i, test := range tests {
		vals, err := Parse(lisp.NewRegistry(), "test", []byte(test.source))
		if !assert.NoError(t, err, "test %d", i) {
			continue
		}
		if assert.Len(t, vals, 1, "test %d", i) {
			assert.Equal(t, test.output, lisp.Repr(vals[0]), "test %d", i)
		}
	}
}

func TestParseProgram(t *testing.T) {
	src := "; header\n(a 1)\n\n  (b 2)\n"
	vals, err := NewReader().Read(lisp.NewRegistry(), "prog", strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, vals, 2)
	second := vals[1].(*lisp.Cons)
	assert.Equal(t, "prog:4:3", second.Source.String())
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"(1 2 3",
		"(1 2))",
		"{:a}",
		"a:b:c",
	} {
		_, err := Parse(lisp.NewRegistry(), "test", []byte(src))
		if !assert.Error(t, err, "source: %s", src) {
			continue
		}
		var locErr *token.LocationError
		assert.True(t, errors.As(err, &locErr), "source: %s", src)
	}
}
