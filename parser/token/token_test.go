// Copyright © 2018 The ELPS authors

package token

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeString(t *testing.T) {
	used := make(map[string]Type)
	for typ := Type(0); typ < numTokenTypes; typ++ {
		str := typ.String()
		if !assert.NotEmpty(t, str, "token type %d", typ) {
			continue
		}
		if prev, ok := used[str]; ok {
			t.Errorf("token types %d and %d share string %q", prev, typ, str)
		}
		used[str] = typ
	}
	assert.Equal(t, "invalid", numTokenTypes.String())
}

func TestTypeClosing(t *testing.T) {
	for open, want := range map[Type]Type{
		PAREN_L:   PAREN_R,
		BRACKET_L: BRACKET_R,
		BRACE_L:   BRACE_R,
	} {
		typ, ok := open.Closing()
		assert.True(t, ok, open.String())
		assert.Equal(t, want, typ, open.String())
	}
	for _, typ := range []Type{PAREN_R, QUOTE, SYMBOL} {
		_, ok := typ.Closing()
		assert.False(t, ok, typ.String())
	}
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "f.lisp", (&Location{File: "f.lisp", Pos: -1}).String())
	assert.Equal(t, "f.lisp[12]", (&Location{File: "f.lisp", Pos: 12}).String())
	assert.Equal(t, "f.lisp:3", (&Location{File: "f.lisp", Pos: 12, Line: 3}).String())
	assert.Equal(t, "f.lisp:3:5", (&Location{File: "f.lisp", Pos: 12, Line: 3, Col: 5}).String())
}

func TestLocationError(t *testing.T) {
	loc := &Location{File: "f.lisp", Line: 2, Col: 1}
	err := Errorf(loc, "unmatched %s", PAREN_R)
	assert.Equal(t, "f.lisp:2:1: unmatched )", err.Error())
	assert.Same(t, loc, err.Source)

	base := errors.New("base")
	wrapped := &LocationError{Err: base, Source: loc}
	assert.True(t, errors.Is(wrapped, base))
}
