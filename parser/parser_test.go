// Copyright © 2024 The ELPS authors

package parser

import (
	"strings"
	"testing"

	"github.com/luthersystems/kiln/lisp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReader_Standard(t *testing.T) {
	r := NewReader()
	exprs, err := r.Read(lisp.NewRegistry(), "test", strings.NewReader("(+ 1 2)"))
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	form, ok := exprs[0].(*lisp.Cons)
	require.True(t, ok)
	assert.Equal(t, 3, form.Len())
	require.NotNil(t, form.Source)
	assert.Equal(t, "test", form.Source.File)
}

func TestNewReader_Combinator(t *testing.T) {
	r := NewReader(WithCombinatorReader())
	exprs, err := r.Read(lisp.NewRegistry(), "test", strings.NewReader("; comment\n(+ 1 2)"))
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	assert.Equal(t, "(+ 1 2)", lisp.Repr(exprs[0]))
}

func TestNewReader_Agree(t *testing.T) {
	src := "(defun f (x &optional y) `(,x ,@y)) [1 2.5 \"s\"] {:k -1}"
	reg := lisp.NewRegistry()
	a, err := NewReader().Read(reg, "test", strings.NewReader(src))
	require.NoError(t, err)
	b, err := NewReader(WithCombinatorReader()).Read(reg, "test", strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.True(t, lisp.Equal(a[i], b[i]), "expression %d: %s != %s", i, lisp.Repr(a[i]), lisp.Repr(b[i]))
	}
}

func TestNewReader_Int(t *testing.T) {
	r := NewReader()
	exprs, err := r.Read(lisp.NewRegistry(), "test", strings.NewReader("42"))
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	assert.Equal(t, 42, exprs[0])
}

func TestNewReader_ParseError(t *testing.T) {
	for _, r := range []lisp.Reader{NewReader(), NewReader(WithCombinatorReader())} {
		_, err := r.Read(lisp.NewRegistry(), "test", strings.NewReader("(unclosed"))
		assert.Error(t, err)
	}
}
