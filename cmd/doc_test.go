// Copyright © 2018 The ELPS authors

package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDoc(t *testing.T) {
	rt, _ := testRuntime(t)
	_, err := rt.LoadString("test", `
(defun square (x) "Returns x multiplied by itself." (* x x))
(defun bare (a &optional b) a)
(defmulti area (shape) "Computes the area of a shape.")
(def limit 10)`)
	require.NoError(t, err)

	tests := []struct {
		name string
		want []string
	}{
		{"defun", []string{"defun  [special form]"}},
		{"string:join", []string{"string:join  [builtin]"}},
		{"square", []string{"square (x)  [function]", "\n    Returns x multiplied by itself.\n"}},
		{"bare", []string{"bare (a &optional b)  [function]", "No documentation."}},
		{"area", []string{"area (shape)  [generic function]", "Computes the area of a shape."}},
		{"limit", []string{"limit  [variable]"}},
	}
	for _, test := range tests {
		var buf bytes.Buffer
		require.NoError(t, writeDoc(&buf, rt.Intern(test.name)), test.name)
		for _, want := range test.want {
			assert.Contains(t, buf.String(), want, test.name)
		}
	}
}

func TestWriteDocList(t *testing.T) {
	rt, _ := testRuntime(t)
	var buf bytes.Buffer
	require.NoError(t, writeDocList(&buf, rt.Registry, "string:"))
	assert.Contains(t, buf.String(), "string:join")
	assert.Contains(t, buf.String(), "string:upper")
	assert.NotContains(t, buf.String(), "math:")

	assert.Error(t, writeDocList(&buf, rt.Registry, "nothing-here:"))
}

func TestWriteGuide(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeGuide(&buf, "lang"))
	assert.Contains(t, buf.String(), "# The kiln language")

	buf.Reset()
	require.NoError(t, writeGuide(&buf, "debugging"))
	assert.Contains(t, buf.String(), "$error")

	err := writeGuide(&buf, "missing")
	assert.EqualError(t, err, "no guide named missing (guides: debugging, lang)")
}
