package profiler_test

import (
	"bytes"
	"testing"

	"github.com/luthersystems/kiln/lisp/x/profiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCallgrind(t *testing.T) {
	rt := newRuntime(t)
	p := profiler.NewCallgrindProfiler(rt)
	assert.Error(t, p.Enable(), "no output set")

	var buf bytes.Buffer
	require.NoError(t, p.SetWriter(&buf))
	require.NoError(t, p.Enable())
	loadTestLisp(t, rt)
	require.NoError(t, p.Complete())

	out := buf.String()
	assert.Contains(t, out, "version: 1\n")
	assert.Contains(t, out, "events: Time_(ns) Memory_(bytes)")
	assert.Contains(t, out, ") ENTRYPOINT")
	assert.Contains(t, out, ") recurse-it")
	assert.Contains(t, out, ") add-it-again")
	assert.Contains(t, out, "summary ")
}

func TestCallgrindDocLabels(t *testing.T) {
	rt := newRuntime(t)
	p := profiler.NewCallgrindProfiler(rt, profiler.WithDocFilter(), profiler.WithDocLabeler())
	var buf bytes.Buffer
	require.NoError(t, p.SetWriter(&buf))
	require.NoError(t, p.Enable())
	loadTestLisp(t, rt)
	require.NoError(t, p.Complete())

	out := buf.String()
	assert.Contains(t, out, "Add_It_Again")
	assert.NotContains(t, out, "recurse-it")
}
