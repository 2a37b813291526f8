// Copyright © 2018 The ELPS authors

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/luthersystems/kiln/lisp"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withSettings overrides configuration keys for the duration of a test.
func withSettings(t *testing.T, settings map[string]interface{}) {
	for key, v := range settings {
		old := viper.Get(key)
		viper.Set(key, v)
		t.Cleanup(func() { viper.Set(key, old) })
	}
}

func testRuntime(t *testing.T) (*lisp.Runtime, *bytes.Buffer) {
	var out bytes.Buffer
	rt, err := newRuntime(&out, &out, true)
	require.NoError(t, err)
	return rt, &out
}

func TestRunExpressions(t *testing.T) {
	rt, _ := testRuntime(t)
	var buf bytes.Buffer
	err := runSources(rt, []string{"(+ 1 2)", "(defun f () 1) (f)", `(string:upper "x")`}, true, true, &buf)
	require.NoError(t, err)
	assert.Equal(t, "3\n1\n\"X\"\n", buf.String())

	buf.Reset()
	err = runSources(rt, []string{"(+ 1 2)"}, true, false, &buf)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestRunFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.lisp")
	b := filepath.Join(dir, "b.lisp")
	require.NoError(t, os.WriteFile(a, []byte("(def x 41)\nx\n"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("(println \"loading b\")\n(+ x 1)\n"), 0644))

	rt, out := testRuntime(t)
	var buf bytes.Buffer
	require.NoError(t, runSources(rt, []string{a, b}, false, true, &buf))
	assert.Equal(t, "41\n42\n", buf.String())
	assert.Equal(t, "loading b\n", out.String())
}

func TestRunError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.lisp")
	src := "(defun check (n)\n  (if (< n 0) (error :negative \"bad value\" n) n))\n(check -1)\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	withSettings(t, map[string]interface{}{"debug": true, "color": "never"})
	rt, _ := testRuntime(t)
	err := runSources(rt, []string{path}, false, false, &bytes.Buffer{})
	require.Error(t, err)
	lerr, ok := err.(*lisp.Error)
	require.True(t, ok, "%T", err)
	assert.Equal(t, "negative", lerr.Condition)
	assert.Equal(t, -1, lerr.Data)

	var buf bytes.Buffer
	renderError(&buf, err)
	got := buf.String()
	assert.Contains(t, got, "error: error: negative: bad value")
	assert.Contains(t, got, "(if (< n 0) (error :negative \"bad value\" n) n))")
	assert.Contains(t, got, "= note: in check at "+path+":3:1")
	assert.Contains(t, got, "Environment:")
	assert.Contains(t, got, "n = -1")
	assert.Contains(t, got, "Stack Trace")
}

func TestRunConfiguredRuntime(t *testing.T) {
	withSettings(t, map[string]interface{}{
		"strict":            true,
		"optimize":          true,
		"reader":            "regex",
		"max-nesting-depth": 50,
	})
	rt, out := testRuntime(t)
	assert.True(t, rt.Strict)
	assert.True(t, rt.Optimize)
	assert.Equal(t, 50, rt.MaxNestingDepth)

	_, err := rt.LoadString("test", "(defun f () undefined-thing)")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "warning: possibly undefined symbol: undefined-thing")

	_, err = rt.LoadString("test", "(defun down (n) (down (+ n 1))) (down 0)")
	require.Error(t, err)
	assert.Equal(t, "stack-overflow", err.(lisp.Condition).ConditionName())

	withSettings(t, map[string]interface{}{"reader": "yacc"})
	_, err = newRuntime(out, out, true)
	assert.ErrorContains(t, err, "unknown reader")
}

func TestRunPreload(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[project]\npreload = [\"boot.lisp\"]\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "boot.lisp"), []byte("(defun greet () \"hi\")"), 0644))
	m, err := LoadManifest(dir)
	require.NoError(t, err)

	manifest = m
	t.Cleanup(func() { manifest = nil })
	rt, _ := testRuntime(t)
	v, err := rt.LoadString("test", "(greet)")
	require.NoError(t, err)
	assert.Equal(t, "hi", v)
}

func TestProfiling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "callgrind.out")
	rt, _ := testRuntime(t)
	p := &profiling{callgrind: path}
	complete, err := p.start(rt)
	require.NoError(t, err)
	_, err = rt.LoadString("test", "(defun sq (x) (* x x)) (sq 3)")
	require.NoError(t, err)
	require.NoError(t, complete())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "creator: kiln")
	assert.Contains(t, string(b), "sq")

	p = &profiling{callgrind: path, cpu: path}
	_, err = p.start(rt)
	assert.Error(t, err)

	complete, err = (&profiling{}).start(rt)
	require.NoError(t, err)
	assert.NoError(t, complete())
}
