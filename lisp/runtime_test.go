// Copyright © 2018 The ELPS authors

package lisp_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/luthersystems/kiln/kilntest"
	"github.com/luthersystems/kiln/lisp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestLoadInteractive(t *testing.T) {
	var stderr bytes.Buffer
	rt, err := kilntest.NewRuntime(t, lisp.WithStderr(&stderr), lisp.WithBatchMode(false))
	require.NoError(t, err)

	v, err := rt.LoadString("interactive", "(if)\n(+ 1 2)\n(goto nowhere)\n")
	require.Error(t, err)
	assert.Equal(t, 3, v)
	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	for _, e := range errs {
		assert.IsType(t, &lisp.CompileError{}, e)
	}
	lines := strings.Split(strings.TrimSpace(stderr.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[1], "goto target not found: nowhere")
}

func TestLoadBatch(t *testing.T) {
	var stderr bytes.Buffer
	rt, err := kilntest.NewRuntime(t, lisp.WithStderr(&stderr))
	require.NoError(t, err)

	v, err := rt.LoadString("batch", "(def x 1)\n(goto nowhere)\n(setq x 2)\n")
	require.Error(t, err)
	assert.Nil(t, v)
	assert.Len(t, multierr.Errors(err), 1)
	assert.Empty(t, stderr.String())

	// forms before the error ran, forms after it did not
	v, err = rt.LoadString("check", "x")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestLoadRuntimeErrorStops(t *testing.T) {
	rt, err := kilntest.NewRuntime(t, lisp.WithBatchMode(false))
	require.NoError(t, err)

	_, err = rt.LoadString("stop", "(def y 1)\n(error :halt \"stop\")\n(setq y 2)\n")
	require.Error(t, err)
	c, ok := err.(lisp.Condition)
	require.True(t, ok, "unexpected error type %T", err)
	assert.Equal(t, "halt", c.ConditionName())
	assert.Equal(t, "stop", c.ErrorMessage())

	v, err := rt.LoadString("check", "y")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestHostInterop(t *testing.T) {
	rt, err := kilntest.NewRuntime(t)
	require.NoError(t, err)

	_, err = rt.DefineBuiltin("fetch", false, func(key string) (string, error) {
		if key == "" {
			return "", fmt.Errorf("empty key")
		}
		return "v:" + key, nil
	})
	require.NoError(t, err)
	_, err = rt.DefineBuiltin("explode", false, func() int {
		panic("boom")
	})
	require.NoError(t, err)

	v, err := rt.LoadString("ok", `(fetch "a")`)
	require.NoError(t, err)
	assert.Equal(t, "v:a", v)

	_, err = rt.LoadString("fail", `(fetch "")`)
	var herr *lisp.HostInteropError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, lisp.CondHostError, herr.ConditionName())
	assert.Equal(t, "empty key", herr.ErrorMessage())
	assert.Equal(t, "fetch", herr.Name)

	v, err = rt.LoadString("catch", `(try (fetch "") (catch (e) (error-condition e)))`)
	require.NoError(t, err)
	assert.Equal(t, ":host-error", lisp.Repr(v))

	_, err = rt.LoadString("panic", `(explode)`)
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, "panic: boom", herr.ErrorMessage())

	_, err = rt.LoadString("dispatch", `(fetch 1)`)
	var derr *lisp.DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "no suitable method found for fetch (Integer)", derr.ErrorMessage())
}

func TestStackOverflow(t *testing.T) {
	rt, err := kilntest.NewRuntime(t, lisp.WithMaxNestingDepth(50))
	require.NoError(t, err)

	_, err = rt.LoadString("deep", "(defun down (n) (+ 1 (down n)))\n(down 0)\n")
	var lerr *lisp.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, lisp.CondStackOverflow, lerr.Condition)
	assert.Equal(t, "nesting depth exceeded maximum: 51", lerr.Message)
	assert.NotNil(t, lerr.Stack)

	// the thread recovers once the error has unwound
	v, err := rt.LoadString("shallow", "(+ 1 2)")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestErrorTrace(t *testing.T) {
	rt, err := kilntest.NewRuntime(t, lisp.WithDebug(true))
	require.NoError(t, err)

	src := "(defun check (n) (if (< n 0) (error :negative \"bad\") n))\n(check -1)\n"
	_, err = rt.LoadString("trace.lisp", src)
	require.Error(t, err)
	c, ok := err.(lisp.Condition)
	require.True(t, ok, "unexpected error type %T", err)
	assert.Equal(t, "negative", c.ConditionName())

	tr := c.ErrorTrace()
	require.NotNil(t, tr.Frame)
	require.NotNil(t, tr.Stack)

	var env bytes.Buffer
	_, err = lisp.DumpEnvironment(&env, tr.Frame, tr.Specials)
	require.NoError(t, err)
	assert.Contains(t, env.String(), "n = -1")

	var stack bytes.Buffer
	_, err = tr.Stack.DebugPrint(&stack)
	require.NoError(t, err)
	assert.Contains(t, stack.String(), "Stack Trace [")
	assert.Contains(t, stack.String(), "check")

	var full bytes.Buffer
	_, err = lisp.WriteTrace(&full, c)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(full.String(), "trace.lisp:1:"), full.String())
	assert.Contains(t, full.String(), "Environment:")
}

func TestAbort(t *testing.T) {
	rt, err := kilntest.NewRuntime(t)
	require.NoError(t, err)

	_, err = rt.LoadString("abort", "(defun leave () (abort) 1)\n(leave)\n")
	assert.IsType(t, &lisp.AbortSignal{}, err)
	assert.True(t, lisp.IsControlSignal(err))

	// abort is not a condition and cannot be caught
	_, err = rt.LoadString("abort", "(try (abort) (catch (e) 1))")
	assert.IsType(t, &lisp.AbortSignal{}, err)
}

func TestEvalInEnvironment(t *testing.T) {
	rt, err := kilntest.NewRuntime(t)
	require.NoError(t, err)

	v, err := rt.LoadString("env", "(let ((a 40)) (the-environment))")
	require.NoError(t, err)
	env, ok := v.(*lisp.Environment)
	require.True(t, ok, "unexpected value %T", v)

	form := lisp.List(rt.Intern("+"), rt.Intern("a"), 2)
	v, err = rt.Eval(form, env)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = rt.Eval(lisp.List(rt.Intern("+"), 1, 2), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = rt.Eval(rt.Intern("never-bound"), nil)
	var uerr *lisp.UndefinedReferenceError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "never-bound", uerr.Symbol.Name)
}
