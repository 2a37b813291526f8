// Copyright © 2018 The ELPS authors

package lisp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlState(t *testing.T) {
	rt := StandardRuntime()
	th := rt.NewThread()
	d := rt.Intern("$d")

	saved := th.Save()
	require.NoError(t, th.enter("f", nil, false))
	th.bindSpecial(d, 1)
	th.Frame = newFrame([]*Symbol{rt.Intern("x")}, nil)
	assert.Equal(t, 1, th.Depth)
	v, ok := th.SpecialValue(d)
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	th.Restore(saved)
	assert.Equal(t, 0, th.Depth)
	assert.Nil(t, th.Stack)
	assert.Nil(t, th.Frame)
	_, ok = th.SpecialValue(d)
	assert.False(t, ok)
}

func TestSpawn(t *testing.T) {
	rt := StandardRuntime()
	th := rt.NewThread()
	d := rt.Intern("$d")
	th.bindSpecial(d, 1)

	child := th.Spawn()
	require.NoError(t, child.setSpecial(d, 2))
	v, _ := th.SpecialValue(d)
	assert.Equal(t, 1, v)
	v, _ = child.SpecialValue(d)
	assert.Equal(t, 2, v)
	assert.Nil(t, child.Stack)
	assert.Equal(t, 0, child.Depth)
}

func TestNestingLimit(t *testing.T) {
	rt := StandardRuntime()
	rt.MaxNestingDepth = 3
	th := rt.NewThread()
	for i := 0; i < 3; i++ {
		require.NoError(t, th.enter("f", nil, false))
	}
	err := th.enter("f", nil, false)
	require.Error(t, err)
	lerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, CondStackOverflow, lerr.Condition)
	assert.Equal(t, "nesting depth exceeded maximum: 4", lerr.Message)
	assert.Equal(t, 3, lerr.Stack.Len())

	rt.MaxNestingDepth = 0
	assert.NoError(t, th.enter("f", nil, false))
}

func TestCallFrame(t *testing.T) {
	var stack *CallFrame
	stack = stack.push("load", nil, true)
	assert.Equal(t, "", stack.FunName())
	stack = stack.push("outer", nil, false)
	stack = stack.push("expand", nil, true)
	assert.Equal(t, "outer", stack.FunName())
	assert.Equal(t, 3, stack.Len())
	assert.Len(t, stack.Frames(), 3)

	var buf bytes.Buffer
	_, err := stack.DebugPrint(&buf)
	require.NoError(t, err)
	expect := "Stack Trace [3 frames -- entrypoint last]:\n" +
		"  height 2: expand [marker]\n" +
		"  height 1: outer\n" +
		"  height 0: load [marker]\n"
	assert.Equal(t, expect, buf.String())
}

func TestDumpEnvironment(t *testing.T) {
	rt := StandardRuntime()
	outer := newFrame([]*Symbol{rt.Intern("a")}, nil)
	outer.Values[0] = 1
	inner := newFrame([]*Symbol{rt.Intern("b"), rt.Intern("c")}, outer)
	inner.Values[0] = "two"
	inner.Values[1] = List(3, 4)
	specials := &SpecialBinding{Symbol: rt.Intern("$x"), Value: 5}

	var buf bytes.Buffer
	_, err := DumpEnvironment(&buf, inner, specials)
	require.NoError(t, err)
	expect := "Environment:\n" +
		"  frame 0:\n" +
		"    b = \"two\"\n" +
		"    c = (3 4)\n" +
		"  frame 1:\n" +
		"    a = 1\n" +
		"  dynamic:\n" +
		"    $x = 5\n"
	assert.Equal(t, expect, buf.String())

	env := &Environment{Frame: inner}
	assert.Equal(t, "{b \"two\" c (3 4) a 1}", Repr(env.Bindings()))
}

func TestGotoKeepsControlState(t *testing.T) {
	rt := StandardRuntime()
	var depths, heights []int
	_, err := rt.DefineBuiltin("record-state", false, func(th *Thread) {
		depths = append(depths, th.Depth)
		heights = append(heights, th.Stack.Len())
	})
	require.NoError(t, err)
	rt.Intern("$d").DefineVariable(0)

	i, d, top := rt.Intern("i"), rt.Intern("$d"), rt.Intern("top")
	sym := rt.Intern
	// (let ((i 0))
	//   (tagbody
	//    top
	//     (let (($d i)) (record-state))
	//     (setq i (+ i 1))
	//     (if (< i 4) (goto top)))
	//   i)
	form := List(sym("let"), List(List(i, 0)),
		List(sym("tagbody"),
			top,
			List(sym("let"), List(List(d, i)), List(sym("record-state"))),
			List(sym("setq"), i, List(sym("+"), i, 1)),
			List(sym("if"), List(sym("<"), i, 4), List(sym("goto"), top))),
		i)
	v, err := rt.Eval(form, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, v)

	require.Len(t, depths, 4)
	for n := 1; n < 4; n++ {
		assert.Equal(t, depths[0], depths[n], "depth at iteration %d", n)
		assert.Equal(t, heights[0], heights[n], "stack height at iteration %d", n)
	}
	assert.Equal(t, 0, rt.main.Depth)
	assert.Equal(t, 0, rt.Intern("$d").Value)
}
