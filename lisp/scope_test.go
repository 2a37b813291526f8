// Copyright © 2018 The ELPS authors

package lisp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockScope(parent *AnalysisScope, lambda bool) *AnalysisScope {
	s := &AnalysisScope{Parent: parent, IsBlockScope: true, IsLambda: lambda}
	if lambda {
		s.unit = &unitInfo{}
	}
	return s
}

func TestDeclare(t *testing.T) {
	reg := NewRegistry()
	root := newRootScope(true)

	_, err := root.Declare(reg.Intern("x"), 0)
	require.Error(t, err)
	assert.Equal(t, "declaration outside of a block scope: x", err.(*CompileError).ErrorMessage())

	b := blockScope(root, false)
	for _, name := range []string{PlaceholderSymbol, ":k", "$d"} {
		_, err := b.Declare(reg.Intern(name), 0)
		assert.Error(t, err, name)
	}

	x, err := b.Declare(reg.Intern("x"), VarReadonly)
	require.NoError(t, err)
	assert.True(t, x.Readonly)
	assert.Equal(t, 0, x.Index)
	_, err = b.Declare(reg.Intern("x"), 0)
	require.Error(t, err)
	assert.Equal(t, "duplicate declaration of x: x", err.(*CompileError).ErrorMessage())

	// native slots are numbered across the blocks of one activation
	inner := blockScope(b, false)
	y, err := inner.Declare(reg.Intern("y"), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, y.Index)
	assert.Equal(t, 2, root.currentUnit().nlocals)

	// framed slots are numbered within their frame
	framed := blockScope(inner, false)
	framed.Framed = true
	z, err := framed.Declare(reg.Intern("z"), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, z.Index)
	assert.Equal(t, []*Symbol{reg.Intern("z")}, framed.Names)
	assert.Equal(t, 2, root.currentUnit().nlocals)
}

func TestResolveCapture(t *testing.T) {
	reg := NewRegistry()
	x := reg.Intern("x")

	outer := blockScope(newRootScope(true), false)
	_, err := outer.Declare(x, 0)
	require.NoError(t, err)

	res := outer.Resolve(x)
	assert.Equal(t, NativeStorage, res.Class)
	assert.Empty(t, outer.Captured)
	assert.False(t, outer.mustRecompile())

	// a reference from inside a lambda marks the variable captured
	lam := blockScope(outer, true)
	assert.True(t, lam.IsShadowed(x))
	assert.Empty(t, outer.Captured)
	res = lam.Resolve(x)
	assert.Equal(t, NativeStorage, res.Class)
	assert.True(t, outer.Captured[x])
	assert.True(t, outer.mustRecompile())
	assert.Equal(t, []string{"x"}, outer.capturedNames())

	// the recompiled scope is framed and the lambda keeps its frame chain
	outer = blockScope(newRootScope(true), false)
	outer.Framed = true
	_, err = outer.Declare(x, 0)
	require.NoError(t, err)
	middle := blockScope(outer, false)
	middle.Framed = true
	lam = blockScope(middle, true)
	res = lam.Resolve(x)
	assert.Equal(t, FramedStorage, res.Class)
	assert.Equal(t, 1, res.Depth)
	assert.True(t, lam.UsesFramedVariables)
	assert.False(t, outer.mustRecompile())
}

func TestResolveSpecialAndGlobal(t *testing.T) {
	reg := NewRegistry()
	b := blockScope(newRootScope(true), false)

	res := b.Resolve(reg.Intern("$depth"))
	assert.Equal(t, DynamicStorage, res.Class)
	assert.True(t, b.UsesDynamicVariables)

	res = b.Resolve(reg.Intern("car"))
	assert.Equal(t, GlobalStorage, res.Class)
	assert.Nil(t, res.Var)
	assert.False(t, b.IsShadowed(reg.Intern("car")))
}

func TestScopeNavigation(t *testing.T) {
	reg := NewRegistry()
	root := newRootScope(true)
	tb := blockScope(root, false)
	tb.IsTagBodyScope = true
	top := &tagLabel{name: reg.Intern("top")}
	tb.Tags = map[Value]*tagLabel{reg.Intern("top"): top}

	block := blockScope(tb, false)
	assert.Same(t, top, block.FindTag(reg.Intern("top")))
	assert.Nil(t, block.FindTag(reg.Intern("bottom")))
	assert.Same(t, block, block.BlockScope())
	assert.Same(t, root, block.FileScope())
	assert.Nil(t, block.FindLambda())

	lam := blockScope(block, true)
	assert.Nil(t, lam.FindTag(reg.Intern("top")))
	assert.Same(t, lam, lam.FindLambda())
	assert.Same(t, root, lam.FileScope())

	plain := &AnalysisScope{Parent: lam, IsLambda: true}
	assert.Nil(t, plain.BlockScope())
	assert.Nil(t, newRootScope(false).FileScope())

	child := &AnalysisScope{Parent: block}
	child.requireFrames()
	assert.True(t, block.mustRecompile())
	assert.True(t, tb.mustRecompile())
}

func TestClosureFrames(t *testing.T) {
	rt := StandardRuntime()
	n := rt.Intern("n")
	let := rt.Intern("let")
	lambda := rt.Intern("lambda")

	// (let ((n 1)) (lambda () n))
	v, err := rt.Eval(List(let, List(List(n, 1)), List(lambda, nil, n)), nil)
	require.NoError(t, err)
	fn, ok := v.(*Lambda)
	require.True(t, ok, "unexpected value %T", v)
	require.NotNil(t, fn.Frame)
	assert.Equal(t, []Value{1}, fn.Frame.Values)
	assert.Equal(t, []*Symbol{n}, fn.Frame.Names)

	// (let ((n 1)) (lambda () 2))
	v, err = rt.Eval(List(let, List(List(n, 1)), List(lambda, nil, 2)), nil)
	require.NoError(t, err)
	fn, ok = v.(*Lambda)
	require.True(t, ok, "unexpected value %T", v)
	assert.Nil(t, fn.Frame)

	// ((let ((n 1)) (lambda () n)))
	v, err = rt.Eval(List(List(let, List(List(n, 1)), List(lambda, nil, n))), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestSignatureString(t *testing.T) {
	reg := NewRegistry()
	list := List(
		reg.Intern("a"),
		reg.Intern(OptArgSymbol), List(reg.Intern("b"), 10),
		reg.Intern(VarArgSymbol), reg.Intern("r"),
	)
	sig, err := parseSignature(list, false)
	require.NoError(t, err)
	assert.Equal(t, "(a &optional (b 10) &rest r)", sig.String())
	assert.Len(t, sig.Params(), 3)

	_, err = parseSignature(List(reg.Intern(VarArgSymbol), reg.Intern("r"), reg.Intern("s")), false)
	assert.Error(t, err)
	_, err = parseSignature(List(List(reg.Intern("x"), reg.Intern("Integer"))), false)
	assert.Error(t, err)
	sig, err = parseSignature(List(List(reg.Intern("x"), reg.Intern("Integer"))), true)
	require.NoError(t, err)
	assert.Equal(t, "((x Integer))", sig.String())
}

func TestLambdaCatchesReturn(t *testing.T) {
	rt := StandardRuntime()
	x := rt.Intern("x")
	lambda, ret, recur := rt.Intern("lambda"), rt.Intern("return"), rt.Intern("recur")

	eval := func(form Value) *Lambda {
		v, err := rt.Eval(form, nil)
		require.NoError(t, err)
		fn, ok := v.(*Lambda)
		require.True(t, ok, "unexpected value %T", v)
		return fn
	}

	// (lambda (x) x)
	assert.False(t, eval(List(lambda, List(x), x)).proto.catches)
	// (lambda (x) (return x))
	fn := eval(List(lambda, List(x), List(ret, x)))
	assert.True(t, fn.proto.catches)
	v, err := rt.main.Apply(fn, []Value{7}, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	// (lambda (x) (if x (recur ()) 1))
	assert.True(t, eval(List(lambda, List(x), List(rt.Intern("if"), x, List(recur, nil), 1))).proto.catches)
	// (lambda () (lambda () (return 1)))
	outer := eval(List(lambda, nil, List(lambda, nil, List(ret, 1))))
	assert.False(t, outer.proto.catches)
	v, err = rt.main.Apply(outer, nil, nil)
	require.NoError(t, err)
	inner, ok := v.(*Lambda)
	require.True(t, ok, "unexpected value %T", v)
	assert.True(t, inner.proto.catches)
}
