// Copyright © 2018 The ELPS authors

package lisp

import (
	"strings"

	"github.com/luthersystems/kiln/parser/token"
)

// Code is a compiled form.  Evaluation errors, including the signals used
// for non-local control transfer, are returned rather than panicked.
type Code func(t *Thread) (Value, error)

func constant(v Value) Code {
	return func(*Thread) (Value, error) {
		return v, nil
	}
}

// compiler holds the settings of one load unit.  Settings start from the
// runtime defaults and are adjusted by declare forms.
type compiler struct {
	rt       *Runtime
	t        *Thread
	strict   bool
	debug    bool
	optimize bool

	expansions int
	warned     map[*Symbol]bool
	defining   map[*Symbol]bool
}

func (t *Thread) newCompiler() *compiler {
	rt := t.Runtime
	return &compiler{
		rt:       rt,
		t:        t,
		strict:   rt.Strict,
		debug:    rt.Debug,
		optimize: rt.Optimize,
		defining: make(map[*Symbol]bool),
	}
}

// compileUnit compiles a top-level form in scope.  The returned code
// allocates the native locals of the unit on each run.
func (c *compiler) compileUnit(form Value, scope *AnalysisScope) (Code, error) {
	c.warned = nil
	c.expansions = 0
	code, err := c.compile(form, scope)
	if err != nil {
		return nil, err
	}
	unit := scope.currentUnit()
	return func(t *Thread) (Value, error) {
		saved := t.locals
		t.locals = make([]Value, unit.nlocals)
		v, err := code(t)
		t.locals = saved
		return v, err
	}, nil
}

func (c *compiler) compile(form Value, scope *AnalysisScope) (Code, error) {
	switch x := form.(type) {
	case *Symbol:
		return c.compileSymbol(x, scope, nil), nil
	case *Cons:
		return c.compileList(x, scope)
	case *Vector:
		return c.compileVector(x, scope)
	case *Map:
		return c.compileMap(x, scope)
	}
	return constant(form), nil
}

func (c *compiler) warnOnce(sym *Symbol, format string) {
	if c.warned == nil {
		c.warned = make(map[*Symbol]bool)
	}
	if c.warned[sym] {
		return
	}
	c.warned[sym] = true
	c.rt.Warnf(format, sym.Name)
}

func (c *compiler) compileSymbol(sym *Symbol, scope *AnalysisScope, src *token.Location) Code {
	if sym.IsKeyword() {
		return constant(sym)
	}
	res := scope.Resolve(sym)
	switch res.Class {
	case NativeStorage:
		idx := res.Var.Index
		return func(t *Thread) (Value, error) {
			return t.locals[idx], nil
		}
	case FramedStorage:
		depth, idx := res.Depth, res.Var.Index
		return func(t *Thread) (Value, error) {
			return t.Frame.up(depth).Values[idx], nil
		}
	case DynamicStorage:
		if c.strict && !sym.IsDefined() {
			c.warnOnce(sym, "possibly undefined dynamic variable: %s")
		}
		return func(t *Thread) (Value, error) {
			v, _ := t.SpecialValue(sym)
			return v, nil
		}
	}
	if c.optimize && sym.Usage == Constant {
		return constant(sym.Value)
	}
	if c.strict && !sym.IsDefined() && !c.defining[sym] {
		c.warnOnce(sym, "possibly undefined symbol: %s")
	}
	return func(t *Thread) (Value, error) {
		if !sym.IsDefined() {
			err := &UndefinedReferenceError{Symbol: sym}
			err.capture(t, src)
			return nil, err
		}
		return sym.Value, nil
	}
}

// compileStore returns code that assigns the value of val to the resolved
// location.
func (c *compiler) compileStore(res Resolution, val Code, src *token.Location) Code {
	sym := res.Symbol
	switch res.Class {
	case NativeStorage:
		idx := res.Var.Index
		return func(t *Thread) (Value, error) {
			v, err := val(t)
			if err != nil {
				return nil, err
			}
			t.locals[idx] = v
			return v, nil
		}
	case FramedStorage:
		depth, idx := res.Depth, res.Var.Index
		return func(t *Thread) (Value, error) {
			v, err := val(t)
			if err != nil {
				return nil, err
			}
			t.Frame.up(depth).Values[idx] = v
			return v, nil
		}
	case DynamicStorage:
		return func(t *Thread) (Value, error) {
			v, err := val(t)
			if err != nil {
				return nil, err
			}
			if err := t.setSpecial(sym, v); err != nil {
				return nil, t.Errorf(src, CondAssignmentError, "%v", err)
			}
			return v, nil
		}
	}
	return func(t *Thread) (Value, error) {
		v, err := val(t)
		if err != nil {
			return nil, err
		}
		if err := sym.CheckedValue(v); err != nil {
			return nil, t.Errorf(src, CondAssignmentError, "%v", err)
		}
		return v, nil
	}
}

func (c *compiler) compileList(form *Cons, scope *AnalysisScope) (Code, error) {
	head, ok := form.Car.(*Symbol)
	if !ok || scope.IsShadowed(head) {
		return c.compileCall(form, scope)
	}
	if c.optimize {
		if v, ok := c.fold(form, scope); ok {
			return constant(v), nil
		}
	}
	if op := head.SpecialForm; op != nil {
		code, err := op.compile(c, form, scope)
		if cerr, ok := err.(*CompileError); ok && cerr.Source == nil {
			cerr.Source = form.Source
		}
		return code, err
	}
	if m, ok := head.Value.(*Lambda); ok && head.Usage == Function && m.Kind == MacroKind {
		return c.compileMacroCall(m, form, scope)
	}
	return c.compileCall(form, scope)
}

func (c *compiler) compileMacroCall(m *Lambda, form *Cons, scope *AnalysisScope) (Code, error) {
	max := c.rt.MaxMacroExpansionDepth
	if max > 0 && c.expansions >= max {
		return nil, compileErrorf(form, "macro expansion depth exceeded maximum: %d", max)
	}
	exp, err := c.t.expandMacro(m, form)
	if err != nil {
		return nil, err
	}
	c.expansions++
	defer func() { c.expansions-- }()
	return c.compile(exp, scope)
}

func (c *compiler) compileArgs(args *Cons, scope *AnalysisScope) ([]Code, error) {
	var codes []Code
	for ; args != nil; args = args.Cdr {
		code, err := c.compileOperand(args.Car, scope, args.Source)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// compileOperand compiles a form appearing as an argument.  Symbols are
// given the location of the enclosing list for diagnostics.
func (c *compiler) compileOperand(form Value, scope *AnalysisScope, src *token.Location) (Code, error) {
	if sym, ok := form.(*Symbol); ok {
		return c.compileSymbol(sym, scope, src), nil
	}
	return c.compile(form, scope)
}

func evalArgs(t *Thread, args []Code) ([]Value, error) {
	vals := make([]Value, len(args))
	for i, arg := range args {
		v, err := arg(t)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (c *compiler) compileCall(form *Cons, scope *AnalysisScope) (Code, error) {
	src := form.Source
	fn, err := c.compileOperand(form.Car, scope, src)
	if err != nil {
		return nil, err
	}
	args, err := c.compileArgs(form.Cdr, scope)
	if err != nil {
		return nil, err
	}
	return func(t *Thread) (Value, error) {
		f, err := fn(t)
		if err != nil {
			return nil, err
		}
		vals, err := evalArgs(t, args)
		if err != nil {
			return nil, err
		}
		return t.Apply(f, vals, src)
	}, nil
}

// compileBody compiles a sequence of statements.  The value of the last
// statement is the value of the sequence.
func (c *compiler) compileBody(body *Cons, scope *AnalysisScope) (Code, error) {
	var stmts []Code
	for ; body != nil; body = body.Cdr {
		code, err := c.compileOperand(body.Car, scope, body.Source)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, code)
	}
	switch len(stmts) {
	case 0:
		return constant(nil), nil
	case 1:
		return stmts[0], nil
	}
	return func(t *Thread) (Value, error) {
		var v Value
		var err error
		for _, stmt := range stmts {
			v, err = stmt(t)
			if err != nil {
				return nil, err
			}
		}
		return v, nil
	}, nil
}

func (c *compiler) compileVector(vec *Vector, scope *AnalysisScope) (Code, error) {
	items := make([]Code, len(vec.Items))
	for i, x := range vec.Items {
		code, err := c.compile(x, scope)
		if err != nil {
			return nil, err
		}
		items[i] = code
	}
	return func(t *Thread) (Value, error) {
		vals, err := evalArgs(t, items)
		if err != nil {
			return nil, err
		}
		return NewVector(vals...), nil
	}, nil
}

func (c *compiler) compileMap(m *Map, scope *AnalysisScope) (Code, error) {
	var keys, vals []Code
	for i, k := range m.keys {
		kc, err := c.compile(k, scope)
		if err != nil {
			return nil, err
		}
		vc, err := c.compile(m.vals[i], scope)
		if err != nil {
			return nil, err
		}
		keys = append(keys, kc)
		vals = append(vals, vc)
	}
	return func(t *Thread) (Value, error) {
		out := NewMap()
		for i := range keys {
			k, err := keys[i](t)
			if err != nil {
				return nil, err
			}
			v, err := vals[i](t)
			if err != nil {
				return nil, err
			}
			if err := out.Set(k, v); err != nil {
				return nil, t.Errorf(nil, CondTypeError, "%v", err)
			}
		}
		return out, nil
	}, nil
}

// fold evaluates form at compile time if it is a literal, a constant or a
// call of a pure builtin whose arguments fold.  Calls returning containers
// are not folded.
func (c *compiler) fold(form Value, scope *AnalysisScope) (Value, bool) {
	switch x := form.(type) {
	case nil, bool, int, float64, string:
		return x, true
	case *Symbol:
		if x.IsKeyword() {
			return x, true
		}
		if x.IsDynamic() || scope.IsShadowed(x) || x.Usage != Constant {
			return nil, false
		}
		return x.Value, true
	case *Cons:
		head, ok := x.Car.(*Symbol)
		if !ok || scope.IsShadowed(head) {
			return nil, false
		}
		if head.SpecialForm != nil {
			if head.Name == QuoteSymbol && x.Len() == 2 {
				return x.Cdr.Car, true
			}
			return nil, false
		}
		b, ok := head.Value.(*Builtin)
		if !ok || head.Usage != Function || !b.Pure {
			return nil, false
		}
		var args []Value
		for arg := x.Cdr; arg != nil; arg = arg.Cdr {
			v, ok := c.fold(arg.Car, scope)
			if !ok {
				return nil, false
			}
			args = append(args, v)
		}
		v, err := c.t.callBuiltin(b, args, x.Source)
		if err != nil || isMutable(v) {
			return nil, false
		}
		return v, true
	}
	return nil, false
}

// isMutable reports whether v is a fresh container that a call must not
// share with other calls.
func isMutable(v Value) bool {
	switch v.(type) {
	case *Cons, *Vector, *Map:
		return true
	}
	return false
}

// compileScoped compiles a new block scope under parent.  The block is first
// compiled with native storage.  If a nested lambda captured one of its
// variables, or the block must be inspectable, the attempt is discarded and
// the block is compiled again with framed storage.
//
// The params are declared first, in order, and initialized from the values
// passed to the returned blockCode.
func (c *compiler) compileScoped(parent *AnalysisScope, configure func(*AnalysisScope), params []*Symbol, build func(*AnalysisScope) (Code, error)) (blockCode, error) {
	unit := parent.currentUnit()
	mark := unit.nlocals
	framed := c.debug
	for {
		s := &AnalysisScope{Parent: parent, IsBlockScope: true, Framed: framed}
		if configure != nil {
			configure(s)
		}
		vars := make([]*LocalVariable, len(params))
		for i, p := range params {
			v, err := s.Declare(p, 0)
			if err != nil {
				return nil, err
			}
			vars[i] = v
		}
		code, err := build(s)
		if err != nil {
			return nil, err
		}
		if s.mustRecompile() {
			c.rt.compilerLog.Debugf("block uses framed storage for: %s", strings.Join(s.capturedNames(), " "))
			unit.nlocals = mark
			framed = true
			continue
		}
		return scopeCode(s, vars, code), nil
	}
}

// blockCode runs a compiled block scope with initial values for its
// parameters.
type blockCode func(t *Thread, init []Value) (Value, error)

func scopeCode(s *AnalysisScope, vars []*LocalVariable, code Code) blockCode {
	framed := s.Framed
	names := s.Names
	restore := framed || s.UsesDynamicVariables
	return func(t *Thread, init []Value) (Value, error) {
		frame, specials := t.Frame, t.Specials
		if framed {
			t.Frame = newFrame(names, frame)
		}
		for i, v := range init {
			if framed {
				t.Frame.Values[vars[i].Index] = v
			} else {
				t.locals[vars[i].Index] = v
			}
		}
		v, err := code(t)
		if restore {
			t.Frame, t.Specials = frame, specials
		}
		return v, err
	}
}

func (b blockCode) code() Code {
	return func(t *Thread) (Value, error) {
		return b(t, nil)
	}
}
