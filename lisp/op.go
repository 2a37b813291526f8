// Copyright © 2018 The ELPS authors

package lisp

import (
	"github.com/luthersystems/kiln/parser/token"
)

// SpecialOp is a special form.  Special forms receive their arguments
// unevaluated and are compiled directly rather than called.
type SpecialOp struct {
	Name    string
	Doc     string
	compile func(c *compiler, form *Cons, scope *AnalysisScope) (Code, error)
}

func (op *SpecialOp) String() string {
	return "#<special-op " + op.Name + ">"
}

var specialOps = []*SpecialOp{
	{QuoteSymbol, "Returns its argument unevaluated.", opQuote},
	{QuasiquoteSymbol, "Returns a template with unquoted parts evaluated.", opQuasiquote},
	{"if", "Evaluates the then branch if the test is true and the else branch otherwise.", opIf},
	{"and", "Evaluates arguments left to right until one is false.", opAnd},
	{"or", "Evaluates arguments left to right until one is true.", opOr},
	{"do", "Evaluates statements in a new block and returns the last value.", opDo},
	{"let", "Declares readonly variables or binds variables for a body.", opLet},
	{"var", "Declares mutable variables.", opVar},
	{"def", "Defines a global variable.", opDef},
	{"defconstant", "Defines a global constant.", opDefconstant},
	{"setq", "Assigns a variable.", opSetq},
	{"lambda", "Returns an anonymous function.", opLambda},
	{"defun", "Defines a global function.", opDefun},
	{"defmacro", "Defines a global macro.", opDefmacro},
	{"defmulti", "Defines a generic function.", opDefmulti},
	{"defmethod", "Adds a method to a generic function.", opDefmethod},
	{"tagbody", "Evaluates statements and labels that goto may transfer control to.", opTagbody},
	{"goto", "Transfers control to a label of an enclosing tagbody.", opGoto},
	{"return", "Returns from the enclosing function.", opReturn},
	{"recur", "Restarts the enclosing function with new arguments.", opRecur},
	{".", "Reads a member or calls a method of an object.", opDot},
	{"set-member!", "Assigns a member of an object.", opSetMember},
	{"elt", "Returns the element of a sequence at an index.", opElt},
	{"set-elt!", "Assigns the element of a sequence at an index.", opSetElt},
	{"declare", "Adjusts compile settings for the rest of the load unit.", opDeclare},
	{"throw", "Raises an error.", opThrow},
	{"try", "Evaluates a body with error handlers and cleanup.", opTry},
	{"the-environment", "Returns the current lexical environment.", opTheEnvironment},
}

func (rt *Runtime) defineSpecialOps() {
	for _, op := range specialOps {
		sym := rt.Intern(op.Name)
		sym.SpecialForm = op
		sym.Doc = op.Doc
	}
}

func checkLen(form *Cons, min, max int) error {
	n := form.Len() - 1
	switch {
	case n < min || (max >= 0 && n > max):
		head := Repr(form.Car)
		if min == max {
			return compileErrorf(form, "%s requires %d arguments", head, min)
		}
		if max < 0 {
			return compileErrorf(form, "%s requires at least %d arguments", head, min)
		}
		return compileErrorf(form, "%s requires %d to %d arguments", head, min, max)
	}
	return nil
}

func symbolArg(form *Cons, i int) (*Symbol, error) {
	sym, ok := form.Nth(i).(*Symbol)
	if !ok || sym.IsKeyword() {
		return nil, compileErrorf(form, "%s: not a variable name: %s", Repr(form.Car), Repr(form.Nth(i)))
	}
	return sym, nil
}

func nthCell(form *Cons, i int) *Cons {
	for ; form != nil && i > 0; i-- {
		form = form.Cdr
	}
	return form
}

func opQuote(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	if err := checkLen(form, 1, 1); err != nil {
		return nil, err
	}
	return constant(form.Cdr.Car), nil
}

func opQuasiquote(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	if err := checkLen(form, 1, 1); err != nil {
		return nil, err
	}
	return c.compileQuasiquote(form.Cdr.Car, 1, scope)
}

func opIf(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	if err := checkLen(form, 2, 3); err != nil {
		return nil, err
	}
	args, err := c.compileArgs(form.Cdr, scope)
	if err != nil {
		return nil, err
	}
	test, then := args[0], args[1]
	otherwise := constant(nil)
	if len(args) == 3 {
		otherwise = args[2]
	}
	return func(t *Thread) (Value, error) {
		v, err := test(t)
		if err != nil {
			return nil, err
		}
		if IsTrue(v) {
			return then(t)
		}
		return otherwise(t)
	}, nil
}

func opAnd(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	args, err := c.compileArgs(form.Cdr, scope)
	if err != nil {
		return nil, err
	}
	return func(t *Thread) (Value, error) {
		var v Value = true
		var err error
		for _, arg := range args {
			v, err = arg(t)
			if err != nil {
				return nil, err
			}
			if !IsTrue(v) {
				return v, nil
			}
		}
		return v, nil
	}, nil
}

func opOr(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	args, err := c.compileArgs(form.Cdr, scope)
	if err != nil {
		return nil, err
	}
	return func(t *Thread) (Value, error) {
		var v Value = false
		var err error
		for _, arg := range args {
			v, err = arg(t)
			if err != nil {
				return nil, err
			}
			if IsTrue(v) {
				return v, nil
			}
		}
		return v, nil
	}, nil
}

func opDo(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	blk, err := c.compileScoped(scope, nil, nil, func(s *AnalysisScope) (Code, error) {
		return c.compileBody(form.Cdr, s)
	})
	if err != nil {
		return nil, err
	}
	return blk.code(), nil
}

func opLet(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	return c.compileLet(form, scope, VarReadonly)
}

func opVar(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	return c.compileLet(form, scope, 0)
}

// compileLet compiles the statement form (var name init), which declares
// name in the innermost block, and the binding list form
// (let ((name init) ...) body...), which opens a new block.
func (c *compiler) compileLet(form *Cons, scope *AnalysisScope, flags VarFlags) (Code, error) {
	if err := checkLen(form, 1, -1); err != nil {
		return nil, err
	}
	if _, ok := form.Cdr.Car.(*Symbol); ok {
		return c.compileDeclaration(form, scope, flags)
	}
	return c.compileBindings(form, scope)
}

func (c *compiler) compileDeclaration(form *Cons, scope *AnalysisScope, flags VarFlags) (Code, error) {
	if err := checkLen(form, 1, 2); err != nil {
		return nil, err
	}
	sym, err := symbolArg(form, 1)
	if err != nil {
		return nil, err
	}
	init, err := c.compileOperand(form.Nth(2), scope, form.Source)
	if err != nil {
		return nil, err
	}
	block := scope.BlockScope()
	if block == nil {
		return nil, compileErrorf(form, "declaration outside of a block scope: %s", sym.Name)
	}
	if sym.IsDynamic() {
		block.UsesDynamicVariables = true
		return bindSpecialCode(sym, init), nil
	}
	if _, err := block.Declare(sym, flags); err != nil {
		return nil, err
	}
	return c.compileStore(scope.Resolve(sym), init, form.Source), nil
}

func bindSpecialCode(sym *Symbol, init Code) Code {
	return func(t *Thread) (Value, error) {
		v, err := init(t)
		if err != nil {
			return nil, err
		}
		t.bindSpecial(sym, v)
		return v, nil
	}
}

type binding struct {
	sym  *Symbol
	init Value
}

func parseBindings(form *Cons) ([]binding, error) {
	list, ok := form.Cdr.Car.(*Cons)
	if form.Cdr.Car != nil && !ok {
		return nil, compileErrorf(form, "invalid binding list")
	}
	var bindings []binding
	for ; list != nil; list = list.Cdr {
		switch b := list.Car.(type) {
		case *Symbol:
			bindings = append(bindings, binding{sym: b})
		case *Cons:
			sym, ok := b.Car.(*Symbol)
			if !ok || b.Len() > 2 {
				return nil, compileErrorf(form, "invalid binding: %s", Repr(b))
			}
			bindings = append(bindings, binding{sym: sym, init: b.Nth(1)})
		default:
			return nil, compileErrorf(form, "invalid binding: %s", Repr(b))
		}
	}
	return bindings, nil
}

func (c *compiler) compileBindings(form *Cons, scope *AnalysisScope) (Code, error) {
	bindings, err := parseBindings(form)
	if err != nil {
		return nil, err
	}
	blk, err := c.compileScoped(scope, nil, nil, func(s *AnalysisScope) (Code, error) {
		steps := make([]Code, 0, len(bindings)+1)
		for _, b := range bindings {
			init, err := c.compileOperand(b.init, s, form.Source)
			if err != nil {
				return nil, err
			}
			if b.sym.IsDynamic() {
				s.UsesDynamicVariables = true
				steps = append(steps, bindSpecialCode(b.sym, init))
				continue
			}
			if _, err := s.Declare(b.sym, 0); err != nil {
				return nil, err
			}
			steps = append(steps, c.compileStore(s.Resolve(b.sym), init, form.Source))
		}
		body, err := c.compileBody(form.Cdr.Cdr, s)
		if err != nil {
			return nil, err
		}
		return sequence(append(steps, body)), nil
	})
	if err != nil {
		return nil, err
	}
	return blk.code(), nil
}

func sequence(stmts []Code) Code {
	if len(stmts) == 1 {
		return stmts[0]
	}
	return func(t *Thread) (Value, error) {
		var v Value
		var err error
		for _, stmt := range stmts {
			if v, err = stmt(t); err != nil {
				return nil, err
			}
		}
		return v, nil
	}
}

func opDef(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	return c.compileDefinition(form, scope, func(t *Thread, sym *Symbol, v Value) error {
		sym.DefineVariable(v)
		return nil
	})
}

func opDefconstant(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	return c.compileDefinition(form, scope, func(t *Thread, sym *Symbol, v Value) error {
		return sym.DefineConstant(v)
	})
}

func (c *compiler) compileDefinition(form *Cons, scope *AnalysisScope, define func(*Thread, *Symbol, Value) error) (Code, error) {
	if err := checkLen(form, 2, 3); err != nil {
		return nil, err
	}
	sym, err := symbolArg(form, 1)
	if err != nil {
		return nil, err
	}
	c.defining[sym] = true
	init, err := c.compileOperand(form.Nth(2), scope, form.Source)
	if err != nil {
		return nil, err
	}
	var doc string
	if form.Len() == 4 {
		s, ok := form.Nth(3).(string)
		if !ok {
			return nil, compileErrorf(form, "documentation is not a string")
		}
		doc = s
	}
	src := form.Source
	return func(t *Thread) (Value, error) {
		v, err := init(t)
		if err != nil {
			return nil, err
		}
		if err := define(t, sym, v); err != nil {
			return nil, t.Errorf(src, CondDefineError, "%v", err)
		}
		if doc != "" {
			sym.Doc = doc
		}
		return sym, nil
	}, nil
}

func opSetq(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	if err := checkLen(form, 2, 2); err != nil {
		return nil, err
	}
	sym, err := symbolArg(form, 1)
	if err != nil {
		return nil, err
	}
	val, err := c.compileOperand(form.Nth(2), scope, form.Source)
	if err != nil {
		return nil, err
	}
	res := scope.Resolve(sym)
	if res.Var != nil && res.Var.Readonly {
		return nil, compileErrorf(form, "cannot assign to readonly variable: %s", sym.Name)
	}
	return c.compileStore(res, val, form.Source), nil
}

// docString splits a leading documentation string from a function body.
func docString(body *Cons) (string, *Cons) {
	if body != nil && body.Cdr != nil {
		if s, ok := body.Car.(string); ok {
			return s, body.Cdr
		}
	}
	return "", body
}

// compileFunction compiles a lambda list and body into code creating a
// closure.
func (c *compiler) compileFunction(name string, kind LambdaKind, params Value, body *Cons, scope *AnalysisScope, src *token.Location, generic *Signature) (Code, *Signature, error) {
	sig, err := parseSignature(params, kind == MethodKind)
	if err != nil {
		return nil, nil, err
	}
	if generic != nil {
		sig = mergeKeys(sig, generic)
	}
	doc, body := docString(body)
	lf := &lambdaForm{name: name, kind: kind, sig: sig, body: body, source: src}
	proto, err := c.compileLambda(lf, scope)
	if err != nil {
		return nil, nil, err
	}
	var specs []Code
	if kind == MethodKind {
		specs = make([]Code, len(sig.Required))
		for i, p := range sig.Required {
			if p.Specializer == nil {
				continue
			}
			spec, err := c.compileSpecializer(p.Specializer, scope, src)
			if err != nil {
				return nil, nil, err
			}
			specs[i] = spec
		}
	}
	return lf.closure(proto, doc, specs), sig, nil
}

func (c *compiler) compileSpecializer(form Value, scope *AnalysisScope, src *token.Location) (Code, error) {
	if cell, ok := form.(*Cons); ok {
		head, _ := cell.Car.(*Symbol)
		if head == nil || head.Name != "eql" || cell.Len() != 2 {
			return nil, compileErrorf(form, "invalid specializer")
		}
		val, err := c.compileOperand(cell.Cdr.Car, scope, src)
		if err != nil {
			return nil, err
		}
		return func(t *Thread) (Value, error) {
			v, err := val(t)
			if err != nil {
				return nil, err
			}
			return &eqlSpecializer{value: v}, nil
		}, nil
	}
	if _, ok := form.(*Symbol); !ok {
		return nil, compileErrorf(form, "invalid specializer")
	}
	return c.compileOperand(form, scope, src)
}

func opLambda(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	if err := checkLen(form, 1, -1); err != nil {
		return nil, err
	}
	code, _, err := c.compileFunction("", FunctionKind, form.Cdr.Car, form.Cdr.Cdr, scope, form.Source, nil)
	return code, err
}

func opDefun(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	return c.compileNamedFunction(form, scope, FunctionKind)
}

func opDefmacro(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	return c.compileNamedFunction(form, scope, MacroKind)
}

func (c *compiler) compileNamedFunction(form *Cons, scope *AnalysisScope, kind LambdaKind) (Code, error) {
	if err := checkLen(form, 2, -1); err != nil {
		return nil, err
	}
	sym, err := symbolArg(form, 1)
	if err != nil {
		return nil, err
	}
	c.defining[sym] = true
	rest := nthCell(form, 2)
	code, _, err := c.compileFunction(sym.Name, kind, rest.Car, rest.Cdr, scope, form.Source, nil)
	if err != nil {
		return nil, err
	}
	return func(t *Thread) (Value, error) {
		fn, err := code(t)
		if err != nil {
			return nil, err
		}
		sym.DefineFunction(fn)
		if doc := fn.(*Lambda).Doc; doc != "" {
			sym.Doc = doc
		}
		return sym, nil
	}, nil
}

func opDefmulti(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	if err := checkLen(form, 2, 3); err != nil {
		return nil, err
	}
	sym, err := symbolArg(form, 1)
	if err != nil {
		return nil, err
	}
	c.defining[sym] = true
	sig, err := parseSignature(form.Nth(2), false)
	if err != nil {
		return nil, err
	}
	var doc string
	if form.Len() == 4 {
		s, ok := form.Nth(3).(string)
		if !ok {
			return nil, compileErrorf(form, "documentation is not a string")
		}
		doc = s
	}
	return func(t *Thread) (Value, error) {
		sym.DefineFunction(NewMultiMethod(sym.Name, sig, doc))
		if doc != "" {
			sym.Doc = doc
		}
		return sym, nil
	}, nil
}

func opDefmethod(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	if err := checkLen(form, 2, -1); err != nil {
		return nil, err
	}
	sym, err := symbolArg(form, 1)
	if err != nil {
		return nil, err
	}
	c.defining[sym] = true
	var generic *Signature
	if g, ok := sym.Value.(*MultiMethod); ok && sym.Usage == Function {
		generic = g.Signature
	}
	rest := nthCell(form, 2)
	code, sig, err := c.compileFunction(sym.Name, MethodKind, rest.Car, rest.Cdr, scope, form.Source, generic)
	if err != nil {
		return nil, err
	}
	src := form.Source
	return func(t *Thread) (Value, error) {
		m, err := code(t)
		if err != nil {
			return nil, err
		}
		g, ok := sym.Value.(*MultiMethod)
		if !ok || sym.Usage != Function {
			g = NewMultiMethod(sym.Name, unspecialized(sig), "")
			sym.DefineFunction(g)
		}
		if err := g.AddMethod(m.(*Lambda)); err != nil {
			return nil, t.Errorf(src, CondDefineError, "%v", err)
		}
		return sym, nil
	}, nil
}

// unspecialized returns a copy of sig without method specializers.
func unspecialized(sig *Signature) *Signature {
	gsig := *sig
	gsig.Required = make([]*Param, len(sig.Required))
	for i, p := range sig.Required {
		gsig.Required[i] = &Param{Symbol: p.Symbol}
	}
	return &gsig
}

func isTag(v Value) bool {
	switch v.(type) {
	case *Symbol, int:
		return true
	}
	return false
}

func opTagbody(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	configure := func(s *AnalysisScope) {
		s.IsTagBodyScope = true
		s.Tags = make(map[Value]*tagLabel)
	}
	blk, err := c.compileScoped(scope, configure, nil, func(s *AnalysisScope) (Code, error) {
		body := &tagBody{}
		n := 0
		for x := form.Cdr; x != nil; x = x.Cdr {
			if !isTag(x.Car) {
				n++
				continue
			}
			if _, dup := s.Tags[x.Car]; dup {
				return nil, compileErrorf(form, "duplicate tagbody label: %s", Repr(x.Car))
			}
			tag := &tagLabel{name: x.Car, index: n, body: body}
			s.Tags[x.Car] = tag
			body.labels = append(body.labels, tag)
		}
		stmts := make([]Code, 0, n)
		for x := form.Cdr; x != nil; x = x.Cdr {
			if isTag(x.Car) {
				continue
			}
			code, err := c.compile(x.Car, s)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, code)
		}
		return func(t *Thread) (Value, error) {
			entry := t.Save()
			for pc := 0; pc < len(stmts); {
				_, err := stmts[pc](t)
				if err != nil {
					if g, ok := err.(*gotoSignal); ok && g.tag.body == body {
						t.Restore(entry)
						pc = g.tag.index
						continue
					}
					return nil, err
				}
				pc++
			}
			return nil, nil
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return blk.code(), nil
}

func opGoto(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	if err := checkLen(form, 1, 1); err != nil {
		return nil, err
	}
	tag := scope.FindTag(form.Cdr.Car)
	if tag == nil {
		return nil, compileErrorf(form, "goto target not found: %s", Repr(form.Cdr.Car))
	}
	return func(t *Thread) (Value, error) {
		return nil, &gotoSignal{tag: tag}
	}, nil
}

func opReturn(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	if err := checkLen(form, 0, 1); err != nil {
		return nil, err
	}
	val, err := c.compileOperand(form.Nth(1), scope, form.Source)
	if err != nil {
		return nil, err
	}
	lam := scope.FindLambda()
	if lam == nil && scope.FileScope() != nil {
		return func(t *Thread) (Value, error) {
			v, err := val(t)
			if err != nil {
				return nil, err
			}
			return nil, &abandonLoadSignal{value: v}
		}, nil
	}
	if lam == nil || lam.ReturnLabel == nil {
		return nil, compileErrorf(form, "return outside of a function")
	}
	lam.UsesReturn = true
	label := lam.ReturnLabel
	return func(t *Thread) (Value, error) {
		v, err := val(t)
		if err != nil {
			return nil, err
		}
		return nil, &returnSignal{label: label, value: v}
	}, nil
}

func opRecur(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	lam := scope.FindLambda()
	if lam == nil || lam.ReturnLabel == nil {
		return nil, compileErrorf(form, "recur outside of a function")
	}
	args, err := c.compileArgs(form.Cdr, scope)
	if err != nil {
		return nil, err
	}
	lam.UsesReturn = true
	label := lam.ReturnLabel
	return func(t *Thread) (Value, error) {
		vals, err := evalArgs(t, args)
		if err != nil {
			return nil, err
		}
		return nil, &recurSignal{label: label, args: vals}
	}, nil
}

// memberName returns the name of a member given as a bare symbol, a keyword,
// a quoted symbol or a string literal.
func memberName(v Value) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case *Symbol:
		if v.IsKeyword() {
			return v.Name[len(KeywordPrefix):], true
		}
		return v.Name, true
	case *Cons:
		if head, ok := v.Car.(*Symbol); ok && head.Name == QuoteSymbol && v.Len() == 2 {
			if sym, ok := v.Cdr.Car.(*Symbol); ok {
				return sym.Name, true
			}
		}
	}
	return "", false
}

func opDot(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	if err := checkLen(form, 2, -1); err != nil {
		return nil, err
	}
	src := form.Source
	name, ok := memberName(form.Nth(2))
	if !ok {
		// A computed member name is looked up by the get-member builtin.
		helper := c.rt.Intern("get-member")
		args, err := c.compileArgs(form.Cdr, scope)
		if err != nil {
			return nil, err
		}
		return func(t *Thread) (Value, error) {
			vals, err := evalArgs(t, args)
			if err != nil {
				return nil, err
			}
			return t.Apply(helper.Value, vals, src)
		}, nil
	}
	obj, err := c.compileOperand(form.Nth(1), scope, form.Source)
	if err != nil {
		return nil, err
	}
	args, err := c.compileArgs(nthCell(form, 3), scope)
	if err != nil {
		return nil, err
	}
	return func(t *Thread) (Value, error) {
		o, err := obj(t)
		if err != nil {
			return nil, err
		}
		vals, err := evalArgs(t, args)
		if err != nil {
			return nil, err
		}
		return t.GetMember(o, name, vals, src)
	}, nil
}

func opSetMember(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	if err := checkLen(form, 3, 3); err != nil {
		return nil, err
	}
	obj, err := c.compileOperand(form.Nth(1), scope, form.Source)
	if err != nil {
		return nil, err
	}
	var nameCode Code
	if name, ok := memberName(form.Nth(2)); ok {
		nameCode = constant(name)
	} else if nameCode, err = c.compile(form.Nth(2), scope); err != nil {
		return nil, err
	}
	val, err := c.compileOperand(form.Nth(3), scope, form.Source)
	if err != nil {
		return nil, err
	}
	src := form.Source
	return func(t *Thread) (Value, error) {
		vals, err := evalArgs(t, []Code{obj, nameCode, val})
		if err != nil {
			return nil, err
		}
		name, ok := memberName(vals[1])
		if !ok {
			return nil, t.Errorf(src, CondTypeError, "invalid member name: %s", Repr(vals[1]))
		}
		if err := t.SetMember(vals[0], name, vals[2], src); err != nil {
			return nil, err
		}
		return vals[2], nil
	}, nil
}

func opElt(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	if err := checkLen(form, 2, 2); err != nil {
		return nil, err
	}
	args, err := c.compileArgs(form.Cdr, scope)
	if err != nil {
		return nil, err
	}
	src := form.Source
	return func(t *Thread) (Value, error) {
		vals, err := evalArgs(t, args)
		if err != nil {
			return nil, err
		}
		return t.Elt(vals[0], vals[1], src)
	}, nil
}

func opSetElt(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	if err := checkLen(form, 3, 3); err != nil {
		return nil, err
	}
	args, err := c.compileArgs(form.Cdr, scope)
	if err != nil {
		return nil, err
	}
	src := form.Source
	return func(t *Thread) (Value, error) {
		vals, err := evalArgs(t, args)
		if err != nil {
			return nil, err
		}
		if err := t.SetElt(vals[0], vals[1], vals[2], src); err != nil {
			return nil, err
		}
		return vals[2], nil
	}, nil
}

func opDeclare(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	for x := form.Cdr; x != nil; x = x.Cdr {
		clause, ok := x.Car.(*Cons)
		if !ok || clause.Len() != 2 {
			return nil, compileErrorf(form, "invalid declaration: %s", Repr(x.Car))
		}
		name, _ := clause.Car.(*Symbol)
		var on bool
		switch v := clause.Cdr.Car.(type) {
		case bool:
			on = v
		case *Symbol:
			switch v.Name {
			case "on":
				on = true
			case "off":
			default:
				return nil, compileErrorf(form, "invalid declaration value: %s", v.Name)
			}
		default:
			return nil, compileErrorf(form, "invalid declaration value: %s", Repr(v))
		}
		switch {
		case name == nil:
			return nil, compileErrorf(form, "invalid declaration: %s", Repr(clause))
		case name.Name == "strict":
			c.strict = on
		case name.Name == "optimize":
			c.optimize = on
		case name.Name == "debug":
			c.debug = on
		default:
			return nil, compileErrorf(form, "unknown declaration: %s", name.Name)
		}
	}
	return constant(Void), nil
}

func opThrow(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	if err := checkLen(form, 1, 3); err != nil {
		return nil, err
	}
	args, err := c.compileArgs(form.Cdr, scope)
	if err != nil {
		return nil, err
	}
	src := form.Source
	return func(t *Thread) (Value, error) {
		vals, err := evalArgs(t, args)
		if err != nil {
			return nil, err
		}
		return nil, t.throw(vals, src)
	}, nil
}

// throw builds the error raised by (throw ...).  An error value is raised
// as is.  A keyword names the condition of a new error.
func (t *Thread) throw(vals []Value, src *token.Location) error {
	switch v := vals[0].(type) {
	case Condition:
		if len(vals) == 1 {
			return t.raise(v, src)
		}
	case *Symbol:
		if v.IsKeyword() {
			err := &Error{Condition: v.Name[len(KeywordPrefix):]}
			if len(vals) > 1 {
				err.Message = Display(vals[1])
			}
			if len(vals) > 2 {
				err.Data = vals[2]
			}
			err.capture(t, src)
			return err
		}
	case string:
		err := &Error{Condition: CondError, Message: v}
		if len(vals) > 1 {
			err.Data = vals[1]
		}
		err.capture(t, src)
		return err
	}
	err := &Error{Condition: CondError, Message: Repr(vals[0]), Data: vals[0]}
	err.capture(t, src)
	return err
}

func clauseHead(v Value, name string) (*Cons, bool) {
	clause, ok := v.(*Cons)
	if !ok {
		return nil, false
	}
	head, ok := clause.Car.(*Symbol)
	return clause, ok && head.Name == name
}

func opTry(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	var body []Value
	var catchClause, finallyClause *Cons
	for x := form.Cdr; x != nil; x = x.Cdr {
		if clause, ok := clauseHead(x.Car, "catch"); ok {
			if catchClause != nil || finallyClause != nil {
				return nil, compileErrorf(form, "misplaced catch clause")
			}
			catchClause = clause
			continue
		}
		if clause, ok := clauseHead(x.Car, "finally"); ok {
			if finallyClause != nil {
				return nil, compileErrorf(form, "misplaced finally clause")
			}
			finallyClause = clause
			continue
		}
		if catchClause != nil || finallyClause != nil {
			return nil, compileErrorf(form, "try body follows a handler clause")
		}
		body = append(body, x.Car)
	}
	bodyForms := List(body...)
	protected, err := c.compileScoped(scope, nil, nil, func(s *AnalysisScope) (Code, error) {
		return c.compileBody(bodyForms, s)
	})
	if err != nil {
		return nil, err
	}
	var handler, cleanup blockCode
	if catchClause != nil {
		if catchClause.Len() < 2 {
			return nil, compileErrorf(catchClause, "catch requires a variable")
		}
		var evar *Symbol
		switch v := catchClause.Cdr.Car.(type) {
		case *Symbol:
			evar = v
		case *Cons:
			evar, _ = v.Car.(*Symbol)
			if v.Len() != 1 {
				evar = nil
			}
		}
		if evar == nil {
			return nil, compileErrorf(catchClause, "invalid catch variable: %s", Repr(catchClause.Cdr.Car))
		}
		handler, err = c.compileScoped(scope, nil, []*Symbol{evar}, func(s *AnalysisScope) (Code, error) {
			return c.compileBody(catchClause.Cdr.Cdr, s)
		})
		if err != nil {
			return nil, err
		}
	}
	if finallyClause != nil {
		cleanup, err = c.compileScoped(scope, nil, nil, func(s *AnalysisScope) (Code, error) {
			return c.compileBody(finallyClause.Cdr, s)
		})
		if err != nil {
			return nil, err
		}
	}
	return func(t *Thread) (Value, error) {
		entry := t.Save()
		v, err := protected(t, nil)
		if err != nil && handler != nil && !IsControlSignal(err) {
			t.Restore(entry)
			v, err = handler(t, []Value{AsCondition(err)})
		}
		if cleanup != nil {
			t.Restore(entry)
			if _, cerr := cleanup(t, nil); cerr != nil {
				v, err = nil, cerr
			}
		}
		t.Restore(entry)
		return v, err
	}, nil
}

func opTheEnvironment(c *compiler, form *Cons, scope *AnalysisScope) (Code, error) {
	if err := checkLen(form, 0, 0); err != nil {
		return nil, err
	}
	scope.requireFrames()
	return func(t *Thread) (Value, error) {
		return &Environment{Frame: t.Frame, Scope: scope}, nil
	}, nil
}
