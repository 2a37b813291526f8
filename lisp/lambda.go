// Copyright © 2018 The ELPS authors

package lisp

import (
	"bytes"
	"strings"

	"github.com/luthersystems/kiln/parser/token"
)

// LambdaKind distinguishes functions, macros and methods of a generic
// function.
type LambdaKind int

// Possible LambdaKind values.
const (
	FunctionKind LambdaKind = iota
	MacroKind
	MethodKind
)

func (k LambdaKind) String() string {
	switch k {
	case MacroKind:
		return "macro"
	case MethodKind:
		return "method"
	}
	return "function"
}

// Param is a formal parameter.
type Param struct {
	Symbol *Symbol
	// Default is the unevaluated default value form of an &optional or &key
	// parameter.
	Default Value
	// Specializer is the unevaluated specializer form of a method parameter,
	// either a type name or (eql value).
	Specializer Value
}

// Signature is a parsed lambda list.
type Signature struct {
	Required []*Param
	Optional []*Param
	Key      []*Param
	Rest     *Param
	// Modifier is the lambda list keyword introducing Rest.
	Modifier string
}

// Params returns the parameters in binding order.
func (sig *Signature) Params() []*Param {
	params := make([]*Param, 0, len(sig.Required)+len(sig.Optional)+len(sig.Key)+1)
	params = append(params, sig.Required...)
	params = append(params, sig.Optional...)
	if sig.Rest != nil {
		params = append(params, sig.Rest)
	}
	return append(params, sig.Key...)
}

func (sig *Signature) hasKey(name string) bool {
	for _, p := range sig.Key {
		if p.Symbol.Name == name {
			return true
		}
	}
	return false
}

func (sig *Signature) String() string {
	var buf bytes.Buffer
	buf.WriteString("(")
	var parts []string
	for _, p := range sig.Required {
		if p.Specializer != nil {
			parts = append(parts, "("+p.Symbol.Name+" "+Repr(p.Specializer)+")")
		} else {
			parts = append(parts, p.Symbol.Name)
		}
	}
	optional := func(mod string, params []*Param) {
		if len(params) == 0 {
			return
		}
		parts = append(parts, mod)
		for _, p := range params {
			if p.Default != nil {
				parts = append(parts, "("+p.Symbol.Name+" "+Repr(p.Default)+")")
			} else {
				parts = append(parts, p.Symbol.Name)
			}
		}
	}
	optional(OptArgSymbol, sig.Optional)
	if sig.Rest != nil {
		parts = append(parts, sig.Modifier, sig.Rest.Symbol.Name)
	}
	optional(KeyArgSymbol, sig.Key)
	buf.WriteString(strings.Join(parts, " "))
	buf.WriteString(")")
	return buf.String()
}

func isRestModifier(name string) bool {
	switch name {
	case VarArgSymbol, BodyArgSymbol, ParamsArgSymbol, VectorArgSymbol:
		return true
	}
	return false
}

// parseSignature parses a lambda list.  Method lambda lists may specialize
// required parameters.
func parseSignature(list Value, method bool) (*Signature, error) {
	cell, ok := list.(*Cons)
	if list != nil && !ok {
		return nil, compileErrorf(list, "formal argument list is not a list")
	}
	sig := &Signature{}
	const (
		required = iota
		optional
		key
		rest
		done
	)
	state := required
	for ; cell != nil; cell = cell.Cdr {
		x := cell.Car
		if sym, ok := x.(*Symbol); ok && strings.HasPrefix(sym.Name, MetaArgPrefix) {
			switch {
			case sym.Name == OptArgSymbol && state == required:
				state = optional
			case sym.Name == KeyArgSymbol && state <= optional:
				state = key
			case isRestModifier(sym.Name) && state <= optional:
				sig.Modifier = sym.Name
				state = rest
			default:
				return nil, compileErrorf(list, "misplaced lambda list keyword: %s", sym.Name)
			}
			continue
		}
		if state == done {
			return nil, compileErrorf(list, "%s must declare the final parameter", sig.Modifier)
		}
		p, err := parseParam(x, state == optional || state == key, method && state == required)
		if err != nil {
			return nil, err
		}
		switch state {
		case required:
			sig.Required = append(sig.Required, p)
		case optional:
			sig.Optional = append(sig.Optional, p)
		case key:
			sig.Key = append(sig.Key, p)
		case rest:
			if p.Default != nil {
				return nil, compileErrorf(list, "%s parameter cannot have a default", sig.Modifier)
			}
			sig.Rest = p
			state = done
		}
	}
	if state == rest {
		return nil, compileErrorf(list, "%s requires a parameter", sig.Modifier)
	}
	return sig, nil
}

func parseParam(x Value, withDefault bool, specialized bool) (*Param, error) {
	switch x := x.(type) {
	case *Symbol:
		return &Param{Symbol: x}, nil
	case *Cons:
		name, ok := x.Car.(*Symbol)
		if !ok || x.Len() != 2 || !(withDefault || specialized) {
			return nil, compileErrorf(x, "invalid formal argument")
		}
		if specialized {
			return &Param{Symbol: name, Specializer: x.Cdr.Car}, nil
		}
		return &Param{Symbol: name, Default: x.Cdr.Car}, nil
	}
	return nil, compileErrorf(x, "invalid formal argument")
}

// Lambda is a compiled function, macro or method closed over the frame in
// which it was created.
type Lambda struct {
	Name         string
	Kind         LambdaKind
	Doc          string
	Source       *token.Location
	Signature    *Signature
	Specializers []*Specializer
	Frame        *Frame

	proto       *lambdaProto
	dispatchKey uint64
}

func (fn *Lambda) String() string {
	name := fn.Name
	if name == "" {
		name = "anonymous"
	}
	return "#<" + fn.Kind.String() + " " + name + " " + fn.Signature.String() + ">"
}

// lambdaProto is the part of a lambda shared by all closures created from
// one compiled lambda form.
type lambdaProto struct {
	sig      *Signature
	defaults []Code // parallel to sig.Params(), nil when absent
	vars     []*LocalVariable
	names    []*Symbol
	framed   bool
	captures bool
	nlocals  int
	label    *returnLabel
	catches  bool // the body returns or recurs to label
	body     Code
}

type lambdaForm struct {
	name   string
	kind   LambdaKind
	sig    *Signature
	body   *Cons
	source *token.Location
}

// compileLambda compiles the body of a lambda.  Default value forms are
// compiled in a boundary scope that sees the enclosing scope but not the
// parameters.
func (c *compiler) compileLambda(lf *lambdaForm, scope *AnalysisScope) (*lambdaProto, error) {
	unit := &unitInfo{}
	framed := c.debug
	for {
		unit.nlocals = 0
		boundary := &AnalysisScope{Parent: scope, IsLambda: true, unit: unit}
		lam := &AnalysisScope{
			Parent:       scope,
			IsLambda:     true,
			IsBlockScope: true,
			Framed:       framed,
			ReturnLabel:  &returnLabel{name: lf.name},
			unit:         unit,
		}
		params := lf.sig.Params()
		proto := &lambdaProto{
			sig:      lf.sig,
			defaults: make([]Code, len(params)),
			vars:     make([]*LocalVariable, len(params)),
			framed:   framed,
			label:    lam.ReturnLabel,
		}
		for i, p := range params {
			if p.Default == nil {
				continue
			}
			code, err := c.compile(p.Default, boundary)
			if err != nil {
				return nil, err
			}
			proto.defaults[i] = code
		}
		for i, p := range params {
			v, err := lam.Declare(p.Symbol, 0)
			if err != nil {
				return nil, err
			}
			proto.vars[i] = v
		}
		body, err := c.compileBody(lf.body, lam)
		if err != nil {
			return nil, err
		}
		if lam.mustRecompile() {
			c.rt.compilerLog.Debugf("lambda %s uses framed storage for: %s", lf.name, strings.Join(lam.capturedNames(), " "))
			framed = true
			continue
		}
		proto.body = body
		proto.names = lam.Names
		proto.nlocals = unit.nlocals
		proto.catches = lam.UsesReturn
		proto.captures = c.debug || lam.UsesFramedVariables || boundary.UsesFramedVariables
		return proto, nil
	}
}

func (lf *lambdaForm) closure(proto *lambdaProto, doc string, specs []Code) Code {
	return func(t *Thread) (Value, error) {
		fn := &Lambda{
			Name:      lf.name,
			Kind:      lf.kind,
			Doc:       doc,
			Source:    lf.source,
			Signature: proto.sig,
			proto:     proto,
		}
		if proto.captures {
			fn.Frame = t.Frame
		}
		if len(specs) > 0 {
			fn.Specializers = make([]*Specializer, len(specs))
			for i, code := range specs {
				if code == nil {
					continue
				}
				v, err := code(t)
				if err != nil {
					return nil, err
				}
				spec, err := t.Runtime.newSpecializer(v)
				if err != nil {
					return nil, t.Errorf(lf.source, CondTypeError, "%v", err)
				}
				fn.Specializers[i] = spec
			}
		}
		return fn, nil
	}
}

// callLambda invokes fn.  The call runs under a saved control state that is
// restored on every exit path.  A recur aimed at fn restarts the body with
// new arguments without growing the Go stack.
func (t *Thread) callLambda(fn *Lambda, args []Value, src *token.Location) (Value, error) {
	saved := t.Save()
	locals := t.locals
	defer func() {
		t.locals = locals
		t.Restore(saved)
	}()
	if err := t.enter(fn.Name, src, false); err != nil {
		return nil, err
	}
	if p := t.Runtime.Profiler; p != nil && p.IsEnabled() {
		defer p.Start(fn)()
	}
	entered := t.Save()
	proto := fn.proto
	for {
		t.Frame = fn.Frame
		t.locals = make([]Value, proto.nlocals)
		vals, err := t.bindArgs(fn, args, src)
		if err != nil {
			return nil, err
		}
		if proto.framed {
			t.Frame = newFrame(proto.names, t.Frame)
			for i, v := range vals {
				t.Frame.Values[proto.vars[i].Index] = v
			}
		} else {
			for i, v := range vals {
				t.locals[proto.vars[i].Index] = v
			}
		}
		v, err := proto.body(t)
		if err == nil {
			return v, nil
		}
		if !proto.catches {
			return nil, err
		}
		switch sig := err.(type) {
		case *returnSignal:
			if sig.label == proto.label {
				return sig.value, nil
			}
		case *recurSignal:
			if sig.label == proto.label {
				args = sig.args
				t.Restore(entered)
				continue
			}
		}
		return nil, err
	}
}

// bindArgs computes the values of the parameters of fn in binding order.
// Missing defaults are evaluated in the lambda's defining environment.
func (t *Thread) bindArgs(fn *Lambda, args []Value, src *token.Location) ([]Value, error) {
	proto := fn.proto
	sig := proto.sig
	nreq := len(sig.Required)
	if len(args) < nreq {
		return nil, t.arityError(fn, len(args), src)
	}
	vals := make([]Value, 0, len(proto.vars))
	vals = append(vals, args[:nreq]...)
	rest := args[nreq:]
	i := nreq
	for range sig.Optional {
		if len(rest) > 0 {
			vals = append(vals, rest[0])
			rest = rest[1:]
		} else {
			v, err := proto.defaultValue(t, i)
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		i++
	}
	if sig.Rest != nil {
		if sig.Modifier == VectorArgSymbol {
			vals = append(vals, NewVector(append([]Value(nil), rest...)...))
		} else {
			vals = append(vals, listValue(List(rest...)))
		}
		return vals, nil
	}
	if len(sig.Key) == 0 {
		if len(rest) > 0 {
			return nil, t.arityError(fn, len(args), src)
		}
		return vals, nil
	}
	if len(rest)%2 != 0 {
		return nil, t.Errorf(src, CondArityError, "%s: odd number of keyword arguments", fn.displayName())
	}
	given := make(map[string]Value, len(rest)/2)
	for j := 0; j < len(rest); j += 2 {
		k, ok := rest[j].(*Symbol)
		if !ok || !k.IsKeyword() {
			return nil, t.Errorf(src, CondArityError, "%s: keyword argument expected: %s", fn.displayName(), Repr(rest[j]))
		}
		name := k.Name[len(KeywordPrefix):]
		if !sig.hasKey(name) {
			return nil, t.Errorf(src, CondArityError, "%s: unknown keyword argument: %s", fn.displayName(), k.Name)
		}
		given[name] = rest[j+1]
	}
	for _, p := range sig.Key {
		if v, ok := given[p.Symbol.Name]; ok {
			vals = append(vals, v)
		} else {
			v, err := proto.defaultValue(t, i)
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		i++
	}
	return vals, nil
}

func (p *lambdaProto) defaultValue(t *Thread, i int) (Value, error) {
	if p.defaults[i] == nil {
		return nil, nil
	}
	return p.defaults[i](t)
}

func (fn *Lambda) displayName() string {
	if fn.Name == "" {
		return "lambda"
	}
	return fn.Name
}

func (t *Thread) arityError(fn *Lambda, n int, src *token.Location) error {
	sig := fn.Signature
	if sig.Rest != nil || len(sig.Key) > 0 || len(sig.Optional) > 0 {
		return t.Errorf(src, CondArityError, "%s: invalid number of arguments: %d (expected at least %d)", fn.displayName(), n, len(sig.Required))
	}
	return t.Errorf(src, CondArityError, "%s: invalid number of arguments: %d (expected %d)", fn.displayName(), n, len(sig.Required))
}
