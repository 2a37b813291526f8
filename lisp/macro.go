// Copyright © 2018 The ELPS authors

package lisp

import (
	"github.com/luthersystems/kiln/parser/token"
)

// expandMacro calls macro m with the unevaluated arguments of form and
// returns the expansion.  The expansion is given the location of form if it
// has none.
func (t *Thread) expandMacro(m *Lambda, form *Cons) (Value, error) {
	args := form.Cdr.Slice()
	exp, err := t.callLambda(m, args, form.Source)
	if err != nil {
		return nil, err
	}
	if cell, ok := exp.(*Cons); ok && cell.Source == nil {
		cell.Source = form.Source
	}
	return exp, nil
}

// MacroExpand1 expands form once if it is a call of a global macro.
// expanded is false if form is not a macro call.
func (t *Thread) MacroExpand1(form Value) (exp Value, expanded bool, err error) {
	cell, ok := form.(*Cons)
	if !ok {
		return form, false, nil
	}
	head, ok := cell.Car.(*Symbol)
	if !ok || head.SpecialForm != nil || head.Usage != Function {
		return form, false, nil
	}
	m, ok := head.Value.(*Lambda)
	if !ok || m.Kind != MacroKind {
		return form, false, nil
	}
	exp, err = t.expandMacro(m, cell)
	if err != nil {
		return nil, false, err
	}
	return exp, true, nil
}

func isForm(v Value, name string) (*Cons, bool) {
	cell, ok := v.(*Cons)
	if !ok || cell.Len() != 2 {
		return nil, false
	}
	head, ok := cell.Car.(*Symbol)
	return cell, ok && head.Name == name
}

// hasUnquote returns true if a quasiquote template contains an unquote at
// the given depth.
func hasUnquote(form Value, depth int) bool {
	switch x := form.(type) {
	case *Cons:
		if _, ok := isForm(x, UnquoteSymbol); ok {
			return depth == 1 || hasUnquote(x.Cdr.Car, depth-1)
		}
		if _, ok := isForm(x, UnquoteSplicingSymbol); ok {
			return depth == 1 || hasUnquote(x.Cdr.Car, depth-1)
		}
		if _, ok := isForm(x, QuasiquoteSymbol); ok {
			return hasUnquote(x.Cdr.Car, depth+1)
		}
		for ; x != nil; x = x.Cdr {
			if hasUnquote(x.Car, depth) {
				return true
			}
		}
	case *Vector:
		for _, item := range x.Items {
			if hasUnquote(item, depth) {
				return true
			}
		}
	}
	return false
}

type templatePart struct {
	code   Code
	splice bool
}

// compileQuasiquote compiles a quasiquote template.  Nested quasiquotes
// increase depth and only unquotes at depth 1 are evaluated.
func (c *compiler) compileQuasiquote(form Value, depth int, scope *AnalysisScope) (Code, error) {
	if !hasUnquote(form, depth) {
		return constant(form), nil
	}
	switch x := form.(type) {
	case *Cons:
		if cell, ok := isForm(x, UnquoteSymbol); ok {
			if depth == 1 {
				return c.compileOperand(cell.Cdr.Car, scope, x.Source)
			}
			return c.quasiWrap(cell, depth-1, scope)
		}
		if cell, ok := isForm(x, UnquoteSplicingSymbol); ok {
			if depth == 1 {
				return nil, compileErrorf(x, "unquote-splicing outside of a list")
			}
			return c.quasiWrap(cell, depth-1, scope)
		}
		if cell, ok := isForm(x, QuasiquoteSymbol); ok {
			return c.quasiWrap(cell, depth+1, scope)
		}
		parts, err := c.templateParts(x.Slice(), depth, scope)
		if err != nil {
			return nil, err
		}
		src := x.Source
		return func(t *Thread) (Value, error) {
			items, err := t.fillTemplate(parts, src)
			if err != nil {
				return nil, err
			}
			list := List(items...)
			if list != nil {
				list.Source = src
			}
			return listValue(list), nil
		}, nil
	case *Vector:
		parts, err := c.templateParts(x.Items, depth, scope)
		if err != nil {
			return nil, err
		}
		return func(t *Thread) (Value, error) {
			items, err := t.fillTemplate(parts, nil)
			if err != nil {
				return nil, err
			}
			return NewVector(items...), nil
		}, nil
	}
	return constant(form), nil
}

// quasiWrap compiles a nested (unquote x), (unquote-splicing x) or
// (quasiquote x) form which is kept in the output.
func (c *compiler) quasiWrap(cell *Cons, depth int, scope *AnalysisScope) (Code, error) {
	inner, err := c.compileQuasiquote(cell.Cdr.Car, depth, scope)
	if err != nil {
		return nil, err
	}
	head := cell.Car
	return func(t *Thread) (Value, error) {
		v, err := inner(t)
		if err != nil {
			return nil, err
		}
		return List(head, v), nil
	}, nil
}

func (c *compiler) templateParts(items []Value, depth int, scope *AnalysisScope) ([]templatePart, error) {
	parts := make([]templatePart, len(items))
	for i, item := range items {
		if cell, ok := isForm(item, UnquoteSplicingSymbol); ok && depth == 1 {
			code, err := c.compileOperand(cell.Cdr.Car, scope, cell.Source)
			if err != nil {
				return nil, err
			}
			parts[i] = templatePart{code: code, splice: true}
			continue
		}
		code, err := c.compileQuasiquote(item, depth, scope)
		if err != nil {
			return nil, err
		}
		parts[i] = templatePart{code: code}
	}
	return parts, nil
}

func (t *Thread) fillTemplate(parts []templatePart, src *token.Location) ([]Value, error) {
	items := make([]Value, 0, len(parts))
	for _, p := range parts {
		v, err := p.code(t)
		if err != nil {
			return nil, err
		}
		if !p.splice {
			items = append(items, v)
			continue
		}
		switch seq := v.(type) {
		case nil:
		case *Cons:
			items = append(items, seq.Slice()...)
		case *Vector:
			items = append(items, seq.Items...)
		default:
			return nil, t.Errorf(src, CondTypeError, "unquote-splicing of a non-sequence: %s", Repr(v))
		}
	}
	return items, nil
}
