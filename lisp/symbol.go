// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"
	"strings"
)

// Usage describes the role a global symbol currently plays and determines
// which mutations of its value cell are legal.
type Usage int

// Possible Usage values.
const (
	Undefined Usage = iota
	Variable
	Constant
	ReadonlyVariable
	Function
)

func (u Usage) String() string {
	switch u {
	case Undefined:
		return "undefined"
	case Variable:
		return "variable"
	case Constant:
		return "constant"
	case ReadonlyVariable:
		return "readonly-variable"
	case Function:
		return "function"
	}
	return fmt.Sprintf("usage(%d)", int(u))
}

// Symbol is an interned identifier.  A symbol owns a single global value
// cell shared by all of its usages, so defining a macro under the name of a
// variable replaces the variable.
//
// The value cell is not synchronized.  Logical threads which redefine
// globals concurrently race.
type Symbol struct {
	Name        string
	Usage       Usage
	Value       Value
	Doc         string
	SpecialForm *SpecialOp
}

func newSymbol(name string) *Symbol {
	return &Symbol{Name: name}
}

func (sym *Symbol) String() string {
	return sym.Name
}

// IsDynamic returns true if sym names a special variable.
func (sym *Symbol) IsDynamic() bool {
	return len(sym.Name) > 1 && strings.HasPrefix(sym.Name, DynamicSigil)
}

// IsKeyword returns true if sym evaluates to itself.
func (sym *Symbol) IsKeyword() bool {
	return len(sym.Name) > 1 && strings.HasPrefix(sym.Name, KeywordPrefix)
}

// IsDefined returns true if sym has been given a value.
func (sym *Symbol) IsDefined() bool {
	return sym.Usage != Undefined
}

// CheckedValue assigns v to the value cell of sym.  Assignment fails for
// constants, readonly variables and functions.  An undefined symbol becomes
// a variable.
func (sym *Symbol) CheckedValue(v Value) error {
	switch sym.Usage {
	case Constant:
		return fmt.Errorf("cannot assign to constant: %s", sym.Name)
	case ReadonlyVariable:
		return fmt.Errorf("cannot assign to readonly variable: %s", sym.Name)
	case Function:
		return fmt.Errorf("cannot assign to function: %s", sym.Name)
	case Undefined:
		sym.Usage = Variable
	}
	sym.Value = v
	return nil
}

// DefineVariable makes sym a mutable global variable holding v.
func (sym *Symbol) DefineVariable(v Value) {
	sym.Usage = Variable
	sym.Value = v
}

// DefineReadonly makes sym a global variable that cannot be assigned.
func (sym *Symbol) DefineReadonly(v Value) {
	sym.Usage = ReadonlyVariable
	sym.Value = v
}

// DefineConstant makes sym a constant.  Redefining a constant with a
// different value is an error.
func (sym *Symbol) DefineConstant(v Value) error {
	if sym.Usage == Constant && !Equal(sym.Value, v) {
		return fmt.Errorf("constant already defined with a different value: %s", sym.Name)
	}
	sym.Usage = Constant
	sym.Value = v
	return nil
}

// DefineFunction stores a callable in the value cell of sym.
func (sym *Symbol) DefineFunction(fn Value) {
	sym.Usage = Function
	sym.Value = fn
}
