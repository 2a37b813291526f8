// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"
	"reflect"
)

// Type is a node of the type lattice used by method specializers.
type Type struct {
	Name   string
	Parent *Type
	// Host is set for types created for host values.
	Host reflect.Type
}

func (typ *Type) String() string {
	return typ.Name
}

// Distance returns the number of steps from typ up to ancestor, or -1 if
// ancestor is not an ancestor of typ.
func (typ *Type) Distance(ancestor *Type) int {
	d := 0
	for x := typ; x != nil; x = x.Parent {
		if x == ancestor {
			return d
		}
		d++
	}
	return -1
}

type typeLattice struct {
	Object      *Type
	Number      *Type
	Integer     *Type
	Float       *Type
	List        *Type
	Null        *Type
	Cons        *Type
	Symbol      *Type
	Keyword     *Type
	Function    *Type
	Lambda      *Type
	MultiMethod *Type
	Builtin     *Type
	String      *Type
	Boolean     *Type
	Vector      *Type
	Map         *Type
	Error       *Type
	Environment *Type
	Task        *Type
	Generator   *Type
	Type        *Type
}

func (rt *Runtime) defineTypes() {
	var all []*Type
	def := func(name string, parent *Type) *Type {
		typ := &Type{Name: name, Parent: parent}
		all = append(all, typ)
		return typ
	}
	l := &typeLattice{}
	l.Object = def("Object", nil)
	l.Number = def("Number", l.Object)
	l.Integer = def("Integer", l.Number)
	l.Float = def("Float", l.Number)
	l.List = def("List", l.Object)
	l.Null = def("Null", l.List)
	l.Cons = def("Cons", l.List)
	l.Symbol = def("Symbol", l.Object)
	l.Keyword = def("Keyword", l.Symbol)
	l.Function = def("Function", l.Object)
	l.Lambda = def("Lambda", l.Function)
	l.MultiMethod = def("MultiMethod", l.Function)
	l.Builtin = def("Builtin", l.Function)
	l.String = def("String", l.Object)
	l.Boolean = def("Boolean", l.Object)
	l.Vector = def("Vector", l.Object)
	l.Map = def("Map", l.Object)
	l.Error = def("Error", l.Object)
	l.Environment = def("Environment", l.Object)
	l.Task = def("Task", l.Object)
	l.Generator = def("Generator", l.Object)
	l.Type = def("Type", l.Object)
	rt.types = l
	for _, typ := range all {
		sym := rt.Intern(typ.Name)
		_ = sym.DefineConstant(typ)
		sym.Doc = "Type " + typ.Name
	}
}

// TypeOf returns the type of v.
func (rt *Runtime) TypeOf(v Value) *Type {
	l := rt.types
	switch v := v.(type) {
	case nil:
		return l.Null
	case bool:
		return l.Boolean
	case int:
		return l.Integer
	case float64:
		return l.Float
	case string:
		return l.String
	case *Symbol:
		if v.IsKeyword() {
			return l.Keyword
		}
		return l.Symbol
	case *Cons:
		return l.Cons
	case *Vector:
		return l.Vector
	case *Map:
		return l.Map
	case *Lambda:
		return l.Lambda
	case *MultiMethod:
		return l.MultiMethod
	case *Builtin:
		return l.Builtin
	case *Environment:
		return l.Environment
	case *Task:
		return l.Task
	case *Generator:
		return l.Generator
	case *Type:
		return l.Type
	case Condition:
		return l.Error
	}
	return rt.hostType(reflect.TypeOf(v))
}

func (rt *Runtime) hostType(rtyp reflect.Type) *Type {
	rt.hostMut.Lock()
	defer rt.hostMut.Unlock()
	typ, ok := rt.hostTypes[rtyp]
	if !ok {
		typ = &Type{Name: rtyp.String(), Parent: rt.types.Object, Host: rtyp}
		rt.hostTypes[rtyp] = typ
	}
	return typ
}

// Specializer restricts a method parameter to a type or to one value.
type Specializer struct {
	Type  *Type
	Eql   Value
	IsEql bool
}

func (rt *Runtime) newSpecializer(v Value) (*Specializer, error) {
	switch v := v.(type) {
	case *Type:
		return &Specializer{Type: v}, nil
	case *eqlSpecializer:
		return &Specializer{Eql: v.value, IsEql: true}, nil
	}
	return nil, fmt.Errorf("not a type: %s", Repr(v))
}

// eqlSpecializer is the compiled value of an (eql x) specializer form.
type eqlSpecializer struct {
	value Value
}

func (s *Specializer) String() string {
	if s == nil {
		return "Object"
	}
	if s.IsEql {
		return "(eql " + Repr(s.Eql) + ")"
	}
	return s.Type.Name
}

// rank returns the specificity of s for v.  Lower ranks are more specific.
// ok is false if s does not accept v.
func (s *Specializer) rank(rt *Runtime, v Value) (rank int, ok bool) {
	if s == nil {
		return unspecializedRank, true
	}
	if s.IsEql {
		return 0, Eql(s.Eql, v)
	}
	d := rt.TypeOf(v).Distance(s.Type)
	if d < 0 {
		return 0, false
	}
	return d + 1, true
}

const unspecializedRank = 1 << 20
