// Copyright © 2018 The ELPS authors

package lisp

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/luthersystems/kiln/parser/token"
)

// Value is any term or runtime value.  Source terms are built from nil
// (the empty list), bool, int, float64, string, *Symbol, *Cons, *Vector and
// *Map.  Runtime values additionally include callables, errors, environments
// and arbitrary host values.
type Value = interface{}

type voidValue struct{}

func (voidValue) String() string { return "#<void>" }

// Void is produced by forms which only have a compile-time effect.  A load
// loop skips Void rather than treating it as the value of a form.
var Void Value = voidValue{}

// IsVoid returns true if v is the Void sentinel.
func IsVoid(v Value) bool {
	_, ok := v.(voidValue)
	return ok
}

// Cons is a cell in a proper list.  The empty list is represented by nil.
type Cons struct {
	Car    Value
	Cdr    *Cons
	Source *token.Location
}

// List constructs a proper list containing items.
func List(items ...Value) *Cons {
	var head *Cons
	for i := len(items) - 1; i >= 0; i-- {
		head = &Cons{Car: items[i], Cdr: head}
	}
	return head
}

// listValue converts a possibly nil *Cons to a Value so that the empty list
// is the untyped nil.
func listValue(c *Cons) Value {
	if c == nil {
		return nil
	}
	return c
}

// Len returns the number of cells in the list.
func (c *Cons) Len() int {
	n := 0
	for ; c != nil; c = c.Cdr {
		n++
	}
	return n
}

// Nth returns the element at index i, or nil.
func (c *Cons) Nth(i int) Value {
	for ; c != nil; c = c.Cdr {
		if i == 0 {
			return c.Car
		}
		i--
	}
	return nil
}

// Slice returns the elements of c in order.
func (c *Cons) Slice() []Value {
	var items []Value
	for ; c != nil; c = c.Cdr {
		items = append(items, c.Car)
	}
	return items
}

// ListToSlice returns the elements of a list value.  ok is false if v is not
// a list.
func ListToSlice(v Value) (items []Value, ok bool) {
	switch v := v.(type) {
	case nil:
		return nil, true
	case *Cons:
		return v.Slice(), true
	}
	return nil, false
}

// Vector is a mutable indexed sequence.
type Vector struct {
	Items []Value
}

// NewVector returns a vector holding items.
func NewVector(items ...Value) *Vector {
	return &Vector{Items: items}
}

// Map is an insertion ordered map.  Keys must be comparable Go values.
type Map struct {
	index map[Value]int
	keys  []Value
	vals  []Value
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{index: make(map[Value]int)}
}

// Get returns the value associated with k.
func (m *Map) Get(k Value) (Value, bool) {
	if !isComparable(k) {
		return nil, false
	}
	i, ok := m.index[k]
	if !ok {
		return nil, false
	}
	return m.vals[i], true
}

// Set associates v with k.
func (m *Map) Set(k, v Value) error {
	if !isComparable(k) {
		return fmt.Errorf("map key is not comparable: %s", Repr(k))
	}
	if i, ok := m.index[k]; ok {
		m.vals[i] = v
		return nil
	}
	m.index[k] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
	return nil
}

// Len returns the number of entries in m.
func (m *Map) Len() int {
	return len(m.keys)
}

// Keys returns the keys of m in insertion order.
func (m *Map) Keys() []Value {
	return append([]Value(nil), m.keys...)
}

// Values returns the values of m in insertion order.
func (m *Map) Values() []Value {
	return append([]Value(nil), m.vals...)
}

func isComparable(v Value) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}

// IsTrue implements boolean coercion.  Only nil and false are false.
func IsTrue(v Value) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	}
	return true
}

// Equal reports structural equality.  Numbers of different types compare by
// value.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case nil:
		return b == nil
	case int:
		switch b := b.(type) {
		case int:
			return a == b
		case float64:
			return float64(a) == b
		}
		return false
	case float64:
		switch b := b.(type) {
		case int:
			return a == float64(b)
		case float64:
			return a == b
		}
		return false
	case *Cons:
		bc, ok := b.(*Cons)
		if !ok {
			return false
		}
		for a != nil && bc != nil {
			if !Equal(a.Car, bc.Car) {
				return false
			}
			a, bc = a.Cdr, bc.Cdr
		}
		return a == nil && bc == nil
	case *Vector:
		bv, ok := b.(*Vector)
		if !ok || len(a.Items) != len(bv.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case *Map:
		bm, ok := b.(*Map)
		if !ok || a.Len() != bm.Len() {
			return false
		}
		for i, k := range a.keys {
			v, ok := bm.Get(k)
			if !ok || !Equal(a.vals[i], v) {
				return false
			}
		}
		return true
	}
	if isComparable(a) && isComparable(b) {
		return a == b
	}
	return false
}

// Eql reports whether a and b are the same object.  Numbers and strings are
// the same object when they have the same type and value.
func Eql(a, b Value) bool {
	if !isComparable(a) || !isComparable(b) {
		return false
	}
	return a == b
}

// Repr returns a readable representation of v.
func Repr(v Value) string {
	var buf bytes.Buffer
	writeValue(&buf, v, true)
	return buf.String()
}

// Display returns a representation of v with strings unquoted.
func Display(v Value) string {
	var buf bytes.Buffer
	writeValue(&buf, v, false)
	return buf.String()
}

func writeValue(buf *bytes.Buffer, v Value, quote bool) {
	switch v := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case int:
		buf.WriteString(strconv.Itoa(v))
	case float64:
		buf.WriteString(formatFloat(v))
	case string:
		if quote {
			buf.WriteString(strconv.Quote(v))
		} else {
			buf.WriteString(v)
		}
	case *Symbol:
		buf.WriteString(v.Name)
	case *Cons:
		if q, ok := quoteForm(v); ok {
			buf.WriteString(q)
			writeValue(buf, v.Cdr.Car, quote)
			return
		}
		buf.WriteString("(")
		for c := v; c != nil; c = c.Cdr {
			writeValue(buf, c.Car, quote)
			if c.Cdr != nil {
				buf.WriteString(" ")
			}
		}
		buf.WriteString(")")
	case *Vector:
		buf.WriteString("[")
		for i, x := range v.Items {
			if i > 0 {
				buf.WriteString(" ")
			}
			writeValue(buf, x, quote)
		}
		buf.WriteString("]")
	case *Map:
		buf.WriteString("{")
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteString(" ")
			}
			writeValue(buf, k, quote)
			buf.WriteString(" ")
			writeValue(buf, v.vals[i], quote)
		}
		buf.WriteString("}")
	case fmt.Stringer:
		buf.WriteString(v.String())
	case error:
		buf.WriteString(v.Error())
	default:
		fmt.Fprintf(buf, "#<%T %v>", v, v)
	}
}

func quoteForm(c *Cons) (string, bool) {
	sym, ok := c.Car.(*Symbol)
	if !ok || c.Cdr == nil || c.Cdr.Cdr != nil {
		return "", false
	}
	switch sym.Name {
	case QuoteSymbol:
		return "'", true
	case QuasiquoteSymbol:
		return "`", true
	case UnquoteSymbol:
		return ",", true
	case UnquoteSplicingSymbol:
		return ",@", true
	}
	return "", false
}

func formatFloat(x float64) string {
	switch {
	case math.IsInf(x, 1):
		return "+Inf"
	case math.IsInf(x, -1):
		return "-Inf"
	case math.IsNaN(x):
		return "NaN"
	}
	s := strconv.FormatFloat(x, 'f', -1, 64)
	if x == math.Trunc(x) && math.Abs(x) < 1e15 {
		return s + ".0"
	}
	if len(s) > 20 {
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return s
}

func sortedKeys(m map[string]*Symbol) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sourceOf returns the location of v if it is a located form.
func sourceOf(v Value) *token.Location {
	if c, ok := v.(*Cons); ok {
		return c.Source
	}
	return nil
}
