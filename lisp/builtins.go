// Copyright © 2018 The ELPS authors

package lisp

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/davecgh/go-spew/spew"
	"github.com/luthersystems/kiln/parser/token"
)

type builtinDef struct {
	name string
	pure bool
	doc  string
	fns  []interface{}
}

func fns(f ...interface{}) []interface{} {
	return f
}

func langBuiltins() []builtinDef {
	return []builtinDef{
		{"+", true, "Returns the sum of its arguments.", fns(builtinAddInt, builtinAddFloat)},
		{"-", true, "Subtracts the remaining arguments from the first, or negates a single argument.", fns(builtinSubInt, builtinSubFloat)},
		{"*", true, "Returns the product of its arguments.", fns(builtinMulInt, builtinMulFloat)},
		{"/", true, "Divides the first argument by the remaining arguments.  Integer division truncates.", fns(builtinDivInt, builtinDivFloat)},
		{"mod", true, "Returns the remainder of dividing a by b.", fns(builtinModInt, math.Mod)},
		{"=", true, "Returns true if all arguments are equal numbers or strings.", fns(builtinEqInt, builtinEqFloat, builtinEqString)},
		{"/=", true, "Returns true if a and b are not equal.", fns(builtinNotEqual)},
		{"<", true, "Returns true if the arguments are strictly increasing.", fns(compareInt(func(a, b int) bool { return a < b }), compareFloat(func(a, b float64) bool { return a < b }), compareString(func(a, b string) bool { return a < b }))},
		{"<=", true, "Returns true if the arguments are increasing.", fns(compareInt(func(a, b int) bool { return a <= b }), compareFloat(func(a, b float64) bool { return a <= b }), compareString(func(a, b string) bool { return a <= b }))},
		{">", true, "Returns true if the arguments are strictly decreasing.", fns(compareInt(func(a, b int) bool { return a > b }), compareFloat(func(a, b float64) bool { return a > b }), compareString(func(a, b string) bool { return a > b }))},
		{">=", true, "Returns true if the arguments are decreasing.", fns(compareInt(func(a, b int) bool { return a >= b }), compareFloat(func(a, b float64) bool { return a >= b }), compareString(func(a, b string) bool { return a >= b }))},
		{"not", true, "Returns true if v is null or false.", fns(func(v Value) bool { return !IsTrue(v) })},
		{"eq", true, "Returns true if a and b are the same object.", fns(Eql)},
		{"eql", true, "Returns true if a and b are the same object.", fns(Eql)},
		{"equal", true, "Returns true if a and b are structurally equal.", fns(Equal)},
		{"list", true, "Returns a list of its arguments.", fns(List)},
		{"vector", false, "Returns a new vector of its arguments.", fns(NewVector)},
		{"hash-map", false, "Returns a new map of alternating keys and values.", fns(builtinHashMap)},
		{"cons", true, "Returns a list with head in front of tail.", fns(builtinCons)},
		{"car", true, "Returns the first element of a list.", fns(builtinCar)},
		{"cdr", true, "Returns a list without its first element.", fns(builtinCdr)},
		{"first", true, "Returns the first element of a sequence.", fns(builtinFirst)},
		{"rest", true, "Returns a sequence without its first element.", fns(builtinRest)},
		{"length", true, "Returns the number of elements of a sequence.", fns(builtinLength)},
		{"nth", true, "Returns the element of a sequence at index n.", fns(builtinNth)},
		{"string", true, "Returns the printed representation of v with strings unquoted.", fns(Display)},
		{"str", true, "Concatenates the printed representations of its arguments.", fns(builtinStr)},
		{"string-append", true, "Concatenates strings.", fns(builtinStringAppend)},
		{"symbol-name", true, "Returns the name of a symbol.", fns(func(sym *Symbol) string { return sym.Name })},
		{"keyword?", true, "Returns true if v is a keyword.", fns(builtinIsKeyword)},
		{"symbol?", true, "Returns true if v is a symbol.", fns(builtinIsSymbol)},
		{"null?", true, "Returns true if v is null.", fns(func(v Value) bool { return v == nil })},
		{"number?", true, "Returns true if v is a number.", fns(builtinIsNumber)},
		{"integer?", true, "Returns true if v is an integer.", fns(builtinIsInteger)},
		{"float?", true, "Returns true if v is a float.", fns(builtinIsFloat)},
		{"string?", true, "Returns true if v is a string.", fns(builtinIsString)},
		{"list?", true, "Returns true if v is a list.", fns(builtinIsList)},
		{"vector?", true, "Returns true if v is a vector.", fns(builtinIsVector)},
		{"map?", true, "Returns true if v is a map.", fns(builtinIsMap)},
		{"function?", true, "Returns true if v can be called as a function.", fns(builtinIsFunction)},
		{"abs", true, "Returns the absolute value of x.", fns(builtinAbsInt, math.Abs)},
		{"min", true, "Returns the smallest argument.", fns(builtinMinInt, builtinMinFloat)},
		{"max", true, "Returns the largest argument.", fns(builtinMaxInt, builtinMaxFloat)},
		{"print", false, "Writes its arguments to standard output separated by spaces.", fns(builtinPrint)},
		{"println", false, "Writes its arguments to standard output followed by a newline.", fns(builtinPrintln)},
		{"format-string", false, "Replaces each {} in format with the next argument.", fns(builtinFormatString)},
		{"funcall", false, "Calls fn with the remaining arguments.", fns(builtinFuncall)},
		{"apply", false, "Calls fn with arguments, the last of which is spread.", fns(builtinApply)},
		{"map", false, "Returns the results of calling fn on each element of seq.", fns(builtinMap)},
		{"each", false, "Calls fn on each element of seq.", fns(builtinEach)},
		{"filter", false, "Returns the elements of seq for which pred is true.", fns(builtinFilter)},
		{"reduce", false, "Combines the elements of seq with fn starting from init.", fns(builtinReduce)},
		{"reverse", false, "Returns a sequence with the elements of seq in reverse order.", fns(builtinReverse)},
		{"append", false, "Returns a new sequence with items added to the end of seq.", fns(builtinAppend)},
		{"macroexpand-1", false, "Expands a macro call once.", fns(builtinMacroExpand1)},
		{"eval", false, "Evaluates a form, optionally in an environment.", fns(builtinEval, builtinEvalIn)},
		{"load", false, "Loads a source file.", fns(builtinLoad)},
		{"gensym", false, "Returns a new uninterned symbol.", fns(func(t *Thread) *Symbol { return t.Runtime.Gensym() })},
		{"type-of", false, "Returns the type of v.", fns(builtinTypeOf)},
		{"error", false, "Raises an error.", fns(builtinError)},
		{"make-error", false, "Returns an error without raising it.", fns(builtinMakeError)},
		{"error-message", false, "Returns the message of an error.", fns(func(c Condition) string { return c.ErrorMessage() })},
		{"error-condition", false, "Returns the condition of an error as a keyword.", fns(builtinErrorCondition)},
		{"error-data", false, "Returns the data attached to an error.", fns(builtinErrorData)},
		{"get", false, "Returns the value of key in m, or a default.", fns(builtinGet, builtinGetDefault)},
		{"assoc!", false, "Associates key with v in m and returns m.", fns(builtinAssocMutate)},
		{"has-key?", false, "Returns true if m contains key.", fns(builtinHasKey)},
		{"keys", false, "Returns the keys of m in insertion order.", fns(builtinKeys)},
		{"values", false, "Returns the values of m in insertion order.", fns(builtinValues)},
		{"get-member", false, "Returns a member of an object or calls one of its methods.", fns(builtinGetMember)},
		{"task", false, "Calls fn on a new thread and returns a task.", fns(builtinTask)},
		{"await", false, "Waits for a task to finish and returns its value.", fns(builtinAwait)},
		{"generator", false, "Returns a generator whose values are yielded by fn.", fns(builtinGenerator)},
		{"yield", false, "Hands a value to the consumer of the current generator.", fns(builtinYield)},
		{"resume", false, "Returns the next value of a generator.", fns(builtinResume)},
		{"generator-done?", false, "Returns true if a generator has no more values.", fns(builtinGeneratorDone)},
		{"parallel-map", false, "Calls fn on each element of seq in parallel and returns the results in order.", fns(builtinParallelMap)},
		{"parallel-each", false, "Calls fn on each element of seq in parallel.", fns(builtinParallelEach)},
		{"abort", false, "Leaves the current debugging level.", fns(func() error { return &AbortSignal{} })},
		{"inspect", false, "Writes a description of v to standard output and returns v.", fns(builtinInspect)},
		{"environment-bindings", false, "Returns the variables of an environment as a map.", fns(func(env *Environment) *Map { return env.Bindings() })},
		{"sleep", false, "Pauses the thread for a number of seconds.", fns(builtinSleep)},
	}
}

func (rt *Runtime) defineBuiltins() {
	for _, def := range langBuiltins() {
		b, err := rt.DefineBuiltin(def.name, def.pure, def.fns...)
		if err != nil {
			panic(err)
		}
		b.Doc = def.doc
	}
}

// callSite returns the location of the innermost call on the stack.
func (t *Thread) callSite() *token.Location {
	if t.Stack == nil {
		return nil
	}
	return t.Stack.Source
}

func builtinAddInt(xs ...int) int {
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return sum
}

func builtinAddFloat(x float64, xs ...float64) float64 {
	for _, y := range xs {
		x += y
	}
	return x
}

func builtinSubInt(x int, xs ...int) int {
	if len(xs) == 0 {
		return -x
	}
	for _, y := range xs {
		x -= y
	}
	return x
}

func builtinSubFloat(x float64, xs ...float64) float64 {
	if len(xs) == 0 {
		return -x
	}
	for _, y := range xs {
		x -= y
	}
	return x
}

func builtinMulInt(xs ...int) int {
	prod := 1
	for _, x := range xs {
		prod *= x
	}
	return prod
}

func builtinMulFloat(x float64, xs ...float64) float64 {
	for _, y := range xs {
		x *= y
	}
	return x
}

func builtinDivInt(t *Thread, x int, xs ...int) (int, error) {
	if len(xs) == 0 {
		xs, x = []int{x}, 1
	}
	for _, y := range xs {
		if y == 0 {
			return 0, t.Errorf(nil, CondArithmeticError, "division by zero")
		}
		x /= y
	}
	return x, nil
}

func builtinDivFloat(x float64, xs ...float64) float64 {
	if len(xs) == 0 {
		return 1 / x
	}
	for _, y := range xs {
		x /= y
	}
	return x
}

func builtinModInt(t *Thread, a, b int) (int, error) {
	if b == 0 {
		return 0, t.Errorf(nil, CondArithmeticError, "division by zero")
	}
	return a % b, nil
}

func builtinEqInt(x int, xs ...int) bool {
	for _, y := range xs {
		if x != y {
			return false
		}
	}
	return true
}

func builtinEqFloat(x float64, xs ...float64) bool {
	for _, y := range xs {
		if x != y {
			return false
		}
	}
	return true
}

func builtinEqString(x string, xs ...string) bool {
	for _, y := range xs {
		if x != y {
			return false
		}
	}
	return true
}

func builtinNotEqual(a, b Value) bool {
	return !Equal(a, b)
}

func compareInt(less func(a, b int) bool) func(int, ...int) bool {
	return func(x int, xs ...int) bool {
		for _, y := range xs {
			if !less(x, y) {
				return false
			}
			x = y
		}
		return true
	}
}

func compareFloat(less func(a, b float64) bool) func(float64, ...float64) bool {
	return func(x float64, xs ...float64) bool {
		for _, y := range xs {
			if !less(x, y) {
				return false
			}
			x = y
		}
		return true
	}
}

func compareString(less func(a, b string) bool) func(string, ...string) bool {
	return func(x string, xs ...string) bool {
		for _, y := range xs {
			if !less(x, y) {
				return false
			}
			x = y
		}
		return true
	}
}

func builtinAbsInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func builtinMinInt(x int, xs ...int) int {
	for _, y := range xs {
		if y < x {
			x = y
		}
	}
	return x
}

func builtinMinFloat(x float64, xs ...float64) float64 {
	for _, y := range xs {
		x = math.Min(x, y)
	}
	return x
}

func builtinMaxInt(x int, xs ...int) int {
	for _, y := range xs {
		if y > x {
			x = y
		}
	}
	return x
}

func builtinMaxFloat(x float64, xs ...float64) float64 {
	for _, y := range xs {
		x = math.Max(x, y)
	}
	return x
}

func builtinHashMap(t *Thread, kvs ...Value) (*Map, error) {
	if len(kvs)%2 != 0 {
		return nil, t.Errorf(nil, CondArityError, "odd number of arguments: %d", len(kvs))
	}
	m := NewMap()
	for i := 0; i < len(kvs); i += 2 {
		if err := m.Set(kvs[i], kvs[i+1]); err != nil {
			return nil, t.Errorf(nil, CondTypeError, "%v", err)
		}
	}
	return m, nil
}

func builtinCons(head Value, tail *Cons) *Cons {
	return &Cons{Car: head, Cdr: tail}
}

func builtinCar(c *Cons) Value {
	if c == nil {
		return nil
	}
	return c.Car
}

func builtinCdr(c *Cons) *Cons {
	if c == nil {
		return nil
	}
	return c.Cdr
}

func builtinFirst(t *Thread, seq Value) (Value, error) {
	switch s := seq.(type) {
	case nil:
		return nil, nil
	case *Cons:
		return s.Car, nil
	case *Vector:
		if len(s.Items) == 0 {
			return nil, nil
		}
		return s.Items[0], nil
	case string:
		if s == "" {
			return nil, nil
		}
		r, _ := utf8.DecodeRuneInString(s)
		return string(r), nil
	}
	return nil, t.notSequence(seq)
}

func builtinRest(t *Thread, seq Value) (Value, error) {
	switch s := seq.(type) {
	case nil:
		return nil, nil
	case *Cons:
		return listValue(s.Cdr), nil
	case *Vector:
		if len(s.Items) == 0 {
			return NewVector(), nil
		}
		return NewVector(append([]Value(nil), s.Items[1:]...)...), nil
	case string:
		if s == "" {
			return "", nil
		}
		_, n := utf8.DecodeRuneInString(s)
		return s[n:], nil
	}
	return nil, t.notSequence(seq)
}

func builtinLength(t *Thread, seq Value) (int, error) {
	switch s := seq.(type) {
	case nil:
		return 0, nil
	case *Cons:
		return s.Len(), nil
	case *Vector:
		return len(s.Items), nil
	case *Map:
		return s.Len(), nil
	case string:
		return utf8.RuneCountInString(s), nil
	}
	return 0, t.notSequence(seq)
}

func builtinNth(t *Thread, seq Value, n int) (Value, error) {
	return t.Elt(seq, n, nil)
}

func (t *Thread) notSequence(v Value) error {
	return t.Errorf(nil, CondTypeError, "not a sequence: %s", Repr(v))
}

// Items returns the elements of a list, vector or string.
func (t *Thread) Items(seq Value) ([]Value, error) {
	switch s := seq.(type) {
	case nil:
		return nil, nil
	case *Cons:
		return s.Slice(), nil
	case *Vector:
		return s.Items, nil
	case string:
		var items []Value
		for _, r := range s {
			items = append(items, string(r))
		}
		return items, nil
	}
	return nil, t.notSequence(seq)
}

// sameKind returns items as a sequence of the same kind as seq.  Strings
// produce lists.
func sameKind(seq Value, items []Value) Value {
	if _, ok := seq.(*Vector); ok {
		return NewVector(items...)
	}
	return listValue(List(items...))
}

// Elt returns the element of seq at index.  Maps are indexed by key.
func (t *Thread) Elt(seq Value, index Value, src *token.Location) (Value, error) {
	if m, ok := seq.(*Map); ok {
		v, _ := m.Get(index)
		return v, nil
	}
	i, ok := index.(int)
	if !ok {
		return nil, t.Errorf(src, CondTypeError, "index is not an integer: %s", Repr(index))
	}
	switch s := seq.(type) {
	case *Vector:
		if i < 0 || i >= len(s.Items) {
			return nil, t.indexError(i, len(s.Items), src)
		}
		return s.Items[i], nil
	case nil, *Cons:
		c, _ := s.(*Cons)
		n := c.Len()
		if i < 0 || i >= n {
			return nil, t.indexError(i, n, src)
		}
		return c.Nth(i), nil
	case string:
		runes := []rune(s)
		if i < 0 || i >= len(runes) {
			return nil, t.indexError(i, len(runes), src)
		}
		return string(runes[i]), nil
	}
	return nil, t.Errorf(src, CondTypeError, "not indexable: %s", Repr(seq))
}

// SetElt assigns the element of seq at index.  Maps are indexed by key.
func (t *Thread) SetElt(seq Value, index Value, v Value, src *token.Location) error {
	if m, ok := seq.(*Map); ok {
		if err := m.Set(index, v); err != nil {
			return t.Errorf(src, CondTypeError, "%v", err)
		}
		return nil
	}
	i, ok := index.(int)
	if !ok {
		return t.Errorf(src, CondTypeError, "index is not an integer: %s", Repr(index))
	}
	switch s := seq.(type) {
	case *Vector:
		if i < 0 || i >= len(s.Items) {
			return t.indexError(i, len(s.Items), src)
		}
		s.Items[i] = v
		return nil
	case *Cons:
		n := s.Len()
		if i < 0 || i >= n {
			return t.indexError(i, n, src)
		}
		for ; i > 0; i-- {
			s = s.Cdr
		}
		s.Car = v
		return nil
	}
	return t.Errorf(src, CondTypeError, "not assignable by index: %s", Repr(seq))
}

func (t *Thread) indexError(i, n int, src *token.Location) error {
	return t.Errorf(src, CondIndexError, "index %d out of range [0, %d)", i, n)
}

func builtinStr(args ...Value) string {
	var buf bytes.Buffer
	for _, v := range args {
		buf.WriteString(Display(v))
	}
	return buf.String()
}

func builtinStringAppend(parts ...string) string {
	return strings.Join(parts, "")
}

func builtinIsKeyword(v Value) bool {
	sym, ok := v.(*Symbol)
	return ok && sym.IsKeyword()
}

func builtinIsSymbol(v Value) bool {
	_, ok := v.(*Symbol)
	return ok
}

func builtinIsNumber(v Value) bool {
	switch v.(type) {
	case int, float64:
		return true
	}
	return false
}

func builtinIsInteger(v Value) bool {
	_, ok := v.(int)
	return ok
}

func builtinIsFloat(v Value) bool {
	_, ok := v.(float64)
	return ok
}

func builtinIsString(v Value) bool {
	_, ok := v.(string)
	return ok
}

func builtinIsList(v Value) bool {
	switch v.(type) {
	case nil, *Cons:
		return true
	}
	return false
}

func builtinIsVector(v Value) bool {
	_, ok := v.(*Vector)
	return ok
}

func builtinIsMap(v Value) bool {
	_, ok := v.(*Map)
	return ok
}

func builtinIsFunction(v Value) bool {
	switch fn := v.(type) {
	case *Lambda:
		return fn.Kind != MacroKind
	case *MultiMethod, *Builtin:
		return true
	}
	return false
}

func builtinPrint(t *Thread, args ...Value) error {
	_, err := fmt.Fprint(t.Runtime.Stdout, displayJoin(args))
	return err
}

func builtinPrintln(t *Thread, args ...Value) error {
	_, err := fmt.Fprintln(t.Runtime.Stdout, displayJoin(args))
	return err
}

func displayJoin(args []Value) string {
	parts := make([]string, len(args))
	for i, v := range args {
		parts[i] = Display(v)
	}
	return strings.Join(parts, " ")
}

// builtinFormatString substitutes arguments for {} directives.  Literal
// braces are written {{ and }}.
func builtinFormatString(t *Thread, format string, args ...Value) (string, error) {
	var buf bytes.Buffer
	next := 0
	for i := 0; i < len(format); i++ {
		ch := format[i]
		switch {
		case ch == '{' && i+1 < len(format) && format[i+1] == '{':
			buf.WriteByte('{')
			i++
		case ch == '}' && i+1 < len(format) && format[i+1] == '}':
			buf.WriteByte('}')
			i++
		case ch == '{' && i+1 < len(format) && format[i+1] == '}':
			if next >= len(args) {
				return "", t.Errorf(nil, CondFormatError, "too many formatting directives for supplied values")
			}
			buf.WriteString(Display(args[next]))
			next++
			i++
		case ch == '{':
			return "", t.Errorf(nil, CondFormatError, "formatting directives must be empty")
		case ch == '}':
			return "", t.Errorf(nil, CondFormatError, "unexpected closing brace '}' outside of formatting directive")
		default:
			buf.WriteByte(ch)
		}
	}
	if next < len(args) {
		return "", t.Errorf(nil, CondFormatError, "too many values for formatting directives")
	}
	return buf.String(), nil
}

func builtinFuncall(t *Thread, fn Value, args ...Value) (Value, error) {
	return t.Apply(fn, args, t.callSite())
}

func builtinApply(t *Thread, fn Value, args ...Value) (Value, error) {
	if len(args) == 0 {
		return t.Apply(fn, nil, t.callSite())
	}
	spread, err := t.Items(args[len(args)-1])
	if err != nil {
		return nil, err
	}
	all := append(append([]Value(nil), args[:len(args)-1]...), spread...)
	return t.Apply(fn, all, t.callSite())
}

func builtinMap(t *Thread, fn Value, seq Value) (Value, error) {
	items, err := t.Items(seq)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(items))
	for i, x := range items {
		out[i], err = t.Apply(fn, []Value{x}, t.callSite())
		if err != nil {
			return nil, err
		}
	}
	return sameKind(seq, out), nil
}

func builtinEach(t *Thread, fn Value, seq Value) error {
	items, err := t.Items(seq)
	if err != nil {
		return err
	}
	for _, x := range items {
		if _, err := t.Apply(fn, []Value{x}, t.callSite()); err != nil {
			return err
		}
	}
	return nil
}

func builtinFilter(t *Thread, pred Value, seq Value) (Value, error) {
	items, err := t.Items(seq)
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, x := range items {
		ok, err := t.Apply(pred, []Value{x}, t.callSite())
		if err != nil {
			return nil, err
		}
		if IsTrue(ok) {
			out = append(out, x)
		}
	}
	return sameKind(seq, out), nil
}

func builtinReduce(t *Thread, fn Value, init Value, seq Value) (Value, error) {
	items, err := t.Items(seq)
	if err != nil {
		return nil, err
	}
	acc := init
	for _, x := range items {
		acc, err = t.Apply(fn, []Value{acc, x}, t.callSite())
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func builtinReverse(t *Thread, seq Value) (Value, error) {
	if s, ok := seq.(string); ok {
		runes := []rune(s)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes), nil
	}
	items, err := t.Items(seq)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(items))
	for i, x := range items {
		out[len(items)-1-i] = x
	}
	return sameKind(seq, out), nil
}

func builtinAppend(t *Thread, seq Value, items ...Value) (Value, error) {
	switch seq.(type) {
	case nil, *Cons, *Vector:
	default:
		return nil, t.Errorf(nil, CondTypeError, "not a list or vector: %s", Repr(seq))
	}
	head, err := t.Items(seq)
	if err != nil {
		return nil, err
	}
	out := append(append([]Value(nil), head...), items...)
	return sameKind(seq, out), nil
}

func builtinMacroExpand1(t *Thread, form Value) (Value, error) {
	exp, _, err := t.MacroExpand1(form)
	return exp, err
}

func builtinEval(t *Thread, form Value) (Value, error) {
	return t.Eval(form, nil)
}

func builtinEvalIn(t *Thread, form Value, env *Environment) (Value, error) {
	return t.Eval(form, env)
}

func builtinLoad(t *Thread, path string) (Value, error) {
	return t.LoadFile(path)
}

func builtinTypeOf(t *Thread, v Value) *Type {
	return t.Runtime.TypeOf(v)
}

func builtinError(t *Thread, args ...Value) error {
	if len(args) == 0 {
		return t.Errorf(nil, CondError, "error")
	}
	return t.throw(args, nil)
}

func builtinMakeError(condition *Symbol, args ...Value) (*Error, error) {
	if !condition.IsKeyword() {
		return nil, fmt.Errorf("condition is not a keyword: %s", condition.Name)
	}
	err := &Error{Condition: condition.Name[len(KeywordPrefix):]}
	if len(args) > 0 {
		err.Message = Display(args[0])
	}
	if len(args) > 1 {
		err.Data = args[1]
	}
	return err, nil
}

func builtinErrorCondition(t *Thread, c Condition) *Symbol {
	return t.Runtime.Intern(KeywordPrefix + c.ConditionName())
}

func builtinErrorData(c Condition) Value {
	if e, ok := c.(*Error); ok {
		return e.Data
	}
	return nil
}

func builtinGet(m *Map, key Value) Value {
	if m == nil {
		return nil
	}
	v, _ := m.Get(key)
	return v
}

func builtinGetDefault(m *Map, key Value, def Value) Value {
	if m == nil {
		return def
	}
	if v, ok := m.Get(key); ok {
		return v
	}
	return def
}

func builtinAssocMutate(t *Thread, m *Map, key Value, v Value) (*Map, error) {
	if m == nil {
		return nil, t.Errorf(nil, CondTypeError, "not a map: null")
	}
	if err := m.Set(key, v); err != nil {
		return nil, t.Errorf(nil, CondTypeError, "%v", err)
	}
	return m, nil
}

func builtinHasKey(m *Map, key Value) bool {
	if m == nil {
		return false
	}
	_, ok := m.Get(key)
	return ok
}

func builtinKeys(m *Map) *Cons {
	if m == nil {
		return nil
	}
	return List(m.Keys()...)
}

func builtinValues(m *Map) *Cons {
	if m == nil {
		return nil
	}
	return List(m.Values()...)
}

func builtinGetMember(t *Thread, obj Value, name Value, args ...Value) (Value, error) {
	s, ok := memberName(name)
	if !ok {
		return nil, t.Errorf(nil, CondTypeError, "invalid member name: %s", Repr(name))
	}
	return t.GetMember(obj, s, args, t.callSite())
}

func builtinInspect(t *Thread, v Value) Value {
	typ := t.Runtime.TypeOf(v)
	if isLispValue(v) {
		fmt.Fprintf(t.Runtime.Stdout, "%s: %s\n", typ, Repr(v))
	} else {
		fmt.Fprintf(t.Runtime.Stdout, "%s: %s", typ, spew.Sdump(v))
	}
	return v
}

func builtinSleep(t *Thread, seconds float64) error {
	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-t.Runtime.Context.Done():
		return t.Runtime.Context.Err()
	}
}
