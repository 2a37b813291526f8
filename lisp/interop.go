// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"
	"reflect"

	"github.com/luthersystems/kiln/parser/token"
	"github.com/pkg/errors"
)

// Builtin is a function implemented in Go.  A builtin may have several
// overloads; a call selects the overload whose parameter types best match
// the arguments.
//
// An overload is any Go function.  A leading *Thread parameter receives the
// calling thread.  Results may be (), (T), (error) or (T, error).
type Builtin struct {
	Name string
	Doc  string
	// Pure builtins have no side effects and may be evaluated at compile
	// time.
	Pure bool

	overloads []*overload
}

type overload struct {
	fn       reflect.Value
	in       []reflect.Type
	thread   bool
	variadic bool
	hasValue bool
	hasError bool
	key      uint64
}

var (
	threadType = reflect.TypeOf((*Thread)(nil))
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
	consType   = reflect.TypeOf((*Cons)(nil))
)

// NewBuiltin returns a builtin with the given overloads.
func NewBuiltin(name string, pure bool, fns ...interface{}) (*Builtin, error) {
	if len(fns) == 0 {
		return nil, fmt.Errorf("builtin %s has no overloads", name)
	}
	b := &Builtin{Name: name, Pure: pure}
	for _, fn := range fns {
		ov, err := newOverload(fn)
		if err != nil {
			return nil, errors.Wrapf(err, "builtin %s", name)
		}
		b.overloads = append(b.overloads, ov)
	}
	return b, nil
}

func newOverload(fn interface{}) (*overload, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("not a function: %T", fn)
	}
	typ := v.Type()
	ov := &overload{
		fn:       v,
		variadic: typ.IsVariadic(),
		key:      hashKey(typ.String()),
	}
	for i := 0; i < typ.NumIn(); i++ {
		if i == 0 && typ.In(0) == threadType {
			ov.thread = true
			continue
		}
		ov.in = append(ov.in, typ.In(i))
	}
	switch typ.NumOut() {
	case 0:
	case 1:
		if typ.Out(0) == errorType {
			ov.hasError = true
		} else {
			ov.hasValue = true
		}
	case 2:
		if typ.Out(1) != errorType {
			return nil, fmt.Errorf("second result is not an error: %v", typ)
		}
		ov.hasValue = true
		ov.hasError = true
	default:
		return nil, fmt.Errorf("too many results: %v", typ)
	}
	return ov, nil
}

// DefineBuiltin registers a builtin function under name.
func (rt *Runtime) DefineBuiltin(name string, pure bool, fns ...interface{}) (*Builtin, error) {
	b, err := NewBuiltin(name, pure, fns...)
	if err != nil {
		return nil, err
	}
	rt.Intern(name).DefineFunction(b)
	return b, nil
}

func (b *Builtin) String() string {
	return "#<builtin " + b.Name + ">"
}

// Conversion ranks of one argument.  A numeric conversion ranks below every
// match that keeps the argument's type, variadic ones included.
const (
	rankExact = iota
	rankAssignable
	rankVariadicExact
	rankVariadicAssignable
	rankConvert
)

func (ov *overload) paramType(i int) (reflect.Type, bool) {
	n := len(ov.in)
	if ov.variadic && i >= n-1 {
		return ov.in[n-1].Elem(), true
	}
	return ov.in[i], false
}

// rank returns the conversion rank of each argument, or false if the
// overload does not accept args.
func (ov *overload) rank(args []Value) ([]int, bool) {
	n := len(ov.in)
	if ov.variadic {
		if len(args) < n-1 {
			return nil, false
		}
	} else if len(args) != n {
		return nil, false
	}
	ranks := make([]int, len(args))
	for i, arg := range args {
		ptype, variadic := ov.paramType(i)
		r, ok := argRank(arg, ptype)
		if !ok {
			return nil, false
		}
		if variadic && r != rankConvert {
			r += rankVariadicExact
		}
		ranks[i] = r
	}
	return ranks, true
}

func argRank(arg Value, ptype reflect.Type) (int, bool) {
	if arg == nil {
		switch ptype.Kind() {
		case reflect.Interface:
			return rankExact, true
		case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return rankAssignable, true
		}
		return 0, false
	}
	atype := reflect.TypeOf(arg)
	switch {
	case atype == ptype:
		return rankExact, true
	case atype.AssignableTo(ptype):
		return rankAssignable, true
	case atype.Kind() == reflect.Int && ptype.Kind() == reflect.Float64:
		return rankConvert, true
	}
	return 0, false
}

func convertArg(arg Value, ptype reflect.Type) reflect.Value {
	if arg == nil {
		return reflect.Zero(ptype)
	}
	v := reflect.ValueOf(arg)
	if v.Type() != ptype && !v.Type().AssignableTo(ptype) {
		return v.Convert(ptype)
	}
	return v
}

// resolve returns the overload that best matches args.
func (b *Builtin) resolve(args []Value) (*overload, bool) {
	var best *overload
	var bestRank []int
	for _, ov := range b.overloads {
		rank, ok := ov.rank(args)
		if !ok {
			continue
		}
		if best == nil || compareRanks(rank, ov.key, bestRank, best.key) < 0 {
			best, bestRank = ov, rank
		}
	}
	return best, best != nil
}

func (t *Thread) callBuiltin(b *Builtin, args []Value, src *token.Location) (v Value, err error) {
	ov, ok := b.resolve(args)
	if !ok {
		derr := &DispatchError{
			Name:     b.Name,
			ArgTypes: argTypes(t.Runtime, args),
			Reason:   "no suitable method found",
		}
		derr.capture(t, src)
		return nil, derr
	}
	saved := t.Save()
	defer func() {
		if r := recover(); r != nil {
			herr := &HostInteropError{Name: b.Name, Err: fmt.Errorf("panic: %v", r)}
			herr.capture(t, src)
			v, err = nil, herr
		}
		t.Restore(saved)
	}()
	if err := t.enter(b.Name, src, false); err != nil {
		return nil, err
	}
	in := make([]reflect.Value, 0, len(args)+1)
	if ov.thread {
		in = append(in, reflect.ValueOf(t))
	}
	for i, arg := range args {
		ptype, _ := ov.paramType(i)
		in = append(in, convertArg(arg, ptype))
	}
	out := ov.fn.Call(in)
	if ov.hasError {
		if e, _ := out[len(out)-1].Interface().(error); e != nil {
			return nil, t.hostError(b.Name, e, src)
		}
	}
	if ov.hasValue {
		return normalize(out[0]), nil
	}
	return nil, nil
}

// hostError converts an error returned by a host function.  Conditions and
// control signals pass through.
func (t *Thread) hostError(name string, err error, src *token.Location) error {
	if IsControlSignal(err) {
		return err
	}
	if _, ok := err.(Condition); ok {
		return t.raise(err, src)
	}
	herr := wrapHostError(name, err)
	herr.capture(t, src)
	return herr
}

// normalize converts a host result to a Value.
func normalize(v reflect.Value) Value {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() && v.Type() == consType {
			return nil
		}
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(v.Int())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int(v.Uint())
	case reflect.Float32:
		return v.Float()
	}
	return v.Interface()
}

// Apply calls fn with args.
func (t *Thread) Apply(fn Value, args []Value, src *token.Location) (Value, error) {
	switch f := fn.(type) {
	case *Lambda:
		if f.Kind == MacroKind {
			return nil, t.Errorf(src, CondTypeError, "macro %s cannot be called as a function", f.displayName())
		}
		return t.callLambda(f, args, src)
	case *MultiMethod:
		return t.callMultiMethod(f, args, src)
	case *Builtin:
		return t.callBuiltin(f, args, src)
	case *Symbol:
		if f.IsKeyword() {
			return t.keywordAccess(f, args, src)
		}
	}
	if fn != nil && reflect.TypeOf(fn).Kind() == reflect.Func {
		b, err := NewBuiltin("host", false, fn)
		if err != nil {
			return nil, t.Errorf(src, CondTypeError, "%v", err)
		}
		return t.callBuiltin(b, args, src)
	}
	return nil, t.Errorf(src, CondTypeError, "not a function: %s", Repr(fn))
}

// keywordAccess implements calls of the form (:key map [default]).
func (t *Thread) keywordAccess(k *Symbol, args []Value, src *token.Location) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, t.Errorf(src, CondArityError, "%s: invalid number of arguments: %d", k.Name, len(args))
	}
	m, ok := args[0].(*Map)
	if !ok {
		return nil, t.Errorf(src, CondTypeError, "%s: not a map: %s", k.Name, Repr(args[0]))
	}
	if v, ok := m.Get(k); ok {
		return v, nil
	}
	if len(args) == 2 {
		return args[1], nil
	}
	return nil, nil
}

// GetMember returns the member named name of obj.  Maps are indexed by
// keyword or string keys.  For host values a method is called with args, or
// a field is read.
func (t *Thread) GetMember(obj Value, name string, args []Value, src *token.Location) (Value, error) {
	if m, ok := obj.(*Map); ok {
		if len(args) > 0 {
			return nil, t.Errorf(src, CondMemberError, "map member %s is not a method", name)
		}
		if v, ok := m.Get(t.Runtime.Intern(KeywordPrefix + name)); ok {
			return v, nil
		}
		v, _ := m.Get(name)
		return v, nil
	}
	if obj == nil {
		return nil, t.Errorf(src, CondMemberError, "cannot access member %s of null", name)
	}
	rv := reflect.ValueOf(obj)
	if method := rv.MethodByName(name); method.IsValid() {
		b, err := NewBuiltin(name, false, method.Interface())
		if err != nil {
			return nil, t.Errorf(src, CondMemberError, "%v", err)
		}
		return t.callBuiltin(b, args, src)
	}
	if len(args) > 0 {
		return nil, t.Errorf(src, CondMemberError, "no method %s for %s", name, t.Runtime.TypeOf(obj))
	}
	for rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		if f := rv.FieldByName(name); f.IsValid() && f.CanInterface() {
			return normalize(f), nil
		}
	}
	return nil, t.Errorf(src, CondMemberError, "no member %s for %s", name, t.Runtime.TypeOf(obj))
}

// SetMember assigns the member named name of obj.
func (t *Thread) SetMember(obj Value, name string, v Value, src *token.Location) error {
	if m, ok := obj.(*Map); ok {
		var key Value = name
		kw := t.Runtime.Intern(KeywordPrefix + name)
		if _, ok := m.Get(kw); ok {
			key = kw
		}
		if err := m.Set(key, v); err != nil {
			return t.Errorf(src, CondTypeError, "%v", err)
		}
		return nil
	}
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return t.Errorf(src, CondMemberError, "cannot set member %s of %s", name, Repr(obj))
	}
	f := rv.Elem().FieldByName(name)
	if !f.IsValid() || !f.CanSet() {
		return t.Errorf(src, CondMemberError, "no settable member %s for %s", name, t.Runtime.TypeOf(obj))
	}
	if _, ok := argRank(v, f.Type()); !ok {
		return t.Errorf(src, CondTypeError, "cannot assign %s to member %s of type %v", Repr(v), name, f.Type())
	}
	f.Set(convertArg(v, f.Type()))
	return nil
}
