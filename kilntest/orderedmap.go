// Copyright © 2018 The ELPS authors

package kilntest

import (
	"testing"

	"github.com/luthersystems/kiln/lisp"
	"github.com/stretchr/testify/assert"
)

// AssertOrderedMap runs tests to ensure that m satisfies the constraints
// required of insertion ordered maps.  The following properties are tested:
//
//	m.Keys() and m.Values() produce slices of length m.Len()
//
//	Repeated calls to m.Keys() and m.Values() return equal slices
//
//	Calling m.Get() with each key returns the value at the same index of
//	m.Values()
//
// If keys is non-empty the keys of m must equal keys in order.
func AssertOrderedMap(t *testing.T, m *lisp.Map, keys ...lisp.Value) bool {
	t.Helper()
	if !assert.NotEqual(t, 0, m.Len(), "Cannot test an empty map") {
		return false
	}
	if !testFixed(t, "Keys", m.Len(), m.Keys) || !testFixed(t, "Values", m.Len(), m.Values) {
		return false
	}
	mkeys, vals := m.Keys(), m.Values()
	for i, k := range mkeys {
		v, ok := m.Get(k)
		if !assert.True(t, ok, "Key %d was not found in map: %s", i, lisp.Repr(k)) {
			return false
		}
		if !assert.True(t, lisp.Equal(vals[i], v), "Entry for key %s not consistent at index %d -- expected: %s got: %s", lisp.Repr(k), i, lisp.Repr(vals[i]), lisp.Repr(v)) {
			return false
		}
	}
	if len(keys) > 0 {
		return assert.Equal(t, keys, mkeys, "Key order")
	}
	return true
}

func testFixed(t *testing.T, method string, length int, fn func() []lisp.Value) bool {
	t.Helper()
	expect := fn()
	if !assert.Len(t, expect, length, "%s has an invalid length", method) {
		return false
	}
	for i := 0; i < 3; i++ {
		v := fn()
		if !assert.True(t, lisp.Equal(lisp.NewVector(expect...), lisp.NewVector(v...)), "%s got: %v expected: %v", method, v, expect) {
			return false
		}
	}
	return true
}
