package profiler_test

import (
	"testing"

	"github.com/luthersystems/kiln/lisp"
	"github.com/luthersystems/kiln/parser"
	"github.com/stretchr/testify/require"
)

const testLisp = `
(defun add-it (x y)
  "@trace{ Add It }"
  (+ x y))

(defun add-it-again (x y)
  "@trace{ Add It Again }"
  (add-it x y))

(defun recurse-it (x)
  (if (> x 0)
      (recurse-it (- x 1))
      (add-it x 3)))

(add-it-again (add-it 3 (recurse-it 2)) 8)
`

func newRuntime(t *testing.T) *lisp.Runtime {
	rt, err := lisp.NewRuntime(lisp.WithReader(parser.NewReader()))
	require.NoError(t, err)
	return rt
}

func loadTestLisp(t *testing.T, rt *lisp.Runtime) {
	v, err := rt.LoadString("test.lisp", testLisp)
	require.NoError(t, err)
	require.Equal(t, 14, v)
}
