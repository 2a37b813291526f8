// Copyright © 2018 The ELPS authors

// Package kilntest runs table driven tests of lisp expressions.
package kilntest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/luthersystems/kiln/lisp"
	"github.com/luthersystems/kiln/lisp/lisplib"
	"github.com/luthersystems/kiln/parser"
)

// BenchmarkParse returns a benchmark that reads the file at path with the
// reader returned by r.
func BenchmarkParse(path string, r func() lisp.Reader) func(*testing.B) {
	return func(b *testing.B) {
		buf, err := os.ReadFile(path) //#nosec G304
		if err != nil {
			b.Fatalf("Unable to read source file %v: %v", path, err)
		}
		b.SetBytes(int64(len(buf)))
		reg := lisp.NewRegistry()
		for i := 0; i < b.N; i++ {
			_, err := r().Read(reg, "test", bytes.NewReader(buf))
			if err != nil {
				b.Fatalf("Parse failure: %v", err)
			}
		}
	}
}

// NewRuntime returns a runtime with the standard library loaded and
// diagnostics logged to t.  Configs are applied after the defaults.
func NewRuntime(t testing.TB, config ...lisp.Config) (*lisp.Runtime, error) {
	logger := NewLogger(t)
	defaults := []lisp.Config{
		lisp.WithReader(parser.NewReader()),
		lisp.WithStderr(logger),
		lisp.WithStdout(logger),
	}
	rt, err := lisp.NewRuntime(append(defaults, config...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize runtime: %v", err)
	}
	if err := lisplib.LoadLibrary(rt); err != nil {
		return nil, fmt.Errorf("failed to load package library: %v", err)
	}
	return rt, nil
}

// Result formats the outcome of evaluating an expression.  Values are
// formatted with lisp.Repr.  Conditions are formatted as the condition name
// and message without a source location.
func Result(v lisp.Value, err error) string {
	if err == nil {
		return lisp.Repr(v)
	}
	if c, ok := err.(lisp.Condition); ok {
		return c.ConditionName() + ": " + c.ErrorMessage()
	}
	return err.Error()
}

// LispError reports err with its captured environment and stack trace.
func LispError(t testing.TB, err error) {
	t.Helper()
	var buf bytes.Buffer
	_, ioerr := lisp.WriteTrace(&buf, err)
	if ioerr != nil {
		t.Errorf("io error: %v", ioerr)
		t.Error(err)
		return
	}
	t.Error(buf.String())
}

// TestSequence is a sequence of lisp expressions which are evaluated
// sequentially by a lisp.Runtime.
type TestSequence []struct {
	Expr   string // a lisp expression
	Result string // the evaluated result, see Result
	Output string // text written to Runtime.Stdout and Runtime.Stderr
}

// TestSuite is a set of named TestSequences
type TestSuite []struct {
	Name string
	TestSequence
}

// RunTestSuite runs each TestSequence in tests on isolated runtimes.
// Configs are applied to every runtime.
func RunTestSuite(t *testing.T, tests TestSuite, config ...lisp.Config) {
	for i, test := range tests {
		t.Logf("test %d -- %s", i, test.Name)
		var exprBuf bytes.Buffer
		out := io.MultiWriter(NewLogger(t), &exprBuf)
		configs := append([]lisp.Config{
			lisp.WithStderr(out),
			lisp.WithStdout(out),
		}, config...)
		rt, err := NewRuntime(t, configs...)
		if err != nil {
			t.Errorf("test %d %q: %v", i, test.Name, err)
			continue
		}
		for j, expr := range test.TestSequence {
			exprBuf.Reset()
			v, err := rt.Reader.Read(rt.Registry, "test", strings.NewReader(expr.Expr))
			if err != nil {
				t.Errorf("test %d %q: expr %d: parse error: %v", i, test.Name, j, err)
				continue
			}
			if len(v) == 0 {
				t.Errorf("test %d %q: expr %d: no expression parsed", i, test.Name, j)
				continue
			}
			if len(v) != 1 {
				t.Errorf("test %d %q: expr %d: more than one expression parsed (%d)", i, test.Name, j, len(v))
				continue
			}
			result := Result(rt.MainThread().LoadForms("test", v))
			if result != expr.Result {
				t.Errorf("test %d %q: expr %d: expected result %s (got %s)", i, test.Name, j, expr.Result, result)
			}
			if exprBuf.String() != expr.Output {
				t.Errorf("test %d %q: expr %d: expected output %q (got %q)", i, test.Name, j, expr.Output, exprBuf.String())
			}
		}
	}
}

// RunBenchmark runs a standard benchmark that executes expressions parsed from
// source.
func RunBenchmark(b *testing.B, source string) {
	b.StopTimer()
	p := parser.NewReader()
	for i := 0; i < b.N; i++ {
		rt, err := lisp.NewRuntime(
			lisp.WithReader(p),
			lisp.WithStderr(io.Discard),
			lisp.WithStdout(io.Discard),
		)
		if err != nil {
			b.Fatal(err)
		}
		exprs, err := p.Read(rt.Registry, "benchmark", strings.NewReader(source))
		if err != nil {
			b.Fatalf("parse error: %v", err)
		}
		b.StartTimer()
		_, err = rt.MainThread().LoadForms("benchmark", exprs)
		b.StopTimer()
		if err != nil {
			b.Fatal(err)
		}
	}
}
