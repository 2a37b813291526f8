// Copyright © 2018 The ELPS authors

package lisp

import (
	"context"
	"fmt"
	"io"
)

// Config is a function that configures a Runtime.
type Config func(rt *Runtime) error

// WithReader returns a Config that makes the runtime use r to parse source
// streams.  There is no default Reader.
func WithReader(r Reader) Config {
	return func(rt *Runtime) error {
		rt.Reader = r
		return nil
	}
}

// WithStderr returns a Config that makes the runtime write warnings and
// diagnostics to w instead of the default, os.Stderr.
func WithStderr(w io.Writer) Config {
	return func(rt *Runtime) error {
		rt.Stderr = w
		return nil
	}
}

// WithStdout returns a Config that makes print functions write to w instead
// of the default, os.Stdout.
func WithStdout(w io.Writer) Config {
	return func(rt *Runtime) error {
		rt.Stdout = w
		return nil
	}
}

// WithStrict returns a Config that enables warnings for references to
// symbols which have never been given a value.
func WithStrict(strict bool) Config {
	return func(rt *Runtime) error {
		rt.Strict = strict
		return nil
	}
}

// WithDebug returns a Config that forces every lexical variable into framed
// storage so that environments are complete when errors are reported.
func WithDebug(debug bool) Config {
	return func(rt *Runtime) error {
		rt.Debug = debug
		return nil
	}
}

// WithOptimize returns a Config that enables constant folding of calls to
// pure builtins.
func WithOptimize(optimize bool) Config {
	return func(rt *Runtime) error {
		rt.Optimize = optimize
		return nil
	}
}

// WithBatchMode returns a Config that makes loads stop at the first compile
// error.  When batch mode is off, compile errors are reported and the load
// continues with the next top-level form.
func WithBatchMode(batch bool) Config {
	return func(rt *Runtime) error {
		rt.Batch = batch
		return nil
	}
}

// WithMaxNestingDepth returns a Config that limits the nesting depth of
// lambda calls and macro expansions on a thread.
func WithMaxNestingDepth(n int) Config {
	return func(rt *Runtime) error {
		if n < 0 {
			return fmt.Errorf("invalid maximum nesting depth: %d", n)
		}
		rt.MaxNestingDepth = n
		return nil
	}
}

// WithMaxMacroExpansionDepth returns a Config that limits the number of
// successive macro expansions of a single form.
func WithMaxMacroExpansionDepth(n int) Config {
	return func(rt *Runtime) error {
		if n < 0 {
			return fmt.Errorf("invalid maximum macro expansion depth: %d", n)
		}
		rt.MaxMacroExpansionDepth = n
		return nil
	}
}

// WithParallelism returns a Config that bounds the number of goroutines used
// by parallel-map and parallel-each.
func WithParallelism(n int) Config {
	return func(rt *Runtime) error {
		if n < 1 {
			return fmt.Errorf("invalid parallelism: %d", n)
		}
		rt.Parallelism = n
		return nil
	}
}

// WithContext returns a Config that makes ctx the parent context of
// profiler spans and tasks.
func WithContext(ctx context.Context) Config {
	return func(rt *Runtime) error {
		rt.Context = ctx
		return nil
	}
}

// WithProfiler returns a Config that attaches a profiler to the runtime.
func WithProfiler(p Profiler) Config {
	return func(rt *Runtime) error {
		rt.Profiler = p
		return nil
	}
}
