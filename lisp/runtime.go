// Copyright © 2018 The ELPS authors

package lisp

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"runtime"
	"sync"

	"github.com/tliron/commonlog"
)

// Default runtime limits.
const (
	DefaultMaxNestingDepth        = 10000
	DefaultMaxMacroExpansionDepth = 1000
)

// Runtime holds the state shared by every thread evaluating code from a
// single registry: the symbol table, compile settings, output streams and
// resource limits.
type Runtime struct {
	Registry *Registry
	Reader   Reader
	Stderr   io.Writer
	Stdout   io.Writer
	Context  context.Context

	// Default compile settings.  A declare form adjusts them for the rest of
	// the load unit that contains it.
	Strict   bool
	Debug    bool
	Optimize bool
	// Batch loads stop at the first compile error.
	Batch bool

	MaxNestingDepth        int
	MaxMacroExpansionDepth int
	Parallelism            int
	Profiler               Profiler

	types     *typeLattice
	hostMut   sync.Mutex
	hostTypes map[reflect.Type]*Type

	compilerLog commonlog.Logger
	loaderLog   commonlog.Logger
	runtimeLog  commonlog.Logger

	main *Thread
}

// NewRuntime returns a Runtime with a fresh registry holding the special
// forms, the type lattice and the builtin functions.  Configs are applied in
// order after defaults are set.
func NewRuntime(config ...Config) (*Runtime, error) {
	rt := StandardRuntime()
	for _, fn := range config {
		if err := fn(rt); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

// StandardRuntime returns a new Runtime with default settings, Stderr set to
// os.Stderr and Stdout set to os.Stdout.
func StandardRuntime() *Runtime {
	rt := &Runtime{
		Registry:               NewRegistry(),
		Stderr:                 os.Stderr,
		Stdout:                 os.Stdout,
		Context:                context.Background(),
		Batch:                  true,
		MaxNestingDepth:        DefaultMaxNestingDepth,
		MaxMacroExpansionDepth: DefaultMaxMacroExpansionDepth,
		Parallelism:            runtime.GOMAXPROCS(0),
		hostTypes:              make(map[reflect.Type]*Type),
		compilerLog:            commonlog.GetLogger("kiln.compiler"),
		loaderLog:              commonlog.GetLogger("kiln.loader"),
		runtimeLog:             commonlog.GetLogger("kiln.runtime"),
	}
	rt.main = rt.NewThread()
	rt.defineSpecialOps()
	rt.defineTypes()
	rt.defineBuiltins()
	return rt
}

// Intern returns the symbol with the given name from the runtime registry.
func (rt *Runtime) Intern(name string) *Symbol {
	return rt.Registry.Intern(name)
}

// MainThread returns the thread used by Load and Eval.
func (rt *Runtime) MainThread() *Thread {
	return rt.main
}

// Gensym returns a new uninterned symbol.
func (rt *Runtime) Gensym() *Symbol {
	return rt.Registry.Gensym("gen")
}

// Warnf writes a warning line to the runtime's Stderr.
func (rt *Runtime) Warnf(format string, v ...interface{}) {
	fmt.Fprintf(rt.Stderr, "warning: "+format+"\n", v...)
}

