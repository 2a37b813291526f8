// Copyright © 2018 The ELPS authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/pprof"

	"github.com/luthersystems/kiln/lisp"
	"github.com/luthersystems/kiln/lisp/lisplib"
	"github.com/luthersystems/kiln/lisp/x/profiler"
	"github.com/luthersystems/kiln/parser"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// readerOptions selects the reader named by the configuration.
func readerOptions(name string) ([]parser.Option, error) {
	switch name {
	case "", "rd":
		return nil, nil
	case "regex":
		return []parser.Option{parser.WithCombinatorReader()}, nil
	}
	return nil, fmt.Errorf("unknown reader: %q", name)
}

// newRuntime returns a runtime configured from viper with the host
// libraries and the manifest preload files loaded.
func newRuntime(stdout, stderr io.Writer, batch bool) (*lisp.Runtime, error) {
	opts, err := readerOptions(viper.GetString("reader"))
	if err != nil {
		return nil, err
	}
	configs := []lisp.Config{
		lisp.WithReader(parser.NewReader(opts...)),
		lisp.WithStdout(stdout),
		lisp.WithStderr(stderr),
		lisp.WithStrict(viper.GetBool("strict")),
		lisp.WithDebug(viper.GetBool("debug")),
		lisp.WithOptimize(viper.GetBool("optimize")),
		lisp.WithBatchMode(batch),
		lisp.WithMaxNestingDepth(viper.GetInt("max-nesting-depth")),
	}
	if n := viper.GetInt("parallelism"); n > 0 {
		configs = append(configs, lisp.WithParallelism(n))
	}
	rt, err := lisp.NewRuntime(configs...)
	if err != nil {
		return nil, err
	}
	if err := lisplib.LoadLibrary(rt); err != nil {
		return nil, err
	}
	if manifest != nil {
		for _, path := range manifest.PreloadPaths() {
			if _, err := rt.LoadFile(path); err != nil {
				return nil, err
			}
		}
	}
	return rt, nil
}

// profiling holds the profilers requested on the command line.
type profiling struct {
	callgrind string
	cpu       string
}

// start enables the requested profiler.  The returned function completes
// the profile.  Only one profiler may observe a runtime.
func (p *profiling) start(rt *lisp.Runtime) (func() error, error) {
	switch {
	case p.callgrind != "" && p.cpu != "":
		return nil, fmt.Errorf("only one of --callgrind and --cpuprofile may be given")
	case p.callgrind != "":
		cg := profiler.NewCallgrindProfiler(rt)
		if err := cg.SetFile(p.callgrind); err != nil {
			return nil, err
		}
		if err := cg.Enable(); err != nil {
			return nil, err
		}
		return cg.Complete, nil
	case p.cpu != "":
		f, err := os.Create(p.cpu)
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			return nil, multierr.Append(err, f.Close())
		}
		ann := profiler.NewPprofAnnotator(rt, context.Background(), profiler.WithDocLabeler())
		if err := ann.Enable(); err != nil {
			pprof.StopCPUProfile()
			return nil, multierr.Append(err, f.Close())
		}
		return func() error {
			pprof.StopCPUProfile()
			return multierr.Append(ann.Complete(), f.Close())
		}, nil
	}
	return func() error { return nil }, nil
}
