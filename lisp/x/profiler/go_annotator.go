package profiler

import (
	"context"
	"runtime/pprof"

	"github.com/luthersystems/kiln/lisp"
)

// This profiler type appends tags to pprof output if pprof is enabled.  It
// does not start pprof.  The pprof sampling rate is fixed at 100Hz so short
// calls are rarely attributed.
type pprofAnnotator struct {
	profiler
	currentContext context.Context
}

var _ lisp.Profiler = &pprofAnnotator{}

func NewPprofAnnotator(runtime *lisp.Runtime, parentContext context.Context, opts ...Option) *pprofAnnotator {
	p := &pprofAnnotator{
		profiler: profiler{
			runtime: runtime,
		},
		currentContext: parentContext,
	}
	p.profiler.applyConfigs(opts...)
	return p
}

func (p *pprofAnnotator) Enable() error {
	p.runtime.Profiler = p
	if p.currentContext == nil {
		p.currentContext = context.Background()
	}
	return p.profiler.Enable()
}

func (p *pprofAnnotator) Complete() error {
	pprof.SetGoroutineLabels(context.Background())
	return nil
}

// Labels returns the labels applied for the innermost traced call.
func (p *pprofAnnotator) Labels() map[string]string {
	p.mut.Lock()
	defer p.mut.Unlock()
	labels := make(map[string]string)
	pprof.ForLabels(p.currentContext, func(key, value string) bool {
		labels[key] = value
		return true
	})
	return labels
}

func (p *pprofAnnotator) Start(fun *lisp.Lambda) func() {
	p.mut.Lock()
	defer p.mut.Unlock()
	if p.skipTrace(fun) {
		return func() {}
	}
	// The context is kept on a stack rather than using pprof.Do so that the
	// lambda call path needs no extra closure.
	oldContext := p.currentContext
	prettyLabel, _ := p.prettyFunName(fun)
	p.currentContext = pprof.WithLabels(p.currentContext, pprof.Labels("function", prettyLabel))
	// Labels propagate to goroutines started by the call.
	pprof.SetGoroutineLabels(p.currentContext)

	return func() {
		p.mut.Lock()
		defer p.mut.Unlock()
		p.currentContext = oldContext
		pprof.SetGoroutineLabels(p.currentContext)
	}
}
