package profiler

import (
	"context"
	"errors"

	"github.com/luthersystems/kiln/lisp"
	"go.opencensus.io/trace"
)

var _ lisp.Profiler = &ocAnnotator{}

type ocAnnotator struct {
	profiler
	currentContext context.Context
	currentSpan    *trace.Span
	contexts       []context.Context
}

func NewOpenCensusAnnotator(runtime *lisp.Runtime, parentContext context.Context, opts ...Option) *ocAnnotator {
	p := &ocAnnotator{
		profiler: profiler{
			runtime: runtime,
		},
		currentContext: parentContext,
	}
	p.profiler.applyConfigs(opts...)
	return p
}

// EnableWithContext enables the profiler with ctx as the parent of every
// span.
func (p *ocAnnotator) EnableWithContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("set a context to use this function")
	}
	p.currentContext = ctx
	return p.Enable()
}

func (p *ocAnnotator) Enable() error {
	p.runtime.Profiler = p
	if p.currentContext == nil {
		return errors.New("we can only append spans to a context that is linked to opencensus")
	}
	return p.profiler.Enable()
}

func (p *ocAnnotator) Complete() error {
	p.mut.Lock()
	defer p.mut.Unlock()
	if p.currentSpan != nil {
		p.currentSpan.End()
	}
	return nil
}

func (p *ocAnnotator) Start(fun *lisp.Lambda) func() {
	p.mut.Lock()
	defer p.mut.Unlock()
	if p.skipTrace(fun) {
		return func() {}
	}
	prettyLabel, _ := p.prettyFunName(fun)
	p.contexts = append(p.contexts, p.currentContext)
	ctx, span := trace.StartSpan(p.currentContext, prettyLabel)
	p.currentContext, p.currentSpan = ctx, span
	return func() {
		p.end(fun, span)
	}
}

func (p *ocAnnotator) end(fun *lisp.Lambda, span *trace.Span) {
	p.mut.Lock()
	defer p.mut.Unlock()
	file, line, _ := getSourceLoc(fun)
	span.Annotate([]trace.Attribute{
		trace.StringAttribute("file", file),
		trace.Int64Attribute("line", int64(line)),
	}, "source")
	span.End()
	// And pop the current context back
	n := len(p.contexts) - 1
	p.currentContext = p.contexts[n]
	p.contexts = p.contexts[:n]
	p.currentSpan = trace.FromContext(p.currentContext)
}
