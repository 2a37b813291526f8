package profiler

import (
	"context"
	"errors"

	"github.com/luthersystems/kiln/lisp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const (
	// ContextOpenTelemetryTracerKey looks up a parent tracer name from a context key.
	ContextOpenTelemetryTracerKey contextKey = "otelParentTracer"
)

var _ lisp.Profiler = &otelAnnotator{}

// otelAnnotator opens a span for every traced lambda call.  Spans nest in
// call order.  Calls made concurrently by tasks share one span stack.
type otelAnnotator struct {
	profiler
	currentContext context.Context
	currentSpan    trace.Span
}

func NewOpenTelemetryAnnotator(runtime *lisp.Runtime, parentContext context.Context, opts ...Option) *otelAnnotator {
	p := &otelAnnotator{
		profiler: profiler{
			runtime: runtime,
		},
		currentContext: parentContext,
	}
	p.profiler.applyConfigs(opts...)
	return p
}

func (p *otelAnnotator) Enable() error {
	p.runtime.Profiler = p
	if p.currentContext == nil {
		return errors.New("we can only append spans to a context that is linked to opentelemetry")
	}
	return p.profiler.Enable()
}

func (p *otelAnnotator) Complete() error {
	p.mut.Lock()
	defer p.mut.Unlock()
	if p.currentSpan != nil {
		p.currentSpan.End()
	}
	return nil
}

func contextTracer(ctx context.Context) trace.Tracer {
	tracerName, ok := ctx.Value(ContextOpenTelemetryTracerKey).(string)
	if !ok {
		tracerName = "kiln"
	}
	return otel.GetTracerProvider().Tracer(tracerName)
}

func (p *otelAnnotator) Start(fun *lisp.Lambda) func() {
	p.mut.Lock()
	defer p.mut.Unlock()
	if p.skipTrace(fun) {
		return func() {}
	}
	oldContext := p.currentContext
	prettyLabel, funName := p.prettyFunName(fun)
	ctx, span := contextTracer(p.currentContext).Start(p.currentContext, prettyLabel)
	p.currentContext, p.currentSpan = ctx, span
	p.addCodeAttributes(span, fun, funName)
	return func() {
		p.mut.Lock()
		defer p.mut.Unlock()
		span.End()
		// And pop the current context back
		p.currentContext = oldContext
		p.currentSpan = trace.SpanFromContext(p.currentContext)
	}
}

func (p *otelAnnotator) addCodeAttributes(span trace.Span, fun *lisp.Lambda, funName string) {
	file, line, col := getSourceLoc(fun)
	attrs := []attribute.KeyValue{
		semconv.CodeFunction(funName),
		attribute.String("kiln.kind", fun.Kind.String()),
	}
	if line > 0 {
		attrs = append(attrs,
			semconv.CodeColumn(col),
			semconv.CodeFilepath(file),
			semconv.CodeLineNumber(line),
		)
	}
	span.SetAttributes(attrs...)
}
