package profiler_test

import (
	"context"
	"sync"
	"testing"

	"github.com/luthersystems/kiln/lisp/x/profiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/trace"
)

type customExporter struct {
	mut   sync.Mutex
	spans []*trace.SpanData
}

func (e *customExporter) ExportSpan(s *trace.SpanData) {
	e.mut.Lock()
	defer e.mut.Unlock()
	e.spans = append(e.spans, s)
}

func (e *customExporter) names() []string {
	e.mut.Lock()
	defer e.mut.Unlock()
	var names []string
	for _, s := range e.spans {
		names = append(names, s.Name)
	}
	return names
}

func TestNewOpenCensusAnnotator(t *testing.T) {
	// Let's sample at 100% for the purposes of this test...
	trace.ApplyConfig(trace.Config{DefaultSampler: trace.AlwaysSample()})
	exporter := new(customExporter)
	trace.RegisterExporter(exporter)
	t.Cleanup(func() { trace.UnregisterExporter(exporter) })

	rt := newRuntime(t)
	ppa := profiler.NewOpenCensusAnnotator(rt, context.Background(), profiler.WithDocFilter())
	require.NoError(t, ppa.Enable())
	loadTestLisp(t, rt)
	assert.NoError(t, ppa.Complete())

	assert.Equal(t, []string{"add-it", "add-it", "add-it", "add-it-again"}, exporter.names())
}
