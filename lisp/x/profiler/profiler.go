package profiler

import (
	"fmt"
	"sync"

	"github.com/luthersystems/kiln/lisp"
)

// profiler is a minimal lisp.Profiler
type profiler struct {
	mut        sync.Mutex
	runtime    *lisp.Runtime
	enabled    bool
	skipFilter SkipFilter
	funLabeler FunLabeler
}

func (p *profiler) IsEnabled() bool {
	p.mut.Lock()
	defer p.mut.Unlock()
	return p.enabled
}

type Option func(*profiler)

func (p *profiler) applyConfigs(opts ...Option) {
	for _, opt := range opts {
		opt(p)
	}
}

func (p *profiler) Enable() error {
	p.mut.Lock()
	defer p.mut.Unlock()
	if p.enabled {
		return fmt.Errorf("profiler already enabled")
	}
	p.enabled = true
	return nil
}

// defaultFunName constructs a canonical name for fun.  Anonymous functions
// are named after their kind.
func defaultFunName(fun *lisp.Lambda) string {
	if fun.Name != "" {
		return fun.Name
	}
	return fun.Kind.String()
}

// prettyFunName returns a pretty name and original name for a fun. If there is
// no pretty name, then the pretty name is the original name.
func (p *profiler) prettyFunName(fun *lisp.Lambda) (string, string) {
	origLabel := defaultFunName(fun)
	prettyLabel := origLabel
	if p.funLabeler != nil {
		prettyLabel = p.funLabeler(p.runtime, fun)
	}
	if prettyLabel == "" {
		prettyLabel = origLabel
	}
	return prettyLabel, origLabel
}

// skipTrace is a helper function to decide whether to skip tracing.  The
// caller must hold p.mut.
func (p *profiler) skipTrace(fun *lisp.Lambda) bool {
	return !p.enabled || defaultSkipFilter(fun) || p.skipFilter != nil && p.skipFilter(fun)
}

func getSourceLoc(fun *lisp.Lambda) (file string, line int, col int) {
	if fun.Source == nil {
		return "no-source", 0, 0
	}
	return fun.Source.File, fun.Source.Line, fun.Source.Col
}
