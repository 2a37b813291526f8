package profiler

import (
	"regexp"

	"github.com/luthersystems/kiln/lisp"
)

type SkipFilter func(fun *lisp.Lambda) bool

// Macro expansion happens at compile time and is never traced.
func defaultSkipFilter(fun *lisp.Lambda) bool {
	return fun.Kind == lisp.MacroKind
}

// WithDocFilter filters to only include spans for functions with doc strings
// that denote tracing.
func WithDocFilter() Option {
	return WithSkipFilter(docSkipFilter)
}

// WithSkipFilter sets the filter for tracing spans.
func WithSkipFilter(skipFilter SkipFilter) Option {
	return func(p *profiler) {
		p.skipFilter = skipFilter
	}
}

// DocTrace is a magic string used to enable tracing in a profiler configured
// WithDocFilter. All functions with a doc string that contains this string
// will be traced.
const DocTrace = "@trace"

var docTraceRegExp = regexp.MustCompile(DocTrace)

func docSkipFilter(fun *lisp.Lambda) bool {
	if fun.Doc == "" {
		return true
	}
	return !docTraceRegExp.MatchString(fun.Doc)
}
