package profiler

import (
	"regexp"
	"strings"

	"github.com/luthersystems/kiln/lisp"
)

// FunLabeler provides an alternative name for a function label in the trace.
// An empty label falls back to the function's name.
type FunLabeler func(runtime *lisp.Runtime, fun *lisp.Lambda) string

// WithDocLabeler labels spans using a @trace{ label } tag in function
// documentation.  Methods of a multimethod get their specializers appended
// to the label so each method traces separately.
func WithDocLabeler() Option {
	return WithFunLabeler(docFunLabeler)
}

// WithFunLabeler sets the labeler for tracing spans.
func WithFunLabeler(funLabeler FunLabeler) Option {
	return func(p *profiler) {
		p.funLabeler = funLabeler
	}
}

// DocLabel matches the label tag in documentation.
const DocLabel = `@trace\s*{([^}]+)}`

var (
	docLabelRegExp = regexp.MustCompile(DocLabel)
	separatorRun   = regexp.MustCompile(`[\s_]+`)
)

// cleanLabel extracts the label tag of docStr.  Runs of space become a
// single underscore and the label ends at the first non-graphic character.
func cleanLabel(docStr string) string {
	match := docLabelRegExp.FindStringSubmatch(docStr)
	if match == nil {
		return ""
	}
	label := separatorRun.ReplaceAllString(strings.TrimSpace(match[1]), "_")
	if i := strings.IndexFunc(label, notGraphic); i >= 0 {
		label = label[:i]
	}
	return label
}

func notGraphic(c rune) bool {
	return c < '!' || c > '~'
}

func specializerLabel(specs []*lisp.Specializer) string {
	parts := make([]string, len(specs))
	for i, s := range specs {
		if s != nil && s.IsEql {
			parts[i] = "=" + lisp.Repr(s.Eql)
		} else {
			parts[i] = s.String()
		}
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func docFunLabeler(runtime *lisp.Runtime, fun *lisp.Lambda) string {
	label := cleanLabel(fun.Doc)
	if label == "" || fun.Kind != lisp.MethodKind || len(fun.Specializers) == 0 {
		return label
	}
	return label + specializerLabel(fun.Specializers)
}
