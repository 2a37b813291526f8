// Copyright © 2018 The ELPS authors

package diagnostic

import (
	"strings"

	"github.com/luthersystems/kiln/lisp"
	"github.com/luthersystems/kiln/parser/token"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// FromError converts an error returned by the kiln runtime to diagnostics.
// Combined compile errors produce one diagnostic each.
func FromError(err error) []Diagnostic {
	var diags []Diagnostic
	for _, e := range multierr.Errors(err) {
		diags = append(diags, fromError(e))
	}
	return diags
}

func fromError(err error) Diagnostic {
	d := Diagnostic{Severity: severityOf(err)}
	var locErr *token.LocationError
	if errors.As(err, &locErr) {
		d.Message = lisp.CondParseError + ": " + locErr.Err.Error()
		d.Spans = append(d.Spans, spanAt(locErr.Source, ""))
		return d
	}
	c, ok := err.(lisp.Condition)
	if !ok {
		d.Message = err.Error()
		return d
	}
	tr := c.ErrorTrace()
	d.Message = c.ConditionName() + ": " + c.ErrorMessage()
	if fun := tr.Stack.FunName(); fun != "" {
		d.Message = fun + ": " + d.Message
	}
	if tr.Source != nil && tr.Source.Pos >= 0 {
		d.Spans = append(d.Spans, spanAt(tr.Source, label(c)))
	}
	for _, fr := range tr.Stack.Frames() {
		if fr.Marker || fr.Name == "" {
			continue
		}
		loc := "unknown"
		if fr.Source != nil {
			loc = fr.Source.String()
		}
		d.Notes = append(d.Notes, "in "+fr.Name+" at "+loc)
	}
	return d
}

func label(c lisp.Condition) string {
	switch e := c.(type) {
	case *lisp.UndefinedReferenceError:
		return "not defined"
	case *lisp.DispatchError:
		return "no method for (" + strings.Join(e.ArgTypes, " ") + ")"
	}
	return ""
}

func spanAt(loc *token.Location, label string) Span {
	return Span{
		File:  loc.File,
		Line:  loc.Line,
		Col:   loc.Col,
		Label: label,
	}
}
