// Copyright © 2018 The ELPS authors

// Package diagnostic renders errors as annotated source snippets for the
// kiln command line and REPL.
package diagnostic

import (
	"fmt"

	"github.com/luthersystems/kiln/lisp"
)

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
	numSeverities
)

var severityNames = [numSeverities]string{
	SeverityError:   "error",
	SeverityWarning: "warning",
	SeverityNote:    "note",
}

func (s Severity) String() string {
	if s < 0 || s >= numSeverities {
		return "unknown"
	}
	return severityNames[s]
}

// severityOf classifies an error returned by the runtime.  Leaving a debug
// level with (abort) is reported as a note.
func severityOf(err error) Severity {
	if _, ok := err.(*lisp.AbortSignal); ok {
		return SeverityNote
	}
	return SeverityError
}

// Span is a region of source text highlighted by a diagnostic.  Columns
// count bytes, as in token.Location.
type Span struct {
	File   string // path for reading source; display name if unreadable
	Line   int    // 0 when only the file is known
	Col    int    // 0 when only the line is known
	EndCol int    // 0 to find the end of the form in the source line
	Label  string // text shown under the underline
}

// Location formats the position of s as file[:line[:col]].
func (s Span) Location() string {
	switch {
	case s.Line <= 0:
		return s.File
	case s.Col <= 0:
		return fmt.Sprintf("%s:%d", s.File, s.Line)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Col)
}

// Diagnostic is an error, warning, or note with the source spans it refers
// to and trailing notes, such as the frames of a stack trace.
type Diagnostic struct {
	Severity Severity
	Message  string
	Spans    []Span
	Notes    []string
}
