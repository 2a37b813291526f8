// Copyright © 2018 The ELPS authors

package lisp

// Profiler observes lambda calls.
type Profiler interface {
	// IsEnabled returns true if the profiler is recording.
	IsEnabled() bool
	// Enable the profiler.
	Enable() error
	// Complete ends the profiling session.
	Complete() error
	// Start marks the start of a call to fn.  The returned function marks
	// the end of the call.
	Start(fn *Lambda) func()
}
