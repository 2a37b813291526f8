// Copyright © 2018 The ELPS authors

package lisp

import (
	"bytes"
	"fmt"
	"io"

	"github.com/luthersystems/kiln/parser/token"
)

// CallFrame is one entry in a thread's evaluation stack.  Frames are
// immutable and form a linked list from the innermost call to the
// entrypoint, so a stack can be captured by an error or a saved control
// state without copying.
type CallFrame struct {
	Name   string
	Source *token.Location
	Parent *CallFrame
	Height int
	// Marker frames are pushed by extents that are not calls (load units,
	// macro expansions).
	Marker bool
}

func (f *CallFrame) push(name string, src *token.Location, marker bool) *CallFrame {
	h := 0
	if f != nil {
		h = f.Height + 1
	}
	return &CallFrame{
		Name:   name,
		Source: src,
		Parent: f,
		Height: h,
		Marker: marker,
	}
}

// Len returns the number of frames in the stack with f at the top.
func (f *CallFrame) Len() int {
	if f == nil {
		return 0
	}
	return f.Height + 1
}

// Frames returns the frames of the stack, top first.
func (f *CallFrame) Frames() []*CallFrame {
	var frames []*CallFrame
	for ; f != nil; f = f.Parent {
		frames = append(frames, f)
	}
	return frames
}

// FunName returns the name of the innermost function call in the stack.
func (f *CallFrame) FunName() string {
	for ; f != nil; f = f.Parent {
		if !f.Marker {
			return f.Name
		}
	}
	return ""
}

func (f *CallFrame) String() string {
	if f.Source != nil {
		return fmt.Sprintf("%s: %s", f.Source, f.desc())
	}
	return f.desc()
}

func (f *CallFrame) desc() string {
	var mod bytes.Buffer
	if f.Marker {
		mod.WriteString(" [marker]")
	}
	name := f.Name
	if name == "" {
		name = "lambda"
	}
	return name + mod.String()
}

// DebugPrint writes the stack to w, innermost frame first.
func (f *CallFrame) DebugPrint(w io.Writer) (int, error) {
	n, err := fmt.Fprintf(w, "Stack Trace [%d frames -- entrypoint last]:\n", f.Len())
	if err != nil {
		return n, err
	}
	indent := "  "
	for fr := f; fr != nil; fr = fr.Parent {
		_n, err := fmt.Fprintf(w, "%sheight %d: %s\n", indent, fr.Height, fr.String())
		n += _n
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// StackOverflowError is returned when a thread's nesting depth exceeds the
// runtime maximum.
type StackOverflowError struct {
	Depth int
}

func (e *StackOverflowError) Error() string {
	return fmt.Sprintf("nesting depth exceeded maximum: %v", e.Depth)
}
