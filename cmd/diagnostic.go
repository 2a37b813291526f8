// Copyright © 2018 The ELPS authors

package cmd

import (
	"io"

	"github.com/luthersystems/kiln/diagnostic"
	"github.com/luthersystems/kiln/lisp"
	"github.com/spf13/viper"
)

func newRenderer() *diagnostic.Renderer {
	return &diagnostic.Renderer{Color: diagnostic.ParseColorMode(viper.GetString("color"))}
}

// renderError writes err as annotated diagnostics followed by the
// environment and the stack captured when it was raised.
func renderError(w io.Writer, err error) {
	_ = newRenderer().RenderAll(w, diagnostic.FromError(err))
	c, ok := err.(lisp.Condition)
	if !ok {
		return
	}
	tr := c.ErrorTrace()
	if tr.Frame != nil || tr.Specials != nil {
		_, _ = io.WriteString(w, "\n")
		_, _ = lisp.DumpEnvironment(w, tr.Frame, tr.Specials)
	}
	if tr.Stack != nil {
		_, _ = io.WriteString(w, "\n")
		_, _ = tr.Stack.DebugPrint(w)
	}
}
