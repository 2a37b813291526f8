// Copyright © 2018 The ELPS authors

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/luthersystems/kiln/docs"
	"github.com/luthersystems/kiln/lisp"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
)

var (
	docPrefix     bool
	docSourceFile string
	docGuide      bool
)

// docCmd represents the doc command
var docCmd = &cobra.Command{
	Use:   "doc [flags] QUERY",
	Short: "Show documentation for special forms, functions and variables",
	Long: `Show the documentation of a symbol.

Special forms, builtins and host library functions carry documentation.
Functions and macros defined in lisp are documented by a leading string in
their body.  Use -f to load a source file first and -p to list every
documented symbol whose name begins with QUERY.  Use -g to read one of
the language guides instead.

Examples:
  kiln doc defun                   Show docs for the defun special form
  kiln doc string:join             Show docs for a host library function
  kiln doc -p string:              List the string library
  kiln doc -f mylib.lisp my-func   Load a file, then show docs for my-func
  kiln doc -g lang                 Read the language guide`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := docExec(os.Stdout, args[0]); err != nil {
			renderError(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func docExec(w io.Writer, query string) error {
	if docGuide {
		return writeGuide(w, query)
	}
	rt, err := newRuntime(io.Discard, io.Discard, true)
	if err != nil {
		return err
	}
	if docSourceFile != "" {
		if _, err := rt.LoadFile(docSourceFile); err != nil {
			return err
		}
	}
	out := bufio.NewWriter(w)
	defer out.Flush()
	if docPrefix {
		return writeDocList(out, rt.Registry, query)
	}
	sym, ok := rt.Registry.Lookup(query)
	if !ok || !documented(sym) {
		return fmt.Errorf("no documentation for %s", query)
	}
	return writeDoc(out, sym)
}

// writeGuide writes the embedded guide with the given name.
func writeGuide(w io.Writer, name string) error {
	text, ok := docs.Guide(name)
	if !ok {
		return fmt.Errorf("no guide named %s (guides: %s)", name, strings.Join(docs.Guides(), ", "))
	}
	_, err := io.WriteString(w, text)
	return err
}

func documented(sym *lisp.Symbol) bool {
	return sym.IsDefined() || sym.SpecialForm != nil
}

// writeDoc writes the kind, signature and documentation of sym.
func writeDoc(w io.Writer, sym *lisp.Symbol) error {
	kind, sig := describe(sym)
	header := sym.Name
	if sig != "" {
		header += " " + sig
	}
	if _, err := fmt.Fprintf(w, "%s  [%s]\n", header, kind); err != nil {
		return err
	}
	doc := docString(sym)
	if doc == "" {
		_, err := io.WriteString(w, "\n    No documentation.\n")
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s\n", indent.String(wordwrap.String(doc, 72), 4))
	return err
}

// writeDocList writes a one line summary of each documented symbol whose
// name begins with prefix.
func writeDocList(w io.Writer, reg *lisp.Registry, prefix string) error {
	n := 0
	for _, sym := range reg.Symbols() {
		if !strings.HasPrefix(sym.Name, prefix) || !documented(sym) {
			continue
		}
		summary, _, _ := strings.Cut(docString(sym), "\n")
		if _, err := fmt.Fprintf(w, "%-24s %s\n", sym.Name, summary); err != nil {
			return err
		}
		n++
	}
	if n == 0 {
		return fmt.Errorf("no symbols begin with %s", prefix)
	}
	return nil
}

func describe(sym *lisp.Symbol) (kind string, sig string) {
	if sym.SpecialForm != nil {
		return "special form", ""
	}
	switch v := sym.Value.(type) {
	case *lisp.Lambda:
		return v.Kind.String(), v.Signature.String()
	case *lisp.MultiMethod:
		return "generic function", v.Signature.String()
	case *lisp.Builtin:
		return "builtin", ""
	}
	return sym.Usage.String(), ""
}

func docString(sym *lisp.Symbol) string {
	if sym.SpecialForm != nil {
		return sym.SpecialForm.Doc
	}
	switch v := sym.Value.(type) {
	case *lisp.Lambda:
		if v.Doc != "" {
			return v.Doc
		}
	case *lisp.MultiMethod:
		if v.Doc != "" {
			return v.Doc
		}
	case *lisp.Builtin:
		return v.Doc
	}
	return sym.Doc
}

func init() {
	rootCmd.AddCommand(docCmd)

	docCmd.Flags().BoolVarP(&docPrefix, "prefix", "p", false,
		"List the documented symbols beginning with QUERY")
	docCmd.Flags().StringVarP(&docSourceFile, "source-file", "f", "",
		"Evaluate a lisp source file before querying documentation")
	docCmd.Flags().BoolVarP(&docGuide, "guide", "g", false,
		"Show the guide named QUERY")
}
