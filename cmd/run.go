// Copyright © 2018 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/luthersystems/kiln/lisp"
	"github.com/spf13/cobra"
)

var (
	runExpression bool
	runPrint      bool
	runProfiling  profiling
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [flags] FILE...",
	Short: "Run lisp code",
	Long: `Run lisp code supplied via the command line or files.

A FILE argument ending in /... runs every .lisp file below that directory,
skipping the exclude patterns of the project manifest.  Loading stops at the
first error, which is reported with the environment and stack trace of the
point where it was raised.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := newRuntime(os.Stdout, os.Stderr, true)
		if err != nil {
			renderError(os.Stderr, err)
			os.Exit(1)
		}
		complete, err := runProfiling.start(rt)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		err = runSources(rt, args, runExpression, runPrint, os.Stdout)
		if cerr := complete(); cerr != nil {
			fmt.Fprintln(os.Stderr, cerr)
		}
		if err != nil {
			renderError(os.Stderr, err)
			os.Exit(1)
		}
	},
}

// runSources loads each file in args, or each expression when expr is true.
// If print is true the value of each source is written to w.
func runSources(rt *lisp.Runtime, args []string, expr bool, print bool, w io.Writer) error {
	if expr {
		for i, src := range args {
			v, err := rt.LoadString(fmt.Sprintf("expr%d", i+1), src)
			if err != nil {
				return err
			}
			printValue(w, v, print)
		}
		return nil
	}
	var excludes []string
	if manifest != nil {
		excludes = manifest.Project.Exclude
	}
	files, err := expandArgs(args, excludes)
	if err != nil {
		return err
	}
	for _, path := range files {
		v, err := rt.LoadFile(path)
		if err != nil {
			return err
		}
		printValue(w, v, print)
	}
	return nil
}

func printValue(w io.Writer, v lisp.Value, print bool) {
	if print && !lisp.IsVoid(v) {
		fmt.Fprintln(w, lisp.Repr(v))
	}
}

// evalCmd represents the eval command
var evalCmd = &cobra.Command{
	Use:   "eval [flags] EXPR...",
	Short: "Evaluate expressions and print their values",
	Long: `Evaluate each argument as lisp source and print the value of its last
expression.  Standard input is read when no arguments are given.`,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := newRuntime(os.Stdout, os.Stderr, true)
		if err != nil {
			renderError(os.Stderr, err)
			os.Exit(1)
		}
		if len(args) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			args = []string{strings.TrimSpace(string(b))}
		}
		if err := runSources(rt, args, true, true, os.Stdout); err != nil {
			renderError(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(evalCmd)

	runCmd.Flags().BoolVarP(&runExpression, "expression", "e", false,
		"Interpret arguments as lisp expressions")
	runCmd.Flags().BoolVarP(&runPrint, "print", "p", false,
		"Print the value of each file or expression to stdout")
	runCmd.Flags().StringVar(&runProfiling.callgrind, "callgrind", "",
		"Write a callgrind profile of lambda calls to a file")
	runCmd.Flags().StringVar(&runProfiling.cpu, "cpuprofile", "",
		"Write a Go CPU profile labelled with lisp function names to a file")
}
