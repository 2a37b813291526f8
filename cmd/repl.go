// Copyright © 2018 The ELPS authors

package cmd

import (
	"os"

	"github.com/luthersystems/kiln/diagnostic"
	"github.com/luthersystems/kiln/repl"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive kiln REPL",
	Long: `Start an interactive read-eval-print loop.

The host libraries and the preload files of the project manifest are loaded
first.  Compile errors are reported and the session continues.  An uncaught
error is bound to $error and enters a debugging level, shown in the prompt;
(abort) returns to the previous level.  Use Ctrl-D to exit.

Example session:
  kiln> (defun square (x) (* x x))
  square
  kiln> (square 5)
  25
  kiln> (car 3)
  error: car: no-applicable-method: ...
  kiln 1> (error-message $error)
  ...
  kiln 1> (abort)
  kiln>`,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := newRuntime(os.Stdout, os.Stderr, false)
		if err != nil {
			renderError(os.Stderr, err)
			os.Exit(1)
		}
		err = repl.RunRuntime(rt, "kiln> ",
			repl.WithColor(diagnostic.ParseColorMode(viper.GetString("color"))))
		if err != nil {
			renderError(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
