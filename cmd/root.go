// Copyright © 2018 The ELPS authors

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/luthersystems/kiln/lisp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var (
	cfgFile   string
	verbosity int
	manifest  *Manifest
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "kiln",
	Short:   "kiln lisp compiler and runtime",
	Version: lisp.Version,
	Long: `kiln compiles lisp source to Go closures and runs it.

Getting started:
  kiln run file.lisp          Run a lisp source file
  kiln run src/...            Run every .lisp file under src
  kiln eval '(+ 1 2)'         Evaluate expressions and print their values
  kiln repl                   Start an interactive REPL
  kiln doc defun              Show documentation for a symbol

Configuration is read from $HOME/.kiln.yaml, from KILN_* environment
variables (e.g. KILN_STRICT=true) and from the [runtime] table of a
kiln.toml project manifest in the working directory or one of its parents.
Command line flags take precedence.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		commonlog.Configure(verbosity, nil)
		return loadManifest()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.kiln.yaml)")
	flags.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	flags.String("color", "auto", `Control colored output: "auto", "always", or "never"`)
	flags.String("reader", "rd", `Source reader: "rd" (recursive descent) or "regex" (parser combinators)`)
	flags.Bool("strict", false, "Warn about references to symbols that are never defined")
	flags.Bool("debug", false, "Keep every variable in frames so error environments are complete")
	flags.Bool("optimize", false, "Fold calls to pure builtins with constant arguments")
	flags.Int("max-nesting-depth", lisp.DefaultMaxNestingDepth, "Maximum depth of nested calls")
	flags.Int("parallelism", 0, "Goroutines used by parallel-map (default GOMAXPROCS)")
	for _, name := range []string{"color", "reader", "strict", "debug", "optimize", "max-nesting-depth", "parallelism"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".kiln")
	}
	viper.SetEnvPrefix("KILN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		commonlog.GetLogger("kiln.cmd").Infof("using config file: %s", viper.ConfigFileUsed())
	}
}

// loadManifest finds the project manifest and merges its runtime table into
// the configuration.  Flags and environment variables still take
// precedence.
func loadManifest() error {
	m, err := FindManifest(".")
	if err != nil {
		return err
	}
	manifest = m
	if m == nil {
		return nil
	}
	if err := viper.MergeConfigMap(m.settings()); err != nil {
		return err
	}
	commonlog.GetLogger("kiln.cmd").Infof("project %s (%s)", m.Project.Name, m.Dir)
	return nil
}
