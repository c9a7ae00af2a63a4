// Copyright © 2025 The cinder authors

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cinder",
	Short: "cinder — a Scheme-flavored Lisp with sandboxed I/O",
	Long: `cinder is a Scheme-flavored Lisp interpreter with sandboxed file,
network, and database access.

Getting started:
  cinder run file.lisp          Run a Lisp source file
  cinder run -e '(+ 1 2)'       Evaluate an expression
  cinder repl                   Start an interactive REPL
  cinder doc map                Show documentation for a function

Language overview:
  Booleans are #t and #f; only #f and nil are falsey.  The empty list ()
  is nil.  Functions are defined with (define (name args) body) or
  (define name (lambda (args) body)).  Macros use (defmacro name (args)
  body) with quasiquote templates.  Keywords like :name evaluate to
  themselves and key map literals: {:a 1 :b 2}.

  Doc comments written with ;;; immediately before a define are recorded
  and shown by (help 'name) and cinder doc.

Sandboxed I/O:
  File builtins (read-file, write-file, ...) are confined to the
  configured sandbox roots (default ./data ./examples ./scripts).
  Network builtins (http-get, http-post) are disabled unless
  --allow-network is given.  Database builtins (db:open, db:exec,
  db:query) use sqlite files under the first sandbox root.

Concurrency:
  (spawn (lambda () ...)) evaluates in a fresh goroutine and returns a
  channel carrying the result.  Channels are made with (make-channel)
  and used with channel-send and channel-recv.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.cinder.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".cinder" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".cinder")
	}

	viper.SetDefault("sandbox.roots", []string{"./data", "./examples", "./scripts"})
	viper.SetDefault("sandbox.max-file-size", 10*1024*1024)
	viper.SetDefault("http.timeout", "30s")

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
