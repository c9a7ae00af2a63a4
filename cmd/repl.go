// Copyright © 2025 The cinder authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cinderlisp/cinder/repl"
)

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive cinder REPL",
	Long: `Start an interactive read-eval-print loop.

Line editing, tab completion over bound symbols, and in-session command
history are supported via readline.  Multi-line input is read until all
parentheses balance.  Use Ctrl-D to exit.

Example REPL session:
  cinder> (+ 1 2)
  3
  cinder> (define (square x) (* x x))
  square
  cinder> (square 5)
  25
  cinder> (defmacro unless (c b) ` + "`" + `(if ,c nil ,b))
  unless
  cinder> {:a 1 :b 2}
  {:a 1 :b 2}
  cinder> (help 'map)
  ...`,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := newRuntime()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		prompt := filepath.Base(os.Args[0]) + "> "
		opts := []repl.Option{}
		if history := viper.GetString("repl.history"); history != "" {
			opts = append(opts, repl.WithHistoryFile(history))
		}
		repl.RunRuntime(rt, prompt, strings.Repeat(" ", len(prompt)), opts...)
	},
}

func init() {
	rootCmd.AddCommand(replCmd)

	registerSandboxFlags(replCmd.Flags())
}
