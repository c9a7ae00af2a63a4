// Copyright © 2025 The cinder authors

package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cinderlisp/cinder/lisp"
	"github.com/cinderlisp/cinder/parser"
)

var (
	docSourceFile string
	docListAll    bool
)

// docCmd represents the doc command
var docCmd = &cobra.Command{
	Use:   "doc [flags] QUERY",
	Short: "Show documentation for builtins and user definitions",
	Long: `Show built-in documentation for functions, macros, and operators.

By default, looks up a function by name.  Use -f to load a source file
first, which makes its documented definitions available (doc comments
written with ;;; immediately before a define, or inline docstrings).
Use -l to list every documented name.

Examples:
  cinder doc map                   Show docs for the map function
  cinder doc spawn                 Show docs for spawn
  cinder doc -f mylib.lisp mine    Load a file, then show docs for mine
  cinder doc -l                    List all documented names`,
	Run: func(cmd *cobra.Command, args []string) {
		if !docListAll && len(args) != 1 {
			_ = cmd.Help()
			os.Exit(1)
		}
		if err := docExec(args); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func docExec(args []string) error {
	rt := lisp.NewRuntime()
	if docSourceFile != "" {
		src, err := os.ReadFile(docSourceFile)
		if err != nil {
			return err
		}
		forms, err := parser.ParseForms(docSourceFile, src)
		if err != nil {
			return err
		}
		for _, form := range forms {
			if form.Doc != "" {
				rt.SetPendingDoc(form.Doc)
			}
			if _, err := rt.Eval(form.Expr, nil); err != nil {
				return err
			}
		}
	}
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush() //nolint:errcheck // best-effort flush on exit
	if docListAll {
		for _, name := range rt.Docs.Names() {
			fmt.Fprintln(out, name)
		}
		return nil
	}
	rec, ok := rt.Docs.Lookup(args[0])
	if !ok {
		return fmt.Errorf("no documentation for '%s'", args[0])
	}
	fmt.Fprintln(out, lisp.FormatRecord(rec))
	return nil
}

func init() {
	rootCmd.AddCommand(docCmd)

	docCmd.Flags().StringVarP(&docSourceFile, "file", "f", "",
		"Load a source file before looking up documentation")
	docCmd.Flags().BoolVarP(&docListAll, "list", "l", false,
		"List all documented names")
}
