// Copyright © 2025 The cinder authors

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cinderlisp/cinder/lisp"
	"github.com/cinderlisp/cinder/lisp/profiler"
	"github.com/cinderlisp/cinder/parser"
)

var (
	runExpression bool
	runPrint      bool
	runTrace      bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run lisp code",
	Long: `Run lisp code supplied via the command line or a file.

Files are evaluated in order on a single runtime, so definitions from
earlier files are visible to later ones.  With -e the arguments are
treated as expressions instead of paths.  With -p every top-level
result is printed to stdout.

Network access is off unless --allow-network is given; file access is
confined to the sandbox roots from the config file.`,
	Run: func(cmd *cobra.Command, args []string) {
		rtOpts := []lisp.Option{}
		if runTrace {
			rtOpts = append(rtOpts,
				lisp.WithProfiler(profiler.NewOpenTelemetryAnnotator(context.Background())))
		}
		rt, err := newRuntime(rtOpts...)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		sources, err := runReadSources(args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		for i, src := range sources {
			if err := runSource(rt, runSourceName(args, i), src); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		}
	},
}

func runSourceName(args []string, i int) string {
	if runExpression {
		return "expression"
	}
	return args[i]
}

func runReadSources(args []string) ([][]byte, error) {
	sources := make([][]byte, len(args))
	if runExpression {
		for i := range args {
			sources[i] = []byte(args[i])
		}
		return sources, nil
	}
	for i, path := range args {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		sources[i] = b
	}
	return sources, nil
}

func runSource(rt *lisp.Runtime, name string, src []byte) error {
	forms, err := parser.ParseForms(name, src)
	if err != nil {
		return err
	}
	for _, form := range forms {
		if form.Doc != "" {
			rt.SetPendingDoc(form.Doc)
		}
		v, err := rt.Eval(form.Expr, nil)
		if err != nil {
			return err
		}
		if runPrint {
			fmt.Fprintln(os.Stdout, v)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVarP(&runExpression, "expression", "e", false,
		"Interpret arguments as lisp expressions")
	runCmd.Flags().BoolVarP(&runPrint, "print", "p", false,
		"Print expression values to stdout")
	runCmd.Flags().BoolVar(&runTrace, "trace", false,
		"Record opentelemetry spans for function applications")
	registerSandboxFlags(runCmd.Flags())
}
