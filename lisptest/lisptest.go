// Copyright © 2025 The cinder authors

// Package lisptest runs table-driven tests over cinder source snippets.
// Each sequence evaluates expressions in order on a fresh runtime and
// compares rendered results and printed output.
package lisptest

import (
	"bytes"
	"testing"

	"github.com/cinderlisp/cinder/lisp"
	"github.com/cinderlisp/cinder/parser"
)

// TestSequence is a sequence of expressions evaluated in order on a
// shared runtime.  When evaluation fails the error's message is
// compared against Result, so sequences can assert failures inline.
type TestSequence []struct {
	Expr   string // a cinder expression
	Result string // the rendered result, or an evaluation error message
	Output string // output written by print/println during evaluation
}

// TestSuite is a set of named TestSequences.
type TestSuite []struct {
	Name string
	TestSequence
}

// Options configures the runtime built for each sequence.
type Options struct {
	Sandbox lisp.SandboxService
}

// RunTestSuite runs each TestSequence in tests on an isolated runtime.
func RunTestSuite(t *testing.T, tests TestSuite) {
	RunTestSuiteOptions(t, tests, Options{})
}

// RunTestSuiteOptions is RunTestSuite with a configured runtime.
func RunTestSuiteOptions(t *testing.T, tests TestSuite, opts Options) {
	t.Helper()
	for i, test := range tests {
		var outBuf bytes.Buffer
		rtOpts := []lisp.Option{lisp.WithStdout(&outBuf), lisp.WithStderr(&outBuf)}
		if opts.Sandbox != nil {
			rtOpts = append(rtOpts, lisp.WithSandbox(opts.Sandbox))
		}
		rt := lisp.NewRuntime(rtOpts...)
		for j, expr := range test.TestSequence {
			outBuf.Reset()
			forms, err := parser.ParseForms("test", []byte(expr.Expr))
			if err != nil {
				t.Errorf("test %d %q: expr %d: parse error: %v", i, test.Name, j, err)
				continue
			}
			if len(forms) != 1 {
				t.Errorf("test %d %q: expr %d: expected one expression, parsed %d",
					i, test.Name, j, len(forms))
				continue
			}
			if forms[0].Doc != "" {
				rt.SetPendingDoc(forms[0].Doc)
			}
			v, err := rt.Eval(forms[0].Expr, nil)
			result := ""
			if err != nil {
				result = err.Error()
			} else {
				result = v.String()
			}
			if result != expr.Result {
				t.Errorf("test %d %q: expr %d: expected result %q (got %q)",
					i, test.Name, j, expr.Result, result)
			}
			if outBuf.String() != expr.Output {
				t.Errorf("test %d %q: expr %d: expected output %q (got %q)",
					i, test.Name, j, expr.Output, outBuf.String())
			}
		}
	}
}

// RunBenchmark evaluates the expressions in source b.N times on fresh
// runtimes.
func RunBenchmark(b *testing.B, source string) {
	b.StopTimer()
	exprs, err := parser.Parse("benchmark", []byte(source))
	if err != nil {
		b.Fatalf("parse error: %v", err)
	}
	for i := 0; i < b.N; i++ {
		rt := lisp.NewRuntime(lisp.WithStdout(&bytes.Buffer{}))
		b.StartTimer()
		for _, expr := range exprs {
			if _, err := rt.Eval(expr, nil); err != nil {
				b.Fatalf("eval error: %v", err)
			}
		}
		b.StopTimer()
	}
}
