// Copyright © 2025 The cinder authors

// Package repl implements the interactive cinder prompt.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"

	"github.com/cinderlisp/cinder/lisp"
	"github.com/cinderlisp/cinder/parser"
)

type config struct {
	stdin   io.ReadCloser
	stderr  io.WriteCloser
	history string
}

func newConfig(opts ...Option) *config {
	config := &config{history: historyPath()}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr allows overriding the output to the REPL.
func WithStderr(stderr io.WriteCloser) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithHistoryFile sets the readline history file.
func WithHistoryFile(path string) Option {
	return func(c *config) {
		c.history = path
	}
}

// RunRepl runs a repl on a fresh runtime with no sandbox attached.
func RunRepl(prompt string, opts ...Option) {
	cfg := newConfig(opts...)
	rtOpts := []lisp.Option{}
	if cfg.stderr != nil {
		rtOpts = append(rtOpts, lisp.WithStderr(cfg.stderr))
	}
	rt := lisp.NewRuntime(rtOpts...)
	RunRuntime(rt, prompt, strings.Repeat(" ", len(prompt)), opts...)
}

// RunRuntime runs a repl evaluating input on rt.
func RunRuntime(rt *lisp.Runtime, prompt, cont string, opts ...Option) {
	cfg := newConfig(opts...)
	errw := rt.Stderr
	if cfg.stderr != nil {
		errw = cfg.stderr
		rt.Stderr = cfg.stderr
	}

	rlCfg := &readline.Config{
		Stdout:            errw,
		Stderr:            errw,
		Prompt:            prompt,
		HistoryFile:       cfg.history,
		HistorySearchFold: true,
		AutoComplete:      &symbolCompleter{rt: rt},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		panic(err)
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	var pending []byte
	rl.SetPrompt(prompt)
	for {
		line, err := rl.ReadSlice()
		if err == readline.ErrInterrupt {
			pending = nil
			rl.SetPrompt(prompt)
			continue
		}
		if err != nil {
			break
		}
		if len(pending) > 0 {
			pending = append(pending, '\n')
		}
		pending = append(pending, line...)
		if len(strings.TrimSpace(string(pending))) == 0 {
			pending = nil
			continue
		}
		if openForms(pending) > 0 {
			rl.SetPrompt(cont)
			continue
		}
		src := pending
		pending = nil
		rl.SetPrompt(prompt)

		forms, err := parser.ParseForms("stdin", src)
		if err != nil {
			fmt.Fprintln(errw, err) //nolint:errcheck // best-effort error display
			continue
		}
		for _, form := range forms {
			if form.Doc != "" {
				rt.SetPendingDoc(form.Doc)
			}
			val, err := rt.Eval(form.Expr, nil)
			if err != nil {
				fmt.Fprintln(errw, "error:", err) //nolint:errcheck // best-effort error display
				break
			}
			fmt.Fprintln(errw, val) //nolint:errcheck // best-effort REPL output
		}
	}
}

// openForms counts unclosed parens and braces in src, ignoring strings
// and line comments.  A positive count means the reader needs more
// input before the buffer can parse.
func openForms(src []byte) int {
	depth := 0
	inString := false
	inComment := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case inComment:
			if c == '\n' {
				inComment = false
			}
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == ';':
			inComment = true
		case c == '(' || c == '{':
			depth++
		case c == ')' || c == '}':
			depth--
		}
	}
	if inString {
		return 1
	}
	return depth
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cinder_history")
}
