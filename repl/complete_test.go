// Copyright © 2025 The cinder authors

package repl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cinderlisp/cinder/lisp"
)

func completions(c *symbolCompleter, line string) []string {
	runes := []rune(line)
	suffixes, _ := c.Do(runes, len(runes))
	out := make([]string, len(suffixes))
	for i, s := range suffixes {
		out[i] = string(s)
	}
	return out
}

func TestSymbolCompleter(t *testing.T) {
	rt := lisp.NewRuntime()
	c := &symbolCompleter{rt: rt}

	// Do returns the suffix to append after the typed prefix.
	assert.Contains(t, completions(c, "(string-upp"), "er")
	assert.Contains(t, completions(c, "(map-ge"), "t")

	// User definitions complete too.
	rt.DefineGlobal("my-helper", lisp.Number(1))
	assert.Contains(t, completions(c, "(my-help"), "er")

	// The prefix stops at an open paren or quote mark.
	assert.Contains(t, completions(c, "(cons 'str"), "ing-upper")

	// No prefix, no candidates.
	suffixes, n := c.Do([]rune("("), 1)
	assert.Nil(t, suffixes)
	assert.Equal(t, 0, n)

	suffixes, _ = c.Do([]rune("(zzz-nope"), 9)
	assert.Nil(t, suffixes)
}
