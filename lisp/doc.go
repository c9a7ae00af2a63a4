// Copyright © 2025 The cinder authors

package lisp

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// DocRecord is the advisory documentation record produced at define time
// and at builtin registration.  Evaluation never consults it.
type DocRecord struct {
	Name        string
	Signature   string
	Description string
}

// DocRegistry stores documentation records by name.  It is shared across
// spawned threads and guarded accordingly.
type DocRegistry struct {
	mu      sync.RWMutex
	records map[string]DocRecord
}

// NewDocRegistry returns an empty registry.
func NewDocRegistry() *DocRegistry {
	return &DocRegistry{records: make(map[string]DocRecord)}
}

// Record stores rec, replacing any previous record for the same name.
func (reg *DocRegistry) Record(rec DocRecord) {
	reg.mu.Lock()
	reg.records[rec.Name] = rec
	reg.mu.Unlock()
}

// Lookup returns the record registered under name.
func (reg *DocRegistry) Lookup(name string) (DocRecord, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	rec, ok := reg.records[name]
	return rec, ok
}

// Names returns every documented name in sorted order.
func (reg *DocRegistry) Names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	names := make([]string, 0, len(reg.records))
	for name := range reg.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const docWrapWidth = 76

// FormatRecord renders one record for terminal display.
func FormatRecord(rec DocRecord) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s\n", rec.Name)
	buf.WriteString(strings.Repeat("-", len(rec.Name)))
	buf.WriteString("\n\nSignature:\n")
	buf.WriteString(indent.String(rec.Signature, 2))
	buf.WriteString("\n\n")
	desc := wordwrap.String(rec.Description, docWrapWidth)
	buf.WriteString(indent.String(desc, 2))
	buf.WriteString("\n")
	return buf.String()
}

var helpBuiltins = []*langBuiltin{
	{"help", "(help [symbol])",
		"With a symbol argument, show the documentation for that name. With no argument, list every documented name.",
		builtinHelp},
}

func builtinHelp(rt *Runtime, args []*Value) (*Value, error) {
	switch len(args) {
	case 0:
		for _, name := range rt.Docs.Names() {
			fmt.Fprintln(rt.Stdout, name)
		}
		return Nil(), nil
	case 1:
		if args[0].Type != VSymbol {
			return nil, TypeError("help", "symbol", args[0], 1)
		}
		rec, ok := rt.Docs.Lookup(args[0].Str)
		if !ok {
			return nil, RuntimeErrorf("help", "no documentation for '%s'", args[0].Str)
		}
		fmt.Fprint(rt.Stdout, FormatRecord(rec))
		return Nil(), nil
	}
	return nil, ArityErrorf("help", ArityZeroOrOne, len(args))
}
