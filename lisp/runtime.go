// Copyright © 2025 The cinder authors

package lisp

import (
	"io"
	"os"
)

// Runtime is the owned evaluation context ("world") threaded through every
// evaluation.  It holds the one piece of mutable state the language needs:
// the cell containing the current global environment, which top-level
// define replaces with a freshly extended environment.  A Runtime is
// confined to a single evaluating thread; spawn hands each new thread its
// own Runtime built by Snapshot.
type Runtime struct {
	globals *Env
	Macros  *MacroRegistry

	// Stdout receives print/println output.  Stderr receives diagnostics.
	Stdout io.Writer
	Stderr io.Writer

	// Sandbox backs the filesystem, network, and database builtins.  When
	// nil those builtins fail with an IO error.
	Sandbox SandboxService

	// DocHook, when set, is called at define time for every binding that
	// carries documentation.  Purely advisory; evaluation never consults
	// the registry it feeds.
	DocHook func(DocRecord)

	// Docs is the registry fed by the default DocHook and read by the
	// help builtin.
	Docs *DocRegistry

	// Profiler, when set, observes function applications.
	Profiler Profiler

	tests      *testRegistry
	pendingDoc string
}

// Option configures a Runtime at construction.
type Option func(*Runtime)

// WithStdout directs print output to w.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) { rt.Stdout = w }
}

// WithStderr directs diagnostics to w.
func WithStderr(w io.Writer) Option {
	return func(rt *Runtime) { rt.Stderr = w }
}

// WithSandbox installs the I/O service backing the sandboxed builtins.
func WithSandbox(s SandboxService) Option {
	return func(rt *Runtime) { rt.Sandbox = s }
}

// WithDocHook replaces the define-time documentation callback.
func WithDocHook(hook func(DocRecord)) Option {
	return func(rt *Runtime) { rt.DocHook = hook }
}

// WithProfiler installs an evaluation annotator.
func WithProfiler(p Profiler) Option {
	return func(rt *Runtime) { rt.Profiler = p }
}

// NewRuntime returns a runtime with all builtins bound in its global
// environment and an empty macro registry.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		globals: NewEnv(nil),
		Macros:  NewMacroRegistry(),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Docs:    NewDocRegistry(),
		tests:   newTestRegistry(),
	}
	rt.DocHook = rt.Docs.Record
	for _, opt := range opts {
		opt(rt)
	}
	registerBuiltins(rt)
	return rt
}

// Globals returns the current global environment.
func (rt *Runtime) Globals() *Env { return rt.globals }

// DefineGlobal replaces the global cell with an extension binding name.
// The previous global environment is untouched; holders of it keep the
// old view.
func (rt *Runtime) DefineGlobal(name string, v *Value) {
	rt.globals = rt.globals.Extend(name, v)
}

// Snapshot returns the runtime handed to a spawned thread: the same
// global environment value (immutable, so sharing the reference is a true
// snapshot; later defines on either side are invisible to the other) and
// a fresh empty macro registry.  Output, sandbox, and hooks are shared
// with the parent.  The profiler is not carried over; annotators keep
// per-thread span state, so spawned threads run unprofiled.
func (rt *Runtime) Snapshot() *Runtime {
	return &Runtime{
		globals: rt.globals,
		Macros:  NewMacroRegistry(),
		Stdout:  rt.Stdout,
		Stderr:  rt.Stderr,
		Sandbox: rt.Sandbox,
		DocHook: rt.DocHook,
		Docs:    rt.Docs,
		tests:   newTestRegistry(),
	}
}

// SetPendingDoc stages reader doc comments (";;;") for the next define.
// The host calls this between parsing a form and evaluating it.
func (rt *Runtime) SetPendingDoc(doc string) { rt.pendingDoc = doc }

func (rt *Runtime) takePendingDoc() string {
	doc := rt.pendingDoc
	rt.pendingDoc = ""
	return doc
}

// Profiler observes function application.  Enter is called before a
// lambda or builtin is applied and the returned function after it
// completes.  A profiler belongs to one runtime; Snapshot does not carry
// it onto spawned threads.
type Profiler interface {
	Enter(name string) func(err error)
}
