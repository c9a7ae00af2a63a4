// Copyright © 2025 The cinder authors

package lisp

// Env is an immutable table of name bindings with an optional parent.
// Extending an Env never mutates it.  Because every Env is frozen at
// construction, closures may share environments across threads without
// synchronization.
type Env struct {
	vars   map[string]*Value
	parent *Env
}

// NewEnv returns an empty environment whose lookups fall through to
// parent.  A nil parent makes a root scope.
func NewEnv(parent *Env) *Env {
	return &Env{vars: make(map[string]*Value), parent: parent}
}

// Extend returns a new environment with name bound, cloning the local
// table and sharing the parent reference.  The receiver is unchanged.
func (env *Env) Extend(name string, v *Value) *Env {
	vars := make(map[string]*Value, len(env.vars)+1)
	for k, val := range env.vars {
		vars[k] = val
	}
	vars[name] = v
	return &Env{vars: vars, parent: env.parent}
}

// Frame returns a child environment of env binding names to vals
// pairwise.  Used for lambda application and macro parameter binding,
// where a whole frame is constructed at once.  len(names) must equal
// len(vals).
func (env *Env) Frame(names []string, vals []*Value) *Env {
	vars := make(map[string]*Value, len(names))
	for i, name := range names {
		vars[name] = vals[i]
	}
	return &Env{vars: vars, parent: env}
}

// Get resolves name by walking from the innermost table outward.  The
// first match wins.
func (env *Env) Get(name string) (*Value, bool) {
	for scope := env; scope != nil; scope = scope.parent {
		if v, ok := scope.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Len reports the number of bindings in the local table only.
func (env *Env) Len() int { return len(env.vars) }

// Names returns the locally bound names.  The REPL completer walks the
// chain itself.
func (env *Env) Names() []string {
	names := make([]string, 0, len(env.vars))
	for name := range env.vars {
		names = append(names, name)
	}
	return names
}

// Parent returns the enclosing scope, or nil at a root.
func (env *Env) Parent() *Env { return env.parent }
