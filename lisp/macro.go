// Copyright © 2025 The cinder authors

package lisp

import "strconv"

// MacroRegistry is a flat table mapping macro names to their parameter
// lists and unexpanded body templates.  One registry lives on each
// Runtime; spawned threads start with an empty one.
type MacroRegistry struct {
	macros map[string]*FunData
}

// NewMacroRegistry returns an empty registry.
func NewMacroRegistry() *MacroRegistry {
	return &MacroRegistry{macros: make(map[string]*FunData)}
}

// Define registers a macro under name, replacing any previous entry.
func (reg *MacroRegistry) Define(name string, params []string, body *Value) {
	reg.macros[name] = &FunData{Name: name, Params: params, Body: body}
}

// Get returns the macro registered under name.
func (reg *MacroRegistry) Get(name string) (*FunData, bool) {
	mac, ok := reg.macros[name]
	return mac, ok
}

// Len reports the number of registered macros.
func (reg *MacroRegistry) Len() int { return len(reg.macros) }

// expandMacros rewrites expr while its head symbol names a registered
// macro.  Arguments are bound unevaluated with an exact arity check, the
// macro body is evaluated in that frame under a throwaway registry (which
// is what resolves quasiquote templates inside the body), and the result
// is checked again so macros may expand into calls of other macros.  The
// loop stops at the fixed point: a form whose head is not a macro.
func (rt *Runtime) expandMacros(expr *Value, env *Env) (*Value, error) {
	for {
		if expr.Type != VList || len(expr.Cells) == 0 {
			return expr, nil
		}
		head := expr.Cells[0]
		if head.Type != VSymbol {
			return expr, nil
		}
		mac, ok := rt.Macros.Get(head.Str)
		if !ok {
			return expr, nil
		}
		args := expr.Cells[1:]
		if len(args) != len(mac.Params) {
			return nil, ArityErrorf(mac.Name, strconv.Itoa(len(mac.Params)), len(args))
		}
		macroEnv := env.Frame(mac.Params, args)
		saved := rt.Macros
		rt.Macros = NewMacroRegistry()
		expanded, err := rt.Eval(mac.Body, macroEnv)
		rt.Macros = saved
		if err != nil {
			return nil, err
		}
		expr = expanded
	}
}

// evalDefmacro handles (defmacro name (params...) body...).  Multiple
// body expressions are wrapped in begin.  Returns the macro's name
// symbol.
func (rt *Runtime) evalDefmacro(args []*Value) (*Value, error) {
	if len(args) < 3 {
		return nil, RuntimeErrorf("defmacro", "expected name, params, and body")
	}
	if args[0].Type != VSymbol {
		return nil, RuntimeErrorf("defmacro", "name must be a symbol")
	}
	name := args[0].Str
	if args[1].Type != VList {
		return nil, RuntimeErrorf("defmacro", "params must be a list")
	}
	params := make([]string, len(args[1].Cells))
	for i, p := range args[1].Cells {
		if p.Type != VSymbol {
			return nil, RuntimeErrorf("defmacro", "parameter must be symbol")
		}
		params[i] = p.Str
	}
	body := args[2]
	if len(args) > 3 {
		cells := make([]*Value, 0, len(args)-1)
		cells = append(cells, Symbol("begin"))
		cells = append(cells, args[2:]...)
		body = List(cells...)
	}
	rt.Macros.Define(name, params, body)
	return Symbol(name), nil
}
