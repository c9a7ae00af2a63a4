// Copyright © 2025 The cinder authors

package lisp

import "strconv"

// Eval evaluates expr in env.  A nil env evaluates at top level: an
// empty root scope whose lookups fall through to the runtime's global
// cell.
//
// The loop is a trampoline: tail positions (the taken branch of if, the
// last expression of begin, and the body of an applied lambda) replace
// the current expression and environment and continue the loop instead of
// recursing, so Lisp-level tail recursion never grows the Go stack.
// Argument evaluation, let bindings, and quasiquote walks recurse
// natively and retain the usual depth limit for deeply nested non-tail
// structure.
func (rt *Runtime) Eval(expr *Value, env *Env) (*Value, error) {
	if env == nil {
		// Not rt.globals itself.  A closure captured at top level must
		// resolve global names through the live cell, not a frozen copy
		// of the table.
		env = NewEnv(nil)
	}
	for {
		var err error
		expr, err = rt.expandMacros(expr, env)
		if err != nil {
			return nil, err
		}

		switch expr.Type {
		case VNumber, VBool, VString, VKeyword, VChannel, VNil,
			VLambda, VMacro, VBuiltin, VError:
			return expr, nil

		case VMap:
			return rt.evalMap(expr, env)

		case VSymbol:
			if expr.Str == "nil" {
				return Nil(), nil
			}
			if v, ok := env.Get(expr.Str); ok {
				return v, nil
			}
			if v, ok := rt.globals.Get(expr.Str); ok {
				return v, nil
			}
			return nil, UndefinedSymbolError(expr.Str)

		case VList:
			if len(expr.Cells) == 0 {
				return Nil(), nil
			}
			head := expr.Cells[0]
			args := expr.Cells[1:]
			if head.Type == VSymbol {
				switch head.Str {
				case "define":
					return rt.evalDefine(args, env)
				case "lambda":
					return evalLambda(args, env)
				case "quote":
					if len(args) != 1 {
						return nil, RuntimeErrorf("quote", "expected 1 argument")
					}
					return args[0], nil
				case "quasiquote":
					if len(args) != 1 {
						return nil, RuntimeErrorf("quasiquote", "expected 1 argument")
					}
					return rt.evalQuasiquote(args[0], 1, env)
				case "defmacro":
					return rt.evalDefmacro(args)
				case "if":
					if len(args) < 2 || len(args) > 3 {
						return nil, RuntimeErrorf("if", "expected 2 or 3 arguments")
					}
					cond, err := rt.Eval(args[0], env)
					if err != nil {
						return nil, err
					}
					if cond.IsTruthy() {
						expr = args[1]
					} else if len(args) == 3 {
						expr = args[2]
					} else {
						return Nil(), nil
					}
					continue
				case "begin":
					if len(args) == 0 {
						return Nil(), nil
					}
					for _, e := range args[:len(args)-1] {
						if _, err := rt.Eval(e, env); err != nil {
							return nil, err
						}
					}
					expr = args[len(args)-1]
					continue
				case "let":
					return rt.evalLet(args, env)
				}
			}

			fn, err := rt.Eval(head, env)
			if err != nil {
				return nil, err
			}
			vals := make([]*Value, len(args))
			for i, arg := range args {
				vals[i], err = rt.Eval(arg, env)
				if err != nil {
					return nil, err
				}
			}
			switch fn.Type {
			case VLambda:
				if len(vals) != len(fn.Fun.Params) {
					return nil, ArityErrorf(lambdaName(fn),
						strconv.Itoa(len(fn.Fun.Params)), len(vals))
				}
				if rt.Profiler != nil {
					// A lambda application tail-jumps, so the span covers
					// dispatch, not the body's dynamic extent.
					rt.Profiler.Enter(lambdaName(fn))(nil)
				}
				env = fn.Fun.Env.Frame(fn.Fun.Params, vals)
				expr = fn.Fun.Body
				continue
			case VBuiltin:
				if rt.Profiler != nil {
					exit := rt.Profiler.Enter(fn.Fun.Name)
					res, err := fn.Fun.Builtin(rt, vals)
					exit(err)
					return res, err
				}
				return fn.Fun.Builtin(rt, vals)
			default:
				return nil, NotCallableError()
			}
		default:
			return expr, nil
		}
	}
}

// Apply invokes a callable with already-evaluated arguments outside a
// tail position.  Builtins that accept function arguments (map, filter,
// reduce, the test runner) re-enter evaluation through this.
func (rt *Runtime) Apply(fn *Value, args []*Value) (*Value, error) {
	switch fn.Type {
	case VBuiltin:
		return fn.Fun.Builtin(rt, args)
	case VLambda:
		if len(args) != len(fn.Fun.Params) {
			return nil, ArityErrorf(lambdaName(fn),
				strconv.Itoa(len(fn.Fun.Params)), len(args))
		}
		return rt.Eval(fn.Fun.Body, fn.Fun.Env.Frame(fn.Fun.Params, args))
	}
	return nil, NotCallableError()
}

func lambdaName(fn *Value) string {
	if fn.Fun.Name != "" {
		return fn.Fun.Name
	}
	return "#<lambda>"
}

// evalMap evaluates every value of a map literal in place.  Keys are not
// evaluated.
func (rt *Runtime) evalMap(expr *Value, env *Env) (*Value, error) {
	m := make(map[string]*Value, len(expr.Map))
	for k, v := range expr.Map {
		ev, err := rt.Eval(v, env)
		if err != nil {
			return nil, err
		}
		m[k] = ev
	}
	return MapValue(m), nil
}

// evalDefine handles both define forms.  (define sym val) binds val in
// the global scope.  (define (name params...) [docstring] body) is sugar
// for binding a lambda.  Either form returns the bound symbol.  Reader
// doc comments staged on the runtime take precedence over an inline
// docstring; when documentation is present the define-time hook fires.
func (rt *Runtime) evalDefine(args []*Value, env *Env) (*Value, error) {
	pending := rt.takePendingDoc()
	if len(args) < 2 {
		return nil, RuntimeErrorf("define", "requires at least 2 arguments")
	}
	switch args[0].Type {
	case VSymbol:
		name := args[0].Str
		v, err := rt.Eval(args[1], env)
		if err != nil {
			return nil, err
		}
		rt.DefineGlobal(name, v)
		if pending != "" && rt.DocHook != nil {
			rt.DocHook(DocRecord{Name: name, Signature: name, Description: pending})
		}
		return Symbol(name), nil

	case VList:
		if len(args[0].Cells) == 0 {
			return nil, RuntimeErrorf("define", "requires a symbol or list as first argument")
		}
		sig := args[0].Cells
		if sig[0].Type != VSymbol {
			return nil, RuntimeErrorf("define", "function name must be a symbol")
		}
		name := sig[0].Str
		params := make([]string, len(sig)-1)
		for i, p := range sig[1:] {
			if p.Type != VSymbol {
				return nil, RuntimeErrorf("define", "function parameters must be symbols")
			}
			params[i] = p.Str
		}
		doc := ""
		body := args[1]
		if args[1].Type == VString && len(args) > 2 {
			doc = args[1].Str
			body = args[2]
		}
		if pending != "" {
			doc = pending
		}
		rt.DefineGlobal(name, Lambda(name, params, body, env, doc))
		if doc != "" && rt.DocHook != nil {
			rt.DocHook(DocRecord{
				Name:        name,
				Signature:   signatureString(name, params),
				Description: doc,
			})
		}
		return Symbol(name), nil
	}
	return nil, RuntimeErrorf("define", "requires a symbol or list as first argument")
}

// evalLambda handles (lambda (params...) [docstring] body), capturing the
// current environment.
func evalLambda(args []*Value, env *Env) (*Value, error) {
	if len(args) < 2 {
		return nil, RuntimeErrorf("lambda", "requires at least 2 arguments (params and body)")
	}
	if args[0].Type != VList && args[0].Type != VNil {
		return nil, RuntimeErrorf("lambda", "parameters must be a list")
	}
	params := make([]string, len(args[0].Cells))
	for i, p := range args[0].Cells {
		if p.Type != VSymbol {
			return nil, RuntimeErrorf("lambda", "parameters must be symbols")
		}
		params[i] = p.Str
	}
	doc := ""
	body := args[1]
	if args[1].Type == VString && len(args) > 2 {
		doc = args[1].Str
		body = args[2]
	}
	return Lambda("", params, body, env, doc), nil
}

// evalLet handles (let ((name expr)...) body...).  Bindings evaluate
// left to right in the child environment, so later bindings see earlier
// ones but never themselves.  The body evaluates in sequence without
// tail optimization and the last value is returned.
func (rt *Runtime) evalLet(args []*Value, env *Env) (*Value, error) {
	if len(args) == 0 {
		return nil, RuntimeErrorf("let", "expected bindings and body")
	}
	if args[0].Type != VList && args[0].Type != VNil {
		return nil, RuntimeErrorf("let", "bindings must be a list")
	}
	letEnv := NewEnv(env)
	for _, binding := range args[0].Cells {
		if binding.Type != VList || len(binding.Cells) != 2 {
			return nil, RuntimeErrorf("let", "binding must be (symbol value)")
		}
		if binding.Cells[0].Type != VSymbol {
			return nil, RuntimeErrorf("let", "binding name must be symbol")
		}
		v, err := rt.Eval(binding.Cells[1], letEnv)
		if err != nil {
			return nil, err
		}
		letEnv = letEnv.Extend(binding.Cells[0].Str, v)
	}
	result := Nil()
	for _, e := range args[1:] {
		var err error
		result, err = rt.Eval(e, letEnv)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// evalQuasiquote walks a template with a nesting-depth counter.
// (unquote x) evaluates x only at depth 1.  (unquote-splicing x) at
// depth 1 must evaluate to a list, whose elements are spliced into the
// surrounding list.  A nested quasiquote increments the depth for its
// subtree and is reconstructed rather than evaluated away, so multiply
// nested templates round-trip.  Everything else is rebuilt unevaluated.
func (rt *Runtime) evalQuasiquote(arg *Value, depth int, env *Env) (*Value, error) {
	if arg.Type != VList {
		return arg, nil
	}
	if len(arg.Cells) == 0 {
		return Nil(), nil
	}
	if head := arg.Cells[0]; head.Type == VSymbol {
		switch head.Str {
		case "unquote":
			if len(arg.Cells) != 2 {
				return nil, RuntimeErrorf("unquote", "expected 1 argument")
			}
			if depth == 1 {
				return rt.Eval(arg.Cells[1], env)
			}
		case "quasiquote":
			if len(arg.Cells) != 2 {
				return nil, RuntimeErrorf("quasiquote", "expected 1 argument")
			}
			inner, err := rt.evalQuasiquote(arg.Cells[1], depth+1, env)
			if err != nil {
				return nil, err
			}
			return List(Symbol("quasiquote"), inner), nil
		}
	}
	cells := make([]*Value, 0, len(arg.Cells))
	for _, item := range arg.Cells {
		if depth == 1 && item.Type == VList && len(item.Cells) > 0 &&
			item.Cells[0].Type == VSymbol && item.Cells[0].Str == "unquote-splicing" {
			if len(item.Cells) != 2 {
				return nil, RuntimeErrorf("unquote-splicing", "expected 1 argument")
			}
			splice, err := rt.Eval(item.Cells[1], env)
			if err != nil {
				return nil, err
			}
			if splice.Type != VList && splice.Type != VNil {
				return nil, RuntimeErrorf("unquote-splicing", "requires a list")
			}
			cells = append(cells, splice.Cells...)
			continue
		}
		rebuilt, err := rt.evalQuasiquote(item, depth, env)
		if err != nil {
			return nil, err
		}
		cells = append(cells, rebuilt)
	}
	return List(cells...), nil
}

func signatureString(name string, params []string) string {
	sig := "(" + name
	for _, p := range params {
		sig += " " + p
	}
	return sig + ")"
}
