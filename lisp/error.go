// Copyright © 2025 The cinder authors

package lisp

import "fmt"

// ErrKind classifies an aborting evaluation failure.
type ErrKind uint

const (
	// ErrTypeMismatch marks a wrong value variant at a specific argument
	// position of a named operation.
	ErrTypeMismatch ErrKind = iota
	// ErrArity marks a wrong argument count for a named callee.
	ErrArity
	// ErrRuntime marks an operation-specific failure such as division by
	// zero or a malformed bindings list.
	ErrRuntime
	// ErrUndefinedSymbol marks a lookup miss in both the local chain and
	// the global scope.
	ErrUndefinedSymbol
	// ErrNotCallable marks an attempt to apply a non-callable value.
	ErrNotCallable
	// ErrIO marks a failure surfaced from the sandbox service boundary.
	ErrIO
)

// Expected-arity descriptions shared by builtin argument checks.
const (
	ArityOne        = "1"
	ArityTwo        = "2"
	ArityThree      = "3"
	ArityAtLeastOne = "at least 1"
	ArityZeroOrOne  = "0-1"
	ArityOneOrTwo   = "1-2"
	ArityTwoOrThree = "2-3"
)

// EvalError is the aborting error type returned by the evaluator and by
// builtins.  It propagates as an ordinary Go error: the trampoline loop
// short-circuits on the first failure and hands it to the caller.  It is
// distinct from the catchable error value built by ErrValue, which flows
// through evaluation as data.
type EvalError struct {
	Kind     ErrKind
	Function string
	Expected string // type name, or an arity description like "2" or "1-3"
	Actual   string
	Position int // 1-based argument position for type mismatches
	Message  string
}

func (e *EvalError) Error() string {
	switch e.Kind {
	case ErrTypeMismatch:
		return fmt.Sprintf("%s: expected %s, got %s at argument %d",
			e.Function, e.Expected, e.Actual, e.Position)
	case ErrArity:
		plural := "s"
		if e.Expected == ArityOne {
			plural = ""
		}
		return fmt.Sprintf("%s: expected %s argument%s, got %s",
			e.Function, e.Expected, plural, e.Actual)
	case ErrRuntime:
		return fmt.Sprintf("%s: %s", e.Function, e.Message)
	case ErrUndefinedSymbol:
		return fmt.Sprintf("Undefined symbol: %s", e.Message)
	case ErrNotCallable:
		return "Value is not callable"
	case ErrIO:
		return fmt.Sprintf("%s: %s", e.Function, e.Message)
	}
	return e.Message
}

// TypeError reports that args[position-1] of function had the wrong
// variant.  position is 1-based.
func TypeError(function, expected string, actual *Value, position int) *EvalError {
	return &EvalError{
		Kind:     ErrTypeMismatch,
		Function: function,
		Expected: expected,
		Actual:   actual.Type.String(),
		Position: position,
	}
}

// ArityErrorf reports a wrong argument count.  expected is a count
// description such as "2", "1-3", or "at least 1".
func ArityErrorf(function, expected string, actual int) *EvalError {
	return &EvalError{
		Kind:     ErrArity,
		Function: function,
		Expected: expected,
		Actual:   fmt.Sprintf("%d", actual),
	}
}

// RuntimeErrorf reports an operation-specific failure.
func RuntimeErrorf(function, format string, args ...interface{}) *EvalError {
	return &EvalError{
		Kind:     ErrRuntime,
		Function: function,
		Message:  fmt.Sprintf(format, args...),
	}
}

// UndefinedSymbolError reports a failed lookup for name.
func UndefinedSymbolError(name string) *EvalError {
	return &EvalError{Kind: ErrUndefinedSymbol, Message: name}
}

// NotCallableError reports application of a non-callable value.
func NotCallableError() *EvalError {
	return &EvalError{Kind: ErrNotCallable}
}

// IOError wraps a sandbox failure for a named operation.
func IOError(function string, err error) *EvalError {
	return &EvalError{Kind: ErrIO, Function: function, Message: err.Error()}
}

// IOErrorf reports a service-boundary failure with a formatted message.
func IOErrorf(function, format string, args ...interface{}) *EvalError {
	return &EvalError{Kind: ErrIO, Function: function, Message: fmt.Sprintf(format, args...)}
}
