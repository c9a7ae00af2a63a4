// Copyright © 2025 The cinder authors

package lisp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalErrorFields(t *testing.T) {
	rt := NewRuntime()

	_, err := rt.Eval(List(Symbol("+"), Number(1), String("x")), nil)
	var evalErr *EvalError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, ErrTypeMismatch, evalErr.Kind)
	assert.Equal(t, "+", evalErr.Function)
	assert.Equal(t, "number", evalErr.Expected)
	assert.Equal(t, "string", evalErr.Actual)
	assert.Equal(t, 2, evalErr.Position)

	_, err = rt.Eval(List(Symbol("car")), nil)
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, ErrArity, evalErr.Kind)
	assert.Equal(t, "1", evalErr.Expected)

	_, err = rt.Eval(Symbol("ghost"), nil)
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, ErrUndefinedSymbol, evalErr.Kind)

	_, err = rt.Eval(List(Number(1), Number(2)), nil)
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, ErrNotCallable, evalErr.Kind)
}

// countingProfiler records every application name it observes.
type countingProfiler struct {
	entered []string
	errs    []error
}

func (p *countingProfiler) Enter(name string) func(err error) {
	p.entered = append(p.entered, name)
	return func(err error) {
		if err != nil {
			p.errs = append(p.errs, err)
		}
	}
}

func TestProfilerObservesApplications(t *testing.T) {
	p := &countingProfiler{}
	rt := NewRuntime(WithProfiler(p))

	_, err := rt.Eval(defineForm(
		List(Symbol("double"), Symbol("n")),
		List(Symbol("*"), Symbol("n"), Number(2))), nil)
	require.NoError(t, err)
	assert.Empty(t, p.entered, "define applies nothing")

	v, err := rt.Eval(List(Symbol("double"), Number(21)), nil)
	require.NoError(t, err)
	assert.Equal(t, 42.0, v.Num)
	assert.Equal(t, []string{"double", "*"}, p.entered)

	_, err = rt.Eval(List(Symbol("/"), Number(1), Number(0)), nil)
	require.Error(t, err)
	require.Len(t, p.errs, 1)
	assert.EqualError(t, p.errs[0], "/: Division by zero")
}

func TestProfilerNotCarriedBySnapshot(t *testing.T) {
	p := &countingProfiler{}
	rt := NewRuntime(WithProfiler(p))
	child := rt.Snapshot()
	assert.Nil(t, child.Profiler)
}

func TestEvalNilEnvUsesGlobals(t *testing.T) {
	rt := NewRuntime()
	rt.DefineGlobal("x", Number(7))
	v, err := rt.Eval(Symbol("x"), nil)
	require.NoError(t, err)
	assert.Equal(t, 7.0, v.Num)
}
