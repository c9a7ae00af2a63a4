// Copyright © 2025 The cinder authors

package lisp

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvExtendIsImmutable(t *testing.T) {
	root := NewEnv(nil)
	a := root.Extend("x", Number(1))
	b := a.Extend("x", Number(2))

	v, ok := a.Get("x")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v.Num)

	v, ok = b.Get("x")
	assert.True(t, ok)
	assert.Equal(t, 2.0, v.Num)

	_, ok = root.Get("x")
	assert.False(t, ok)
}

func TestEnvLookupWalksParents(t *testing.T) {
	root := NewEnv(nil).Extend("x", Number(1)).Extend("y", Number(2))
	child := root.Frame([]string{"x"}, []*Value{Number(10)})

	v, ok := child.Get("x")
	assert.True(t, ok)
	assert.Equal(t, 10.0, v.Num, "inner binding shadows outer")

	v, ok = child.Get("y")
	assert.True(t, ok)
	assert.Equal(t, 2.0, v.Num, "miss falls through to parent")

	_, ok = child.Get("z")
	assert.False(t, ok)
}

func TestEnvFrame(t *testing.T) {
	root := NewEnv(nil)
	frame := root.Frame([]string{"a", "b"}, []*Value{Number(1), Number(2)})
	assert.Equal(t, 2, frame.Len())
	assert.Same(t, root, frame.Parent())

	names := frame.Names()
	sort.Strings(names)
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestDefineGlobalVisibleThroughSnapshot(t *testing.T) {
	rt := NewRuntime()
	rt.DefineGlobal("x", Number(1))

	child := rt.Snapshot()
	v, err := child.Eval(Symbol("x"), nil)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, v.Num)

	// Globals defined after the snapshot stay invisible to it.
	rt.DefineGlobal("y", Number(2))
	_, err = child.Eval(Symbol("y"), nil)
	assert.EqualError(t, err, "Undefined symbol: y")
}
