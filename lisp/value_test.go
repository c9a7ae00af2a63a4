// Copyright © 2025 The cinder authors

package lisp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	for _, tc := range []struct {
		n    float64
		want string
	}{
		{0, "0"},
		{42, "42"},
		{-3, "-3"},
		{2.5, "2.5"},
		{-0.75, "-0.75"},
		{1e6, "1000000"},
		{0.1, "0.1"},
	} {
		assert.Equal(t, tc.want, FormatNumber(tc.n), "FormatNumber(%v)", tc.n)
	}
}

func TestValueString(t *testing.T) {
	for _, tc := range []struct {
		v    *Value
		want string
	}{
		{Nil(), "nil"},
		{Number(42), "42"},
		{Number(-1.5), "-1.5"},
		{Bool(true), "#t"},
		{Bool(false), "#f"},
		{String("hi"), `"hi"`},
		{Symbol("foo"), "foo"},
		{Keyword("name"), ":name"},
		{List(), "()"},
		{List(Number(1), String("a"), Keyword("k")), `(1 "a" :k)`},
		{List(Number(1), List(Number(2), Number(3))), "(1 (2 3))"},
		{MapValue(nil), "{}"},
		{MapValue(map[string]*Value{"b": Number(2), "a": Number(1)}), "{:a 1 :b 2}"},
		{ErrValue("boom"), "#<error: boom>"},
		{ChannelValue(NewUnboundedChannel()), "#<channel>"},
	} {
		assert.Equal(t, tc.want, tc.v.String())
	}
}

func TestValueDisplayString(t *testing.T) {
	// Strings render unquoted at the top level but stay quoted inside
	// lists and maps.
	assert.Equal(t, "hi", String("hi").DisplayString())
	assert.Equal(t, `("a" "b")`, List(String("a"), String("b")).DisplayString())
	assert.Equal(t, `{:k "v"}`, MapValue(map[string]*Value{"k": String("v")}).DisplayString())
	assert.Equal(t, "42", Number(42).DisplayString())
}

func TestValueEqual(t *testing.T) {
	assert.True(t, Number(1).Equal(Number(1)))
	assert.False(t, Number(1).Equal(Number(2)))
	assert.False(t, Number(1).Equal(String("1")))
	assert.True(t, String("a").Equal(String("a")))
	assert.True(t, Keyword("k").Equal(Keyword("k")))
	assert.False(t, Keyword("k").Equal(Symbol("k")))

	// nil and the empty list are indistinguishable to Equal.
	assert.True(t, Nil().Equal(List()))
	assert.True(t, List().Equal(Nil()))
	assert.False(t, Nil().Equal(List(Number(1))))

	assert.True(t, List(Number(1), List(Number(2))).Equal(List(Number(1), List(Number(2)))))
	assert.False(t, List(Number(1)).Equal(List(Number(1), Number(2))))

	a := MapValue(map[string]*Value{"x": Number(1), "y": List(Number(2))})
	b := MapValue(map[string]*Value{"y": List(Number(2)), "x": Number(1)})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(MapValue(map[string]*Value{"x": Number(1)})))

	// Callables and channels compare by identity.
	ch := ChannelValue(NewUnboundedChannel())
	assert.True(t, ch.Equal(ch))
	assert.False(t, ch.Equal(ChannelValue(NewUnboundedChannel())))
}

func TestValueTruthiness(t *testing.T) {
	assert.False(t, Bool(false).IsTruthy())
	assert.False(t, Nil().IsTruthy())
	assert.True(t, Bool(true).IsTruthy())
	assert.True(t, Number(0).IsTruthy())
	assert.True(t, String("").IsTruthy())
	assert.True(t, List().IsTruthy())
	assert.True(t, ErrValue("x").IsTruthy())
}

func TestValueIsNil(t *testing.T) {
	assert.True(t, Nil().IsNil())
	assert.True(t, List().IsNil())
	assert.False(t, List(Number(1)).IsNil())
	assert.False(t, Bool(false).IsNil())
}

func TestNonWholeFloats(t *testing.T) {
	// Constant folding would evaluate 0.1 + 0.2 exactly.
	a, b := 0.1, 0.2
	assert.Equal(t, "0.30000000000000004", FormatNumber(a+b))
}
