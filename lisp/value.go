// Copyright © 2025 The cinder authors

// Package lisp implements the cinder execution core: the runtime value
// model, lexical environments, the trampolined evaluator, macro expansion,
// and channel-based concurrency.
package lisp

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
)

// VType is the tag identifying the variant stored in a Value.
type VType uint

// Possible Value variants.  The set is closed; the evaluator dispatches on
// these tags structurally and nothing outside this package may add to them.
const (
	VNil VType = iota
	VNumber
	VBool
	VString
	VSymbol
	VKeyword
	VList
	VMap
	VLambda
	VMacro
	VBuiltin
	VChannel
	VError
	VTypeMax
)

var vtypeStrings = []string{
	VNil:     "nil",
	VNumber:  "number",
	VBool:    "bool",
	VString:  "string",
	VSymbol:  "symbol",
	VKeyword: "keyword",
	VList:    "list",
	VMap:     "map",
	VLambda:  "lambda",
	VMacro:   "macro",
	VBuiltin: "builtin",
	VChannel: "channel",
	VError:   "error",
}

func (t VType) String() string {
	if t < VTypeMax {
		return vtypeStrings[t]
	}
	return fmt.Sprintf("invalid-type-%d", uint(t))
}

// Value is the runtime representation of every cinder datum.  One struct
// with a type tag is used instead of an interface hierarchy so the
// evaluator can match shapes directly and construction stays cheap.
//
// Field use by variant:
//
//	VNumber            Num
//	VBool              Num (0 or 1)
//	VString, VSymbol   Str
//	VKeyword, VError   Str
//	VList              Cells
//	VMap               Map
//	VLambda, VMacro    Fun (Params, Body, Env, Doc)
//	VBuiltin           Fun (Name, Builtin)
//	VChannel           Ch
//
// Values are immutable after construction.  Operations that appear to
// modify a value (map-set, append) return new values.  The only exception
// is a Channel's internal queue, which has its own locking.
type Value struct {
	Type  VType
	Num   float64
	Str   string
	Cells []*Value
	Map   map[string]*Value
	Fun   *FunData
	Ch    *Channel
}

// FunData holds the callable payload shared by lambdas, macros, and
// builtins.
type FunData struct {
	// Name is the symbol the callable was bound to at definition time,
	// used for diagnostics.  Anonymous lambdas leave it empty.
	Name string

	// Params and Body describe a lambda or macro.  Body is a single
	// expression; defmacro wraps multi-expression bodies in begin before
	// construction.
	Params []string
	Body   *Value

	// Env is the environment captured when a lambda was created.  Macros
	// do not capture; their bodies are evaluated in a child of whatever
	// environment is current at expansion time.
	Env *Env

	// Builtin is non-nil for native functions.
	Builtin BuiltinFun

	// Doc is the docstring attached at definition, if any.
	Doc string
}

// BuiltinFun is the uniform native-function contract.  Arguments arrive
// already evaluated.  Builtins may call back into the evaluator through rt
// but must not retain environments beyond lambda bodies they own.
type BuiltinFun func(rt *Runtime, args []*Value) (*Value, error)

var (
	nilValue   = &Value{Type: VNil}
	trueValue  = &Value{Type: VBool, Num: 1}
	falseValue = &Value{Type: VBool, Num: 0}
)

// Nil returns the nil value.
func Nil() *Value { return nilValue }

// Number returns a number value.  cinder has a single float64 numeric type.
func Number(n float64) *Value { return &Value{Type: VNumber, Num: n} }

// Bool returns the shared true or false value.
func Bool(b bool) *Value {
	if b {
		return trueValue
	}
	return falseValue
}

// String returns a string value.
func String(s string) *Value { return &Value{Type: VString, Str: s} }

// Symbol returns a symbol value.
func Symbol(s string) *Value { return &Value{Type: VSymbol, Str: s} }

// Keyword returns the keyword value :name.  The leading colon is not part
// of the stored name.
func Keyword(name string) *Value { return &Value{Type: VKeyword, Str: name} }

// List returns a list of the given cells.  The cells slice is owned by the
// returned value.
func List(cells ...*Value) *Value { return &Value{Type: VList, Cells: cells} }

// MapValue returns a map value owning m.  A nil m allocates an empty map.
func MapValue(m map[string]*Value) *Value {
	if m == nil {
		m = make(map[string]*Value)
	}
	return &Value{Type: VMap, Map: m}
}

// Lambda returns a closure over env.
func Lambda(name string, params []string, body *Value, env *Env, doc string) *Value {
	return &Value{Type: VLambda, Fun: &FunData{
		Name:   name,
		Params: params,
		Body:   body,
		Env:    env,
		Doc:    doc,
	}}
}

// MacroValue returns a macro template value.
func MacroValue(name string, params []string, body *Value) *Value {
	return &Value{Type: VMacro, Fun: &FunData{
		Name:   name,
		Params: params,
		Body:   body,
	}}
}

// Builtin returns a native function value.
func Builtin(name string, fn BuiltinFun) *Value {
	return &Value{Type: VBuiltin, Fun: &FunData{Name: name, Builtin: fn}}
}

// ChannelValue wraps a channel handle.
func ChannelValue(ch *Channel) *Value { return &Value{Type: VChannel, Ch: ch} }

// ErrValue returns the catchable error value carrying msg.  It is ordinary
// data: it self-evaluates and is inspected with error? and error-msg.  It
// is unrelated to the *EvalError type that aborts evaluation.
func ErrValue(msg string) *Value { return &Value{Type: VError, Str: msg} }

// IsNil reports whether v is nil-like: the nil value or an empty list.
// The two are interchangeable to list predicates until normalized.
func (v *Value) IsNil() bool {
	return v.Type == VNil || (v.Type == VList && len(v.Cells) == 0)
}

// IsTruthy reports the truthiness of v.  Only false and nil are falsey;
// the number 0 and the empty string are truthy.
func (v *Value) IsTruthy() bool {
	switch v.Type {
	case VBool:
		return v.Num != 0
	case VNil:
		return false
	}
	return true
}

// IsCallable reports whether v can appear at the head of an application.
func (v *Value) IsCallable() bool {
	return v.Type == VLambda || v.Type == VBuiltin
}

// Bool reports the stored boolean.  Valid only when Type is VBool.
func (v *Value) Bool() bool { return v.Num != 0 }

// Equal reports deep structural equality.  Numbers compare by value,
// lists element-wise, maps entry-wise.  Nil and the empty list are equal.
// Lambdas, macros, builtins, and channels compare by identity.
func (v *Value) Equal(u *Value) bool {
	if v.IsNil() && u.IsNil() {
		return true
	}
	if v.Type != u.Type {
		return false
	}
	switch v.Type {
	case VNumber:
		return v.Num == u.Num
	case VBool:
		return v.Bool() == u.Bool()
	case VString, VSymbol, VKeyword, VError:
		return v.Str == u.Str
	case VList:
		if len(v.Cells) != len(u.Cells) {
			return false
		}
		for i := range v.Cells {
			if !v.Cells[i].Equal(u.Cells[i]) {
				return false
			}
		}
		return true
	case VMap:
		if len(v.Map) != len(u.Map) {
			return false
		}
		for k, vv := range v.Map {
			uv, ok := u.Map[k]
			if !ok || !vv.Equal(uv) {
				return false
			}
		}
		return true
	case VLambda, VMacro, VBuiltin:
		return v.Fun == u.Fun
	case VChannel:
		return v.Ch == u.Ch
	}
	return true
}

// FormatNumber renders a float the way cinder displays numbers: whole
// finite values print without a decimal point, everything else prints in
// shortest decimal form.
func FormatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// String renders v for the REPL and for error messages.  Strings print
// quoted; DisplayString is the unquoted form used by print.
func (v *Value) String() string {
	var buf bytes.Buffer
	v.write(&buf, true)
	return buf.String()
}

// DisplayString renders v with strings unquoted, as print and println
// emit them.
func (v *Value) DisplayString() string {
	var buf bytes.Buffer
	v.write(&buf, false)
	return buf.String()
}

func (v *Value) write(buf *bytes.Buffer, quote bool) {
	switch v.Type {
	case VNil:
		buf.WriteString("nil")
	case VNumber:
		buf.WriteString(FormatNumber(v.Num))
	case VBool:
		if v.Bool() {
			buf.WriteString("#t")
		} else {
			buf.WriteString("#f")
		}
	case VString:
		if quote {
			buf.WriteByte('"')
			buf.WriteString(v.Str)
			buf.WriteByte('"')
		} else {
			buf.WriteString(v.Str)
		}
	case VSymbol:
		buf.WriteString(v.Str)
	case VKeyword:
		buf.WriteByte(':')
		buf.WriteString(v.Str)
	case VList:
		buf.WriteByte('(')
		for i, cell := range v.Cells {
			if i > 0 {
				buf.WriteByte(' ')
			}
			cell.write(buf, true)
		}
		buf.WriteByte(')')
	case VMap:
		buf.WriteByte('{')
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteByte(':')
			buf.WriteString(k)
			buf.WriteByte(' ')
			v.Map[k].write(buf, true)
		}
		buf.WriteByte('}')
	case VLambda:
		buf.WriteString("#<lambda>")
	case VMacro:
		buf.WriteString("#<macro>")
	case VBuiltin:
		buf.WriteString("#<builtin>")
	case VChannel:
		buf.WriteString("#<channel>")
	case VError:
		buf.WriteString("#<error: ")
		buf.WriteString(v.Str)
		buf.WriteByte('>')
	default:
		fmt.Fprintf(buf, "#<invalid %d>", uint(v.Type))
	}
}
