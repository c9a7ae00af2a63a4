// Copyright © 2025 The cinder authors

package lisp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// langBuiltin is one row of a builtin table: the bound name, the
// signature and docstring fed to the documentation registry, and the
// native implementation.
type langBuiltin struct {
	name      string
	signature string
	doc       string
	fn        BuiltinFun
}

func registerBuiltins(rt *Runtime) {
	tables := [][]*langBuiltin{
		coreBuiltins,
		concurrencyBuiltins,
		sandboxBuiltins,
		testingBuiltins,
		helpBuiltins,
	}
	for _, table := range tables {
		for _, b := range table {
			rt.DefineGlobal(b.name, Builtin(b.name, b.fn))
			rt.Docs.Record(DocRecord{
				Name:        b.name,
				Signature:   b.signature,
				Description: b.doc,
			})
		}
	}
}

var coreBuiltins = []*langBuiltin{
	// arithmetic
	{"+", "(+ ...)", "Return the sum of all arguments. With no arguments returns 0.", builtinAdd},
	{"-", "(- n ...)", "Subtract subsequent arguments from the first. With one argument, negate it.", builtinSub},
	{"*", "(* ...)", "Return the product of all arguments. With no arguments returns 1.", builtinMul},
	{"/", "(/ n ...)", "Divide the first argument by subsequent arguments. With one argument, return its reciprocal.", builtinDiv},
	// comparison
	{"=", "(= a b)", "Return #t if a and b are equal atoms (numbers, strings, symbols, booleans, or nil).", builtinEq},
	{"<", "(< a b)", "Return #t if number a is less than number b.", builtinLT},
	{">", "(> a b)", "Return #t if number a is greater than number b.", builtinGT},
	{"<=", "(<= a b)", "Return #t if number a is less than or equal to number b.", builtinLE},
	{">=", "(>= a b)", "Return #t if number a is greater than or equal to number b.", builtinGE},
	// logic
	{"and", "(and ...)", "Logical AND over boolean arguments. Returns #f on the first #f.", builtinAnd},
	{"or", "(or ...)", "Logical OR over boolean arguments. Returns #t on the first #t.", builtinOr},
	{"not", "(not b)", "Logical negation of a boolean.", builtinNot},
	// type predicates and conversions
	{"number?", "(number? value)", "Return #t if value is a number.", typePredicate("number?", VNumber)},
	{"string?", "(string? value)", "Return #t if value is a string.", typePredicate("string?", VString)},
	{"symbol?", "(symbol? value)", "Return #t if value is a symbol.", typePredicate("symbol?", VSymbol)},
	{"keyword?", "(keyword? value)", "Return #t if value is a keyword.", typePredicate("keyword?", VKeyword)},
	{"bool?", "(bool? value)", "Return #t if value is a boolean.", typePredicate("bool?", VBool)},
	{"map?", "(map? value)", "Return #t if value is a map.", typePredicate("map?", VMap)},
	{"list?", "(list? value)", "Return #t if value is a list. nil counts as the empty list.", builtinIsList},
	{"nil?", "(nil? value)", "Return #t if value is nil or the empty list.", builtinIsNil},
	{"number->string", "(number->string n)", "Render a number as a string, without a decimal point for whole values.", builtinNumberToString},
	{"string->number", "(string->number s)", "Parse a string as a number. Returns an error value when the string does not parse.", builtinStringToNumber},
	{"symbol->string", "(symbol->string sym)", "Return the name of a symbol as a string.", builtinSymbolToString},
	// lists
	{"list", "(list ...)", "Return a new list of the given elements in order.", builtinList},
	{"cons", "(cons head tail)", "Prepend head to the list tail.", builtinCons},
	{"car", "(car lis)", "Return the first element of a non-empty list.", builtinCar},
	{"cdr", "(cdr lis)", "Return the elements after the first. The tail of a one-element list is nil.", builtinCdr},
	{"length", "(length lis)", "Return the number of elements in a list.", builtinLength},
	{"empty?", "(empty? lis)", "Return #t if a list has no elements.", builtinIsEmpty},
	{"append", "(append ...)", "Concatenate any number of lists into a new list.", builtinAppend},
	{"reverse", "(reverse lis)", "Return a new list with the elements in reverse order.", builtinReverse},
	{"nth", "(nth lis n)", "Return element n of a list, counting from 0.", builtinNth},
	{"map", "(map fn lis)", "Apply fn to every element of lis and return the list of results.", builtinMapFn},
	{"filter", "(filter pred lis)", "Return the elements of lis for which pred returns a truthy value.", builtinFilter},
	{"reduce", "(reduce fn init lis)", "Fold lis left to right with fn, starting from init.", builtinReduce},
	{"list->string", "(list->string lis)", "Concatenate a list of strings into one string.", builtinListToString},
	{"string->list", "(string->list s)", "Split a string into a list of one-character strings.", builtinStringToList},
	// strings
	{"string-append", "(string-append ...)", "Concatenate any number of strings.", builtinStringAppend},
	{"string-length", "(string-length s)", "Return the number of characters in a string.", builtinStringLength},
	{"string-upper", "(string-upper s)", "Return s converted to upper case.", builtinStringUpper},
	{"string-lower", "(string-lower s)", "Return s converted to lower case.", builtinStringLower},
	{"string-trim", "(string-trim s)", "Return s with leading and trailing whitespace removed.", builtinStringTrim},
	{"string-split", "(string-split s delim)", "Split s on delim and return the list of parts.", builtinStringSplit},
	{"string-join", "(string-join lis delim)", "Join a list of strings with delim between elements.", builtinStringJoin},
	{"string-contains?", "(string-contains? s sub)", "Return #t if s contains sub.", builtinStringContains},
	{"string-starts-with?", "(string-starts-with? s prefix)", "Return #t if s starts with prefix.", builtinStringStartsWith},
	{"string-ends-with?", "(string-ends-with? s suffix)", "Return #t if s ends with suffix.", builtinStringEndsWith},
	{"string-replace", "(string-replace s old new)", "Return s with every occurrence of old replaced by new.", builtinStringReplace},
	{"substring", "(substring s start end)", "Return the characters of s from start (inclusive) to end (exclusive).", builtinSubstring},
	{"string-empty?", "(string-empty? s)", "Return #t if s has no characters.", builtinStringEmpty},
	// maps
	{"map-new", "(map-new)", "Return a new empty map.", builtinMapNew},
	{"map-get", "(map-get m key)", "Return the value bound to keyword key, or nil when absent.", builtinMapGet},
	{"map-set", "(map-set m key value)", "Return a new map with key bound to value. The original map is unchanged.", builtinMapSet},
	{"map-remove", "(map-remove m key)", "Return a new map without key.", builtinMapRemove},
	{"map-has?", "(map-has? m key)", "Return #t if key is present in m.", builtinMapHas},
	{"map-keys", "(map-keys m)", "Return the keys of m as a sorted list of keywords.", builtinMapKeys},
	{"map-values", "(map-values m)", "Return the values of m ordered by sorted key.", builtinMapValues},
	{"map-entries", "(map-entries m)", "Return (key value) pairs of m ordered by sorted key.", builtinMapEntries},
	{"map-size", "(map-size m)", "Return the number of entries in m.", builtinMapSize},
	{"map-empty?", "(map-empty? m)", "Return #t if m has no entries.", builtinMapEmpty},
	{"map-merge", "(map-merge a b)", "Return a new map with the entries of both maps; entries of b win on conflict.", builtinMapMerge},
	// console
	{"print", "(print ...)", "Write values separated by spaces, strings unquoted. Returns nil.", builtinPrint},
	{"println", "(println ...)", "Write values separated by spaces followed by a newline. Returns nil.", builtinPrintln},
	// errors as data
	{"error", "(error message)", "Return a catchable error value carrying message.", builtinError},
	{"error?", "(error? value)", "Return #t if value is an error value.", typePredicate("error?", VError)},
	{"error-msg", "(error-msg err)", "Return the message carried by an error value.", builtinErrorMsg},
}

func numArg(name string, args []*Value, i int) (float64, error) {
	if args[i].Type != VNumber {
		return 0, TypeError(name, "number", args[i], i+1)
	}
	return args[i].Num, nil
}

func strArg(name string, args []*Value, i int) (string, error) {
	if args[i].Type != VString {
		return "", TypeError(name, "string", args[i], i+1)
	}
	return args[i].Str, nil
}

// listArg accepts a list or nil, honoring list/nil interchangeability.
func listArg(name string, args []*Value, i int) ([]*Value, error) {
	switch args[i].Type {
	case VList:
		return args[i].Cells, nil
	case VNil:
		return nil, nil
	}
	return nil, TypeError(name, "list", args[i], i+1)
}

func mapArg(name string, args []*Value, i int) (map[string]*Value, error) {
	if args[i].Type != VMap {
		return nil, TypeError(name, "map", args[i], i+1)
	}
	return args[i].Map, nil
}

func keywordArg(name string, args []*Value, i int) (string, error) {
	if args[i].Type != VKeyword {
		return "", TypeError(name, "keyword", args[i], i+1)
	}
	return args[i].Str, nil
}

func boolArg(name string, args []*Value, i int) (bool, error) {
	if args[i].Type != VBool {
		return false, TypeError(name, "bool", args[i], i+1)
	}
	return args[i].Bool(), nil
}

func typePredicate(name string, t VType) BuiltinFun {
	return func(rt *Runtime, args []*Value) (*Value, error) {
		if len(args) != 1 {
			return nil, ArityErrorf(name, ArityOne, len(args))
		}
		return Bool(args[0].Type == t), nil
	}
}

func builtinAdd(rt *Runtime, args []*Value) (*Value, error) {
	sum := 0.0
	for i := range args {
		n, err := numArg("+", args, i)
		if err != nil {
			return nil, err
		}
		sum += n
	}
	return Number(sum), nil
}

func builtinSub(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) == 0 {
		return nil, ArityErrorf("-", ArityAtLeastOne, 0)
	}
	first, err := numArg("-", args, 0)
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return Number(-first), nil
	}
	result := first
	for i := 1; i < len(args); i++ {
		n, err := numArg("-", args, i)
		if err != nil {
			return nil, err
		}
		result -= n
	}
	return Number(result), nil
}

func builtinMul(rt *Runtime, args []*Value) (*Value, error) {
	product := 1.0
	for i := range args {
		n, err := numArg("*", args, i)
		if err != nil {
			return nil, err
		}
		product *= n
	}
	return Number(product), nil
}

func builtinDiv(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) == 0 {
		return nil, ArityErrorf("/", ArityAtLeastOne, 0)
	}
	first, err := numArg("/", args, 0)
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		if first == 0 {
			return nil, RuntimeErrorf("/", "Division by zero")
		}
		return Number(1 / first), nil
	}
	result := first
	for i := 1; i < len(args); i++ {
		n, err := numArg("/", args, i)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, RuntimeErrorf("/", "Division by zero")
		}
		result /= n
	}
	return Number(result), nil
}

// builtinEq compares atoms.  Compound values (lists, maps, callables)
// are never = even to themselves; deep comparison is assert-equal's job.
func builtinEq(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 2 {
		return nil, ArityErrorf("=", ArityTwo, len(args))
	}
	a, b := args[0], args[1]
	if a.IsNil() && b.IsNil() {
		return Bool(true), nil
	}
	if a.Type != b.Type {
		return Bool(false), nil
	}
	switch a.Type {
	case VNumber:
		return Bool(a.Num == b.Num), nil
	case VBool:
		return Bool(a.Bool() == b.Bool()), nil
	case VString, VSymbol, VKeyword:
		return Bool(a.Str == b.Str), nil
	}
	return Bool(false), nil
}

func compareBuiltin(name string, cmp func(a, b float64) bool) BuiltinFun {
	return func(rt *Runtime, args []*Value) (*Value, error) {
		if len(args) != 2 {
			return nil, ArityErrorf(name, ArityTwo, len(args))
		}
		a, err := numArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := numArg(name, args, 1)
		if err != nil {
			return nil, err
		}
		return Bool(cmp(a, b)), nil
	}
}

var (
	builtinLT = compareBuiltin("<", func(a, b float64) bool { return a < b })
	builtinGT = compareBuiltin(">", func(a, b float64) bool { return a > b })
	builtinLE = compareBuiltin("<=", func(a, b float64) bool { return a <= b })
	builtinGE = compareBuiltin(">=", func(a, b float64) bool { return a >= b })
)

func builtinAnd(rt *Runtime, args []*Value) (*Value, error) {
	for i := range args {
		b, err := boolArg("and", args, i)
		if err != nil {
			return nil, err
		}
		if !b {
			return Bool(false), nil
		}
	}
	return Bool(true), nil
}

func builtinOr(rt *Runtime, args []*Value) (*Value, error) {
	for i := range args {
		b, err := boolArg("or", args, i)
		if err != nil {
			return nil, err
		}
		if b {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}

func builtinNot(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("not", ArityOne, len(args))
	}
	b, err := boolArg("not", args, 0)
	if err != nil {
		return nil, err
	}
	return Bool(!b), nil
}

func builtinIsList(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("list?", ArityOne, len(args))
	}
	return Bool(args[0].Type == VList || args[0].Type == VNil), nil
}

func builtinIsNil(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("nil?", ArityOne, len(args))
	}
	return Bool(args[0].IsNil()), nil
}

func builtinNumberToString(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("number->string", ArityOne, len(args))
	}
	n, err := numArg("number->string", args, 0)
	if err != nil {
		return nil, err
	}
	return String(FormatNumber(n)), nil
}

func builtinStringToNumber(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("string->number", ArityOne, len(args))
	}
	s, err := strArg("string->number", args, 0)
	if err != nil {
		return nil, err
	}
	n, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if perr != nil {
		return ErrValue(fmt.Sprintf("Cannot parse '%s' as number", s)), nil
	}
	return Number(n), nil
}

func builtinSymbolToString(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("symbol->string", ArityOne, len(args))
	}
	if args[0].Type != VSymbol {
		return nil, TypeError("symbol->string", "symbol", args[0], 1)
	}
	return String(args[0].Str), nil
}

func builtinList(rt *Runtime, args []*Value) (*Value, error) {
	cells := make([]*Value, len(args))
	copy(cells, args)
	return List(cells...), nil
}

func builtinCons(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 2 {
		return nil, ArityErrorf("cons", ArityTwo, len(args))
	}
	tail, err := listArg("cons", args, 1)
	if err != nil {
		return nil, err
	}
	cells := make([]*Value, 0, len(tail)+1)
	cells = append(cells, args[0])
	cells = append(cells, tail...)
	return List(cells...), nil
}

func builtinCar(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("car", ArityOne, len(args))
	}
	cells, err := listArg("car", args, 0)
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return nil, RuntimeErrorf("car", "car of empty list")
	}
	return cells[0], nil
}

func builtinCdr(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("cdr", ArityOne, len(args))
	}
	cells, err := listArg("cdr", args, 0)
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return nil, RuntimeErrorf("cdr", "cdr of empty list")
	}
	if len(cells) == 1 {
		return Nil(), nil
	}
	rest := make([]*Value, len(cells)-1)
	copy(rest, cells[1:])
	return List(rest...), nil
}

func builtinLength(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("length", ArityOne, len(args))
	}
	cells, err := listArg("length", args, 0)
	if err != nil {
		return nil, err
	}
	return Number(float64(len(cells))), nil
}

func builtinIsEmpty(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("empty?", ArityOne, len(args))
	}
	cells, err := listArg("empty?", args, 0)
	if err != nil {
		return nil, err
	}
	return Bool(len(cells) == 0), nil
}

func builtinAppend(rt *Runtime, args []*Value) (*Value, error) {
	var cells []*Value
	for i := range args {
		part, err := listArg("append", args, i)
		if err != nil {
			return nil, err
		}
		cells = append(cells, part...)
	}
	return List(cells...), nil
}

func builtinReverse(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("reverse", ArityOne, len(args))
	}
	cells, err := listArg("reverse", args, 0)
	if err != nil {
		return nil, err
	}
	rev := make([]*Value, len(cells))
	for i, c := range cells {
		rev[len(cells)-1-i] = c
	}
	return List(rev...), nil
}

func builtinNth(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 2 {
		return nil, ArityErrorf("nth", ArityTwo, len(args))
	}
	cells, err := listArg("nth", args, 0)
	if err != nil {
		return nil, err
	}
	n, err := numArg("nth", args, 1)
	if err != nil {
		return nil, err
	}
	if n < 0 || n != float64(int(n)) || int(n) >= len(cells) {
		return nil, RuntimeErrorf("nth", "index %s out of range for list of length %d",
			FormatNumber(n), len(cells))
	}
	return cells[int(n)], nil
}

func builtinMapFn(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 2 {
		return nil, ArityErrorf("map", ArityTwo, len(args))
	}
	if !args[0].IsCallable() {
		return nil, TypeError("map", "function", args[0], 1)
	}
	cells, err := listArg("map", args, 1)
	if err != nil {
		return nil, err
	}
	out := make([]*Value, len(cells))
	for i, c := range cells {
		out[i], err = rt.Apply(args[0], []*Value{c})
		if err != nil {
			return nil, err
		}
	}
	return List(out...), nil
}

func builtinFilter(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 2 {
		return nil, ArityErrorf("filter", ArityTwo, len(args))
	}
	if !args[0].IsCallable() {
		return nil, TypeError("filter", "function", args[0], 1)
	}
	cells, err := listArg("filter", args, 1)
	if err != nil {
		return nil, err
	}
	var out []*Value
	for _, c := range cells {
		keep, err := rt.Apply(args[0], []*Value{c})
		if err != nil {
			return nil, err
		}
		if keep.IsTruthy() {
			out = append(out, c)
		}
	}
	return List(out...), nil
}

func builtinReduce(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 3 {
		return nil, ArityErrorf("reduce", ArityThree, len(args))
	}
	if !args[0].IsCallable() {
		return nil, TypeError("reduce", "function", args[0], 1)
	}
	cells, err := listArg("reduce", args, 2)
	if err != nil {
		return nil, err
	}
	acc := args[1]
	for _, c := range cells {
		acc, err = rt.Apply(args[0], []*Value{acc, c})
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func builtinListToString(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("list->string", ArityOne, len(args))
	}
	cells, err := listArg("list->string", args, 0)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for i, c := range cells {
		if c.Type != VString {
			return nil, TypeError("list->string", "string element", c, i+1)
		}
		b.WriteString(c.Str)
	}
	return String(b.String()), nil
}

func builtinStringToList(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("string->list", ArityOne, len(args))
	}
	s, err := strArg("string->list", args, 0)
	if err != nil {
		return nil, err
	}
	var cells []*Value
	for _, r := range s {
		cells = append(cells, String(string(r)))
	}
	return List(cells...), nil
}

func builtinStringAppend(rt *Runtime, args []*Value) (*Value, error) {
	var b strings.Builder
	for i := range args {
		s, err := strArg("string-append", args, i)
		if err != nil {
			return nil, err
		}
		b.WriteString(s)
	}
	return String(b.String()), nil
}

func stringBuiltin1(name string, fn func(string) *Value) BuiltinFun {
	return func(rt *Runtime, args []*Value) (*Value, error) {
		if len(args) != 1 {
			return nil, ArityErrorf(name, ArityOne, len(args))
		}
		s, err := strArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		return fn(s), nil
	}
}

func stringBuiltin2(name string, fn func(a, b string) *Value) BuiltinFun {
	return func(rt *Runtime, args []*Value) (*Value, error) {
		if len(args) != 2 {
			return nil, ArityErrorf(name, ArityTwo, len(args))
		}
		a, err := strArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := strArg(name, args, 1)
		if err != nil {
			return nil, err
		}
		return fn(a, b), nil
	}
}

var (
	builtinStringLength = stringBuiltin1("string-length", func(s string) *Value {
		return Number(float64(len([]rune(s))))
	})
	builtinStringUpper = stringBuiltin1("string-upper", func(s string) *Value {
		return String(strings.ToUpper(s))
	})
	builtinStringLower = stringBuiltin1("string-lower", func(s string) *Value {
		return String(strings.ToLower(s))
	})
	builtinStringTrim = stringBuiltin1("string-trim", func(s string) *Value {
		return String(strings.TrimSpace(s))
	})
	builtinStringEmpty = stringBuiltin1("string-empty?", func(s string) *Value {
		return Bool(s == "")
	})
	builtinStringContains = stringBuiltin2("string-contains?", func(s, sub string) *Value {
		return Bool(strings.Contains(s, sub))
	})
	builtinStringStartsWith = stringBuiltin2("string-starts-with?", func(s, prefix string) *Value {
		return Bool(strings.HasPrefix(s, prefix))
	})
	builtinStringEndsWith = stringBuiltin2("string-ends-with?", func(s, suffix string) *Value {
		return Bool(strings.HasSuffix(s, suffix))
	})
	builtinStringSplit = stringBuiltin2("string-split", func(s, delim string) *Value {
		parts := strings.Split(s, delim)
		cells := make([]*Value, len(parts))
		for i, p := range parts {
			cells[i] = String(p)
		}
		return List(cells...)
	})
)

func builtinStringJoin(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 2 {
		return nil, ArityErrorf("string-join", ArityTwo, len(args))
	}
	cells, err := listArg("string-join", args, 0)
	if err != nil {
		return nil, err
	}
	delim, err := strArg("string-join", args, 1)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(cells))
	for i, c := range cells {
		if c.Type != VString {
			return nil, TypeError("string-join", "string element", c, i+1)
		}
		parts[i] = c.Str
	}
	return String(strings.Join(parts, delim)), nil
}

func builtinStringReplace(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 3 {
		return nil, ArityErrorf("string-replace", ArityThree, len(args))
	}
	s, err := strArg("string-replace", args, 0)
	if err != nil {
		return nil, err
	}
	old, err := strArg("string-replace", args, 1)
	if err != nil {
		return nil, err
	}
	repl, err := strArg("string-replace", args, 2)
	if err != nil {
		return nil, err
	}
	return String(strings.ReplaceAll(s, old, repl)), nil
}

func builtinSubstring(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 3 {
		return nil, ArityErrorf("substring", ArityThree, len(args))
	}
	s, err := strArg("substring", args, 0)
	if err != nil {
		return nil, err
	}
	start, err := numArg("substring", args, 1)
	if err != nil {
		return nil, err
	}
	end, err := numArg("substring", args, 2)
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	if start < 0 || start != float64(int(start)) || end < 0 || end != float64(int(end)) {
		return nil, RuntimeErrorf("substring", "indices must be non-negative integers")
	}
	if int(start) > int(end) || int(end) > len(runes) {
		return nil, RuntimeErrorf("substring", "invalid range %s-%s for string of length %d",
			FormatNumber(start), FormatNumber(end), len(runes))
	}
	return String(string(runes[int(start):int(end)])), nil
}

func builtinMapNew(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 0 {
		return nil, ArityErrorf("map-new", "0", len(args))
	}
	return MapValue(nil), nil
}

func builtinMapGet(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 2 {
		return nil, ArityErrorf("map-get", ArityTwo, len(args))
	}
	m, err := mapArg("map-get", args, 0)
	if err != nil {
		return nil, err
	}
	k, err := keywordArg("map-get", args, 1)
	if err != nil {
		return nil, err
	}
	if v, ok := m[k]; ok {
		return v, nil
	}
	return Nil(), nil
}

func builtinMapSet(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 3 {
		return nil, ArityErrorf("map-set", ArityThree, len(args))
	}
	m, err := mapArg("map-set", args, 0)
	if err != nil {
		return nil, err
	}
	k, err := keywordArg("map-set", args, 1)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Value, len(m)+1)
	for key, v := range m {
		out[key] = v
	}
	out[k] = args[2]
	return MapValue(out), nil
}

func builtinMapRemove(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 2 {
		return nil, ArityErrorf("map-remove", ArityTwo, len(args))
	}
	m, err := mapArg("map-remove", args, 0)
	if err != nil {
		return nil, err
	}
	k, err := keywordArg("map-remove", args, 1)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Value, len(m))
	for key, v := range m {
		if key != k {
			out[key] = v
		}
	}
	return MapValue(out), nil
}

func builtinMapHas(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 2 {
		return nil, ArityErrorf("map-has?", ArityTwo, len(args))
	}
	m, err := mapArg("map-has?", args, 0)
	if err != nil {
		return nil, err
	}
	k, err := keywordArg("map-has?", args, 1)
	if err != nil {
		return nil, err
	}
	_, ok := m[k]
	return Bool(ok), nil
}

func sortedMapKeys(m map[string]*Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func builtinMapKeys(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("map-keys", ArityOne, len(args))
	}
	m, err := mapArg("map-keys", args, 0)
	if err != nil {
		return nil, err
	}
	var cells []*Value
	for _, k := range sortedMapKeys(m) {
		cells = append(cells, Keyword(k))
	}
	return List(cells...), nil
}

func builtinMapValues(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("map-values", ArityOne, len(args))
	}
	m, err := mapArg("map-values", args, 0)
	if err != nil {
		return nil, err
	}
	var cells []*Value
	for _, k := range sortedMapKeys(m) {
		cells = append(cells, m[k])
	}
	return List(cells...), nil
}

func builtinMapEntries(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("map-entries", ArityOne, len(args))
	}
	m, err := mapArg("map-entries", args, 0)
	if err != nil {
		return nil, err
	}
	var cells []*Value
	for _, k := range sortedMapKeys(m) {
		cells = append(cells, List(Keyword(k), m[k]))
	}
	return List(cells...), nil
}

func builtinMapSize(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("map-size", ArityOne, len(args))
	}
	m, err := mapArg("map-size", args, 0)
	if err != nil {
		return nil, err
	}
	return Number(float64(len(m))), nil
}

func builtinMapEmpty(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("map-empty?", ArityOne, len(args))
	}
	m, err := mapArg("map-empty?", args, 0)
	if err != nil {
		return nil, err
	}
	return Bool(len(m) == 0), nil
}

func builtinMapMerge(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 2 {
		return nil, ArityErrorf("map-merge", ArityTwo, len(args))
	}
	a, err := mapArg("map-merge", args, 0)
	if err != nil {
		return nil, err
	}
	b, err := mapArg("map-merge", args, 1)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Value, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return MapValue(out), nil
}

func writeValues(rt *Runtime, args []*Value, newline bool) {
	for i, arg := range args {
		if i > 0 {
			fmt.Fprint(rt.Stdout, " ")
		}
		fmt.Fprint(rt.Stdout, arg.DisplayString())
	}
	if newline {
		fmt.Fprintln(rt.Stdout)
	}
}

func builtinPrint(rt *Runtime, args []*Value) (*Value, error) {
	writeValues(rt, args, false)
	return Nil(), nil
}

func builtinPrintln(rt *Runtime, args []*Value) (*Value, error) {
	writeValues(rt, args, true)
	return Nil(), nil
}

func builtinError(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("error", ArityOne, len(args))
	}
	if args[0].Type == VString {
		return ErrValue(args[0].Str), nil
	}
	return ErrValue(args[0].String()), nil
}

func builtinErrorMsg(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("error-msg", ArityOne, len(args))
	}
	if args[0].Type != VError {
		return nil, TypeError("error-msg", "error", args[0], 1)
	}
	return String(args[0].Str), nil
}
