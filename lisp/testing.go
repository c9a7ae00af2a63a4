// Copyright © 2025 The cinder authors

package lisp

import "fmt"

// testRegistry holds tests registered from lisp source with
// register-test.  Each Runtime owns one, so spawned threads do not see
// or disturb the parent's tests.
type testRegistry struct {
	tests []registeredTest
}

type registeredTest struct {
	name string
	fn   *Value
}

func newTestRegistry() *testRegistry { return &testRegistry{} }

var testingBuiltins = []*langBuiltin{
	{"assert", "(assert condition [message])",
		"Return #t when condition is #t, otherwise an error value carrying message.",
		builtinAssert},
	{"assert-equal", "(assert-equal actual expected [message])",
		"Return #t when actual and expected are deeply equal, otherwise an error value describing the mismatch.",
		builtinAssertEqual},
	{"assert-error", "(assert-error value [message])",
		"Return #t when value is an error value, otherwise an error value carrying message.",
		builtinAssertError},
	{"register-test", "(register-test name function)",
		"Register a named zero-parameter lambda to be run by run-all-tests.",
		builtinRegisterTest},
	{"run-all-tests", "(run-all-tests)",
		"Run every registered test. Returns {:passed n :failed n :total n :tests (...)} with one result map per test.",
		builtinRunAllTests},
	{"clear-tests", "(clear-tests)",
		"Remove every registered test.",
		builtinClearTests},
}

func assertMessage(args []*Value, i int, fallback string) string {
	if len(args) <= i {
		return fallback
	}
	if args[i].Type == VString {
		return args[i].Str
	}
	return args[i].String()
}

func builtinAssert(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, ArityErrorf("assert", ArityOneOrTwo, len(args))
	}
	msg := assertMessage(args, 1, "Assertion failed")
	switch {
	case args[0].Type == VBool && args[0].Bool():
		return Bool(true), nil
	case args[0].Type == VBool || args[0].Type == VNil:
		return ErrValue(msg), nil
	}
	return ErrValue(fmt.Sprintf("%s: expected boolean, got %s", msg, args[0])), nil
}

func builtinAssertEqual(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, ArityErrorf("assert-equal", ArityTwoOrThree, len(args))
	}
	msg := assertMessage(args, 2, "Values not equal")
	if args[0].Equal(args[1]) {
		return Bool(true), nil
	}
	return ErrValue(fmt.Sprintf("%s\n  Expected: %s\n  Actual:   %s",
		msg, args[1], args[0])), nil
}

func builtinAssertError(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, ArityErrorf("assert-error", ArityOneOrTwo, len(args))
	}
	msg := assertMessage(args, 1, "Expected error value")
	if args[0].Type == VError {
		return Bool(true), nil
	}
	return ErrValue(fmt.Sprintf("%s: got %s", msg, args[0])), nil
}

func builtinRegisterTest(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 2 {
		return nil, ArityErrorf("register-test", ArityTwo, len(args))
	}
	name, err := strArg("register-test", args, 0)
	if err != nil {
		return nil, err
	}
	if args[1].Type != VLambda {
		return nil, RuntimeErrorf("register-test", "Test must be a lambda")
	}
	rt.tests.tests = append(rt.tests.tests, registeredTest{name: name, fn: args[1]})
	return Bool(true), nil
}

func builtinRunAllTests(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 0 {
		return nil, ArityErrorf("run-all-tests", "0", len(args))
	}
	passed, failed := 0, 0
	var results []*Value
	for _, test := range rt.tests.tests {
		status, message := "passed", ""
		v, err := rt.Apply(test.fn, nil)
		switch {
		case err != nil:
			status, message = "error", err.Error()
			failed++
		case v.Type == VError:
			status, message = "failed", v.Str
			failed++
		default:
			passed++
		}
		results = append(results, MapValue(map[string]*Value{
			"name":    String(test.name),
			"status":  Symbol(status),
			"message": String(message),
		}))
	}
	return MapValue(map[string]*Value{
		"passed": Number(float64(passed)),
		"failed": Number(float64(failed)),
		"total":  Number(float64(passed + failed)),
		"tests":  List(results...),
	}), nil
}

func builtinClearTests(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 0 {
		return nil, ArityErrorf("clear-tests", "0", len(args))
	}
	rt.tests.tests = nil
	return Bool(true), nil
}
