// Copyright © 2025 The cinder authors

package lisp_test

import (
	"testing"

	"github.com/cinderlisp/cinder/lisptest"
)

func TestEval(t *testing.T) {
	tests := lisptest.TestSuite{
		{"self-evaluating", lisptest.TestSequence{
			{"42", "42", ""},
			{"-3.5", "-3.5", ""},
			{"#t", "#t", ""},
			{"#f", "#f", ""},
			{`"hello"`, `"hello"`, ""},
			{":name", ":name", ""},
			{"nil", "nil", ""},
			{"()", "nil", ""},
		}},
		{"define", lisptest.TestSequence{
			{"(define x 42)", "x", ""},
			{"x", "42", ""},
			{"(define x 43)", "x", ""},
			{"x", "43", ""},
			{"(define (square n) (* n n))", "square", ""},
			{"(square 5)", "25", ""},
			{"(define (add a b) (+ a b))", "add", ""},
			{"(add 2 3)", "5", ""},
		}},
		{"redefinition reaches earlier closures", lisptest.TestSequence{
			{"(define base 1)", "base", ""},
			{"(define (get-base) base)", "get-base", ""},
			{"(define base 2)", "base", ""},
			{"(get-base)", "2", ""},
			{"(define (helper) 1)", "helper", ""},
			{"(define (caller) (helper))", "caller", ""},
			{"(define (helper) 99)", "helper", ""},
			{"(caller)", "99", ""},
		}},
		{"define is always global", lisptest.TestSequence{
			{"(let ((y 1)) (define from-let (+ y 1)))", "from-let", ""},
			{"from-let", "2", ""},
			{"(begin (define from-begin 10) (+ from-begin 1))", "11", ""},
		}},
		{"lambda and closures", lisptest.TestSequence{
			{"((lambda (x) (* x 2)) 21)", "42", ""},
			{"(define (make-adder n) (lambda (x) (+ x n)))", "make-adder", ""},
			{"(define add5 (make-adder 5))", "add5", ""},
			{"(add5 37)", "42", ""},
			{"(add5 0)", "5", ""},
			{"(((lambda (x) (lambda () (+ x 2))) 3))", "5", ""},
		}},
		{"let", lisptest.TestSequence{
			{"(let ((x 1)) x)", "1", ""},
			{"(define x 10)", "x", ""},
			{"(let ((x 2)) x)", "2", ""},
			{"x", "10", ""},
			{"(let ((a 1) (b (+ a 1))) (+ a b))", "3", ""},
			{"(let ((a 1)) (let ((a 2) (b a)) b))", "2", ""},
			{"(let ((a 1) (b 2)) (+ a b) (* a b))", "2", ""},
		}},
		{"if", lisptest.TestSequence{
			{"(if #t 1 2)", "1", ""},
			{"(if #f 1 2)", "2", ""},
			{"(if #f 1)", "nil", ""},
			{"(if #t (+ 1 2) (/ 1 0))", "3", ""},
			{"(if 0 \"yes\" \"no\")", `"yes"`, ""},
			{"(if \"\" \"yes\" \"no\")", `"yes"`, ""},
			{"(if nil \"yes\" \"no\")", `"no"`, ""},
		}},
		{"begin", lisptest.TestSequence{
			{"(begin 1 2 3)", "3", ""},
			{"(begin)", "nil", ""},
			{"(begin (define b1 1) (define b2 2) (+ b1 b2))", "3", ""},
		}},
		{"quote", lisptest.TestSequence{
			{"(quote foo)", "foo", ""},
			{"'foo", "foo", ""},
			{"'(1 2 3)", "(1 2 3)", ""},
			{"'(a (b c))", "(a (b c))", ""},
		}},
		{"tail recursion", lisptest.TestSequence{
			{"(define (sum-to n acc) (if (= n 0) acc (sum-to (- n 1) (+ acc n))))", "sum-to", ""},
			{"(sum-to 10000 0)", "50005000", ""},
			{"(define (countdown n) (if (= n 0) 'done (countdown (- n 1))))", "countdown", ""},
			{"(countdown 100000)", "done", ""},
		}},
		{"evaluation errors", lisptest.TestSequence{
			{"no-such-symbol", "Undefined symbol: no-such-symbol", ""},
			{"(1 2)", "Value is not callable", ""},
			{`(+ 1 "a")`, "+: expected number, got string at argument 2", ""},
			{"(not 5)", "not: expected bool, got number at argument 1", ""},
			{"(car 1 2)", "car: expected 1 argument, got 2", ""},
			{"(cons 1)", "cons: expected 2 arguments, got 1", ""},
			{"((lambda (x) x))", "#<lambda>: expected 1 argument, got 0", ""},
			{"(define (two a b) a)", "two", ""},
			{"(two 1 2 3)", "two: expected 2 arguments, got 3", ""},
			{"(/ 1 0)", "/: Division by zero", ""},
			{"(car '())", "car: car of empty list", ""},
		}},
	}
	lisptest.RunTestSuite(t, tests)
}

func TestQuasiquote(t *testing.T) {
	tests := lisptest.TestSuite{
		{"plain templates", lisptest.TestSequence{
			{"`(1 2 3)", "(1 2 3)", ""},
			{"`()", "nil", ""},
			{"`foo", "foo", ""},
			{"`(a (b c))", "(a (b c))", ""},
		}},
		{"unquote", lisptest.TestSequence{
			{"`(1 ,(+ 2 3) 3)", "(1 5 3)", ""},
			{"(define x 7)", "x", ""},
			{"`(a ,x b)", "(a 7 b)", ""},
			{"`(a (b ,x))", "(a (b 7))", ""},
		}},
		{"unquote-splicing", lisptest.TestSequence{
			{"`(1 ,@(list 2 3) 4)", "(1 2 3 4)", ""},
			{"`(,@(list 1 2) ,@(list 3 4))", "(1 2 3 4)", ""},
			{"`(a ,@'() b)", "(a b)", ""},
			{"`(,@(list))", "()", ""},
			{"`(1 ,@2)", "unquote-splicing: requires a list", ""},
		}},
		{"nested quasiquote", lisptest.TestSequence{
			// An inner quasiquote protects its unquotes for a later
			// expansion pass.
			{"``(,(+ 1 2))", "(quasiquote ((unquote (+ 1 2))))", ""},
			{"`(quasiquote (unquote (+ 1 2)))", "(quasiquote (unquote (+ 1 2)))", ""},
		}},
	}
	lisptest.RunTestSuite(t, tests)
}

func TestMacros(t *testing.T) {
	tests := lisptest.TestSuite{
		{"defmacro", lisptest.TestSequence{
			{"(defmacro square-of (x) `(* ,x ,x))", "square-of", ""},
			{"(square-of 5)", "25", ""},
			{"(square-of (+ 1 2))", "9", ""},
			{"(defmacro unless (c body) `(if ,c nil ,body))", "unless", ""},
			{"(unless #f 42)", "42", ""},
			{"(unless #t 42)", "nil", ""},
		}},
		{"macro arguments are unevaluated", lisptest.TestSequence{
			{"(defmacro ignore-it (x) ''ignored)", "ignore-it", ""},
			{"(ignore-it (/ 1 0))", "ignored", ""},
		}},
		{"macros expand to macros", lisptest.TestSequence{
			{"(defmacro m-add (a b) `(+ ,a ,b))", "m-add", ""},
			{"(defmacro m-twice (x) `(m-add ,x ,x))", "m-twice", ""},
			{"(m-twice 21)", "42", ""},
		}},
		{"multi-expression body", lisptest.TestSequence{
			{"(defmacro noisy (x) (println \"expanding\") `(+ ,x 1))", "noisy", ""},
			{"(noisy 1)", "2", "expanding\n"},
		}},
		{"macro arity", lisptest.TestSequence{
			{"(defmacro one-arg (x) `(+ ,x 1))", "one-arg", ""},
			{"(one-arg 1 2)", "one-arg: expected 1 argument, got 2", ""},
		}},
	}
	lisptest.RunTestSuite(t, tests)
}

func TestConcurrency(t *testing.T) {
	tests := lisptest.TestSuite{
		{"channels", lisptest.TestSequence{
			{"(define ch (make-channel))", "ch", ""},
			{"(channel? ch)", "#t", ""},
			{"(channel? 1)", "#f", ""},
			{"(channel-send ch 1)", "1", ""},
			{"(channel-send ch 2)", "2", ""},
			{"(channel-recv ch)", "1", ""},
			{"(channel-recv ch)", "2", ""},
			{"(channel-close ch)", "nil", ""},
			{"(define bounded (make-channel 2))", "bounded", ""},
			{"(channel-send bounded \"a\")", `"a"`, ""},
			{"(channel-recv bounded)", `"a"`, ""},
			{"(channel-send bounded '(1 (2 3)))", "(1 (2 3))", ""},
			{"(channel-recv bounded)", "(1 (2 3))", ""},
			{"(channel-send bounded {:id 7 :tags '(\"x\")})", `{:id 7 :tags ("x")}`, ""},
			{"(channel-recv bounded)", `{:id 7 :tags ("x")}`, ""},
			{"(make-channel -1)", "make-channel: capacity must be a non-negative integer", ""},
			{"(make-channel 1.5)", "make-channel: capacity must be a non-negative integer", ""},
		}},
		{"spawn", lisptest.TestSequence{
			{"(channel-recv (spawn (lambda () (+ 1 2 3))))", "6", ""},
			{"(error? (channel-recv (spawn (lambda () (/ 1 0)))))", "#t", ""},
			{"(spawn (lambda (x) x))", "spawn: function must take zero parameters", ""},
			{"(spawn 1)", "spawn: expected lambda, got number at argument 1", ""},
		}},
		{"spawn sees a snapshot of globals", lisptest.TestSequence{
			{"(define base 40)", "base", ""},
			{"(channel-recv (spawn (lambda () (+ base 2))))", "42", ""},
		}},
		{"spawn-link", lisptest.TestSequence{
			{"(map-get (channel-recv (spawn-link (lambda () 42))) :ok)", "42", ""},
			{"(map-get (channel-recv (spawn-link (lambda () (/ 1 0)))) :error)", `"/: Division by zero"`, ""},
		}},
		{"worker pipeline", lisptest.TestSequence{
			{"(define jobs (make-channel))", "jobs", ""},
			{"(channel-send jobs 3)", "3", ""},
			{"(channel-send jobs 4)", "4", ""},
			{"(define (worker) (+ (channel-recv jobs) (channel-recv jobs)))", "worker", ""},
			{"(channel-recv (spawn worker))", "7", ""},
		}},
	}
	lisptest.RunTestSuite(t, tests)
}
