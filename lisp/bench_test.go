// Copyright © 2025 The cinder authors

package lisp_test

import (
	"testing"

	"github.com/cinderlisp/cinder/lisptest"
)

func BenchmarkFib(b *testing.B) {
	lisptest.RunBenchmark(b, `
(define (fib n)
  (if (< n 2)
      n
      (+ (fib (- n 1)) (fib (- n 2)))))
(fib 15)
`)
}

func BenchmarkTailLoop(b *testing.B) {
	lisptest.RunBenchmark(b, `
(define (sum-to n acc)
  (if (= n 0) acc (sum-to (- n 1) (+ acc n))))
(sum-to 10000 0)
`)
}

func BenchmarkMapFilter(b *testing.B) {
	lisptest.RunBenchmark(b, `
(define (range n acc)
  (if (= n 0) acc (range (- n 1) (cons n acc))))
(reduce + 0 (filter (lambda (x) (> x 50)) (map (lambda (x) (* x 2)) (range 100 nil))))
`)
}
