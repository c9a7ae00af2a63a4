package profiler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/cinderlisp/cinder/lisp"
	"github.com/cinderlisp/cinder/lisp/profiler"
	"github.com/cinderlisp/cinder/parser"
)

func setupExporter(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(
		trace.WithSyncer(exporter),
		trace.WithSampler(trace.AlwaysSample()),
	)
	t.Cleanup(func() {
		err := tp.Shutdown(context.Background())
		assert.NoError(t, err, "TracerProvider shutdown")
	})
	otel.SetTracerProvider(tp)
	return exporter
}

func evalSource(t *testing.T, rt *lisp.Runtime, src string) (*lisp.Value, error) {
	t.Helper()
	vals, err := parser.Parse("test.cin", []byte(src))
	require.NoError(t, err)
	var last *lisp.Value
	for _, v := range vals {
		last, err = rt.Eval(v, nil)
		if err != nil {
			return nil, err
		}
	}
	return last, nil
}

func TestNewOpenTelemetryAnnotator(t *testing.T) {
	exporter := setupExporter(t)

	rt := lisp.NewRuntime(lisp.WithProfiler(
		profiler.NewOpenTelemetryAnnotator(context.Background())))
	v, err := evalSource(t, rt, `
(define (add a b) (+ a b))
(add 1 2)
`)
	require.NoError(t, err)
	assert.Equal(t, "3", v.String())

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "add", spans[0].Name)
	assert.Equal(t, "+", spans[1].Name)
}

func TestAnnotatorRecordsErrors(t *testing.T) {
	exporter := setupExporter(t)

	rt := lisp.NewRuntime(lisp.WithProfiler(
		profiler.NewOpenTelemetryAnnotator(context.Background())))
	_, err := evalSource(t, rt, "(/ 1 0)")
	require.EqualError(t, err, "/: Division by zero")

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "/", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "/: Division by zero", spans[0].Status.Description)
}

func TestAnnotatorSkipFunctions(t *testing.T) {
	exporter := setupExporter(t)

	rt := lisp.NewRuntime(lisp.WithProfiler(
		profiler.NewOpenTelemetryAnnotator(context.Background(),
			profiler.WithSkipFunctions("+", "-"))))
	_, err := evalSource(t, rt, `
(define (add a b) (+ a b))
(add 1 2)
`)
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "add", spans[0].Name)
}

func TestAnnotatorTracerName(t *testing.T) {
	exporter := setupExporter(t)

	rt := lisp.NewRuntime(lisp.WithProfiler(
		profiler.NewOpenTelemetryAnnotator(context.Background(),
			profiler.WithTracerName("scripts"))))
	_, err := evalSource(t, rt, "(+ 1 1)")
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "scripts", spans[0].InstrumentationLibrary.Name)
}
