// Package profiler annotates evaluation with opentelemetry spans.
package profiler

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/cinderlisp/cinder/lisp"
)

const defaultTracerName = "cinder"

var _ lisp.Profiler = &otelAnnotator{}

type otelAnnotator struct {
	currentContext context.Context
	tracerName     string
	skip           map[string]bool
}

type Option func(*otelAnnotator)

// WithTracerName overrides the tracer name used when starting spans.
func WithTracerName(name string) Option {
	return func(p *otelAnnotator) {
		p.tracerName = name
	}
}

// WithSkipFunctions suppresses spans for the named functions.
func WithSkipFunctions(names ...string) Option {
	return func(p *otelAnnotator) {
		for _, name := range names {
			p.skip[name] = true
		}
	}
}

// NewOpenTelemetryAnnotator returns a profiler that opens a span for
// every function application.  Spans nest under parentContext.  The
// annotator is not safe for concurrent use so attach it to a single
// runtime and leave spawned runtimes unprofiled.
func NewOpenTelemetryAnnotator(parentContext context.Context, opts ...Option) lisp.Profiler {
	p := &otelAnnotator{
		currentContext: parentContext,
		tracerName:     defaultTracerName,
		skip:           make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.currentContext == nil {
		p.currentContext = context.Background()
	}
	return p
}

func (p *otelAnnotator) tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(p.tracerName)
}

func (p *otelAnnotator) Enter(name string) func(err error) {
	if p.skip[name] {
		return func(error) {}
	}
	oldContext := p.currentContext
	ctx, span := p.tracer().Start(p.currentContext, name)
	span.SetAttributes(semconv.CodeFunction(name))
	p.currentContext = ctx
	return func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		p.currentContext = oldContext
	}
}
