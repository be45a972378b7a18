package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// OperationMeta describes one API operation for telemetry purposes.
type OperationMeta struct {
	Resource string // API resource, e.g. "evaluators" (required)
	Action   string // Operation on the resource, e.g. "execute"
	Method   string // HTTP method (optional)
	Path     string // Request path without query (optional)
}

// SpanName returns the deterministic span name for this operation.
// Format: scorable.<resource>.<action> or scorable.<resource>
func (m OperationMeta) SpanName() string {
	if m.Action != "" {
		return "scorable." + m.Resource + "." + m.Action
	}
	return "scorable." + m.Resource
}

// OperationID returns "<resource>.<action>", or the resource alone.
func (m OperationMeta) OperationID() string {
	if m.Action != "" {
		return m.Resource + "." + m.Action
	}
	return m.Resource
}

// fields returns the log fields describing the operation.
func (m OperationMeta) fields() []Field {
	fields := []Field{
		String("scorable.operation", m.OperationID()),
		String("scorable.resource", m.Resource),
	}
	if m.Method != "" {
		fields = append(fields, String("http.request.method", m.Method))
	}
	if m.Path != "" {
		fields = append(fields, String("url.path", m.Path))
	}
	return fields
}

// Validate reports a missing resource.
func (m OperationMeta) Validate() error {
	if m.Resource == "" {
		return ErrMissingResource
	}
	return nil
}

// Tracer wraps OpenTelemetry tracing with per-operation span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for an API operation.
	StartSpan(ctx context.Context, meta OperationMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a client span with operation metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta OperationMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("scorable.operation", meta.OperationID()),
		attribute.String("scorable.resource", meta.Resource),
		attribute.Bool("scorable.error", false), // Updated in EndSpan
	}

	if meta.Method != "" {
		attrs = append(attrs, attribute.String("http.request.method", meta.Method))
	}
	if meta.Path != "" {
		attrs = append(attrs, attribute.String("url.path", meta.Path))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("scorable.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta OperationMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
