package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// IntegrationMeta identifies one outbound dependency operation.
type IntegrationMeta struct {
	Name      string // Integration name as registered with the health registry (required)
	Kind      string // Integration kind, e.g. database or api (optional)
	Operation string // Operation performed, e.g. insert or get (optional)
}

// SpanName returns the deterministic span name for this operation.
// Format: integration.<kind>.<name>.<operation>, with empty kind and
// operation segments omitted.
func (m IntegrationMeta) SpanName() string {
	name := "integration."
	if m.Kind != "" {
		name += m.Kind + "."
	}
	name += m.Name
	if m.Operation != "" {
		name += "." + m.Operation
	}
	return name
}

func (m IntegrationMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("integration.name", m.Name),
	}
	if m.Kind != "" {
		attrs = append(attrs, attribute.String("integration.kind", m.Kind))
	}
	if m.Operation != "" {
		attrs = append(attrs, attribute.String("integration.operation", m.Operation))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with integration span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a client span for an integration operation.
	StartSpan(ctx context.Context, meta IntegrationMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta IntegrationMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("integration.error", false))

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("integration.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta IntegrationMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ error) {
	span.End()
}
