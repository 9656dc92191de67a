package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartModuleSpan starts an internal span named module.<module>.<operation>
// on the global tracer.
func StartModuleSpan(ctx context.Context, module, operation string) (context.Context, trace.Span) {
	return otel.Tracer(serviceName).Start(ctx, "module."+module+"."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("module.name", module),
			attribute.String("module.operation", operation),
		),
	)
}

// RecordError attaches err to span and marks the span failed.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func SetSpanStatus(span trace.Span, success bool, message string) {
	if span == nil {
		return
	}
	code := codes.Error
	if success {
		code = codes.Ok
	}
	span.SetStatus(code, message)
}

func AddSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span != nil {
		span.SetAttributes(attrs...)
	}
}
