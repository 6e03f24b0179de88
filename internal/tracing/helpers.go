// Package tracing provides OpenTelemetry distributed tracing setup and utilities.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope for spans started by this package.
const tracerName = "vidrank"

// ProviderOperation names an upstream video platform call.
type ProviderOperation string

const (
	// ProviderOperationSearch is a keyword search returning candidates.
	ProviderOperationSearch ProviderOperation = "search"
	// ProviderOperationStatistics is a batched statistics lookup.
	ProviderOperationStatistics ProviderOperation = "statistics"
)

// StartProviderSpan creates a client span around an upstream provider call.
// Returns the new context and a function to end the span.
//
// Example usage:
//
//	ctx, endSpan := tracing.StartProviderSpan(ctx, tracing.ProviderOperationSearch, keyword)
//	candidates, err := provider.Search(ctx, query)
//	endSpan(err)
func StartProviderSpan(ctx context.Context, op ProviderOperation, keyword string) (context.Context, func(error)) {
	tracer := otel.Tracer(tracerName + "/provider")

	ctx, span := tracer.Start(ctx, "provider "+string(op),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("provider.system", "youtube"),
			attribute.String("provider.operation", string(op)),
		),
	)

	if keyword != "" {
		span.SetAttributes(attribute.String("discovery.keyword", keyword))
	}

	return ctx, endFunc(span)
}

// StartSpan creates a new span for a general operation.
// Returns the new context and a function to end the span.
//
// Example usage:
//
//	ctx, endSpan := tracing.StartSpan(ctx, "aggregate_trending")
//	defer endSpan(err)
func StartSpan(ctx context.Context, name string) (context.Context, func(error)) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	return ctx, endFunc(span)
}

func endFunc(span trace.Span) func(error) {
	return func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// SetAttributes sets attributes on the current span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
