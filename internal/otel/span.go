// Package otel provides OpenTelemetry span helpers used by the sync agent.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by every span the agent creates
const (
	AttrCompetitionID = attribute.Key("competition.id")
	AttrFileName      = attribute.Key("file.name")
	AttrRecordCount   = attribute.Key("result.count")
	AttrEventCount    = attribute.Key("startlist.event_count")
	AttrSessionID     = attribute.Key("session.id")
	AttrErrorKind     = attribute.Key("error.kind")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns a no-op span.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks the span as failed.
// The status description stays generic; API keys can appear in request errors.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
