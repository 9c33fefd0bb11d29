package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartCommandSpan creates a span for a CLI command execution.
//
//	ctx, span := telemetry.StartCommandSpan(ctx, "schedule")
//	defer span.End()
func StartCommandSpan(ctx context.Context, cmdName string) (context.Context, trace.Span) {
	ctx, span := GetTracerProvider().Tracer("commands").Start(ctx, "command."+cmdName)
	span.SetAttributes(
		attribute.String("command", cmdName),
		attribute.String("component", "cli"),
	)
	return ctx, span
}

// StartScheduleSpan creates a span around a scheduling operation
// (schedule, waves, timeline, graph) for one project.
func StartScheduleSpan(ctx context.Context, operation string, projectID int64) (context.Context, trace.Span) {
	ctx, span := GetTracerProvider().Tracer("schedule").Start(ctx, "schedule."+operation)
	span.SetAttributes(
		attribute.String("operation", operation),
		attribute.Int64("project_id", projectID),
		attribute.String("component", "schedule"),
	)
	return ctx, span
}

// StartHTTPSpan creates a server span for an incoming request.
func StartHTTPSpan(ctx context.Context, method, route string) (context.Context, trace.Span) {
	ctx, span := GetTracerProvider().Tracer("http").Start(ctx, method+" "+route,
		trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
	)
	return ctx, span
}

// RecordSuccess marks a span as successful with optional result attributes.
func RecordSuccess(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Ok, "")
}

// RecordError records an error in a span and sets error status.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.Bool("error", true))
}
