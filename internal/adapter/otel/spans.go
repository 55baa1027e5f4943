package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "overseer"

// StartBatchSpan starts a span covering one model turn's batch of calls.
func StartBatchSpan(ctx context.Context, batchID string, size int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "batch",
		trace.WithAttributes(
			attribute.String("batch.id", batchID),
			attribute.Int("batch.size", size),
		),
	)
}

// StartToolCallSpan starts a span for a single tool call execution.
func StartToolCallSpan(ctx context.Context, callID, toolName string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "toolcall",
		trace.WithAttributes(
			attribute.String("toolcall.id", callID),
			attribute.String("toolcall.tool", toolName),
		),
	)
}

// StartConfirmationSpan starts a span covering a confirmation wait.
func StartConfirmationSpan(ctx context.Context, callID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "confirmation",
		trace.WithAttributes(
			attribute.String("toolcall.id", callID),
		),
	)
}

// StartDelegationSpan starts a span for a nested sub-agent run.
func StartDelegationSpan(ctx context.Context, agentName, kind string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "delegation",
		trace.WithAttributes(
			attribute.String("agent.name", agentName),
			attribute.String("agent.kind", kind),
		),
	)
}
