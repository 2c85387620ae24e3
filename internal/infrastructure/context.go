package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

// GenerateTraceID creates a new unique trace ID using UUID v4
func GenerateTraceID() string {
	return uuid.New().String()
}

// ContextWithTraceID returns ctx carrying a trace ID, unless it already has
// one. The active OpenTelemetry trace ID is reused when there is one.
func ContextWithTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		return WithTraceID(ctx, traceID)
	}
	return WithTraceID(ctx, GenerateTraceID())
}
