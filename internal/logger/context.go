package logger

import "context"

type requestIDKey struct{}

// WithRequestID stamps a correlation ID onto the context. The HTTP
// middleware sets it once per request; the request logger reads it back
// so every log line of one request shares the same ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation ID stamped on the context, or the
// empty string when none was set.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
