package toolcall

import "context"

type ctxKey struct{}

// ContextWithID tags a context with the ID of the call being executed,
// so nested work (sub-agent loops, tool-internal prompts) can correlate
// its own traffic back to the originating call.
func ContextWithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IDFromContext returns the executing call's ID, if any.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok
}
