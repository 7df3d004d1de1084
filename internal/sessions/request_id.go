package sessions

import "context"

type requestIDKey struct{}

// WithRequestID returns a context carrying the given request id for
// correlation in logs. Empty ids leave the context untouched.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// backgroundWithRequestID copies the request id onto a fresh background
// context so async work keeps its correlation id after the request
// context is canceled.
func backgroundWithRequestID(ctx context.Context) context.Context {
	return WithRequestID(context.Background(), requestIDFromContext(ctx))
}
