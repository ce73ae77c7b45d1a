package logging

import "context"

type ctxKey struct{}

// RequestIDKey is the attribute name under which loggers emit the request id.
const RequestIDKey = "request_id"

// ContextWithRequestID returns a copy of ctx carrying id. Every Logger call
// made with the returned context includes it as request_id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestIDFromContext returns the id stored by ContextWithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func withContextArgs(ctx context.Context, args []any) []any {
	if id := RequestIDFromContext(ctx); id != "" {
		return append(args, RequestIDKey, id)
	}
	return args
}
