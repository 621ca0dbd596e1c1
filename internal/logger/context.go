package logger

import "context"

type contextKey string

const TraceIDKey contextKey = "trace_id"
const PrincipalIDKey contextKey = "principal_id"

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TraceIDKey, id)
}

func GetTraceID(ctx context.Context) string {
	if id, ok := ctx.Value(TraceIDKey).(string); ok {
		return id
	}
	return ""
}

func WithPrincipalID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, PrincipalIDKey, id)
}

func GetPrincipalID(ctx context.Context) string {
	if id, ok := ctx.Value(PrincipalIDKey).(string); ok {
		return id
	}
	return ""
}
