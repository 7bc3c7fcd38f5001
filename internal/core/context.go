package core

import "context"

type contextKey string

const ctxKeyOrigin contextKey = "run_origin"

// Origin describes who asked for a validation run. It is attached to run logs
// only and never affects results.
type Origin struct {
	Channel   string // "http", "cli"
	Address   string // client address for http
	UserAgent string
}

// ContextWithOrigin attaches the run origin to ctx.
func ContextWithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, ctxKeyOrigin, o)
}

// OriginFromContext returns the origin stored in ctx, if any.
func OriginFromContext(ctx context.Context) (Origin, bool) {
	o, ok := ctx.Value(ctxKeyOrigin).(Origin)
	return o, ok
}
