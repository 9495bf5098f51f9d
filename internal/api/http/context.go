package http

import (
	"context"

	"landrent-backend/internal/domain"
)

type contextKey int

const callerKey contextKey = iota

func withCaller(ctx context.Context, caller domain.Address) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromContext returns the authenticated address the auth middleware
// attached to the request.
func CallerFromContext(ctx context.Context) (domain.Address, bool) {
	caller, ok := ctx.Value(callerKey).(domain.Address)
	return caller, ok && !caller.IsZero()
}
