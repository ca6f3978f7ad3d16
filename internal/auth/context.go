// Package auth provides session token verification, invitation tokens
// and credential hashing.
package auth

import (
	"context"

	"github.com/guardian/guardian/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const callerContextKey contextKey = "caller"

// ContextWithCaller adds the verified caller to the context.
func ContextWithCaller(ctx context.Context, caller *model.Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

// CallerFromContext retrieves the caller from the context.
// Returns nil if the request was not authenticated.
func CallerFromContext(ctx context.Context) *model.Caller {
	caller, ok := ctx.Value(callerContextKey).(*model.Caller)
	if !ok {
		return nil
	}
	return caller
}

// UserIDFromContext returns the caller's account id, or "" if unauthenticated.
func UserIDFromContext(ctx context.Context) string {
	caller := CallerFromContext(ctx)
	if caller == nil {
		return ""
	}
	return caller.UserID
}
