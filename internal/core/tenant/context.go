// Package tenant carries the resolved tenant identity through the request.
//
// Every store operation requires a tenant; the identity is threaded as an
// explicit context value set once per request by the auth middleware,
// never read from a hidden global.
package tenant

import (
	"context"

	"stockbook/internal/core/apperror"
)

type ctxKey struct{}

// WithID stores the authenticated tenant id in context.
func WithID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, tenantID)
}

// ID returns the tenant id from context, or "" when unresolved.
func ID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}

// RequireID returns the tenant id or an Unauthenticated error.
// Callers must check this before any store access.
func RequireID(ctx context.Context) (string, error) {
	tid := ID(ctx)
	if tid == "" {
		return "", apperror.NewUnauthenticated("no tenant identity resolved")
	}
	return tid, nil
}
