package api

import (
	"context"
	"errors"
)

// claimsContextKey is the context key for the verified caller.
type claimsContextKey struct{}

// ErrNoClaimsInContext indicates the auth middleware did not run.
var ErrNoClaimsInContext = errors.New("no claims in context")

// WithClaims returns a new context with the caller's claims attached.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, c)
}

// ClaimsFromContext extracts the caller's claims.
// Returns ErrNoClaimsInContext if not present or nil.
func ClaimsFromContext(ctx context.Context) (*Claims, error) {
	c, ok := ctx.Value(claimsContextKey{}).(*Claims)
	if !ok || c == nil {
		return nil, ErrNoClaimsInContext
	}
	return c, nil
}
