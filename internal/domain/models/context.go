package models

import "context"

type claimsCtxKey struct{}

// WithClaims stores the authenticated token claims in ctx.
func WithClaims(ctx context.Context, c *CustomClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, c)
}

// ClaimsFromContext returns the claims of the authenticated caller, or nil.
func ClaimsFromContext(ctx context.Context) *CustomClaims {
	c, _ := ctx.Value(claimsCtxKey{}).(*CustomClaims)
	return c
}
