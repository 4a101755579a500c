package auth

import (
	"context"

	"github.com/zatekoja/servicehub/internal/domain/entities"
)

type claimsKey struct{}

// WithClaims attaches verified claims to ctx
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the verified claims for the request, if any
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// Principal returns the identity the claims were issued for
func (c *Claims) Principal() entities.Principal {
	return entities.Principal{ID: c.UserID, Email: c.Email, Role: c.Role}
}
