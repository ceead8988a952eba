package auth

import (
	"context"

	"github.com/Dan9191/bank-cards/internal/models"
)

// Principal is the resolved identity acting on a request
type Principal struct {
	UserID   int64
	Username string
	Role     models.Role
}

// IsAdmin reports whether p holds the ADMIN role
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == models.RoleAdmin
}

// Owns reports whether p is the owner with the given id
func (p *Principal) Owns(ownerID int64) bool {
	return p != nil && p.UserID == ownerID
}

type principalKey struct{}

// WithPrincipal attaches p to ctx. A principal already present is kept.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	if _, ok := PrincipalFromContext(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal attached to ctx, if any
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
