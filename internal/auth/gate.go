package auth

import (
	"github.com/Dan9191/bank-cards/internal/models"
)

// Permission classifies what an operation requires of its caller
type Permission int

const (
	Public Permission = iota
	AdminOnly
	// AdminOrOwner admits admins and users; the operation itself checks ownership
	AdminOrOwner
)

func (p Permission) String() string {
	switch p {
	case Public:
		return "PUBLIC"
	case AdminOnly:
		return "ADMIN_ONLY"
	case AdminOrOwner:
		return "ADMIN_OR_OWNER"
	}
	return "UNKNOWN"
}

// Authorize decides whether p may perform an operation requiring perm.
// A nil principal is anonymous.
func Authorize(p *Principal, perm Permission) error {
	if perm == Public {
		return nil
	}
	if p == nil {
		return models.NewError(models.ErrUnauthorized, "authentication required")
	}
	switch perm {
	case AdminOnly:
		if p.Role == models.RoleAdmin {
			return nil
		}
	case AdminOrOwner:
		if p.Role == models.RoleAdmin || p.Role == models.RoleUser {
			return nil
		}
	}
	return models.NewError(models.ErrForbidden, "access denied")
}
