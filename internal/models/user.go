package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of roles a user can hold
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole canonicalizes a role coming from storage or a request.
// "admin", "ADMIN" and "ROLE_ADMIN" all map to RoleAdmin.
func ParseRole(s string) (Role, error) {
	r := strings.ToUpper(strings.TrimSpace(s))
	r = strings.TrimPrefix(r, "ROLE_")
	switch Role(r) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	}
	return "", NewError(ErrValidation, fmt.Sprintf("invalid role %q: allowed values are ADMIN, USER", s))
}

func (r Role) String() string {
	return string(r)
}

// User represents a user in the system
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Not serialized
	Role         Role   `json:"role"`
}
