package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := map[string]Role{
		"ADMIN":      RoleAdmin,
		"admin":      RoleAdmin,
		"ROLE_ADMIN": RoleAdmin,
		" user ":     RoleUser,
		"role_user":  RoleUser,
	}
	for in, want := range tests {
		got, err := ParseRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "ROOT", "ROLE_", "ADMINS"} {
		_, err := ParseRole(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
}

func TestErrorMatchesKind(t *testing.T) {
	err := NewError(ErrInsufficientFunds, "Insufficient funds on source card")
	wrapped := fmt.Errorf("transfer: %w", err)

	assert.ErrorIs(t, wrapped, ErrInsufficientFunds)
	assert.False(t, errors.Is(wrapped, ErrInvalidState))
	assert.Equal(t, "Insufficient funds on source card", Message(wrapped))
	assert.Equal(t, "card not found", Message(ErrCardNotFound))
}

func TestCardStatusValid(t *testing.T) {
	for _, s := range []CardStatus{CardActive, CardBlocked, CardExpired} {
		assert.True(t, s.Valid())
	}
	assert.False(t, CardStatus("LOST").Valid())
}
