package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, h.Verify(hash, "s3cret"))
	assert.False(t, h.Verify(hash, "wrong"))
	assert.False(t, h.Verify("not-a-bcrypt-hash", "s3cret"))
}

func TestNewPasswordHasher_CostFallback(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).cost)
	assert.Equal(t, 12, NewPasswordHasher(12).cost)
}
