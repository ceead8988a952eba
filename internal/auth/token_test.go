package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/Dan9191/bank-cards/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(at time.Time) *TokenService {
	s := NewTokenService("super-secret", time.Hour)
	s.now = func() time.Time { return at }
	return s
}

func TestIssueAndValidate_Success(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	s := newTestTokenService(start)

	tok, err := s.Issue("alice", []string{"ROLE_USER"})
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(59 * time.Minute) }
	id, err := s.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, []string{"ROLE_USER"}, id.Roles)
}

func TestValidate_ExpiredAfterTTL(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	s := newTestTokenService(start)

	tok, err := s.IssueWithTTL("alice", []string{"ROLE_USER"}, 10*time.Minute)
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(11 * time.Minute) }
	_, err = s.Validate(tok)
	assert.ErrorIs(t, err, models.ErrTokenExpired)
}

func TestValidate_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenService("right-secret", time.Hour).Issue("bob", nil)
	require.NoError(t, err)

	_, err = NewTokenService("wrong-secret", time.Hour).Validate(tok)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestValidate_Malformed(t *testing.T) {
	t.Parallel()

	s := NewTokenService("k", time.Hour)
	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		_, err := s.Validate(tok)
		assert.ErrorIs(t, err, models.ErrTokenInvalid, "token %q", tok)
	}
}

func TestValidate_TamperedPayload(t *testing.T) {
	t.Parallel()

	s := NewTokenService("k", time.Hour)
	tok, err := s.Issue("alice", []string{"ROLE_USER"})
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	other, err := s.Issue("mallory", []string{"ROLE_ADMIN"})
	require.NoError(t, err)
	parts[1] = strings.Split(other, ".")[1]

	_, err = s.Validate(strings.Join(parts, "."))
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestValidate_RejectsForeignTags(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	s := NewTokenService(string(secret), time.Hour)
	now := time.Now()

	cases := map[string]jwt.RegisteredClaims{
		"wrong issuer": {
			Subject: SubjectType, Issuer: "someone-else",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		"wrong subject type": {
			Subject: "Refresh", Issuer: Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		"missing expiry": {
			Subject: SubjectType, Issuer: Issuer,
		},
	}
	for name, rc := range cases {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Username: "alice", RegisteredClaims: rc}).SignedString(secret)
		require.NoError(t, err)
		_, err = s.Validate(tok)
		assert.ErrorIs(t, err, models.ErrTokenInvalid, name)
	}
}

func TestValidate_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	s := NewTokenService("k", time.Hour)
	claims := Claims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: SubjectType, Issuer: Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = s.Validate(tok)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}
