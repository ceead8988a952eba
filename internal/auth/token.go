package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/bank-cards/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// SubjectType is the fixed "sub" of every token this service mints
	SubjectType = "User details"
	// Issuer labels tokens minted by this service
	Issuer = "bank-cards"
)

// Claims is the token payload
type Claims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// Identity is what a valid token asserts about its bearer
type Identity struct {
	Username string
	Roles    []string
}

// TokenService issues and validates signed identity tokens
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService builds a TokenService. Secret and ttl are fixed for its lifetime.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue mints a token for subject with the configured ttl
func (s *TokenService) Issue(subject string, roles []string) (string, error) {
	return s.IssueWithTTL(subject, roles, s.ttl)
}

// IssueWithTTL mints a token for subject valid for ttl
func (s *TokenService) IssueWithTTL(subject string, roles []string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		Username: subject,
		Roles:    append([]string(nil), roles...),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   SubjectType,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Validate checks signature, tags and expiry and returns the asserted identity.
// Failures are models.ErrTokenExpired or models.ErrTokenInvalid.
func (s *TokenService) Validate(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithSubject(SubjectType),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.NewError(models.ErrTokenExpired, "token was expired")
		}
		return nil, models.NewError(models.ErrTokenInvalid, "invalid token")
	}
	if !token.Valid || claims.Username == "" {
		return nil, models.NewError(models.ErrTokenInvalid, "invalid token")
	}
	return &Identity{Username: claims.Username, Roles: claims.Roles}, nil
}
