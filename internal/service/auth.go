package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Dan9191/bank-cards/internal/models"
)

// Register creates a new USER account
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.createUser(ctx, strings.TrimSpace(username), password, models.RoleUser)
	if err != nil {
		return nil, err
	}
	s.log.Infof("User registered: %s", user.Username)
	return user, nil
}

// Login authenticates a user and returns a signed token
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	invalid := models.NewError(models.ErrInvalidCredentials, "Invalid username or password")

	user, err := s.store.FindUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, models.ErrUserNotFound) {
		return "", invalid
	}
	if err != nil {
		return "", err
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		return "", invalid
	}

	token, err := s.tokens.Issue(user.Username, []string{user.Role.String()})
	if err != nil {
		return "", err
	}
	s.log.Infof("User logged in: %s", user.Username)
	return token, nil
}

// EnsureAdmin creates an ADMIN account with the given credentials unless the
// username is already taken.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil
	}
	exists, err := s.store.UsernameExists(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if _, err := s.createUser(ctx, username, password, models.RoleAdmin); err != nil {
		return err
	}
	s.log.Infof("Bootstrap admin %s created", username)
	return nil
}
