package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Dan9191/bank-cards/internal/auth"
	"github.com/Dan9191/bank-cards/internal/models"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
)

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < minUsernameLength || n > maxUsernameLength {
		return models.NewError(models.ErrValidation,
			fmt.Sprintf("Username must be between %d and %d characters", minUsernameLength, maxUsernameLength))
	}
	return nil
}

func validateCredentials(username, password string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	if password == "" {
		return models.NewError(models.ErrValidation, "Password must not be empty")
	}
	return nil
}

// CreateUser adds a user with the given role
func (s *Service) CreateUser(ctx context.Context, actor *auth.Principal, username, password, role string) (*models.User, error) {
	if err := auth.Authorize(actor, auth.AdminOnly); err != nil {
		return nil, err
	}
	parsed, err := models.ParseRole(role)
	if err != nil {
		return nil, err
	}
	user, err := s.createUser(ctx, strings.TrimSpace(username), password, parsed)
	if err != nil {
		return nil, err
	}
	s.log.Infof("User %s created by %s with role %s", user.Username, actor.Username, user.Role)
	return user, nil
}

func (s *Service) createUser(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	taken, err := s.store.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewError(models.ErrValidation, "User with this username already exists")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Username: username, PasswordHash: hash, Role: role}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser changes a user's username and role. An empty password keeps the
// current one.
func (s *Service) UpdateUser(ctx context.Context, actor *auth.Principal, id int64, username, password, role string) (*models.User, error) {
	if err := auth.Authorize(actor, auth.AdminOnly); err != nil {
		return nil, err
	}
	parsed, err := models.ParseRole(role)
	if err != nil {
		return nil, err
	}

	user, err := s.store.FindUserByID(ctx, id)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, userNotFound()
	}
	if err != nil {
		return nil, err
	}

	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if username != user.Username {
		taken, err := s.store.UsernameExists(ctx, username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.NewError(models.ErrValidation, "User with this username already exists")
		}
	}

	user.Username = username
	user.Role = parsed
	if password != "" {
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, userNotFound()
		}
		return nil, err
	}

	s.log.Infof("User %d updated by %s", id, actor.Username)
	return user, nil
}

// DeleteUser removes a user together with all of their cards
func (s *Service) DeleteUser(ctx context.Context, actor *auth.Principal, id int64) error {
	if err := auth.Authorize(actor, auth.AdminOnly); err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return userNotFound()
		}
		return err
	}
	s.log.Infof("User %d deleted by %s", id, actor.Username)
	return nil
}

// ListUsers returns all users
func (s *Service) ListUsers(ctx context.Context, actor *auth.Principal) ([]models.User, error) {
	if err := auth.Authorize(actor, auth.AdminOnly); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx)
}

// GetUser returns a user by id
func (s *Service) GetUser(ctx context.Context, actor *auth.Principal, id int64) (*models.User, error) {
	if err := auth.Authorize(actor, auth.AdminOnly); err != nil {
		return nil, err
	}
	user, err := s.store.FindUserByID(ctx, id)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, userNotFound()
	}
	return user, err
}
