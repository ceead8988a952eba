package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Dan9191/bank-cards/internal/auth"
	"github.com/Dan9191/bank-cards/internal/models"
	"github.com/shopspring/decimal"
)

const (
	// DefaultPageSize is used when a caller does not ask for a page size
	DefaultPageSize = 10
	// MaxPageSize caps a single page
	MaxPageSize = 100
)

// ListOwnCards returns all cards of the actor
func (s *Service) ListOwnCards(ctx context.Context, actor *auth.Principal) ([]models.Card, error) {
	if err := auth.Authorize(actor, auth.AdminOrOwner); err != nil {
		return nil, err
	}
	return s.store.ListCardsByOwner(ctx, actor.UserID)
}

// ListOwnCardsPage returns one zero-based page of the actor's cards
func (s *Service) ListOwnCardsPage(ctx context.Context, actor *auth.Principal, page, size int) (*models.Page, error) {
	if err := auth.Authorize(actor, auth.AdminOrOwner); err != nil {
		return nil, err
	}
	if page < 0 {
		return nil, models.NewError(models.ErrValidation, "Page must not be negative")
	}
	if size < 1 || size > MaxPageSize {
		return nil, models.NewError(models.ErrValidation, fmt.Sprintf("Size must be between 1 and %d", MaxPageSize))
	}
	if page > math.MaxInt32/size {
		return nil, models.NewError(models.ErrValidation, "Page is out of range")
	}

	items, total, err := s.store.ListCardsByOwnerPage(ctx, actor.UserID, size, page*size)
	if err != nil {
		return nil, err
	}
	return &models.Page{
		Items:         items,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    (total + size - 1) / size,
	}, nil
}

// ListOwnActiveCards returns the actor's ACTIVE cards
func (s *Service) ListOwnActiveCards(ctx context.Context, actor *auth.Principal) ([]models.Card, error) {
	if err := auth.Authorize(actor, auth.AdminOrOwner); err != nil {
		return nil, err
	}
	return s.store.ListCardsByOwnerAndStatus(ctx, actor.UserID, models.CardActive)
}

// OwnCardBalance returns the balance of one of the actor's cards
func (s *Service) OwnCardBalance(ctx context.Context, actor *auth.Principal, id int64) (decimal.Decimal, error) {
	if err := auth.Authorize(actor, auth.AdminOrOwner); err != nil {
		return decimal.Zero, err
	}
	card, err := s.store.FindCardByOwnerAndID(ctx, actor.UserID, id)
	if errors.Is(err, models.ErrCardNotFound) {
		return decimal.Zero, models.NewError(models.ErrCardNotFound, "Card not found or access denied")
	}
	if err != nil {
		return decimal.Zero, err
	}
	return card.Balance, nil
}

// TotalBalance sums the balances of all the actor's cards
func (s *Service) TotalBalance(ctx context.Context, actor *auth.Principal) (decimal.Decimal, error) {
	if err := auth.Authorize(actor, auth.AdminOrOwner); err != nil {
		return decimal.Zero, err
	}
	return s.store.SumBalanceByOwner(ctx, actor.UserID)
}

// UserInfo returns the actor's own user record
func (s *Service) UserInfo(ctx context.Context, actor *auth.Principal) (*models.User, error) {
	if err := auth.Authorize(actor, auth.AdminOrOwner); err != nil {
		return nil, err
	}
	user, err := s.store.FindUserByID(ctx, actor.UserID)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, userNotFound()
	}
	return user, err
}
