package service

import (
	"context"
	"errors"

	"github.com/Dan9191/bank-cards/internal/auth"
	"github.com/Dan9191/bank-cards/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SetBalanceByID overwrites a card's balance. Status and transfer rules do not apply.
func (s *Service) SetBalanceByID(ctx context.Context, actor *auth.Principal, id int64, balance decimal.Decimal) (*models.Card, error) {
	if err := auth.Authorize(actor, auth.AdminOnly); err != nil {
		return nil, err
	}
	return s.setBalance(ctx, actor, id, balance)
}

// SetBalanceByNumber overwrites the balance of the card with the given number
func (s *Service) SetBalanceByNumber(ctx context.Context, actor *auth.Principal, number string, balance decimal.Decimal) (*models.Card, error) {
	if err := auth.Authorize(actor, auth.AdminOnly); err != nil {
		return nil, err
	}
	card, err := s.store.FindCardByNumber(ctx, number)
	if errors.Is(err, models.ErrCardNotFound) {
		return nil, cardNotFound()
	}
	if err != nil {
		return nil, err
	}
	return s.setBalance(ctx, actor, card.ID, balance)
}

func (s *Service) setBalance(ctx context.Context, actor *auth.Principal, id int64, balance decimal.Decimal) (*models.Card, error) {
	var result models.Card
	err := s.store.UpdateLocked(ctx, []int64{id}, func(cards map[int64]*models.Card) error {
		card, ok := cards[id]
		if !ok {
			return cardNotFound()
		}
		if balance.IsNegative() {
			return models.NewError(models.ErrValidation, "Balance must be greater than or equal to 0")
		}
		if balance.GreaterThanOrEqual(models.MaxBalance) {
			return models.NewError(models.ErrValidation, "Balance must be less than "+models.MaxBalance.String())
		}
		card.Balance = balance
		result = *card
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"card_id": id,
		"balance": balance.StringFixed(2),
		"actor":   actor.Username,
	}).Info("Card balance set")
	return &result, nil
}
