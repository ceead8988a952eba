package service

import (
	"context"
	"errors"

	"github.com/Dan9191/bank-cards/internal/auth"
	"github.com/Dan9191/bank-cards/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Transfer moves amount between two cards owned by the actor. Checks run in
// this order: same card, ownership and existence, status, funds. Both cards
// stay locked from the checks until the debit and credit are committed.
func (s *Service) Transfer(ctx context.Context, actor *auth.Principal, sourceID, targetID int64, amount decimal.Decimal) error {
	if err := auth.Authorize(actor, auth.AdminOrOwner); err != nil {
		return err
	}

	err := s.transfer(ctx, actor, sourceID, targetID, amount)
	s.metrics.ObserveTransfer(transferResult(err))
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   actor.UserID,
		"source_id": sourceID,
		"target_id": targetID,
		"amount":    amount.StringFixed(2),
	}).Info("Transfer completed")
	return nil
}

func (s *Service) transfer(ctx context.Context, actor *auth.Principal, sourceID, targetID int64, amount decimal.Decimal) error {
	if sourceID == targetID {
		return models.NewError(models.ErrInvalidOperation, "Cannot transfer to the same card")
	}
	if !amount.IsPositive() {
		return models.NewError(models.ErrValidation, "Amount must be greater than 0")
	}

	return s.store.UpdateLocked(ctx, []int64{sourceID, targetID}, func(cards map[int64]*models.Card) error {
		source, ok := cards[sourceID]
		if !ok || !actor.Owns(source.OwnerID) {
			return models.NewError(models.ErrCardNotFound, "Source card not found or access denied")
		}
		target, ok := cards[targetID]
		if !ok || !actor.Owns(target.OwnerID) {
			return models.NewError(models.ErrCardNotFound, "Target card not found or access denied")
		}

		if source.Status != models.CardActive {
			return models.NewError(models.ErrInvalidState, "Source card is not active")
		}
		if target.Status != models.CardActive {
			return models.NewError(models.ErrInvalidState, "Target card is not active")
		}

		if source.Balance.LessThan(amount) {
			return models.NewError(models.ErrInsufficientFunds, "Insufficient funds on source card")
		}
		if target.Balance.Add(amount).GreaterThanOrEqual(models.MaxBalance) {
			return models.NewError(models.ErrInvalidOperation, "Target card balance limit exceeded")
		}

		source.Balance = source.Balance.Sub(amount)
		target.Balance = target.Balance.Add(amount)
		return nil
	})
}

func transferResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, models.ErrInvalidOperation):
		return "invalid_operation"
	case errors.Is(err, models.ErrValidation):
		return "validation"
	case errors.Is(err, models.ErrCardNotFound):
		return "card_not_found"
	case errors.Is(err, models.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, models.ErrInsufficientFunds):
		return "insufficient_funds"
	}
	return "error"
}
