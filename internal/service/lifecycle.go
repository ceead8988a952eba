package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/bank-cards/internal/auth"
	"github.com/Dan9191/bank-cards/internal/models"
	"github.com/Dan9191/bank-cards/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CreateCard issues a new ACTIVE card with zero balance to an existing user
func (s *Service) CreateCard(ctx context.Context, actor *auth.Principal, number string, expiry time.Time, ownerID int64) (*models.Card, error) {
	if err := auth.Authorize(actor, auth.AdminOnly); err != nil {
		return nil, err
	}

	exists, err := s.store.UserExists(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, userNotFound()
	}

	if err := utils.ValidateCardNumber(number); err != nil {
		return nil, models.NewError(models.ErrValidation, "Card number must be 16 digits")
	}
	taken, err := s.store.CardNumberExists(ctx, number)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewError(models.ErrValidation, "Card with this number already exists")
	}

	masked, err := utils.MaskCardNumber(number)
	if err != nil {
		return nil, models.NewError(models.ErrValidation, err.Error())
	}

	card := &models.Card{
		Number:       number,
		MaskedNumber: masked,
		ExpiryDate:   utils.Today(expiry),
		Balance:      decimal.Zero,
		Status:       models.CardActive,
		OwnerID:      ownerID,
	}
	if err := s.store.CreateCard(ctx, card); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"card_id":  card.ID,
		"owner_id": ownerID,
		"actor":    actor.Username,
	}).Info("Card created")
	return card, nil
}

// BlockCard moves a card to BLOCKED
func (s *Service) BlockCard(ctx context.Context, actor *auth.Principal, id int64) (*models.Card, error) {
	if err := auth.Authorize(actor, auth.AdminOnly); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, models.CardBlocked, nil)
}

// ActivateCard moves a BLOCKED card back to ACTIVE
func (s *Service) ActivateCard(ctx context.Context, actor *auth.Principal, id int64) (*models.Card, error) {
	if err := auth.Authorize(actor, auth.AdminOnly); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, models.CardActive, nil)
}

// BlockOwnCard blocks a card on behalf of its owner. Admins may block any card;
// a user asking for someone else's card is told it does not exist.
func (s *Service) BlockOwnCard(ctx context.Context, actor *auth.Principal, id int64) (*models.Card, error) {
	if err := auth.Authorize(actor, auth.AdminOrOwner); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, models.CardBlocked, func(card *models.Card) error {
		if !actor.IsAdmin() && !actor.Owns(card.OwnerID) {
			return models.NewError(models.ErrCardNotFound, "Card not found or access denied")
		}
		return nil
	})
}

// transition applies a status change under the card's row lock. Setting the
// status a card already has is a no-op. EXPIRED is terminal, and a card whose
// expiry date has passed cannot be activated.
func (s *Service) transition(ctx context.Context, actor *auth.Principal, id int64, to models.CardStatus, check func(*models.Card) error) (*models.Card, error) {
	today := utils.Today(s.now())

	var (
		result  models.Card
		changed bool
	)
	err := s.store.UpdateLocked(ctx, []int64{id}, func(cards map[int64]*models.Card) error {
		card, ok := cards[id]
		if !ok {
			return cardNotFound()
		}
		if check != nil {
			if err := check(card); err != nil {
				return err
			}
		}

		switch {
		case card.Status == to:
		case card.Status == models.CardExpired:
			return models.NewError(models.ErrInvalidState, "Card is expired")
		case to == models.CardActive && card.ExpiryDate.Before(today):
			return models.NewError(models.ErrInvalidState, "Card expiry date has passed")
		default:
			card.Status = to
			changed = true
		}
		result = *card
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.log.WithFields(logrus.Fields{
			"card_id": id,
			"status":  to,
			"actor":   actor.Username,
		}).Info("Card status changed")
		if to == models.CardBlocked {
			if err := s.notifier.CardBlocked(result); err != nil {
				s.log.Warnf("Failed to notify about blocked card %d: %v", id, err)
			}
		}
	}
	return &result, nil
}

// DeleteCard removes a card permanently
func (s *Service) DeleteCard(ctx context.Context, actor *auth.Principal, id int64) error {
	if err := auth.Authorize(actor, auth.AdminOnly); err != nil {
		return err
	}
	if err := s.store.DeleteCard(ctx, id); err != nil {
		if errors.Is(err, models.ErrCardNotFound) {
			return cardNotFound()
		}
		return err
	}
	s.log.Infof("Card %d deleted by %s", id, actor.Username)
	return nil
}

// ListCards returns every card in the system
func (s *Service) ListCards(ctx context.Context, actor *auth.Principal) ([]models.Card, error) {
	if err := auth.Authorize(actor, auth.AdminOnly); err != nil {
		return nil, err
	}
	return s.store.ListCards(ctx)
}

// GetCard returns any card by id
func (s *Service) GetCard(ctx context.Context, actor *auth.Principal, id int64) (*models.Card, error) {
	if err := auth.Authorize(actor, auth.AdminOnly); err != nil {
		return nil, err
	}
	card, err := s.store.FindCardByID(ctx, id)
	if errors.Is(err, models.ErrCardNotFound) {
		return nil, cardNotFound()
	}
	return card, err
}

// SweepExpired moves every ACTIVE card whose expiry date is before today to
// EXPIRED and returns the cards it changed. Running it twice for the same day
// changes nothing the second time.
func (s *Service) SweepExpired(ctx context.Context, today time.Time) ([]models.Card, error) {
	day := utils.Today(today)
	expired, err := s.store.ExpireActiveCardsBefore(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep expired cards: %w", err)
	}

	s.metrics.ObserveExpired(len(expired))
	if len(expired) == 0 {
		s.log.Debugf("No cards expired before %s", day.Format(utils.DateLayout))
		return expired, nil
	}

	s.log.Infof("Expired %d cards before %s", len(expired), day.Format(utils.DateLayout))
	if err := s.notifier.CardsExpired(expired, day); err != nil {
		s.log.Warnf("Failed to send expiry report: %v", err)
	}
	return expired, nil
}
