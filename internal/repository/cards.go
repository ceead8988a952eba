package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Dan9191/bank-cards/internal/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const cardColumns = `id, number, masked_number, expiry_date, balance, status, owner_id`

func scanCard(row interface{ Scan(...any) error }) (*models.Card, error) {
	card := &models.Card{}
	var status string
	err := row.Scan(&card.ID, &card.Number, &card.MaskedNumber, &card.ExpiryDate, &card.Balance, &status, &card.OwnerID)
	if err != nil {
		return nil, err
	}
	card.Status = models.CardStatus(status)
	if !card.Status.Valid() {
		return nil, fmt.Errorf("card %d has unknown status %q", card.ID, status)
	}
	return card, nil
}

func collectCards(rows *sql.Rows) ([]models.Card, error) {
	defer rows.Close()
	cards := []models.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cards: %w", err)
	}
	return cards, nil
}

// CreateCard inserts a new card and fills in its id
func (r *Repository) CreateCard(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO bank.cards (number, masked_number, expiry_date, balance, status, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		card.Number, card.MaskedNumber, card.ExpiryDate, card.Balance, string(card.Status), card.OwnerID,
	).Scan(&card.ID)
	if err != nil {
		switch pqCode(err) {
		case pqUniqueViolation:
			return models.NewError(models.ErrValidation, "card with this number already exists")
		case pqForeignKeyViolation:
			return models.ErrUserNotFound
		}
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

func (r *Repository) findCard(ctx context.Context, where string, args ...any) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM bank.cards WHERE ` + where
	card, err := scanCard(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return card, nil
}

// FindCardByID retrieves a card by id
func (r *Repository) FindCardByID(ctx context.Context, id int64) (*models.Card, error) {
	return r.findCard(ctx, `id = $1`, id)
}

// FindCardByNumber retrieves a card by its full number
func (r *Repository) FindCardByNumber(ctx context.Context, number string) (*models.Card, error) {
	return r.findCard(ctx, `number = $1`, number)
}

// FindCardByOwnerAndID retrieves a card only if ownerID owns it
func (r *Repository) FindCardByOwnerAndID(ctx context.Context, ownerID, id int64) (*models.Card, error) {
	return r.findCard(ctx, `owner_id = $1 AND id = $2`, ownerID, id)
}

// CardNumberExists reports whether number is already issued
func (r *Repository) CardNumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM bank.cards WHERE number = $1)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check card number: %w", err)
	}
	return exists, nil
}

// ListCards returns every card ordered by id
func (r *Repository) ListCards(ctx context.Context) ([]models.Card, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+cardColumns+` FROM bank.cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return collectCards(rows)
}

// ListCardsByOwner returns the cards of one user ordered by id
func (r *Repository) ListCardsByOwner(ctx context.Context, ownerID int64) ([]models.Card, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+cardColumns+` FROM bank.cards WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return collectCards(rows)
}

// ListCardsByOwnerAndStatus returns the cards of one user in the given status
func (r *Repository) ListCardsByOwnerAndStatus(ctx context.Context, ownerID int64, status models.CardStatus) ([]models.Card, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM bank.cards WHERE owner_id = $1 AND status = $2 ORDER BY id`,
		ownerID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return collectCards(rows)
}

// ListCardsByOwnerPage returns one page of a user's cards and the user's total card count
func (r *Repository) ListCardsByOwnerPage(ctx context.Context, ownerID int64, limit, offset int) ([]models.Card, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bank.cards WHERE owner_id = $1`, ownerID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count cards: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM bank.cards WHERE owner_id = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cards: %w", err)
	}
	cards, err := collectCards(rows)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// SumBalanceByOwner totals the balances of a user's cards; zero when there are none
func (r *Repository) SumBalanceByOwner(ctx context.Context, ownerID int64) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.QueryRowContext(ctx, `SELECT SUM(balance) FROM bank.cards WHERE owner_id = $1`, ownerID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum balances: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// DeleteCard removes a card permanently
func (r *Repository) DeleteCard(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bank.cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	return expectAffected(res, models.ErrCardNotFound)
}

// ExpireActiveCardsBefore moves every ACTIVE card whose expiry date is before
// day to EXPIRED in a single statement and returns the cards it changed.
func (r *Repository) ExpireActiveCardsBefore(ctx context.Context, day time.Time) ([]models.Card, error) {
	query := `
		UPDATE bank.cards
		SET status = $1
		WHERE status = $2 AND expiry_date < $3
		RETURNING ` + cardColumns
	rows, err := r.db.QueryContext(ctx, query, string(models.CardExpired), string(models.CardActive), day)
	if err != nil {
		return nil, fmt.Errorf("failed to expire cards: %w", err)
	}
	return collectCards(rows)
}

// UpdateLocked locks the cards with the given ids in ascending id order, hands
// the locked rows to fn and, if fn succeeds, persists their balance and status
// in the same transaction. Ids that do not exist are absent from the map.
func (r *Repository) UpdateLocked(ctx context.Context, ids []int64, fn func(cards map[int64]*models.Card) error) error {
	ordered := append([]int64(nil), ids...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	return r.withTx(ctx, func(tx DBTX) error {
		query := `SELECT ` + cardColumns + ` FROM bank.cards WHERE id = ANY($1) ORDER BY id FOR UPDATE`
		rows, err := tx.QueryContext(ctx, query, pq.Array(ordered))
		if err != nil {
			return fmt.Errorf("failed to lock cards: %w", err)
		}
		locked, err := collectCards(rows)
		if err != nil {
			return err
		}

		cards := make(map[int64]*models.Card, len(locked))
		for i := range locked {
			cards[locked[i].ID] = &locked[i]
		}

		if err := fn(cards); err != nil {
			return err
		}

		for _, id := range ordered {
			card, ok := cards[id]
			if !ok {
				continue
			}
			_, err := tx.ExecContext(ctx,
				`UPDATE bank.cards SET balance = $2, status = $3 WHERE id = $1`,
				card.ID, card.Balance, string(card.Status))
			if err != nil {
				return fmt.Errorf("failed to update card %d: %w", card.ID, err)
			}
		}
		return nil
	})
}
