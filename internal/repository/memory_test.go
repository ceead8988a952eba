package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dan9191/bank-cards/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMemory(t *testing.T) (*MemoryRepository, *models.User) {
	t.Helper()
	m := NewMemoryRepository()
	u := &models.User{Username: "alice", PasswordHash: "h", Role: models.RoleUser}
	require.NoError(t, m.CreateUser(context.Background(), u))
	return m, u
}

func TestMemory_UniqueConstraints(t *testing.T) {
	ctx := context.Background()
	m, u := seedMemory(t)

	err := m.CreateUser(ctx, &models.User{Username: "alice", Role: models.RoleUser})
	assert.ErrorIs(t, err, models.ErrValidation)

	require.NoError(t, m.CreateCard(ctx, &models.Card{Number: "1111222233334444", OwnerID: u.ID, Status: models.CardActive}))
	err = m.CreateCard(ctx, &models.Card{Number: "1111222233334444", OwnerID: u.ID, Status: models.CardActive})
	assert.ErrorIs(t, err, models.ErrValidation)

	err = m.CreateCard(ctx, &models.Card{Number: "5555666677778888", OwnerID: 999, Status: models.CardActive})
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestMemory_DeleteUserCascadesCards(t *testing.T) {
	ctx := context.Background()
	m, u := seedMemory(t)

	card := &models.Card{Number: "1111222233334444", OwnerID: u.ID, Status: models.CardActive}
	require.NoError(t, m.CreateCard(ctx, card))

	require.NoError(t, m.DeleteUser(ctx, u.ID))
	_, err := m.FindCardByID(ctx, card.ID)
	assert.ErrorIs(t, err, models.ErrCardNotFound)
	assert.ErrorIs(t, m.DeleteUser(ctx, u.ID), models.ErrUserNotFound)
}

func TestMemory_UpdateLockedDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	m, u := seedMemory(t)

	card := &models.Card{Number: "1111222233334444", OwnerID: u.ID, Status: models.CardActive, Balance: decimal.NewFromInt(10)}
	require.NoError(t, m.CreateCard(ctx, card))

	err := m.UpdateLocked(ctx, []int64{card.ID}, func(cards map[int64]*models.Card) error {
		cards[card.ID].Balance = decimal.Zero
		cards[card.ID].Status = models.CardBlocked
		return errors.New("boom")
	})
	require.Error(t, err)

	got, err := m.FindCardByID(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, models.CardActive, got.Status)
}

func TestMemory_PageAndSum(t *testing.T) {
	ctx := context.Background()
	m, u := seedMemory(t)

	for i, n := range []string{"1111222233334444", "5555666677778888", "9999000011112222"} {
		c := &models.Card{Number: n, OwnerID: u.ID, Status: models.CardActive, Balance: decimal.NewFromInt(int64(i + 1))}
		require.NoError(t, m.CreateCard(ctx, c))
	}

	page, total, err := m.ListCardsByOwnerPage(ctx, u.ID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "9999000011112222", page[0].Number)

	empty, _, err := m.ListCardsByOwnerPage(ctx, u.ID, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first, _, err := m.ListCardsByOwnerPage(ctx, u.ID, 2, -1000)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "1111222233334444", first[0].Number)

	sum, err := m.SumBalanceByOwner(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(6)))
}

func TestMemory_ExpireActiveCardsBefore(t *testing.T) {
	ctx := context.Background()
	m, u := seedMemory(t)
	today := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	past := &models.Card{Number: "1111222233334444", OwnerID: u.ID, Status: models.CardActive, ExpiryDate: today.AddDate(0, 0, -1)}
	dueToday := &models.Card{Number: "5555666677778888", OwnerID: u.ID, Status: models.CardActive, ExpiryDate: today}
	blocked := &models.Card{Number: "9999000011112222", OwnerID: u.ID, Status: models.CardBlocked, ExpiryDate: today.AddDate(-1, 0, 0)}
	for _, c := range []*models.Card{past, dueToday, blocked} {
		require.NoError(t, m.CreateCard(ctx, c))
	}

	expired, err := m.ExpireActiveCardsBefore(ctx, today)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, past.ID, expired[0].ID)

	again, err := m.ExpireActiveCardsBefore(ctx, today)
	require.NoError(t, err)
	assert.Empty(t, again)
}
