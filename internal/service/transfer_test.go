package service

import (
	"sync"
	"testing"

	"github.com/Dan9191/bank-cards/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransfer_MovesFundsBetweenOwnCards(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	first := f.card(t, alice, "1111222233334444", "100.00")
	second := f.card(t, alice, "5555666677778888", "0.00")

	require.NoError(t, f.svc.Transfer(f.ctx, alice, first.ID, second.ID, dec("40.00")))

	assert.True(t, f.balance(t, first.ID).Equal(dec("60.00")))
	assert.True(t, f.balance(t, second.ID).Equal(dec("40.00")))
	assert.Equal(t, 1, f.recorder.transfers["success"])
}

func TestTransfer_InsufficientFundsLeavesBalances(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	first := f.card(t, alice, "1111222233334444", "100.00")
	second := f.card(t, alice, "5555666677778888", "0.00")

	err := f.svc.Transfer(f.ctx, alice, first.ID, second.ID, dec("1000.00"))
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	assert.True(t, f.balance(t, first.ID).Equal(dec("100.00")))
	assert.True(t, f.balance(t, second.ID).IsZero())
	assert.Equal(t, 1, f.recorder.transfers["insufficient_funds"])
}

func TestTransfer_TargetBalanceLimit(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	first := f.card(t, alice, "1111222233334444", "100.00")
	second := f.card(t, alice, "5555666677778888", "99999999999999999.00")

	err := f.svc.Transfer(f.ctx, alice, first.ID, second.ID, dec("1.00"))
	assert.ErrorIs(t, err, models.ErrInvalidOperation)
	assert.True(t, f.balance(t, first.ID).Equal(dec("100.00")))
	assert.True(t, f.balance(t, second.ID).Equal(dec("99999999999999999.00")))

	require.NoError(t, f.svc.Transfer(f.ctx, alice, first.ID, second.ID, dec("0.99")))
	assert.True(t, f.balance(t, second.ID).Equal(dec("99999999999999999.99")))
}

func TestTransfer_Conservation(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	first := f.card(t, alice, "1111222233334444", "250.75")
	second := f.card(t, alice, "5555666677778888", "13.10")
	before := f.balance(t, first.ID).Add(f.balance(t, second.ID))

	for _, amount := range []string{"0.01", "10.00", "99.99", "140.75", "0.5"} {
		src, dst := first.ID, second.ID
		if f.balance(t, first.ID).LessThan(dec(amount)) {
			src, dst = second.ID, first.ID
		}
		require.NoError(t, f.svc.Transfer(f.ctx, alice, src, dst, dec(amount)))

		after := f.balance(t, first.ID).Add(f.balance(t, second.ID))
		assert.True(t, before.Equal(after), "sum changed after moving %s", amount)
		assert.False(t, f.balance(t, first.ID).IsNegative())
		assert.False(t, f.balance(t, second.ID).IsNegative())
	}
}

func TestTransfer_SameCardIsInvalidOperation(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	card := f.card(t, alice, "1111222233334444", "100.00")

	for _, id := range []int64{card.ID, 9999} {
		err := f.svc.Transfer(f.ctx, alice, id, id, dec("1.00"))
		assert.ErrorIs(t, err, models.ErrInvalidOperation)
	}
	assert.True(t, f.balance(t, card.ID).Equal(dec("100.00")))
}

func TestTransfer_BlockedSourceIsInvalidState(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	first := f.card(t, alice, "1111222233334444", "100.00")
	second := f.card(t, alice, "5555666677778888", "")

	_, err := f.svc.BlockCard(f.ctx, f.admin, first.ID)
	require.NoError(t, err)

	err = f.svc.Transfer(f.ctx, alice, first.ID, second.ID, dec("1.00"))
	assert.ErrorIs(t, err, models.ErrInvalidState)
	assert.Equal(t, "Source card is not active", models.Message(err))
	assert.True(t, f.balance(t, first.ID).Equal(dec("100.00")))
}

func TestTransfer_BlockedTargetIsInvalidState(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	first := f.card(t, alice, "1111222233334444", "100.00")
	second := f.card(t, alice, "5555666677778888", "")

	_, err := f.svc.BlockOwnCard(f.ctx, alice, second.ID)
	require.NoError(t, err)

	err = f.svc.Transfer(f.ctx, alice, first.ID, second.ID, dec("1.00"))
	assert.ErrorIs(t, err, models.ErrInvalidState)
	assert.Equal(t, "Target card is not active", models.Message(err))
}

func TestTransfer_ForeignOrMissingCardIsNotFound(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	own := f.card(t, alice, "1111222233334444", "100.00")
	foreign := f.card(t, bob, "5555666677778888", "50.00")

	tests := []struct {
		name     string
		src, dst int64
	}{
		{"foreign target", own.ID, foreign.ID},
		{"foreign source", foreign.ID, own.ID},
		{"missing target", own.ID, 9999},
		{"missing source", 9999, own.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.Transfer(f.ctx, alice, tt.src, tt.dst, dec("10.00"))
			assert.ErrorIs(t, err, models.ErrCardNotFound)
		})
	}
	assert.True(t, f.balance(t, own.ID).Equal(dec("100.00")))
	assert.True(t, f.balance(t, foreign.ID).Equal(dec("50.00")))
}

func TestTransfer_NotFoundBeforeStateBeforeFunds(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	blocked := f.card(t, alice, "1111222233334444", "0.00")
	foreign := f.card(t, bob, "5555666677778888", "")
	_, err := f.svc.BlockCard(f.ctx, f.admin, blocked.ID)
	require.NoError(t, err)

	err = f.svc.Transfer(f.ctx, alice, blocked.ID, foreign.ID, dec("10.00"))
	assert.ErrorIs(t, err, models.ErrCardNotFound)

	active := f.card(t, alice, "9999000011112222", "")
	err = f.svc.Transfer(f.ctx, alice, blocked.ID, active.ID, dec("10.00"))
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestTransfer_RejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	first := f.card(t, alice, "1111222233334444", "100.00")
	second := f.card(t, alice, "5555666677778888", "")

	for _, amount := range []decimal.Decimal{decimal.Zero, dec("-5")} {
		err := f.svc.Transfer(f.ctx, alice, first.ID, second.ID, amount)
		assert.ErrorIs(t, err, models.ErrValidation)
	}
	assert.True(t, f.balance(t, second.ID).IsZero())
}

func TestTransfer_RequiresIdentity(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Transfer(f.ctx, nil, 1, 2, dec("1"))
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestTransfer_ConcurrentTransfersNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	source := f.card(t, alice, "1111222233334444", "100.00")
	target := f.card(t, alice, "5555666677778888", "")

	const workers = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.svc.Transfer(f.ctx, alice, source.ID, target.ID, dec("10.00")); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.True(t, f.balance(t, source.ID).IsZero())
	assert.True(t, f.balance(t, target.ID).Equal(dec("100.00")))
}

func TestTransfer_OppositeDirectionsConcurrently(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	a := f.card(t, alice, "1111222233334444", "50.00")
	b := f.card(t, alice, "5555666677778888", "50.00")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = f.svc.Transfer(f.ctx, alice, a.ID, b.ID, dec("1.00"))
		}()
		go func() {
			defer wg.Done()
			_ = f.svc.Transfer(f.ctx, alice, b.ID, a.ID, dec("1.00"))
		}()
	}
	wg.Wait()

	total := f.balance(t, a.ID).Add(f.balance(t, b.ID))
	assert.True(t, total.Equal(dec("100.00")))
}
