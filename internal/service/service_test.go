package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/bank-cards/internal/auth"
	"github.com/Dan9191/bank-cards/internal/models"
	"github.com/Dan9191/bank-cards/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var (
	fixedNow   = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	futureDate = time.Date(2030, 1, 31, 0, 0, 0, 0, time.UTC)
)

type recordingNotifier struct {
	mu      sync.Mutex
	blocked []models.Card
	reports [][]models.Card
}

func (n *recordingNotifier) CardsExpired(cards []models.Card, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, cards)
	return nil
}

func (n *recordingNotifier) CardBlocked(card models.Card) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.blocked = append(n.blocked, card)
	return nil
}

type recordingRecorder struct {
	mu        sync.Mutex
	transfers map[string]int
	expired   int
}

func (r *recordingRecorder) ObserveTransfer(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transfers[result]++
}

func (r *recordingRecorder) ObserveExpired(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expired += n
}

type fixture struct {
	ctx      context.Context
	svc      *Service
	store    *repository.MemoryRepository
	tokens   *auth.TokenService
	notifier *recordingNotifier
	recorder *recordingRecorder
	admin    *auth.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		ctx:      context.Background(),
		store:    repository.NewMemoryRepository(),
		tokens:   auth.NewTokenService("test-secret", time.Hour),
		notifier: &recordingNotifier{},
		recorder: &recordingRecorder{transfers: map[string]int{}},
	}
	f.svc = NewService(f.store, f.tokens, auth.NewPasswordHasher(bcrypt.MinCost), logger,
		WithNotifier(f.notifier),
		WithRecorder(f.recorder),
		WithClock(func() time.Time { return fixedNow }),
	)

	require.NoError(t, f.svc.EnsureAdmin(f.ctx, "root", "rootpass"))
	admin, err := f.store.FindUserByUsername(f.ctx, "root")
	require.NoError(t, err)
	f.admin = principalOf(admin)
	return f
}

func principalOf(u *models.User) *auth.Principal {
	return &auth.Principal{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func (f *fixture) user(t *testing.T, name string) *auth.Principal {
	t.Helper()
	u, err := f.svc.CreateUser(f.ctx, f.admin, name, "secret", "USER")
	require.NoError(t, err)
	return principalOf(u)
}

func (f *fixture) card(t *testing.T, owner *auth.Principal, number, balance string) *models.Card {
	t.Helper()
	card, err := f.svc.CreateCard(f.ctx, f.admin, number, futureDate, owner.UserID)
	require.NoError(t, err)
	if balance != "" {
		card, err = f.svc.SetBalanceByID(f.ctx, f.admin, card.ID, decimal.RequireFromString(balance))
		require.NoError(t, err)
	}
	return card
}

func (f *fixture) balance(t *testing.T, id int64) decimal.Decimal {
	t.Helper()
	card, err := f.store.FindCardByID(f.ctx, id)
	require.NoError(t, err)
	return card.Balance
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
