package service

import (
	"context"
	"time"

	"github.com/Dan9191/bank-cards/internal/auth"
	"github.com/Dan9191/bank-cards/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// UserDirectory stores user records
type UserDirectory interface {
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	UserExists(ctx context.Context, id int64) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// CardStore stores card records. UpdateLocked must run fn with the requested
// cards locked against concurrent writers and persist balance and status
// changes atomically only when fn returns nil.
type CardStore interface {
	CreateCard(ctx context.Context, card *models.Card) error
	FindCardByID(ctx context.Context, id int64) (*models.Card, error)
	FindCardByNumber(ctx context.Context, number string) (*models.Card, error)
	FindCardByOwnerAndID(ctx context.Context, ownerID, id int64) (*models.Card, error)
	CardNumberExists(ctx context.Context, number string) (bool, error)
	ListCards(ctx context.Context) ([]models.Card, error)
	ListCardsByOwner(ctx context.Context, ownerID int64) ([]models.Card, error)
	ListCardsByOwnerAndStatus(ctx context.Context, ownerID int64, status models.CardStatus) ([]models.Card, error)
	ListCardsByOwnerPage(ctx context.Context, ownerID int64, limit, offset int) ([]models.Card, int, error)
	SumBalanceByOwner(ctx context.Context, ownerID int64) (decimal.Decimal, error)
	DeleteCard(ctx context.Context, id int64) error
	ExpireActiveCardsBefore(ctx context.Context, day time.Time) ([]models.Card, error)
	UpdateLocked(ctx context.Context, ids []int64, fn func(cards map[int64]*models.Card) error) error
}

// Store is the full persistence contract of the service
type Store interface {
	UserDirectory
	CardStore
}

// Notifier receives events worth telling an operator about
type Notifier interface {
	CardsExpired(cards []models.Card, day time.Time) error
	CardBlocked(card models.Card) error
}

// Recorder receives business metrics
type Recorder interface {
	ObserveTransfer(result string)
	ObserveExpired(n int)
}

type noopNotifier struct{}

func (noopNotifier) CardsExpired([]models.Card, time.Time) error { return nil }
func (noopNotifier) CardBlocked(models.Card) error                { return nil }

type noopRecorder struct{}

func (noopRecorder) ObserveTransfer(string) {}
func (noopRecorder) ObserveExpired(int)     {}

// Service handles business logic
type Service struct {
	store    Store
	tokens   *auth.TokenService
	hasher   *auth.PasswordHasher
	log      *logrus.Logger
	notifier Notifier
	metrics  Recorder
	now      func() time.Time
}

// Option customizes a Service
type Option func(*Service)

// WithNotifier sets the operator notifier
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithClock overrides the wall clock
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService initializes a new service
func NewService(store Store, tokens *auth.TokenService, hasher *auth.PasswordHasher, log *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		tokens:   tokens,
		hasher:   hasher,
		log:      log,
		notifier: noopNotifier{},
		metrics:  noopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func cardNotFound() error {
	return models.NewError(models.ErrCardNotFound, "Card not found")
}

func userNotFound() error {
	return models.NewError(models.ErrUserNotFound, "User not found")
}
