package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dan9191/bank-cards/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryRepository keeps users and cards in process memory. All operations are
// serialized by one mutex, which also makes UpdateLocked atomic.
type MemoryRepository struct {
	mu         sync.Mutex
	users      map[int64]models.User
	cards      map[int64]models.Card
	nextUserID int64
	nextCardID int64
}

// NewMemoryRepository returns an empty in-memory store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[int64]models.User),
		cards: make(map[int64]models.Card),
	}
}

// CreateUser stores a new user and assigns its id
func (m *MemoryRepository) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username {
			return models.NewError(models.ErrValidation, "user with this username already exists")
		}
	}
	m.nextUserID++
	user.ID = m.nextUserID
	m.users[user.ID] = *user
	return nil
}

// UpdateUser replaces the stored username, password hash and role
func (m *MemoryRepository) UpdateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; !ok {
		return models.ErrUserNotFound
	}
	for _, u := range m.users {
		if u.ID != user.ID && u.Username == user.Username {
			return models.NewError(models.ErrValidation, "user with this username already exists")
		}
	}
	m.users[user.ID] = *user
	return nil
}

// DeleteUser removes a user together with its cards
func (m *MemoryRepository) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return models.ErrUserNotFound
	}
	delete(m.users, id)
	for cid, c := range m.cards {
		if c.OwnerID == id {
			delete(m.cards, cid)
		}
	}
	return nil
}

// FindUserByID returns a copy of the user with the given id
func (m *MemoryRepository) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return &u, nil
}

// FindUserByUsername returns a copy of the user with the given username
func (m *MemoryRepository) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			found := u
			return &found, nil
		}
	}
	return nil, models.ErrUserNotFound
}

// UserExists reports whether a user with the given id exists
func (m *MemoryRepository) UserExists(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.users[id]
	return ok, nil
}

// UsernameExists reports whether the username is taken
func (m *MemoryRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := m.FindUserByUsername(ctx, username)
	return err == nil, nil
}

// ListUsers returns all users ordered by id
func (m *MemoryRepository) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// CreateCard stores a new card and assigns its id
func (m *MemoryRepository) CreateCard(_ context.Context, card *models.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[card.OwnerID]; !ok {
		return models.ErrUserNotFound
	}
	for _, c := range m.cards {
		if c.Number == card.Number {
			return models.NewError(models.ErrValidation, "card with this number already exists")
		}
	}
	m.nextCardID++
	card.ID = m.nextCardID
	m.cards[card.ID] = *card
	return nil
}

func (m *MemoryRepository) findCard(match func(models.Card) bool) (*models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.cards {
		if match(c) {
			found := c
			return &found, nil
		}
	}
	return nil, models.ErrCardNotFound
}

// FindCardByID returns a copy of the card with the given id
func (m *MemoryRepository) FindCardByID(_ context.Context, id int64) (*models.Card, error) {
	return m.findCard(func(c models.Card) bool { return c.ID == id })
}

// FindCardByNumber returns a copy of the card with the given number
func (m *MemoryRepository) FindCardByNumber(_ context.Context, number string) (*models.Card, error) {
	return m.findCard(func(c models.Card) bool { return c.Number == number })
}

// FindCardByOwnerAndID returns the card only if ownerID owns it
func (m *MemoryRepository) FindCardByOwnerAndID(_ context.Context, ownerID, id int64) (*models.Card, error) {
	return m.findCard(func(c models.Card) bool { return c.ID == id && c.OwnerID == ownerID })
}

// CardNumberExists reports whether a card with the number exists
func (m *MemoryRepository) CardNumberExists(ctx context.Context, number string) (bool, error) {
	_, err := m.FindCardByNumber(ctx, number)
	return err == nil, nil
}

func (m *MemoryRepository) filterCards(match func(models.Card) bool) []models.Card {
	m.mu.Lock()
	defer m.mu.Unlock()

	cards := []models.Card{}
	for _, c := range m.cards {
		if match(c) {
			cards = append(cards, c)
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return cards
}

// ListCards returns all cards ordered by id
func (m *MemoryRepository) ListCards(_ context.Context) ([]models.Card, error) {
	return m.filterCards(func(models.Card) bool { return true }), nil
}

// ListCardsByOwner returns the owner's cards ordered by id
func (m *MemoryRepository) ListCardsByOwner(_ context.Context, ownerID int64) ([]models.Card, error) {
	return m.filterCards(func(c models.Card) bool { return c.OwnerID == ownerID }), nil
}

// ListCardsByOwnerAndStatus returns the owner's cards in the given status
func (m *MemoryRepository) ListCardsByOwnerAndStatus(_ context.Context, ownerID int64, status models.CardStatus) ([]models.Card, error) {
	return m.filterCards(func(c models.Card) bool { return c.OwnerID == ownerID && c.Status == status }), nil
}

// ListCardsByOwnerPage returns one window of the owner's cards and the owner's total card count
func (m *MemoryRepository) ListCardsByOwnerPage(_ context.Context, ownerID int64, limit, offset int) ([]models.Card, int, error) {
	all := m.filterCards(func(c models.Card) bool { return c.OwnerID == ownerID })
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []models.Card{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

// SumBalanceByOwner sums the balances of the owner's cards
func (m *MemoryRepository) SumBalanceByOwner(_ context.Context, ownerID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, c := range m.filterCards(func(c models.Card) bool { return c.OwnerID == ownerID }) {
		total = total.Add(c.Balance)
	}
	return total, nil
}

// DeleteCard removes a card
func (m *MemoryRepository) DeleteCard(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cards[id]; !ok {
		return models.ErrCardNotFound
	}
	delete(m.cards, id)
	return nil
}

// ExpireActiveCardsBefore marks ACTIVE cards expiring before day as EXPIRED and returns them
func (m *MemoryRepository) ExpireActiveCardsBefore(_ context.Context, day time.Time) ([]models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expired := []models.Card{}
	for id, c := range m.cards {
		if c.Status == models.CardActive && c.ExpiryDate.Before(day) {
			c.Status = models.CardExpired
			m.cards[id] = c
			expired = append(expired, c)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ID < expired[j].ID })
	return expired, nil
}

// UpdateLocked hands copies of the requested cards to fn and stores them back
// only when fn succeeds.
func (m *MemoryRepository) UpdateLocked(_ context.Context, ids []int64, fn func(cards map[int64]*models.Card) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cards := make(map[int64]*models.Card, len(ids))
	for _, id := range ids {
		if c, ok := m.cards[id]; ok {
			cp := c
			cards[id] = &cp
		}
	}
	if err := fn(cards); err != nil {
		return err
	}
	for id, c := range cards {
		stored := m.cards[id]
		stored.Balance = c.Balance
		stored.Status = c.Status
		m.cards[id] = stored
	}
	return nil
}
