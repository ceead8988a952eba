package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CardStatus is the lifecycle state of a card
type CardStatus string

const (
	CardActive  CardStatus = "ACTIVE"
	CardBlocked CardStatus = "BLOCKED"
	CardExpired CardStatus = "EXPIRED"
)

// Valid reports whether s is one of the known statuses
func (s CardStatus) Valid() bool {
	switch s {
	case CardActive, CardBlocked, CardExpired:
		return true
	}
	return false
}

// MaxBalance is the exclusive upper bound of a card balance, set by the
// NUMERIC(19,2) balance column.
var MaxBalance = decimal.New(1, 17)

// Card represents a bank card
type Card struct {
	ID           int64           `json:"id"`
	Number       string          `json:"-"` // Never leaves the service unmasked
	MaskedNumber string          `json:"masked_number"`
	ExpiryDate   time.Time       `json:"expiry_date"`
	Balance      decimal.Decimal `json:"balance"`
	Status       CardStatus      `json:"status"`
	OwnerID      int64           `json:"owner_id"`
}

// Page is one slice of a paginated card listing
type Page struct {
	Items         []Card `json:"items"`
	Page          int    `json:"page"`
	Size          int    `json:"size"`
	TotalElements int    `json:"total_elements"`
	TotalPages    int    `json:"total_pages"`
}
