package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	// CardNumberLength is the only accepted card number length
	CardNumberLength = 16
	// MaskChar replaces the hidden middle digits of a card number
	MaskChar = "X"
	// DateLayout is the wire format of card expiry dates
	DateLayout = "2006-01-02"
)

// ValidateCardNumber checks that number is exactly 16 ASCII digits
func ValidateCardNumber(number string) error {
	if len(number) != CardNumberLength {
		return fmt.Errorf("card number must be %d digits, got %d characters", CardNumberLength, len(number))
	}
	for i := 0; i < len(number); i++ {
		if number[i] < '0' || number[i] > '9' {
			return fmt.Errorf("card number must contain only digits")
		}
	}
	return nil
}

// MaskCardNumber keeps the first and last four digits and replaces the rest
// with MaskChar, e.g. 1234XXXXXXXX3456. The result has the same length as number.
func MaskCardNumber(number string) (string, error) {
	if len(number) < 8 {
		return "", fmt.Errorf("card number too short to mask: %d characters", len(number))
	}

	var builder strings.Builder
	builder.Grow(len(number))
	builder.WriteString(number[:4])
	builder.WriteString(strings.Repeat(MaskChar, len(number)-8))
	builder.WriteString(number[len(number)-4:])
	return builder.String(), nil
}

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be in format YYYY-MM-DD: %w", err)
	}
	return d, nil
}

// Today truncates t to its calendar date in UTC
func Today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
