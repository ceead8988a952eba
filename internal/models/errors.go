package models

import "errors"

// Error kinds. Every domain failure matches exactly one of these with errors.Is.
var (
	ErrCardNotFound       = errors.New("card not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrValidation         = errors.New("validation failed")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidState       = errors.New("invalid state")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Error is a domain failure with a message fit for the API caller.
type Error struct {
	Kind error
	Msg  string
}

// NewError builds an Error of the given kind
func NewError(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Message returns the caller-facing text of err. Bare kinds use their own text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}
