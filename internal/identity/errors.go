package identity

import (
	"errors"
	"fmt"
)

// MinPasswordLength mirrors Firebase Auth's password policy.
const MinPasswordLength = 6

// Sentinel errors. Provider-specific codes are mapped onto these inside the
// adapters so callers can switch on Kind exhaustively.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidEmail       = fmt.Errorf("%w: malformed email address", ErrInvalidInput)
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailInUse         = errors.New("email address already in use")
	ErrWeakPassword       = errors.New("password is too weak")
	ErrUnknown            = errors.New("auth service error")
)

// Kind is the closed set of auth failure categories.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindInvalidEmail
	KindInvalidCredentials
	KindEmailInUse
	KindWeakPassword
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindInvalidEmail:
		return "invalid_email"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindEmailInUse:
		return "email_in_use"
	case KindWeakPassword:
		return "weak_password"
	}
	return "unknown"
}

// KindOf classifies err. Anything unrecognised is KindUnknown.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidEmail):
		return KindInvalidEmail
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrEmailInUse):
		return KindEmailInUse
	case errors.Is(err, ErrWeakPassword):
		return KindWeakPassword
	}
	return KindUnknown
}
