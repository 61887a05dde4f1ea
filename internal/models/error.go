package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	ErrProductNotFound = errors.New("product not found")
)

// Login denial kinds, surfaced to the client as the "error" code
const (
	LoginKindInvalidCredentials   = "invalid_credentials"
	LoginKindVerificationRequired = "verification_required"
	LoginKindAccountLocked        = "account_locked"
)

// LoginDenied is returned by the auth throttle when a login attempt is refused.
// It carries the structured payload the client needs to render field-level form
// errors, lockout countdowns, and the resend-verification prompt.
type LoginDenied struct {
	Kind              string
	Field             string // form field the error attaches to: "email", "password", "general"
	RemainingAttempts *int
	LockoutEnd        *time.Time
	NeedsVerification bool
}

func (e *LoginDenied) Error() string {
	return "login denied: " + e.Kind
}

// Message returns the human-readable text for the denial. Unknown emails and
// wrong passwords share the same text so responses do not reveal which
// addresses are registered.
func (e *LoginDenied) Message() string {
	switch e.Kind {
	case LoginKindVerificationRequired:
		return "Please verify your email address before logging in"
	case LoginKindAccountLocked:
		if e.LockoutEnd != nil {
			mins := int(math.Ceil(time.Until(*e.LockoutEnd).Minutes()))
			if mins < 1 {
				mins = 1
			}
			return fmt.Sprintf("Account temporarily locked. Try again in %d minutes", mins)
		}
		return "Account temporarily locked"
	default:
		return "Invalid email or password"
	}
}
