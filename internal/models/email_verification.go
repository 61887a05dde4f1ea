package models

import "time"

// EmailVerification holds a pending verification token. Only the hash of the
// token is stored; the plaintext goes out in the verification email.
type EmailVerification struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (v *EmailVerification) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
