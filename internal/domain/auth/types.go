package auth

// Package auth contains domain-level types for users and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/gatehouse/gatehouse/internal/errors"
)

const (
	// MaxEmailLength bounds stored email addresses.
	MaxEmailLength = 255
	// MinPasswordLength follows NIST SP 800-63B; length matters more than
	// composition rules, so there are none.
	MinPasswordLength = 8
	// MaxPasswordLength allows passphrases while bounding hashing cost.
	MaxPasswordLength = 128
)

// User is a registered account. PasswordHash never leaves the credential
// hasher and the user repository; it is excluded from JSON serialization.
type User struct {
	ID           uuid.UUID `json:"id"         db:"id"`
	Email        string    `json:"email"      db:"email"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Session is the server-side record standing in for a user's authenticated
// state. ID is the opaque identifier sent to the client in the session cookie;
// it doubles as the primary lookup key.
type Session struct {
	ID        string    `json:"id"         db:"id"`
	UserID    uuid.UUID `json:"user_id"    db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// Expired reports whether the session is invalid at the given instant.
// A session is invalid once now >= ExpiresAt.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// NormalizeEmail lowercases and trims an email address. Normalization happens
// before every lookup and store so differently-cased signups collide.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks a normalized email for length and syntactic shape.
func ValidateEmail(email string) error {
	if email == "" {
		return apperrors.ValidationField("email", "email is required")
	}
	if len(email) > MaxEmailLength {
		return apperrors.ValidationField("email", "email must be at most 255 characters")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperrors.ValidationField("email", "email is not a valid address")
	}
	return nil
}

// ValidatePassword enforces the length policy only.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperrors.ValidationField("password", "password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return apperrors.ValidationField("password", "password must be at most 128 characters")
	}
	return nil
}
