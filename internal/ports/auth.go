package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/data and internal/adapters; orchestration
// in internal/service.

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/gatehouse/gatehouse/internal/domain/auth"
)

// Sentinel errors shared by all store implementations. "Not found" is a valid
// business outcome, distinct from a storage failure.
var (
	// ErrSessionNotFound is returned when a session is absent or expired.
	// Both cases are deliberately indistinguishable to callers.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when a user with the email already exists.
	ErrDuplicateEmail = errors.New("email already registered")
)

// SessionStore persists session records and owns their lifecycle. All
// operations are atomic with respect to concurrent callers; uniqueness of
// session IDs is enforced by the store, not by application-level locking.
type SessionStore interface {
	// Create generates a new session ID, persists a session expiring ttl from
	// now, and returns the record.
	Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (domainauth.Session, error)

	// FindValid returns the session only if it exists and is unexpired.
	// An expired-but-present record is ErrSessionNotFound, identical to absent.
	FindValid(ctx context.Context, id string) (domainauth.Session, error)

	// Delete removes a session. Deleting a non-existent session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteAllForUser removes every session belonging to a user. Idempotent.
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error

	// PurgeExpired removes expired rows and returns how many were deleted.
	// Best-effort hygiene only; FindValid already filters expired rows.
	PurgeExpired(ctx context.Context) (int64, error)
}

// UserRepository persists user records.
type UserRepository interface {
	// Create inserts a new user. Returns ErrDuplicateEmail when the
	// (normalized) email is already registered.
	Create(ctx context.Context, email, passwordHash string) (domainauth.User, error)

	// FindByEmail looks up a user by normalized email.
	FindByEmail(ctx context.Context, email string) (domainauth.User, error)

	// FindByID looks up a user by primary identity.
	FindByID(ctx context.Context, id uuid.UUID) (domainauth.User, error)

	// UpdatePasswordHash replaces the stored hash (cost-parameter upgrades,
	// password change).
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// CredentialHasher hashes and verifies plaintext credentials.
type CredentialHasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches encoded. A mismatch is
	// (false, nil); an error means the stored hash is malformed.
	Verify(plaintext, encoded string) (bool, error)
	// DummyHash returns a valid hash matching no real credential, used to
	// equalize login timing for unknown emails.
	DummyHash() string
	// NeedsRehash reports whether encoded was produced below current policy.
	NeedsRehash(encoded string) bool
}
