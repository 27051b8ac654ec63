package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/gatehouse/gatehouse/internal/domain/auth"
	"github.com/gatehouse/gatehouse/internal/ports"
	"github.com/gatehouse/gatehouse/internal/token"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.SessionStore   = (*MemorySessionStore)(nil)
	_ ports.UserRepository = (*MemoryUserRepository)(nil)
)

// MemorySessionStore is an in-memory session store for unit tests.
// A Clock override makes expiry behavior deterministic.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session

	Clock func() time.Time

	// CreateErr, FindErr, and DeleteErr force failures when set.
	CreateErr error
	FindErr   error
	DeleteErr error
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now().UTC()
}

func (m *MemorySessionStore) Create(_ context.Context, userID uuid.UUID, ttl time.Duration) (domainauth.Session, error) {
	if m.CreateErr != nil {
		return domainauth.Session{}, m.CreateErr
	}

	id, err := token.NewSessionID()
	if err != nil {
		return domainauth.Session{}, err
	}

	now := m.now()
	sess := domainauth.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return sess, nil
}

func (m *MemorySessionStore) FindValid(_ context.Context, id string) (domainauth.Session, error) {
	if m.FindErr != nil {
		return domainauth.Session{}, m.FindErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok || sess.Expired(m.now()) {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemorySessionStore) DeleteAllForUser(_ context.Context, userID uuid.UUID) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sess := range m.sessions {
		if sess.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *MemorySessionStore) PurgeExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var purged int64
	for id, sess := range m.sessions {
		if sess.Expired(now) {
			delete(m.sessions, id)
			purged++
		}
	}
	return purged, nil
}

// Len reports the number of stored sessions, expired or not.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Put stores a session directly, bypassing ID generation.
func (m *MemorySessionStore) Put(sess domainauth.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
}

// MemoryUserRepository is an in-memory user repository for unit tests.
// Like the Postgres repo, it treats emails as opaque strings; callers
// normalize before storing or looking up.
type MemoryUserRepository struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]domainauth.User
	byEmail map[string]uuid.UUID

	Clock func() time.Time

	// CreateErr and FindErr force failures when set.
	CreateErr error
	FindErr   error
}

// NewMemoryUserRepository creates a new in-memory user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[uuid.UUID]domainauth.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (m *MemoryUserRepository) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now().UTC()
}

func (m *MemoryUserRepository) Create(_ context.Context, email, passwordHash string) (domainauth.User, error) {
	if m.CreateErr != nil {
		return domainauth.User{}, m.CreateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[email]; exists {
		return domainauth.User{}, ports.ErrDuplicateEmail
	}

	user := domainauth.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    m.now(),
	}
	m.byID[user.ID] = user
	m.byEmail[email] = user.ID
	return user, nil
}

func (m *MemoryUserRepository) FindByEmail(_ context.Context, email string) (domainauth.User, error) {
	if m.FindErr != nil {
		return domainauth.User{}, m.FindErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return domainauth.User{}, ports.ErrUserNotFound
	}
	return m.byID[id], nil
}

func (m *MemoryUserRepository) FindByID(_ context.Context, id uuid.UUID) (domainauth.User, error) {
	if m.FindErr != nil {
		return domainauth.User{}, m.FindErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return domainauth.User{}, ports.ErrUserNotFound
	}
	return user, nil
}

func (m *MemoryUserRepository) UpdatePasswordHash(_ context.Context, id uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return ports.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	m.byID[id] = user
	return nil
}

// Delete removes a user, leaving any of their sessions orphaned.
func (m *MemoryUserRepository) Delete(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.byID[id]; ok {
		delete(m.byEmail, user.Email)
		delete(m.byID, id)
	}
}
