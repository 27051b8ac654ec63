package redis

// Package redis provides the Redis-backed session store. Redis evicts keys by
// TTL natively, so PurgeExpired has nothing to do here.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	domainauth "github.com/gatehouse/gatehouse/internal/domain/auth"
	"github.com/gatehouse/gatehouse/internal/ports"
	"github.com/gatehouse/gatehouse/internal/token"
)

const (
	sessionPrefix   = "session:"
	userIndexPrefix = "user_sessions:"
)

// SessionStore is a Redis-based session store for deployments that want
// session reads off the primary database. Users stay in Postgres.
type SessionStore struct {
	client       redis.UniversalClient
	timeProvider func() time.Time
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{client: client, timeProvider: time.Now}
}

// NewSessionStoreWithClock creates a Redis session store with a custom clock (useful for tests).
func NewSessionStoreWithClock(client redis.UniversalClient, clock func() time.Time) *SessionStore {
	return &SessionStore{client: client, timeProvider: clock}
}

func sessionKey(id string) string { return sessionPrefix + id }

func userIndexKey(userID uuid.UUID) string { return userIndexPrefix + userID.String() }

// Create generates a session and persists it with a native TTL. A
// non-positive ttl yields a session that is never stored: observably
// identical to an expired row that was already purged.
func (s *SessionStore) Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (domainauth.Session, error) {
	id, err := token.NewSessionID()
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("generate session id: %w", err)
	}

	now := s.timeProvider().UTC()
	sess := domainauth.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if ttl <= 0 {
		return sess, nil
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("marshal session: %w", err)
	}

	// SET NX preserves the no-reuse invariant; a collision on a fresh
	// 256-bit ID means the RNG is broken, so fail loudly rather than retry.
	ok, err := s.client.SetNX(ctx, sessionKey(id), data, ttl).Result()
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("save session: %w", err)
	}
	if !ok {
		return domainauth.Session{}, errors.New("session id already exists")
	}

	// Index for DeleteAllForUser. The index expiry is refreshed to the newest
	// session's TTL; stale members are skipped on delete.
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, userIndexKey(userID), id)
	pipe.Expire(ctx, userIndexKey(userID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return domainauth.Session{}, fmt.Errorf("index session: %w", err)
	}

	return sess, nil
}

// FindValid returns the session only if present and unexpired.
func (s *SessionStore) FindValid(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	data, err := s.client.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, ports.ErrSessionNotFound
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}

	// Redis TTL should have evicted an expired key, but the key may linger
	// briefly; the read path must still treat it as absent.
	if sess.Expired(s.timeProvider()) {
		if err := s.Delete(ctx, id); err != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", err)
		}
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	return sess, nil
}

// Delete removes a session. Idempotent.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// DeleteAllForUser removes every session indexed for the user. Idempotent.
func (s *SessionStore) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	ids, err := s.client.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read user session index: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userIndexKey(userID))

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

// PurgeExpired is a no-op: Redis TTL eviction already handles hygiene.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	return 0, nil
}
