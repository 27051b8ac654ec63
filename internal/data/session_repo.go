package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gatehouse/gatehouse/internal/data/pgxutil"
	domainauth "github.com/gatehouse/gatehouse/internal/domain/auth"
	"github.com/gatehouse/gatehouse/internal/ports"
	"github.com/gatehouse/gatehouse/internal/token"
)

// createAttempts bounds retries on a session ID collision. With 256-bit IDs a
// single retry is already astronomically unlikely; hitting the bound means the
// RNG is broken and failing loudly is the only sane response.
const createAttempts = 3

// ErrIDCollision is returned when session ID generation keeps colliding.
var ErrIDCollision = errors.New("session ID generation collided repeatedly")

// SessionRepo is the Postgres-backed session store. Expiry filtering happens
// in every read query, so an expired-but-present row is indistinguishable
// from an absent one regardless of purge timing.
type SessionRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ ports.SessionStore = (*SessionRepo)(nil)

// NewSessionRepo creates a new SessionRepo with real time provider.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewSessionRepoWithTimeProvider creates a new SessionRepo with a custom time provider (useful for tests).
func NewSessionRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *SessionRepo {
	return &SessionRepo{DB: db, timeProvider: tp}
}

// Create persists a new session for the user expiring ttl from now. The
// insert is a single atomic write; an aborted request leaves no partial row.
func (r *SessionRepo) Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (domainauth.Session, error) {
	now := r.timeProvider.Now().UTC()

	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		id, err := token.NewSessionID()
		if err != nil {
			return domainauth.Session{}, fmt.Errorf("generate session id: %w", err)
		}

		sess, err := r.insert(ctx, domainauth.Session{
			ID:        id,
			UserID:    userID,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		})
		if err == nil {
			return sess, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			lastErr = err
			continue
		}
		return domainauth.Session{}, fmt.Errorf("create session: %w", err)
	}
	return domainauth.Session{}, fmt.Errorf("%w: %w", ErrIDCollision, lastErr)
}

func (r *SessionRepo) insert(ctx context.Context, sess domainauth.Session) (domainauth.Session, error) {
	var out domainauth.Session
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO sessions (id, user_id, created_at, expires_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id, user_id, created_at, expires_at`,
			sess.ID, sess.UserID, sess.CreatedAt, sess.ExpiresAt,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[domainauth.Session])
		return err
	})
	return out, err
}

// FindValid returns the session only if it exists and is unexpired. The
// expiry predicate lives in the query so the check and the read are one
// consistent snapshot.
func (r *SessionRepo) FindValid(ctx context.Context, id string) (domainauth.Session, error) {
	var sess domainauth.Session
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, user_id, created_at, expires_at
			FROM sessions
			WHERE id = $1 AND expires_at > $2`,
			id, r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		sess, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[domainauth.Session])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainauth.Session{}, ports.ErrSessionNotFound
		}
		return domainauth.Session{}, fmt.Errorf("find session: %w", err)
	}
	return sess, nil
}

// Delete removes a session by ID. Idempotent.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteAllForUser removes every session belonging to the user. Idempotent.
func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete sessions for user: %w", err)
	}
	return nil
}

// PurgeExpired removes expired session rows and returns the count.
func (r *SessionRepo) PurgeExpired(ctx context.Context) (int64, error) {
	var purged int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`,
			r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		purged = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return purged, nil
}
