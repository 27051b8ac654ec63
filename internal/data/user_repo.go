package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gatehouse/gatehouse/internal/data/pgxutil"
	domainauth "github.com/gatehouse/gatehouse/internal/domain/auth"
	"github.com/gatehouse/gatehouse/internal/ports"
)

// UserRepo provides database operations for users. Callers pass emails
// already normalized; the repo treats them as opaque.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ ports.UserRepository = (*UserRepo)(nil)

// NewUserRepo creates a new UserRepo with real time provider.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a new UserRepo with a custom time provider (useful for tests).
func NewUserRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: tp}
}

const userColumns = `id, email, password_hash, created_at`

// Create inserts a new user. The email uniqueness constraint is the single
// authority on duplicates; concurrent signups with the same email race here
// and exactly one wins.
func (r *UserRepo) Create(ctx context.Context, email, passwordHash string) (domainauth.User, error) {
	var out domainauth.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO users (id, email, password_hash, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING `+userColumns,
			uuid.New(),
			email,
			passwordHash,
			r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[domainauth.User])
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domainauth.User{}, ports.ErrDuplicateEmail
		}
		return domainauth.User{}, fmt.Errorf("create user: %w", err)
	}
	return out, nil
}

// FindByEmail retrieves a user by normalized email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (domainauth.User, error) {
	return r.getByQuery(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1`, "get user by email", email)
}

// FindByID retrieves a user by ID.
func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (domainauth.User, error) {
	return r.getByQuery(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1`, "get user by id", id)
}

// UpdatePasswordHash replaces a user's stored credential hash.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	var affected int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
		if err != nil {
			return err
		}
		affected = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if affected == 0 {
		return ports.ErrUserNotFound
	}
	return nil
}

// getByQuery executes a single-row user query with sentinel mapping.
func (r *UserRepo) getByQuery(ctx context.Context, q, errMsg string, args ...any) (domainauth.User, error) {
	var user domainauth.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		user, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[domainauth.User])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainauth.User{}, ports.ErrUserNotFound
		}
		return domainauth.User{}, fmt.Errorf("%s: %w", errMsg, err)
	}
	return user, nil
}
