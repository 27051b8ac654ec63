package data

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/ports"
	"github.com/gatehouse/gatehouse/internal/testutil"
)

const testHash = "$argon2id$v=19$m=65536,t=3,p=4$c2FsdHNhbHRzYWx0c2Fs$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g"

func TestUserRepo_Integration_CreateAndFind(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		// Callers hand the repo already-normalized emails; it stores them
		// verbatim.
		user, err := repo.Create(ctx, "user@example.com", testHash)
		require.NoError(t, err)

		assert.Equal(t, "user@example.com", user.Email)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.False(t, user.CreatedAt.IsZero())

		byEmail, err := repo.FindByEmail(ctx, "user@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
		assert.Equal(t, testHash, byEmail.PasswordHash)

		byID, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byID.Email)
	})
}

func TestUserRepo_Integration_DuplicateEmail(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		_, err := repo.Create(ctx, "user@example.com", testHash)
		require.NoError(t, err)

		_, err = repo.Create(ctx, "user@example.com", testHash)
		assert.ErrorIs(t, err, ports.ErrDuplicateEmail)
	})
}

func TestUserRepo_Integration_ConcurrentCreateSameEmail(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		// The unique constraint arbitrates: one insert lands, the other
		// surfaces as a duplicate.
		const racers = 2
		errs := make(chan error, racers)
		var wg sync.WaitGroup
		for range racers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Create(ctx, "user@example.com", testHash)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		var ok, dup int
		for err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ports.ErrDuplicateEmail):
				dup++
			default:
				t.Fatalf("unexpected create error: %v", err)
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, dup)
	})
}

func TestUserRepo_Integration_EmailsStoredVerbatim(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		// The repo applies no normalization and the unique constraint is
		// case-sensitive; case-insensitive collision lives in the service.
		user, err := repo.Create(ctx, "User@Example.COM", testHash)
		require.NoError(t, err)
		assert.Equal(t, "User@Example.COM", user.Email)

		_, err = repo.Create(ctx, "user@example.com", testHash)
		require.NoError(t, err)

		_, err = repo.FindByEmail(ctx, "USER@example.com")
		assert.ErrorIs(t, err, ports.ErrUserNotFound)
	})
}

func TestUserRepo_Integration_FindMissing(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		_, err := repo.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ports.ErrUserNotFound)

		_, err = repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ports.ErrUserNotFound)
	})
}

func TestUserRepo_Integration_UpdatePasswordHash(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		user, err := repo.Create(ctx, "user@example.com", testHash)
		require.NoError(t, err)

		newHash := "$argon2id$v=19$m=131072,t=4,p=4$bmV3c2FsdG5ld3NhbHQ$bmV3aGFzaG5ld2hhc2huZXdoYXNobmV3aGFzaA"
		require.NoError(t, repo.UpdatePasswordHash(ctx, user.ID, newHash))

		stored, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, newHash, stored.PasswordHash)

		err = repo.UpdatePasswordHash(ctx, uuid.New(), newHash)
		assert.ErrorIs(t, err, ports.ErrUserNotFound)
	})
}

func TestUserRepo_Integration_DeletingUserCascadesSessions(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		users := NewUserRepo(db)
		sessions := NewSessionRepo(db)
		ctx := context.Background()

		user, err := users.Create(ctx, "user@example.com", testHash)
		require.NoError(t, err)
		sess, err := sessions.Create(ctx, user.ID, time.Hour)
		require.NoError(t, err)

		_, err = db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", user.ID)
		require.NoError(t, err)

		// ON DELETE CASCADE takes the session with the account.
		_, err = sessions.FindValid(ctx, sess.ID)
		assert.ErrorIs(t, err, ports.ErrSessionNotFound)
	})
}
