package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/ports"
	"github.com/gatehouse/gatehouse/internal/testutil"
	"github.com/gatehouse/gatehouse/internal/token"
)

func TestSessionStore_CreateAndFindValid(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()
	userID := uuid.New()

	sess, err := store.Create(ctx, userID, time.Hour)
	require.NoError(t, err)
	assert.Len(t, sess.ID, token.SessionIDLength)
	assert.Equal(t, userID, sess.UserID)

	found, err := store.FindValid(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, found.ID)
	assert.Equal(t, userID, found.UserID)
	assert.WithinDuration(t, sess.ExpiresAt, found.ExpiresAt, time.Second)
}

func TestSessionStore_FindMissing(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	id, err := token.NewSessionID()
	require.NoError(t, err)

	_, err = store.FindValid(ctx, id)
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	_, err = store.FindValid(ctx, "")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_NonPositiveTTLNeverPersists(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	sess, err := store.Create(ctx, uuid.New(), 0)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	_, err = store.FindValid(ctx, sess.ID)
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_LingeringExpiredKeyReadsAsAbsent(t *testing.T) {
	client := testutil.SetupTestRedis(t)

	now := testutil.TestTime()
	store := NewSessionStoreWithClock(client, func() time.Time { return now })
	ctx := context.Background()

	sess, err := store.Create(ctx, uuid.New(), time.Minute)
	require.NoError(t, err)

	// Move the application clock past expiry while the Redis key (with its
	// real one-minute TTL) is still present.
	now = now.Add(2 * time.Minute)

	_, err = store.FindValid(ctx, sess.ID)
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	// The lingering key was cleaned up on read.
	exists, err := client.Exists(ctx, "session:"+sess.ID).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}

func TestSessionStore_Delete(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	sess, err := store.Create(ctx, uuid.New(), time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.FindValid(ctx, sess.ID)
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	// Idempotent, including the empty ID.
	assert.NoError(t, store.Delete(ctx, sess.ID))
	assert.NoError(t, store.Delete(ctx, ""))
}

func TestSessionStore_DeleteAllForUser(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	userID := uuid.New()
	otherID := uuid.New()

	first, err := store.Create(ctx, userID, time.Hour)
	require.NoError(t, err)
	second, err := store.Create(ctx, userID, time.Hour)
	require.NoError(t, err)
	other, err := store.Create(ctx, otherID, time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.DeleteAllForUser(ctx, userID))

	_, err = store.FindValid(ctx, first.ID)
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
	_, err = store.FindValid(ctx, second.ID)
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	_, err = store.FindValid(ctx, other.ID)
	assert.NoError(t, err)

	// A user with no sessions is a quiet no-op.
	assert.NoError(t, store.DeleteAllForUser(ctx, uuid.New()))
}

func TestSessionStore_PurgeExpiredIsNoOp(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)

	purged, err := store.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), purged)
}
