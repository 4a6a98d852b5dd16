//go:build integration

package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redeco/internal/sentinel"
	"redeco/pkg/testutil/containers"
)

func TestRedisStore_Integration(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedis(rc.Client)
	ctx := context.Background()

	t.Run("save and find round-trips", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		sess := &Session{
			ID:        uuid.New(),
			Token:     "tok-redis",
			Device:    "Firefox on Linux",
			Flashes:   []Flash{{Level: FlashInfo, Message: "hola"}},
			CreatedAt: time.Now(),
			ExpiresAt: time.Now().Add(time.Hour),
		}
		require.NoError(t, store.Save(ctx, sess))

		found, err := store.Find(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.Token, found.Token)
		assert.Equal(t, sess.Device, found.Device)
		require.Len(t, found.Flashes, 1)
		assert.Equal(t, "hola", found.Flashes[0].Message)
		assert.WithinDuration(t, sess.ExpiresAt, found.ExpiresAt, time.Millisecond)
	})

	t.Run("unknown session is not found", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		_, err := store.Find(ctx, uuid.New())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("delete removes the key", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		sess := &Session{ID: uuid.New(), ExpiresAt: time.Now().Add(time.Hour)}
		require.NoError(t, store.Save(ctx, sess))
		require.NoError(t, store.Delete(ctx, sess.ID))

		_, err := store.Find(ctx, sess.ID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("key TTL tracks session expiry", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		sess := &Session{ID: uuid.New(), ExpiresAt: time.Now().Add(time.Hour)}
		require.NoError(t, store.Save(ctx, sess))

		ttl, err := rc.Client.TTL(ctx, sessionKeyPrefix+sess.ID.String()).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 50*time.Minute)
		assert.LessOrEqual(t, ttl, time.Hour)
	})
}
