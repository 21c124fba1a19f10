package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evocrm/internal/common/logger"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionStoreRoundTrip(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewSessionStore(client, time.Hour, logger.NewNoOpLogger())

	token, err := store.Create(context.Background(), "u1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := store.Get(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestSessionStoreUnknownToken(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewSessionStore(client, time.Hour, logger.NewNoOpLogger())

	userID, err := store.Get(context.Background(), "not-a-token")
	require.NoError(t, err)
	assert.Empty(t, userID)
}

func TestSessionStoreExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewSessionStore(client, time.Minute, logger.NewNoOpLogger())

	token, err := store.Create(context.Background(), "u1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	userID, err := store.Get(context.Background(), token)
	require.NoError(t, err)
	assert.Empty(t, userID)
}

func TestSessionStoreDelete(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewSessionStore(client, time.Hour, logger.NewNoOpLogger())

	token, err := store.Create(context.Background(), "u1")
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), token))

	userID, err := store.Get(context.Background(), token)
	require.NoError(t, err)
	assert.Empty(t, userID)
}

func TestContactCache(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewContactCache(client, time.Minute, logger.NewNoOpLogger())

	_, hit := cache.Get(context.Background(), "u1")
	assert.False(t, hit)

	payload := []interface{}{
		map[string]interface{}{"id": "5511999999999@s.whatsapp.net", "pushName": "Alice"},
	}
	cache.Set(context.Background(), "u1", payload)

	cached, hit := cache.Get(context.Background(), "u1")
	require.True(t, hit)
	assert.Equal(t, payload, cached)

	mr.FastForward(2 * time.Minute)
	_, hit = cache.Get(context.Background(), "u1")
	assert.False(t, hit)
}

func TestContactCacheInvalidate(t *testing.T) {
	_, client := newTestRedis(t)
	cache := NewContactCache(client, time.Minute, logger.NewNoOpLogger())

	cache.Set(context.Background(), "u1", []interface{}{"x"})
	cache.Invalidate(context.Background(), "u1")

	_, hit := cache.Get(context.Background(), "u1")
	assert.False(t, hit)
}
