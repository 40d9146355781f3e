package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, "storefront", ttl), mr
}

func TestRedisStore(t *testing.T) {
	r, _ := setupTestRedis(t, 0)
	exerciseStore(t, r)
}

func TestRedisNamespaceKeys(t *testing.T) {
	r, mr := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	s := r.Namespace("sess-1")
	require.NoError(t, s.Set(ctx, "cart", []byte(`[]`)))

	assert.True(t, mr.Exists("storefront:sess-1:cart"))
	assert.Equal(t, time.Hour, mr.TTL("storefront:sess-1:cart"))

	mr.FastForward(2 * time.Hour)
	_, ok, err := s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisGetError(t *testing.T) {
	r, mr := setupTestRedis(t, 0)
	mr.Close()

	_, _, err := r.Get(context.Background(), "cart")
	assert.Error(t, err)
}
