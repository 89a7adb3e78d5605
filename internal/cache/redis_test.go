package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redisURL returns MEDLEM_TEST_REDIS_URL or skips the test.
func redisURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("MEDLEM_TEST_REDIS_URL")
	if url == "" {
		t.Skip("MEDLEM_TEST_REDIS_URL not set")
	}
	return url
}

func TestRedisCache_Operations(t *testing.T) {
	opts := DefaultRedisCacheOptions()
	opts.URL = redisURL(t)
	opts.Prefix = "medlem-test:"

	c, err := NewRedisCache(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Clear(ctx))

	require.NoError(t, c.Set(ctx, "roles:all", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "roles:all")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	require.NoError(t, c.DeleteByPrefix(ctx, "roles:"))
	_, err = c.Get(ctx, "roles:all")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Ping(ctx))
}

func TestNewRedisCache_RequiresURL(t *testing.T) {
	_, err := NewRedisCache(RedisCacheOptions{})
	assert.Error(t, err)
}

func TestNewCache_FallsBackToMemory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RedisURL = "redis://127.0.0.1:1/0"

	c, backend := NewCache(cfg)
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, BackendMemory, backend)
	assert.IsType(t, &MemoryCache{}, c)
}

func TestNewCache_Memory(t *testing.T) {
	c, backend := NewCache(DefaultConfig())
	t.Cleanup(func() { _ = c.Close() })
	assert.Equal(t, BackendMemory, backend)
}
