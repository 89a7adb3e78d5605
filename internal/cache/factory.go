package cache

import (
	"log/slog"
	"time"
)

// Backend names reported by NewCache.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds configuration for cache creation.
type Config struct {
	// RedisURL selects Redis when set, e.g. redis://localhost:6379/0.
	RedisURL string
	// Prefix is the Redis key prefix.
	Prefix string

	DefaultTTL      time.Duration
	MaxSize         int // memory only, 0 = unlimited
	CleanupInterval time.Duration
}

// DefaultConfig returns a memory cache configuration.
func DefaultConfig() Config {
	return Config{
		Prefix:          "medlem:",
		DefaultTTL:      5 * time.Minute,
		MaxSize:         1000,
		CleanupInterval: time.Minute,
	}
}

// NewCache returns a Redis cache when RedisURL is set and reachable, and a
// memory cache otherwise. A Redis failure is logged and falls back to memory.
func NewCache(cfg Config) (Cacher, string) {
	if cfg.RedisURL != "" {
		opts := DefaultRedisCacheOptions()
		opts.URL = cfg.RedisURL
		if cfg.Prefix != "" {
			opts.Prefix = cfg.Prefix
		}
		if cfg.DefaultTTL > 0 {
			opts.DefaultTTL = cfg.DefaultTTL
		}
		rc, err := NewRedisCache(opts)
		if err == nil {
			return rc, BackendRedis
		}
		slog.Warn("redis cache unavailable, falling back to memory", "error", err)
	}

	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	}), BackendMemory
}
