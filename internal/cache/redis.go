// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint for SCAN during prefix deletes.
const scanBatch = 100

// RedisCache is a Cacher backed by Redis, for deployments where several
// processes share one database.
type RedisCache struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
	closed     atomic.Bool

	hits, misses, sets atomic.Int64
}

// RedisCacheOptions configures the Redis cache. Zero durations keep the
// go-redis defaults, except ConnectTimeout which also bounds the startup ping.
type RedisCacheOptions struct {
	URL            string // redis://localhost:6379/0
	Prefix         string
	DefaultTTL     time.Duration
	PoolSize       int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// DefaultRedisCacheOptions returns the options used by NewCache.
func DefaultRedisCacheOptions() RedisCacheOptions {
	return RedisCacheOptions{
		Prefix:         "medlem:",
		DefaultTTL:     5 * time.Minute,
		PoolSize:       10,
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    3 * time.Second,
		WriteTimeout:   3 * time.Second,
	}
}

func (o RedisCacheOptions) clientOptions() (*redis.Options, error) {
	ro, err := redis.ParseURL(o.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	ro.DialTimeout = o.ConnectTimeout
	if o.PoolSize > 0 {
		ro.PoolSize = o.PoolSize
	}
	if o.ReadTimeout > 0 {
		ro.ReadTimeout = o.ReadTimeout
	}
	if o.WriteTimeout > 0 {
		ro.WriteTimeout = o.WriteTimeout
	}
	return ro, nil
}

// NewRedisCache connects to Redis and fails unless the server answers a ping.
func NewRedisCache(opts RedisCacheOptions) (*RedisCache, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL is required")
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	ro, err := opts.clientOptions()
	if err != nil {
		return nil, err
	}

	c := &RedisCache{
		client:     redis.NewClient(ro),
		prefix:     opts.Prefix,
		defaultTTL: opts.DefaultTTL,
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		_ = c.client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return c, nil
}

func (c *RedisCache) key(k string) string { return c.prefix + k }

func (c *RedisCache) usable() error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	return nil
}

// Get returns the stored bytes or ErrCacheMiss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.misses.Add(1)
		return nil, ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	c.hits.Add(1)
	return val, nil
}

// Set stores value. A non-positive ttl uses the default.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.usable(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	c.sets.Add(1)
	return nil
}

// Delete removes a key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.usable(); err != nil {
		return err
	}
	return c.client.Del(ctx, c.key(key)).Err()
}

// DeleteByPrefix removes every key under prefix.
func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	if err := c.usable(); err != nil {
		return err
	}
	return c.unlinkMatching(ctx, c.key(prefix)+"*")
}

// Clear removes every key owned by this cache.
func (c *RedisCache) Clear(ctx context.Context) error {
	return c.DeleteByPrefix(ctx, "")
}

// unlinkMatching walks the keyspace with SCAN and unlinks each batch, so a
// large database is never blocked by KEYS.
func (c *RedisCache) unlinkMatching(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := c.client.Unlink(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return flush()
}

// Has reports whether key exists.
func (c *RedisCache) Has(ctx context.Context, key string) (bool, error) {
	if err := c.usable(); err != nil {
		return false, err
	}
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	return n > 0, err
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.usable(); err != nil {
		return err
	}
	return c.client.Ping(ctx).Err()
}

// Close closes the connection pool. Later calls are no-ops.
func (c *RedisCache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.client.Close()
}

// Stats returns the counters of this process. Items is not tracked.
func (c *RedisCache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	return Stats{Hits: hits, Misses: misses, Sets: c.sets.Load(), HitRate: hitRate(hits, misses)}
}

// ResetStats zeroes the counters.
func (c *RedisCache) ResetStats() {
	for _, n := range []*atomic.Int64{&c.hits, &c.misses, &c.sets} {
		n.Store(0)
	}
}

var (
	_ Cacher        = (*RedisCache)(nil)
	_ StatsProvider = (*RedisCache)(nil)
	_ Pinger        = (*RedisCache)(nil)
)
