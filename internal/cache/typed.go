// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"
)

// TypedCache stores values of type T as JSON in a Cacher. Concurrent misses
// on the same key share one load.
type TypedCache[T any] struct {
	backend Cacher
	ttl     time.Duration
	loads   singleflight.Group
}

// NewTypedCache wraps backend. Values are stored with ttl.
func NewTypedCache[T any](backend Cacher, ttl time.Duration) *TypedCache[T] {
	return &TypedCache[T]{backend: backend, ttl: ttl}
}

// Get returns the cached value. A value that no longer decodes is a miss.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var v T
	data, err := c.backend.Get(ctx, key)
	if err != nil || json.Unmarshal(data, &v) != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// Set stores value.
func (c *TypedCache[T]) Set(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.backend.Set(ctx, key, data, c.ttl)
}

// Delete removes key.
func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return c.backend.Delete(ctx, key)
}

// GetOrSet returns the cached value or loads and stores it. Errors from load
// are returned and nothing is cached; a failed store is ignored.
func (c *TypedCache[T]) GetOrSet(ctx context.Context, key string, load func() (T, error)) (T, error) {
	if v, ok := c.Get(ctx, key); ok {
		return v, nil
	}

	res, err, _ := c.loads.Do(key, func() (any, error) {
		v, err := load()
		if err != nil {
			return v, err
		}
		_ = c.Set(ctx, key, v)
		return v, nil
	})
	v, _ := res.(T)
	return v, err
}
