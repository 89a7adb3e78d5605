// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"net/http"
	"sync"
)

// Memory is a single-session in-memory Session for tests. All contexts share
// the same data, which models one browser talking to the server.
type Memory struct {
	mu        sync.Mutex
	values    map[string]any
	destroyed int
	renewed   int
}

var _ Session = (*Memory)(nil)

// NewMemory returns an empty in-memory session.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]any)}
}

// Start passes the request through unchanged.
func (m *Memory) Start(next http.Handler) http.Handler { return next }

func (m *Memory) Get(_ context.Context, key string) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

func (m *Memory) GetString(ctx context.Context, key string) string {
	s, _ := m.Get(ctx, key).(string)
	return s
}

func (m *Memory) GetInt64(ctx context.Context, key string) int64 {
	n, _ := m.Get(ctx, key).(int64)
	return n
}

func (m *Memory) GetBool(ctx context.Context, key string) bool {
	b, _ := m.Get(ctx, key).(bool)
	return b
}

func (m *Memory) Set(_ context.Context, key string, val any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = val
}

func (m *Memory) Remove(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}

func (m *Memory) Destroy(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]any)
	m.destroyed++
	return nil
}

func (m *Memory) Renew(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renewed++
	return nil
}

func (m *Memory) IsLoggedIn(ctx context.Context) bool { return isLoggedIn(ctx, m) }

func (m *Memory) IsAdmin(ctx context.Context) bool { return isAdmin(ctx, m) }

func (m *Memory) SetFlash(ctx context.Context, flashType, message string) {
	m.Set(ctx, KeyFlash, Flash{Type: flashType, Message: message})
}

func (m *Memory) PopFlash(ctx context.Context) (Flash, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.values[KeyFlash].(Flash)
	delete(m.values, KeyFlash)
	return f, ok
}

func (m *Memory) CSRFToken(ctx context.Context) (string, error) { return csrfToken(ctx, m) }

func (m *Memory) ClearCSRFToken(ctx context.Context) { m.Remove(ctx, KeyCSRFToken) }

// Destroyed returns how many times Destroy was called.
func (m *Memory) Destroyed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.destroyed
}

// Renewed returns how many times Renew was called.
func (m *Memory) Renewed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renewed
}

// Has reports whether key is present.
func (m *Memory) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	return ok
}
