// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Options configures the scs-backed session manager.
type Options struct {
	Lifetime    time.Duration
	IdleTimeout time.Duration
	IsDev       bool
}

// Manager is the production Session backed by scs and the sessions table.
type Manager struct {
	sm *scs.SessionManager
}

var _ Session = (*Manager)(nil)

// New creates a new session manager configured with SQLite store.
func New(db *sql.DB, opts Options) *Manager {
	sm := scs.New()

	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	if opts.Lifetime > 0 {
		sm.Lifetime = opts.Lifetime
	}
	sm.IdleTimeout = opts.IdleTimeout
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !opts.IsDev
	if !opts.IsDev {
		// __Host- requires Secure, Path=/ and no Domain.
		sm.Cookie.Name = "__Host-session"
	}
	sm.ErrorFunc = func(w http.ResponseWriter, r *http.Request, err error) {
		slog.Error("session store failure", "error", err, "method", r.Method, "path", r.URL.Path)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}

	return &Manager{sm: sm}
}

// Wrap adapts an existing scs manager, mainly for tests that use scs.New()
// with its in-memory store.
func Wrap(sm *scs.SessionManager) *Manager {
	return &Manager{sm: sm}
}

// SCS exposes the underlying scs manager.
func (m *Manager) SCS() *scs.SessionManager { return m.sm }

// Load loads the session identified by token into ctx. An empty token starts
// a new session. Handlers never call this; it exists for tests and CLI tools.
func (m *Manager) Load(ctx context.Context, token string) (context.Context, error) {
	return m.sm.Load(ctx, token)
}

func (m *Manager) Start(next http.Handler) http.Handler { return m.sm.LoadAndSave(next) }

func (m *Manager) Get(ctx context.Context, key string) any { return m.sm.Get(ctx, key) }

func (m *Manager) GetString(ctx context.Context, key string) string {
	return m.sm.GetString(ctx, key)
}

func (m *Manager) GetInt64(ctx context.Context, key string) int64 {
	return m.sm.GetInt64(ctx, key)
}

func (m *Manager) GetBool(ctx context.Context, key string) bool { return m.sm.GetBool(ctx, key) }

func (m *Manager) Set(ctx context.Context, key string, val any) { m.sm.Put(ctx, key, val) }

func (m *Manager) Remove(ctx context.Context, key string) { m.sm.Remove(ctx, key) }

func (m *Manager) Destroy(ctx context.Context) error { return m.sm.Destroy(ctx) }

func (m *Manager) Renew(ctx context.Context) error { return m.sm.RenewToken(ctx) }

func (m *Manager) IsLoggedIn(ctx context.Context) bool { return isLoggedIn(ctx, m) }

func (m *Manager) IsAdmin(ctx context.Context) bool { return isAdmin(ctx, m) }

func (m *Manager) SetFlash(ctx context.Context, flashType, message string) {
	m.sm.Put(ctx, KeyFlash, Flash{Type: flashType, Message: message})
}

func (m *Manager) PopFlash(ctx context.Context) (Flash, bool) {
	f, ok := m.sm.Pop(ctx, KeyFlash).(Flash)
	return f, ok
}

func (m *Manager) CSRFToken(ctx context.Context) (string, error) { return csrfToken(ctx, m) }

func (m *Manager) ClearCSRFToken(ctx context.Context) { m.sm.Remove(ctx, KeyCSRFToken) }
