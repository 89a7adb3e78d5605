// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session provides the per-request session used by the access gates
// and handlers. The gates depend only on the Session interface so that tests
// can inject an in-memory implementation.
package session

import (
	"context"
	"crypto/rand"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"net/http"
)

// Session keys.
const (
	KeyUserID      = "user_id"
	KeyFirstName   = "fornamn"
	KeyIsAdmin     = "is_admin"
	KeyCSRFToken   = "csrf_token"
	KeyFlash       = "flash_message"
	KeyRedirectURL = "redirect_url"
	KeyLang        = "lang"
)

// CSRFTokenBytes is the number of random bytes in a CSRF token.
// The hex encoding doubles it.
const CSRFTokenBytes = 32

// Flash types.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Type    string
	Message string
}

func init() {
	gob.Register(Flash{})
}

// Session is the request-scoped key/value store with login helpers.
// Every method except Start operates on the session loaded into ctx by Start.
type Session interface {
	// Start loads the session for the request and saves it after next returns.
	Start(next http.Handler) http.Handler

	Get(ctx context.Context, key string) any
	GetString(ctx context.Context, key string) string
	GetInt64(ctx context.Context, key string) int64
	GetBool(ctx context.Context, key string) bool
	Set(ctx context.Context, key string, val any)
	Remove(ctx context.Context, key string)

	// Destroy deletes the session data and expires the cookie.
	Destroy(ctx context.Context) error
	// Renew issues a new session id while keeping the data.
	Renew(ctx context.Context) error

	// IsLoggedIn reports whether user_id is set and non-zero.
	IsLoggedIn(ctx context.Context) bool
	// IsAdmin reports whether is_admin is exactly the boolean true.
	IsAdmin(ctx context.Context) bool

	SetFlash(ctx context.Context, flashType, message string)
	PopFlash(ctx context.Context) (Flash, bool)

	// CSRFToken returns the session's CSRF token, generating one if absent.
	CSRFToken(ctx context.Context) (string, error)
	// ClearCSRFToken removes the token so the next request issues a fresh one.
	ClearCSRFToken(ctx context.Context)
}

// NewCSRFToken returns 32 random bytes as 64 lowercase hex characters.
func NewCSRFToken() (string, error) {
	b := make([]byte, CSRFTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating csrf token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// kv is the subset of session access shared by both implementations.
type kv interface {
	GetString(ctx context.Context, key string) string
	GetInt64(ctx context.Context, key string) int64
	GetBool(ctx context.Context, key string) bool
	Set(ctx context.Context, key string, val any)
	Remove(ctx context.Context, key string)
}

func isLoggedIn(ctx context.Context, s kv) bool {
	return s.GetInt64(ctx, KeyUserID) != 0
}

func isAdmin(ctx context.Context, s kv) bool {
	return s.GetBool(ctx, KeyIsAdmin)
}

func csrfToken(ctx context.Context, s kv) (string, error) {
	if tok := s.GetString(ctx, KeyCSRFToken); tok != "" {
		return tok, nil
	}
	tok, err := NewCSRFToken()
	if err != nil {
		return "", err
	}
	s.Set(ctx, KeyCSRFToken, tok)
	return tok, nil
}
