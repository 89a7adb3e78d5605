// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides the HTTP request pipeline: CSRF validation,
// authentication and authorization gates plus the outer layers that wrap
// them (security headers, rate limiting, metrics).
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/olegiv/medlem-go/internal/i18n"
	"github.com/olegiv/medlem-go/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys.
const (
	ContextKeyRequestPath ContextKey = "request_path"
	ContextKeyLanguage    ContextKey = "language"
)

// RequestPath creates middleware that stores the request path in the context.
// This is used by the logging handler to include the URL in error logs.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, ok := ctx.Value(ContextKeyRequestPath).(string)
	if !ok {
		return ""
	}
	return path
}

// Language resolves the UI language and stores it in the context.
// Priority order:
// 1. Query parameter ?lang=XX (explicit switch, saved in the session)
// 2. Session preference
// 3. Accept-Language header
// 4. Swedish
func Language(sess session.Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			lang := ""

			if q := strings.ToLower(r.URL.Query().Get("lang")); q != "" && i18n.IsSupported(q) {
				lang = q
				sess.Set(ctx, session.KeyLang, q)
			}
			if lang == "" {
				if saved := sess.GetString(ctx, session.KeyLang); i18n.IsSupported(saved) {
					lang = saved
				}
			}
			if lang == "" {
				if accept := r.Header.Get("Accept-Language"); accept != "" {
					lang = i18n.MatchLanguage(accept)
				}
			}
			if lang == "" {
				lang = i18n.DefaultLanguage
			}

			ctx = context.WithValue(ctx, ContextKeyLanguage, lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetLang returns the language resolved by Language, or Swedish.
func GetLang(r *http.Request) string {
	if lang, ok := r.Context().Value(ContextKeyLanguage).(string); ok && lang != "" {
		return lang
	}
	return i18n.DefaultLanguage
}
