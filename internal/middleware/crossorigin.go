// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"

	"filippo.io/csrf/gorilla"
)

// CrossOriginConfig holds configuration for Fetch-metadata origin checks.
// This layer complements the session token gate: it rejects cross-site
// state-changing requests before any session is loaded.
type CrossOriginConfig struct {
	// AuthKey is a 32-byte key required by the gorilla-compatible API.
	AuthKey []byte

	// ErrorHandler is called when the origin check fails.
	ErrorHandler http.Handler

	// TrustedOrigins lists host:port values allowed to make cross-origin requests.
	TrustedOrigins []string

	// ExemptPrefixes skip the check entirely (webhooks signed by other means).
	ExemptPrefixes []string
}

// DefaultCrossOriginConfig returns a CrossOriginConfig with sensible defaults.
func DefaultCrossOriginConfig(authKey []byte, isDev bool, exempt []string) CrossOriginConfig {
	cfg := CrossOriginConfig{
		AuthKey:        authKey,
		ExemptPrefixes: exempt,
	}

	// Note: csrf library expects host-only values, not full URLs
	if isDev {
		cfg.TrustedOrigins = []string{
			"localhost:8080",
			"127.0.0.1:8080",
		}
	}

	return cfg
}

// CrossOrigin returns middleware backed by filippo.io/csrf/gorilla, which
// uses Sec-Fetch-Site and Origin headers instead of cookies.
func CrossOrigin(cfg CrossOriginConfig) func(http.Handler) http.Handler {
	var opts []csrf.Option

	if cfg.ErrorHandler != nil {
		opts = append(opts, csrf.ErrorHandler(cfg.ErrorHandler))
	} else {
		opts = append(opts, csrf.ErrorHandler(http.HandlerFunc(crossOriginErrorHandler)))
	}

	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}

	protect := csrf.Protect(cfg.AuthKey, opts...)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hasPathPrefix(r.URL.Path, cfg.ExemptPrefixes) {
				r = csrf.UnsafeSkipCheck(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

// crossOriginErrorHandler handles origin check failures.
func crossOriginErrorHandler(w http.ResponseWriter, r *http.Request) {
	reason := csrf.FailureReason(r)
	reasonStr := "unknown"
	if reason != nil {
		reasonStr = reason.Error()
	}
	slog.Warn("cross-origin request rejected",
		"reason", reasonStr,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	if IsAJAX(r) {
		writeDenial(w, http.StatusForbidden, http.StatusText(http.StatusForbidden))
		return
	}
	http.Error(w, "Forbidden - cross-origin request rejected", http.StatusForbidden)
}
