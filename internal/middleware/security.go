// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// turnstileOrigin serves the captcha script and iframe.
const turnstileOrigin = "https://challenges.cloudflare.com"

// SecurityHeadersConfig holds configuration for security headers.
type SecurityHeadersConfig struct {
	// IsDevelopment disables HSTS.
	IsDevelopment bool

	// ContentSecurityPolicy is sent as is when not empty.
	ContentSecurityPolicy string

	// HSTSMaxAge in seconds. Zero disables HSTS.
	HSTSMaxAge            int
	HSTSIncludeSubDomains bool
	HSTSPreload           bool

	// FrameOptions is DENY, SAMEORIGIN or empty.
	FrameOptions      string
	ReferrerPolicy    string
	PermissionsPolicy string

	// NoStore marks responses as not cacheable. Member data must not end up
	// in shared caches; the static file handler overrides it.
	NoStore bool

	// ExcludePaths are path prefixes that get no headers (the metrics
	// endpoint, for instance).
	ExcludePaths []string
}

// cspDirective is one name/value pair of a Content-Security-Policy.
type cspDirective struct {
	name, value string
}

// DefaultSecurityHeadersConfig returns the headers used by the server.
func DefaultSecurityHeadersConfig(isDev bool) SecurityHeadersConfig {
	scriptSrc := "'self' " + turnstileOrigin
	if isDev {
		scriptSrc = "'self' 'unsafe-inline' " + turnstileOrigin
	}

	return SecurityHeadersConfig{
		IsDevelopment:         isDev,
		HSTSMaxAge:            31536000,
		HSTSIncludeSubDomains: !isDev,
		FrameOptions:          "SAMEORIGIN",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		NoStore:               true,
		ContentSecurityPolicy: joinCSP([]cspDirective{
			{"default-src", "'self'"},
			{"script-src", scriptSrc},
			{"style-src", "'self' 'unsafe-inline'"},
			{"img-src", "'self' data:"},
			{"font-src", "'self' data:"},
			{"connect-src", "'self' " + turnstileOrigin},
			{"frame-src", turnstileOrigin},
			{"object-src", "'none'"},
			{"base-uri", "'self'"},
			{"form-action", "'self'"},
			{"frame-ancestors", "'self'"},
		}),
		PermissionsPolicy: buildPermissionsPolicy(map[string]string{
			"accelerometer":   "()",
			"browsing-topics": "()",
			"camera":          "()",
			"geolocation":     "()",
			"gyroscope":       "()",
			"magnetometer":    "()",
			"microphone":      "()",
			"payment":         "()",
			"usb":             "()",
		}),
	}
}

func joinCSP(directives []cspDirective) string {
	parts := make([]string, len(directives))
	for i, d := range directives {
		parts[i] = d.name + " " + d.value
	}
	return strings.Join(parts, "; ")
}

// buildPermissionsPolicy renders policies sorted by feature name.
func buildPermissionsPolicy(policies map[string]string) string {
	keys := make([]string, 0, len(policies))
	for key := range policies {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+policies[key])
	}
	return strings.Join(parts, ", ")
}

// headers returns the fixed header set for cfg.
func (cfg SecurityHeadersConfig) headers() http.Header {
	h := make(http.Header)
	set := func(name, value string) {
		if value != "" {
			h.Set(name, value)
		}
	}

	set("Content-Security-Policy", cfg.ContentSecurityPolicy)
	set("X-Frame-Options", cfg.FrameOptions)
	set("X-Content-Type-Options", "nosniff")
	set("Referrer-Policy", cfg.ReferrerPolicy)
	set("Permissions-Policy", cfg.PermissionsPolicy)

	if !cfg.IsDevelopment && cfg.HSTSMaxAge > 0 {
		hsts := "max-age=" + strconv.Itoa(cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubDomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
		set("Strict-Transport-Security", hsts)
	}
	if cfg.NoStore {
		set("Cache-Control", "no-store")
	}
	return h
}

// SecurityHeaders adds the configured headers to every response outside
// the excluded paths.
func SecurityHeaders(cfg SecurityHeadersConfig) func(http.Handler) http.Handler {
	fixed := cfg.headers()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range cfg.ExcludePaths {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			dst := w.Header()
			for name, values := range fixed {
				dst[name] = values
			}
			next.ServeHTTP(w, r)
		})
	}
}
