// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStaticCache(t *testing.T) {
	css := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		_, _ = w.Write([]byte("body{margin:0}"))
	})

	tests := map[string]struct {
		maxAge time.Duration
		isDev  bool
		want   string
	}{
		"thirty days": {30 * 24 * time.Hour, false, "public, max-age=2592000"},
		"one hour":    {time.Hour, false, "public, max-age=3600"},
		"zero":        {0, false, "public, max-age=0"},
		"development": {time.Hour, true, "no-cache"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			StaticCache(tt.maxAge, tt.isDev)(css).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))

			if got := rec.Header().Get("Cache-Control"); got != tt.want {
				t.Errorf("Cache-Control = %q, want %q", got, tt.want)
			}
			if rec.Code != http.StatusOK || rec.Body.String() != "body{margin:0}" {
				t.Errorf("response changed: %d %q", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "text/css" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestStaticCache_OverridesNoStore(t *testing.T) {
	inner := StaticCache(time.Hour, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h := SecurityHeaders(DefaultSecurityHeadersConfig(false))(inner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", got)
	}
}
