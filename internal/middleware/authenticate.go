// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/medlem-go/internal/i18n"
	"github.com/olegiv/medlem-go/internal/route"
	"github.com/olegiv/medlem-go/internal/session"
)

// Authenticate requires a logged-in session on every route that is not
// Public. Navigation requests are sent to the login page with the original
// path remembered in the session when it is a page that can be revisited;
// AJAX requests get a 401 JSON body.
func (g *Gates) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		m, _ := route.FromContext(ctx)

		if m.Tier() == route.Public || g.Session.IsLoggedIn(ctx) {
			next.ServeHTTP(w, r)
			return
		}

		g.denied("authenticate")
		lang := GetLang(r)

		if IsAJAX(r) {
			slog.Warn("ajax request, user not logged in",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			writeDenial(w, http.StatusUnauthorized, i18n.T(lang, "auth.login_required_ajax"))
			return
		}

		slog.Info("request to protected page, user not logged in",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)
		if m.Matched && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
			g.Session.Set(ctx, session.KeyRedirectURL, r.URL.Path)
		}
		g.Session.SetFlash(ctx, session.FlashError, i18n.T(lang, "auth.login_required"))
		redirect(w, r, g.LoginURL)
	})
}
