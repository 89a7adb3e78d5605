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

// Authorize enforces the admin tier. It runs after Authenticate and does
// not check login itself. Requests that matched no route are refused here
// and never reach a handler.
func (g *Gates) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		lang := GetLang(r)

		m, ok := route.FromContext(ctx)
		if !ok || !m.Matched {
			g.denied("authorize")
			slog.Info("no route matched",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			if IsAJAX(r) {
				writeDenial(w, http.StatusNotFound, i18n.T(lang, "error.not_found"))
				return
			}
			g.notFound(w, r)
			return
		}

		switch {
		case m.Tier() == route.Public,
			m.Tier() == route.RequiresLogin,
			g.Session.IsAdmin(ctx):
			next.ServeHTTP(w, r)
			return
		}

		g.denied("authorize")
		slog.Info("user is not admin",
			"path", r.URL.Path,
			"route", m.Name(),
			"remote_addr", r.RemoteAddr,
			"user_id", g.Session.GetInt64(ctx, session.KeyUserID),
		)

		if IsAJAX(r) {
			writeDenial(w, http.StatusUnauthorized, i18n.T(lang, "auth.admin_required_ajax"))
			return
		}

		g.Session.SetFlash(ctx, session.FlashError, i18n.T(lang, "auth.admin_required"))
		redirect(w, r, g.UserHomeURL)
	})
}
