// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"

	"github.com/olegiv/medlem-go/internal/session"
)

// Gates holds the collaborators shared by the CSRF, authentication and
// authorization gates.
type Gates struct {
	Session session.Session

	// Redirect targets for navigation denials.
	LoginURL    string
	UserHomeURL string
	ErrorURL    string

	// CSRFExemptPrefixes are path prefixes that skip token validation.
	CSRFExemptPrefixes []string

	// NotFound renders the page for unmatched routes. Defaults to http.NotFound.
	NotFound http.Handler

	// Metrics counts denials. May be nil.
	Metrics *Metrics
}

// Pipeline returns the gates in their fixed order: CSRF, authentication,
// authorization. route.Table.Resolver must run before it.
func (g *Gates) Pipeline() Middleware {
	return Chain(g.CSRF, g.Authenticate, g.Authorize)
}

func (g *Gates) notFound(w http.ResponseWriter, r *http.Request) {
	if g.NotFound != nil {
		g.NotFound.ServeHTTP(w, r)
		return
	}
	http.NotFound(w, r)
}

func (g *Gates) denied(gate string) {
	g.Metrics.Denied(gate)
}
