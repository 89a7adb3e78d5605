// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import "net/http"

// Middleware wraps a handler. A middleware short-circuits by writing a
// response and not calling next.
type Middleware = func(http.Handler) http.Handler

// Chain composes middleware left to right: the first element is the
// outermost and sees the request first.
func Chain(mw ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		h := final
		for i := len(mw) - 1; i >= 0; i-- {
			h = mw[i](h)
		}
		return h
	}
}
