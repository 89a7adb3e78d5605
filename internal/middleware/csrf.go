// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/olegiv/medlem-go/internal/i18n"
	"github.com/olegiv/medlem-go/internal/session"
)

// CSRF field and header names.
const (
	CSRFFieldName  = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
)

// maxJSONTokenBody bounds how much of a JSON body is read to find the token.
const maxJSONTokenBody = 1 << 20

// MaxFormBody bounds url-encoded and multipart bodies on state-changing
// requests. The gate parses them before authentication, so the limit holds
// for anonymous clients too.
const MaxFormBody = 10 << 20

// CSRF issues the session token on every request and validates it on
// state-changing methods outside the exempt prefixes.
//
// The token is read from the form field, then a JSON body property, then the
// X-CSRF-Token header. A missing token is a mismatch.
func (g *Gates) CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		// Issue before any exemption so every page can embed a token.
		expected, err := g.Session.CSRFToken(ctx)
		if err != nil {
			slog.Error("failed to issue csrf token", "error", err, "path", r.URL.Path)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if !isStateChanging(r.Method) || g.csrfExempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		submitted, err := submittedCSRFToken(w, r)
		if err != nil {
			slog.Warn("unreadable form body", "error", err, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
		}
		if err == nil && submitted != "" && subtle.ConstantTimeCompare([]byte(submitted), []byte(expected)) == 1 {
			next.ServeHTTP(w, r)
			return
		}

		g.denied("csrf")
		slog.Warn("csrf token mismatch",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"token_present", submitted != "",
		)

		lang := GetLang(r)
		if IsAJAX(r) {
			writeDenial(w, http.StatusForbidden, i18n.T(lang, "csrf.invalid"))
			return
		}
		g.Session.SetFlash(ctx, session.FlashError, i18n.T(lang, "csrf.invalid"))
		redirect(w, r, g.ErrorURL)
	})
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// csrfExempt matches whole path segments, so /webhooks covers /webhooks and
// /webhooks/github but not /webhooksx.
func (g *Gates) csrfExempt(path string) bool {
	return hasPathPrefix(path, g.CSRFExemptPrefixes)
}

func hasPathPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.TrimSuffix(p, "/")
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// submittedCSRFToken returns the token sent with r. A form body that is
// malformed or larger than MaxFormBody is an error.
func submittedCSRFToken(w http.ResponseWriter, r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		if tok := jsonCSRFToken(r); tok != "" {
			return tok, nil
		}
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := parseLimitedForm(w, r, mediaType); err != nil {
			return "", err
		}
		if tok := r.PostForm.Get(CSRFFieldName); tok != "" {
			return tok, nil
		}
	}

	return r.Header.Get(CSRFHeaderName), nil
}

// parseLimitedForm parses the body once, capped at MaxFormBody. Handlers
// see the parsed form and never read past the cap.
func parseLimitedForm(w http.ResponseWriter, r *http.Request, mediaType string) error {
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, MaxFormBody)
	}
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(MaxFormBody)
	}
	return r.ParseForm()
}

// jsonCSRFToken reads the csrf_token property and restores the body so the
// handler can decode it again.
func jsonCSRFToken(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	orig := r.Body
	body, err := io.ReadAll(io.LimitReader(orig, maxJSONTokenBody))
	// Anything past the limit stays unread in orig.
	r.Body = readCloser{io.MultiReader(bytes.NewReader(body), orig), orig}
	if err != nil || len(body) == maxJSONTokenBody {
		return ""
	}

	var payload struct {
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.CSRFToken
}

type readCloser struct {
	io.Reader
	io.Closer
}
