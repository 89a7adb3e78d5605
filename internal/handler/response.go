// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/medlem-go/internal/i18n"
	"github.com/olegiv/medlem-go/internal/middleware"
	"github.com/olegiv/medlem-go/internal/render"
	"github.com/olegiv/medlem-go/internal/service"
	"github.com/olegiv/medlem-go/internal/session"
)

// flashAndRedirect stores a flash message and answers 303 See Other.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message, flashType string) {
	renderer.SetFlash(r, message, flashType)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func flashError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, session.FlashError)
}

func flashSuccess(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, session.FlashSuccess)
}

// parseFormOrRedirect parses the form. On failure it has already redirected
// to redirectURL with an error flash and returns false.
func parseFormOrRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, redirectURL string) bool {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, renderer, redirectURL, i18n.T(middleware.GetLang(r), "auth.invalid_form_data"))
		return false
	}
	return true
}

func logAndHTTPError(w http.ResponseWriter, message string, statusCode int, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	http.Error(w, message, statusCode)
}

func logAndInternalError(w http.ResponseWriter, logMsg string, args ...any) {
	logAndHTTPError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError, logMsg, args...)
}

// fieldErrors translates validation keys for the form template.
func fieldErrors(lang string, ve *service.ValidationError) map[string]string {
	out := make(map[string]string, len(ve.Fields))
	for field, key := range ve.Fields {
		out[field] = i18n.T(lang, key)
	}
	return out
}

// loadFailure maps a failed lookup to a status and message key. Anything
// but a missing row is logged.
func loadFailure(entity string, id int64, err error) (int, string) {
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "error.not_found"
	}
	slog.Error("failed to get "+entity, "error", err, entity+"_id", id)
	return http.StatusInternalServerError, "error.generic"
}

// loadOrRedirect runs load and returns its result. On error it flashes a
// message, redirects to redirectURL and returns false.
func loadOrRedirect[T any](w http.ResponseWriter, r *http.Request, renderer *render.Renderer,
	redirectURL, entity string, id int64, load func(id int64) (T, error)) (T, bool) {
	v, err := load(id)
	if err != nil {
		_, key := loadFailure(entity, id, err)
		flashError(w, r, renderer, redirectURL, i18n.T(middleware.GetLang(r), key))
		return v, false
	}
	return v, true
}

// loadOrJSONError is loadOrRedirect for AJAX endpoints.
func loadOrJSONError[T any](w http.ResponseWriter, r *http.Request,
	entity string, id int64, load func(id int64) (T, error)) (T, bool) {
	v, err := load(id)
	if err != nil {
		status, key := loadFailure(entity, id, err)
		writeJSONError(w, status, i18n.T(middleware.GetLang(r), key))
		return v, false
	}
	return v, true
}

// serviceErrorJSON answers a failed service call. Validation failures and
// known account errors are 400, a missing row 404, the rest 500.
func serviceErrorJSON(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	lang := middleware.GetLang(r)

	if ve, ok := service.AsValidationError(err); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, map[string]any{
			"success": false,
			"message": i18n.T(lang, "validation.failed"),
			"errors":  fieldErrors(lang, ve),
		})
		return
	}

	status, key := http.StatusBadRequest, service.MessageKey(err)
	switch {
	case key != "error.generic":
	case errors.Is(err, sql.ErrNoRows):
		status, key = http.StatusNotFound, "error.not_found"
	default:
		slog.Error(logMsg, "error", err, "path", r.URL.Path)
		status = http.StatusInternalServerError
	}
	writeJSONError(w, status, i18n.T(lang, key))
}
