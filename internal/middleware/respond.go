// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// AJAXHeader and AJAXValue mark requests made by client-side script.
const (
	AJAXHeader = "X-Requested-With"
	AJAXValue  = "XMLHttpRequest"
)

// IsAJAX reports whether the request came from client-side script.
func IsAJAX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get(AJAXHeader), AJAXValue)
}

// denial is the JSON body of every gate refusal.
type denial struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeDenial writes {"success":false,"message":...} with the given status.
func writeDenial(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(denial{Success: false, Message: message}); err != nil {
		slog.Error("failed to encode denial", "error", err)
	}
}

// redirect sends a 302 Found to target.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusFound)
}
