// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/olegiv/medlem-go/internal/session"
	"github.com/olegiv/medlem-go/internal/version"
)

// Pinger is a dependency the health check probes, such as the cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	session   session.Session
	checks    map[string]Pinger
	startTime time.Time
}

// NewHealthHandler creates a new health handler. checks maps names to
// extra dependencies to probe.
func NewHealthHandler(db *sql.DB, sess session.Session, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		session:   sess,
		checks:    checks,
		startTime: time.Now(),
	}
}

// HealthStatusPublic is the minimal health response for unauthenticated callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus represents the overall health status (admins only).
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   version.Info     `json:"version"`
	Checks    map[string]Check `json:"checks"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Health handles GET /health requests.
// Returns minimal status for other callers, full details for admins.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{"database": h.probe(r.Context(), h.db.PingContext)}
	for name, p := range h.checks {
		checks[name] = h.probe(r.Context(), p.Ping)
	}

	overallStatus := "healthy"
	for _, c := range checks {
		if c.Status != "healthy" {
			overallStatus = "degraded"
		}
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)

	if h.session == nil || !h.session.IsAdmin(r.Context()) {
		writeJSON(w, HealthStatusPublic{Status: overallStatus})
		return
	}

	writeJSON(w, HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   version.Current(),
		Checks:    checks,
	})
}

func (h *HealthHandler) probe(ctx context.Context, ping func(context.Context) error) Check {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := ping(ctx); err != nil {
		return Check{Status: "unhealthy", Message: err.Error()}
	}
	return Check{Status: "healthy", Latency: time.Since(start).String()}
}
