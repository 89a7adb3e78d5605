// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/olegiv/medlem-go/internal/model"
	"github.com/olegiv/medlem-go/internal/service"
)

func TestFormatMetadata(t *testing.T) {
	tests := []struct {
		name     string
		metadata string
		want     string
	}{
		{"empty", "", ""},
		{"empty object", "{}", ""},
		{"invalid json", "not json", "not json"},
		{"sorted keys", `{"path":"/medlem","error":"not found"}`, "error: not found, path: /medlem"},
		{"numbers and bools", `{"count":3,"ratio":0.5,"ok":true}`, "count: 3, ok: true, ratio: 0.5"},
		{"nested", `{"ids":[1,2]}`, "ids: [1,2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatMetadata(tt.metadata); got != tt.want {
				t.Errorf("formatMetadata(%q) = %q, want %q", tt.metadata, got, tt.want)
			}
		})
	}
}

func TestEventsList(t *testing.T) {
	app := newTestApp(t)
	admin := app.admin(t)

	events := service.NewEventService(app.db, nil)
	ctx := context.Background()
	if err := events.LogEvent(ctx, model.EventLevelError, model.EventCategoryAuth, "Inloggning misslyckades", &admin.ID, "10.0.0.1",
		map[string]any{"email": "x@example.se"}); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
	if err := events.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryMail, "Mejl skickat", nil, "", nil); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}

	rec := app.serve(httptest.NewRequest(http.MethodGet, RouteEvents+"?level=error", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Inloggning misslyckades") || !strings.Contains(body, "email: x@example.se") {
		t.Error("error event missing")
	}
	if strings.Contains(body, "Mejl skickat") {
		t.Error("level filter not applied")
	}
}
