// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/olegiv/medlem-go/internal/i18n"
	"github.com/olegiv/medlem-go/internal/middleware"
	"github.com/olegiv/medlem-go/internal/model"
	"github.com/olegiv/medlem-go/internal/pager"
	"github.com/olegiv/medlem-go/internal/render"
	"github.com/olegiv/medlem-go/internal/service"
	"github.com/olegiv/medlem-go/internal/store"
)

// EventsHandler handles event log viewing.
type EventsHandler struct {
	renderer *render.Renderer
	events   *service.EventService
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(renderer *render.Renderer, events *service.EventService) *EventsHandler {
	return &EventsHandler{renderer: renderer, events: events}
}

// EventRow is an event with its metadata as readable text.
type EventRow struct {
	store.Event
	Details string
}

// EventsListData holds data for the events list template.
type EventsListData struct {
	Page       service.EventPage
	Pager      pager.Pager
	Rows       []EventRow
	Levels     []string
	Categories []string
}

// formatMetadata renders the JSON metadata of an event as "key: value"
// pairs sorted by key. Text that is not a JSON object is shown unchanged.
func formatMetadata(metadata string) string {
	var data map[string]any
	dec := json.NewDecoder(strings.NewReader(metadata))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return strings.TrimSpace(metadata)
	}

	keys := slices.Sorted(maps.Keys(data))
	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(metadataValue(data[key]))
	}
	return b.String()
}

func metadataValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case json.Number, bool, nil:
		return fmt.Sprint(v)
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// List handles GET /events - displays a paginated list of events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	q := r.URL.Query()

	result, err := h.events.List(r.Context(), q.Get("level"), q.Get("category"), pager.ParsePage(r))
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	rows := make([]EventRow, len(result.Events))
	for i, e := range result.Events {
		rows[i] = EventRow{Event: e, Details: formatMetadata(e.Metadata)}
	}

	h.renderer.RenderPage(w, r, "admin/events", render.TemplateData{
		Title: i18n.T(lang, "event.list_title"),
		Data: EventsListData{
			Page:       result,
			Pager:      pager.New(result.Page, result.Total, result.PageSize, RouteEvents, q),
			Rows:       rows,
			Levels:     model.EventLevels,
			Categories: model.EventCategories,
		},
	})
}
