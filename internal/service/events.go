// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the business logic behind the handlers: members,
// payments, sailings, accounts, reports and the event log.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/mileusna/useragent"

	"github.com/olegiv/medlem-go/internal/geoip"
	"github.com/olegiv/medlem-go/internal/model"
	"github.com/olegiv/medlem-go/internal/pager"
	"github.com/olegiv/medlem-go/internal/store"
)

// DefaultEventPageSize is the number of events per page in the event log.
const DefaultEventPageSize = 50

// EventService writes and reads the event log.
type EventService struct {
	queries *store.Queries
	geo     *geoip.Lookup
	now     func() time.Time
}

// NewEventService creates an EventService. geo may be nil.
func NewEventService(db *sql.DB, geo *geoip.Lookup) *EventService {
	return &EventService{
		queries: store.New(db),
		geo:     geo,
		now:     time.Now,
	}
}

// LogEvent creates a new event log entry.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	var nullUserID sql.NullInt64
	if userID != nil {
		nullUserID = sql.NullInt64{Int64: *userID, Valid: true}
	}

	metadataJSON := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    nullUserID,
		Metadata:  metadataJSON,
		IpAddress: ipAddress,
		CreatedAt: s.now(),
	})
	if err != nil {
		// Not slog: the default handler writes back into this table.
		log.Printf("Failed to log event: %v", err)
		return err
	}
	return nil
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, category, message, userID, ipAddress, metadata)
}

// LogWarning logs a warning-level event.
func (s *EventService) LogWarning(ctx context.Context, category, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelWarning, category, message, userID, ipAddress, metadata)
}

// LogAuthEvent logs a login or logout with the client's browser, OS and
// country added to the metadata.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message string, userID *int64, ipAddress, userAgent string, metadata map[string]any) error {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	if userAgent != "" {
		ua := useragent.Parse(userAgent)
		if ua.Name != "" {
			metadata["browser"] = ua.Name
		}
		if ua.OS != "" {
			metadata["os"] = ua.OS
		}
		if ua.Bot {
			metadata["bot"] = true
		}
	}
	if s.geo != nil {
		if country := s.geo.Country(ipAddress); country != "" {
			metadata["country"] = country
		}
	}
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, userID, ipAddress, metadata)
}

// EventPage is one page of the event log.
type EventPage struct {
	Events   []store.Event
	Total    int64
	Page     int
	PageSize int
	Level    string
	Category string
}

// TotalPages returns the number of pages, at least 1.
func (p EventPage) TotalPages() int {
	return pager.TotalPages(p.Total, p.PageSize)
}

// List returns page (1-based) of events, newest first, filtered by level and
// category when they are not empty.
func (s *EventService) List(ctx context.Context, level, category string, page int) (EventPage, error) {
	if page < 1 {
		page = 1
	}
	// Unknown filter values list everything rather than nothing.
	if !model.ValidEventLevel(level) {
		level = ""
	}
	if !model.ValidEventCategory(category) {
		category = ""
	}
	total, err := s.queries.CountEvents(ctx, level, category)
	if err != nil {
		return EventPage{}, err
	}
	events, err := s.queries.ListEvents(ctx, store.ListEventsParams{
		Level:    level,
		Category: category,
		Limit:    DefaultEventPageSize,
		Offset:   int64(page-1) * DefaultEventPageSize,
	})
	if err != nil {
		return EventPage{}, err
	}
	return EventPage{
		Events:   events,
		Total:    total,
		Page:     page,
		PageSize: DefaultEventPageSize,
		Level:    level,
		Category: category,
	}, nil
}

// DeleteOldEvents removes events older than olderThan.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queries.DeleteEventsBefore(ctx, s.now().Add(-olderThan))
}
