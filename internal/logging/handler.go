// Package logging provides a slog handler that also writes WARN and ERROR
// records to the events table, which backs the admin event log.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olegiv/medlem-go/internal/model"
	"github.com/olegiv/medlem-go/internal/store"
)

// Attribute keys with special meaning for the event row.
const (
	attrCategory = "category"
	attrUserID   = "user_id"
	attrIP       = "ip"
	attrRemote   = "remote_addr"
)

// EventLogHandler is a slog.Handler that wraps another handler and also
// writes records at or above its level to the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
	group   string
}

// NewEventLogHandler creates an EventLogHandler that persists WARN and above.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates an EventLogHandler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level) || level >= h.level
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.inner.Enabled(ctx, r.Level) {
		if err := h.inner.Handle(ctx, r); err != nil {
			return err
		}
	}

	if r.Level >= h.level {
		h.writeToEventLog(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithAttrs(attrs)
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), h.qualify(attrs)...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithGroup(name)
	if name != "" {
		clone.group = h.prefix() + name
	}
	return &clone
}

func (h *EventLogHandler) prefix() string {
	if h.group == "" {
		return ""
	}
	return h.group + "."
}

func (h *EventLogHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.prefix() + a.Key, Value: a.Value}
	}
	return out
}

// writeToEventLog persists r. It uses a background context so the event is
// stored even when the request context is cancelled.
func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	attrs := append([]slog.Attr(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.qualify([]slog.Attr{a})...)
		return true
	})

	params := store.CreateEventParams{
		Level:     slogLevelToEventLevel(r.Level),
		Message:   r.Message,
		CreatedAt: r.Time,
	}

	meta := make(map[string]string, len(attrs))
	for _, a := range attrs {
		switch a.Key {
		case attrCategory:
			params.Category = a.Value.String()
			continue
		case attrUserID:
			if a.Value.Kind() == slog.KindInt64 {
				params.UserID = sql.NullInt64{Int64: a.Value.Int64(), Valid: a.Value.Int64() != 0}
			}
		case attrIP, attrRemote:
			if params.IpAddress == "" {
				params.IpAddress = a.Value.String()
			}
		}
		meta[a.Key] = a.Value.Resolve().String()
	}

	if params.Category == "" {
		params.Category = inferCategory(r.Message)
	}
	params.Metadata = encodeMetadata(meta)

	if _, err := h.queries.CreateEvent(context.Background(), params); err != nil {
		// The inner handler still has the record; avoid recursing into slog.
		fmt.Printf("event log write failed: %v\n", err)
	}
}

func encodeMetadata(meta map[string]string) string {
	if len(meta) == 0 {
		return "{}"
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// slogLevelToEventLevel converts a slog.Level to an event level.
func slogLevelToEventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// inferCategory guesses a category from message keywords.
func inferCategory(message string) string {
	msg := strings.ToLower(message)
	switch {
	case containsAny(msg, "auth", "login", "logout", "csrf", "password", "not admin", "not logged in", "lockout"):
		return model.EventCategoryAuth
	case containsAny(msg, "payment", "betalning"):
		return model.EventCategoryPayment
	case containsAny(msg, "sailing", "segling", "participant"):
		return model.EventCategorySailing
	case containsAny(msg, "import", "csv"):
		return model.EventCategoryImport
	case containsAny(msg, "mail", "smtp", "alias"):
		return model.EventCategoryMail
	case containsAny(msg, "deploy", "webhook"):
		return model.EventCategoryDeploy
	case containsAny(msg, "member", "medlem", "role"):
		return model.EventCategoryMember
	default:
		return model.EventCategorySystem
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
