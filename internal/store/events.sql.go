package store

import (
	"context"
	"database/sql"
	"time"
)

const createEvent = `-- name: CreateEvent :one
INSERT INTO events (level, category, message, user_id, metadata, ip_address, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id, level, category, message, user_id, metadata, ip_address, created_at`

// CreateEventParams are the fields of a new event.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	IpAddress string
	CreatedAt time.Time
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, createEvent,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.Metadata, arg.IpAddress, arg.CreatedAt.UTC())
	var e Event
	err := row.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata, &e.IpAddress, &e.CreatedAt)
	return e, err
}

const listEvents = `-- name: ListEvents :many
SELECT id, level, category, message, user_id, metadata, ip_address, created_at
FROM events
WHERE (? = '' OR level = ?) AND (? = '' OR category = ?)
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`

// ListEventsParams filters and pages the event log. Empty filters match all.
type ListEventsParams struct {
	Level    string
	Category string
	Limit    int64
	Offset   int64
}

func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents,
		arg.Level, arg.Level, arg.Category, arg.Category, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata, &e.IpAddress, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countEvents = `-- name: CountEvents :one
SELECT COUNT(*) FROM events WHERE (? = '' OR level = ?) AND (? = '' OR category = ?)`

func (q *Queries) CountEvents(ctx context.Context, level, category string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countEvents, level, level, category, category).Scan(&n)
	return n, err
}

const deleteEventsBefore = `-- name: DeleteEventsBefore :execrows
DELETE FROM events WHERE created_at < ?`

func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteEventsBefore, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
