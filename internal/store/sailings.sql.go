package store

import (
	"context"
	"database/sql"
	"time"
)

const sailingColumns = `id, startdatum, slutdatum, skeppslag, kommentar, created_at, updated_at`

func scanSailing(row rowScanner) (Sailing, error) {
	var s Sailing
	err := row.Scan(&s.ID, &s.StartDate, &s.EndDate, &s.Crew, &s.Comment, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

const createSailing = `-- name: CreateSailing :one
INSERT INTO segling (startdatum, slutdatum, skeppslag, kommentar, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + sailingColumns

// CreateSailingParams are the writable sailing fields.
type CreateSailingParams struct {
	StartDate string
	EndDate   string
	Crew      string
	Comment   string
	CreatedAt time.Time
}

func (q *Queries) CreateSailing(ctx context.Context, arg CreateSailingParams) (Sailing, error) {
	now := arg.CreatedAt.UTC()
	row := q.db.QueryRowContext(ctx, createSailing, arg.StartDate, arg.EndDate, arg.Crew, arg.Comment, now, now)
	return scanSailing(row)
}

const getSailing = `-- name: GetSailing :one
SELECT ` + sailingColumns + ` FROM segling WHERE id = ? LIMIT 1`

func (q *Queries) GetSailing(ctx context.Context, id int64) (Sailing, error) {
	return scanSailing(q.db.QueryRowContext(ctx, getSailing, id))
}

const listSailings = `-- name: ListSailings :many
SELECT ` + sailingColumns + ` FROM segling ORDER BY startdatum DESC`

func (q *Queries) ListSailings(ctx context.Context) ([]Sailing, error) {
	rows, err := q.db.QueryContext(ctx, listSailings)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Sailing
	for rows.Next() {
		s, err := scanSailing(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateSailing = `-- name: UpdateSailing :execrows
UPDATE segling SET startdatum = ?, slutdatum = ?, skeppslag = ?, kommentar = ?, updated_at = ?
WHERE id = ?`

// UpdateSailingParams are the editable sailing fields.
type UpdateSailingParams struct {
	ID        int64
	StartDate string
	EndDate   string
	Crew      string
	Comment   string
	UpdatedAt time.Time
}

func (q *Queries) UpdateSailing(ctx context.Context, arg UpdateSailingParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateSailing,
		arg.StartDate, arg.EndDate, arg.Crew, arg.Comment, arg.UpdatedAt.UTC(), arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteSailing = `-- name: DeleteSailing :execrows
DELETE FROM segling WHERE id = ?`

func (q *Queries) DeleteSailing(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteSailing, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listParticipants = `-- name: ListParticipants :many
SELECT smr.segling_id, m.id, m.fornamn, m.efternamn, smr.roll_id, r.roll_namn,
    EXISTS (
        SELECT 1 FROM betalning b
        WHERE b.medlem_id = m.id
          AND b.avser_ar = CAST(substr(s.startdatum, 1, 4) AS INTEGER)
    ) AS paid
FROM segling_medlem_roll smr
INNER JOIN segling s ON s.id = smr.segling_id
INNER JOIN medlem m ON m.id = smr.medlem_id
LEFT JOIN roll r ON r.id = smr.roll_id
WHERE smr.segling_id = ?
ORDER BY r.roll_namn IS NULL, r.roll_namn, m.fornamn`

func (q *Queries) ListParticipants(ctx context.Context, sailingID int64) ([]Participant, error) {
	rows, err := q.db.QueryContext(ctx, listParticipants, sailingID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.SailingID, &p.MemberID, &p.FirstName, &p.LastName, &p.RoleID, &p.RoleName, &p.Paid); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const hasParticipant = `-- name: HasParticipant :one
SELECT EXISTS (SELECT 1 FROM segling_medlem_roll WHERE segling_id = ? AND medlem_id = ?)`

func (q *Queries) HasParticipant(ctx context.Context, sailingID, memberID int64) (bool, error) {
	var ok bool
	err := q.db.QueryRowContext(ctx, hasParticipant, sailingID, memberID).Scan(&ok)
	return ok, err
}

const addParticipant = `-- name: AddParticipant :exec
INSERT INTO segling_medlem_roll (segling_id, medlem_id, roll_id) VALUES (?, ?, ?)`

func (q *Queries) AddParticipant(ctx context.Context, sailingID, memberID int64, roleID sql.NullInt64) error {
	_, err := q.db.ExecContext(ctx, addParticipant, sailingID, memberID, roleID)
	return err
}

const removeParticipant = `-- name: RemoveParticipant :execrows
DELETE FROM segling_medlem_roll WHERE segling_id = ? AND medlem_id = ?`

func (q *Queries) RemoveParticipant(ctx context.Context, sailingID, memberID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, removeParticipant, sailingID, memberID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
