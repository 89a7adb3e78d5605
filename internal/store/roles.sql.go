package store

import (
	"context"
	"database/sql"
)

func scanRoles(rows *sql.Rows) ([]Role, error) {
	defer func() { _ = rows.Close() }()
	var items []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Comment); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRoles = `-- name: ListRoles :many
SELECT id, roll_namn, kommentar FROM roll ORDER BY id`

func (q *Queries) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := q.db.QueryContext(ctx, listRoles)
	if err != nil {
		return nil, err
	}
	return scanRoles(rows)
}

const getRole = `-- name: GetRole :one
SELECT id, roll_namn, kommentar FROM roll WHERE id = ? LIMIT 1`

func (q *Queries) GetRole(ctx context.Context, id int64) (Role, error) {
	var r Role
	err := q.db.QueryRowContext(ctx, getRole, id).Scan(&r.ID, &r.Name, &r.Comment)
	return r, err
}

const getRoleByName = `-- name: GetRoleByName :one
SELECT id, roll_namn, kommentar FROM roll WHERE roll_namn = ? COLLATE NOCASE LIMIT 1`

func (q *Queries) GetRoleByName(ctx context.Context, name string) (Role, error) {
	var r Role
	err := q.db.QueryRowContext(ctx, getRoleByName, name).Scan(&r.ID, &r.Name, &r.Comment)
	return r, err
}

const createRole = `-- name: CreateRole :one
INSERT INTO roll (roll_namn, kommentar) VALUES (?, ?)
RETURNING id, roll_namn, kommentar`

func (q *Queries) CreateRole(ctx context.Context, name, comment string) (Role, error) {
	var r Role
	err := q.db.QueryRowContext(ctx, createRole, name, comment).Scan(&r.ID, &r.Name, &r.Comment)
	return r, err
}
