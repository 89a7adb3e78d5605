package store

import (
	"context"
	"database/sql"
	"time"
)

const createAuthToken = `-- name: CreateAuthToken :one
INSERT INTO auth_token (email, token, token_type, password_hash, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, email, token, token_type, password_hash, created_at`

// CreateAuthTokenParams are the fields of a new auth token.
type CreateAuthTokenParams struct {
	Email        string
	Token        string
	Type         string
	PasswordHash sql.NullString
	CreatedAt    time.Time
}

func (q *Queries) CreateAuthToken(ctx context.Context, arg CreateAuthTokenParams) (AuthToken, error) {
	row := q.db.QueryRowContext(ctx, createAuthToken,
		arg.Email, arg.Token, arg.Type, arg.PasswordHash, arg.CreatedAt.UTC())
	var t AuthToken
	err := row.Scan(&t.ID, &t.Email, &t.Token, &t.Type, &t.PasswordHash, &t.CreatedAt)
	return t, err
}

const getAuthToken = `-- name: GetAuthToken :one
SELECT id, email, token, token_type, password_hash, created_at
FROM auth_token WHERE token = ? AND token_type = ? LIMIT 1`

func (q *Queries) GetAuthToken(ctx context.Context, token, tokenType string) (AuthToken, error) {
	var t AuthToken
	err := q.db.QueryRowContext(ctx, getAuthToken, token, tokenType).
		Scan(&t.ID, &t.Email, &t.Token, &t.Type, &t.PasswordHash, &t.CreatedAt)
	return t, err
}

const deleteAuthToken = `-- name: DeleteAuthToken :exec
DELETE FROM auth_token WHERE token = ?`

func (q *Queries) DeleteAuthToken(ctx context.Context, token string) error {
	_, err := q.db.ExecContext(ctx, deleteAuthToken, token)
	return err
}

const deleteAuthTokensBefore = `-- name: DeleteAuthTokensBefore :execrows
DELETE FROM auth_token WHERE created_at < ?`

// DeleteAuthTokensBefore removes tokens created before cutoff.
func (q *Queries) DeleteAuthTokensBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAuthTokensBefore, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
