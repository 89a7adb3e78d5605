package store

import (
	"context"
	"database/sql"
	"time"
)

const memberColumns = `id, fodelsedatum, fornamn, efternamn, email, mobil, telefon, adress,
    postnummer, postort, kommentar, godkant_gdpr, pref_kommunikation, foretag,
    standig_medlem, skickat_valkomstbrev, is_admin, password, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (Member, error) {
	var m Member
	err := row.Scan(
		&m.ID,
		&m.BirthDate,
		&m.FirstName,
		&m.LastName,
		&m.Email,
		&m.Mobile,
		&m.Phone,
		&m.Address,
		&m.PostalCode,
		&m.City,
		&m.Comment,
		&m.GDPRConsent,
		&m.AcceptsCommunication,
		&m.Company,
		&m.LifeMember,
		&m.WelcomeSent,
		&m.IsAdmin,
		&m.PasswordHash,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

func scanMembers(rows *sql.Rows) ([]Member, error) {
	defer func() { _ = rows.Close() }()
	var items []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createMember = `-- name: CreateMember :one
INSERT INTO medlem (
    fodelsedatum, fornamn, efternamn, email, mobil, telefon, adress,
    postnummer, postort, kommentar, godkant_gdpr, pref_kommunikation, foretag,
    standig_medlem, is_admin, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + memberColumns

// CreateMemberParams are the writable member fields.
type CreateMemberParams struct {
	BirthDate            string
	FirstName            string
	LastName             string
	Email                sql.NullString
	Mobile               string
	Phone                string
	Address              string
	PostalCode           string
	City                 string
	Comment              string
	GDPRConsent          bool
	AcceptsCommunication bool
	Company              bool
	LifeMember           bool
	IsAdmin              bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (q *Queries) CreateMember(ctx context.Context, arg CreateMemberParams) (Member, error) {
	row := q.db.QueryRowContext(ctx, createMember,
		arg.BirthDate,
		arg.FirstName,
		arg.LastName,
		arg.Email,
		arg.Mobile,
		arg.Phone,
		arg.Address,
		arg.PostalCode,
		arg.City,
		arg.Comment,
		arg.GDPRConsent,
		arg.AcceptsCommunication,
		arg.Company,
		arg.LifeMember,
		arg.IsAdmin,
		arg.CreatedAt.UTC(),
		arg.UpdatedAt.UTC(),
	)
	return scanMember(row)
}

const getMember = `-- name: GetMember :one
SELECT ` + memberColumns + ` FROM medlem WHERE id = ? LIMIT 1`

func (q *Queries) GetMember(ctx context.Context, id int64) (Member, error) {
	return scanMember(q.db.QueryRowContext(ctx, getMember, id))
}

const getMemberByEmail = `-- name: GetMemberByEmail :one
SELECT ` + memberColumns + ` FROM medlem WHERE email = ? COLLATE NOCASE LIMIT 1`

func (q *Queries) GetMemberByEmail(ctx context.Context, email string) (Member, error) {
	return scanMember(q.db.QueryRowContext(ctx, getMemberByEmail, email))
}

const listMembers = `-- name: ListMembers :many
SELECT ` + memberColumns + ` FROM medlem ORDER BY efternamn, fornamn`

func (q *Queries) ListMembers(ctx context.Context) ([]Member, error) {
	rows, err := q.db.QueryContext(ctx, listMembers)
	if err != nil {
		return nil, err
	}
	return scanMembers(rows)
}

const countMembers = `-- name: CountMembers :one
SELECT COUNT(*) FROM medlem`

func (q *Queries) CountMembers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countMembers).Scan(&n)
	return n, err
}

const updateMember = `-- name: UpdateMember :exec
UPDATE medlem SET
    fodelsedatum = ?, fornamn = ?, efternamn = ?, email = ?, mobil = ?,
    telefon = ?, adress = ?, postnummer = ?, postort = ?, kommentar = ?,
    godkant_gdpr = ?, pref_kommunikation = ?, foretag = ?, standig_medlem = ?,
    is_admin = ?, updated_at = ?
WHERE id = ?`

// UpdateMemberParams are the editable member fields.
type UpdateMemberParams struct {
	ID                   int64
	BirthDate            string
	FirstName            string
	LastName             string
	Email                sql.NullString
	Mobile               string
	Phone                string
	Address              string
	PostalCode           string
	City                 string
	Comment              string
	GDPRConsent          bool
	AcceptsCommunication bool
	Company              bool
	LifeMember           bool
	IsAdmin              bool
	UpdatedAt            time.Time
}

func (q *Queries) UpdateMember(ctx context.Context, arg UpdateMemberParams) error {
	_, err := q.db.ExecContext(ctx, updateMember,
		arg.BirthDate,
		arg.FirstName,
		arg.LastName,
		arg.Email,
		arg.Mobile,
		arg.Phone,
		arg.Address,
		arg.PostalCode,
		arg.City,
		arg.Comment,
		arg.GDPRConsent,
		arg.AcceptsCommunication,
		arg.Company,
		arg.LifeMember,
		arg.IsAdmin,
		arg.UpdatedAt.UTC(),
		arg.ID,
	)
	return err
}

const deleteMember = `-- name: DeleteMember :execrows
DELETE FROM medlem WHERE id = ?`

func (q *Queries) DeleteMember(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteMember, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const setMemberPassword = `-- name: SetMemberPassword :execrows
UPDATE medlem SET password = ?, updated_at = ? WHERE email = ? COLLATE NOCASE`

// SetMemberPassword stores a password hash for the member with email.
func (q *Queries) SetMemberPassword(ctx context.Context, email, hash string, now time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, setMemberPassword, hash, now.UTC(), email)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markWelcomeSent = `-- name: MarkWelcomeSent :exec
UPDATE medlem SET skickat_valkomstbrev = 1, updated_at = ? WHERE id = ?`

func (q *Queries) MarkWelcomeSent(ctx context.Context, id int64, now time.Time) error {
	_, err := q.db.ExecContext(ctx, markWelcomeSent, now.UTC(), id)
	return err
}

const listMemberRoles = `-- name: ListMemberRoles :many
SELECT r.id, r.roll_namn, r.kommentar
FROM roll r
INNER JOIN medlem_roll mr ON mr.roll_id = r.id
WHERE mr.medlem_id = ?
ORDER BY r.roll_namn`

func (q *Queries) ListMemberRoles(ctx context.Context, memberID int64) ([]Role, error) {
	rows, err := q.db.QueryContext(ctx, listMemberRoles, memberID)
	if err != nil {
		return nil, err
	}
	return scanRoles(rows)
}

const listAllMemberRoles = `-- name: ListAllMemberRoles :many
SELECT mr.medlem_id, r.id, r.roll_namn
FROM medlem_roll mr
INNER JOIN roll r ON r.id = mr.roll_id
ORDER BY mr.medlem_id, r.roll_namn`

func (q *Queries) ListAllMemberRoles(ctx context.Context) ([]MemberRole, error) {
	rows, err := q.db.QueryContext(ctx, listAllMemberRoles)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []MemberRole
	for rows.Next() {
		var i MemberRole
		if err := rows.Scan(&i.MemberID, &i.RoleID, &i.RoleName); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const clearMemberRoles = `-- name: ClearMemberRoles :exec
DELETE FROM medlem_roll WHERE medlem_id = ?`

func (q *Queries) ClearMemberRoles(ctx context.Context, memberID int64) error {
	_, err := q.db.ExecContext(ctx, clearMemberRoles, memberID)
	return err
}

const addMemberRole = `-- name: AddMemberRole :exec
INSERT OR IGNORE INTO medlem_roll (medlem_id, roll_id) VALUES (?, ?)`

func (q *Queries) AddMemberRole(ctx context.Context, memberID, roleID int64) error {
	_, err := q.db.ExecContext(ctx, addMemberRole, memberID, roleID)
	return err
}

const listMembersByRoleID = `-- name: ListMembersByRoleID :many
SELECT m.id, m.fornamn, m.efternamn, r.id, r.roll_namn
FROM medlem m
INNER JOIN medlem_roll mr ON mr.medlem_id = m.id
INNER JOIN roll r ON r.id = mr.roll_id
WHERE r.id = ?
ORDER BY m.fornamn, m.efternamn`

func (q *Queries) ListMembersByRoleID(ctx context.Context, roleID int64) ([]MemberSummary, error) {
	rows, err := q.db.QueryContext(ctx, listMembersByRoleID, roleID)
	if err != nil {
		return nil, err
	}
	return scanMemberSummaries(rows)
}

const listMembersByRoleName = `-- name: ListMembersByRoleName :many
SELECT m.id, m.fornamn, m.efternamn, r.id, r.roll_namn
FROM medlem m
INNER JOIN medlem_roll mr ON mr.medlem_id = m.id
INNER JOIN roll r ON r.id = mr.roll_id
WHERE r.roll_namn = ?
ORDER BY m.efternamn, m.fornamn`

func (q *Queries) ListMembersByRoleName(ctx context.Context, name string) ([]MemberSummary, error) {
	rows, err := q.db.QueryContext(ctx, listMembersByRoleName, name)
	if err != nil {
		return nil, err
	}
	return scanMemberSummaries(rows)
}

func scanMemberSummaries(rows *sql.Rows) ([]MemberSummary, error) {
	defer func() { _ = rows.Close() }()
	var items []MemberSummary
	for rows.Next() {
		var i MemberSummary
		if err := rows.Scan(&i.ID, &i.FirstName, &i.LastName, &i.RoleID, &i.RoleName); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
