package store

import "context"

const listUnpaidMembers = `-- name: ListUnpaidMembers :many
SELECT ` + memberColumns + `
FROM medlem m
WHERE m.standig_medlem = 0
  AND NOT EXISTS (
      SELECT 1 FROM betalning b
      WHERE b.medlem_id = m.id AND b.avser_ar BETWEEN ? AND ?
  )
ORDER BY m.efternamn, m.fornamn`

// ListUnpaidMembers returns non-life members with no payment covering any
// year in [fromYear, toYear].
func (q *Queries) ListUnpaidMembers(ctx context.Context, fromYear, toYear int64) ([]Member, error) {
	rows, err := q.db.QueryContext(ctx, listUnpaidMembers, fromYear, toYear)
	if err != nil {
		return nil, err
	}
	return scanMembers(rows)
}

const listCommunicationMembers = `-- name: ListCommunicationMembers :many
SELECT ` + memberColumns + `
FROM medlem
WHERE pref_kommunikation = 1 AND email IS NOT NULL AND email != ''
ORDER BY efternamn, fornamn`

// ListCommunicationMembers returns members who accept communication and have
// an email address.
func (q *Queries) ListCommunicationMembers(ctx context.Context) ([]Member, error) {
	rows, err := q.db.QueryContext(ctx, listCommunicationMembers)
	if err != nil {
		return nil, err
	}
	return scanMembers(rows)
}
