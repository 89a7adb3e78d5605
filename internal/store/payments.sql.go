package store

import (
	"context"
	"time"
)

const paymentColumns = `id, medlem_id, belopp, datum, avser_ar, kommentar, created_at`

func scanPayment(row rowScanner) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.MemberID, &p.Amount, &p.Date, &p.Year, &p.Comment, &p.CreatedAt)
	return p, err
}

const createPayment = `-- name: CreatePayment :one
INSERT INTO betalning (medlem_id, belopp, datum, avser_ar, kommentar, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + paymentColumns

// CreatePaymentParams are the fields of a new payment.
type CreatePaymentParams struct {
	MemberID  int64
	Amount    float64
	Date      string
	Year      int64
	Comment   string
	CreatedAt time.Time
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := q.db.QueryRowContext(ctx, createPayment,
		arg.MemberID, arg.Amount, arg.Date, arg.Year, arg.Comment, arg.CreatedAt.UTC())
	return scanPayment(row)
}

const getPayment = `-- name: GetPayment :one
SELECT ` + paymentColumns + ` FROM betalning WHERE id = ? LIMIT 1`

func (q *Queries) GetPayment(ctx context.Context, id int64) (Payment, error) {
	return scanPayment(q.db.QueryRowContext(ctx, getPayment, id))
}

const listPayments = `-- name: ListPayments :many
SELECT b.id, b.medlem_id, b.belopp, b.datum, b.avser_ar, b.kommentar, b.created_at,
    m.fornamn, m.efternamn
FROM betalning b
LEFT JOIN medlem m ON m.id = b.medlem_id
ORDER BY b.datum DESC, b.id DESC`

func (q *Queries) ListPayments(ctx context.Context) ([]PaymentWithMember, error) {
	rows, err := q.db.QueryContext(ctx, listPayments)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []PaymentWithMember
	for rows.Next() {
		var i PaymentWithMember
		if err := rows.Scan(
			&i.ID, &i.MemberID, &i.Amount, &i.Date, &i.Year, &i.Comment, &i.CreatedAt,
			&i.FirstName, &i.LastName,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPaymentsByMember = `-- name: ListPaymentsByMember :many
SELECT ` + paymentColumns + ` FROM betalning WHERE medlem_id = ? ORDER BY datum DESC, id DESC`

func (q *Queries) ListPaymentsByMember(ctx context.Context, memberID int64) ([]Payment, error) {
	rows, err := q.db.QueryContext(ctx, listPaymentsByMember, memberID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countPaymentsByMember = `-- name: CountPaymentsByMember :one
SELECT COUNT(*) FROM betalning WHERE medlem_id = ?`

func (q *Queries) CountPaymentsByMember(ctx context.Context, memberID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countPaymentsByMember, memberID).Scan(&n)
	return n, err
}

const hasPaymentForYear = `-- name: HasPaymentForYear :one
SELECT EXISTS (SELECT 1 FROM betalning WHERE medlem_id = ? AND avser_ar = ?)`

func (q *Queries) HasPaymentForYear(ctx context.Context, memberID, year int64) (bool, error) {
	var ok bool
	err := q.db.QueryRowContext(ctx, hasPaymentForYear, memberID, year).Scan(&ok)
	return ok, err
}

const deletePayment = `-- name: DeletePayment :execrows
DELETE FROM betalning WHERE id = ?`

func (q *Queries) DeletePayment(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePayment, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
