package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const createReservation = `
INSERT INTO reservations (id, cart_id, variant_id, quantity, expires_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, cart_id, variant_id, quantity, expires_at, notified_at, created_at, updated_at
`

func (q *Queries) CreateReservation(ctx context.Context, arg CreateReservationParams) (ReservationRow, error) {
	row := q.db.QueryRow(ctx, createReservation,
		arg.ID, arg.CartID, arg.VariantID, arg.Quantity, arg.ExpiresAt)
	return scanReservation(row)
}

const getReservationByID = `
SELECT id, cart_id, variant_id, quantity, expires_at, notified_at, created_at, updated_at
FROM reservations
WHERE id = $1
`

func (q *Queries) GetReservationByID(ctx context.Context, id string) (ReservationRow, error) {
	return scanReservation(q.db.QueryRow(ctx, getReservationByID, id))
}

const getReservationByCartAndVariant = `
SELECT id, cart_id, variant_id, quantity, expires_at, notified_at, created_at, updated_at
FROM reservations
WHERE cart_id = $1 AND variant_id = $2
`

func (q *Queries) GetReservationByCartAndVariant(ctx context.Context, arg GetReservationByCartAndVariantParams) (ReservationRow, error) {
	return scanReservation(q.db.QueryRow(ctx, getReservationByCartAndVariant, arg.CartID, arg.VariantID))
}

const listReservationsByCart = `
SELECT id, cart_id, variant_id, quantity, expires_at, notified_at, created_at, updated_at
FROM reservations
WHERE cart_id = $1
ORDER BY created_at
`

func (q *Queries) ListReservationsByCart(ctx context.Context, cartID string) ([]ReservationRow, error) {
	rows, err := q.db.Query(ctx, listReservationsByCart, cartID)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

const listReservationsByVariant = `
SELECT id, cart_id, variant_id, quantity, expires_at, notified_at, created_at, updated_at
FROM reservations
WHERE variant_id = $1
ORDER BY created_at
`

func (q *Queries) ListReservationsByVariant(ctx context.Context, variantID string) ([]ReservationRow, error) {
	rows, err := q.db.Query(ctx, listReservationsByVariant, variantID)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

const sumActiveReservedByVariant = `
SELECT COALESCE(SUM(quantity), 0)
FROM reservations
WHERE variant_id = $1 AND expires_at > $2
`

func (q *Queries) SumActiveReservedByVariant(ctx context.Context, arg SumActiveReservedByVariantParams) (int64, error) {
	var sum int64
	err := q.db.QueryRow(ctx, sumActiveReservedByVariant, arg.VariantID, arg.Now).Scan(&sum)
	return sum, err
}

const sumReservedByVariant = `
SELECT COALESCE(SUM(quantity), 0)
FROM reservations
WHERE variant_id = $1
`

func (q *Queries) SumReservedByVariant(ctx context.Context, variantID string) (int64, error) {
	var sum int64
	err := q.db.QueryRow(ctx, sumReservedByVariant, variantID).Scan(&sum)
	return sum, err
}

const updateReservationExpiry = `
UPDATE reservations
SET expires_at = $2, notified_at = $3, updated_at = now()
WHERE id = $1
`

func (q *Queries) UpdateReservationExpiry(ctx context.Context, arg UpdateReservationExpiryParams) error {
	_, err := q.db.Exec(ctx, updateReservationExpiry, arg.ID, arg.ExpiresAt, arg.NotifiedAt)
	return err
}

const updateReservationQuantity = `
UPDATE reservations
SET quantity = $2, updated_at = now()
WHERE id = $1
`

func (q *Queries) UpdateReservationQuantity(ctx context.Context, arg UpdateReservationQuantityParams) error {
	_, err := q.db.Exec(ctx, updateReservationQuantity, arg.ID, arg.Quantity)
	return err
}

const deleteReservation = `
DELETE FROM reservations WHERE id = $1
`

func (q *Queries) DeleteReservation(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, deleteReservation, id)
	return err
}

const deleteReservationsByCart = `
DELETE FROM reservations WHERE cart_id = $1
`

func (q *Queries) DeleteReservationsByCart(ctx context.Context, cartID string) error {
	_, err := q.db.Exec(ctx, deleteReservationsByCart, cartID)
	return err
}

// Reservations past the grace window, oldest first, bounded for one pass
// of the cleanup job.
const listExpiredReservations = `
SELECT id, cart_id, variant_id, quantity, expires_at, notified_at, created_at, updated_at
FROM reservations
WHERE expires_at < $1
ORDER BY expires_at
LIMIT $2
`

func (q *Queries) ListExpiredReservations(ctx context.Context, arg ListExpiredReservationsParams) ([]ReservationRow, error) {
	rows, err := q.db.Query(ctx, listExpiredReservations, arg.Cutoff, arg.Limit)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

const listReservationsInGrace = `
SELECT id, cart_id, variant_id, quantity, expires_at, notified_at, created_at, updated_at
FROM reservations
WHERE expires_at <= $1 AND expires_at > $2
ORDER BY expires_at
LIMIT $3
`

func (q *Queries) ListReservationsInGrace(ctx context.Context, arg ListReservationsInGraceParams) ([]ReservationRow, error) {
	rows, err := q.db.Query(ctx, listReservationsInGrace, arg.Now, arg.GraceStart, arg.Limit)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// Active reservations entering the expiring-soon window that have not
// been notified yet.
const listExpiringReservations = `
SELECT id, cart_id, variant_id, quantity, expires_at, notified_at, created_at, updated_at
FROM reservations
WHERE expires_at > $1 AND expires_at <= $2 AND notified_at IS NULL
ORDER BY expires_at
LIMIT $3
`

func (q *Queries) ListExpiringReservations(ctx context.Context, arg ListExpiringReservationsParams) ([]ReservationRow, error) {
	rows, err := q.db.Query(ctx, listExpiringReservations, arg.Now, arg.Until, arg.Limit)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

const markReservationNotified = `
UPDATE reservations
SET notified_at = $2, updated_at = now()
WHERE id = $1
`

func (q *Queries) MarkReservationNotified(ctx context.Context, arg MarkReservationNotifiedParams) error {
	_, err := q.db.Exec(ctx, markReservationNotified, arg.ID, arg.NotifiedAt)
	return err
}

func scanReservation(row rowScanner) (ReservationRow, error) {
	var r ReservationRow
	err := row.Scan(&r.ID, &r.CartID, &r.VariantID, &r.Quantity, &r.ExpiresAt,
		&r.NotifiedAt, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func collectReservations(rows pgx.Rows) ([]ReservationRow, error) {
	defer rows.Close()
	var out []ReservationRow
	for rows.Next() {
		var r ReservationRow
		if err := rows.Scan(&r.ID, &r.CartID, &r.VariantID, &r.Quantity, &r.ExpiresAt,
			&r.NotifiedAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
