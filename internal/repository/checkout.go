package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const createCheckout = `
INSERT INTO checkouts (id, cart_id, user_id, guest_token, status, total_amount_cents, currency, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, cart_id, user_id, guest_token, status, total_amount_cents, currency,
          expires_at, completed_at, created_at, updated_at
`

func (q *Queries) CreateCheckout(ctx context.Context, arg CreateCheckoutParams) (CheckoutRow, error) {
	row := q.db.QueryRow(ctx, createCheckout,
		arg.ID, arg.CartID, arg.UserID, arg.GuestToken, arg.Status,
		arg.TotalAmountCents, arg.Currency, arg.ExpiresAt)
	return scanCheckout(row)
}

const getCheckoutByID = `
SELECT id, cart_id, user_id, guest_token, status, total_amount_cents, currency,
       expires_at, completed_at, created_at, updated_at
FROM checkouts
WHERE id = $1
`

func (q *Queries) GetCheckoutByID(ctx context.Context, id string) (CheckoutRow, error) {
	return scanCheckout(q.db.QueryRow(ctx, getCheckoutByID, id))
}

// The partial unique index on (cart_id) WHERE status = 'pending'
// guarantees at most one row here.
const getPendingCheckoutByCart = `
SELECT id, cart_id, user_id, guest_token, status, total_amount_cents, currency,
       expires_at, completed_at, created_at, updated_at
FROM checkouts
WHERE cart_id = $1 AND status = 'pending'
`

func (q *Queries) GetPendingCheckoutByCart(ctx context.Context, cartID string) (CheckoutRow, error) {
	return scanCheckout(q.db.QueryRow(ctx, getPendingCheckoutByCart, cartID))
}

const updatePendingCheckout = `
UPDATE checkouts
SET total_amount_cents = $2, expires_at = $3, updated_at = now()
WHERE id = $1 AND status = 'pending'
`

func (q *Queries) UpdatePendingCheckout(ctx context.Context, arg UpdatePendingCheckoutParams) error {
	tag, err := q.db.Exec(ctx, updatePendingCheckout, arg.ID, arg.TotalAmountCents, arg.ExpiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const updateCheckoutStatus = `
UPDATE checkouts
SET status = $2, completed_at = $3, updated_at = now()
WHERE id = $1
`

func (q *Queries) UpdateCheckoutStatus(ctx context.Context, arg UpdateCheckoutStatusParams) error {
	_, err := q.db.Exec(ctx, updateCheckoutStatus, arg.ID, arg.Status, arg.CompletedAt)
	return err
}

const listExpiredPendingCheckouts = `
SELECT id, cart_id, user_id, guest_token, status, total_amount_cents, currency,
       expires_at, completed_at, created_at, updated_at
FROM checkouts
WHERE status = 'pending' AND expires_at < $1
ORDER BY expires_at
LIMIT $2
`

func (q *Queries) ListExpiredPendingCheckouts(ctx context.Context, arg ListExpiredPendingCheckoutsParams) ([]CheckoutRow, error) {
	rows, err := q.db.Query(ctx, listExpiredPendingCheckouts, arg.Now, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CheckoutRow
	for rows.Next() {
		var c CheckoutRow
		if err := rows.Scan(&c.ID, &c.CartID, &c.UserID, &c.GuestToken, &c.Status,
			&c.TotalAmountCents, &c.Currency, &c.ExpiresAt, &c.CompletedAt,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCheckout(row rowScanner) (CheckoutRow, error) {
	var c CheckoutRow
	err := row.Scan(&c.ID, &c.CartID, &c.UserID, &c.GuestToken, &c.Status,
		&c.TotalAmountCents, &c.Currency, &c.ExpiresAt, &c.CompletedAt,
		&c.CreatedAt, &c.UpdatedAt)
	return c, err
}
