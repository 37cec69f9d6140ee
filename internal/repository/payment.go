package repository

import "context"

const createPayment = `
INSERT INTO payments (id, checkout_id, payment_intent_id, status, amount_cents, currency)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, checkout_id, order_id, payment_intent_id, status, amount_cents, currency, created_at, updated_at
`

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (PaymentRow, error) {
	row := q.db.QueryRow(ctx, createPayment,
		arg.ID, arg.CheckoutID, arg.PaymentIntentID, arg.Status, arg.AmountCents, arg.Currency)
	return scanPayment(row)
}

const getPaymentByCheckoutID = `
SELECT id, checkout_id, order_id, payment_intent_id, status, amount_cents, currency, created_at, updated_at
FROM payments
WHERE checkout_id = $1
ORDER BY created_at DESC
LIMIT 1
`

func (q *Queries) GetPaymentByCheckoutID(ctx context.Context, checkoutID string) (PaymentRow, error) {
	return scanPayment(q.db.QueryRow(ctx, getPaymentByCheckoutID, checkoutID))
}

const getPaymentByIntentID = `
SELECT id, checkout_id, order_id, payment_intent_id, status, amount_cents, currency, created_at, updated_at
FROM payments
WHERE payment_intent_id = $1
`

func (q *Queries) GetPaymentByIntentID(ctx context.Context, paymentIntentID string) (PaymentRow, error) {
	return scanPayment(q.db.QueryRow(ctx, getPaymentByIntentID, paymentIntentID))
}

const linkPaymentToOrder = `
UPDATE payments
SET order_id = $2, updated_at = now()
WHERE id = $1
`

func (q *Queries) LinkPaymentToOrder(ctx context.Context, arg LinkPaymentToOrderParams) error {
	_, err := q.db.Exec(ctx, linkPaymentToOrder, arg.ID, arg.OrderID)
	return err
}

func scanPayment(row rowScanner) (PaymentRow, error) {
	var p PaymentRow
	err := row.Scan(&p.ID, &p.CheckoutID, &p.OrderID, &p.PaymentIntentID,
		&p.Status, &p.AmountCents, &p.Currency, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
