package repository

import "context"

const createOrder = `
INSERT INTO orders (id, order_number, checkout_id, user_id, guest_token, email, status,
                    subtotal_cents, discount_cents, shipping_cents, tax_cents, total_cents,
                    currency, payment_intent_id, source_location_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING id, order_number, checkout_id, user_id, guest_token, email, status,
          subtotal_cents, discount_cents, shipping_cents, tax_cents, total_cents,
          currency, payment_intent_id, source_location_id, created_at, updated_at
`

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (OrderRow, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.ID, arg.OrderNumber, arg.CheckoutID, arg.UserID, arg.GuestToken, arg.Email,
		arg.Status, arg.SubtotalCents, arg.DiscountCents, arg.ShippingCents, arg.TaxCents,
		arg.TotalCents, arg.Currency, arg.PaymentIntentID, arg.SourceLocationID)
	return scanOrder(row)
}

const getOrderByID = `
SELECT id, order_number, checkout_id, user_id, guest_token, email, status,
       subtotal_cents, discount_cents, shipping_cents, tax_cents, total_cents,
       currency, payment_intent_id, source_location_id, created_at, updated_at
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrderByID(ctx context.Context, id string) (OrderRow, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByID, id))
}

const getOrderByCheckoutID = `
SELECT id, order_number, checkout_id, user_id, guest_token, email, status,
       subtotal_cents, discount_cents, shipping_cents, tax_cents, total_cents,
       currency, payment_intent_id, source_location_id, created_at, updated_at
FROM orders
WHERE checkout_id = $1
`

func (q *Queries) GetOrderByCheckoutID(ctx context.Context, checkoutID string) (OrderRow, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByCheckoutID, checkoutID))
}

const createOrderItem = `
INSERT INTO order_items (id, order_id, variant_id, product_id, sku, display_name,
                         unit_price_cents, quantity, total_cents, weight_grams, size, color)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) error {
	_, err := q.db.Exec(ctx, createOrderItem,
		arg.ID, arg.OrderID, arg.VariantID, arg.ProductID, arg.SKU, arg.DisplayName,
		arg.UnitPriceCents, arg.Quantity, arg.TotalCents, arg.WeightGrams, arg.Size, arg.Color)
	return err
}

const listOrderItems = `
SELECT id, order_id, variant_id, product_id, sku, display_name,
       unit_price_cents, quantity, total_cents, weight_grams, size, color, created_at
FROM order_items
WHERE order_id = $1
ORDER BY created_at
`

func (q *Queries) ListOrderItems(ctx context.Context, orderID string) ([]OrderItemRow, error) {
	rows, err := q.db.Query(ctx, listOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItemRow
	for rows.Next() {
		var i OrderItemRow
		if err := rows.Scan(&i.ID, &i.OrderID, &i.VariantID, &i.ProductID, &i.SKU,
			&i.DisplayName, &i.UnitPriceCents, &i.Quantity, &i.TotalCents,
			&i.WeightGrams, &i.Size, &i.Color, &i.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

const createOrderAddress = `
INSERT INTO order_addresses (id, order_id, kind, payload)
VALUES ($1, $2, $3, $4)
`

func (q *Queries) CreateOrderAddress(ctx context.Context, arg CreateOrderAddressParams) error {
	_, err := q.db.Exec(ctx, createOrderAddress, arg.ID, arg.OrderID, arg.Kind, arg.Payload)
	return err
}

const createOrderStatusHistory = `
INSERT INTO order_status_history (id, order_id, status, note)
VALUES ($1, $2, $3, $4)
`

func (q *Queries) CreateOrderStatusHistory(ctx context.Context, arg CreateOrderStatusHistoryParams) error {
	_, err := q.db.Exec(ctx, createOrderStatusHistory, arg.ID, arg.OrderID, arg.Status, arg.Note)
	return err
}

const createOrderEvent = `
INSERT INTO order_events (id, order_id, kind, payload)
VALUES ($1, $2, $3, $4)
`

func (q *Queries) CreateOrderEvent(ctx context.Context, arg CreateOrderEventParams) error {
	_, err := q.db.Exec(ctx, createOrderEvent, arg.ID, arg.OrderID, arg.Kind, arg.Payload)
	return err
}

func scanOrder(row rowScanner) (OrderRow, error) {
	var o OrderRow
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CheckoutID, &o.UserID, &o.GuestToken,
		&o.Email, &o.Status, &o.SubtotalCents, &o.DiscountCents, &o.ShippingCents,
		&o.TaxCents, &o.TotalCents, &o.Currency, &o.PaymentIntentID,
		&o.SourceLocationID, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
