package repository

import (
	"context"
)

const createCart = `
INSERT INTO carts (id, user_id, guest_token, currency)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, guest_token, currency, email, shipping_option_code,
          shipping_address, billing_address, reservation_expires_at, created_at, updated_at
`

func (q *Queries) CreateCart(ctx context.Context, arg CreateCartParams) (CartRow, error) {
	row := q.db.QueryRow(ctx, createCart, arg.ID, arg.UserID, arg.GuestToken, arg.Currency)
	return scanCart(row)
}

const getCartByID = `
SELECT id, user_id, guest_token, currency, email, shipping_option_code,
       shipping_address, billing_address, reservation_expires_at, created_at, updated_at
FROM carts
WHERE id = $1
`

func (q *Queries) GetCartByID(ctx context.Context, id string) (CartRow, error) {
	return scanCart(q.db.QueryRow(ctx, getCartByID, id))
}

const getCartByUserID = `
SELECT id, user_id, guest_token, currency, email, shipping_option_code,
       shipping_address, billing_address, reservation_expires_at, created_at, updated_at
FROM carts
WHERE user_id = $1
`

func (q *Queries) GetCartByUserID(ctx context.Context, userID string) (CartRow, error) {
	return scanCart(q.db.QueryRow(ctx, getCartByUserID, userID))
}

const getCartByGuestToken = `
SELECT id, user_id, guest_token, currency, email, shipping_option_code,
       shipping_address, billing_address, reservation_expires_at, created_at, updated_at
FROM carts
WHERE guest_token = $1
`

func (q *Queries) GetCartByGuestToken(ctx context.Context, guestToken string) (CartRow, error) {
	return scanCart(q.db.QueryRow(ctx, getCartByGuestToken, guestToken))
}

const updateCartOwner = `
UPDATE carts
SET user_id = $2, guest_token = $3, updated_at = now()
WHERE id = $1
`

func (q *Queries) UpdateCartOwner(ctx context.Context, arg UpdateCartOwnerParams) error {
	_, err := q.db.Exec(ctx, updateCartOwner, arg.ID, arg.UserID, arg.GuestToken)
	return err
}

const updateCartContact = `
UPDATE carts
SET email = $2, shipping_option_code = $3, shipping_address = $4,
    billing_address = $5, updated_at = now()
WHERE id = $1
`

func (q *Queries) UpdateCartContact(ctx context.Context, arg UpdateCartContactParams) error {
	_, err := q.db.Exec(ctx, updateCartContact,
		arg.ID, arg.Email, arg.ShippingOptionCode, arg.ShippingAddress, arg.BillingAddress)
	return err
}

const clearCartContact = `
UPDATE carts
SET email = NULL, shipping_option_code = NULL, shipping_address = NULL,
    billing_address = NULL, reservation_expires_at = NULL, updated_at = now()
WHERE id = $1
`

func (q *Queries) ClearCartContact(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, clearCartContact, id)
	return err
}

const updateCartReservationExpiry = `
UPDATE carts
SET reservation_expires_at = $2, updated_at = now()
WHERE id = $1
`

func (q *Queries) UpdateCartReservationExpiry(ctx context.Context, arg UpdateCartReservationExpiryParams) error {
	_, err := q.db.Exec(ctx, updateCartReservationExpiry, arg.ID, arg.ReservationExpiresAt)
	return err
}

const deleteCart = `
DELETE FROM carts WHERE id = $1
`

func (q *Queries) DeleteCart(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, deleteCart, id)
	return err
}

const upsertCartItem = `
INSERT INTO cart_items (cart_id, variant_id, quantity, unit_price_cents, promotions, is_gift, gift_message)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (cart_id, variant_id) DO UPDATE
SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
RETURNING cart_id, variant_id, quantity, unit_price_cents, promotions, is_gift, gift_message, created_at, updated_at
`

func (q *Queries) UpsertCartItem(ctx context.Context, arg UpsertCartItemParams) (CartItemRow, error) {
	row := q.db.QueryRow(ctx, upsertCartItem, arg.CartID, arg.VariantID, arg.Quantity,
		arg.UnitPriceCents, arg.Promotions, arg.IsGift, arg.GiftMessage)
	return scanCartItem(row)
}

const setCartItemQuantity = `
UPDATE cart_items
SET quantity = $3, updated_at = now()
WHERE cart_id = $1 AND variant_id = $2
`

func (q *Queries) SetCartItemQuantity(ctx context.Context, arg SetCartItemQuantityParams) error {
	_, err := q.db.Exec(ctx, setCartItemQuantity, arg.CartID, arg.VariantID, arg.Quantity)
	return err
}

const listCartItems = `
SELECT cart_id, variant_id, quantity, unit_price_cents, promotions, is_gift, gift_message, created_at, updated_at
FROM cart_items
WHERE cart_id = $1
ORDER BY created_at
`

func (q *Queries) ListCartItems(ctx context.Context, cartID string) ([]CartItemRow, error) {
	rows, err := q.db.Query(ctx, listCartItems, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CartItemRow
	for rows.Next() {
		var i CartItemRow
		if err := rows.Scan(&i.CartID, &i.VariantID, &i.Quantity, &i.UnitPriceCents,
			&i.Promotions, &i.IsGift, &i.GiftMessage, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteCartItem = `
DELETE FROM cart_items WHERE cart_id = $1 AND variant_id = $2
`

func (q *Queries) DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) error {
	_, err := q.db.Exec(ctx, deleteCartItem, arg.CartID, arg.VariantID)
	return err
}

const deleteCartItems = `
DELETE FROM cart_items WHERE cart_id = $1
`

func (q *Queries) DeleteCartItems(ctx context.Context, cartID string) error {
	_, err := q.db.Exec(ctx, deleteCartItems, cartID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCart(row rowScanner) (CartRow, error) {
	var c CartRow
	err := row.Scan(&c.ID, &c.UserID, &c.GuestToken, &c.Currency, &c.Email,
		&c.ShippingOptionCode, &c.ShippingAddress, &c.BillingAddress,
		&c.ReservationExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanCartItem(row rowScanner) (CartItemRow, error) {
	var i CartItemRow
	err := row.Scan(&i.CartID, &i.VariantID, &i.Quantity, &i.UnitPriceCents,
		&i.Promotions, &i.IsGift, &i.GiftMessage, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}
