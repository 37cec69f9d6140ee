package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so the same query
// methods run inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries holds the database handle all query methods run against.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries bound to the given transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// Querier is the full query surface. Services depend on this interface
// so tests can substitute an in-memory implementation.
type Querier interface {
	// Carts
	CreateCart(ctx context.Context, arg CreateCartParams) (CartRow, error)
	GetCartByID(ctx context.Context, id string) (CartRow, error)
	GetCartByUserID(ctx context.Context, userID string) (CartRow, error)
	GetCartByGuestToken(ctx context.Context, guestToken string) (CartRow, error)
	UpdateCartOwner(ctx context.Context, arg UpdateCartOwnerParams) error
	UpdateCartContact(ctx context.Context, arg UpdateCartContactParams) error
	ClearCartContact(ctx context.Context, id string) error
	UpdateCartReservationExpiry(ctx context.Context, arg UpdateCartReservationExpiryParams) error
	DeleteCart(ctx context.Context, id string) error

	// Cart items
	UpsertCartItem(ctx context.Context, arg UpsertCartItemParams) (CartItemRow, error)
	SetCartItemQuantity(ctx context.Context, arg SetCartItemQuantityParams) error
	ListCartItems(ctx context.Context, cartID string) ([]CartItemRow, error)
	DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) error
	DeleteCartItems(ctx context.Context, cartID string) error

	// Reservations
	CreateReservation(ctx context.Context, arg CreateReservationParams) (ReservationRow, error)
	GetReservationByID(ctx context.Context, id string) (ReservationRow, error)
	GetReservationByCartAndVariant(ctx context.Context, arg GetReservationByCartAndVariantParams) (ReservationRow, error)
	ListReservationsByCart(ctx context.Context, cartID string) ([]ReservationRow, error)
	ListReservationsByVariant(ctx context.Context, variantID string) ([]ReservationRow, error)
	SumActiveReservedByVariant(ctx context.Context, arg SumActiveReservedByVariantParams) (int64, error)
	SumReservedByVariant(ctx context.Context, variantID string) (int64, error)
	UpdateReservationExpiry(ctx context.Context, arg UpdateReservationExpiryParams) error
	UpdateReservationQuantity(ctx context.Context, arg UpdateReservationQuantityParams) error
	DeleteReservation(ctx context.Context, id string) error
	DeleteReservationsByCart(ctx context.Context, cartID string) error
	ListExpiredReservations(ctx context.Context, arg ListExpiredReservationsParams) ([]ReservationRow, error)
	ListReservationsInGrace(ctx context.Context, arg ListReservationsInGraceParams) ([]ReservationRow, error)
	ListExpiringReservations(ctx context.Context, arg ListExpiringReservationsParams) ([]ReservationRow, error)
	MarkReservationNotified(ctx context.Context, arg MarkReservationNotifiedParams) error

	// Checkouts
	CreateCheckout(ctx context.Context, arg CreateCheckoutParams) (CheckoutRow, error)
	GetCheckoutByID(ctx context.Context, id string) (CheckoutRow, error)
	GetPendingCheckoutByCart(ctx context.Context, cartID string) (CheckoutRow, error)
	UpdatePendingCheckout(ctx context.Context, arg UpdatePendingCheckoutParams) error
	UpdateCheckoutStatus(ctx context.Context, arg UpdateCheckoutStatusParams) error
	ListExpiredPendingCheckouts(ctx context.Context, arg ListExpiredPendingCheckoutsParams) ([]CheckoutRow, error)

	// Orders
	CreateOrder(ctx context.Context, arg CreateOrderParams) (OrderRow, error)
	GetOrderByID(ctx context.Context, id string) (OrderRow, error)
	GetOrderByCheckoutID(ctx context.Context, checkoutID string) (OrderRow, error)
	CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) error
	ListOrderItems(ctx context.Context, orderID string) ([]OrderItemRow, error)
	CreateOrderAddress(ctx context.Context, arg CreateOrderAddressParams) error
	CreateOrderStatusHistory(ctx context.Context, arg CreateOrderStatusHistoryParams) error
	CreateOrderEvent(ctx context.Context, arg CreateOrderEventParams) error

	// Payments
	CreatePayment(ctx context.Context, arg CreatePaymentParams) (PaymentRow, error)
	GetPaymentByCheckoutID(ctx context.Context, checkoutID string) (PaymentRow, error)
	GetPaymentByIntentID(ctx context.Context, paymentIntentID string) (PaymentRow, error)
	LinkPaymentToOrder(ctx context.Context, arg LinkPaymentToOrderParams) error

	// Catalog
	GetVariantByID(ctx context.Context, id string) (VariantRow, error)
	GetProductByID(ctx context.Context, id string) (ProductRow, error)

	// Inventory
	GetTotalStockByVariant(ctx context.Context, variantID string) (int64, error)
	AdjustStock(ctx context.Context, arg AdjustStockParams) (int64, error)
	GetLocationByID(ctx context.Context, id string) (LocationRow, error)
	FindFirstWarehouse(ctx context.Context) (LocationRow, error)
}

var _ Querier = (*Queries)(nil)

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation, optionally on the named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsNoRows reports whether err means the query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
