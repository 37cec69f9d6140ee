package domain

import (
	"time"
)

// Order status values. Orders produced by the checkout orchestrator start
// life as paid; fulfillment states are owned elsewhere.
const (
	OrderStatusPaid = "paid"
)

// Order domain errors.
var (
	ErrOrderNotFound   = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrVariantNotFound = &Error{Code: ENOTFOUND, Message: "Product variant not found"}
	ErrProductNotFound = &Error{Code: ENOTFOUND, Message: "Product not found"}
)

// OrderLineSnapshot is the immutable per-item snapshot persisted with an
// order line. It is resolved once at order creation and never joined back
// to the live catalog; a price snapshot is a price captured at the moment
// of the action and never re-derived afterward.
type OrderLineSnapshot struct {
	VariantID      VariantID
	ProductID      string
	SKU            string
	DisplayName    string
	UnitPriceCents int64
	Quantity       Quantity
	TotalCents     int64
	WeightGrams    int32
	Size           string
	Color          string
}

// OrderSummary is what the orchestrator returns for a converted checkout.
// Replaying the conversion for the same checkout ID returns the same
// summary.
type OrderSummary struct {
	OrderID         string
	OrderNo         string
	CheckoutID      string
	PaymentIntentID string
	TotalAmount     int64
	Currency        Currency
	Status          string
	CreatedAt       time.Time
}
