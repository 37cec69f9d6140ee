package events

import (
	"context"
	"time"
)

// Subjects for the events the store emits. Consumers subscribe with
// "idunn.>" for the full stream.
const (
	SubjectOrderCreated        = "idunn.order.created"
	SubjectCheckoutExpired     = "idunn.checkout.expired"
	SubjectReservationReleased = "idunn.reservation.released"
	SubjectCartTransferred     = "idunn.cart.transferred"
)

// Publisher emits domain events after the owning transaction commits.
// Publishing is best effort; a failed publish never rolls back state.
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
	Close()
}

// OrderCreated is emitted once per completed checkout.
type OrderCreated struct {
	OrderID    string    `json:"order_id"`
	OrderNo    string    `json:"order_no"`
	CheckoutID string    `json:"checkout_id"`
	CartID     string    `json:"cart_id"`
	TotalCents int64     `json:"total_cents"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
}

// CheckoutExpired is emitted by the expiry sweep.
type CheckoutExpired struct {
	CheckoutID string    `json:"checkout_id"`
	CartID     string    `json:"cart_id"`
	ExpiredAt  time.Time `json:"expired_at"`
}

// ReservationReleased is emitted when a hold is returned to the pool.
type ReservationReleased struct {
	ReservationID string    `json:"reservation_id"`
	CartID        string    `json:"cart_id"`
	VariantID     string    `json:"variant_id"`
	Quantity      int       `json:"quantity"`
	Reason        string    `json:"reason"`
	ReleasedAt    time.Time `json:"released_at"`
}

// CartTransferred is emitted when a guest cart becomes a user cart.
type CartTransferred struct {
	CartID        string    `json:"cart_id"`
	UserID        string    `json:"user_id"`
	Merged        bool      `json:"merged"`
	TransferredAt time.Time `json:"transferred_at"`
}
