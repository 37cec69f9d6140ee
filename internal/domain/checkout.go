package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCheckoutExpiry is how long a pending checkout remains payable.
const DefaultCheckoutExpiry = 30 * time.Minute

// CheckoutStatus enumerates the checkout state machine. pending is the
// only non-terminal state.
type CheckoutStatus string

const (
	CheckoutPending   CheckoutStatus = "pending"
	CheckoutCompleted CheckoutStatus = "completed"
	CheckoutExpired   CheckoutStatus = "expired"
	CheckoutCancelled CheckoutStatus = "cancelled"
)

// Checkout domain errors. The terminal-state errors are distinct on
// purpose; "already completed" and "expired" fail for different reasons
// and callers debug them differently.
var (
	ErrCheckoutNotFound         = &Error{Code: ENOTFOUND, Message: "Checkout not found"}
	ErrCheckoutAlreadyCompleted = &Error{Code: ECONFLICT, Message: "Checkout has already been completed"}
	ErrCheckoutExpiredErr       = &Error{Code: ECONFLICT, Message: "Checkout has expired"}
	ErrCheckoutCancelled        = &Error{Code: ECONFLICT, Message: "Checkout has been cancelled"}
	ErrCheckoutNotPending       = &Error{Code: ECONFLICT, Message: "Checkout is not pending"}
)

// Checkout is a short-lived snapshot of intent to pay, derived from a
// cart. TotalAmountCents is computed once at creation and frozen; later
// cart mutations never change an existing checkout's amount.
type Checkout struct {
	ID               string
	CartID           CartID
	Owner            CartOwner
	Status           CheckoutStatus
	TotalAmountCents int64
	Currency         Currency
	ExpiresAt        time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time
}

// NewCheckout creates a pending checkout with a frozen total.
func NewCheckout(cartID CartID, owner CartOwner, totalAmountCents int64, currency Currency, expiry time.Duration, now time.Time) (*Checkout, error) {
	if cartID.IsZero() {
		return nil, Invalid("checkout.new", "cart ID is required")
	}
	if err := owner.validate("checkout.new"); err != nil {
		return nil, err
	}
	if totalAmountCents < 0 {
		return nil, Errorf(EINVALID, "checkout.new", "total amount must be non-negative, got %d", totalAmountCents)
	}
	if expiry <= 0 {
		expiry = DefaultCheckoutExpiry
	}
	return &Checkout{
		ID:               uuid.New().String(),
		CartID:           cartID,
		Owner:            owner,
		Status:           CheckoutPending,
		TotalAmountCents: totalAmountCents,
		Currency:         currency,
		ExpiresAt:        now.Add(expiry),
		CreatedAt:        now,
	}, nil
}

// IsExpiredAt is computed, not just state-based: a checkout is logically
// expired once its deadline passes, even before a sweep job updates the
// stored status.
func (c *Checkout) IsExpiredAt(now time.Time) bool {
	return c.Status == CheckoutExpired || now.After(c.ExpiresAt)
}

// IsTerminal reports whether the checkout reached a terminal state.
func (c *Checkout) IsTerminal() bool {
	return c.Status != CheckoutPending
}

// CompleteAt transitions pending → completed. Legal only while pending
// and before the deadline.
func (c *Checkout) CompleteAt(now time.Time) error {
	switch c.Status {
	case CheckoutCompleted:
		return ErrCheckoutAlreadyCompleted
	case CheckoutExpired:
		return ErrCheckoutExpiredErr
	case CheckoutCancelled:
		return ErrCheckoutCancelled
	}
	if now.After(c.ExpiresAt) {
		return ErrCheckoutExpiredErr
	}
	c.Status = CheckoutCompleted
	completedAt := now
	c.CompletedAt = &completedAt
	return nil
}

// Cancel transitions pending or expired → cancelled. Illegal once
// completed.
func (c *Checkout) Cancel() error {
	switch c.Status {
	case CheckoutCompleted:
		return ErrCheckoutAlreadyCompleted
	case CheckoutCancelled:
		return ErrCheckoutCancelled
	}
	c.Status = CheckoutCancelled
	return nil
}

// MarkExpired records that the deadline passed. Used by the sweep job;
// only a pending checkout can be marked.
func (c *Checkout) MarkExpired() error {
	if c.Status != CheckoutPending {
		return ErrCheckoutNotPending
	}
	c.Status = CheckoutExpired
	return nil
}
