package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reservation timing defaults. A reservation is a soft lock: a time-bound,
// non-exclusive claim on inventory that expires automatically rather than
// requiring explicit release.
const (
	DefaultReservationDuration = 30 * time.Minute

	// ExpiringSoonThreshold is how close to expiry a reservation must be
	// to report expiring_soon.
	ExpiringSoonThreshold = 5 * time.Minute

	// ExtensionGracePeriod is how long past expiry a reservation can
	// still be extended.
	ExtensionGracePeriod = time.Hour
)

// Reservation domain errors.
var (
	ErrReservationNotFound = &Error{Code: ENOTFOUND, Message: "Reservation not found"}
	ErrReservationExists   = &Error{Code: ECONFLICT, Message: "A reservation already exists for this cart and variant"}
	ErrPastGracePeriod     = &Error{Code: ECONFLICT, Message: "Reservation expired too long ago to be extended"}
)

// ReservationStatus is derived from the clock, never stored.
type ReservationStatus string

const (
	ReservationActive       ReservationStatus = "active"
	ReservationExpiringSoon ReservationStatus = "expiring_soon"
	ReservationExpired      ReservationStatus = "expired"
)

// Reservation is a time-bound claim of quantity units of one variant for
// one cart. Its expiry clock is independent of the cart's lifecycle.
type Reservation struct {
	ID         string
	CartID     CartID
	VariantID  VariantID
	Quantity   Quantity
	ExpiresAt  time.Time
	CreatedAt  time.Time
	NotifiedAt *time.Time
}

// NewReservation creates a reservation expiring duration from now.
func NewReservation(cartID CartID, variantID VariantID, qty Quantity, duration time.Duration, now time.Time) (*Reservation, error) {
	if cartID.IsZero() {
		return nil, Invalid("reservation.new", "cart ID is required")
	}
	if variantID.IsZero() {
		return nil, Invalid("reservation.new", "variant ID is required")
	}
	if duration <= 0 {
		duration = DefaultReservationDuration
	}
	return &Reservation{
		ID:        uuid.New().String(),
		CartID:    cartID,
		VariantID: variantID,
		Quantity:  qty,
		ExpiresAt: now.Add(duration),
		CreatedAt: now,
	}, nil
}

// StatusAt derives the reservation's status from the clock.
func (r *Reservation) StatusAt(now time.Time) ReservationStatus {
	if now.After(r.ExpiresAt) {
		return ReservationExpired
	}
	if r.ExpiresAt.Sub(now) <= ExpiringSoonThreshold {
		return ReservationExpiringSoon
	}
	return ReservationActive
}

// IsActiveAt reports whether the reservation still holds inventory.
func (r *Reservation) IsActiveAt(now time.Time) bool {
	return !now.After(r.ExpiresAt)
}

// IsExpiredAt reports whether the reservation has lapsed.
func (r *Reservation) IsExpiredAt(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// InGracePeriodAt reports whether the reservation expired recently enough
// to be extended.
func (r *Reservation) InGracePeriodAt(now time.Time) bool {
	return r.IsExpiredAt(now) && now.Sub(r.ExpiresAt) <= ExtensionGracePeriod
}

// CanBeExtendedAt reports whether Extend is currently legal: the
// reservation is either still active or within the grace window.
func (r *Reservation) CanBeExtendedAt(now time.Time) bool {
	return r.IsActiveAt(now) || r.InGracePeriodAt(now)
}

// ExtendAt pushes the expiry out by the given duration. For an active
// reservation the extension is added to the current expiry; for an
// expired-but-in-grace reservation it is computed from now, so a
// successful extension always yields a future expiry. Fails only when the
// reservation is outside the grace window.
func (r *Reservation) ExtendAt(now time.Time, by time.Duration) error {
	if by <= 0 {
		return Invalid("reservation.extend", "extension must be positive")
	}
	if !r.CanBeExtendedAt(now) {
		return ErrPastGracePeriod
	}
	if r.IsExpiredAt(now) {
		r.ExpiresAt = now.Add(by)
	} else {
		r.ExpiresAt = r.ExpiresAt.Add(by)
	}
	r.NotifiedAt = nil
	return nil
}

// RenewAt unconditionally resets the expiry to now plus the duration,
// regardless of current state.
func (r *Reservation) RenewAt(now time.Time, duration time.Duration) {
	if duration <= 0 {
		duration = DefaultReservationDuration
	}
	r.ExpiresAt = now.Add(duration)
	r.NotifiedAt = nil
}

// RemainingAt returns the time left before expiry, clamped at zero.
func (r *Reservation) RemainingAt(now time.Time) time.Duration {
	remaining := r.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
