// Package jobs holds the periodic maintenance tasks the worker runs:
// sweeping lapsed holds and checkouts, salvaging holds during active
// payment windows, and warning shoppers before their holds lapse.
package jobs

import (
	"context"

	"github.com/dukerupert/idunn/internal/service"
)

// Job is one maintenance task. Run returns how many rows it touched.
type Job struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

// NewReservationCleanupJob deletes holds that expired past the grace
// window, returning their stock to the pool for good.
func NewReservationCleanupJob(reservations *service.ReservationManager, batchSize int) Job {
	return Job{
		Name: "reservation_cleanup",
		Run: func(ctx context.Context) (int, error) {
			return reservations.CleanupExpired(ctx, batchSize)
		},
	}
}

// NewCheckoutExpiryJob sweeps pending checkouts whose payment window
// lapsed, marking them expired.
func NewCheckoutExpiryJob(checkouts *service.CheckoutService, batchSize int) Job {
	return Job{
		Name: "checkout_expiry",
		Run: func(ctx context.Context) (int, error) {
			return checkouts.ExpirePendingCheckouts(ctx, batchSize)
		},
	}
}
