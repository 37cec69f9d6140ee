package jobs

import (
	"context"
	"log/slog"

	"github.com/dukerupert/idunn/internal/email"
	"github.com/dukerupert/idunn/internal/repository"
	"github.com/dukerupert/idunn/internal/service"
)

// NewReservationNotifyJob warns shoppers whose holds enter the
// expiring-soon window. Each hold is notified at most once per window;
// an extension clears the mark and re-arms the notice.
func NewReservationNotifyJob(store repository.Store, reservations *service.ReservationManager, emails *email.Service, logger *slog.Logger, batchSize int) Job {
	return Job{
		Name: "reservation_notify",
		Run: func(ctx context.Context) (int, error) {
			due, err := reservations.GetReservationsForNotification(ctx, batchSize)
			if err != nil {
				return 0, err
			}

			sent := 0
			for _, res := range due {
				cart, err := store.GetCartByID(ctx, res.CartID.String())
				if err != nil || cart.Email == nil {
					// No address on file yet; mark anyway so the batch
					// does not retry the same hold forever.
					if err := reservations.MarkNotified(ctx, res.ID); err != nil {
						return sent, err
					}
					continue
				}

				if err := emails.SendReservationExpiring(ctx, email.ReservationExpiringEmail{
					Email:     *cart.Email,
					ItemCount: res.Quantity.Int(),
					ExpiresAt: res.ExpiresAt,
				}); err != nil {
					logger.Warn("failed to send expiring-hold notice",
						"reservation_id", res.ID,
						"error", err,
					)
					continue
				}
				if err := reservations.MarkNotified(ctx, res.ID); err != nil {
					return sent, err
				}
				sent++
			}
			return sent, nil
		},
	}
}

// NewReservationSalvageJob renews holds that lapsed into the grace
// window while their cart still has a pending checkout. A shopper in
// the middle of paying should not lose their items to the sweep.
func NewReservationSalvageJob(store repository.Store, reservations *service.ReservationManager, logger *slog.Logger, batchSize int) Job {
	return Job{
		Name: "reservation_salvage",
		Run: func(ctx context.Context) (int, error) {
			inGrace, err := reservations.GetReservationsForExtension(ctx, batchSize)
			if err != nil {
				return 0, err
			}

			renewed := 0
			for _, res := range inGrace {
				_, err := store.GetPendingCheckoutByCart(ctx, res.CartID.String())
				if repository.IsNoRows(err) {
					continue
				}
				if err != nil {
					return renewed, err
				}

				if _, err := reservations.Renew(ctx, res.ID); err != nil {
					logger.Warn("failed to salvage hold",
						"reservation_id", res.ID,
						"error", err,
					)
					continue
				}
				renewed++
			}
			return renewed, nil
		},
	}
}
