package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/dukerupert/idunn/internal/domain"
	"github.com/dukerupert/idunn/internal/repository"
	"github.com/dukerupert/idunn/internal/telemetry"
)

// Availability reports how much of a variant can still be reserved.
type Availability struct {
	VariantID               domain.VariantID
	TotalStock              int64
	TotalReserved           int64
	ActiveReserved          int64
	AvailableForReservation int64
	Available               bool
}

// ConflictAction records one step taken while resolving an oversold variant.
type ConflictAction struct {
	ReservationID string
	CartID        domain.CartID
	Action        string // "reduced" or "cancelled"
	OldQuantity   int
	NewQuantity   int
}

// ConflictResolution is the outcome of ResolveReservationConflicts.
type ConflictResolution struct {
	VariantID  domain.VariantID
	OversoldBy int64
	Resolved   bool
	Actions    []ConflictAction
}

// ReservationManager owns the soft-lock lifecycle: creating holds
// against stock, extending them, and returning them to the pool.
type ReservationManager struct {
	store    repository.Store
	logger   *slog.Logger
	metrics  *telemetry.BusinessMetrics
	duration time.Duration
	now      func() time.Time
}

// NewReservationManager creates a reservation manager. A zero duration
// falls back to the default hold length.
func NewReservationManager(store repository.Store, logger *slog.Logger, metrics *telemetry.BusinessMetrics, duration time.Duration) *ReservationManager {
	if duration <= 0 {
		duration = domain.DefaultReservationDuration
	}
	return &ReservationManager{
		store:    store,
		logger:   logger,
		metrics:  metrics,
		duration: duration,
		now:      time.Now,
	}
}

// CheckAvailability reports whether qty units of a variant can be held
// right now. excludeCartID discounts that cart's own hold from the
// reserved pool; callers passing it must then ask for the absolute
// quantity they want to end up holding, not the increment.
func (m *ReservationManager) CheckAvailability(ctx context.Context, variantID domain.VariantID, qty int, excludeCartID *domain.CartID) (*Availability, error) {
	return m.checkAvailability(ctx, m.store, variantID, qty, excludeCartID)
}

func (m *ReservationManager) checkAvailability(ctx context.Context, q repository.Querier, variantID domain.VariantID, qty int, excludeCartID *domain.CartID) (*Availability, error) {
	now := m.now()

	stock, err := q.GetTotalStockByVariant(ctx, variantID.String())
	if err != nil {
		return nil, domain.Internal(err, "reservation.availability", "failed to read stock")
	}

	totalReserved, err := q.SumReservedByVariant(ctx, variantID.String())
	if err != nil {
		return nil, domain.Internal(err, "reservation.availability", "failed to sum reservations")
	}
	activeReserved, err := q.SumActiveReservedByVariant(ctx, repository.SumActiveReservedByVariantParams{
		VariantID: variantID.String(),
		Now:       now,
	})
	if err != nil {
		return nil, domain.Internal(err, "reservation.availability", "failed to sum active reservations")
	}

	// Only clock-active holds count against availability. Expired holds
	// in grace still show in TotalReserved for observability.
	counted := activeReserved
	if excludeCartID != nil {
		own, err := q.GetReservationByCartAndVariant(ctx, repository.GetReservationByCartAndVariantParams{
			CartID:    excludeCartID.String(),
			VariantID: variantID.String(),
		})
		if err != nil && !repository.IsNoRows(err) {
			return nil, domain.Internal(err, "reservation.availability", "failed to read own reservation")
		}
		if err == nil && own.ExpiresAt.After(now) {
			counted -= int64(own.Quantity)
		}
	}

	available := stock - counted
	if available < 0 {
		available = 0
	}

	return &Availability{
		VariantID:               variantID,
		TotalStock:              stock,
		TotalReserved:           totalReserved,
		ActiveReserved:          activeReserved,
		AvailableForReservation: available,
		Available:               int64(qty) <= available,
	}, nil
}

// Reserve places a new hold for a cart. A live hold for the same
// (cart, variant) pair is a conflict; callers growing an existing hold
// go through Adjust. A hold that has lapsed past its expiry is replaced
// by the fresh claim.
func (m *ReservationManager) Reserve(ctx context.Context, cartID domain.CartID, variantID domain.VariantID, qty domain.Quantity) (*domain.Reservation, error) {
	var out *domain.Reservation
	err := m.store.ExecTx(ctx, func(q repository.Querier) error {
		now := m.now()
		existing, err := q.GetReservationByCartAndVariant(ctx, repository.GetReservationByCartAndVariantParams{
			CartID:    cartID.String(),
			VariantID: variantID.String(),
		})
		if err != nil && !repository.IsNoRows(err) {
			return domain.Internal(err, "reservation.reserve", "failed to read reservation")
		}
		if err == nil && existing.ExpiresAt.After(now) {
			return domain.ErrReservationExists
		}

		avail, aerr := m.checkAvailability(ctx, q, variantID, qty.Int(), &cartID)
		if aerr != nil {
			return aerr
		}
		if !avail.Available {
			return domain.Errorf(domain.ECAPACITY, "reservation.reserve", "only %d units of this item are available", avail.AvailableForReservation)
		}

		if err == nil {
			// Lapsed hold for the same pair: the fresh claim takes its
			// row over with a full window.
			if err := q.UpdateReservationQuantity(ctx, repository.UpdateReservationQuantityParams{
				ID:       existing.ID,
				Quantity: int32(qty.Int()),
			}); err != nil {
				return domain.Internal(err, "reservation.reserve", "failed to update reservation")
			}
			expiresAt := now.Add(m.duration)
			if err := q.UpdateReservationExpiry(ctx, repository.UpdateReservationExpiryParams{
				ID:        existing.ID,
				ExpiresAt: expiresAt,
			}); err != nil {
				return domain.Internal(err, "reservation.reserve", "failed to renew reservation")
			}
			res, rerr := reservationFromRow(existing)
			if rerr != nil {
				return rerr
			}
			res.Quantity = qty
			res.ExpiresAt = expiresAt
			res.NotifiedAt = nil
			out = res
			return nil
		}

		res, rerr := domain.NewReservation(cartID, variantID, qty, m.duration, now)
		if rerr != nil {
			return rerr
		}
		row, cerr := q.CreateReservation(ctx, repository.CreateReservationParams{
			ID:        res.ID,
			CartID:    cartID.String(),
			VariantID: variantID.String(),
			Quantity:  int32(qty.Int()),
			ExpiresAt: res.ExpiresAt,
		})
		if cerr != nil {
			return domain.Internal(cerr, "reservation.reserve", "failed to create reservation")
		}
		out, err = reservationFromRow(row)
		return err
	})
	if err != nil {
		return nil, err
	}

	if m.metrics != nil {
		m.metrics.ReservationsCreated.Inc()
	}
	if err := m.syncCartExpiry(ctx, cartID); err != nil {
		m.logger.Warn("failed to sync cart reservation expiry", "cart_id", cartID, "error", err)
	}
	return out, nil
}

// Adjust changes a hold to a new absolute quantity. An increase must
// fit within stock minus everyone else's live holds; a decrease always
// succeeds. Zero or negative releases the hold.
func (m *ReservationManager) Adjust(ctx context.Context, cartID domain.CartID, variantID domain.VariantID, newQty int) error {
	if newQty <= 0 {
		return m.releaseByCartAndVariant(ctx, cartID, variantID, "cart_update")
	}

	err := m.store.ExecTx(ctx, func(q repository.Querier) error {
		existing, err := q.GetReservationByCartAndVariant(ctx, repository.GetReservationByCartAndVariantParams{
			CartID:    cartID.String(),
			VariantID: variantID.String(),
		})
		if repository.IsNoRows(err) {
			return domain.ErrReservationNotFound
		}
		if err != nil {
			return domain.Internal(err, "reservation.adjust", "failed to read reservation")
		}

		if newQty > int(existing.Quantity) {
			// The availability pool already excludes this cart's own
			// hold, so the new absolute quantity is what must fit.
			avail, err := m.checkAvailability(ctx, q, variantID, newQty, &cartID)
			if err != nil {
				return err
			}
			if !avail.Available {
				return domain.Errorf(domain.ECAPACITY, "reservation.adjust", "only %d units of this item are available", avail.AvailableForReservation)
			}
		}

		if err := q.UpdateReservationQuantity(ctx, repository.UpdateReservationQuantityParams{
			ID:       existing.ID,
			Quantity: int32(newQty),
		}); err != nil {
			return domain.Internal(err, "reservation.adjust", "failed to update reservation")
		}
		return nil
	})
	if err != nil {
		return err
	}
	return m.syncCartExpiry(ctx, cartID)
}

// Extend pushes a hold's expiry out. Active holds extend additively;
// holds expired within the grace window restart from now.
func (m *ReservationManager) Extend(ctx context.Context, reservationID string, by time.Duration) (*domain.Reservation, error) {
	if by <= 0 {
		by = m.duration
	}

	row, err := m.store.GetReservationByID(ctx, reservationID)
	if repository.IsNoRows(err) {
		return nil, domain.ErrReservationNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "reservation.extend", "failed to read reservation")
	}

	res, err := reservationFromRow(row)
	if err != nil {
		return nil, err
	}
	if err := res.ExtendAt(m.now(), by); err != nil {
		return nil, err
	}

	if err := m.store.UpdateReservationExpiry(ctx, repository.UpdateReservationExpiryParams{
		ID:         res.ID,
		ExpiresAt:  res.ExpiresAt,
		NotifiedAt: res.NotifiedAt,
	}); err != nil {
		return nil, domain.Internal(err, "reservation.extend", "failed to persist extension")
	}

	if m.metrics != nil {
		m.metrics.ReservationsExtended.Inc()
	}
	if err := m.syncCartExpiry(ctx, res.CartID); err != nil {
		m.logger.Warn("failed to sync cart reservation expiry", "cart_id", res.CartID, "error", err)
	}
	return res, nil
}

// Renew restarts a hold for a full window regardless of its state.
// Used when the shopper demonstrably returns (e.g. initiates checkout).
func (m *ReservationManager) Renew(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	row, err := m.store.GetReservationByID(ctx, reservationID)
	if repository.IsNoRows(err) {
		return nil, domain.ErrReservationNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "reservation.renew", "failed to read reservation")
	}

	res, err := reservationFromRow(row)
	if err != nil {
		return nil, err
	}
	res.RenewAt(m.now(), m.duration)

	if err := m.store.UpdateReservationExpiry(ctx, repository.UpdateReservationExpiryParams{
		ID:        res.ID,
		ExpiresAt: res.ExpiresAt,
	}); err != nil {
		return nil, domain.Internal(err, "reservation.renew", "failed to persist renewal")
	}

	if m.metrics != nil {
		m.metrics.ReservationsExtended.Inc()
	}
	return res, nil
}

// RenewForCart restarts every hold a cart has. Called when checkout
// begins so holds outlive the payment window.
func (m *ReservationManager) RenewForCart(ctx context.Context, cartID domain.CartID, minimum time.Duration) error {
	if minimum < m.duration {
		minimum = m.duration
	}
	now := m.now()
	expiresAt := now.Add(minimum)

	rows, err := m.store.ListReservationsByCart(ctx, cartID.String())
	if err != nil {
		return domain.Internal(err, "reservation.renew_cart", "failed to list reservations")
	}
	for _, row := range rows {
		if row.ExpiresAt.After(expiresAt) {
			continue
		}
		if err := m.store.UpdateReservationExpiry(ctx, repository.UpdateReservationExpiryParams{
			ID:        row.ID,
			ExpiresAt: expiresAt,
		}); err != nil {
			return domain.Internal(err, "reservation.renew_cart", "failed to renew reservation")
		}
	}
	return m.syncCartExpiry(ctx, cartID)
}

// Release returns one hold to the pool.
func (m *ReservationManager) Release(ctx context.Context, reservationID, reason string) error {
	row, err := m.store.GetReservationByID(ctx, reservationID)
	if repository.IsNoRows(err) {
		return domain.ErrReservationNotFound
	}
	if err != nil {
		return domain.Internal(err, "reservation.release", "failed to read reservation")
	}

	if err := m.store.DeleteReservation(ctx, reservationID); err != nil {
		return domain.Internal(err, "reservation.release", "failed to delete reservation")
	}

	if m.metrics != nil {
		m.metrics.ReservationsReleased.WithLabelValues(reason).Inc()
	}
	m.logger.Info("reservation released",
		"reservation_id", reservationID,
		"variant_id", row.VariantID,
		"quantity", row.Quantity,
		"reason", reason,
	)

	if cartID, err := domain.ParseCartID(row.CartID); err == nil {
		if err := m.syncCartExpiry(ctx, cartID); err != nil {
			m.logger.Warn("failed to sync cart reservation expiry", "cart_id", cartID, "error", err)
		}
	}
	return nil
}

func (m *ReservationManager) releaseByCartAndVariant(ctx context.Context, cartID domain.CartID, variantID domain.VariantID, reason string) error {
	row, err := m.store.GetReservationByCartAndVariant(ctx, repository.GetReservationByCartAndVariantParams{
		CartID:    cartID.String(),
		VariantID: variantID.String(),
	})
	if repository.IsNoRows(err) {
		return nil
	}
	if err != nil {
		return domain.Internal(err, "reservation.release", "failed to read reservation")
	}
	return m.Release(ctx, row.ID, reason)
}

// ReleaseForCart drops every hold a cart has.
func (m *ReservationManager) ReleaseForCart(ctx context.Context, cartID domain.CartID, reason string) error {
	rows, err := m.store.ListReservationsByCart(ctx, cartID.String())
	if err != nil {
		return domain.Internal(err, "reservation.release_cart", "failed to list reservations")
	}
	if err := m.store.DeleteReservationsByCart(ctx, cartID.String()); err != nil {
		return domain.Internal(err, "reservation.release_cart", "failed to delete reservations")
	}
	if m.metrics != nil {
		for range rows {
			m.metrics.ReservationsReleased.WithLabelValues(reason).Inc()
		}
	}
	return m.store.UpdateCartReservationExpiry(ctx, repository.UpdateCartReservationExpiryParams{
		ID: cartID.String(),
	})
}

// GetForCart returns a cart's holds with clock-derived status.
func (m *ReservationManager) GetForCart(ctx context.Context, cartID domain.CartID) ([]*domain.Reservation, error) {
	rows, err := m.store.ListReservationsByCart(ctx, cartID.String())
	if err != nil {
		return nil, domain.Internal(err, "reservation.list", "failed to list reservations")
	}
	out := make([]*domain.Reservation, 0, len(rows))
	for _, row := range rows {
		res, err := reservationFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// GetReservationsForCleanup returns holds past the grace window, oldest
// first, up to batchSize.
func (m *ReservationManager) GetReservationsForCleanup(ctx context.Context, batchSize int) ([]*domain.Reservation, error) {
	rows, err := m.store.ListExpiredReservations(ctx, repository.ListExpiredReservationsParams{
		Cutoff: m.now().Add(-domain.ExtensionGracePeriod),
		Limit:  int32(batchSize),
	})
	if err != nil {
		return nil, domain.Internal(err, "reservation.cleanup", "failed to list expired reservations")
	}
	return m.fromRows(rows)
}

// GetReservationsForExtension returns holds that expired within the
// grace window, i.e. still salvageable.
func (m *ReservationManager) GetReservationsForExtension(ctx context.Context, batchSize int) ([]*domain.Reservation, error) {
	now := m.now()
	rows, err := m.store.ListReservationsInGrace(ctx, repository.ListReservationsInGraceParams{
		Now:        now,
		GraceStart: now.Add(-domain.ExtensionGracePeriod),
		Limit:      int32(batchSize),
	})
	if err != nil {
		return nil, domain.Internal(err, "reservation.extension", "failed to list grace reservations")
	}
	return m.fromRows(rows)
}

// GetReservationsForNotification returns active holds entering the
// expiring-soon window that have not been notified yet.
func (m *ReservationManager) GetReservationsForNotification(ctx context.Context, batchSize int) ([]*domain.Reservation, error) {
	now := m.now()
	rows, err := m.store.ListExpiringReservations(ctx, repository.ListExpiringReservationsParams{
		Now:   now,
		Until: now.Add(domain.ExpiringSoonThreshold),
		Limit: int32(batchSize),
	})
	if err != nil {
		return nil, domain.Internal(err, "reservation.notification", "failed to list expiring reservations")
	}
	return m.fromRows(rows)
}

// MarkNotified records that an expiring-soon notice went out, so the
// shopper is not nagged again for the same window.
func (m *ReservationManager) MarkNotified(ctx context.Context, reservationID string) error {
	if err := m.store.MarkReservationNotified(ctx, repository.MarkReservationNotifiedParams{
		ID:         reservationID,
		NotifiedAt: m.now(),
	}); err != nil {
		return domain.Internal(err, "reservation.notify", "failed to mark reservation notified")
	}
	return nil
}

// CleanupExpired deletes holds past the grace window and returns how
// many were removed.
func (m *ReservationManager) CleanupExpired(ctx context.Context, batchSize int) (int, error) {
	stale, err := m.GetReservationsForCleanup(ctx, batchSize)
	if err != nil {
		return 0, err
	}
	for _, res := range stale {
		if err := m.store.DeleteReservation(ctx, res.ID); err != nil {
			return 0, domain.Internal(err, "reservation.cleanup", "failed to delete reservation")
		}
		if m.metrics != nil {
			m.metrics.ReservationsReleased.WithLabelValues("expired").Inc()
		}
	}
	return len(stale), nil
}

// ResolveReservationConflicts reconciles a variant whose active holds
// exceed stock (possible after a stock correction). Newest holds pay
// first: they are reduced, then cancelled outright, until the variant
// is no longer oversold.
func (m *ReservationManager) ResolveReservationConflicts(ctx context.Context, variantID domain.VariantID) (*ConflictResolution, error) {
	result := &ConflictResolution{VariantID: variantID}

	err := m.store.ExecTx(ctx, func(q repository.Querier) error {
		now := m.now()

		stock, err := q.GetTotalStockByVariant(ctx, variantID.String())
		if err != nil {
			return domain.Internal(err, "reservation.conflicts", "failed to read stock")
		}

		rows, err := q.ListReservationsByVariant(ctx, variantID.String())
		if err != nil {
			return domain.Internal(err, "reservation.conflicts", "failed to list reservations")
		}

		var active []repository.ReservationRow
		var reserved int64
		for _, row := range rows {
			if row.ExpiresAt.After(now) {
				active = append(active, row)
				reserved += int64(row.Quantity)
			}
		}

		oversold := reserved - stock
		result.OversoldBy = oversold
		if oversold <= 0 {
			result.Resolved = true
			return nil
		}

		// Newest first. Latecomers lose before long-standing holds.
		sort.Slice(active, func(i, j int) bool {
			return active[i].CreatedAt.After(active[j].CreatedAt)
		})

		for _, row := range active {
			if oversold <= 0 {
				break
			}
			cartID, err := domain.ParseCartID(row.CartID)
			if err != nil {
				return err
			}

			if int64(row.Quantity) > oversold {
				newQty := int64(row.Quantity) - oversold
				if err := q.UpdateReservationQuantity(ctx, repository.UpdateReservationQuantityParams{
					ID:       row.ID,
					Quantity: int32(newQty),
				}); err != nil {
					return domain.Internal(err, "reservation.conflicts", "failed to reduce reservation")
				}
				result.Actions = append(result.Actions, ConflictAction{
					ReservationID: row.ID,
					CartID:        cartID,
					Action:        "reduced",
					OldQuantity:   int(row.Quantity),
					NewQuantity:   int(newQty),
				})
				oversold = 0
				break
			}

			if err := q.DeleteReservation(ctx, row.ID); err != nil {
				return domain.Internal(err, "reservation.conflicts", "failed to cancel reservation")
			}
			result.Actions = append(result.Actions, ConflictAction{
				ReservationID: row.ID,
				CartID:        cartID,
				Action:        "cancelled",
				OldQuantity:   int(row.Quantity),
			})
			oversold -= int64(row.Quantity)
		}

		result.Resolved = oversold <= 0
		return nil
	})
	if err != nil {
		return nil, err
	}

	if m.metrics != nil {
		for _, a := range result.Actions {
			m.metrics.ReservationConflicts.WithLabelValues(a.Action).Inc()
		}
	}
	for _, a := range result.Actions {
		m.logger.Warn("reservation conflict resolved",
			"variant_id", variantID,
			"reservation_id", a.ReservationID,
			"action", a.Action,
			"old_quantity", a.OldQuantity,
			"new_quantity", a.NewQuantity,
		)
	}
	return result, nil
}

func (m *ReservationManager) fromRows(rows []repository.ReservationRow) ([]*domain.Reservation, error) {
	out := make([]*domain.Reservation, 0, len(rows))
	for _, row := range rows {
		res, err := reservationFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// syncCartExpiry keeps the cart's denormalized reservation expiry equal
// to the latest expiry among its holds.
func (m *ReservationManager) syncCartExpiry(ctx context.Context, cartID domain.CartID) error {
	rows, err := m.store.ListReservationsByCart(ctx, cartID.String())
	if err != nil {
		return domain.Internal(err, "reservation.sync", "failed to list reservations")
	}

	var latest *time.Time
	for _, row := range rows {
		if latest == nil || row.ExpiresAt.After(*latest) {
			t := row.ExpiresAt
			latest = &t
		}
	}
	return m.store.UpdateCartReservationExpiry(ctx, repository.UpdateCartReservationExpiryParams{
		ID:                   cartID.String(),
		ReservationExpiresAt: latest,
	})
}
