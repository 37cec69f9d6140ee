package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/idunn/internal/billing"
	"github.com/dukerupert/idunn/internal/domain"
	"github.com/dukerupert/idunn/internal/events"
	"github.com/dukerupert/idunn/internal/repository"
	"github.com/dukerupert/idunn/internal/shipping"
	"github.com/dukerupert/idunn/internal/tax"
	"github.com/dukerupert/idunn/internal/telemetry"
	"github.com/google/uuid"
)

// CheckoutResult is what InitiateCheckout hands back to the caller:
// the frozen checkout plus what the frontend needs to collect payment.
type CheckoutResult struct {
	Checkout      *domain.Checkout
	ShippingCents int64
	TaxCents      int64
	ClientSecret  string
	PaymentID     string
}

// CheckoutService freezes carts into checkouts and manages their
// lifecycle until the order orchestrator takes over.
type CheckoutService struct {
	store        repository.Store
	reservations *ReservationManager
	billing      billing.Provider
	shipping     shipping.Provider
	tax          tax.Calculator
	publisher    events.Publisher
	logger       *slog.Logger
	metrics      *telemetry.BusinessMetrics
	expiry       time.Duration
	now          func() time.Time
}

// NewCheckoutService creates a checkout service. A zero expiry falls
// back to the default checkout window.
func NewCheckoutService(store repository.Store, reservations *ReservationManager, billingProvider billing.Provider, shippingProvider shipping.Provider, taxCalc tax.Calculator, publisher events.Publisher, logger *slog.Logger, metrics *telemetry.BusinessMetrics, expiry time.Duration) *CheckoutService {
	if expiry <= 0 {
		expiry = domain.DefaultCheckoutExpiry
	}
	return &CheckoutService{
		store:        store,
		reservations: reservations,
		billing:      billingProvider,
		shipping:     shippingProvider,
		tax:          taxCalc,
		publisher:    publisher,
		logger:       logger,
		metrics:      metrics,
		expiry:       expiry,
		now:          time.Now,
	}
}

// InitiateCheckout freezes the cart's current total into a checkout,
// renews the cart's holds to cover the payment window, and opens a
// payment intent. Calling it again for the same cart refreshes the
// existing pending checkout instead of stacking a second one.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, cartID domain.CartID) (*CheckoutResult, error) {
	cartRow, err := s.store.GetCartByID(ctx, cartID.String())
	if repository.IsNoRows(err) {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "checkout.initiate", "failed to load cart")
	}
	itemRows, err := s.store.ListCartItems(ctx, cartID.String())
	if err != nil {
		return nil, domain.Internal(err, "checkout.initiate", "failed to load cart items")
	}
	cart, err := cartFromRows(cartRow, itemRows)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if cart.Email() == "" {
		return nil, ErrMissingEmail
	}

	shippingCents, err := s.shippingCost(ctx, cart)
	if err != nil {
		return nil, err
	}
	taxCents, err := s.taxCost(ctx, cart, shippingCents)
	if err != nil {
		return nil, err
	}
	total := cart.TotalCents() + shippingCents + taxCents

	now := s.now()
	expiresAt := now.Add(s.expiry)

	var checkout *domain.Checkout
	pending, err := s.store.GetPendingCheckoutByCart(ctx, cartID.String())
	switch {
	case err == nil:
		// Refresh the frozen total and restart the clock on the
		// existing pending row.
		if err := s.store.UpdatePendingCheckout(ctx, repository.UpdatePendingCheckoutParams{
			ID:               pending.ID,
			TotalAmountCents: total,
			ExpiresAt:        expiresAt,
		}); err != nil {
			return nil, domain.Internal(err, "checkout.initiate", "failed to refresh checkout")
		}
		pending.TotalAmountCents = total
		pending.ExpiresAt = expiresAt
		checkout, err = checkoutFromRow(pending)
		if err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.CheckoutsReused.Inc()
		}

	case repository.IsNoRows(err):
		checkout, err = domain.NewCheckout(cartID, cart.Owner(), total, cart.Currency(), s.expiry, now)
		if err != nil {
			return nil, err
		}
		userCol, guestCol := ownerColumns(cart.Owner())
		if _, err := s.store.CreateCheckout(ctx, repository.CreateCheckoutParams{
			ID:               checkout.ID,
			CartID:           cartID.String(),
			UserID:           userCol,
			GuestToken:       guestCol,
			Status:           string(domain.CheckoutPending),
			TotalAmountCents: total,
			Currency:         string(cart.Currency()),
			ExpiresAt:        checkout.ExpiresAt,
		}); err != nil {
			return nil, domain.Internal(err, "checkout.initiate", "failed to create checkout")
		}
		if s.metrics != nil {
			s.metrics.CheckoutsStarted.Inc()
			s.metrics.CartValue.Observe(float64(total))
		}

	default:
		return nil, domain.Internal(err, "checkout.initiate", "failed to look up pending checkout")
	}

	// Holds must survive at least as long as the payment window.
	if err := s.reservations.RenewForCart(ctx, cartID, s.expiry); err != nil {
		return nil, err
	}

	intent, err := s.billing.CreatePaymentIntent(ctx, billing.CreatePaymentIntentParams{
		AmountCents:    total,
		Currency:       string(cart.Currency()),
		CustomerEmail:  cart.Email(),
		Description:    "Order payment",
		IdempotencyKey: checkout.ID,
		Metadata: map[string]string{
			"checkout_id": checkout.ID,
			"cart_id":     cartID.String(),
		},
	})
	if err != nil {
		return nil, domain.WrapError(err, domain.EPAYMENT, "checkout.initiate", "failed to open payment intent")
	}

	payment, err := s.upsertPayment(ctx, checkout, intent)
	if err != nil {
		return nil, err
	}

	s.logger.Info("checkout initiated",
		"checkout_id", checkout.ID,
		"cart_id", cartID,
		"total_cents", total,
		"expires_at", checkout.ExpiresAt,
	)

	return &CheckoutResult{
		Checkout:      checkout,
		ShippingCents: shippingCents,
		TaxCents:      taxCents,
		ClientSecret:  intent.ClientSecret,
		PaymentID:     payment.ID,
	}, nil
}

func (s *CheckoutService) upsertPayment(ctx context.Context, checkout *domain.Checkout, intent *billing.PaymentIntent) (repository.PaymentRow, error) {
	existing, err := s.store.GetPaymentByIntentID(ctx, intent.ID)
	if err == nil {
		return existing, nil
	}
	if !repository.IsNoRows(err) {
		return repository.PaymentRow{}, domain.Internal(err, "checkout.initiate", "failed to look up payment")
	}

	row, err := s.store.CreatePayment(ctx, repository.CreatePaymentParams{
		ID:              uuid.New().String(),
		CheckoutID:      checkout.ID,
		PaymentIntentID: intent.ID,
		Status:          intent.Status,
		AmountCents:     intent.AmountCents,
		Currency:        intent.Currency,
	})
	if err != nil {
		return repository.PaymentRow{}, domain.Internal(err, "checkout.initiate", "failed to record payment")
	}
	return row, nil
}

func (s *CheckoutService) shippingCost(ctx context.Context, cart *domain.Cart) (int64, error) {
	rate, err := s.shipping.GetRate(ctx, cart.ShippingOptionCode(), shipping.RateParams{
		Packages:      []shipping.Package{{WeightGrams: 0}},
		SubtotalCents: cart.SubtotalCents(),
	})
	if err != nil {
		return 0, domain.WrapError(err, domain.EINVALID, "checkout.initiate", "failed to price shipping")
	}
	return rate.CostCents, nil
}

func (s *CheckoutService) taxCost(ctx context.Context, cart *domain.Cart, shippingCents int64) (int64, error) {
	result, err := s.tax.CalculateTax(ctx, tax.TaxParams{
		SubtotalCents: cart.TotalCents(),
		ShippingCents: shippingCents,
	})
	if err != nil {
		return 0, domain.Internal(err, "checkout.initiate", "failed to calculate tax")
	}
	return result.TotalTaxCents, nil
}

// GetCheckout loads a checkout by ID.
func (s *CheckoutService) GetCheckout(ctx context.Context, checkoutID string) (*domain.Checkout, error) {
	row, err := s.store.GetCheckoutByID(ctx, checkoutID)
	if repository.IsNoRows(err) {
		return nil, domain.ErrCheckoutNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "checkout.get", "failed to load checkout")
	}
	return checkoutFromRow(row)
}

// CancelCheckout moves a checkout to cancelled and voids its payment
// intent best effort. Holds stay with the cart; the shopper may try
// again before they lapse.
func (s *CheckoutService) CancelCheckout(ctx context.Context, checkoutID string) error {
	checkout, err := s.GetCheckout(ctx, checkoutID)
	if err != nil {
		return err
	}
	if err := checkout.Cancel(); err != nil {
		return err
	}

	if err := s.store.UpdateCheckoutStatus(ctx, repository.UpdateCheckoutStatusParams{
		ID:     checkout.ID,
		Status: string(domain.CheckoutCancelled),
	}); err != nil {
		return domain.Internal(err, "checkout.cancel", "failed to persist cancellation")
	}

	if payment, perr := s.store.GetPaymentByCheckoutID(ctx, checkoutID); perr == nil {
		if cerr := s.billing.CancelPaymentIntent(ctx, payment.PaymentIntentID); cerr != nil {
			s.logger.Warn("failed to void payment intent",
				"checkout_id", checkoutID,
				"payment_intent_id", payment.PaymentIntentID,
				"error", cerr,
			)
		}
	}

	if s.metrics != nil {
		s.metrics.CheckoutsCancelled.Inc()
	}
	return nil
}

// ExpirePendingCheckouts sweeps pending checkouts past their deadline,
// marking them expired and emitting an event per checkout. Returns the
// number swept.
func (s *CheckoutService) ExpirePendingCheckouts(ctx context.Context, batchSize int) (int, error) {
	now := s.now()
	rows, err := s.store.ListExpiredPendingCheckouts(ctx, repository.ListExpiredPendingCheckoutsParams{
		Now:   now,
		Limit: int32(batchSize),
	})
	if err != nil {
		return 0, domain.Internal(err, "checkout.expire", "failed to list expired checkouts")
	}

	for _, row := range rows {
		if err := s.store.UpdateCheckoutStatus(ctx, repository.UpdateCheckoutStatusParams{
			ID:     row.ID,
			Status: string(domain.CheckoutExpired),
		}); err != nil {
			return 0, domain.Internal(err, "checkout.expire", "failed to mark checkout expired")
		}
		if s.metrics != nil {
			s.metrics.CheckoutsExpired.Inc()
		}
		if s.publisher != nil {
			_ = s.publisher.Publish(ctx, events.SubjectCheckoutExpired, events.CheckoutExpired{
				CheckoutID: row.ID,
				CartID:     row.CartID,
				ExpiredAt:  now,
			})
		}
	}
	return len(rows), nil
}
