package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/dukerupert/idunn/internal/address"
	"github.com/dukerupert/idunn/internal/billing"
	"github.com/dukerupert/idunn/internal/domain"
	"github.com/dukerupert/idunn/internal/email"
	"github.com/dukerupert/idunn/internal/events"
	"github.com/dukerupert/idunn/internal/repository"
	"github.com/dukerupert/idunn/internal/telemetry"
	"github.com/google/uuid"
)

// Actor identifies who is asking to complete a checkout.
type Actor struct {
	UserID     string
	GuestToken domain.GuestToken

	// System marks completions driven by a verified payment event
	// rather than a customer request. Ownership checks are skipped
	// since the processor already tied the payment to the checkout.
	System bool
}

// CompleteCheckoutParams carries a checkout completion request.
// Addresses are optional; when absent the snapshots captured on the
// cart during the contact step are used instead.
type CompleteCheckoutParams struct {
	CheckoutID      string
	PaymentIntentID string
	Actor           Actor
	ShippingAddress *address.Address
	BillingAddress  *address.Address
}

// OrderService turns a paid checkout into an order. The conversion is
// one transaction: stock drawdown, order rows, hold release, cart
// scrub, and checkout completion land together or not at all.
type OrderService struct {
	store     repository.Store
	billing   billing.Provider
	locations LocationSelector
	addresses address.Validator
	publisher events.Publisher
	email     *email.Service
	logger    *slog.Logger
	metrics   *telemetry.BusinessMetrics
	now       func() time.Time
}

// NewOrderService creates the checkout-to-order orchestrator.
func NewOrderService(store repository.Store, billingProvider billing.Provider, locations LocationSelector, addresses address.Validator, publisher events.Publisher, emailSvc *email.Service, logger *slog.Logger, metrics *telemetry.BusinessMetrics) *OrderService {
	return &OrderService{
		store:     store,
		billing:   billingProvider,
		locations: locations,
		addresses: addresses,
		publisher: publisher,
		email:     emailSvc,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// errOrderReplay aborts the creation transaction when another request
// already converted this checkout.
var errOrderReplay = errors.New("order already exists for checkout")

// CompleteCheckoutWithOrder converts a pending, paid checkout into an
// order. Safe to call more than once for the same checkout: replays
// return the order the first call created.
func (s *OrderService) CompleteCheckoutWithOrder(ctx context.Context, params CompleteCheckoutParams) (*domain.OrderSummary, error) {
	checkout, err := s.loadCheckout(ctx, params.CheckoutID)
	if err != nil {
		return nil, err
	}

	// Replay fast path: an order for this checkout means a previous
	// call already did the work.
	if existing, err := s.store.GetOrderByCheckoutID(ctx, params.CheckoutID); err == nil {
		return s.replay(existing), nil
	} else if !repository.IsNoRows(err) {
		return nil, domain.Internal(err, "order.complete", "failed to look up order")
	}

	now := s.now()
	if err := checkout.CompleteAt(now); err != nil {
		return nil, err
	}

	intent, err := s.verifyPayment(ctx, checkout, params.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if err := s.verifyOwnership(checkout, params.Actor); err != nil {
		return nil, err
	}

	// Caller-supplied addresses win over the cart snapshots, but only
	// after passing validation.
	shippingJSON, err := validateAddressJSON(ctx, s.addresses, params.ShippingAddress, "order.complete")
	if err != nil {
		return nil, err
	}
	billingJSON, err := validateAddressJSON(ctx, s.addresses, params.BillingAddress, "order.complete")
	if err != nil {
		return nil, err
	}

	var (
		summary   domain.OrderSummary
		itemCount int
	)
	txErr := s.store.ExecTx(ctx, func(q repository.Querier) error {
		out, count, err := s.createOrderTx(ctx, q, checkout, intent, now, shippingJSON, billingJSON)
		if err != nil {
			return err
		}
		summary, itemCount = out, count
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, errOrderReplay) {
			existing, err := s.store.GetOrderByCheckoutID(ctx, params.CheckoutID)
			if err != nil {
				return nil, domain.Internal(err, "order.complete", "failed to load replayed order")
			}
			return s.replay(existing), nil
		}
		return nil, txErr
	}

	s.afterCommit(ctx, checkout, summary, itemCount)
	return &summary, nil
}

func (s *OrderService) loadCheckout(ctx context.Context, checkoutID string) (*domain.Checkout, error) {
	row, err := s.store.GetCheckoutByID(ctx, checkoutID)
	if repository.IsNoRows(err) {
		return nil, domain.ErrCheckoutNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "order.complete", "failed to load checkout")
	}
	return checkoutFromRow(row)
}

// verifyPayment confirms the money side: the intent exists, settled to
// an accepted status, and covers the checkout's frozen total exactly.
func (s *OrderService) verifyPayment(ctx context.Context, checkout *domain.Checkout, paymentIntentID string) (*billing.PaymentIntent, error) {
	if paymentIntentID == "" {
		payment, err := s.store.GetPaymentByCheckoutID(ctx, checkout.ID)
		if repository.IsNoRows(err) {
			return nil, domain.Errorf(domain.EPAYMENT, "order.complete", "no payment on file for this checkout")
		}
		if err != nil {
			return nil, domain.Internal(err, "order.complete", "failed to load payment")
		}
		paymentIntentID = payment.PaymentIntentID
	}

	intent, err := s.billing.GetPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, domain.WrapError(err, domain.EPAYMENT, "order.complete", "failed to verify payment")
	}
	if s.metrics != nil {
		s.metrics.PaymentVerifications.WithLabelValues(intent.Status).Inc()
	}
	if !billing.IsAcceptedStatus(intent.Status) {
		return nil, ErrPaymentNotSettled
	}
	if intent.AmountCents != checkout.TotalAmountCents {
		return nil, ErrAmountMismatch
	}
	return intent, nil
}

// verifyOwnership enforces the asymmetry between the two owner kinds:
// a user ID must match exactly, while a stale guest token is tolerated
// since the verified payment already proves the caller is the payer.
func (s *OrderService) verifyOwnership(checkout *domain.Checkout, actor Actor) error {
	if actor.System {
		return nil
	}
	if checkout.Owner.UserID != "" {
		if actor.UserID != checkout.Owner.UserID {
			return ErrOwnershipMismatch
		}
		return nil
	}

	if actor.GuestToken != checkout.Owner.GuestToken {
		s.logger.Warn("guest token mismatch on paid checkout, proceeding",
			"checkout_id", checkout.ID,
		)
	}
	return nil
}

func (s *OrderService) createOrderTx(ctx context.Context, q repository.Querier, checkout *domain.Checkout, intent *billing.PaymentIntent, now time.Time, shippingJSON, billingJSON []byte) (domain.OrderSummary, int, error) {
	var zero domain.OrderSummary
	cartID := checkout.CartID.String()

	cartRow, err := q.GetCartByID(ctx, cartID)
	if repository.IsNoRows(err) {
		return zero, 0, domain.ErrCartNotFound
	}
	if err != nil {
		return zero, 0, domain.Internal(err, "order.complete", "failed to load cart")
	}
	itemRows, err := q.ListCartItems(ctx, cartID)
	if err != nil {
		return zero, 0, domain.Internal(err, "order.complete", "failed to load cart items")
	}
	cart, err := cartFromRows(cartRow, itemRows)
	if err != nil {
		return zero, 0, err
	}
	if cart.IsEmpty() {
		return zero, 0, ErrEmptyCart
	}

	location, err := s.locations.SelectLocation(ctx, q)
	if err != nil {
		return zero, 0, err
	}

	lines, err := s.snapshotLines(ctx, q, cart)
	if err != nil {
		return zero, 0, err
	}

	orderID := uuid.New().String()
	orderNo := generateOrderNumber(now)

	// Draw down stock before writing the order so an oversell aborts
	// the whole transaction. Each ledger entry references the order it
	// fulfills.
	for _, line := range lines {
		_, err := q.AdjustStock(ctx, repository.AdjustStockParams{
			VariantID:  line.VariantID.String(),
			LocationID: location.ID,
			Delta:      -int64(line.Quantity.Int()),
			Reason:     "order",
			Reference:  &orderID,
		})
		if repository.IsNoRows(err) {
			return zero, 0, ErrInsufficientStock
		}
		if err != nil {
			return zero, 0, domain.Internal(err, "order.complete", "failed to adjust stock")
		}
	}

	subtotal := cart.SubtotalCents()
	discount := cart.TotalDiscountCents()
	shippingAndTax := checkout.TotalAmountCents - cart.TotalCents()
	if shippingAndTax < 0 {
		shippingAndTax = 0
	}

	userCol, guestCol := ownerColumns(checkout.Owner)

	orderRow, err := q.CreateOrder(ctx, repository.CreateOrderParams{
		ID:               orderID,
		OrderNumber:      orderNo,
		CheckoutID:       checkout.ID,
		UserID:           userCol,
		GuestToken:       guestCol,
		Email:            strPtr(cart.Email()),
		Status:           domain.OrderStatusPaid,
		SubtotalCents:    subtotal,
		DiscountCents:    discount,
		ShippingCents:    shippingAndTax,
		TotalCents:       checkout.TotalAmountCents,
		Currency:         string(checkout.Currency),
		PaymentIntentID:  intent.ID,
		SourceLocationID: &location.ID,
	})
	if err != nil {
		// The unique index on checkout_id is the idempotency anchor.
		if repository.IsUniqueViolation(err, "orders_checkout_id_key") {
			return zero, 0, errOrderReplay
		}
		return zero, 0, domain.Internal(err, "order.complete", "failed to create order")
	}

	for _, line := range lines {
		if err := q.CreateOrderItem(ctx, repository.CreateOrderItemParams{
			ID:             uuid.New().String(),
			OrderID:        orderID,
			VariantID:      line.VariantID.String(),
			ProductID:      line.ProductID,
			SKU:            line.SKU,
			DisplayName:    line.DisplayName,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       int32(line.Quantity.Int()),
			TotalCents:     line.TotalCents,
			WeightGrams:    line.WeightGrams,
			Size:           strPtr(line.Size),
			Color:          strPtr(line.Color),
		}); err != nil {
			return zero, 0, domain.Internal(err, "order.complete", "failed to create order item")
		}
	}

	if shippingJSON == nil {
		shippingJSON = cartRow.ShippingAddress
	}
	if billingJSON == nil {
		billingJSON = cartRow.BillingAddress
	}
	for kind, payload := range map[string][]byte{
		"shipping": shippingJSON,
		"billing":  billingJSON,
	} {
		if len(payload) == 0 {
			continue
		}
		if err := q.CreateOrderAddress(ctx, repository.CreateOrderAddressParams{
			ID:      uuid.New().String(),
			OrderID: orderID,
			Kind:    kind,
			Payload: payload,
		}); err != nil {
			return zero, 0, domain.Internal(err, "order.complete", "failed to copy address")
		}
	}

	if err := q.CreateOrderStatusHistory(ctx, repository.CreateOrderStatusHistoryParams{
		ID:      uuid.New().String(),
		OrderID: orderID,
		Status:  domain.OrderStatusPaid,
	}); err != nil {
		return zero, 0, domain.Internal(err, "order.complete", "failed to record status history")
	}

	eventPayload, _ := json.Marshal(map[string]any{
		"checkout_id":       checkout.ID,
		"payment_intent_id": intent.ID,
		"total_cents":       checkout.TotalAmountCents,
	})
	if err := q.CreateOrderEvent(ctx, repository.CreateOrderEventParams{
		ID:      uuid.New().String(),
		OrderID: orderID,
		Kind:    "order.created",
		Payload: eventPayload,
	}); err != nil {
		return zero, 0, domain.Internal(err, "order.complete", "failed to record order event")
	}

	if payment, perr := q.GetPaymentByIntentID(ctx, intent.ID); perr == nil {
		if err := q.LinkPaymentToOrder(ctx, repository.LinkPaymentToOrderParams{
			ID:      payment.ID,
			OrderID: orderID,
		}); err != nil {
			return zero, 0, domain.Internal(err, "order.complete", "failed to link payment")
		}
	} else if !repository.IsNoRows(perr) {
		return zero, 0, domain.Internal(perr, "order.complete", "failed to load payment")
	}

	// The cart's job is done: holds released, lines cleared, contact
	// details scrubbed. The empty cart itself stays for reuse.
	if err := q.DeleteReservationsByCart(ctx, cartID); err != nil {
		return zero, 0, domain.Internal(err, "order.complete", "failed to release holds")
	}
	if err := q.DeleteCartItems(ctx, cartID); err != nil {
		return zero, 0, domain.Internal(err, "order.complete", "failed to clear cart")
	}
	if err := q.ClearCartContact(ctx, cartID); err != nil {
		return zero, 0, domain.Internal(err, "order.complete", "failed to scrub cart")
	}

	completedAt := now
	if err := q.UpdateCheckoutStatus(ctx, repository.UpdateCheckoutStatusParams{
		ID:          checkout.ID,
		Status:      string(domain.CheckoutCompleted),
		CompletedAt: &completedAt,
	}); err != nil {
		return zero, 0, domain.Internal(err, "order.complete", "failed to complete checkout")
	}

	return orderSummaryFromRow(orderRow), cart.ItemCount(), nil
}

// snapshotLines denormalizes catalog data into the order so later
// catalog edits cannot rewrite history.
func (s *OrderService) snapshotLines(ctx context.Context, q repository.Querier, cart *domain.Cart) ([]domain.OrderLineSnapshot, error) {
	items := cart.Items()
	lines := make([]domain.OrderLineSnapshot, 0, len(items))
	for _, item := range items {
		variant, err := q.GetVariantByID(ctx, item.VariantID.String())
		if repository.IsNoRows(err) {
			return nil, ErrVariantNotFound
		}
		if err != nil {
			return nil, domain.Internal(err, "order.complete", "failed to load variant")
		}
		product, err := q.GetProductByID(ctx, variant.ProductID)
		if repository.IsNoRows(err) {
			return nil, domain.ErrProductNotFound
		}
		if err != nil {
			return nil, domain.Internal(err, "order.complete", "failed to load product")
		}

		lines = append(lines, domain.OrderLineSnapshot{
			VariantID:      item.VariantID,
			ProductID:      product.ID,
			SKU:            variant.SKU,
			DisplayName:    fmt.Sprintf("%s - %s", product.Name, variant.Name),
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			TotalCents:     item.TotalCents(),
			WeightGrams:    variant.WeightGrams,
			Size:           deref(variant.Size),
			Color:          deref(variant.Color),
		})
	}
	return lines, nil
}

func (s *OrderService) replay(row repository.OrderRow) *domain.OrderSummary {
	if s.metrics != nil {
		s.metrics.OrderReplays.Inc()
	}
	s.logger.Info("order replay", "order_id", row.ID, "checkout_id", row.CheckoutID)
	summary := orderSummaryFromRow(row)
	return &summary
}

func (s *OrderService) afterCommit(ctx context.Context, checkout *domain.Checkout, summary domain.OrderSummary, itemCount int) {
	if s.metrics != nil {
		s.metrics.OrdersCreated.Inc()
		s.metrics.CheckoutsCompleted.Inc()
		s.metrics.OrderValue.Observe(float64(summary.TotalAmount))
		s.metrics.OrderItemCount.Observe(float64(itemCount))
	}
	s.logger.Info("order created",
		"order_id", summary.OrderID,
		"order_no", summary.OrderNo,
		"checkout_id", summary.CheckoutID,
		"total_cents", summary.TotalAmount,
	)

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.SubjectOrderCreated, events.OrderCreated{
			OrderID:    summary.OrderID,
			OrderNo:    summary.OrderNo,
			CheckoutID: summary.CheckoutID,
			CartID:     checkout.CartID.String(),
			TotalCents: summary.TotalAmount,
			Currency:   string(summary.Currency),
			CreatedAt:  summary.CreatedAt,
		})
	}

	if s.email != nil {
		if order, err := s.store.GetOrderByID(ctx, summary.OrderID); err == nil && order.Email != nil {
			if err := s.email.SendOrderConfirmation(ctx, email.OrderConfirmationEmail{
				Email:       *order.Email,
				OrderNumber: summary.OrderNo,
				TotalCents:  summary.TotalAmount,
				Currency:    string(summary.Currency),
			}); err != nil {
				s.logger.Warn("failed to send order confirmation", "order_id", summary.OrderID, "error", err)
				if s.metrics != nil {
					s.metrics.EmailFailed.Inc()
				}
			} else if s.metrics != nil {
				s.metrics.EmailSent.Inc()
			}
		}
	}
}

// GetOrder loads an order summary by ID.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.OrderSummary, error) {
	row, err := s.store.GetOrderByID(ctx, orderID)
	if repository.IsNoRows(err) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "order.get", "failed to load order")
	}
	summary := orderSummaryFromRow(row)
	return &summary, nil
}

// GetOrderItems loads the denormalized lines of an order.
func (s *OrderService) GetOrderItems(ctx context.Context, orderID string) ([]repository.OrderItemRow, error) {
	rows, err := s.store.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, domain.Internal(err, "order.items", "failed to load order items")
	}
	return rows, nil
}

const orderNumberAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// generateOrderNumber builds a human-friendly order number like
// ORD-20250301-K7PQ. Ambiguous characters are left out of the suffix.
func generateOrderNumber(now time.Time) string {
	suffix := make([]byte, 4)
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing is unrecoverable for this process.
			panic(err)
		}
		suffix[i] = orderNumberAlphabet[n.Int64()]
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
