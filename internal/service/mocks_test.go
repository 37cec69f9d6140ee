package service

import (
	"context"
	"sync"
	"time"

	"github.com/dukerupert/idunn/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// memStore is an in-memory repository.Store. It mimics the Postgres
// behaviors the services lean on: pgx.ErrNoRows for misses, 23505
// errors for unique constraints, and quantity accumulation on the cart
// item upsert. ExecTx runs the callback directly; tests that need
// rollback semantics assert on the returned error instead.
type memStore struct {
	mu  sync.Mutex
	seq int

	carts        map[string]repository.CartRow
	cartItems    []repository.CartItemRow
	reservations map[string]repository.ReservationRow
	checkouts    map[string]repository.CheckoutRow
	orders       map[string]repository.OrderRow
	orderItems   []repository.OrderItemRow
	addresses    []repository.CreateOrderAddressParams
	history      []repository.CreateOrderStatusHistoryParams
	orderEvents  []repository.CreateOrderEventParams
	payments     []repository.PaymentRow
	variants     map[string]repository.VariantRow
	products     map[string]repository.ProductRow
	locations    []repository.LocationRow
	stock        map[[2]string]int64 // variantID, locationID
	stockLedger  []repository.AdjustStockParams

	// beforeCreateOrder, when set, runs before CreateOrder takes the
	// lock. Lets a test slip a concurrent writer in between the replay
	// fast path and the insert.
	beforeCreateOrder func()
}

var _ repository.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		carts:        make(map[string]repository.CartRow),
		reservations: make(map[string]repository.ReservationRow),
		checkouts:    make(map[string]repository.CheckoutRow),
		orders:       make(map[string]repository.OrderRow),
		variants:     make(map[string]repository.VariantRow),
		products:     make(map[string]repository.ProductRow),
		stock:        make(map[[2]string]int64),
	}
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

// tick produces monotonically increasing timestamps so created_at
// ordering behaves like a real database.
func (s *memStore) tick() time.Time {
	s.seq++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Millisecond)
}

func (s *memStore) ExecTx(_ context.Context, fn func(repository.Querier) error) error {
	return fn(s)
}

// Carts

func (s *memStore) CreateCart(_ context.Context, arg repository.CreateCartParams) (repository.CartRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.carts {
		if arg.UserID != nil && c.UserID != nil && *c.UserID == *arg.UserID {
			return repository.CartRow{}, uniqueViolation("carts_user_id_key")
		}
		if arg.GuestToken != nil && c.GuestToken != nil && *c.GuestToken == *arg.GuestToken {
			return repository.CartRow{}, uniqueViolation("carts_guest_token_key")
		}
	}
	now := s.tick()
	row := repository.CartRow{
		ID:         arg.ID,
		UserID:     arg.UserID,
		GuestToken: arg.GuestToken,
		Currency:   arg.Currency,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.carts[arg.ID] = row
	return row, nil
}

func (s *memStore) GetCartByID(_ context.Context, id string) (repository.CartRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.carts[id]
	if !ok {
		return repository.CartRow{}, pgx.ErrNoRows
	}
	return row, nil
}

func (s *memStore) GetCartByUserID(_ context.Context, userID string) (repository.CartRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.carts {
		if row.UserID != nil && *row.UserID == userID {
			return row, nil
		}
	}
	return repository.CartRow{}, pgx.ErrNoRows
}

func (s *memStore) GetCartByGuestToken(_ context.Context, guestToken string) (repository.CartRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.carts {
		if row.GuestToken != nil && *row.GuestToken == guestToken {
			return row, nil
		}
	}
	return repository.CartRow{}, pgx.ErrNoRows
}

func (s *memStore) UpdateCartOwner(_ context.Context, arg repository.UpdateCartOwnerParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.carts[arg.ID]
	if !ok {
		return nil
	}
	row.UserID = arg.UserID
	row.GuestToken = arg.GuestToken
	row.UpdatedAt = s.tick()
	s.carts[arg.ID] = row
	return nil
}

func (s *memStore) UpdateCartContact(_ context.Context, arg repository.UpdateCartContactParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.carts[arg.ID]
	if !ok {
		return nil
	}
	row.Email = arg.Email
	row.ShippingOptionCode = arg.ShippingOptionCode
	row.ShippingAddress = arg.ShippingAddress
	row.BillingAddress = arg.BillingAddress
	row.UpdatedAt = s.tick()
	s.carts[arg.ID] = row
	return nil
}

func (s *memStore) ClearCartContact(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.carts[id]
	if !ok {
		return nil
	}
	row.Email = nil
	row.ShippingOptionCode = nil
	row.ShippingAddress = nil
	row.BillingAddress = nil
	row.UpdatedAt = s.tick()
	s.carts[id] = row
	return nil
}

func (s *memStore) UpdateCartReservationExpiry(_ context.Context, arg repository.UpdateCartReservationExpiryParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.carts[arg.ID]
	if !ok {
		return nil
	}
	row.ReservationExpiresAt = arg.ReservationExpiresAt
	s.carts[arg.ID] = row
	return nil
}

func (s *memStore) DeleteCart(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, id)
	kept := s.cartItems[:0]
	for _, it := range s.cartItems {
		if it.CartID != id {
			kept = append(kept, it)
		}
	}
	s.cartItems = kept
	for rid, r := range s.reservations {
		if r.CartID == id {
			delete(s.reservations, rid)
		}
	}
	return nil
}

// Cart items

func (s *memStore) UpsertCartItem(_ context.Context, arg repository.UpsertCartItemParams) (repository.CartItemRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.cartItems {
		if it.CartID == arg.CartID && it.VariantID == arg.VariantID {
			// Conflict path accumulates quantity and keeps the original
			// price snapshot and promotions.
			s.cartItems[i].Quantity += arg.Quantity
			s.cartItems[i].UpdatedAt = s.tick()
			return s.cartItems[i], nil
		}
	}
	now := s.tick()
	row := repository.CartItemRow{
		CartID:         arg.CartID,
		VariantID:      arg.VariantID,
		Quantity:       arg.Quantity,
		UnitPriceCents: arg.UnitPriceCents,
		Promotions:     arg.Promotions,
		IsGift:         arg.IsGift,
		GiftMessage:    arg.GiftMessage,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.cartItems = append(s.cartItems, row)
	return row, nil
}

func (s *memStore) SetCartItemQuantity(_ context.Context, arg repository.SetCartItemQuantityParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.cartItems {
		if it.CartID == arg.CartID && it.VariantID == arg.VariantID {
			s.cartItems[i].Quantity = arg.Quantity
			s.cartItems[i].UpdatedAt = s.tick()
			return nil
		}
	}
	return nil
}

func (s *memStore) ListCartItems(_ context.Context, cartID string) ([]repository.CartItemRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.CartItemRow
	for _, it := range s.cartItems {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *memStore) DeleteCartItem(_ context.Context, arg repository.DeleteCartItemParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.cartItems[:0]
	for _, it := range s.cartItems {
		if it.CartID == arg.CartID && it.VariantID == arg.VariantID {
			continue
		}
		kept = append(kept, it)
	}
	s.cartItems = kept
	return nil
}

func (s *memStore) DeleteCartItems(_ context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.cartItems[:0]
	for _, it := range s.cartItems {
		if it.CartID != cartID {
			kept = append(kept, it)
		}
	}
	s.cartItems = kept
	return nil
}

// Reservations

func (s *memStore) CreateReservation(_ context.Context, arg repository.CreateReservationParams) (repository.ReservationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.CartID == arg.CartID && r.VariantID == arg.VariantID {
			return repository.ReservationRow{}, uniqueViolation("reservations_cart_variant_key")
		}
	}
	now := s.tick()
	row := repository.ReservationRow{
		ID:        arg.ID,
		CartID:    arg.CartID,
		VariantID: arg.VariantID,
		Quantity:  arg.Quantity,
		ExpiresAt: arg.ExpiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.reservations[arg.ID] = row
	return row, nil
}

func (s *memStore) GetReservationByID(_ context.Context, id string) (repository.ReservationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.reservations[id]
	if !ok {
		return repository.ReservationRow{}, pgx.ErrNoRows
	}
	return row, nil
}

func (s *memStore) GetReservationByCartAndVariant(_ context.Context, arg repository.GetReservationByCartAndVariantParams) (repository.ReservationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.reservations {
		if row.CartID == arg.CartID && row.VariantID == arg.VariantID {
			return row, nil
		}
	}
	return repository.ReservationRow{}, pgx.ErrNoRows
}

func (s *memStore) ListReservationsByCart(_ context.Context, cartID string) ([]repository.ReservationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.ReservationRow
	for _, row := range s.reservations {
		if row.CartID == cartID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *memStore) ListReservationsByVariant(_ context.Context, variantID string) ([]repository.ReservationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.ReservationRow
	for _, row := range s.reservations {
		if row.VariantID == variantID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *memStore) SumActiveReservedByVariant(_ context.Context, arg repository.SumActiveReservedByVariantParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, row := range s.reservations {
		if row.VariantID == arg.VariantID && row.ExpiresAt.After(arg.Now) {
			sum += int64(row.Quantity)
		}
	}
	return sum, nil
}

func (s *memStore) SumReservedByVariant(_ context.Context, variantID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, row := range s.reservations {
		if row.VariantID == variantID {
			sum += int64(row.Quantity)
		}
	}
	return sum, nil
}

func (s *memStore) UpdateReservationExpiry(_ context.Context, arg repository.UpdateReservationExpiryParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.reservations[arg.ID]
	if !ok {
		return nil
	}
	row.ExpiresAt = arg.ExpiresAt
	row.NotifiedAt = arg.NotifiedAt
	row.UpdatedAt = s.tick()
	s.reservations[arg.ID] = row
	return nil
}

func (s *memStore) UpdateReservationQuantity(_ context.Context, arg repository.UpdateReservationQuantityParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.reservations[arg.ID]
	if !ok {
		return nil
	}
	row.Quantity = arg.Quantity
	row.UpdatedAt = s.tick()
	s.reservations[arg.ID] = row
	return nil
}

func (s *memStore) DeleteReservation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reservations, id)
	return nil
}

func (s *memStore) DeleteReservationsByCart(_ context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, row := range s.reservations {
		if row.CartID == cartID {
			delete(s.reservations, id)
		}
	}
	return nil
}

func (s *memStore) ListExpiredReservations(_ context.Context, arg repository.ListExpiredReservationsParams) ([]repository.ReservationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.ReservationRow
	for _, row := range s.reservations {
		if row.ExpiresAt.Before(arg.Cutoff) {
			out = append(out, row)
		}
	}
	return limitRows(out, arg.Limit), nil
}

func (s *memStore) ListReservationsInGrace(_ context.Context, arg repository.ListReservationsInGraceParams) ([]repository.ReservationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.ReservationRow
	for _, row := range s.reservations {
		if !row.ExpiresAt.After(arg.Now) && row.ExpiresAt.After(arg.GraceStart) {
			out = append(out, row)
		}
	}
	return limitRows(out, arg.Limit), nil
}

func (s *memStore) ListExpiringReservations(_ context.Context, arg repository.ListExpiringReservationsParams) ([]repository.ReservationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.ReservationRow
	for _, row := range s.reservations {
		if row.NotifiedAt == nil && row.ExpiresAt.After(arg.Now) && !row.ExpiresAt.After(arg.Until) {
			out = append(out, row)
		}
	}
	return limitRows(out, arg.Limit), nil
}

func (s *memStore) MarkReservationNotified(_ context.Context, arg repository.MarkReservationNotifiedParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.reservations[arg.ID]
	if !ok {
		return nil
	}
	t := arg.NotifiedAt
	row.NotifiedAt = &t
	s.reservations[arg.ID] = row
	return nil
}

// Checkouts

func (s *memStore) CreateCheckout(_ context.Context, arg repository.CreateCheckoutParams) (repository.CheckoutRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if arg.Status == "pending" {
		for _, co := range s.checkouts {
			if co.CartID == arg.CartID && co.Status == "pending" {
				return repository.CheckoutRow{}, uniqueViolation("checkouts_pending_cart_key")
			}
		}
	}
	now := s.tick()
	row := repository.CheckoutRow{
		ID:               arg.ID,
		CartID:           arg.CartID,
		UserID:           arg.UserID,
		GuestToken:       arg.GuestToken,
		Status:           arg.Status,
		TotalAmountCents: arg.TotalAmountCents,
		Currency:         arg.Currency,
		ExpiresAt:        arg.ExpiresAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.checkouts[arg.ID] = row
	return row, nil
}

func (s *memStore) GetCheckoutByID(_ context.Context, id string) (repository.CheckoutRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.checkouts[id]
	if !ok {
		return repository.CheckoutRow{}, pgx.ErrNoRows
	}
	return row, nil
}

func (s *memStore) GetPendingCheckoutByCart(_ context.Context, cartID string) (repository.CheckoutRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.checkouts {
		if row.CartID == cartID && row.Status == "pending" {
			return row, nil
		}
	}
	return repository.CheckoutRow{}, pgx.ErrNoRows
}

func (s *memStore) UpdatePendingCheckout(_ context.Context, arg repository.UpdatePendingCheckoutParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.checkouts[arg.ID]
	if !ok || row.Status != "pending" {
		return pgx.ErrNoRows
	}
	row.TotalAmountCents = arg.TotalAmountCents
	row.ExpiresAt = arg.ExpiresAt
	row.UpdatedAt = s.tick()
	s.checkouts[arg.ID] = row
	return nil
}

func (s *memStore) UpdateCheckoutStatus(_ context.Context, arg repository.UpdateCheckoutStatusParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.checkouts[arg.ID]
	if !ok {
		return nil
	}
	row.Status = arg.Status
	row.CompletedAt = arg.CompletedAt
	row.UpdatedAt = s.tick()
	s.checkouts[arg.ID] = row
	return nil
}

func (s *memStore) ListExpiredPendingCheckouts(_ context.Context, arg repository.ListExpiredPendingCheckoutsParams) ([]repository.CheckoutRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.CheckoutRow
	for _, row := range s.checkouts {
		if row.Status == "pending" && row.ExpiresAt.Before(arg.Now) {
			out = append(out, row)
		}
	}
	if arg.Limit > 0 && int32(len(out)) > arg.Limit {
		out = out[:arg.Limit]
	}
	return out, nil
}

// Orders

func (s *memStore) CreateOrder(_ context.Context, arg repository.CreateOrderParams) (repository.OrderRow, error) {
	if s.beforeCreateOrder != nil {
		s.beforeCreateOrder()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.CheckoutID == arg.CheckoutID {
			return repository.OrderRow{}, uniqueViolation("orders_checkout_id_key")
		}
	}
	now := s.tick()
	row := repository.OrderRow{
		ID:               arg.ID,
		OrderNumber:      arg.OrderNumber,
		CheckoutID:       arg.CheckoutID,
		UserID:           arg.UserID,
		GuestToken:       arg.GuestToken,
		Email:            arg.Email,
		Status:           arg.Status,
		SubtotalCents:    arg.SubtotalCents,
		DiscountCents:    arg.DiscountCents,
		ShippingCents:    arg.ShippingCents,
		TaxCents:         arg.TaxCents,
		TotalCents:       arg.TotalCents,
		Currency:         arg.Currency,
		PaymentIntentID:  arg.PaymentIntentID,
		SourceLocationID: arg.SourceLocationID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.orders[arg.ID] = row
	return row, nil
}

func (s *memStore) GetOrderByID(_ context.Context, id string) (repository.OrderRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.orders[id]
	if !ok {
		return repository.OrderRow{}, pgx.ErrNoRows
	}
	return row, nil
}

func (s *memStore) GetOrderByCheckoutID(_ context.Context, checkoutID string) (repository.OrderRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.orders {
		if row.CheckoutID == checkoutID {
			return row, nil
		}
	}
	return repository.OrderRow{}, pgx.ErrNoRows
}

func (s *memStore) CreateOrderItem(_ context.Context, arg repository.CreateOrderItemParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderItems = append(s.orderItems, repository.OrderItemRow{
		ID:             arg.ID,
		OrderID:        arg.OrderID,
		VariantID:      arg.VariantID,
		ProductID:      arg.ProductID,
		SKU:            arg.SKU,
		DisplayName:    arg.DisplayName,
		UnitPriceCents: arg.UnitPriceCents,
		Quantity:       arg.Quantity,
		TotalCents:     arg.TotalCents,
		WeightGrams:    arg.WeightGrams,
		Size:           arg.Size,
		Color:          arg.Color,
		CreatedAt:      s.tick(),
	})
	return nil
}

func (s *memStore) ListOrderItems(_ context.Context, orderID string) ([]repository.OrderItemRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.OrderItemRow
	for _, it := range s.orderItems {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *memStore) CreateOrderAddress(_ context.Context, arg repository.CreateOrderAddressParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses = append(s.addresses, arg)
	return nil
}

func (s *memStore) CreateOrderStatusHistory(_ context.Context, arg repository.CreateOrderStatusHistoryParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, arg)
	return nil
}

func (s *memStore) CreateOrderEvent(_ context.Context, arg repository.CreateOrderEventParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderEvents = append(s.orderEvents, arg)
	return nil
}


// Payments

func (s *memStore) CreatePayment(_ context.Context, arg repository.CreatePaymentParams) (repository.PaymentRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.PaymentIntentID == arg.PaymentIntentID {
			return repository.PaymentRow{}, uniqueViolation("payments_payment_intent_id_key")
		}
	}
	now := s.tick()
	row := repository.PaymentRow{
		ID:              arg.ID,
		CheckoutID:      arg.CheckoutID,
		PaymentIntentID: arg.PaymentIntentID,
		Status:          arg.Status,
		AmountCents:     arg.AmountCents,
		Currency:        arg.Currency,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.payments = append(s.payments, row)
	return row, nil
}

func (s *memStore) GetPaymentByCheckoutID(_ context.Context, checkoutID string) (repository.PaymentRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.payments) - 1; i >= 0; i-- {
		if s.payments[i].CheckoutID == checkoutID {
			return s.payments[i], nil
		}
	}
	return repository.PaymentRow{}, pgx.ErrNoRows
}

func (s *memStore) GetPaymentByIntentID(_ context.Context, paymentIntentID string) (repository.PaymentRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.PaymentIntentID == paymentIntentID {
			return p, nil
		}
	}
	return repository.PaymentRow{}, pgx.ErrNoRows
}

func (s *memStore) LinkPaymentToOrder(_ context.Context, arg repository.LinkPaymentToOrderParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.payments {
		if p.ID == arg.ID {
			orderID := arg.OrderID
			s.payments[i].OrderID = &orderID
			return nil
		}
	}
	return nil
}

// Catalog

func (s *memStore) GetVariantByID(_ context.Context, id string) (repository.VariantRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.variants[id]
	if !ok {
		return repository.VariantRow{}, pgx.ErrNoRows
	}
	return row, nil
}

func (s *memStore) GetProductByID(_ context.Context, id string) (repository.ProductRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.products[id]
	if !ok {
		return repository.ProductRow{}, pgx.ErrNoRows
	}
	return row, nil
}

// Inventory

func (s *memStore) GetTotalStockByVariant(_ context.Context, variantID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for key, qty := range s.stock {
		if key[0] == variantID {
			sum += qty
		}
	}
	return sum, nil
}

func (s *memStore) AdjustStock(_ context.Context, arg repository.AdjustStockParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]string{arg.VariantID, arg.LocationID}
	next := s.stock[key] + arg.Delta
	if next < 0 {
		return 0, pgx.ErrNoRows
	}
	s.stock[key] = next
	s.stockLedger = append(s.stockLedger, arg)
	return next, nil
}

func (s *memStore) GetLocationByID(_ context.Context, id string) (repository.LocationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, loc := range s.locations {
		if loc.ID == id {
			return loc, nil
		}
	}
	return repository.LocationRow{}, pgx.ErrNoRows
}

func (s *memStore) FindFirstWarehouse(_ context.Context) (repository.LocationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *repository.LocationRow
	for i, loc := range s.locations {
		if loc.Kind != "warehouse" || !loc.Active {
			continue
		}
		if best == nil || loc.Priority < best.Priority {
			best = &s.locations[i]
		}
	}
	if best == nil {
		return repository.LocationRow{}, pgx.ErrNoRows
	}
	return *best, nil
}

func limitRows(rows []repository.ReservationRow, limit int32) []repository.ReservationRow {
	if limit > 0 && int32(len(rows)) > limit {
		return rows[:limit]
	}
	return rows
}

// Seed helpers

func (s *memStore) seedCatalog(variantID, productID string, priceCents int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[productID] = repository.ProductRow{ID: productID, Name: "Roast", Slug: "roast", Active: true}
	s.variants[variantID] = repository.VariantRow{
		ID:             variantID,
		ProductID:      productID,
		SKU:            "SKU-" + variantID[:8],
		Name:           "12oz",
		UnitPriceCents: priceCents,
		Active:         true,
	}
}

func (s *memStore) seedStock(variantID, locationID string, qty int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stock[[2]string{variantID, locationID}] = qty
	for _, loc := range s.locations {
		if loc.ID == locationID {
			return
		}
	}
	s.locations = append(s.locations, repository.LocationRow{
		ID: locationID, Name: "Main", Kind: "warehouse", Priority: 1, Active: true,
	})
}
