package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/idunn/internal/address"
	"github.com/dukerupert/idunn/internal/domain"
	"github.com/dukerupert/idunn/internal/events"
	"github.com/dukerupert/idunn/internal/repository"
	"github.com/dukerupert/idunn/internal/telemetry"
)

// CartSummary aggregates a cart with calculated totals.
type CartSummary struct {
	Cart          *domain.Cart
	SubtotalCents int64
	DiscountCents int64
	TotalCents    int64
	ItemCount     int
}

// CartService provides business logic for shopping cart operations.
type CartService struct {
	store        repository.Store
	reservations *ReservationManager
	addresses    address.Validator
	publisher    events.Publisher
	logger       *slog.Logger
	metrics      *telemetry.BusinessMetrics
	now          func() time.Time
}

// NewCartService creates a new CartService instance.
func NewCartService(store repository.Store, reservations *ReservationManager, addresses address.Validator, publisher events.Publisher, logger *slog.Logger, metrics *telemetry.BusinessMetrics) *CartService {
	return &CartService{
		store:        store,
		reservations: reservations,
		addresses:    addresses,
		publisher:    publisher,
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
	}
}

// GetOrCreateUserCart returns the user's cart, creating an empty one on
// first touch. One cart per user.
func (s *CartService) GetOrCreateUserCart(ctx context.Context, userID string, currency domain.Currency) (*domain.Cart, error) {
	if userID == "" {
		return nil, domain.Invalid("cart.get_or_create", "user ID is required")
	}

	row, err := s.store.GetCartByUserID(ctx, userID)
	if err == nil {
		return s.loadCart(ctx, row)
	}
	if !repository.IsNoRows(err) {
		return nil, domain.Internal(err, "cart.get_or_create", "failed to look up cart")
	}

	cart, err := domain.NewUserCart(domain.NewCartID(), userID, currency)
	if err != nil {
		return nil, err
	}
	userCol, _ := ownerColumns(cart.Owner())
	created, err := s.store.CreateCart(ctx, repository.CreateCartParams{
		ID:       cart.ID().String(),
		UserID:   userCol,
		Currency: string(currency),
	})
	if err != nil {
		// Lost a race with a concurrent first touch. Use the winner.
		if repository.IsUniqueViolation(err, "") {
			existing, gerr := s.store.GetCartByUserID(ctx, userID)
			if gerr != nil {
				return nil, domain.Internal(gerr, "cart.get_or_create", "failed to load cart after conflict")
			}
			return s.loadCart(ctx, existing)
		}
		return nil, domain.Internal(err, "cart.get_or_create", "failed to create cart")
	}

	if s.metrics != nil {
		s.metrics.CartsCreated.WithLabelValues("user").Inc()
	}
	return s.loadCart(ctx, created)
}

// GetOrCreateGuestCart resolves a guest cart by token. An empty token
// mints a fresh token and cart; an unknown token is rejected rather
// than silently re-minted, so a stale client notices.
func (s *CartService) GetOrCreateGuestCart(ctx context.Context, token domain.GuestToken, currency domain.Currency) (*domain.Cart, domain.GuestToken, error) {
	if token != "" {
		row, err := s.store.GetCartByGuestToken(ctx, token.String())
		if repository.IsNoRows(err) {
			return nil, "", domain.ErrCartNotFound
		}
		if err != nil {
			return nil, "", domain.Internal(err, "cart.get_or_create_guest", "failed to look up cart")
		}
		cart, err := s.loadCart(ctx, row)
		return cart, token, err
	}

	token, err := domain.NewGuestToken()
	if err != nil {
		return nil, "", domain.Internal(err, "cart.get_or_create_guest", "failed to mint guest token")
	}
	cart, err := domain.NewGuestCart(domain.NewCartID(), token, currency)
	if err != nil {
		return nil, "", err
	}

	_, guestCol := ownerColumns(cart.Owner())
	created, err := s.store.CreateCart(ctx, repository.CreateCartParams{
		ID:         cart.ID().String(),
		GuestToken: guestCol,
		Currency:   string(currency),
	})
	if err != nil {
		return nil, "", domain.Internal(err, "cart.get_or_create_guest", "failed to create cart")
	}

	if s.metrics != nil {
		s.metrics.CartsCreated.WithLabelValues("guest").Inc()
	}
	loaded, err := s.loadCart(ctx, created)
	return loaded, token, err
}

// GetCart loads a cart aggregate by ID.
func (s *CartService) GetCart(ctx context.Context, cartID domain.CartID) (*domain.Cart, error) {
	row, err := s.store.GetCartByID(ctx, cartID.String())
	if repository.IsNoRows(err) {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "cart.get", "failed to load cart")
	}
	return s.loadCart(ctx, row)
}

// AddItemParams carries an add-to-cart request.
type AddItemParams struct {
	CartID      domain.CartID
	VariantID   domain.VariantID
	Quantity    domain.Quantity
	Promotions  []domain.Promotion
	IsGift      bool
	GiftMessage string
}

// AddItem puts units of a variant into a cart, snapshotting the current
// catalog price on first add and reserving stock for the full line.
func (s *CartService) AddItem(ctx context.Context, params AddItemParams) (*CartSummary, error) {
	cart, err := s.GetCart(ctx, params.CartID)
	if err != nil {
		return nil, err
	}

	variant, err := s.store.GetVariantByID(ctx, params.VariantID.String())
	if repository.IsNoRows(err) {
		return nil, ErrVariantNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "cart.add_item", "failed to load variant")
	}
	if !variant.Active {
		return nil, ErrVariantInactive
	}

	_, hadLine := cart.Item(params.VariantID)

	// Validate against the aggregate first: quantity ceiling, gift
	// message, promotion shape.
	if err := cart.AddItem(params.VariantID, params.Quantity, variant.UnitPriceCents, params.Promotions, params.IsGift, params.GiftMessage); err != nil {
		if s.metrics != nil {
			s.metrics.CartItemsAdd.WithLabelValues("rejected").Inc()
		}
		return nil, err
	}
	newLine, _ := cart.Item(params.VariantID)

	// The hold covers the whole line. A first add creates the hold; an
	// add to an existing line grows it through Adjust, which charges
	// only what the cart does not already hold.
	var holdErr error
	if hadLine {
		holdErr = s.reservations.Adjust(ctx, params.CartID, params.VariantID, newLine.Quantity.Int())
	} else {
		_, holdErr = s.reservations.Reserve(ctx, params.CartID, params.VariantID, params.Quantity)
	}
	if holdErr != nil {
		if s.metrics != nil {
			s.metrics.CartItemsAdd.WithLabelValues("out_of_stock").Inc()
		}
		return nil, holdErr
	}

	promoJSON, err := marshalPromotions(newLine.Promotions)
	if err != nil {
		return nil, domain.Internal(err, "cart.add_item", "failed to encode promotions")
	}

	// The upsert accumulates quantity server-side, so two concurrent
	// adds of the same line both land.
	if _, err := s.store.UpsertCartItem(ctx, repository.UpsertCartItemParams{
		CartID:         params.CartID.String(),
		VariantID:      params.VariantID.String(),
		Quantity:       int32(params.Quantity.Int()),
		UnitPriceCents: variant.UnitPriceCents,
		Promotions:     promoJSON,
		IsGift:         params.IsGift,
		GiftMessage:    strPtr(params.GiftMessage),
	}); err != nil {
		return nil, domain.Internal(err, "cart.add_item", "failed to persist cart item")
	}

	if s.metrics != nil {
		s.metrics.CartItemsAdd.WithLabelValues("ok").Inc()
	}
	return s.GetCartSummary(ctx, params.CartID)
}

// UpdateItemQuantity sets a line to an absolute quantity. Zero or less
// removes the line. Raising the quantity is subject to availability;
// lowering always succeeds.
func (s *CartService) UpdateItemQuantity(ctx context.Context, cartID domain.CartID, variantID domain.VariantID, quantity int) (*CartSummary, error) {
	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	removed, err := cart.UpdateItemQuantity(variantID, quantity)
	if err != nil {
		return nil, err
	}

	if removed {
		if err := s.store.DeleteCartItem(ctx, repository.DeleteCartItemParams{
			CartID:    cartID.String(),
			VariantID: variantID.String(),
		}); err != nil {
			return nil, domain.Internal(err, "cart.update_item", "failed to remove cart item")
		}
		if err := s.reservations.Adjust(ctx, cartID, variantID, 0); err != nil {
			return nil, err
		}
		return s.GetCartSummary(ctx, cartID)
	}

	if err := s.reservations.Adjust(ctx, cartID, variantID, quantity); err != nil {
		return nil, err
	}
	if err := s.store.SetCartItemQuantity(ctx, repository.SetCartItemQuantityParams{
		CartID:    cartID.String(),
		VariantID: variantID.String(),
		Quantity:  int32(quantity),
	}); err != nil {
		return nil, domain.Internal(err, "cart.update_item", "failed to persist quantity")
	}
	return s.GetCartSummary(ctx, cartID)
}

// RemoveItem drops a line and releases its hold.
func (s *CartService) RemoveItem(ctx context.Context, cartID domain.CartID, variantID domain.VariantID) (*CartSummary, error) {
	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := cart.RemoveItem(variantID); err != nil {
		return nil, err
	}

	if err := s.store.DeleteCartItem(ctx, repository.DeleteCartItemParams{
		CartID:    cartID.String(),
		VariantID: variantID.String(),
	}); err != nil {
		return nil, domain.Internal(err, "cart.remove_item", "failed to remove cart item")
	}
	if err := s.reservations.Adjust(ctx, cartID, variantID, 0); err != nil {
		return nil, err
	}
	return s.GetCartSummary(ctx, cartID)
}

// ClearCart empties a cart and releases all of its holds.
func (s *CartService) ClearCart(ctx context.Context, cartID domain.CartID) error {
	if _, err := s.GetCart(ctx, cartID); err != nil {
		return err
	}
	if err := s.store.DeleteCartItems(ctx, cartID.String()); err != nil {
		return domain.Internal(err, "cart.clear", "failed to clear cart items")
	}
	if err := s.reservations.ReleaseForCart(ctx, cartID, "cart_cleared"); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.CartsScrubbed.Inc()
	}
	return nil
}

// ContactDetails carries the pre-checkout contact step.
type ContactDetails struct {
	Email              string
	ShippingOptionCode string
	ShippingAddress    *address.Address
	BillingAddress     *address.Address
}

// SetContactDetails validates and stores the shopper's contact info on
// the cart ahead of checkout.
func (s *CartService) SetContactDetails(ctx context.Context, cartID domain.CartID, details ContactDetails) error {
	if _, err := s.GetCart(ctx, cartID); err != nil {
		return err
	}
	if details.Email == "" {
		return ErrMissingEmail
	}

	shippingJSON, err := s.validateAddress(ctx, details.ShippingAddress)
	if err != nil {
		return err
	}
	billingJSON, err := s.validateAddress(ctx, details.BillingAddress)
	if err != nil {
		return err
	}

	if err := s.store.UpdateCartContact(ctx, repository.UpdateCartContactParams{
		ID:                 cartID.String(),
		Email:              strPtr(details.Email),
		ShippingOptionCode: strPtr(details.ShippingOptionCode),
		ShippingAddress:    shippingJSON,
		BillingAddress:     billingJSON,
	}); err != nil {
		return domain.Internal(err, "cart.set_contact", "failed to store contact details")
	}
	return nil
}

func (s *CartService) validateAddress(ctx context.Context, addr *address.Address) ([]byte, error) {
	return validateAddressJSON(ctx, s.addresses, addr, "cart.set_contact")
}

// GetCartSummary returns the cart with its computed totals.
func (s *CartService) GetCartSummary(ctx context.Context, cartID domain.CartID) (*CartSummary, error) {
	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return &CartSummary{
		Cart:          cart,
		SubtotalCents: cart.SubtotalCents(),
		DiscountCents: cart.TotalDiscountCents(),
		TotalCents:    cart.TotalCents(),
		ItemCount:     cart.ItemCount(),
	}, nil
}

// TransferCart attaches a guest cart to a user at login. If the user
// already has a cart, the guest cart's lines and holds fold into it and
// the guest cart disappears; otherwise the guest cart simply changes
// owner in place, keeping its ID.
func (s *CartService) TransferCart(ctx context.Context, token domain.GuestToken, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, domain.Invalid("cart.transfer", "user ID is required")
	}

	guestRow, err := s.store.GetCartByGuestToken(ctx, token.String())
	if repository.IsNoRows(err) {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "cart.transfer", "failed to load guest cart")
	}
	guestCart, err := s.loadCart(ctx, guestRow)
	if err != nil {
		return nil, err
	}

	userRow, err := s.store.GetCartByUserID(ctx, userID)
	merged := false
	var resultID domain.CartID

	switch {
	case repository.IsNoRows(err):
		// No user cart: re-own the guest cart in place. Items and
		// holds ride along untouched.
		transferred, terr := guestCart.TransferToUser(userID)
		if terr != nil {
			return nil, terr
		}
		userCol, _ := ownerColumns(transferred.Owner())
		if err := s.store.UpdateCartOwner(ctx, repository.UpdateCartOwnerParams{
			ID:     transferred.ID().String(),
			UserID: userCol,
		}); err != nil {
			return nil, domain.Internal(err, "cart.transfer", "failed to re-own cart")
		}
		resultID = transferred.ID()

	case err != nil:
		return nil, domain.Internal(err, "cart.transfer", "failed to load user cart")

	default:
		userCart, lerr := s.loadCart(ctx, userRow)
		if lerr != nil {
			return nil, lerr
		}
		if err := userCart.MergeWith(guestCart); err != nil {
			return nil, err
		}

		if err := s.mergeInto(ctx, userCart, guestCart); err != nil {
			return nil, err
		}
		merged = true
		resultID = userCart.ID()
		if s.metrics != nil {
			s.metrics.CartsMerged.Inc()
		}
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.SubjectCartTransferred, events.CartTransferred{
			CartID:        resultID.String(),
			UserID:        userID,
			Merged:        merged,
			TransferredAt: s.now(),
		})
	}
	return s.GetCart(ctx, resultID)
}

// mergeInto folds the guest cart's persisted lines and holds into the
// user cart inside one transaction, then removes the guest cart.
func (s *CartService) mergeInto(ctx context.Context, userCart, guestCart *domain.Cart) error {
	return s.store.ExecTx(ctx, func(q repository.Querier) error {
		for _, item := range guestCart.Items() {
			promoJSON, err := marshalPromotions(item.Promotions)
			if err != nil {
				return domain.Internal(err, "cart.merge", "failed to encode promotions")
			}
			if _, err := q.UpsertCartItem(ctx, repository.UpsertCartItemParams{
				CartID:         userCart.ID().String(),
				VariantID:      item.VariantID.String(),
				Quantity:       int32(item.Quantity.Int()),
				UnitPriceCents: item.UnitPriceCents,
				Promotions:     promoJSON,
				IsGift:         item.IsGift,
				GiftMessage:    strPtr(item.GiftMessage),
			}); err != nil {
				return domain.Internal(err, "cart.merge", "failed to merge cart item")
			}
		}

		// Holds follow their lines: combine same-variant holds, move
		// the rest across, keeping each hold's own expiry.
		guestHolds, err := q.ListReservationsByCart(ctx, guestCart.ID().String())
		if err != nil {
			return domain.Internal(err, "cart.merge", "failed to list guest holds")
		}
		for _, hold := range guestHolds {
			existing, err := q.GetReservationByCartAndVariant(ctx, repository.GetReservationByCartAndVariantParams{
				CartID:    userCart.ID().String(),
				VariantID: hold.VariantID,
			})
			switch {
			case repository.IsNoRows(err):
				if err := q.DeleteReservation(ctx, hold.ID); err != nil {
					return domain.Internal(err, "cart.merge", "failed to detach hold")
				}
				if _, err := q.CreateReservation(ctx, repository.CreateReservationParams{
					ID:        hold.ID,
					CartID:    userCart.ID().String(),
					VariantID: hold.VariantID,
					Quantity:  hold.Quantity,
					ExpiresAt: hold.ExpiresAt,
				}); err != nil {
					return domain.Internal(err, "cart.merge", "failed to move hold")
				}
			case err != nil:
				return domain.Internal(err, "cart.merge", "failed to read hold")
			default:
				if err := q.UpdateReservationQuantity(ctx, repository.UpdateReservationQuantityParams{
					ID:       existing.ID,
					Quantity: existing.Quantity + hold.Quantity,
				}); err != nil {
					return domain.Internal(err, "cart.merge", "failed to combine holds")
				}
			}
		}

		// Guest cart goes away; its remaining holds cascade with it.
		if err := q.DeleteReservationsByCart(ctx, guestCart.ID().String()); err != nil {
			return domain.Internal(err, "cart.merge", "failed to drop guest holds")
		}
		if err := q.DeleteCart(ctx, guestCart.ID().String()); err != nil {
			return domain.Internal(err, "cart.merge", "failed to delete guest cart")
		}
		return nil
	})
}

func (s *CartService) loadCart(ctx context.Context, row repository.CartRow) (*domain.Cart, error) {
	items, err := s.store.ListCartItems(ctx, row.ID)
	if err != nil {
		return nil, domain.Internal(err, "cart.load", "failed to load cart items")
	}
	return cartFromRows(row, items)
}
