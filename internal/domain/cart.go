package domain

import (
	"time"
)

// Cart domain errors.
var (
	ErrCartNotFound     = &Error{Code: ENOTFOUND, Message: "Cart not found"}
	ErrCartItemNotFound = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
	ErrCartEmpty        = &Error{Code: EINVALID, Message: "Cart is empty"}
)

// CartItem is a single line in a cart. The unit price is a snapshot taken
// when the line was first added; it is never re-fetched from the catalog.
type CartItem struct {
	CartID         CartID
	VariantID      VariantID
	Quantity       Quantity
	UnitPriceCents int64
	Promotions     []Promotion
	IsGift         bool
	GiftMessage    string
}

// NewCartItem validates and builds a cart line.
func NewCartItem(cartID CartID, variantID VariantID, qty Quantity, unitPriceCents int64, promos []Promotion, isGift bool, giftMessage string) (CartItem, error) {
	if unitPriceCents < 0 {
		return CartItem{}, Errorf(EINVALID, "cart_item.new", "unit price must be non-negative, got %d", unitPriceCents)
	}
	if isGift && giftMessage == "" {
		return CartItem{}, Invalid("cart_item.new", "gift items require a gift message")
	}
	for _, p := range promos {
		if err := p.Validate(); err != nil {
			return CartItem{}, err
		}
	}
	return CartItem{
		CartID:         cartID,
		VariantID:      variantID,
		Quantity:       qty,
		UnitPriceCents: unitPriceCents,
		Promotions:     promos,
		IsGift:         isGift,
		GiftMessage:    giftMessage,
	}, nil
}

// SubtotalCents is quantity times the snapshotted unit price.
func (i CartItem) SubtotalCents() int64 {
	return int64(i.Quantity) * i.UnitPriceCents
}

// DiscountCents applies the line's promotions, capped at the subtotal.
func (i CartItem) DiscountCents() int64 {
	return DiscountCents(i.SubtotalCents(), i.Promotions)
}

// TotalCents is subtotal minus discount, never negative.
func (i CartItem) TotalCents() int64 {
	total := i.SubtotalCents() - i.DiscountCents()
	if total < 0 {
		return 0
	}
	return total
}

// Cart is the shopping cart aggregate. It owns its line items and enforces
// single ownership: exactly one of userID or guestToken is set, checked at
// every construction and reconstitution, not just on creation.
type Cart struct {
	id         CartID
	userID     string
	guestToken GuestToken
	currency   Currency
	items      []CartItem

	// Contact and fulfillment details captured during checkout; scrubbed
	// after the cart is converted to an order.
	email              string
	shippingOptionCode string

	// reservationExpiresAt mirrors the earliest expiry among the cart's
	// inventory holds, for display. Reservations keep their own clocks.
	reservationExpiresAt *time.Time
}

// CartOwner carries the ownership half of a cart or checkout: exactly one
// of UserID / GuestToken must be set.
type CartOwner struct {
	UserID     string
	GuestToken GuestToken
}

func (o CartOwner) validate(op string) error {
	hasUser := o.UserID != ""
	hasGuest := o.GuestToken != ""
	if hasUser == hasGuest {
		return Invalid(op, "exactly one of user ID or guest token must be set")
	}
	return nil
}

// IsGuest reports whether the owner is an anonymous guest.
func (o CartOwner) IsGuest() bool {
	return o.GuestToken != ""
}

// NewUserCart creates a cart owned by a registered user.
func NewUserCart(id CartID, userID string, currency Currency) (*Cart, error) {
	return newCart(id, CartOwner{UserID: userID}, currency)
}

// NewGuestCart creates a cart owned by an anonymous guest token.
func NewGuestCart(id CartID, token GuestToken, currency Currency) (*Cart, error) {
	return newCart(id, CartOwner{GuestToken: token}, currency)
}

func newCart(id CartID, owner CartOwner, currency Currency) (*Cart, error) {
	if id.IsZero() {
		return nil, Invalid("cart.new", "cart ID is required")
	}
	if err := owner.validate("cart.new"); err != nil {
		return nil, err
	}
	if _, err := ParseCurrency(currency.String()); err != nil {
		return nil, err
	}
	return &Cart{
		id:         id,
		userID:     owner.UserID,
		guestToken: owner.GuestToken,
		currency:   currency,
	}, nil
}

// ReconstituteCartParams carries persisted cart state back into the
// aggregate.
type ReconstituteCartParams struct {
	ID                   CartID
	Owner                CartOwner
	Currency             Currency
	Items                []CartItem
	Email                string
	ShippingOptionCode   string
	ReservationExpiresAt *time.Time
}

// ReconstituteCart rebuilds a cart from storage. The ownership invariant
// is re-checked rather than trusting persisted data.
func ReconstituteCart(params ReconstituteCartParams) (*Cart, error) {
	cart, err := newCart(params.ID, params.Owner, params.Currency)
	if err != nil {
		return nil, err
	}
	seen := make(map[VariantID]bool, len(params.Items))
	for _, item := range params.Items {
		if seen[item.VariantID] {
			return nil, Errorf(EINVALID, "cart.reconstitute", "duplicate line for variant %s", item.VariantID)
		}
		seen[item.VariantID] = true
	}
	cart.items = append(cart.items, params.Items...)
	cart.email = params.Email
	cart.shippingOptionCode = params.ShippingOptionCode
	cart.reservationExpiresAt = params.ReservationExpiresAt
	return cart, nil
}

// ID returns the cart's identifier.
func (c *Cart) ID() CartID { return c.id }

// Owner returns the cart's ownership half.
func (c *Cart) Owner() CartOwner {
	return CartOwner{UserID: c.userID, GuestToken: c.guestToken}
}

// UserID returns the owning user ID, or empty for guest carts.
func (c *Cart) UserID() string { return c.userID }

// GuestToken returns the owning guest token, or empty for user carts.
func (c *Cart) GuestToken() GuestToken { return c.guestToken }

// IsGuest reports whether the cart is guest-owned.
func (c *Cart) IsGuest() bool { return c.guestToken != "" }

// Currency returns the cart's currency.
func (c *Cart) Currency() Currency { return c.currency }

// Email returns the contact email captured during checkout, if any.
func (c *Cart) Email() string { return c.email }

// ShippingOptionCode returns the selected shipping tier code, if any.
func (c *Cart) ShippingOptionCode() string { return c.shippingOptionCode }

// ReservationExpiresAt returns the mirrored hold expiry, if any.
func (c *Cart) ReservationExpiresAt() *time.Time { return c.reservationExpiresAt }

// Items returns a copy of the cart's lines.
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Item looks up the line for a variant.
func (c *Cart) Item(variantID VariantID) (CartItem, bool) {
	for _, item := range c.items {
		if item.VariantID == variantID {
			return item, true
		}
	}
	return CartItem{}, false
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// AddItem adds a variant to the cart. If a line for the variant already
// exists its quantity is incremented; otherwise a new line is appended
// with the given price snapshot. The snapshot is frozen at add time.
func (c *Cart) AddItem(variantID VariantID, qty Quantity, unitPriceCents int64, promos []Promotion, isGift bool, giftMessage string) error {
	for i, item := range c.items {
		if item.VariantID == variantID {
			merged := int(item.Quantity) + int(qty)
			newQty, err := NewQuantity(merged)
			if err != nil {
				return err
			}
			c.items[i].Quantity = newQty
			return nil
		}
	}

	item, err := NewCartItem(c.id, variantID, qty, unitPriceCents, promos, isGift, giftMessage)
	if err != nil {
		return err
	}
	c.items = append(c.items, item)
	return nil
}

// UpdateItemQuantity sets a line's quantity. A quantity of zero or less
// removes the line; this is defined behavior, not an error. Returns true
// when the line was removed.
func (c *Cart) UpdateItemQuantity(variantID VariantID, quantity int) (removed bool, err error) {
	if quantity <= 0 {
		return true, c.RemoveItem(variantID)
	}
	qty, err := NewQuantity(quantity)
	if err != nil {
		return false, err
	}
	for i, item := range c.items {
		if item.VariantID == variantID {
			c.items[i].Quantity = qty
			return false, nil
		}
	}
	return false, ErrCartItemNotFound
}

// RemoveItem deletes the line for a variant.
func (c *Cart) RemoveItem(variantID VariantID) error {
	for i, item := range c.items {
		if item.VariantID == variantID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return ErrCartItemNotFound
}

// ClearItems removes every line.
func (c *Cart) ClearItems() {
	c.items = nil
}

// SetContactDetails records the checkout contact email and shipping tier.
func (c *Cart) SetContactDetails(email, shippingOptionCode string) {
	c.email = email
	c.shippingOptionCode = shippingOptionCode
}

// ScrubContactDetails clears contact and fulfillment fields. A cart is
// single-use once converted to an order; stale address data must not leak
// into the cart's next lifecycle.
func (c *Cart) ScrubContactDetails() {
	c.email = ""
	c.shippingOptionCode = ""
	c.reservationExpiresAt = nil
}

// SetReservationExpiry records the mirrored hold expiry.
func (c *Cart) SetReservationExpiry(t *time.Time) {
	c.reservationExpiresAt = t
}

// SubtotalCents sums line subtotals before discounts.
func (c *Cart) SubtotalCents() int64 {
	var sum int64
	for _, item := range c.items {
		sum += item.SubtotalCents()
	}
	return sum
}

// TotalDiscountCents sums per-line discounts.
func (c *Cart) TotalDiscountCents() int64 {
	var sum int64
	for _, item := range c.items {
		sum += item.DiscountCents()
	}
	return sum
}

// TotalCents is the cart total after discounts, never negative.
func (c *Cart) TotalCents() int64 {
	var sum int64
	for _, item := range c.items {
		sum += item.TotalCents()
	}
	return sum
}

// ItemCount sums line quantities.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.items {
		count += int(item.Quantity)
	}
	return count
}

// MergeWith folds the lines of another cart into this one. Only legal on
// a user cart. Quantities are summed for shared variants; other lines are
// copied under this cart's ID. Currency and price snapshots of this cart
// are left untouched.
func (c *Cart) MergeWith(other *Cart) error {
	if c.IsGuest() {
		return Forbidden("cart.merge", "target cart must be user-owned")
	}
	if other == nil {
		return Invalid("cart.merge", "source cart is required")
	}
	for _, item := range other.items {
		if existing, ok := c.Item(item.VariantID); ok {
			if _, err := c.UpdateItemQuantity(item.VariantID, int(existing.Quantity)+int(item.Quantity)); err != nil {
				return err
			}
			continue
		}
		copied := item
		copied.CartID = c.id
		c.items = append(c.items, copied)
	}
	return nil
}

// TransferToUser converts a guest cart into a user cart. Only legal on a
// guest cart; the result is a new aggregate with the same ID and items.
// A user cart cannot be re-transferred.
func (c *Cart) TransferToUser(userID string) (*Cart, error) {
	if !c.IsGuest() {
		return nil, Forbidden("cart.transfer", "only guest carts can be transferred")
	}
	if userID == "" {
		return nil, Invalid("cart.transfer", "user ID is required")
	}
	transferred, err := newCart(c.id, CartOwner{UserID: userID}, c.currency)
	if err != nil {
		return nil, err
	}
	transferred.items = make([]CartItem, len(c.items))
	copy(transferred.items, c.items)
	transferred.email = c.email
	transferred.shippingOptionCode = c.shippingOptionCode
	transferred.reservationExpiresAt = c.reservationExpiresAt
	return transferred, nil
}
