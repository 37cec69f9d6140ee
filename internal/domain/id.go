package domain

import (
	"github.com/google/uuid"
)

// CartID uniquely identifies a shopping cart.
type CartID struct {
	value uuid.UUID
}

// NewCartID generates a new random cart ID.
func NewCartID() CartID {
	return CartID{value: uuid.New()}
}

// ParseCartID parses a cart ID from its string form.
func ParseCartID(s string) (CartID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CartID{}, Errorf(EINVALID, "cart_id.parse", "invalid cart ID: %s", s)
	}
	return CartID{value: id}, nil
}

// String returns the canonical UUID string.
func (id CartID) String() string {
	return id.value.String()
}

// IsZero reports whether the ID is the zero value.
func (id CartID) IsZero() bool {
	return id.value == uuid.Nil
}

// VariantID uniquely identifies a product variant.
type VariantID struct {
	value uuid.UUID
}

// NewVariantID generates a new random variant ID.
func NewVariantID() VariantID {
	return VariantID{value: uuid.New()}
}

// ParseVariantID parses a variant ID from its string form.
func ParseVariantID(s string) (VariantID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return VariantID{}, Errorf(EINVALID, "variant_id.parse", "invalid variant ID: %s", s)
	}
	return VariantID{value: id}, nil
}

// String returns the canonical UUID string.
func (id VariantID) String() string {
	return id.value.String()
}

// IsZero reports whether the ID is the zero value.
func (id VariantID) IsZero() bool {
	return id.value == uuid.Nil
}

// MaxQuantity is the upper bound on a single line item's quantity.
const MaxQuantity = 999

// Quantity is a bounded item count. Valid values are 1 through 999.
type Quantity int

// NewQuantity validates and returns a quantity.
func NewQuantity(n int) (Quantity, error) {
	if n < 1 || n > MaxQuantity {
		return 0, Errorf(EINVALID, "quantity.new", "quantity must be between 1 and %d, got %d", MaxQuantity, n)
	}
	return Quantity(n), nil
}

// Int returns the quantity as a plain int.
func (q Quantity) Int() int {
	return int(q)
}

// Currency is an ISO 4217 currency code. The set is closed; prices are
// stored in the smallest unit (cents) regardless of currency.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyCAD Currency = "CAD"
)

// ParseCurrency validates a currency code.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(s) {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyCAD:
		return Currency(s), nil
	}
	return "", Errorf(EINVALID, "currency.parse", "unsupported currency: %s", s)
}

// String returns the currency code.
func (c Currency) String() string {
	return string(c)
}
