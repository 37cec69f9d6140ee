package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustQuantity(t *testing.T, n int) Quantity {
	t.Helper()
	q, err := NewQuantity(n)
	require.NoError(t, err)
	return q
}

func newTestGuestCart(t *testing.T) *Cart {
	t.Helper()
	token, err := NewGuestToken()
	require.NoError(t, err)
	cart, err := NewGuestCart(NewCartID(), token, CurrencyUSD)
	require.NoError(t, err)
	return cart
}

func newTestUserCart(t *testing.T, userID string) *Cart {
	t.Helper()
	cart, err := NewUserCart(NewCartID(), userID, CurrencyUSD)
	require.NoError(t, err)
	return cart
}

func TestCartOwnershipXOR(t *testing.T) {
	token, err := NewGuestToken()
	require.NoError(t, err)

	t.Run("user cart is valid", func(t *testing.T) {
		cart, err := NewUserCart(NewCartID(), "user-1", CurrencyUSD)
		require.NoError(t, err)
		assert.False(t, cart.IsGuest())
	})

	t.Run("guest cart is valid", func(t *testing.T) {
		cart, err := NewGuestCart(NewCartID(), token, CurrencyUSD)
		require.NoError(t, err)
		assert.True(t, cart.IsGuest())
	})

	t.Run("neither owner fails", func(t *testing.T) {
		_, err := NewUserCart(NewCartID(), "", CurrencyUSD)
		assert.Equal(t, EINVALID, ErrorCode(err))
	})

	t.Run("both owners fail on reconstitution", func(t *testing.T) {
		_, err := ReconstituteCart(ReconstituteCartParams{
			ID:       NewCartID(),
			Owner:    CartOwner{UserID: "user-1", GuestToken: token},
			Currency: CurrencyUSD,
		})
		assert.Equal(t, EINVALID, ErrorCode(err))
	})

	t.Run("reconstitution rejects duplicate variant lines", func(t *testing.T) {
		cartID := NewCartID()
		variantID := NewVariantID()
		item, err := NewCartItem(cartID, variantID, mustQuantity(t, 1), 1000, nil, false, "")
		require.NoError(t, err)

		_, err = ReconstituteCart(ReconstituteCartParams{
			ID:       cartID,
			Owner:    CartOwner{UserID: "user-1"},
			Currency: CurrencyUSD,
			Items:    []CartItem{item, item},
		})
		assert.Equal(t, EINVALID, ErrorCode(err))
	})
}

func TestCartAddItem(t *testing.T) {
	cart := newTestGuestCart(t)
	variantID := NewVariantID()

	require.NoError(t, cart.AddItem(variantID, mustQuantity(t, 2), 1000, nil, false, ""))
	assert.Equal(t, 2, cart.ItemCount())

	// Adding the same variant increments the existing line.
	require.NoError(t, cart.AddItem(variantID, mustQuantity(t, 3), 1250, nil, false, ""))
	assert.Equal(t, 5, cart.ItemCount())
	assert.Len(t, cart.Items(), 1)

	// The price snapshot from the first add is kept.
	item, ok := cart.Item(variantID)
	require.True(t, ok)
	assert.Equal(t, int64(1000), item.UnitPriceCents)
}

func TestCartAddItemQuantityCeiling(t *testing.T) {
	cart := newTestGuestCart(t)
	variantID := NewVariantID()

	require.NoError(t, cart.AddItem(variantID, mustQuantity(t, 998), 100, nil, false, ""))
	err := cart.AddItem(variantID, mustQuantity(t, 2), 100, nil, false, "")
	assert.Equal(t, EINVALID, ErrorCode(err))
}

func TestCartGiftRequiresMessage(t *testing.T) {
	cart := newTestGuestCart(t)

	err := cart.AddItem(NewVariantID(), mustQuantity(t, 1), 500, nil, true, "")
	assert.Equal(t, EINVALID, ErrorCode(err))

	err = cart.AddItem(NewVariantID(), mustQuantity(t, 1), 500, nil, true, "happy birthday")
	assert.NoError(t, err)
}

func TestCartUpdateItemQuantity(t *testing.T) {
	cart := newTestGuestCart(t)
	variantID := NewVariantID()
	require.NoError(t, cart.AddItem(variantID, mustQuantity(t, 2), 1000, nil, false, ""))

	removed, err := cart.UpdateItemQuantity(variantID, 7)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 7, cart.ItemCount())

	// Zero or negative quantity is removal, not an error.
	removed, err = cart.UpdateItemQuantity(variantID, 0)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.True(t, cart.IsEmpty())

	_, err = cart.UpdateItemQuantity(NewVariantID(), 3)
	assert.Equal(t, ENOTFOUND, ErrorCode(err))
}

func TestCartTotalsScenario(t *testing.T) {
	// Guest cart, variant V qty 2 at unit price 10.00, no promo.
	cart := newTestGuestCart(t)
	variantID := NewVariantID()
	require.NoError(t, cart.AddItem(variantID, mustQuantity(t, 2), 1000, nil, false, ""))

	assert.Equal(t, int64(2000), cart.SubtotalCents())
	assert.Equal(t, int64(0), cart.TotalDiscountCents())
	assert.Equal(t, int64(2000), cart.TotalCents())

	// Apply a 10%-off promo: discount 2.00, total 18.00.
	promo, err := NewPercentagePromotion("SAVE10", decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, cart.RemoveItem(variantID))
	require.NoError(t, cart.AddItem(variantID, mustQuantity(t, 2), 1000, []Promotion{promo}, false, ""))

	assert.Equal(t, int64(2000), cart.SubtotalCents())
	assert.Equal(t, int64(200), cart.TotalDiscountCents())
	assert.Equal(t, int64(1800), cart.TotalCents())
}

func TestCartDiscountNeverExceedsSubtotal(t *testing.T) {
	cart := newTestGuestCart(t)
	fixed, err := NewFixedAmountPromotion("BIGOFF", 100000)
	require.NoError(t, err)
	require.NoError(t, cart.AddItem(NewVariantID(), mustQuantity(t, 1), 500, []Promotion{fixed}, false, ""))

	assert.Equal(t, int64(500), cart.TotalDiscountCents())
	assert.Equal(t, int64(0), cart.TotalCents())
}

func TestCartMergeWith(t *testing.T) {
	userCart := newTestUserCart(t, "user-1")
	guestCart := newTestGuestCart(t)

	shared := NewVariantID()
	guestOnly := NewVariantID()

	require.NoError(t, userCart.AddItem(shared, mustQuantity(t, 3), 1000, nil, false, ""))
	require.NoError(t, guestCart.AddItem(shared, mustQuantity(t, 2), 1100, nil, false, ""))
	require.NoError(t, guestCart.AddItem(guestOnly, mustQuantity(t, 1), 2000, nil, false, ""))

	require.NoError(t, userCart.MergeWith(guestCart))

	// 3 + 2 = 5 units on a single line, keeping the user cart's snapshot.
	item, ok := userCart.Item(shared)
	require.True(t, ok)
	assert.Equal(t, 5, item.Quantity.Int())
	assert.Equal(t, int64(1000), item.UnitPriceCents)
	assert.Len(t, userCart.Items(), 2)

	// Copied lines are re-keyed to the target cart.
	copied, ok := userCart.Item(guestOnly)
	require.True(t, ok)
	assert.Equal(t, userCart.ID(), copied.CartID)
}

func TestCartMergeIntoGuestCartFails(t *testing.T) {
	guest := newTestGuestCart(t)
	other := newTestGuestCart(t)
	err := guest.MergeWith(other)
	assert.Equal(t, EFORBIDDEN, ErrorCode(err))
}

func TestCartTransferToUser(t *testing.T) {
	guest := newTestGuestCart(t)
	variantID := NewVariantID()
	require.NoError(t, guest.AddItem(variantID, mustQuantity(t, 2), 1500, nil, false, ""))

	transferred, err := guest.TransferToUser("user-9")
	require.NoError(t, err)
	assert.Equal(t, guest.ID(), transferred.ID())
	assert.Equal(t, "user-9", transferred.UserID())
	assert.False(t, transferred.IsGuest())
	assert.Equal(t, 2, transferred.ItemCount())

	// A user cart cannot be re-transferred.
	_, err = transferred.TransferToUser("user-10")
	assert.Equal(t, EFORBIDDEN, ErrorCode(err))
}

func TestCartScrubContactDetails(t *testing.T) {
	cart := newTestGuestCart(t)
	cart.SetContactDetails("bob@example.com", "express")
	require.Equal(t, "bob@example.com", cart.Email())

	cart.ScrubContactDetails()
	assert.Empty(t, cart.Email())
	assert.Empty(t, cart.ShippingOptionCode())
	assert.Nil(t, cart.ReservationExpiresAt())
}
