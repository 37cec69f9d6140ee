package service

import (
	"context"
	"encoding/json"

	"github.com/dukerupert/idunn/internal/address"
	"github.com/dukerupert/idunn/internal/domain"
	"github.com/dukerupert/idunn/internal/repository"
)

// validateAddressJSON runs an address through the validator and returns
// the normalized snapshot as jsonb. A nil address is a nil payload.
func validateAddressJSON(ctx context.Context, v address.Validator, addr *address.Address, op string) ([]byte, error) {
	if addr == nil {
		return nil, nil
	}
	result, err := v.Validate(ctx, *addr)
	if err != nil {
		return nil, domain.Internal(err, op, "address validation failed")
	}
	if !result.IsValid {
		return nil, ErrInvalidAddress
	}
	return json.Marshal(*result.NormalizedAddress)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ownerColumns splits a cart owner into the nullable column pair the
// schema stores.
func ownerColumns(owner domain.CartOwner) (userID, guestToken *string) {
	return strPtr(owner.UserID), strPtr(owner.GuestToken.String())
}

func ownerFromColumns(userID, guestToken *string) domain.CartOwner {
	return domain.CartOwner{
		UserID:     deref(userID),
		GuestToken: domain.GuestToken(deref(guestToken)),
	}
}

func cartFromRows(row repository.CartRow, itemRows []repository.CartItemRow) (*domain.Cart, error) {
	cartID, err := domain.ParseCartID(row.ID)
	if err != nil {
		return nil, err
	}

	currency, err := domain.ParseCurrency(row.Currency)
	if err != nil {
		return nil, err
	}

	items := make([]domain.CartItem, 0, len(itemRows))
	for _, ir := range itemRows {
		item, err := cartItemFromRow(ir)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return domain.ReconstituteCart(domain.ReconstituteCartParams{
		ID:                   cartID,
		Owner:                ownerFromColumns(row.UserID, row.GuestToken),
		Currency:             currency,
		Items:                items,
		Email:                deref(row.Email),
		ShippingOptionCode:   deref(row.ShippingOptionCode),
		ReservationExpiresAt: row.ReservationExpiresAt,
	})
}

func cartItemFromRow(row repository.CartItemRow) (domain.CartItem, error) {
	cartID, err := domain.ParseCartID(row.CartID)
	if err != nil {
		return domain.CartItem{}, err
	}
	variantID, err := domain.ParseVariantID(row.VariantID)
	if err != nil {
		return domain.CartItem{}, err
	}
	qty, err := domain.NewQuantity(int(row.Quantity))
	if err != nil {
		return domain.CartItem{}, err
	}

	var promos []domain.Promotion
	if len(row.Promotions) > 0 {
		if err := json.Unmarshal(row.Promotions, &promos); err != nil {
			return domain.CartItem{}, domain.Internal(err, "cart.item.load", "corrupt promotion data")
		}
		for _, p := range promos {
			if err := p.Validate(); err != nil {
				return domain.CartItem{}, err
			}
		}
	}

	return domain.NewCartItem(cartID, variantID, qty, row.UnitPriceCents, promos, row.IsGift, deref(row.GiftMessage))
}

func marshalPromotions(promos []domain.Promotion) ([]byte, error) {
	if len(promos) == 0 {
		return nil, nil
	}
	return json.Marshal(promos)
}

func reservationFromRow(row repository.ReservationRow) (*domain.Reservation, error) {
	cartID, err := domain.ParseCartID(row.CartID)
	if err != nil {
		return nil, err
	}
	variantID, err := domain.ParseVariantID(row.VariantID)
	if err != nil {
		return nil, err
	}
	qty, err := domain.NewQuantity(int(row.Quantity))
	if err != nil {
		return nil, err
	}

	return &domain.Reservation{
		ID:         row.ID,
		CartID:     cartID,
		VariantID:  variantID,
		Quantity:   qty,
		ExpiresAt:  row.ExpiresAt,
		NotifiedAt: row.NotifiedAt,
		CreatedAt:  row.CreatedAt,
	}, nil
}

func checkoutFromRow(row repository.CheckoutRow) (*domain.Checkout, error) {
	cartID, err := domain.ParseCartID(row.CartID)
	if err != nil {
		return nil, err
	}
	currency, err := domain.ParseCurrency(row.Currency)
	if err != nil {
		return nil, err
	}

	return &domain.Checkout{
		ID:               row.ID,
		CartID:           cartID,
		Owner:            ownerFromColumns(row.UserID, row.GuestToken),
		Status:           domain.CheckoutStatus(row.Status),
		TotalAmountCents: row.TotalAmountCents,
		Currency:         currency,
		ExpiresAt:        row.ExpiresAt,
		CompletedAt:      row.CompletedAt,
		CreatedAt:        row.CreatedAt,
	}, nil
}

func orderSummaryFromRow(row repository.OrderRow) domain.OrderSummary {
	return domain.OrderSummary{
		OrderID:         row.ID,
		OrderNo:         row.OrderNumber,
		CheckoutID:      row.CheckoutID,
		PaymentIntentID: row.PaymentIntentID,
		TotalAmount:     row.TotalCents,
		Currency:        domain.Currency(row.Currency),
		Status:          row.Status,
		CreatedAt:       row.CreatedAt,
	}
}
