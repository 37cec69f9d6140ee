package domain

import (
	"github.com/shopspring/decimal"
)

// PromotionKind enumerates the closed set of promotion variants.
type PromotionKind string

const (
	PromotionPercentage  PromotionKind = "percentage"
	PromotionFixedAmount PromotionKind = "fixed_amount"
	PromotionFreeShip    PromotionKind = "free_shipping"
	PromotionBuyXGetY    PromotionKind = "buy_x_get_y"
)

// Promotion is a tagged variant describing a discount applied to a cart
// line. Only the fields relevant to its Kind are meaningful; constructors
// enforce the per-kind validation rules.
type Promotion struct {
	Kind PromotionKind `json:"kind"`
	Code string        `json:"code"`

	// Percentage applies for PromotionPercentage; 0 < Percentage <= 100.
	Percentage decimal.Decimal `json:"percentage,omitempty"`

	// AmountCents applies for PromotionFixedAmount; always >= 0.
	AmountCents int64 `json:"amount_cents,omitempty"`

	// BuyQuantity/GetQuantity apply for PromotionBuyXGetY; both >= 1.
	BuyQuantity int `json:"buy_quantity,omitempty"`
	GetQuantity int `json:"get_quantity,omitempty"`
}

// NewPercentagePromotion creates a percentage-off promotion.
func NewPercentagePromotion(code string, percentage decimal.Decimal) (Promotion, error) {
	if percentage.LessThanOrEqual(decimal.Zero) || percentage.GreaterThan(decimal.NewFromInt(100)) {
		return Promotion{}, Errorf(EINVALID, "promotion.percentage", "percentage must be in (0, 100], got %s", percentage)
	}
	return Promotion{Kind: PromotionPercentage, Code: code, Percentage: percentage}, nil
}

// NewFixedAmountPromotion creates a fixed-amount-off promotion.
func NewFixedAmountPromotion(code string, amountCents int64) (Promotion, error) {
	if amountCents < 0 {
		return Promotion{}, Errorf(EINVALID, "promotion.fixed_amount", "amount must be non-negative, got %d", amountCents)
	}
	return Promotion{Kind: PromotionFixedAmount, Code: code, AmountCents: amountCents}, nil
}

// NewFreeShippingPromotion creates a free-shipping promotion. It does not
// affect line totals; the checkout surcharge logic interprets it.
func NewFreeShippingPromotion(code string) Promotion {
	return Promotion{Kind: PromotionFreeShip, Code: code}
}

// NewBuyXGetYPromotion creates a buy-X-get-Y promotion.
func NewBuyXGetYPromotion(code string, buy, get int) (Promotion, error) {
	if buy < 1 || get < 1 {
		return Promotion{}, Errorf(EINVALID, "promotion.buy_x_get_y", "buy and get quantities must be at least 1, got %d/%d", buy, get)
	}
	return Promotion{Kind: PromotionBuyXGetY, Code: code, BuyQuantity: buy, GetQuantity: get}, nil
}

// Validate re-checks the per-kind rules; used when reconstituting
// promotions from storage rather than trusting persisted data.
func (p Promotion) Validate() error {
	switch p.Kind {
	case PromotionPercentage:
		if p.Percentage.LessThanOrEqual(decimal.Zero) || p.Percentage.GreaterThan(decimal.NewFromInt(100)) {
			return Errorf(EINVALID, "promotion.validate", "percentage must be in (0, 100], got %s", p.Percentage)
		}
	case PromotionFixedAmount:
		if p.AmountCents < 0 {
			return Errorf(EINVALID, "promotion.validate", "amount must be non-negative, got %d", p.AmountCents)
		}
	case PromotionFreeShip:
	case PromotionBuyXGetY:
		if p.BuyQuantity < 1 || p.GetQuantity < 1 {
			return Errorf(EINVALID, "promotion.validate", "buy and get quantities must be at least 1, got %d/%d", p.BuyQuantity, p.GetQuantity)
		}
	default:
		return Errorf(EINVALID, "promotion.validate", "unknown promotion kind: %s", p.Kind)
	}
	return nil
}

// DiscountCents computes the discount for a line with the given subtotal:
//
//	discount = min(subtotal * sum(percentages)/100 + sum(fixed), subtotal)
//
// Percentage math runs in decimal and rounds half away from zero to whole
// cents. Free-shipping and buy-x-get-y promotions do not reduce the line
// subtotal here.
func DiscountCents(subtotalCents int64, promotions []Promotion) int64 {
	if subtotalCents <= 0 || len(promotions) == 0 {
		return 0
	}

	pctSum := decimal.Zero
	var fixedSum int64
	for _, p := range promotions {
		switch p.Kind {
		case PromotionPercentage:
			pctSum = pctSum.Add(p.Percentage)
		case PromotionFixedAmount:
			fixedSum += p.AmountCents
		}
	}

	pctDiscount := decimal.NewFromInt(subtotalCents).
		Mul(pctSum).
		Div(decimal.NewFromInt(100)).
		Round(0)

	discount := pctDiscount.IntPart() + fixedSum
	if discount > subtotalCents {
		return subtotalCents
	}
	if discount < 0 {
		return 0
	}
	return discount
}
