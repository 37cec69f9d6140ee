package tax

import (
	"context"

	"github.com/shopspring/decimal"
)

// PercentageCalculator calculates tax using a simple percentage rate
// applied to subtotal plus shipping.
type PercentageCalculator struct {
	rate decimal.Decimal // e.g. 0.08 for 8%
	name string
}

var _ Calculator = (*PercentageCalculator)(nil)

// NewPercentageCalculator creates a new percentage-based tax calculator.
func NewPercentageCalculator(rate float64, jurisdictionName string) *PercentageCalculator {
	return &PercentageCalculator{
		rate: decimal.NewFromFloat(rate),
		name: jurisdictionName,
	}
}

// CalculateTax computes tax on subtotal + shipping using the configured
// rate, rounding half away from zero to whole cents.
func (c *PercentageCalculator) CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error) {
	base := params.SubtotalCents + params.ShippingCents
	if base <= 0 || c.rate.IsZero() {
		return &TaxResult{TotalTaxCents: 0, IsEstimate: true}, nil
	}

	amount := decimal.NewFromInt(base).Mul(c.rate).Round(0).IntPart()
	rate, _ := c.rate.Float64()
	return &TaxResult{
		TotalTaxCents: amount,
		IsEstimate:    true,
		Breakdown: []TaxBreakdown{
			{Jurisdiction: "flat", Name: c.name, Rate: rate, AmountCents: amount},
		},
	}, nil
}
