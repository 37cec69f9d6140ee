package tax

import "context"

// Calculator defines the interface for tax calculation.
// Implementations: PercentageCalculator, NoTaxCalculator
type Calculator interface {
	// CalculateTax computes tax for line items and shipping.
	// Returns tax amount in cents.
	CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error)
}

// TaxParams contains all information needed for tax calculation.
type TaxParams struct {
	Country       string
	Region        string
	SubtotalCents int64
	ShippingCents int64
}

// TaxResult contains the calculated tax amount and breakdown.
type TaxResult struct {
	TotalTaxCents int64
	Breakdown     []TaxBreakdown
	IsEstimate    bool
}

// TaxBreakdown represents tax for a single jurisdiction.
type TaxBreakdown struct {
	Jurisdiction string  // "state", "county", "city"
	Name         string  // e.g., "Washington State"
	Rate         float64 // e.g., 0.065 for 6.5%
	AmountCents  int64
}
