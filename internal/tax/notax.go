package tax

import "context"

// NoTaxCalculator returns zero tax for all calculations.
// Used when tax is collected elsewhere or not collected at all.
type NoTaxCalculator struct{}

var _ Calculator = (*NoTaxCalculator)(nil)

// NewNoTaxCalculator creates a new no-tax calculator.
func NewNoTaxCalculator() *NoTaxCalculator {
	return &NoTaxCalculator{}
}

// CalculateTax always returns zero tax.
func (c *NoTaxCalculator) CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error) {
	return &TaxResult{TotalTaxCents: 0}, nil
}
