package shipping

import (
	"context"
	"time"
)

// FlatRateProvider returns predefined flat-rate shipping options.
// Used when real carrier integration is not needed.
type FlatRateProvider struct {
	rates              []FlatRate
	freeShippingCents  int64
	defaultServiceCode string
}

// FlatRate defines a single flat-rate shipping option.
type FlatRate struct {
	ServiceName string
	ServiceCode string
	CostCents   int64
	DaysMin     int
	DaysMax     int
}

var _ Provider = (*FlatRateProvider)(nil)

// DefaultRates are the options used when none are configured.
var DefaultRates = []FlatRate{
	{ServiceName: "Standard", ServiceCode: "standard", CostCents: 500, DaysMin: 3, DaysMax: 7},
	{ServiceName: "Express", ServiceCode: "express", CostCents: 1500, DaysMin: 1, DaysMax: 2},
}

// NewFlatRateProvider creates a new flat-rate shipping provider.
// Orders at or above freeShippingCents ship the default service free;
// zero disables the threshold.
func NewFlatRateProvider(rates []FlatRate, freeShippingCents int64) *FlatRateProvider {
	if len(rates) == 0 {
		rates = DefaultRates
	}
	return &FlatRateProvider{
		rates:              rates,
		freeShippingCents:  freeShippingCents,
		defaultServiceCode: rates[0].ServiceCode,
	}
}

// GetRates converts flat rates to Rate objects.
func (p *FlatRateProvider) GetRates(ctx context.Context, params RateParams) ([]Rate, error) {
	if len(params.Packages) == 0 {
		return nil, ErrNoPackages
	}

	result := make([]Rate, len(p.rates))
	for i, fr := range p.rates {
		result[i] = p.rate(fr, params)
	}
	return result, nil
}

// GetRate resolves one option by service code.
func (p *FlatRateProvider) GetRate(ctx context.Context, serviceCode string, params RateParams) (*Rate, error) {
	if serviceCode == "" {
		serviceCode = p.defaultServiceCode
	}
	for _, fr := range p.rates {
		if fr.ServiceCode == serviceCode {
			r := p.rate(fr, params)
			return &r, nil
		}
	}
	return nil, ErrUnknownOption
}

func (p *FlatRateProvider) rate(fr FlatRate, params RateParams) Rate {
	cost := fr.CostCents
	if p.freeShippingCents > 0 && params.SubtotalCents >= p.freeShippingCents && fr.ServiceCode == p.defaultServiceCode {
		cost = 0
	}
	return Rate{
		ServiceName:           fr.ServiceName,
		ServiceCode:           fr.ServiceCode,
		CostCents:             cost,
		EstimatedDaysMin:      fr.DaysMin,
		EstimatedDaysMax:      fr.DaysMax,
		EstimatedDeliveryDate: time.Now().AddDate(0, 0, fr.DaysMax),
	}
}
