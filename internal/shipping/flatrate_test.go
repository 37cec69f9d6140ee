package shipping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatRateGetRates(t *testing.T) {
	p := NewFlatRateProvider(nil, 0)

	rates, err := p.GetRates(context.Background(), RateParams{
		Packages: []Package{{WeightGrams: 500}},
	})
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, "standard", rates[0].ServiceCode)
	assert.Equal(t, int64(500), rates[0].CostCents)

	_, err = p.GetRates(context.Background(), RateParams{})
	assert.ErrorIs(t, err, ErrNoPackages)
}

func TestFlatRateGetRate(t *testing.T) {
	p := NewFlatRateProvider(nil, 0)
	params := RateParams{Packages: []Package{{WeightGrams: 500}}}

	rate, err := p.GetRate(context.Background(), "express", params)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), rate.CostCents)

	// Empty code falls back to the default service.
	rate, err = p.GetRate(context.Background(), "", params)
	require.NoError(t, err)
	assert.Equal(t, "standard", rate.ServiceCode)

	_, err = p.GetRate(context.Background(), "teleport", params)
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestFlatRateFreeShippingThreshold(t *testing.T) {
	p := NewFlatRateProvider(nil, 5000)

	rate, err := p.GetRate(context.Background(), "standard", RateParams{
		Packages:      []Package{{WeightGrams: 500}},
		SubtotalCents: 5000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), rate.CostCents)

	// Express is never free, and orders under the threshold pay full rate.
	rate, err = p.GetRate(context.Background(), "express", RateParams{
		Packages:      []Package{{WeightGrams: 500}},
		SubtotalCents: 9000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), rate.CostCents)
}
