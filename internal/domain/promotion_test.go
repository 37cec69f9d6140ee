package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromotionConstructors(t *testing.T) {
	_, err := NewPercentagePromotion("SAVE0", decimal.Zero)
	assert.Equal(t, EINVALID, ErrorCode(err))

	_, err = NewPercentagePromotion("SAVE101", decimal.NewFromInt(101))
	assert.Equal(t, EINVALID, ErrorCode(err))

	_, err = NewFixedAmountPromotion("NEG", -5)
	assert.Equal(t, EINVALID, ErrorCode(err))

	_, err = NewBuyXGetYPromotion("B0G1", 0, 1)
	assert.Equal(t, EINVALID, ErrorCode(err))

	p, err := NewPercentagePromotion("SAVE10", decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, PromotionPercentage, p.Kind)
	assert.NoError(t, p.Validate())
}

func TestDiscountCents(t *testing.T) {
	pct10, err := NewPercentagePromotion("SAVE10", decimal.NewFromInt(10))
	require.NoError(t, err)
	pct25, err := NewPercentagePromotion("SAVE25", decimal.NewFromInt(25))
	require.NoError(t, err)
	fixed150, err := NewFixedAmountPromotion("OFF150", 150)
	require.NoError(t, err)

	tests := []struct {
		name     string
		subtotal int64
		promos   []Promotion
		want     int64
	}{
		{"no promotions", 2000, nil, 0},
		{"single percentage", 2000, []Promotion{pct10}, 200},
		{"percentages stack additively", 2000, []Promotion{pct10, pct25}, 700},
		{"fixed amount", 2000, []Promotion{fixed150}, 150},
		{"mixed", 2000, []Promotion{pct10, fixed150}, 350},
		{"capped at subtotal", 100, []Promotion{pct25, fixed150}, 100},
		{"free shipping contributes nothing", 2000, []Promotion{NewFreeShippingPromotion("SHIPFREE")}, 0},
		{"zero subtotal", 0, []Promotion{pct10, fixed150}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DiscountCents(tt.subtotal, tt.promos))
		})
	}
}

func TestDiscountCentsRounding(t *testing.T) {
	// 10% of 1.05 is 10.5 cents. Decimal half-up rounding gives 11.
	pct10, err := NewPercentagePromotion("SAVE10", decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, int64(11), DiscountCents(105, []Promotion{pct10}))
}
