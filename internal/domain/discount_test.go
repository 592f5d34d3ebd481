package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountRate_Tiers(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		rate     float64
	}{
		{"single unit", 1, 0},
		{"top of no-discount tier", 3, 0},
		{"bottom of ten percent tier", 4, 0.10},
		{"top of ten percent tier", 9, 0.10},
		{"bottom of twenty percent tier", 10, 0.20},
		{"cap", 20, 0.20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := DiscountRate(tt.quantity)
			require.NoError(t, err)
			assert.Equal(t, tt.rate, rate)
		})
	}
}

func TestDiscountRate_AboveCap(t *testing.T) {
	_, err := DiscountRate(21)
	require.ErrorIs(t, err, ErrQuantityLimitExceeded)
	assert.True(t, IsRuleViolation(err))
}

func TestDiscountRate_NonPositive(t *testing.T) {
	for _, q := range []int{0, -1} {
		_, err := DiscountRate(q)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
}

func TestQuantityAllowed(t *testing.T) {
	assert.False(t, QuantityAllowed(0))
	assert.True(t, QuantityAllowed(1))
	assert.True(t, QuantityAllowed(20))
	assert.False(t, QuantityAllowed(21))
}
