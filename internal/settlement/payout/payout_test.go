package payout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmount_CurrencyRounding(t *testing.T) {
	// stake 10.00, odds 9.85 => 98.50
	assert.Equal(t, int64(9850), Amount(1000, 9.85))
	// stake 10.50, odds 1.985 => 20.8425 => 20.84
	assert.Equal(t, int64(2084), Amount(1050, 1.985))
	// stake 10.00, odds 5.37 => 53.70
	assert.Equal(t, int64(5370), Amount(1000, 5.37))
}

func TestAmount_NonPositiveOddsPayZero(t *testing.T) {
	assert.Equal(t, int64(0), Amount(1000, 0))
	assert.Equal(t, int64(0), Amount(1000, -1.5))
}
