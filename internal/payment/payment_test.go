package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		price string
		want  int64
	}{
		{"5", 500},
		{"5.00", 500},
		{"19.99", 1999},
		{"0.019", 1},
		{"12.345", 1234},
	}
	for _, c := range cases {
		got, err := MinorUnits(decimal.RequireFromString(c.price))
		require.NoError(t, err, c.price)
		assert.Equal(t, c.want, got, c.price)
	}
}

func TestMinorUnitsRejectsNonPositive(t *testing.T) {
	for _, price := range []string{"0", "-3", "0.004"} {
		_, err := MinorUnits(decimal.RequireFromString(price))
		assert.ErrorIs(t, err, ErrInvalidAmount, price)
	}
}

func TestStripeBridgeWithoutKey(t *testing.T) {
	_, err := NewStripeBridge("").CreateIntent(context.Background(), 500, "usd")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
