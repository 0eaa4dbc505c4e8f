package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"4.50", 450},
		{"-4.50", -450},
		{"1234.56", 123456},
		{"0.005", 1}, // half cent rounds away from zero
		{"-125.00", -12500},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ToCents(decimal.RequireFromString(tc.in)))
		})
	}
}

func TestFromCents(t *testing.T) {
	assert.Equal(t, "4.5", FromCents(450).String())
	assert.Equal(t, "-88.2", FromCents(-8820).String())
	assert.Equal(t, "0", FromCents(0).String())
}

func TestRoundTrip(t *testing.T) {
	for _, raw := range []string{"-4.50", "2500.00", "-88.20", "0.01"} {
		d := decimal.RequireFromString(raw)
		assert.True(t, d.Equal(FromCents(ToCents(d))), "value %s", raw)
	}
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "-$4.50", Display(decimal.RequireFromString("-4.50"), "USD"))
	assert.Equal(t, "$2,500.00", Display(decimal.RequireFromString("2500.00"), ""))
}
