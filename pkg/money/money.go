// Package money provides cents conversion and display formatting for
// monetary values. Arithmetic on amounts happens on shopspring/decimal;
// storage uses integer cents (Fowler Money pattern); go-money handles
// human-readable formatting.
package money

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var centsFactor = decimal.New(1, 2)

// ToCents converts a decimal amount to integer cents, rounding half away
// from zero.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(centsFactor).Round(0).IntPart()
}

// FromCents converts integer cents back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Display formats an amount for user-facing messages, e.g. "-$125.00".
// The currency code defaults to USD when unknown.
func Display(amount decimal.Decimal, currencyCode string) string {
	if money.GetCurrency(currencyCode) == nil {
		currencyCode = money.USD
	}
	return money.New(ToCents(amount), currencyCode).Display()
}
