package parser

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

var errNoAmount = errors.New("no parseable amount")

var currencyTokens = []string{"$", "€", "£", "R$", "USD", "EUR", "GBP"}

// ParseAmount turns a raw amount cell into a signed decimal. Currency
// symbols, thousands separators and whitespace are stripped; a parenthesized
// value is negative. An unparseable value is an error, never zero, so that
// callers drop the row instead of defaulting.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, errNoAmount
	}

	for _, tok := range currencyTokens {
		s = strings.ReplaceAll(s, tok, "")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ',' {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Decimal{}, errNoAmount
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, errNoAmount
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"2006/01/02",
	"01-02-2006",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
}

// ParseDate tries the date formats seen across bank exports and truncates to
// a calendar date.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format: " + s)
}
