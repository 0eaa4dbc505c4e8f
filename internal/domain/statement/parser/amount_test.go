package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	t.Run("plain values", func(t *testing.T) {
		amount, err := ParseAmount("-4.50")
		require.NoError(t, err)
		assert.Equal(t, "-4.5", amount.String())

		amount, err = ParseAmount("5000.00")
		require.NoError(t, err)
		assert.Equal(t, "5000", amount.String())
	})

	t.Run("strips currency symbols and separators", func(t *testing.T) {
		amount, err := ParseAmount("$1,234.56")
		require.NoError(t, err)
		assert.Equal(t, "1234.56", amount.String())

		amount, err = ParseAmount("EUR 99.00")
		require.NoError(t, err)
		assert.Equal(t, "99", amount.String())

		amount, err = ParseAmount("£ 2,000")
		require.NoError(t, err)
		assert.Equal(t, "2000", amount.String())
	})

	t.Run("parenthesized value is negative", func(t *testing.T) {
		amount, err := ParseAmount("(45.99)")
		require.NoError(t, err)
		assert.Equal(t, "-45.99", amount.String())

		amount, err = ParseAmount("($1,250.00)")
		require.NoError(t, err)
		assert.Equal(t, "-1250", amount.String())
	})

	t.Run("unparseable value is an error, never zero", func(t *testing.T) {
		for _, raw := range []string{"", "   ", "N/A", "----", "$"} {
			_, err := ParseAmount(raw)
			assert.Error(t, err, "input %q", raw)
		}
	})
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{
		"2024-01-15",
		"01/15/2024",
		"1/15/2024",
		"15-Jan-2024",
		"2024/01/15",
		"01-15-2024",
		"2024-01-15T09:30:00Z",
		"2024-01-15 09:30:00",
		"Jan 15, 2024",
	} {
		got, err := ParseDate(raw)
		require.NoError(t, err, "input %q", raw)
		assert.True(t, got.Equal(want), "input %q parsed to %s", raw, got)
	}

	t.Run("rejects unknown formats", func(t *testing.T) {
		_, err := ParseDate("15th of January")
		assert.Error(t, err)

		_, err = ParseDate("")
		assert.Error(t, err)
	})
}
