package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	t.Run("simple comma header", func(t *testing.T) {
		data := []byte("Date,Description,Amount\n2024-01-15,Coffee,-4.50\n")

		shape, err := Detect(data)

		require.NoError(t, err)
		assert.Equal(t, ',', int32(shape.Delimiter))
		assert.Equal(t, 0, shape.SkipLines)
		assert.Equal(t, []string{"Date", "Description", "Amount"}, shape.Headers)
	})

	t.Run("header below metadata preamble", func(t *testing.T) {
		data := []byte("Chase Bank Export\nGenerated 2024-02-01\n\nTransaction Date,Post Date,Description,Amount\n01/15/2024,01/16/2024,STORE,-10.00\n")

		shape, err := Detect(data)

		require.NoError(t, err)
		assert.Equal(t, 3, shape.SkipLines)
		assert.Equal(t, "Transaction Date", shape.Headers[0])
	})

	t.Run("semicolon delimited", func(t *testing.T) {
		data := []byte("Date;Description;Debit;Credit\n2024-01-15;Shop;4,50;\n")

		shape, err := Detect(data)

		require.NoError(t, err)
		assert.Equal(t, ';', int32(shape.Delimiter))
		assert.Len(t, shape.Headers, 4)
	})

	t.Run("BOM before the header line", func(t *testing.T) {
		data := []byte("\ufeffDate,Description,Amount\n2024-01-15,Coffee,-4.50\n")

		shape, err := Detect(data)

		require.NoError(t, err)
		assert.Equal(t, "Date", shape.Headers[0])
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := Detect(nil)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("no header present", func(t *testing.T) {
		_, err := Detect([]byte("lorem ipsum\ndolor sit amet\n"))
		assert.ErrorIs(t, err, ErrNoHeadersFound)
	})
}

func TestMatchFingerprint(t *testing.T) {
	t.Run("matches known card layout", func(t *testing.T) {
		mapping, ok := MatchFingerprint([]string{"Transaction Date", "Post Date", "Description", "Category", "Amount"})

		require.True(t, ok)
		assert.Equal(t, 0, mapping.DateCol)
		assert.Equal(t, 2, mapping.DescCol)
		assert.Equal(t, 4, mapping.AmountCol)
	})

	t.Run("matches split debit credit layout", func(t *testing.T) {
		mapping, ok := MatchFingerprint([]string{"Date", "Description", "Withdrawal", "Deposit"})

		require.True(t, ok)
		assert.Equal(t, 2, mapping.DebitCol)
		assert.Equal(t, 3, mapping.CreditCol)
		assert.Equal(t, -1, mapping.AmountCol)
	})

	t.Run("no match for unfamiliar headers", func(t *testing.T) {
		_, ok := MatchFingerprint([]string{"When", "Who", "How Much"})
		assert.False(t, ok)
	})
}

func TestMapColumns(t *testing.T) {
	t.Run("prefers transaction date over an earlier date column", func(t *testing.T) {
		mapping := MapColumns([]string{"Post Date", "Transaction Date", "Description", "Amount"})
		assert.Equal(t, 1, mapping.DateCol)
	})

	t.Run("recognizes payee as description", func(t *testing.T) {
		mapping := MapColumns([]string{"Date", "Payee", "Amount"})
		assert.Equal(t, 1, mapping.DescCol)
	})

	t.Run("absent roles are -1", func(t *testing.T) {
		mapping := MapColumns([]string{"Date", "Amount"})
		assert.Equal(t, -1, mapping.DescCol)
		assert.Equal(t, -1, mapping.DebitCol)
		assert.Equal(t, -1, mapping.TypeCol)
	})
}

func TestNormalizeBytes(t *testing.T) {
	t.Run("strips utf-8 BOM", func(t *testing.T) {
		data := NormalizeBytes([]byte("\xEF\xBB\xBFDate,Amount"))
		assert.Equal(t, []byte("Date,Amount"), data)
	})

	t.Run("decodes latin-1 fallback", func(t *testing.T) {
		// "Café" in latin-1: é is a single 0xE9 byte, invalid as UTF-8.
		data := NormalizeBytes([]byte{'C', 'a', 'f', 0xE9})
		assert.Equal(t, "Café", string(data))
	})

	t.Run("valid utf-8 passes through", func(t *testing.T) {
		in := []byte("Café")
		assert.Equal(t, in, NormalizeBytes(in))
	})
}
