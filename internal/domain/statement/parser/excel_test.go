package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParser_Parse_Spreadsheet(t *testing.T) {
	ctx := context.Background()

	t.Run("parses workbook with header row", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"Date", "Description", "Amount"},
			{"2024-01-15", "OFFICE SUPPLIES", "-34.20"},
			{"2024-01-16", "CLIENT PAYMENT", "1200.00"},
		})

		result, err := New(testLogger()).Parse(ctx, data, "statement.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

		require.NoError(t, err)
		assert.Equal(t, 2, result.TotalRows)
		require.Len(t, result.Transactions, 2)

		tx := result.Transactions[0]
		assert.Equal(t, "OFFICE SUPPLIES", tx.Description)
		assert.Equal(t, "-34.2", tx.Amount.String())
		assert.Equal(t, FormatSpreadsheet, tx.SourceFormat)
		assert.InDelta(t, 0.8, tx.Confidence, 1e-9)
	})

	t.Run("locates header below title rows", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"Monthly Statement"},
			{},
			{"Date", "Description", "Debit", "Credit"},
			{"2024-02-01", "WIRE OUT", "250.00", ""},
			{"2024-02-02", "WIRE IN", "", "980.00"},
		})

		result, err := New(testLogger()).Parse(ctx, data, "bank.xlsx", "")

		require.NoError(t, err)
		require.Len(t, result.Transactions, 2)
		assert.Equal(t, "-250", result.Transactions[0].Amount.String())
		assert.Equal(t, "980", result.Transactions[1].Amount.String())
	})

	t.Run("type column signs unsigned amounts", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"Date", "Description", "Amount", "Type"},
			{"2024-02-10", "CARD PURCHASE", "62.15", "Debit"},
			{"2024-02-11", "REFUND", "18.40", "Credit"},
		})

		result, err := New(testLogger()).Parse(ctx, data, "card.xlsx", "")

		require.NoError(t, err)
		require.Len(t, result.Transactions, 2)
		assert.Equal(t, "-62.15", result.Transactions[0].Amount.String())
		assert.Equal(t, "18.4", result.Transactions[1].Amount.String())
	})

	t.Run("drops incomplete rows", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"Date", "Description", "Amount"},
			{"2024-03-01", "VALID", "10.00"},
			{"", "NO DATE", "5.00"},
		})

		result, err := New(testLogger()).Parse(ctx, data, "rows.xlsx", "")

		require.NoError(t, err)
		assert.Equal(t, 1, result.SkippedRows)
		require.Len(t, result.Transactions, 1)
	})

	t.Run("rejects corrupt workbook", func(t *testing.T) {
		_, err := New(testLogger()).Parse(ctx, []byte("not a zip archive"), "broken.xlsx", "")

		var malformed *MalformedInputError
		require.ErrorAs(t, err, &malformed)
	})
}
