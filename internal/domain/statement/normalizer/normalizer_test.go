package normalizer

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/backoffice/internal/domain/statement/parser"
	"github.com/FACorreiaa/backoffice/internal/domain/statement/repository"
)

func TestCleanDescription(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"collapses asterisks and whitespace", "SQ *COFFEE   SHOP", "SQ COFFEE SHOP"},
		{"drops leading digits", "1234 AIRLINE TICKET", "AIRLINE TICKET"},
		{"upper-cases", "local grocery", "LOCAL GROCERY"},
		{"trims", "  PAYROLL  ", "PAYROLL"},
		{"already clean", "RENT PAYMENT", "RENT PAYMENT"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanDescription(tc.in))
		})
	}
}

func TestExtractMerchant(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"drops type keyword", "DEBIT CARD PURCHASE STARBUCKS", "CARD STARBUCKS"},
		{"drops masked card token", "AMAZON XXXX1234", "AMAZON"},
		{"drops short date token", "PAYPAL 01/15 TRANSFER", "PAYPAL"},
		{"keeps at most three tokens", "BLUE BOTTLE COFFEE ROASTERS OAKLAND", "BLUE BOTTLE COFFEE"},
		{"only noise yields empty", "DEBIT 01/15 XXXX9876", ""},
		{"drops stop words and short tokens", "PAYMENT TO THE GYM", "GYM"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractMerchant(tc.in))
		})
	}
}

func TestNormalize(t *testing.T) {
	ownerID := uuid.New()
	accountID := uuid.New()
	batchID := uuid.New()
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	t.Run("negative amount is a debit", func(t *testing.T) {
		tx := Normalize(parser.ParsedTransaction{
			Date:        date,
			Description: "grocery *store",
			Amount:      decimal.RequireFromString("-125.00"),
			Confidence:  0.9,
		}, ownerID, accountID, batchID)

		assert.Equal(t, repository.KindDebit, tx.Kind)
		assert.Equal(t, "-125", tx.Amount.String())
		assert.Equal(t, "grocery *store", tx.DescriptionRaw)
		assert.Equal(t, "GROCERY STORE", tx.DescriptionCleaned)
		assert.Equal(t, "GROCERY STORE", tx.MerchantName)
		assert.Equal(t, ownerID, tx.OwnerID)
		assert.Equal(t, accountID, tx.AccountID)
		assert.Equal(t, batchID, tx.UploadBatchID)
		assert.InDelta(t, 0.9, tx.ParserConfidence, 1e-9)
		require.NotEqual(t, uuid.Nil, tx.ID)
	})

	t.Run("positive amount is a credit", func(t *testing.T) {
		tx := Normalize(parser.ParsedTransaction{
			Date:        date,
			Description: "PAYROLL",
			Amount:      decimal.RequireFromString("125.00"),
		}, ownerID, accountID, batchID)

		assert.Equal(t, repository.KindCredit, tx.Kind)
	})

	t.Run("zero amount is a credit", func(t *testing.T) {
		tx := Normalize(parser.ParsedTransaction{
			Date:        date,
			Description: "ADJUSTMENT",
			Amount:      decimal.Zero,
		}, ownerID, accountID, batchID)

		assert.Equal(t, repository.KindCredit, tx.Kind)
	})
}
