package categorizer

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/backoffice/internal/domain/statement/repository"
)

func tx(cleaned, merchant string) *repository.Transaction {
	return &repository.Transaction{
		DescriptionCleaned: cleaned,
		MerchantName:       merchant,
	}
}

func TestCategorizer_Categorize(t *testing.T) {
	t.Run("no rules yields nil", func(t *testing.T) {
		c := New(nil)
		assert.Nil(t, c.Categorize(tx("COFFEE SHOP", "COFFEE SHOP")))
	})

	t.Run("keyword plus pattern exactly at the floor is not enough", func(t *testing.T) {
		c := New([]repository.CategoryRule{{
			ID:       uuid.New(),
			Name:     "Dining",
			Keywords: []string{"COFFEE"},
			Patterns: []string{`SHOP`},
		}})

		// 0.3 + 0.4 = 0.7; the winner must score strictly above the floor.
		assert.Nil(t, c.Categorize(tx("COFFEE SHOP", "")))
	})

	t.Run("keyword plus merchant rule clears the floor", func(t *testing.T) {
		rule := repository.CategoryRule{
			ID:            uuid.New(),
			Name:          "Dining",
			Keywords:      []string{"COFFEE"},
			MerchantRules: []string{"STARBUCKS"},
		}
		c := New([]repository.CategoryRule{rule})

		result := c.Categorize(tx("STARBUCKS COFFEE 123", "STARBUCKS COFFEE"))

		require.NotNil(t, result)
		assert.Equal(t, rule.ID, result.CategoryID)
		assert.InDelta(t, 0.8, result.Confidence, 1e-9)
	})

	t.Run("confidence is capped at one", func(t *testing.T) {
		rule := repository.CategoryRule{
			ID:            uuid.New(),
			Name:          "Groceries",
			Keywords:      []string{"GROCERY", "MARKET"},
			Patterns:      []string{`STORE \d+`},
			MerchantRules: []string{"WHOLE FOODS"},
		}
		c := New([]repository.CategoryRule{rule})

		result := c.Categorize(tx("WHOLE FOODS MARKET GROCERY STORE 42", "WHOLE FOODS"))

		require.NotNil(t, result)
		assert.InDelta(t, 1.0, result.Confidence, 1e-9)
	})

	t.Run("three keywords and a pattern cap at one, not 1.3", func(t *testing.T) {
		rule := repository.CategoryRule{
			ID:       uuid.New(),
			Name:     "Transport",
			Keywords: []string{"UBER", "TRIP", "RIDE"},
			Patterns: []string{`TRIP \d+`},
		}
		c := New([]repository.CategoryRule{rule})

		result := c.Categorize(tx("UBER RIDE TRIP 815", ""))

		require.NotNil(t, result)
		assert.InDelta(t, 1.0, result.Confidence, 1e-9)
	})

	t.Run("a pattern matching both fields counts once", func(t *testing.T) {
		rule := repository.CategoryRule{
			ID:            uuid.New(),
			Name:          "Dining",
			MerchantRules: []string{"STARBUCKS"},
			Keywords:      []string{"COFFEE"},
		}
		c := New([]repository.CategoryRule{rule})

		// STARBUCKS appears in both fields: 0.5 once, plus 0.3 keyword.
		result := c.Categorize(tx("STARBUCKS COFFEE", "STARBUCKS"))

		require.NotNil(t, result)
		assert.InDelta(t, 0.8, result.Confidence, 1e-9)
	})

	t.Run("tie resolves to the earliest rule", func(t *testing.T) {
		first := repository.CategoryRule{ID: uuid.New(), Name: "A", MerchantRules: []string{"ACME"}, Keywords: []string{"TOOLS"}}
		second := repository.CategoryRule{ID: uuid.New(), Name: "B", MerchantRules: []string{"ACME"}, Keywords: []string{"TOOLS"}}
		c := New([]repository.CategoryRule{first, second})

		result := c.Categorize(tx("ACME TOOLS", ""))

		require.NotNil(t, result)
		assert.Equal(t, first.ID, result.CategoryID)
	})

	t.Run("higher score beats earlier rule", func(t *testing.T) {
		weak := repository.CategoryRule{ID: uuid.New(), Name: "Weak", Keywords: []string{"ACME"}, MerchantRules: []string{"NOPE"}, Patterns: []string{`TOOLS`}}
		strong := repository.CategoryRule{ID: uuid.New(), Name: "Strong", MerchantRules: []string{"ACME"}, Keywords: []string{"TOOLS"}, Patterns: []string{`ACME TOOLS`}}
		c := New([]repository.CategoryRule{weak, strong})

		result := c.Categorize(tx("ACME TOOLS", ""))

		require.NotNil(t, result)
		assert.Equal(t, strong.ID, result.CategoryID)
	})

	t.Run("invalid regex pattern is skipped", func(t *testing.T) {
		rule := repository.CategoryRule{
			ID:            uuid.New(),
			Name:          "Dining",
			Keywords:      []string{"COFFEE"},
			Patterns:      []string{`([unclosed`},
			MerchantRules: []string{"STARBUCKS"},
		}
		c := New([]repository.CategoryRule{rule})

		result := c.Categorize(tx("STARBUCKS COFFEE", ""))

		require.NotNil(t, result)
		assert.InDelta(t, 0.8, result.Confidence, 1e-9)
	})

	t.Run("no match yields nil", func(t *testing.T) {
		c := New([]repository.CategoryRule{{
			ID:       uuid.New(),
			Name:     "Dining",
			Keywords: []string{"COFFEE"},
		}})

		assert.Nil(t, c.Categorize(tx("HARDWARE STORE", "")))
	})
}
