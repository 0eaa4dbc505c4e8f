// Package normalizer converts parsed transactions into the canonical
// store-ready shape: ISO date, sign-typed amount, cleaned description, and a
// best-effort merchant guess.
package normalizer

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/backoffice/internal/domain/statement/parser"
	"github.com/FACorreiaa/backoffice/internal/domain/statement/repository"
)

var (
	asteriskRun   = regexp.MustCompile(`\*+`)
	whitespaceRun = regexp.MustCompile(`\s+`)
	leadingDigits = regexp.MustCompile(`^\d+\s*`)

	maskedCardToken = regexp.MustCompile(`^[X#*]+\d{2,4}$`)
	shortDateToken  = regexp.MustCompile(`^\d{1,2}/\d{1,2}$`)
	pureDigits      = regexp.MustCompile(`^\d+$`)
)

var typeKeywords = map[string]bool{
	"DEBIT": true, "CREDIT": true, "PURCHASE": true, "PAYMENT": true,
	"TRANSFER": true, "DEPOSIT": true, "WITHDRAWAL": true,
}

var stopWords = map[string]bool{
	"THE": true, "AND": true, "OF": true, "FOR": true, "TO": true, "FROM": true,
}

// Normalize converts one parsed transaction into the canonical shape. A
// non-negative amount is a credit, negative a debit.
func Normalize(tx parser.ParsedTransaction, ownerID, accountID, batchID uuid.UUID) repository.Transaction {
	kind := repository.KindCredit
	if tx.Amount.IsNegative() {
		kind = repository.KindDebit
	}

	cleaned := CleanDescription(tx.Description)

	return repository.Transaction{
		ID:                 uuid.New(),
		OwnerID:            ownerID,
		AccountID:          accountID,
		UploadBatchID:      batchID,
		Date:               tx.Date,
		Amount:             tx.Amount,
		Kind:               kind,
		DescriptionRaw:     tx.Description,
		DescriptionCleaned: cleaned,
		MerchantName:       ExtractMerchant(cleaned),
		ParserConfidence:   tx.Confidence,
	}
}

// CleanDescription strips repeated asterisks, collapses whitespace runs,
// drops a leading run of digits, trims, and upper-cases.
func CleanDescription(raw string) string {
	s := asteriskRun.ReplaceAllString(raw, " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = leadingDigits.ReplaceAllString(s, "")
	return strings.ToUpper(strings.TrimSpace(s))
}

// ExtractMerchant guesses the merchant from a cleaned description. It drops
// transaction-type keywords, masked card tokens, and short date tokens, then
// keeps up to the first three substantial tokens. When only noise remains the
// guess is empty, never fabricated.
func ExtractMerchant(cleaned string) string {
	var kept []string
	for _, token := range strings.Fields(cleaned) {
		if typeKeywords[token] || maskedCardToken.MatchString(token) || shortDateToken.MatchString(token) {
			continue
		}
		if len(token) <= 2 || pureDigits.MatchString(token) || stopWords[token] {
			continue
		}
		kept = append(kept, token)
		if len(kept) == 3 {
			break
		}
	}
	return strings.Join(kept, " ")
}
