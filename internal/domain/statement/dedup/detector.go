// Package dedup decides whether a normalized transaction is a re-import of a
// record already in the owner's history.
package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/backoffice/internal/domain/statement/repository"
)

// The dedup window tolerates posting-date vs transaction-date skew between
// re-imports; amounts must agree to the cent and descriptions must be near
// identical.
const (
	WindowDays          = 2
	SimilarityThreshold = 0.8
)

var centTolerance = decimal.New(1, -2)

// DuplicateCheckFailure wraps a history-lookup error. It is reported as a
// warning and never escalated: a false negative merely keeps a possible
// duplicate, the safer default for financial data.
type DuplicateCheckFailure struct {
	Err error
}

func (e *DuplicateCheckFailure) Error() string {
	return fmt.Sprintf("duplicate check failed: %v", e.Err)
}

func (e *DuplicateCheckFailure) Unwrap() error { return e.Err }

// Detector checks candidates against the owner's transaction history.
type Detector struct {
	history repository.TransactionStore
	logger  *slog.Logger
}

// NewDetector creates a detector reading history from the given store.
func NewDetector(history repository.TransactionStore, logger *slog.Logger) *Detector {
	return &Detector{history: history, logger: logger}
}

// Match holds the existing transaction a candidate duplicates.
type Match struct {
	ExistingID uuid.UUID
	Similarity float64
}

// Check reports whether the candidate duplicates a stored transaction. It
// never fails hard: a lookup error is logged, returned as a
// DuplicateCheckFailure warning, and treated as "not a duplicate".
func (d *Detector) Check(ctx context.Context, candidate *repository.Transaction) (*Match, error) {
	from := candidate.Date.AddDate(0, 0, -WindowDays)
	to := candidate.Date.AddDate(0, 0, WindowDays)

	history, err := d.history.ListTransactions(ctx, candidate.OwnerID, from, to)
	if err != nil {
		d.logger.Warn("transaction history lookup failed, treating as not duplicate",
			"owner", candidate.OwnerID, "error", err)
		return nil, &DuplicateCheckFailure{Err: err}
	}

	for i := range history {
		existing := &history[i]
		if !withinWindow(candidate.Date, existing.Date) {
			continue
		}
		if candidate.Amount.Sub(existing.Amount).Abs().Cmp(centTolerance) >= 0 {
			continue
		}
		sim := Similarity(candidate.DescriptionRaw, existing.DescriptionRaw)
		if sim > SimilarityThreshold {
			return &Match{ExistingID: existing.ID, Similarity: sim}, nil
		}
	}
	return nil, nil
}

// Similarity scores two descriptions as 1 - editDistance/longerLength using
// classic unit-cost edit distance. Two empty strings score 1.
func Similarity(a, b string) float64 {
	longer := len([]rune(a))
	if l := len([]rune(b)); l > longer {
		longer = l
	}
	if longer == 0 {
		return 1.0
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	return 1.0 - float64(dist)/float64(longer)
}

func withinWindow(a, b time.Time) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= WindowDays*24*time.Hour
}
