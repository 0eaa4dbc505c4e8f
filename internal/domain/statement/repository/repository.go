// Package repository defines the document-store interfaces and domain models
// for the statement ingestion pipeline. Implementations live alongside:
// postgres.go (pgx) and memory.go (in-memory, used by tests and local mode).
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind is derived from the sign of the canonical amount.
type TransactionKind string

const (
	KindCredit TransactionKind = "credit"
	KindDebit  TransactionKind = "debit"
)

// BatchStatus tracks an upload batch through its lifecycle.
// Transitions: uploaded -> processing -> completed | failed. Terminal states
// are never left.
type BatchStatus string

const (
	BatchUploaded   BatchStatus = "uploaded"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
)

// Transaction is the canonical, store-ready representation of one financial
// movement. Immutable after ingestion except for the category fields, which
// a user may correct later.
type Transaction struct {
	ID                 uuid.UUID
	OwnerID            uuid.UUID
	Date               time.Time // calendar date, time part zeroed
	Amount             decimal.Decimal
	Kind               TransactionKind
	DescriptionRaw     string
	DescriptionCleaned string
	MerchantName       string // best-effort guess, empty when extraction found only noise
	AccountID          uuid.UUID
	UploadBatchID      uuid.UUID
	CategoryID         *uuid.UUID
	CategoryConfidence *float64
	IsDuplicateOf      *uuid.UUID
	ParserConfidence   float64
	CreatedAt          time.Time
}

// Account represents one bank or card account, created lazily the first time
// a file for that institution is ingested.
type Account struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID
	DisplayName      string
	InstitutionGuess string
	AccountType      string // checking | savings | credit | ...
	TransactionCount int
	LastTransaction  *time.Time
	CreatedAt        time.Time
}

// CategoryRule is a user-defined matcher set consumed by the categorizer.
// Usage counters are updated as a side effect of successful categorization.
type CategoryRule struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	Name          string
	Keywords      []string
	Patterns      []string // regular expressions; a pattern that fails to compile is skipped
	MerchantRules []string
	UsageCount    int
	TotalAmount   decimal.Decimal
}

// CategorizationSummary aggregates categorization outcomes for one batch.
type CategorizationSummary struct {
	AutoCategorized int     `json:"auto_categorized"`
	NeedsReview     int     `json:"needs_review"`
	MeanConfidence  float64 `json:"mean_confidence"`
}

// UploadBatch tracks one file-processing run. It is the single source of
// truth for the outcome of an ingestion.
type UploadBatch struct {
	ID                    uuid.UUID
	OwnerID               uuid.UUID
	FileName              string
	Status                BatchStatus
	TotalTransactions     int
	ProcessedTransactions int
	FailedTransactions    int
	DuplicateCount        int
	Errors                []string
	Warnings              []string
	Summary               *CategorizationSummary
	CreatedAt             time.Time
	FinishedAt            *time.Time
}

// BatchPatch carries the fields updated when a batch is finalized or
// incrementally progressed. Nil fields are left untouched.
type BatchPatch struct {
	Status                *BatchStatus
	TotalTransactions     *int
	ProcessedTransactions *int
	FailedTransactions    *int
	DuplicateCount        *int
	Errors                []string
	Warnings              []string
	Summary               *CategorizationSummary
}

// AccountStore persists accounts. Find-or-create races between concurrent
// ingestions for the same owner are tolerated; the store's create semantics
// decide the winner.
type AccountStore interface {
	CreateAccount(ctx context.Context, acct *Account) error
	ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]Account, error)
	UpdateAccountActivity(ctx context.Context, accountID uuid.UUID, txCount int, lastTx time.Time) error
}

// CategoryRuleStore exposes the owner's rule set and the usage counters the
// pipeline increments after a persisted categorization.
type CategoryRuleStore interface {
	CreateCategoryRule(ctx context.Context, rule *CategoryRule) error
	ListCategoryRules(ctx context.Context, ownerID uuid.UUID) ([]CategoryRule, error)
	IncrementCategoryUsage(ctx context.Context, categoryID uuid.UUID, amount decimal.Decimal) error
}

// TransactionStore persists canonical transactions and serves the dedup
// window query.
type TransactionStore interface {
	SaveTransaction(ctx context.Context, tx *Transaction) error
	ListTransactions(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]Transaction, error)
}

// BatchStore persists upload batch records.
type BatchStore interface {
	CreateUploadBatch(ctx context.Context, batch *UploadBatch) error
	UpdateUploadBatch(ctx context.Context, id uuid.UUID, patch BatchPatch) error
	GetUploadBatch(ctx context.Context, id uuid.UUID) (*UploadBatch, error)
}

// Store is the full document-store surface the orchestrator depends on.
// Every call is a network call that can fail independently.
type Store interface {
	AccountStore
	CategoryRuleStore
	TransactionStore
	BatchStore
}
