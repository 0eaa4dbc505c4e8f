package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore is an in-memory Store used by tests and local development.
// It is safe for concurrent use by multiple ingestion invocations.
type MemoryStore struct {
	mu           sync.RWMutex
	accounts     map[uuid.UUID]*Account
	rules        map[uuid.UUID]*CategoryRule
	transactions map[uuid.UUID]*Transaction
	batches      map[uuid.UUID]*UploadBatch

	// SaveTransactionErr, when set, makes SaveTransaction calls fail. With
	// SaveTransactionErrOn zero every call fails; otherwise only the Nth
	// call (1-based) fails. Tests use it to exercise per-record failure
	// isolation.
	SaveTransactionErr   error
	SaveTransactionErrOn int
	saveCalls            int
	// ListTransactionsErr, when set, makes the dedup window query fail.
	ListTransactionsErr error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:     make(map[uuid.UUID]*Account),
		rules:        make(map[uuid.UUID]*CategoryRule),
		transactions: make(map[uuid.UUID]*Transaction),
		batches:      make(map[uuid.UUID]*UploadBatch),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) CreateAccount(_ context.Context, acct *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acct.ID == uuid.Nil {
		acct.ID = uuid.New()
	}
	acct.CreatedAt = time.Now()
	cp := *acct
	s.accounts[acct.ID] = &cp
	return nil
}

func (s *MemoryStore) ListAccounts(_ context.Context, ownerID uuid.UUID) ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Account
	for _, a := range s.accounts {
		if a.OwnerID == ownerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateAccountActivity(_ context.Context, accountID uuid.UUID, txCount int, lastTx time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %s not found", accountID)
	}
	a.TransactionCount += txCount
	if a.LastTransaction == nil || lastTx.After(*a.LastTransaction) {
		t := lastTx
		a.LastTransaction = &t
	}
	return nil
}

func (s *MemoryStore) CreateCategoryRule(_ context.Context, rule *CategoryRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	cp := *rule
	s.rules[rule.ID] = &cp
	return nil
}

func (s *MemoryStore) ListCategoryRules(_ context.Context, ownerID uuid.UUID) ([]CategoryRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []CategoryRule
	for _, r := range s.rules {
		if r.OwnerID == ownerID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *MemoryStore) IncrementCategoryUsage(_ context.Context, categoryID uuid.UUID, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rules[categoryID]
	if !ok {
		return fmt.Errorf("category rule %s not found", categoryID)
	}
	r.UsageCount++
	r.TotalAmount = r.TotalAmount.Add(amount)
	return nil
}

func (s *MemoryStore) SaveTransaction(_ context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saveCalls++
	if s.SaveTransactionErr != nil && (s.SaveTransactionErrOn == 0 || s.saveCalls == s.SaveTransactionErrOn) {
		return s.SaveTransactionErr
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	tx.CreatedAt = time.Now()
	cp := *tx
	s.transactions[tx.ID] = &cp
	return nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, ownerID uuid.UUID, from, to time.Time) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ListTransactionsErr != nil {
		return nil, s.ListTransactionsErr
	}

	var out []Transaction
	for _, tx := range s.transactions {
		if tx.OwnerID != ownerID {
			continue
		}
		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		out = append(out, *tx)
	}
	return out, nil
}

func (s *MemoryStore) CreateUploadBatch(_ context.Context, batch *UploadBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	batch.CreatedAt = time.Now()
	cp := *batch
	s.batches[batch.ID] = &cp
	return nil
}

func (s *MemoryStore) UpdateUploadBatch(_ context.Context, id uuid.UUID, patch BatchPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[id]
	if !ok {
		return fmt.Errorf("upload batch %s not found", id)
	}
	if patch.Status != nil {
		b.Status = *patch.Status
		if *patch.Status == BatchCompleted || *patch.Status == BatchFailed {
			now := time.Now()
			b.FinishedAt = &now
		}
	}
	if patch.TotalTransactions != nil {
		b.TotalTransactions = *patch.TotalTransactions
	}
	if patch.ProcessedTransactions != nil {
		b.ProcessedTransactions = *patch.ProcessedTransactions
	}
	if patch.FailedTransactions != nil {
		b.FailedTransactions = *patch.FailedTransactions
	}
	if patch.DuplicateCount != nil {
		b.DuplicateCount = *patch.DuplicateCount
	}
	if patch.Errors != nil {
		b.Errors = append([]string(nil), patch.Errors...)
	}
	if patch.Warnings != nil {
		b.Warnings = append([]string(nil), patch.Warnings...)
	}
	if patch.Summary != nil {
		cp := *patch.Summary
		b.Summary = &cp
	}
	return nil
}

func (s *MemoryStore) GetUploadBatch(_ context.Context, id uuid.UUID) (*UploadBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.batches[id]
	if !ok {
		return nil, fmt.Errorf("upload batch %s not found", id)
	}
	cp := *b
	return &cp, nil
}

// TransactionCount reports the number of persisted transactions. Test helper.
func (s *MemoryStore) TransactionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transactions)
}
