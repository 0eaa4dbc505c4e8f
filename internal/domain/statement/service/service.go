// Package service drives the ingestion pipeline end to end for one uploaded
// statement file: batch record, account resolution, and the per-record
// normalize -> dedup -> categorize -> persist loop.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/backoffice/internal/domain/statement/categorizer"
	"github.com/FACorreiaa/backoffice/internal/domain/statement/dedup"
	"github.com/FACorreiaa/backoffice/internal/domain/statement/normalizer"
	"github.com/FACorreiaa/backoffice/internal/domain/statement/parser"
	"github.com/FACorreiaa/backoffice/internal/domain/statement/repository"
	"github.com/FACorreiaa/backoffice/pkg/money"
	"github.com/FACorreiaa/backoffice/pkg/storage"
)

// TransactionProcessingError wraps any failure while handling a single
// record. It is recorded on the batch and skipped, never fatal.
type TransactionProcessingError struct {
	Row int
	Err error
}

func (e *TransactionProcessingError) Error() string {
	return fmt.Sprintf("transaction %d: %v", e.Row, e.Err)
}

func (e *TransactionProcessingError) Unwrap() error { return e.Err }

// Service is the ingestion orchestrator. One Ingest call handles one file;
// concurrent calls for different files are safe, with account find-or-create
// races left to the store's create semantics.
type Service struct {
	store    repository.Store
	parser   *parser.Parser
	detector *dedup.Detector
	archive  storage.Storage // optional audit copy of the raw upload
	logger   *slog.Logger

	guessInstitution InstitutionGuesser
	guessAccountType AccountTypeGuesser
}

// NewService creates the orchestrator with the default guess heuristics.
func NewService(store repository.Store, p *parser.Parser, detector *dedup.Detector, logger *slog.Logger) *Service {
	return &Service{
		store:            store,
		parser:           p,
		detector:         detector,
		logger:           logger,
		guessInstitution: GuessInstitution,
		guessAccountType: GuessAccountType,
	}
}

// WithArchive enables archiving of uploaded files before parsing. Archive
// failures are warnings, never fatal.
func (s *Service) WithArchive(archive storage.Storage) *Service {
	s.archive = archive
	return s
}

// WithGuessers overrides the institution and account-type heuristics.
func (s *Service) WithGuessers(institution InstitutionGuesser, accountType AccountTypeGuesser) *Service {
	s.guessInstitution = institution
	s.guessAccountType = accountType
	return s
}

// batchState accumulates outcomes for one run so the continue-on-error
// invariant is structural: row failures land in buckets, they never abort.
type batchState struct {
	total      int
	processed  int
	failed     int
	duplicates int
	errors     []string
	warnings   []string

	autoCategorized int
	confidenceSum   float64
	lastDate        time.Time
}

// Ingest processes one uploaded file for one owner. File-level failures
// finalize the batch as failed and are returned; row-level failures are
// recorded on the batch, which is always the source of truth for the
// outcome.
func (s *Service) Ingest(ctx context.Context, fileBytes []byte, fileName, mimeType string, ownerID uuid.UUID) (*repository.UploadBatch, error) {
	batch := &repository.UploadBatch{
		OwnerID:  ownerID,
		FileName: fileName,
		Status:   repository.BatchProcessing,
	}
	if err := s.store.CreateUploadBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("create upload batch: %w", err)
	}

	state := &batchState{}

	if s.archive != nil {
		if _, err := s.archive.Upload(ctx, ownerID, fileName, mimeType, bytes.NewReader(fileBytes)); err != nil {
			s.logger.Warn("failed to archive statement", "file", fileName, "error", err)
			state.warnings = append(state.warnings, fmt.Sprintf("archive failed: %v", err))
		}
	}

	result, err := s.parser.Parse(ctx, fileBytes, fileName, mimeType)
	if err != nil {
		s.finalize(ctx, batch.ID, repository.BatchFailed, state, err.Error())
		return s.loadBatch(ctx, batch.ID, batch), err
	}
	state.total = len(result.Transactions)
	if result.SkippedRows > 0 {
		s.logger.Info("dropped unusable rows at parse boundary",
			"file", fileName, "skipped", result.SkippedRows)
	}

	account, err := s.resolveAccount(ctx, ownerID, fileName)
	if err != nil {
		s.finalize(ctx, batch.ID, repository.BatchFailed, state, fmt.Sprintf("resolve account: %v", err))
		return s.loadBatch(ctx, batch.ID, batch), err
	}

	cat := s.buildCategorizer(ctx, ownerID, state)

	for i, parsed := range result.Transactions {
		s.processRecord(ctx, i, parsed, ownerID, account.ID, batch.ID, cat, state)
	}

	s.finalize(ctx, batch.ID, repository.BatchCompleted, state, "")

	if state.processed > 0 {
		if err := s.store.UpdateAccountActivity(ctx, account.ID, state.processed, state.lastDate); err != nil {
			s.logger.Warn("failed to update account activity", "account", account.ID, "error", err)
		}
	}

	return s.loadBatch(ctx, batch.ID, batch), nil
}

// processRecord runs one parsed transaction through the pipeline. Any
// failure is recorded and the loop continues; no retry, no abort.
func (s *Service) processRecord(
	ctx context.Context,
	row int,
	parsed parser.ParsedTransaction,
	ownerID, accountID, batchID uuid.UUID,
	cat *categorizer.Categorizer,
	state *batchState,
) {
	tx := normalizer.Normalize(parsed, ownerID, accountID, batchID)

	match, err := s.detector.Check(ctx, &tx)
	if err != nil {
		var checkErr *dedup.DuplicateCheckFailure
		if errors.As(err, &checkErr) {
			state.warnings = append(state.warnings, checkErr.Error())
		}
		// Treated as "not a duplicate"; proceed.
	}
	if match != nil {
		state.duplicates++
		rowsDuplicate.Inc()
		state.warnings = append(state.warnings, fmt.Sprintf(
			"skipped duplicate of %s: %s %s on %s",
			match.ExistingID,
			tx.DescriptionCleaned,
			money.Display(tx.Amount, "USD"),
			tx.Date.Format("2006-01-02"),
		))
		return
	}

	var catResult *categorizer.Result
	if cat != nil {
		if catResult = cat.Categorize(&tx); catResult != nil {
			id := catResult.CategoryID
			conf := catResult.Confidence
			tx.CategoryID = &id
			tx.CategoryConfidence = &conf
		}
	}

	if err := s.store.SaveTransaction(ctx, &tx); err != nil {
		procErr := &TransactionProcessingError{Row: row + 1, Err: err}
		state.failed++
		rowsFailed.Inc()
		state.errors = append(state.errors, procErr.Error())
		return
	}

	state.processed++
	rowsProcessed.Inc()
	if tx.Date.After(state.lastDate) {
		state.lastDate = tx.Date
	}

	if catResult != nil {
		state.autoCategorized++
		state.confidenceSum += catResult.Confidence
		if err := s.store.IncrementCategoryUsage(ctx, catResult.CategoryID, tx.Amount); err != nil {
			// The transaction is already persisted; a stale counter is a
			// warning, not a record failure.
			s.logger.Warn("failed to increment category usage", "category", catResult.CategoryID, "error", err)
			state.warnings = append(state.warnings, fmt.Sprintf("category usage update failed: %v", err))
		}
	}
}

// resolveAccount reuses an existing account whose stored institution guess
// overlaps the new file's guess in either direction, creating one lazily
// otherwise.
func (s *Service) resolveAccount(ctx context.Context, ownerID uuid.UUID, fileName string) (*repository.Account, error) {
	institution := s.guessInstitution(fileName)

	accounts, err := s.store.ListAccounts(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	guess := strings.ToLower(institution)
	for i := range accounts {
		stored := strings.ToLower(accounts[i].InstitutionGuess)
		if stored == "" {
			continue
		}
		if strings.Contains(stored, guess) || strings.Contains(guess, stored) {
			return &accounts[i], nil
		}
	}

	account := &repository.Account{
		OwnerID:          ownerID,
		DisplayName:      institution,
		InstitutionGuess: institution,
		AccountType:      s.guessAccountType(fileName),
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	s.logger.Info("created account", "owner", ownerID, "institution", institution, "type", account.AccountType)
	return account, nil
}

// buildCategorizer loads the owner's rules. Categorization is best-effort:
// a rule-load failure degrades to uncategorized output with a warning.
func (s *Service) buildCategorizer(ctx context.Context, ownerID uuid.UUID, state *batchState) *categorizer.Categorizer {
	rules, err := s.store.ListCategoryRules(ctx, ownerID)
	if err != nil {
		s.logger.Warn("failed to load category rules, skipping categorization", "owner", ownerID, "error", err)
		state.warnings = append(state.warnings, fmt.Sprintf("category rules unavailable: %v", err))
		return nil
	}
	if len(rules) == 0 {
		return nil
	}
	return categorizer.New(rules)
}

// finalize transitions the batch to its terminal status exactly once and
// writes the aggregated counters. A failed finalize is logged; the ingestion
// outcome itself does not change.
func (s *Service) finalize(ctx context.Context, batchID uuid.UUID, status repository.BatchStatus, state *batchState, fatalMsg string) {
	errs := state.errors
	if fatalMsg != "" {
		errs = append(errs, fatalMsg)
	}

	var summary *repository.CategorizationSummary
	if status == repository.BatchCompleted {
		mean := 0.0
		if state.processed > 0 {
			mean = state.confidenceSum / float64(state.processed)
		}
		summary = &repository.CategorizationSummary{
			AutoCategorized: state.autoCategorized,
			NeedsReview:     state.processed - state.autoCategorized,
			MeanConfidence:  mean,
		}
		batchesCompleted.Inc()
	} else {
		batchesFailed.Inc()
	}

	patch := repository.BatchPatch{
		Status:                &status,
		TotalTransactions:     &state.total,
		ProcessedTransactions: &state.processed,
		FailedTransactions:    &state.failed,
		DuplicateCount:        &state.duplicates,
		Errors:                errs,
		Warnings:              state.warnings,
		Summary:               summary,
	}
	if err := s.store.UpdateUploadBatch(ctx, batchID, patch); err != nil {
		s.logger.Error("failed to finalize upload batch", "batch", batchID, "status", status, "error", err)
	}
}

// loadBatch refreshes the batch record for the caller, falling back to the
// local copy if the read fails.
func (s *Service) loadBatch(ctx context.Context, id uuid.UUID, fallback *repository.UploadBatch) *repository.UploadBatch {
	batch, err := s.store.GetUploadBatch(ctx, id)
	if err != nil {
		s.logger.Warn("failed to reload upload batch", "batch", id, "error", err)
		return fallback
	}
	return batch
}
