package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/backoffice/pkg/money"
)

// PostgresStore implements Store on top of a pgx connection pool.
// Amounts are stored as integer cents (money pattern).
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) CreateAccount(ctx context.Context, acct *Account) error {
	query := `
		INSERT INTO accounts (owner_id, display_name, institution_guess, account_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return s.db.QueryRow(ctx, query,
		acct.OwnerID,
		acct.DisplayName,
		acct.InstitutionGuess,
		acct.AccountType,
	).Scan(&acct.ID, &acct.CreatedAt)
}

func (s *PostgresStore) ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]Account, error) {
	query := `
		SELECT id, owner_id, display_name, institution_guess, account_type,
			transaction_count, last_transaction_at, created_at
		FROM accounts
		WHERE owner_id = $1
		ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(
			&a.ID,
			&a.OwnerID,
			&a.DisplayName,
			&a.InstitutionGuess,
			&a.AccountType,
			&a.TransactionCount,
			&a.LastTransaction,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *PostgresStore) UpdateAccountActivity(ctx context.Context, accountID uuid.UUID, txCount int, lastTx time.Time) error {
	query := `
		UPDATE accounts
		SET transaction_count = transaction_count + $2,
			last_transaction_at = GREATEST(COALESCE(last_transaction_at, $3), $3)
		WHERE id = $1
	`
	_, err := s.db.Exec(ctx, query, accountID, txCount, lastTx)
	return err
}

func (s *PostgresStore) CreateCategoryRule(ctx context.Context, rule *CategoryRule) error {
	query := `
		INSERT INTO category_rules (owner_id, name, keywords, patterns, merchant_rules)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return s.db.QueryRow(ctx, query,
		rule.OwnerID,
		rule.Name,
		rule.Keywords,
		rule.Patterns,
		rule.MerchantRules,
	).Scan(&rule.ID)
}

func (s *PostgresStore) ListCategoryRules(ctx context.Context, ownerID uuid.UUID) ([]CategoryRule, error) {
	query := `
		SELECT id, owner_id, name, keywords, patterns, merchant_rules, usage_count, total_amount_cents
		FROM category_rules
		WHERE owner_id = $1
		ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []CategoryRule
	for rows.Next() {
		var (
			r           CategoryRule
			amountCents int64
		)
		if err := rows.Scan(
			&r.ID,
			&r.OwnerID,
			&r.Name,
			&r.Keywords,
			&r.Patterns,
			&r.MerchantRules,
			&r.UsageCount,
			&amountCents,
		); err != nil {
			return nil, err
		}
		r.TotalAmount = money.FromCents(amountCents)
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (s *PostgresStore) IncrementCategoryUsage(ctx context.Context, categoryID uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE category_rules
		SET usage_count = usage_count + 1,
			total_amount_cents = total_amount_cents + $2
		WHERE id = $1
	`
	_, err := s.db.Exec(ctx, query, categoryID, money.ToCents(amount))
	return err
}

func (s *PostgresStore) SaveTransaction(ctx context.Context, tx *Transaction) error {
	query := `
		INSERT INTO transactions (
			owner_id, account_id, upload_batch_id, tx_date, amount_cents, kind,
			description_raw, description_cleaned, merchant_name,
			category_id, category_confidence, is_duplicate_of, parser_confidence
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`
	return s.db.QueryRow(ctx, query,
		tx.OwnerID,
		tx.AccountID,
		tx.UploadBatchID,
		tx.Date,
		money.ToCents(tx.Amount),
		string(tx.Kind),
		tx.DescriptionRaw,
		tx.DescriptionCleaned,
		tx.MerchantName,
		tx.CategoryID,
		tx.CategoryConfidence,
		tx.IsDuplicateOf,
		tx.ParserConfidence,
	).Scan(&tx.ID, &tx.CreatedAt)
}

func (s *PostgresStore) ListTransactions(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]Transaction, error) {
	query := `
		SELECT id, owner_id, account_id, upload_batch_id, tx_date, amount_cents, kind,
			description_raw, description_cleaned, merchant_name,
			category_id, category_confidence, is_duplicate_of, parser_confidence, created_at
		FROM transactions
		WHERE owner_id = $1 AND tx_date BETWEEN $2 AND $3
		ORDER BY tx_date
	`

	rows, err := s.db.Query(ctx, query, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var (
			tx          Transaction
			amountCents int64
			kind        string
		)
		if err := rows.Scan(
			&tx.ID,
			&tx.OwnerID,
			&tx.AccountID,
			&tx.UploadBatchID,
			&tx.Date,
			&amountCents,
			&kind,
			&tx.DescriptionRaw,
			&tx.DescriptionCleaned,
			&tx.MerchantName,
			&tx.CategoryID,
			&tx.CategoryConfidence,
			&tx.IsDuplicateOf,
			&tx.ParserConfidence,
			&tx.CreatedAt,
		); err != nil {
			return nil, err
		}
		tx.Amount = money.FromCents(amountCents)
		tx.Kind = TransactionKind(kind)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (s *PostgresStore) CreateUploadBatch(ctx context.Context, batch *UploadBatch) error {
	query := `
		INSERT INTO upload_batches (owner_id, file_name, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return s.db.QueryRow(ctx, query,
		batch.OwnerID,
		batch.FileName,
		string(batch.Status),
	).Scan(&batch.ID, &batch.CreatedAt)
}

func (s *PostgresStore) UpdateUploadBatch(ctx context.Context, id uuid.UUID, patch BatchPatch) error {
	// Build the patch dynamically; nil fields are left untouched.
	sets := make([]string, 0, 8)
	args := make([]interface{}, 0, 9)
	args = append(args, id)

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		add("status", string(*patch.Status))
		if *patch.Status == BatchCompleted || *patch.Status == BatchFailed {
			sets = append(sets, "finished_at = now()")
		}
	}
	if patch.TotalTransactions != nil {
		add("total_transactions", *patch.TotalTransactions)
	}
	if patch.ProcessedTransactions != nil {
		add("processed_transactions", *patch.ProcessedTransactions)
	}
	if patch.FailedTransactions != nil {
		add("failed_transactions", *patch.FailedTransactions)
	}
	if patch.DuplicateCount != nil {
		add("duplicate_count", *patch.DuplicateCount)
	}
	if patch.Errors != nil {
		add("errors", patch.Errors)
	}
	if patch.Warnings != nil {
		add("warnings", patch.Warnings)
	}
	if patch.Summary != nil {
		data, err := json.Marshal(patch.Summary)
		if err != nil {
			return fmt.Errorf("marshal categorization summary: %w", err)
		}
		add("categorization_summary", data)
	}

	if len(sets) == 0 {
		return nil
	}

	query := "UPDATE upload_batches SET "
	for i, set := range sets {
		if i > 0 {
			query += ", "
		}
		query += set
	}
	query += " WHERE id = $1"

	_, err := s.db.Exec(ctx, query, args...)
	return err
}

func (s *PostgresStore) GetUploadBatch(ctx context.Context, id uuid.UUID) (*UploadBatch, error) {
	query := `
		SELECT id, owner_id, file_name, status, total_transactions, processed_transactions,
			failed_transactions, duplicate_count, errors, warnings, categorization_summary,
			created_at, finished_at
		FROM upload_batches
		WHERE id = $1
	`

	var (
		b           UploadBatch
		status      string
		summaryJSON []byte
	)
	err := s.db.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.OwnerID,
		&b.FileName,
		&status,
		&b.TotalTransactions,
		&b.ProcessedTransactions,
		&b.FailedTransactions,
		&b.DuplicateCount,
		&b.Errors,
		&b.Warnings,
		&summaryJSON,
		&b.CreatedAt,
		&b.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Status = BatchStatus(status)

	if len(summaryJSON) > 0 {
		var summary CategorizationSummary
		if err := json.Unmarshal(summaryJSON, &summary); err != nil {
			return nil, fmt.Errorf("unmarshal categorization summary: %w", err)
		}
		b.Summary = &summary
	}
	return &b, nil
}
