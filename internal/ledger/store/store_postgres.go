package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"drawcore/internal/ledger"
	id "drawcore/pkg/domain"
	"drawcore/pkg/platform/sentinel"
	txcontext "drawcore/pkg/platform/tx"
)

// PostgresStore persists user ledger views in PostgreSQL. Debits are single
// conditional UPDATEs guarded on the version column, so a lost race surfaces
// as zero rows affected rather than a silent overwrite.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ledger store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) GetView(ctx context.Context, userID id.UserID) (*ledger.View, error) {
	query := `
		SELECT spendable_balance, balance_version, free_quota_remaining, quota_version
		FROM user_ledgers
		WHERE user_id = $1
	`
	view := ledger.View{UserID: userID}
	err := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(userID)).Scan(
		&view.SpendableBalance,
		&view.BalanceVersion,
		&view.FreeQuotaRemaining,
		&view.QuotaVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get ledger view: %w", err)
	}
	return &view, nil
}

func (s *PostgresStore) DebitBalance(ctx context.Context, userID id.UserID, amount int64, expectedVersion int64) error {
	query := `
		UPDATE user_ledgers
		SET spendable_balance = spendable_balance - $2,
		    balance_version = balance_version + 1
		WHERE user_id = $1
		  AND balance_version = $3
		  AND spendable_balance >= $2
	`
	result, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(userID), amount, expectedVersion)
	if err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}
	return s.checkDebit(ctx, userID, result)
}

func (s *PostgresStore) DebitFreeQuota(ctx context.Context, userID id.UserID, shares int64, expectedVersion int64) error {
	query := `
		UPDATE user_ledgers
		SET free_quota_remaining = free_quota_remaining - $2,
		    quota_version = quota_version + 1
		WHERE user_id = $1
		  AND quota_version = $3
		  AND free_quota_remaining >= $2
	`
	result, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(userID), shares, expectedVersion)
	if err != nil {
		return fmt.Errorf("debit free quota: %w", err)
	}
	return s.checkDebit(ctx, userID, result)
}

// checkDebit distinguishes a missing ledger row from a lost optimistic race
// when the conditional UPDATE touched nothing.
func (s *PostgresStore) checkDebit(ctx context.Context, userID id.UserID, result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	if _, err := s.GetView(ctx, userID); err != nil {
		return err
	}
	return sentinel.ErrConflict
}

func (s *PostgresStore) AppendTransaction(ctx context.Context, record *ledger.TransactionRecord) error {
	if record == nil {
		return fmt.Errorf("transaction record is required")
	}
	recordID := record.ID
	if recordID == uuid.Nil {
		recordID = uuid.New()
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	query := `
		INSERT INTO ledger_transactions (id, user_id, kind, amount, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		recordID,
		uuid.UUID(record.UserID),
		record.Kind,
		record.Amount,
		record.Description,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("append ledger transaction: %w", err)
	}
	return nil
}

// Credit adds coins to a user's balance. Account-collaborator seam.
func (s *PostgresStore) Credit(ctx context.Context, userID id.UserID, amount int64) error {
	query := `
		UPDATE user_ledgers
		SET spendable_balance = spendable_balance + $2,
		    balance_version = balance_version + 1
		WHERE user_id = $1
	`
	result, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(userID), amount)
	if err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// ResetFreeQuota sets a user's free quota. Account-collaborator seam.
func (s *PostgresStore) ResetFreeQuota(ctx context.Context, userID id.UserID, quota int64) error {
	query := `
		UPDATE user_ledgers
		SET free_quota_remaining = $2,
		    quota_version = quota_version + 1
		WHERE user_id = $1
	`
	result, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(userID), quota)
	if err != nil {
		return fmt.Errorf("reset free quota: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reset rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// CreateView inserts a fresh ledger row. Account-collaborator seam, also used
// by integration tests to seed users.
func (s *PostgresStore) CreateView(ctx context.Context, view ledger.View) error {
	query := `
		INSERT INTO user_ledgers (user_id, spendable_balance, balance_version, free_quota_remaining, quota_version)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(view.UserID),
		view.SpendableBalance,
		view.BalanceVersion,
		view.FreeQuotaRemaining,
		view.QuotaVersion,
	)
	if err != nil {
		return fmt.Errorf("create ledger view: %w", err)
	}
	return nil
}
