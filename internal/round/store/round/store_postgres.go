package round

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"drawcore/internal/round/models"
	id "drawcore/pkg/domain"
	"drawcore/pkg/platform/sentinel"
	txcontext "drawcore/pkg/platform/tx"
)

// PostgresStore persists rounds in PostgreSQL. Reserve and the status
// transitions are each one conditional UPDATE: the database row is the
// compare-and-swap cell, so concurrent writers serialize on it and a lost
// condition surfaces as zero rows affected. Naive read-then-write is exactly
// the oversell bug this store exists to rule out.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed round store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, round *models.Round) error {
	createdAt := round.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	query := `
		INSERT INTO rounds (id, product_id, round_number, total_shares, sold_shares,
		                    base_number, price_per_share, status, frozen, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(round.ID),
		uuid.UUID(round.ProductID),
		round.RoundNumber,
		round.TotalShares,
		round.SoldShares,
		round.BaseNumber,
		round.PricePerShare,
		string(round.Status),
		round.Frozen,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("create round: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, roundID id.RoundID) (*models.Round, error) {
	query := `
		SELECT id, product_id, round_number, total_shares, sold_shares, base_number,
		       price_per_share, status, frozen, winning_number, winner_user_id,
		       draw_proof, draw_time, created_at
		FROM rounds
		WHERE id = $1
	`
	return scanRound(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(roundID)))
}

// Reserve increments sold_shares as a single conditional write. Two
// concurrent calls whose combined total would exceed capacity can never both
// match the WHERE clause.
func (s *PostgresStore) Reserve(ctx context.Context, roundID id.RoundID, requested int64) (*models.Reservation, error) {
	query := `
		UPDATE rounds
		SET sold_shares = sold_shares + $2
		WHERE id = $1
		  AND status = 'open'
		  AND frozen = FALSE
		  AND sold_shares + $2 <= total_shares
		RETURNING base_number, sold_shares, total_shares
	`
	var baseNumber, newSold, total int64
	err := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(roundID), requested).
		Scan(&baseNumber, &newSold, &total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.classifyReserveFailure(ctx, roundID)
		}
		return nil, fmt.Errorf("reserve shares: %w", err)
	}
	return &models.Reservation{
		FirstNumber:   baseNumber + newSold - requested,
		SharesCount:   requested,
		NewSoldShares: newSold,
		BecameFull:    newSold == total,
	}, nil
}

// classifyReserveFailure re-reads the round to tell the caller why the
// conditional update matched nothing.
func (s *PostgresStore) classifyReserveFailure(ctx context.Context, roundID id.RoundID) error {
	round, err := s.Get(ctx, roundID)
	if err != nil {
		return err
	}
	switch {
	case round.Frozen:
		return sentinel.ErrFrozen
	case round.Status != models.RoundOpen:
		return sentinel.ErrInvalidState
	default:
		return sentinel.ErrCapacity
	}
}

func (s *PostgresStore) MarkFull(ctx context.Context, roundID id.RoundID) error {
	query := `
		UPDATE rounds
		SET status = 'full'
		WHERE id = $1
		  AND status = 'open'
		  AND sold_shares = total_shares
	`
	result, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(roundID))
	if err != nil {
		return fmt.Errorf("mark round full: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark full rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	round, err := s.Get(ctx, roundID)
	if err != nil {
		return err
	}
	if round.Status == models.RoundFull || round.Status == models.RoundDrawn {
		// Already applied; retries are a no-op.
		return nil
	}
	return sentinel.ErrInvalidState
}

func (s *PostgresStore) MarkDrawn(ctx context.Context, roundID id.RoundID, drawResult *models.DrawResult) error {
	proof, err := json.Marshal(drawResult.Proof)
	if err != nil {
		return fmt.Errorf("marshal draw proof: %w", err)
	}
	query := `
		UPDATE rounds
		SET status = 'drawn',
		    winning_number = $2,
		    winner_user_id = $3,
		    draw_proof = $4,
		    draw_time = $5
		WHERE id = $1
		  AND status = 'full'
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(roundID),
		drawResult.WinningNumber,
		uuid.UUID(drawResult.WinnerUserID),
		proof,
		drawResult.DrawTime,
	)
	if err != nil {
		return fmt.Errorf("mark round drawn: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark drawn rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	round, err := s.Get(ctx, roundID)
	if err != nil {
		return err
	}
	if round.Status == models.RoundDrawn {
		// Draws are not repeatable; the caller must serve the stored result.
		return sentinel.ErrConflict
	}
	return sentinel.ErrInvalidState
}

// CloseAtCurrentSales truncates an open round's capacity to what has been
// sold, the precondition for a forced partial draw. Requires at least one
// sold share; the administrative path refuses to draw an empty round.
func (s *PostgresStore) CloseAtCurrentSales(ctx context.Context, roundID id.RoundID) error {
	query := `
		UPDATE rounds
		SET total_shares = sold_shares
		WHERE id = $1
		  AND status = 'open'
		  AND frozen = FALSE
		  AND sold_shares >= 1
	`
	result, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(roundID))
	if err != nil {
		return fmt.Errorf("close round at current sales: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("close rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	round, err := s.Get(ctx, roundID)
	if err != nil {
		return err
	}
	if round.Frozen {
		return sentinel.ErrFrozen
	}
	return sentinel.ErrInvalidState
}

func (s *PostgresStore) ListFullUndrawn(ctx context.Context, limit int) ([]*models.Round, error) {
	query := `
		SELECT id, product_id, round_number, total_shares, sold_shares, base_number,
		       price_per_share, status, frozen, winning_number, winner_user_id,
		       draw_proof, draw_time, created_at
		FROM rounds
		WHERE status = 'full'
		  AND frozen = FALSE
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list full undrawn rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*models.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate full undrawn rounds: %w", err)
	}
	return rounds, nil
}

func (s *PostgresStore) Freeze(ctx context.Context, roundID id.RoundID, reason string) error {
	query := `
		UPDATE rounds
		SET frozen = TRUE, frozen_reason = $2
		WHERE id = $1
	`
	result, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(roundID), reason)
	if err != nil {
		return fmt.Errorf("freeze round: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("freeze rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRound(row rowScanner) (*models.Round, error) {
	var (
		round         models.Round
		roundID       uuid.UUID
		productID     uuid.UUID
		status        string
		winningNumber sql.NullInt64
		winnerUserID  uuid.NullUUID
		proofRaw      []byte
		drawTime      sql.NullTime
	)
	err := row.Scan(
		&roundID,
		&productID,
		&round.RoundNumber,
		&round.TotalShares,
		&round.SoldShares,
		&round.BaseNumber,
		&round.PricePerShare,
		&status,
		&round.Frozen,
		&winningNumber,
		&winnerUserID,
		&proofRaw,
		&drawTime,
		&round.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan round: %w", err)
	}
	round.ID = id.RoundID(roundID)
	round.ProductID = id.ProductID(productID)
	round.Status = models.RoundStatus(status)
	if winningNumber.Valid {
		n := winningNumber.Int64
		round.WinningNumber = &n
	}
	if winnerUserID.Valid {
		w := id.UserID(winnerUserID.UUID)
		round.WinnerUserID = &w
	}
	if len(proofRaw) > 0 {
		var proof models.DrawProof
		if err := json.Unmarshal(proofRaw, &proof); err != nil {
			return nil, fmt.Errorf("unmarshal draw proof: %w", err)
		}
		round.Proof = &proof
	}
	if drawTime.Valid {
		t := drawTime.Time
		round.DrawTime = &t
	}
	return &round, nil
}
