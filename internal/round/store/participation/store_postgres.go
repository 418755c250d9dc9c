package participation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"drawcore/internal/round/models"
	id "drawcore/pkg/domain"
	"drawcore/pkg/platform/sentinel"
	txcontext "drawcore/pkg/platform/tx"
)

// PostgresStore persists participations in PostgreSQL. The numbers block is
// stored as a bigint array; disjointness across a round is guaranteed by the
// round store's atomic reservation, not re-checked here.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed participation store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, participation *models.Participation) error {
	createdAt := participation.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	query := `
		INSERT INTO participations (id, round_id, user_id, numbers, shares_count,
		                            cost, funding_source, is_winner, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(participation.ID),
		uuid.UUID(participation.RoundID),
		uuid.UUID(participation.UserID),
		pq.Array(participation.Numbers),
		participation.SharesCount,
		participation.Cost,
		participation.FundingSource.String(),
		participation.IsWinner,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("create participation: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRound(ctx context.Context, roundID id.RoundID) ([]*models.Participation, error) {
	query := `
		SELECT id, round_id, user_id, numbers, shares_count, cost, funding_source,
		       is_winner, created_at
		FROM participations
		WHERE round_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(roundID))
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	defer rows.Close()

	var out []*models.Participation
	for rows.Next() {
		var (
			participation  models.Participation
			pid, rid, user uuid.UUID
			numbers        pq.Int64Array
			funding        string
		)
		err := rows.Scan(
			&pid,
			&rid,
			&user,
			&numbers,
			&participation.SharesCount,
			&participation.Cost,
			&funding,
			&participation.IsWinner,
			&participation.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan participation: %w", err)
		}
		participation.ID = id.ParticipationID(pid)
		participation.RoundID = id.RoundID(rid)
		participation.UserID = id.UserID(user)
		participation.Numbers = []int64(numbers)
		participation.FundingSource = id.FundingSource(funding)
		out = append(out, &participation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participations: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkWinner(ctx context.Context, participationID id.ParticipationID) error {
	query := `UPDATE participations SET is_winner = TRUE WHERE id = $1`
	result, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(participationID))
	if err != nil {
		return fmt.Errorf("mark winner: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark winner rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
