// Package outbox persists pending events next to the state change that
// produced them, so a draw and its round-drawn event commit or abort
// together. A relay worker drains unpublished entries to Kafka.
package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"drawcore/internal/events"
	txcontext "drawcore/pkg/platform/tx"

	"github.com/google/uuid"
)

// PostgresStore writes outbox entries to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed outbox store.
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

func (s *PostgresStore) Append(ctx context.Context, entry *events.Entry) error {
	if entry == nil {
		return fmt.Errorf("outbox entry is required")
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		entry.ID,
		entry.AggregateType,
		entry.AggregateID,
		entry.EventType,
		entry.Payload,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListUnpublished returns pending entries oldest first.
func (s *PostgresStore) ListUnpublished(ctx context.Context, limit int) ([]*events.Entry, error) {
	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list unpublished outbox entries: %w", err)
	}
	defer rows.Close()

	var out []*events.Entry
	for rows.Next() {
		var entry events.Entry
		err := rows.Scan(
			&entry.ID,
			&entry.AggregateType,
			&entry.AggregateID,
			&entry.EventType,
			&entry.Payload,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		out = append(out, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return out, nil
}

// MarkPublished stamps an entry as relayed. Idempotent.
func (s *PostgresStore) MarkPublished(ctx context.Context, entryID uuid.UUID) error {
	query := `UPDATE outbox SET published_at = $2 WHERE id = $1 AND published_at IS NULL`
	if _, err := s.execer(ctx).ExecContext(ctx, query, entryID, time.Now()); err != nil {
		return fmt.Errorf("mark outbox entry published: %w", err)
	}
	return nil
}
