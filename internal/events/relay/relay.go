// Package relay drains the transactional outbox to the event publisher.
package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"drawcore/internal/events"
)

// Store is the slice of the outbox the relay needs.
type Store interface {
	ListUnpublished(ctx context.Context, limit int) ([]*events.Entry, error)
	MarkPublished(ctx context.Context, entryID uuid.UUID) error
}

// Publisher delivers one entry payload. The aggregate ID keys the record so
// events for one round stay ordered within a partition.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

const (
	defaultInterval  = 2 * time.Second
	defaultBatchSize = 50
)

// Relay polls the outbox and publishes pending entries. Delivery is
// at-least-once: an entry is marked published only after the producer
// acknowledges, so a crash in between re-publishes, never drops.
type Relay struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// Option configures the Relay.
type Option func(*Relay)

// WithLogger sets a logger for relay failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

// WithInterval overrides the polling interval.
func WithInterval(interval time.Duration) Option {
	return func(r *Relay) { r.interval = interval }
}

// New constructs a relay over the given store and publisher.
func New(store Store, publisher Publisher, opts ...Option) *Relay {
	r := &Relay{
		store:     store,
		publisher: publisher,
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until the context is cancelled. Publish failures are logged and
// retried on the next tick; they never stop the loop.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil && r.logger != nil {
				r.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// Drain publishes one batch of pending entries. Exported so tests and the
// lifecycle controller can flush without waiting for a tick.
func (r *Relay) Drain(ctx context.Context) error {
	entries, err := r.store.ListUnpublished(ctx, r.batchSize)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := r.publisher.Publish(ctx, entry.EventType, entry.AggregateID, entry.Payload); err != nil {
			if r.logger != nil {
				r.logger.ErrorContext(ctx, "publish outbox entry failed",
					"entry_id", entry.ID,
					"event_type", entry.EventType,
					"error", err,
				)
			}
			// Leave the entry pending; the next drain retries it.
			continue
		}
		if err := r.store.MarkPublished(ctx, entry.ID); err != nil {
			return err
		}
	}
	return nil
}
