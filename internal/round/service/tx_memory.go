package service

import (
	"context"
	"sync"
	"time"

	dErrors "drawcore/pkg/domain-errors"
)

// defaultMemoryTxTimeout is the maximum duration of one in-memory transaction.
const defaultMemoryTxTimeout = 5 * time.Second

// Snapshotter is implemented by the in-memory stores. Snapshot captures the
// store's current state and returns a function that restores it; the memory
// transaction runner uses it to undo partial writes when a transaction fails.
type Snapshotter interface {
	Snapshot() (restore func())
}

// MemoryTxRunner serializes transactions with one coarse lock and rolls a
// failed transaction back by restoring store snapshots taken on entry. An
// allocation and a draw on the same round must not interleave, so full mutual
// exclusion is the only correct grain here. Pass every memory store a
// transaction writes to; stores not registered are not rolled back. Wire the
// database-backed runner in production.
type MemoryTxRunner struct {
	mu      sync.Mutex
	stores  []Snapshotter
	timeout time.Duration
}

// NewMemoryTxRunner creates a lock-based transaction runner over the given
// in-memory stores.
func NewMemoryTxRunner(stores ...Snapshotter) *MemoryTxRunner {
	return &MemoryTxRunner{stores: stores, timeout: defaultMemoryTxTimeout}
}

func (t *MemoryTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	restores := make([]func(), len(t.stores))
	for i, store := range t.stores {
		restores[i] = store.Snapshot()
	}

	if err := fn(ctx); err != nil {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
		return err
	}
	return nil
}
