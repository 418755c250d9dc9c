// Package ports defines the interfaces the round services depend on. Stores
// return sentinel errors (pkg/platform/sentinel), services translate them to
// coded domain errors.
package ports

import (
	"context"

	"drawcore/internal/events"
	"drawcore/internal/ledger"
	"drawcore/internal/round/models"
	id "drawcore/pkg/domain"
)

// RoundStore is the authoritative record of round capacity and status.
//
// Reserve is the crux of the no-oversell guarantee: it must be a single
// conditional write (row-level conditional increment, or compare-and-update
// under a lock) so two concurrent reservations can never jointly exceed
// TotalShares. It returns sentinel.ErrNotFound, sentinel.ErrInvalidState
// (round not open), sentinel.ErrFrozen, or sentinel.ErrCapacity.
//
// MarkFull tolerates at-least-once retries: re-applying it is a no-op.
// MarkDrawn returns sentinel.ErrConflict when a result is already recorded so
// the lifecycle controller can serve the stored result instead of re-drawing;
// its dependent writes (winner flag, event) must never follow a lost race.
// CloseAtCurrentSales truncates capacity to sold shares; it exists solely for
// the forced partial draw and keeps soldShares == totalShares equivalent to
// the full status even on that path.
type RoundStore interface {
	Create(ctx context.Context, round *models.Round) error
	Get(ctx context.Context, roundID id.RoundID) (*models.Round, error)
	Reserve(ctx context.Context, roundID id.RoundID, requested int64) (*models.Reservation, error)
	MarkFull(ctx context.Context, roundID id.RoundID) error
	MarkDrawn(ctx context.Context, roundID id.RoundID, result *models.DrawResult) error
	CloseAtCurrentSales(ctx context.Context, roundID id.RoundID) error
	ListFullUndrawn(ctx context.Context, limit int) ([]*models.Round, error)
	Freeze(ctx context.Context, roundID id.RoundID, reason string) error
}

// ParticipationStore persists buyers' number blocks.
type ParticipationStore interface {
	Create(ctx context.Context, participation *models.Participation) error
	ListByRound(ctx context.Context, roundID id.RoundID) ([]*models.Participation, error)
	MarkWinner(ctx context.Context, participationID id.ParticipationID) error
}

// LedgerStore is the seam onto the account collaborator's balance and
// free-quota records. Debits are optimistic: they carry the version read
// beforehand and return sentinel.ErrConflict if it has moved.
type LedgerStore interface {
	GetView(ctx context.Context, userID id.UserID) (*ledger.View, error)
	DebitBalance(ctx context.Context, userID id.UserID, amount int64, expectedVersion int64) error
	DebitFreeQuota(ctx context.Context, userID id.UserID, shares int64, expectedVersion int64) error
	AppendTransaction(ctx context.Context, record *ledger.TransactionRecord) error
}

// OutboxStore appends events inside the same transaction as the state change
// that caused them; a relay worker publishes them afterwards.
type OutboxStore interface {
	Append(ctx context.Context, entry *events.Entry) error
}

// TxRunner is the atomic boundary around an allocation or a draw.
// Implementations may wrap a database transaction (propagated to stores via
// pkg/platform/tx) or, in-memory, a coarse lock. An error from fn leaves no
// residue.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// StatusCache fronts GetRoundStatus reads; mutations invalidate.
// Implementations must be safe to no-op (a nil cache is allowed in wiring).
type StatusCache interface {
	Get(ctx context.Context, roundID id.RoundID) (*models.Round, bool)
	Set(ctx context.Context, round *models.Round)
	Invalidate(ctx context.Context, roundID id.RoundID)
}
