// Package ledger models the slice of the account collaborator's records this
// core reads and conditionally writes: spendable coin balance and free daily
// quota, each guarded by a monotonically increasing version for optimistic
// concurrency. Grants, refunds, and the daily quota reset belong to the
// account service; this core only debits.
package ledger

import (
	"time"

	"github.com/google/uuid"

	id "drawcore/pkg/domain"
)

// View is a versions-included snapshot of a user's spendable funds.
type View struct {
	UserID             id.UserID
	SpendableBalance   int64
	BalanceVersion     int64
	FreeQuotaRemaining int64
	QuotaVersion       int64
}

// Transaction kinds recorded against the ledger.
const (
	TxnParticipation     = "lottery_participation"
	TxnFreeParticipation = "free_lottery_participation"
	TxnWin               = "lottery_win"
)

// TransactionRecord is an append-only entry describing a ledger movement.
type TransactionRecord struct {
	ID          uuid.UUID
	UserID      id.UserID
	Kind        string
	Amount      int64
	Description string
	CreatedAt   time.Time
}
