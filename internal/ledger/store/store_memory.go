package store

import (
	"context"
	"sync"
	"time"

	"drawcore/internal/ledger"
	id "drawcore/pkg/domain"
	"drawcore/pkg/platform/sentinel"
)

// MemoryStore is an in-memory ledger store. It enforces the same optimistic
// version check as the postgres store, so service tests exercise the real
// conflict path.
type MemoryStore struct {
	mu           sync.Mutex
	views        map[id.UserID]*ledger.View
	transactions []*ledger.TransactionRecord
}

// NewMemory constructs an empty in-memory ledger store.
func NewMemory() *MemoryStore {
	return &MemoryStore{views: make(map[id.UserID]*ledger.View)}
}

// Put seeds or replaces a user's ledger view. Test and wiring helper; the
// account collaborator owns creation in production.
func (s *MemoryStore) Put(view ledger.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := view
	s.views[view.UserID] = &copied
}

func (s *MemoryStore) GetView(_ context.Context, userID id.UserID) (*ledger.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, ok := s.views[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *view
	return &copied, nil
}

func (s *MemoryStore) DebitBalance(_ context.Context, userID id.UserID, amount int64, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, ok := s.views[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if view.BalanceVersion != expectedVersion || view.SpendableBalance < amount {
		return sentinel.ErrConflict
	}
	view.SpendableBalance -= amount
	view.BalanceVersion++
	return nil
}

func (s *MemoryStore) DebitFreeQuota(_ context.Context, userID id.UserID, shares int64, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, ok := s.views[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if view.QuotaVersion != expectedVersion || view.FreeQuotaRemaining < shares {
		return sentinel.ErrConflict
	}
	view.FreeQuotaRemaining -= shares
	view.QuotaVersion++
	return nil
}

func (s *MemoryStore) AppendTransaction(_ context.Context, record *ledger.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *record
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	s.transactions = append(s.transactions, &copied)
	return nil
}

// Credit adds coins to a user's balance. Account-collaborator seam.
func (s *MemoryStore) Credit(_ context.Context, userID id.UserID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, ok := s.views[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	view.SpendableBalance += amount
	view.BalanceVersion++
	return nil
}

// ResetFreeQuota sets a user's free quota. Account-collaborator seam; the
// reset schedule (daily, fixed timezone in the source system) lives there.
func (s *MemoryStore) ResetFreeQuota(_ context.Context, userID id.UserID, quota int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, ok := s.views[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	view.FreeQuotaRemaining = quota
	view.QuotaVersion++
	return nil
}

// Snapshot captures the store's state and returns a function that restores
// it. The memory transaction runner calls it to undo failed transactions.
func (s *MemoryStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make(map[id.UserID]*ledger.View, len(s.views))
	for userID, view := range s.views {
		copied := *view
		views[userID] = &copied
	}
	transactions := make([]*ledger.TransactionRecord, len(s.transactions))
	for i, record := range s.transactions {
		copied := *record
		transactions[i] = &copied
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.views = views
		s.transactions = transactions
	}
}

// TransactionsByUser lists recorded ledger movements for a user, oldest
// first. Test helper.
func (s *MemoryStore) TransactionsByUser(userID id.UserID) []*ledger.TransactionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*ledger.TransactionRecord
	for _, record := range s.transactions {
		if record.UserID == userID {
			copied := *record
			out = append(out, &copied)
		}
	}
	return out
}
