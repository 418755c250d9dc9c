package round

import (
	"context"
	"sort"
	"sync"
	"time"

	"drawcore/internal/round/models"
	id "drawcore/pkg/domain"
	"drawcore/pkg/platform/sentinel"
)

// MemoryStore keeps rounds in memory behind one mutex, giving Reserve the
// same compare-and-update atomicity the postgres store gets from a
// conditional UPDATE. Used by unit tests and standalone wiring.
type MemoryStore struct {
	mu      sync.Mutex
	rounds  map[id.RoundID]*models.Round
	reasons map[id.RoundID]string
}

// NewMemory constructs an empty in-memory round store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		rounds:  make(map[id.RoundID]*models.Round),
		reasons: make(map[id.RoundID]string),
	}
}

func (s *MemoryStore) Create(_ context.Context, round *models.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rounds[round.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *round
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	s.rounds[round.ID] = &copied
	return nil
}

func (s *MemoryStore) Get(_ context.Context, roundID id.RoundID) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	round, ok := s.rounds[roundID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyRound(round), nil
}

func (s *MemoryStore) Reserve(_ context.Context, roundID id.RoundID, requested int64) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	round, ok := s.rounds[roundID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if round.Frozen {
		return nil, sentinel.ErrFrozen
	}
	if round.Status != models.RoundOpen {
		return nil, sentinel.ErrInvalidState
	}
	if round.SoldShares+requested > round.TotalShares {
		return nil, sentinel.ErrCapacity
	}

	first := round.BaseNumber + round.SoldShares
	round.SoldShares += requested
	return &models.Reservation{
		FirstNumber:   first,
		SharesCount:   requested,
		NewSoldShares: round.SoldShares,
		BecameFull:    round.SoldShares == round.TotalShares,
	}, nil
}

func (s *MemoryStore) MarkFull(_ context.Context, roundID id.RoundID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	round, ok := s.rounds[roundID]
	if !ok {
		return sentinel.ErrNotFound
	}
	switch round.Status {
	case models.RoundFull, models.RoundDrawn:
		// Already applied; retries are a no-op.
		return nil
	}
	if round.SoldShares != round.TotalShares {
		return sentinel.ErrInvalidState
	}
	round.Status = models.RoundFull
	return nil
}

func (s *MemoryStore) MarkDrawn(_ context.Context, roundID id.RoundID, result *models.DrawResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	round, ok := s.rounds[roundID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if round.Status == models.RoundDrawn {
		// Draws are not repeatable; the caller must serve the stored result.
		return sentinel.ErrConflict
	}
	if round.Status != models.RoundFull {
		return sentinel.ErrInvalidState
	}
	winningNumber := result.WinningNumber
	winner := result.WinnerUserID
	proof := result.Proof
	drawTime := result.DrawTime
	round.Status = models.RoundDrawn
	round.WinningNumber = &winningNumber
	round.WinnerUserID = &winner
	round.Proof = &proof
	round.DrawTime = &drawTime
	return nil
}

// CloseAtCurrentSales truncates an open round's capacity to what has been
// sold, the precondition for a forced partial draw. Requires at least one
// sold share; the administrative path refuses to draw an empty round.
func (s *MemoryStore) CloseAtCurrentSales(_ context.Context, roundID id.RoundID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	round, ok := s.rounds[roundID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if round.Frozen {
		return sentinel.ErrFrozen
	}
	if round.Status != models.RoundOpen || round.SoldShares < 1 {
		return sentinel.ErrInvalidState
	}
	round.TotalShares = round.SoldShares
	return nil
}

func (s *MemoryStore) ListFullUndrawn(_ context.Context, limit int) ([]*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var full []*models.Round
	for _, round := range s.rounds {
		if round.Status == models.RoundFull && !round.Frozen {
			full = append(full, copyRound(round))
		}
	}
	sort.Slice(full, func(i, j int) bool { return full[i].CreatedAt.Before(full[j].CreatedAt) })
	if limit > 0 && len(full) > limit {
		full = full[:limit]
	}
	return full, nil
}

func (s *MemoryStore) Freeze(_ context.Context, roundID id.RoundID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	round, ok := s.rounds[roundID]
	if !ok {
		return sentinel.ErrNotFound
	}
	round.Frozen = true
	s.reasons[roundID] = reason
	return nil
}

// Snapshot captures the store's state and returns a function that restores
// it. The memory transaction runner calls it to undo failed transactions.
func (s *MemoryStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	rounds := make(map[id.RoundID]*models.Round, len(s.rounds))
	for roundID, round := range s.rounds {
		rounds[roundID] = copyRound(round)
	}
	reasons := make(map[id.RoundID]string, len(s.reasons))
	for roundID, reason := range s.reasons {
		reasons[roundID] = reason
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.rounds = rounds
		s.reasons = reasons
	}
}

// FrozenReason returns the reason a round was frozen. Test helper.
func (s *MemoryStore) FrozenReason(roundID id.RoundID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reasons[roundID]
}

func copyRound(round *models.Round) *models.Round {
	copied := *round
	if round.WinningNumber != nil {
		n := *round.WinningNumber
		copied.WinningNumber = &n
	}
	if round.WinnerUserID != nil {
		w := *round.WinnerUserID
		copied.WinnerUserID = &w
	}
	if round.Proof != nil {
		p := *round.Proof
		copied.Proof = &p
	}
	if round.DrawTime != nil {
		t := *round.DrawTime
		copied.DrawTime = &t
	}
	return &copied
}
