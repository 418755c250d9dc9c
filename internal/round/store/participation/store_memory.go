package participation

import (
	"context"
	"sort"
	"sync"
	"time"

	"drawcore/internal/round/models"
	id "drawcore/pkg/domain"
	"drawcore/pkg/platform/sentinel"
)

// MemoryStore keeps participations in memory. Used by unit tests and
// standalone wiring.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[id.ParticipationID]*models.Participation
	byRound map[id.RoundID][]id.ParticipationID
}

// NewMemory constructs an empty in-memory participation store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[id.ParticipationID]*models.Participation),
		byRound: make(map[id.RoundID][]id.ParticipationID),
	}
}

func (s *MemoryStore) Create(_ context.Context, participation *models.Participation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[participation.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := copyParticipation(participation)
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	s.byID[participation.ID] = copied
	s.byRound[participation.RoundID] = append(s.byRound[participation.RoundID], participation.ID)
	return nil
}

func (s *MemoryStore) ListByRound(_ context.Context, roundID id.RoundID) ([]*models.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byRound[roundID]
	out := make([]*models.Participation, 0, len(ids))
	for _, pid := range ids {
		out = append(out, copyParticipation(s.byID[pid]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Put inserts or replaces a record unconditionally, bypassing Create's
// duplicate check. Test seam for simulating corrupted data.
func (s *MemoryStore) Put(participation *models.Participation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[participation.ID]; !exists {
		s.byRound[participation.RoundID] = append(s.byRound[participation.RoundID], participation.ID)
	}
	s.byID[participation.ID] = copyParticipation(participation)
}

func (s *MemoryStore) MarkWinner(_ context.Context, participationID id.ParticipationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	participation, ok := s.byID[participationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	participation.IsWinner = true
	return nil
}

// Snapshot captures the store's state and returns a function that restores
// it. The memory transaction runner calls it to undo failed transactions.
func (s *MemoryStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[id.ParticipationID]*models.Participation, len(s.byID))
	for pid, p := range s.byID {
		byID[pid] = copyParticipation(p)
	}
	byRound := make(map[id.RoundID][]id.ParticipationID, len(s.byRound))
	for roundID, ids := range s.byRound {
		byRound[roundID] = append([]id.ParticipationID(nil), ids...)
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.byID = byID
		s.byRound = byRound
	}
}

func copyParticipation(p *models.Participation) *models.Participation {
	copied := *p
	copied.Numbers = make([]int64, len(p.Numbers))
	copy(copied.Numbers, p.Numbers)
	return &copied
}
