package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"drawcore/internal/events"
)

// MemoryStore is an in-memory outbox for unit tests and standalone wiring.
type MemoryStore struct {
	mu      sync.Mutex
	entries []*events.Entry
}

// NewMemory constructs an empty in-memory outbox.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, entry *events.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *entry
	copied.Payload = append([]byte(nil), entry.Payload...)
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	s.entries = append(s.entries, &copied)
	return nil
}

func (s *MemoryStore) ListUnpublished(_ context.Context, limit int) ([]*events.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*events.Entry
	for _, entry := range s.entries {
		if entry.PublishedAt == nil {
			copied := *entry
			out = append(out, &copied)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkPublished(_ context.Context, entryID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if entry.ID == entryID && entry.PublishedAt == nil {
			now := time.Now()
			entry.PublishedAt = &now
		}
	}
	return nil
}

// Snapshot captures the store's state and returns a function that restores
// it. The memory transaction runner calls it to undo failed transactions.
func (s *MemoryStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]*events.Entry, len(s.entries))
	for i, entry := range s.entries {
		copied := *entry
		copied.Payload = append([]byte(nil), entry.Payload...)
		if entry.PublishedAt != nil {
			at := *entry.PublishedAt
			copied.PublishedAt = &at
		}
		entries[i] = &copied
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.entries = entries
	}
}

// All returns every appended entry. Test helper.
func (s *MemoryStore) All() []*events.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*events.Entry, len(s.entries))
	for i, entry := range s.entries {
		copied := *entry
		out[i] = &copied
	}
	return out
}
