package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"drawcore/internal/events"
	"drawcore/internal/events/outbox"
	"drawcore/internal/round/models"
	id "drawcore/pkg/domain"
)

type capturedRecord struct {
	topic   string
	key     string
	payload []byte
}

// capturingPublisher records publishes and can be told to fail specific keys.
type capturingPublisher struct {
	mu       sync.Mutex
	records  []capturedRecord
	failKeys map[string]error
}

func (p *capturingPublisher) Publish(_ context.Context, topic, key string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.failKeys[key]; ok {
		return err
	}
	p.records = append(p.records, capturedRecord{topic: topic, key: key, payload: append([]byte(nil), payload...)})
	return nil
}

func (p *capturingPublisher) published() []capturedRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]capturedRecord(nil), p.records...)
}

type RelaySuite struct {
	suite.Suite
	ctx       context.Context
	store     *outbox.MemoryStore
	publisher *capturingPublisher
	relay     *Relay
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = outbox.NewMemory()
	s.publisher = &capturingPublisher{failKeys: map[string]error{}}
	s.relay = New(s.store, s.publisher)
}

func (s *RelaySuite) appendDrawnEntry() *events.Entry {
	round := &models.Round{
		ID:          id.NewRoundID(),
		ProductID:   id.NewProductID(),
		RoundNumber: 7,
		TotalShares: 10,
		SoldShares:  10,
		BaseNumber:  models.DefaultBaseNumber,
		Status:      models.RoundDrawn,
	}
	result := &models.DrawResult{
		WinningNumber: models.DefaultBaseNumber + 3,
		WinnerUserID:  id.NewUserID(),
		DrawTime:      time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
	}
	entry, err := events.NewRoundDrawnEntry(round, result)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Append(s.ctx, entry))
	return entry
}

func (s *RelaySuite) TestDrainPublishesAndMarks() {
	first := s.appendDrawnEntry()
	second := s.appendDrawnEntry()

	s.Require().NoError(s.relay.Drain(s.ctx))

	records := s.publisher.published()
	s.Require().Len(records, 2)
	s.Equal(events.TypeRoundDrawn, records[0].topic)
	s.Equal(first.AggregateID, records[0].key)
	s.Equal(second.AggregateID, records[1].key)

	var payload events.RoundDrawn
	s.Require().NoError(json.Unmarshal(records[0].payload, &payload))
	s.Equal(first.AggregateID, payload.RoundID)
	s.Equal(int64(models.DefaultBaseNumber+3), payload.WinningNumber)

	pending, err := s.store.ListUnpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending, "drained entries stay marked published")
}

func (s *RelaySuite) TestDrainIsIdempotent() {
	s.appendDrawnEntry()

	s.Require().NoError(s.relay.Drain(s.ctx))
	s.Require().NoError(s.relay.Drain(s.ctx))

	s.Len(s.publisher.published(), 1, "a published entry is not re-sent")
}

func (s *RelaySuite) TestPublishFailureLeavesEntryPending() {
	failing := s.appendDrawnEntry()
	healthy := s.appendDrawnEntry()
	s.publisher.failKeys[failing.AggregateID] = errors.New("broker unavailable")

	s.Require().NoError(s.relay.Drain(s.ctx))

	records := s.publisher.published()
	s.Require().Len(records, 1, "the failure does not block the rest of the batch")
	s.Equal(healthy.AggregateID, records[0].key)

	pending, err := s.store.ListUnpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(failing.ID, pending[0].ID)

	// Broker recovers; the next drain delivers the held-back entry.
	delete(s.publisher.failKeys, failing.AggregateID)
	s.Require().NoError(s.relay.Drain(s.ctx))
	s.Len(s.publisher.published(), 2)

	pending, err = s.store.ListUnpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *RelaySuite) TestRunStopsOnContextCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	relay := New(s.store, s.publisher, WithInterval(5*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	s.appendDrawnEntry()
	s.Eventually(func() bool { return len(s.publisher.published()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		s.Fail("relay did not stop after cancel")
	}
}
