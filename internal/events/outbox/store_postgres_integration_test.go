//go:build integration

package outbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"drawcore/internal/events"
	"drawcore/internal/events/outbox"
	"drawcore/pkg/testutil/containers"
)

type PostgresOutboxSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *outbox.PostgresStore
}

func TestPostgresOutboxSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresOutboxSuite))
}

func (s *PostgresOutboxSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = outbox.NewPostgres(s.postgres.DB)
}

func (s *PostgresOutboxSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func (s *PostgresOutboxSuite) newEntry(createdAt time.Time) *events.Entry {
	return &events.Entry{
		ID:            uuid.New(),
		AggregateType: "round",
		AggregateID:   uuid.NewString(),
		EventType:     events.TypeRoundDrawn,
		Payload:       []byte(`{"roundId":"x"}`),
		CreatedAt:     createdAt,
	}
}

func (s *PostgresOutboxSuite) TestAppendAndDrainOrder() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	older := s.newEntry(base.Add(-time.Second))
	newer := s.newEntry(base)
	s.Require().NoError(s.store.Append(ctx, newer))
	s.Require().NoError(s.store.Append(ctx, older))

	pending, err := s.store.ListUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(older.ID, pending[0].ID, "oldest first regardless of insert order")
	s.Equal(newer.ID, pending[1].ID)
	s.JSONEq(string(older.Payload), string(pending[0].Payload))

	s.Require().NoError(s.store.MarkPublished(ctx, older.ID))

	pending, err = s.store.ListUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(newer.ID, pending[0].ID)
}

func (s *PostgresOutboxSuite) TestMarkPublishedIsIdempotent() {
	ctx := context.Background()
	entry := s.newEntry(time.Now().UTC())
	s.Require().NoError(s.store.Append(ctx, entry))

	s.Require().NoError(s.store.MarkPublished(ctx, entry.ID))
	s.Require().NoError(s.store.MarkPublished(ctx, entry.ID))

	pending, err := s.store.ListUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *PostgresOutboxSuite) TestListRespectsLimit() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 5; i++ {
		s.Require().NoError(s.store.Append(ctx, s.newEntry(base.Add(time.Duration(i)*time.Millisecond))))
	}

	pending, err := s.store.ListUnpublished(ctx, 3)
	s.Require().NoError(err)
	s.Len(pending, 3)
}
