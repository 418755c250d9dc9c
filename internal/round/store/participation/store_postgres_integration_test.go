//go:build integration

package participation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"drawcore/internal/round/models"
	"drawcore/internal/round/store/participation"
	roundstore "drawcore/internal/round/store/round"
	id "drawcore/pkg/domain"
	"drawcore/pkg/platform/sentinel"
	"drawcore/pkg/testutil/containers"
)

type PostgresParticipationSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *participation.PostgresStore
	rounds   *roundstore.PostgresStore
	roundID  id.RoundID
}

func TestPostgresParticipationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresParticipationSuite))
}

func (s *PostgresParticipationSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = participation.NewPostgres(s.postgres.DB)
	s.rounds = roundstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresParticipationSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))

	round := &models.Round{
		ID:            id.NewRoundID(),
		ProductID:     id.NewProductID(),
		RoundNumber:   1,
		TotalShares:   10,
		BaseNumber:    models.DefaultBaseNumber,
		PricePerShare: 1,
		Status:        models.RoundOpen,
		CreatedAt:     time.Now().UTC(),
	}
	s.Require().NoError(s.rounds.Create(ctx, round))
	s.roundID = round.ID
}

func (s *PostgresParticipationSuite) newParticipation(firstNumber, shares int64, createdAt time.Time) *models.Participation {
	numbers := make([]int64, shares)
	for i := range numbers {
		numbers[i] = firstNumber + int64(i)
	}
	return &models.Participation{
		ID:            id.NewParticipationID(),
		RoundID:       s.roundID,
		UserID:        id.NewUserID(),
		Numbers:       numbers,
		SharesCount:   shares,
		Cost:          shares,
		FundingSource: id.FundingPaid,
		CreatedAt:     createdAt,
	}
}

func (s *PostgresParticipationSuite) TestCreateAndListPreservesNumbers() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	first := s.newParticipation(models.DefaultBaseNumber, 3, base.Add(-time.Second))
	second := s.newParticipation(models.DefaultBaseNumber+3, 2, base)
	second.FundingSource = id.FundingFree
	second.Cost = 0

	s.Require().NoError(s.store.Create(ctx, first))
	s.Require().NoError(s.store.Create(ctx, second))

	listed, err := s.store.ListByRound(ctx, s.roundID)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)

	s.Equal(first.ID, listed[0].ID, "oldest first")
	s.Equal([]int64{models.DefaultBaseNumber, models.DefaultBaseNumber + 1, models.DefaultBaseNumber + 2}, listed[0].Numbers)
	s.Equal(id.FundingPaid, listed[0].FundingSource)

	s.Equal(second.ID, listed[1].ID)
	s.Equal([]int64{models.DefaultBaseNumber + 3, models.DefaultBaseNumber + 4}, listed[1].Numbers)
	s.Equal(id.FundingFree, listed[1].FundingSource)
	s.Zero(listed[1].Cost)
}

func (s *PostgresParticipationSuite) TestListOtherRoundIsEmpty() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newParticipation(models.DefaultBaseNumber, 1, time.Now().UTC())))

	listed, err := s.store.ListByRound(ctx, id.NewRoundID())
	s.Require().NoError(err)
	s.Empty(listed)
}

func (s *PostgresParticipationSuite) TestMarkWinner() {
	ctx := context.Background()
	p := s.newParticipation(models.DefaultBaseNumber, 2, time.Now().UTC())
	s.Require().NoError(s.store.Create(ctx, p))

	s.Require().NoError(s.store.MarkWinner(ctx, p.ID))

	listed, err := s.store.ListByRound(ctx, s.roundID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.True(listed[0].IsWinner)

	err = s.store.MarkWinner(ctx, id.NewParticipationID())
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}
