//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"drawcore/internal/round/cache"
	"drawcore/internal/round/models"
	id "drawcore/pkg/domain"
	"drawcore/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.RedisStatusCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.cache = cache.NewRedisStatusCache(s.redis.Client)
}

func (s *RedisCacheSuite) sampleRound() *models.Round {
	winningNumber := int64(models.DefaultBaseNumber + 2)
	winner := id.NewUserID()
	drawTime := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return &models.Round{
		ID:            id.NewRoundID(),
		ProductID:     id.NewProductID(),
		RoundNumber:   3,
		TotalShares:   10,
		SoldShares:    10,
		BaseNumber:    models.DefaultBaseNumber,
		PricePerShare: 2,
		Status:        models.RoundDrawn,
		WinningNumber: &winningNumber,
		WinnerUserID:  &winner,
		Proof: &models.DrawProof{
			ParticipationHash: "aaaa",
			SystemEntropy:     "bbbb",
			FinalSeed:         "cccc",
			Version:           "2.0-secure",
			WinningNumber:     winningNumber,
		},
		DrawTime:  &drawTime,
		CreatedAt: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (s *RedisCacheSuite) TestRoundTrip() {
	ctx := context.Background()
	round := s.sampleRound()

	_, hit := s.cache.Get(ctx, round.ID)
	s.False(hit, "empty cache misses")

	s.cache.Set(ctx, round)

	cached, hit := s.cache.Get(ctx, round.ID)
	s.Require().True(hit)
	s.Equal(round.ID, cached.ID)
	s.Equal(round.Status, cached.Status)
	s.Require().NotNil(cached.WinningNumber)
	s.Equal(*round.WinningNumber, *cached.WinningNumber)
	s.Require().NotNil(cached.Proof)
	s.Equal(round.Proof.FinalSeed, cached.Proof.FinalSeed)
	s.True(round.DrawTime.Equal(*cached.DrawTime))
}

func (s *RedisCacheSuite) TestInvalidate() {
	ctx := context.Background()
	round := s.sampleRound()

	s.cache.Set(ctx, round)
	s.cache.Invalidate(ctx, round.ID)

	_, hit := s.cache.Get(ctx, round.ID)
	s.False(hit)
}

func (s *RedisCacheSuite) TestEntriesExpire() {
	ctx := context.Background()
	round := s.sampleRound()

	short := cache.NewRedisStatusCache(s.redis.Client, cache.WithTTL(100*time.Millisecond))
	short.Set(ctx, round)

	_, hit := short.Get(ctx, round.ID)
	s.Require().True(hit)

	s.Eventually(func() bool {
		_, hit := short.Get(ctx, round.ID)
		return !hit
	}, 2*time.Second, 50*time.Millisecond)
}

func (s *RedisCacheSuite) TestCorruptEntryDegradesToMiss() {
	ctx := context.Background()
	round := s.sampleRound()

	s.cache.Set(ctx, round)

	// Clobber the stored JSON directly; the cache must treat it as a miss
	// and drop the bad key rather than fail the read path.
	key := "round:status:" + round.ID.String()
	s.Require().NoError(s.redis.Client.Set(ctx, key, "{broken", time.Minute).Err())

	_, hit := s.cache.Get(ctx, round.ID)
	s.False(hit)

	exists, err := s.redis.Client.Exists(ctx, key).Result()
	s.Require().NoError(err)
	s.Zero(exists, "corrupt entry is evicted")
}
