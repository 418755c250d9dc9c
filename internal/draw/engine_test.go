package draw

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drawcore/internal/round/models"
	id "drawcore/pkg/domain"
	dErrors "drawcore/pkg/domain-errors"
	"drawcore/pkg/requestcontext"
)

const fixedEntropy = "0f1e2d3c4b5a69788796a5b4c3d2e1f00f1e2d3c4b5a69788796a5b4c3d2e1f0"

func fixedSource() (string, error) { return fixedEntropy, nil }

func failingSource() (string, error) { return "", errors.New("rand exhausted") }

// fullRound builds a drawn-ready round with contiguous participations
// covering every share.
func fullRound(t *testing.T, blocks []int64) (*models.Round, []*models.Participation) {
	t.Helper()

	var total int64
	for _, b := range blocks {
		total += b
	}
	round := &models.Round{
		ID:            id.NewRoundID(),
		ProductID:     id.NewProductID(),
		TotalShares:   total,
		SoldShares:    total,
		BaseNumber:    models.DefaultBaseNumber,
		PricePerShare: 1,
		Status:        models.RoundFull,
		CreatedAt:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	participations := make([]*models.Participation, 0, len(blocks))
	next := round.BaseNumber
	for i, shares := range blocks {
		numbers := make([]int64, shares)
		for j := range numbers {
			numbers[j] = next + int64(j)
		}
		next += shares
		participations = append(participations, &models.Participation{
			ID:            id.NewParticipationID(),
			RoundID:       round.ID,
			UserID:        id.NewUserID(),
			Numbers:       numbers,
			SharesCount:   shares,
			Cost:          shares,
			FundingSource: id.FundingPaid,
			CreatedAt:     round.CreatedAt.Add(time.Duration(i) * time.Second),
		})
	}
	return round, participations
}

func TestEngineCompute(t *testing.T) {
	ctx := context.Background()

	t.Run("winner owns the winning number", func(t *testing.T) {
		engine := NewEngine(WithEntropySource(fixedSource))
		round, participations := fullRound(t, []int64{3, 2, 5})

		result, err := engine.Compute(ctx, round, participations)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, result.WinningNumber, round.BaseNumber)
		assert.Less(t, result.WinningNumber, round.BaseNumber+round.TotalShares)

		var winner *models.Participation
		for _, p := range participations {
			if p.ID == result.WinnerParticipation {
				winner = p
			}
		}
		require.NotNil(t, winner)
		assert.True(t, winner.ContainsNumber(result.WinningNumber))
		assert.Equal(t, winner.UserID, result.WinnerUserID)
	})

	t.Run("deterministic given the same entropy", func(t *testing.T) {
		engine := NewEngine(WithEntropySource(fixedSource))
		round, participations := fullRound(t, []int64{4, 4, 2})

		r1, err := engine.Compute(ctx, round, participations)
		require.NoError(t, err)
		r2, err := engine.Compute(ctx, round, participations)
		require.NoError(t, err)

		assert.Equal(t, r1.WinningNumber, r2.WinningNumber)
		assert.Equal(t, r1.Proof.FinalSeed, r2.Proof.FinalSeed)
	})

	t.Run("proof discloses every seed input", func(t *testing.T) {
		engine := NewEngine(WithEntropySource(fixedSource))
		round, participations := fullRound(t, []int64{10})

		result, err := engine.Compute(ctx, round, participations)
		require.NoError(t, err)

		assert.Equal(t, fixedEntropy, result.Proof.SystemEntropy)
		assert.NotEmpty(t, result.Proof.ParticipationHash)
		assert.NotEmpty(t, result.Proof.ProductHash)
		assert.NotEmpty(t, result.Proof.FinalSeed)
		assert.Equal(t, result.WinningNumber, result.Proof.WinningNumber)
	})

	t.Run("fails closed when entropy is unavailable", func(t *testing.T) {
		engine := NewEngine(WithEntropySource(failingSource))
		round, participations := fullRound(t, []int64{5})

		_, err := engine.Compute(ctx, round, participations)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeEntropyUnavailable))
	})

	t.Run("rejects an empty participation set", func(t *testing.T) {
		engine := NewEngine(WithEntropySource(fixedSource))
		round, _ := fullRound(t, []int64{5})

		_, err := engine.Compute(ctx, round, nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("detects a coverage gap", func(t *testing.T) {
		engine := NewEngine(WithEntropySource(fixedSource))
		round, participations := fullRound(t, []int64{10})

		// Shift every number outside the drawable window to guarantee the
		// winning number lands in the gap.
		for _, p := range participations {
			for i := range p.Numbers {
				p.Numbers[i] += round.TotalShares
			}
		}

		_, err := engine.Compute(ctx, round, participations)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("uses the request-scoped clock for draw time", func(t *testing.T) {
		engine := NewEngine(WithEntropySource(fixedSource))
		round, participations := fullRound(t, []int64{2})

		at := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)
		result, err := engine.Compute(requestcontext.WithTime(ctx, at), round, participations)
		require.NoError(t, err)
		assert.Equal(t, at, result.DrawTime)
	})
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(WithEntropySource(fixedSource))

	drawnRound := func(t *testing.T, blocks []int64) (*models.Round, []*models.Participation) {
		t.Helper()
		round, participations := fullRound(t, blocks)
		result, err := engine.Compute(ctx, round, participations)
		require.NoError(t, err)

		round.Status = models.RoundDrawn
		round.WinningNumber = &result.WinningNumber
		round.WinnerUserID = &result.WinnerUserID
		round.Proof = &result.Proof
		round.DrawTime = &result.DrawTime
		return round, participations
	}

	t.Run("confirms an untampered draw", func(t *testing.T) {
		round, participations := drawnRound(t, []int64{3, 7})

		report, err := Verify(round, participations)
		require.NoError(t, err)
		assert.True(t, report.Valid)
		assert.True(t, report.ParticipationHashMatch)
		assert.Equal(t, *round.WinningNumber, report.RecomputedWinningNumber)
		assert.Empty(t, report.Reason)
	})

	t.Run("flags altered participation records", func(t *testing.T) {
		round, participations := drawnRound(t, []int64{3, 7})
		participations[0].Cost++

		report, err := Verify(round, participations)
		require.NoError(t, err)
		assert.False(t, report.Valid)
		assert.False(t, report.ParticipationHashMatch)
		assert.NotEmpty(t, report.Reason)
	})

	t.Run("flags a stored number that does not follow from the proof", func(t *testing.T) {
		round, participations := drawnRound(t, []int64{3, 7})
		tampered := *round.WinningNumber + 1
		round.WinningNumber = &tampered

		report, err := Verify(round, participations)
		require.NoError(t, err)
		assert.False(t, report.Valid)
		assert.True(t, report.ParticipationHashMatch)
		assert.NotEmpty(t, report.Reason)
	})

	t.Run("refuses a round without a result", func(t *testing.T) {
		round, participations := fullRound(t, []int64{5})
		_, err := Verify(round, participations)
		assert.Error(t, err)
	})
}
