package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"drawcore/internal/events"
	"drawcore/internal/ledger"
	"drawcore/internal/round/models"
	id "drawcore/pkg/domain"
	dErrors "drawcore/pkg/domain-errors"
	"drawcore/pkg/platform/sentinel"
	"drawcore/pkg/requestcontext"
)

// DrawRound resolves a full round into a drawn one. It is idempotent: if a
// result is already recorded (including by a concurrent caller) the stored
// result is returned and nothing is written twice, in particular no second
// event. A detected invariant violation freezes the round instead of drawing.
func (s *Service) DrawRound(ctx context.Context, roundID id.RoundID) (*models.DrawResult, error) {
	ctx, span := s.tracer.Start(ctx, "service.DrawRound")
	defer span.End()

	if roundID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "round id is required")
	}

	start := time.Now()
	result, err := s.drawTx(ctx, roundID, false)
	switch {
	case err == nil:
		s.invalidate(ctx, roundID)
		s.metrics.ObserveDraw(time.Since(start).Seconds())
		s.log().InfoContext(ctx, "round drawn",
			"round_id", roundID,
			"winning_number", result.WinningNumber,
			"winner_user_id", result.WinnerUserID,
		)
		return result, nil
	case errors.Is(err, errLostDrawRace):
		// Another caller recorded the result first; serve theirs.
		return s.storedResult(ctx, roundID)
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		s.freeze(ctx, roundID, err.Error())
		s.metrics.IncDrawFailure("invariant_violation")
		return nil, err
	case dErrors.HasCode(err, dErrors.CodeEntropyUnavailable):
		s.metrics.IncDrawFailure("entropy_unavailable")
		return nil, err
	default:
		s.metrics.IncDrawFailure("error")
		return nil, err
	}
}

// ForceDraw is the operator override for a stuck round. With allowPartial it
// first truncates capacity to the shares already sold, so the draw still runs
// over a full round and every sold number keeps an equal chance. Without it,
// a round that is not full is refused.
func (s *Service) ForceDraw(ctx context.Context, roundID id.RoundID, allowPartial bool) (*models.DrawResult, error) {
	ctx, span := s.tracer.Start(ctx, "service.ForceDraw")
	defer span.End()

	if roundID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "round id is required")
	}

	start := time.Now()
	result, err := s.drawTx(ctx, roundID, allowPartial)
	switch {
	case err == nil:
		s.invalidate(ctx, roundID)
		s.metrics.ObserveDraw(time.Since(start).Seconds())
		s.log().InfoContext(ctx, "round force-drawn",
			"round_id", roundID,
			"winning_number", result.WinningNumber,
			"partial", allowPartial,
			"actor", requestcontext.UserID(ctx),
		)
		return result, nil
	case errors.Is(err, errLostDrawRace):
		return s.storedResult(ctx, roundID)
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		s.freeze(ctx, roundID, err.Error())
		s.metrics.IncDrawFailure("invariant_violation")
		return nil, err
	default:
		s.metrics.IncDrawFailure("error")
		return nil, err
	}
}

// errLostDrawRace marks a MarkDrawn that lost to a concurrent draw; the
// transaction is rolled back and the caller serves the stored result.
var errLostDrawRace = errors.New("draw result already recorded")

func (s *Service) drawTx(ctx context.Context, roundID id.RoundID, allowPartial bool) (*models.DrawResult, error) {
	var result *models.DrawResult

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		round, err := s.rounds.Get(ctx, roundID)
		if err != nil {
			return translateStoreErr(err, "get round")
		}
		if round.Frozen {
			return dErrors.New(dErrors.CodeRoundFrozen, "round is frozen pending investigation")
		}
		switch round.Status {
		case models.RoundDrawn:
			return errLostDrawRace
		case models.RoundOpen:
			if !allowPartial {
				return dErrors.New(dErrors.CodeConflict, "round is not full")
			}
			if round.SoldShares < 1 {
				return dErrors.New(dErrors.CodeConflict, "round has no participations to draw from")
			}
			if err := s.rounds.CloseAtCurrentSales(ctx, roundID); err != nil {
				return translateStoreErr(err, "close round at current sales")
			}
			if err := s.rounds.MarkFull(ctx, roundID); err != nil {
				return translateStoreErr(err, "mark round full")
			}
			round.TotalShares = round.SoldShares
			round.Status = models.RoundFull
		}

		participations, err := s.participations.ListByRound(ctx, roundID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "list participations")
		}

		result, err = s.engine.Compute(ctx, round, participations)
		if err != nil {
			return err
		}

		if err := s.rounds.MarkDrawn(ctx, roundID, result); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return errLostDrawRace
			}
			return translateStoreErr(err, "mark round drawn")
		}
		if err := s.participations.MarkWinner(ctx, result.WinnerParticipation); err != nil {
			return translateStoreErr(err, "mark winner")
		}

		if err := s.ledger.AppendTransaction(ctx, &ledger.TransactionRecord{
			ID:          uuid.New(),
			UserID:      result.WinnerUserID,
			Kind:        ledger.TxnWin,
			Amount:      0,
			Description: fmt.Sprintf("won round %s with number %d", roundID, result.WinningNumber),
			CreatedAt:   result.DrawTime,
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "append win transaction")
		}

		entry, err := events.NewRoundDrawnEntry(round, result)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "build drawn event")
		}
		if err := s.outbox.Append(ctx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "append outbox entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// storedResult rebuilds the DrawResult of an already-drawn round.
func (s *Service) storedResult(ctx context.Context, roundID id.RoundID) (*models.DrawResult, error) {
	round, err := s.rounds.Get(ctx, roundID)
	if err != nil {
		return nil, translateStoreErr(err, "get round")
	}
	if round.Status != models.RoundDrawn || round.WinningNumber == nil || round.WinnerUserID == nil || round.Proof == nil || round.DrawTime == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "round reported drawn without a recorded result")
	}
	result := &models.DrawResult{
		WinningNumber: *round.WinningNumber,
		WinnerUserID:  *round.WinnerUserID,
		Proof:         *round.Proof,
		DrawTime:      *round.DrawTime,
	}
	participations, err := s.participations.ListByRound(ctx, roundID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list participations")
	}
	for _, p := range participations {
		if p.IsWinner {
			result.WinnerParticipation = p.ID
			break
		}
	}
	return result, nil
}

// freeze quarantines a round after a detected invariant violation. It runs
// outside the draw transaction so the freeze survives the rollback.
func (s *Service) freeze(ctx context.Context, roundID id.RoundID, reason string) {
	if err := s.rounds.Freeze(ctx, roundID, reason); err != nil {
		s.log().ErrorContext(ctx, "failed to freeze round", "round_id", roundID, "error", err)
		return
	}
	s.invalidate(ctx, roundID)
	s.metrics.IncRoundFrozen()
	s.log().WarnContext(ctx, "round frozen", "round_id", roundID, "reason", reason)
}

// RunSweeper draws full rounds until ctx is cancelled. It wakes on the
// became-full signal for low latency and on a ticker as the catch-all, so a
// round filled during downtime is still drawn.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case roundID := <-s.fullSignal:
			s.sweepOne(ctx, roundID)
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep draws every full undrawn round, one batch at a time.
func (s *Service) Sweep(ctx context.Context) {
	rounds, err := s.rounds.ListFullUndrawn(ctx, sweepBatchSize)
	if err != nil {
		s.log().ErrorContext(ctx, "sweep: list full rounds", "error", err)
		return
	}
	for _, round := range rounds {
		s.sweepOne(ctx, round.ID)
	}
}

func (s *Service) sweepOne(ctx context.Context, roundID id.RoundID) {
	if _, err := s.DrawRound(ctx, roundID); err != nil {
		s.log().ErrorContext(ctx, "sweep: draw round", "round_id", roundID, "error", err)
	}
}
