package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"drawcore/internal/ledger"
	"drawcore/internal/round/models"
	id "drawcore/pkg/domain"
	dErrors "drawcore/pkg/domain-errors"
	"drawcore/pkg/platform/sentinel"
	"drawcore/pkg/requestcontext"
)

// AllocateParams are one buyer's purchase request against a round.
type AllocateParams struct {
	RoundID       id.RoundID
	UserID        id.UserID
	Shares        int64
	FundingSource id.FundingSource
}

// Allocate atomically reserves a contiguous block of share numbers, debits the
// buyer's funds, and records the participation. Every check and every write
// happens inside one transaction: on any failure the buyer keeps their money
// and the round keeps its capacity.
func (s *Service) Allocate(ctx context.Context, params AllocateParams) (*models.AllocationResult, error) {
	ctx, span := s.tracer.Start(ctx, "service.Allocate")
	defer span.End()

	if err := s.validateAllocate(params); err != nil {
		s.metrics.ObserveAllocation(params.FundingSource.String(), "rejected", 0)
		return nil, err
	}

	start := time.Now()
	var result *models.AllocationResult

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		round, err := s.rounds.Get(ctx, params.RoundID)
		if err != nil {
			return translateStoreErr(err, "get round")
		}
		if round.Frozen {
			return dErrors.New(dErrors.CodeRoundFrozen, "round is frozen pending investigation")
		}
		if round.Status != models.RoundOpen {
			return dErrors.New(dErrors.CodeRoundNotOpen, fmt.Sprintf("round is %s", round.Status))
		}

		view, err := s.ledger.GetView(ctx, params.UserID)
		if err != nil {
			return translateStoreErr(err, "get ledger view")
		}

		cost := int64(0)
		if params.FundingSource == id.FundingPaid {
			cost = params.Shares * round.PricePerShare
			if view.SpendableBalance < cost {
				return dErrors.New(dErrors.CodeInsufficientBalance,
					fmt.Sprintf("need %d coins, have %d", cost, view.SpendableBalance))
			}
		} else if view.FreeQuotaRemaining < params.Shares {
			return dErrors.New(dErrors.CodeQuotaExhausted,
				fmt.Sprintf("free quota remaining %d, requested %d", view.FreeQuotaRemaining, params.Shares))
		}

		reservation, err := s.rounds.Reserve(ctx, params.RoundID, params.Shares)
		if err != nil {
			if errors.Is(err, sentinel.ErrCapacity) {
				s.metrics.IncCapacityRejection()
			}
			return translateStoreErr(err, "reserve shares")
		}

		// The debit re-checks funds under the version read above; a
		// concurrent spend surfaces as a conflict and rolls everything back.
		if params.FundingSource == id.FundingPaid {
			err = s.ledger.DebitBalance(ctx, params.UserID, cost, view.BalanceVersion)
		} else {
			err = s.ledger.DebitFreeQuota(ctx, params.UserID, params.Shares, view.QuotaVersion)
		}
		if err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				s.metrics.IncOptimisticConflict()
			}
			return translateStoreErr(err, "debit funds")
		}

		now := requestcontext.Now(ctx)
		kind := ledger.TxnParticipation
		if params.FundingSource == id.FundingFree {
			kind = ledger.TxnFreeParticipation
		}
		if err := s.ledger.AppendTransaction(ctx, &ledger.TransactionRecord{
			ID:     uuid.New(),
			UserID: params.UserID,
			Kind:   kind,
			Amount: -cost,
			Description: fmt.Sprintf("round %s: %d share(s) %d-%d",
				params.RoundID, reservation.SharesCount,
				reservation.FirstNumber, reservation.FirstNumber+reservation.SharesCount-1),
			CreatedAt: now,
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "append ledger transaction")
		}

		participation := &models.Participation{
			ID:            id.NewParticipationID(),
			RoundID:       params.RoundID,
			UserID:        params.UserID,
			Numbers:       reservation.Numbers(),
			SharesCount:   reservation.SharesCount,
			Cost:          cost,
			FundingSource: params.FundingSource,
			CreatedAt:     now,
		}
		if err := s.participations.Create(ctx, participation); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "create participation")
		}

		if reservation.BecameFull {
			if err := s.rounds.MarkFull(ctx, params.RoundID); err != nil {
				return translateStoreErr(err, "mark round full")
			}
		}

		result = &models.AllocationResult{
			Participation: participation,
			Cost:          cost,
			BecameFull:    reservation.BecameFull,
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveAllocation(params.FundingSource.String(), "rejected", time.Since(start).Seconds())
		return nil, err
	}

	s.invalidate(ctx, params.RoundID)
	s.metrics.ObserveAllocation(params.FundingSource.String(), "ok", time.Since(start).Seconds())

	if result.BecameFull {
		select {
		case s.fullSignal <- params.RoundID:
		default:
		}
	}
	return result, nil
}

func (s *Service) validateAllocate(params AllocateParams) error {
	if params.RoundID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "round id is required")
	}
	if params.UserID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "user id is required")
	}
	if params.Shares < 1 {
		return dErrors.New(dErrors.CodeValidation, "shares must be at least 1")
	}
	if !params.FundingSource.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown funding source")
	}
	if params.FundingSource == id.FundingFree && params.Shares > s.freeShareLimit {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("free participations are capped at %d shares", s.freeShareLimit))
	}
	return nil
}
