package handler

import (
	"time"

	"drawcore/internal/round/models"
)

// RoundResponse is the public snapshot of a round. The draw fields appear
// only once the round is drawn.
type RoundResponse struct {
	ID              string            `json:"id"`
	ProductID       string            `json:"productId"`
	RoundNumber     int64             `json:"roundNumber"`
	TotalShares     int64             `json:"totalShares"`
	SoldShares      int64             `json:"soldShares"`
	RemainingShares int64             `json:"remainingShares"`
	PricePerShare   int64             `json:"pricePerShare"`
	Status          string            `json:"status"`
	WinningNumber   *int64            `json:"winningNumber,omitempty"`
	WinnerUserID    *string           `json:"winnerUserId,omitempty"`
	Proof           *models.DrawProof `json:"proof,omitempty"`
	DrawTime        *time.Time        `json:"drawTime,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// FromRound converts a round to its HTTP representation.
func FromRound(round *models.Round) *RoundResponse {
	resp := &RoundResponse{
		ID:              round.ID.String(),
		ProductID:       round.ProductID.String(),
		RoundNumber:     round.RoundNumber,
		TotalShares:     round.TotalShares,
		SoldShares:      round.SoldShares,
		RemainingShares: round.RemainingShares(),
		PricePerShare:   round.PricePerShare,
		Status:          round.Status.String(),
		WinningNumber:   round.WinningNumber,
		Proof:           round.Proof,
		DrawTime:        round.DrawTime,
		CreatedAt:       round.CreatedAt,
	}
	if round.WinnerUserID != nil {
		winner := round.WinnerUserID.String()
		resp.WinnerUserID = &winner
	}
	return resp
}

// ParticipationResponse is returned to the buyer after an allocation.
type ParticipationResponse struct {
	ID            string    `json:"id"`
	RoundID       string    `json:"roundId"`
	Numbers       []int64   `json:"numbers"`
	SharesCount   int64     `json:"sharesCount"`
	Cost          int64     `json:"cost"`
	FundingSource string    `json:"fundingSource"`
	RoundFull     bool      `json:"roundFull"`
	CreatedAt     time.Time `json:"createdAt"`
}

// FromAllocation converts an allocation result to its HTTP representation.
func FromAllocation(result *models.AllocationResult) *ParticipationResponse {
	p := result.Participation
	return &ParticipationResponse{
		ID:            p.ID.String(),
		RoundID:       p.RoundID.String(),
		Numbers:       p.Numbers,
		SharesCount:   p.SharesCount,
		Cost:          result.Cost,
		FundingSource: p.FundingSource.String(),
		RoundFull:     result.BecameFull,
		CreatedAt:     p.CreatedAt,
	}
}

// DrawResponse is returned from the admin draw endpoint.
type DrawResponse struct {
	WinningNumber int64            `json:"winningNumber"`
	WinnerUserID  string           `json:"winnerUserId"`
	Proof         models.DrawProof `json:"proof"`
	DrawTime      time.Time        `json:"drawTime"`
}

// FromDrawResult converts a draw result to its HTTP representation.
func FromDrawResult(result *models.DrawResult) *DrawResponse {
	return &DrawResponse{
		WinningNumber: result.WinningNumber,
		WinnerUserID:  result.WinnerUserID.String(),
		Proof:         result.Proof,
		DrawTime:      result.DrawTime,
	}
}
