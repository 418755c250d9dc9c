// Package models holds the round and participation records owned by the
// lottery core.
package models

import (
	"time"

	id "drawcore/pkg/domain"
)

// RoundStatus is the lifecycle state of a round.
// Transitions are strictly open -> full -> drawn; a round never skips full.
type RoundStatus string

const (
	RoundOpen  RoundStatus = "open"
	RoundFull  RoundStatus = "full"
	RoundDrawn RoundStatus = "drawn"
)

// IsValid checks if the status is one of the supported enum values.
func (s RoundStatus) IsValid() bool {
	switch s {
	case RoundOpen, RoundFull, RoundDrawn:
		return true
	}
	return false
}

func (s RoundStatus) String() string { return string(s) }

// DefaultBaseNumber is the share-number base assigned to new rounds unless
// the catalog supplies another. Share numbers are eight digits so they read
// as ticket numbers, not indices.
const DefaultBaseNumber = 10000001

// Round is the authoritative record of one product sale in fixed shares.
//
// Invariants:
//   - TotalShares is positive and immutable after creation.
//   - 0 <= SoldShares <= TotalShares; SoldShares is monotonically
//     non-decreasing while the round is open.
//   - SoldShares == TotalShares exactly when Status is full or drawn.
//   - WinningNumber, WinnerUserID, Proof, and DrawTime are nil until the
//     round is drawn, then set exactly once and immutable.
type Round struct {
	ID            id.RoundID
	ProductID     id.ProductID
	RoundNumber   int64
	TotalShares   int64
	SoldShares    int64
	BaseNumber    int64
	PricePerShare int64
	Status        RoundStatus
	Frozen        bool
	WinningNumber *int64
	WinnerUserID  *id.UserID
	Proof         *DrawProof
	DrawTime      *time.Time
	CreatedAt     time.Time
}

// RemainingShares returns how many shares are still unsold.
func (r *Round) RemainingShares() int64 {
	return r.TotalShares - r.SoldShares
}

// Participation is one buyer's block of share numbers in a round. Numbers
// are contiguous, assigned at allocation time, and disjoint from every other
// participation in the same round. IsWinner is the only field mutated after
// creation, once, when the round is drawn.
type Participation struct {
	ID            id.ParticipationID
	RoundID       id.RoundID
	UserID        id.UserID
	Numbers       []int64
	SharesCount   int64
	Cost          int64
	FundingSource id.FundingSource
	IsWinner      bool
	CreatedAt     time.Time
}

// ContainsNumber reports whether the participation owns the given share
// number. Numbers are contiguous so this is a range check.
func (p *Participation) ContainsNumber(n int64) bool {
	if len(p.Numbers) == 0 {
		return false
	}
	return n >= p.Numbers[0] && n <= p.Numbers[len(p.Numbers)-1]
}

// Reservation is the outcome of an atomic capacity reservation on a round.
type Reservation struct {
	FirstNumber   int64
	SharesCount   int64
	NewSoldShares int64
	// BecameFull is true for exactly the one reservation whose increment
	// filled the round.
	BecameFull bool
}

// Numbers expands the reserved contiguous block.
func (r Reservation) Numbers() []int64 {
	nums := make([]int64, r.SharesCount)
	for i := range nums {
		nums[i] = r.FirstNumber + int64(i)
	}
	return nums
}

// DrawProof is the fairness proof published with a drawn round. Given the
// final participation list and this proof, any third party can recompute the
// winning number. SystemEntropy is secret only until the draw completes,
// then disclosed in full so the computation is reproducible.
type DrawProof struct {
	ParticipationHash string `json:"participationHash"`
	ProductHash       string `json:"productHash"`
	SystemEntropy     string `json:"systemEntropy"`
	FinalSeed         string `json:"finalSeed"`
	Version           string `json:"version"`
	WinningNumber     int64  `json:"winningNumber"`
}

// DrawResult is the resolved outcome of a draw, recorded once per round.
type DrawResult struct {
	WinningNumber        int64
	WinnerUserID         id.UserID
	WinnerParticipation  id.ParticipationID
	Proof                DrawProof
	DrawTime             time.Time
}

// AllocationResult is returned to the buyer after a successful allocation.
type AllocationResult struct {
	Participation *Participation
	Cost          int64
	BecameFull    bool
}
