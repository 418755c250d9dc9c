// Package events defines the outbox entries and event payloads this core
// emits to external collaborators. Events are written to the outbox inside
// the transaction that caused them and relayed to Kafka by a worker, so a
// crash between commit and publish loses nothing.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"drawcore/internal/round/models"
)

// TypeRoundDrawn identifies the round-drawn event; it doubles as the Kafka
// topic name.
const TypeRoundDrawn = "lottery.round.drawn"

// Entry is one outbox row awaiting relay.
type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// RoundDrawn is published once per round when the draw completes. The proof
// carries the fully disclosed entropy so consumers (audit included) can
// recompute the winning number.
type RoundDrawn struct {
	RoundID       string           `json:"roundId"`
	ProductID     string           `json:"productId"`
	RoundNumber   int64            `json:"roundNumber"`
	WinningNumber int64            `json:"winningNumber"`
	WinnerUserID  string           `json:"winnerUserId"`
	Proof         models.DrawProof `json:"proof"`
	DrawTime      time.Time        `json:"drawTime"`
}

// NewRoundDrawnEntry builds the outbox entry for a completed draw.
func NewRoundDrawnEntry(round *models.Round, result *models.DrawResult) (*Entry, error) {
	payload, err := json.Marshal(RoundDrawn{
		RoundID:       round.ID.String(),
		ProductID:     round.ProductID.String(),
		RoundNumber:   round.RoundNumber,
		WinningNumber: result.WinningNumber,
		WinnerUserID:  result.WinnerUserID.String(),
		Proof:         result.Proof,
		DrawTime:      result.DrawTime,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal round drawn payload: %w", err)
	}
	return &Entry{
		ID:            uuid.New(),
		AggregateType: "round",
		AggregateID:   round.ID.String(),
		EventType:     TypeRoundDrawn,
		Payload:       payload,
		CreatedAt:     result.DrawTime,
	}, nil
}
