// Package draw computes winning numbers. The engine is read-only over its
// inputs: given the recorded participation set and the disclosed entropy, the
// result is recomputable by anyone, including across process restarts. Fresh
// entropy is the single input not determinable before the round closes, which
// is what keeps the outcome unpredictable even for an observer of every
// participation.
package draw

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"drawcore/internal/entropy"
	"drawcore/internal/round/models"
	dErrors "drawcore/pkg/domain-errors"
	"drawcore/pkg/requestcontext"
)

// EntropySource yields fresh draw-time randomness. Injectable so tests can
// pin entropy or force the fail-closed path.
type EntropySource func() (string, error)

// Engine derives a round's winning number and fairness proof.
type Engine struct {
	entropySource EntropySource
	tracer        trace.Tracer
}

// Option configures the Engine.
type Option func(*Engine)

// WithEntropySource overrides the system entropy source.
func WithEntropySource(source EntropySource) Option {
	return func(e *Engine) { e.entropySource = source }
}

// NewEngine constructs a draw engine backed by crypto/rand entropy.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		entropySource: entropy.NewSystemEntropy,
		tracer:        otel.Tracer("drawcore/internal/draw"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute derives the winning number for a full round from its final
// participation set plus fresh entropy, and assembles the fairness proof.
//
// Errors: CodeEntropyUnavailable when the randomness source fails (the draw
// fails closed, never degrades to a weaker source); CodeInvariantViolation
// when the derived number belongs to no participation, which the allocation
// invariant makes impossible short of corrupted data.
func (e *Engine) Compute(ctx context.Context, round *models.Round, participations []*models.Participation) (*models.DrawResult, error) {
	_, span := e.tracer.Start(ctx, "draw.compute")
	defer span.End()

	if len(participations) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "full round has no participations")
	}

	participationHash, err := hashParticipations(participations)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash participations")
	}
	productHash, err := entropy.ProductDigest(round.ProductID.String(), entropy.SeedVersionTag)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash product context")
	}

	systemEntropy, err := e.entropySource()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeEntropyUnavailable, "entropy source failed")
	}

	result, err := derive(round, participations, participationHash, productHash, systemEntropy)
	if err != nil {
		return nil, err
	}
	result.DrawTime = requestcontext.Now(ctx)
	return result, nil
}

// derive runs the deterministic tail of the draw: seed composition, number
// derivation, winner resolution. Shared with Verify so audit recomputation
// and the live draw can never diverge.
func derive(round *models.Round, participations []*models.Participation, participationHash, productHash, systemEntropy string) (*models.DrawResult, error) {
	finalSeed, err := entropy.ComposeSeed(round.ID.String(), participationHash, productHash, systemEntropy)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "compose seed")
	}
	offset, err := entropy.WinningOffset(finalSeed, round.ID.String(), round.TotalShares)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "derive winning offset")
	}
	winningNumber := round.BaseNumber + offset

	var winner *models.Participation
	for _, participation := range participations {
		if participation.ContainsNumber(winningNumber) {
			winner = participation
			break
		}
	}
	if winner == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "winning number not covered by any participation")
	}

	return &models.DrawResult{
		WinningNumber:       winningNumber,
		WinnerUserID:        winner.UserID,
		WinnerParticipation: winner.ID,
		Proof: models.DrawProof{
			ParticipationHash: participationHash,
			ProductHash:       productHash,
			SystemEntropy:     systemEntropy,
			FinalSeed:         finalSeed,
			Version:           entropy.SeedVersionTag,
			WinningNumber:     winningNumber,
		},
	}, nil
}

func hashParticipations(participations []*models.Participation) (string, error) {
	records := make([]entropy.ParticipationRecord, len(participations))
	for i, participation := range participations {
		records[i] = entropy.NewParticipationRecord(
			participation.ID.String(),
			participation.UserID.String(),
			participation.Numbers,
			participation.Cost,
			participation.CreatedAt,
		)
	}
	return entropy.ParticipationDigest(records)
}
