package draw

import (
	"drawcore/internal/round/models"
	dErrors "drawcore/pkg/domain-errors"
)

// VerificationReport is the outcome of a third-party audit recomputation.
type VerificationReport struct {
	Valid                   bool   `json:"valid"`
	ParticipationHashMatch  bool   `json:"participationHashMatch"`
	RecomputedWinningNumber int64  `json:"recomputedWinningNumber"`
	StoredWinningNumber     int64  `json:"storedWinningNumber"`
	Reason                  string `json:"reason,omitempty"`
}

// Verify recomputes a drawn round's winning number from its stored proof and
// the current participation records. A mismatch in the participation hash
// means the records were altered after the draw; a mismatch in the number
// means the stored result does not follow from the recorded inputs.
func Verify(round *models.Round, participations []*models.Participation) (*VerificationReport, error) {
	if round.Status != models.RoundDrawn || round.Proof == nil || round.WinningNumber == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "round has no draw result to verify")
	}
	proof := round.Proof

	participationHash, err := hashParticipations(participations)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash participations")
	}
	report := &VerificationReport{
		ParticipationHashMatch: participationHash == proof.ParticipationHash,
		StoredWinningNumber:    *round.WinningNumber,
	}
	if !report.ParticipationHashMatch {
		report.Reason = "participation records do not match the recorded digest"
		return report, nil
	}

	recomputed, err := derive(round, participations, proof.ParticipationHash, proof.ProductHash, proof.SystemEntropy)
	if err != nil {
		return nil, err
	}
	report.RecomputedWinningNumber = recomputed.WinningNumber
	report.Valid = recomputed.WinningNumber == *round.WinningNumber
	if !report.Valid {
		report.Reason = "recomputed winning number does not match the stored result"
	}
	return report, nil
}
