package domain

import dErrors "drawcore/pkg/domain-errors"

// FundingSource identifies how a participation is paid for.
// Invariant: the value must be one of the supported sources.
//
// Usage: construct via ParseFundingSource at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type FundingSource string

const (
	// FundingPaid debits the user's spendable coin balance.
	FundingPaid FundingSource = "paid"
	// FundingFree consumes the user's free daily quota; cost is zero.
	FundingFree FundingSource = "free"
)

var validFundingSources = map[FundingSource]bool{
	FundingPaid: true,
	FundingFree: true,
}

// ParseFundingSource constructs a FundingSource from external input.
// An empty value defaults to paid, matching the participation API of the
// system this core serves.
func ParseFundingSource(s string) (FundingSource, error) {
	if s == "" {
		return FundingPaid, nil
	}
	f := FundingSource(s)
	if !f.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid funding source")
	}
	return f, nil
}

// IsValid checks if the funding source is one of the supported enum values.
func (f FundingSource) IsValid() bool {
	return validFundingSources[f]
}

// String returns the string representation of the funding source.
func (f FundingSource) String() string {
	return string(f)
}
