package handler

import (
	"fmt"

	id "drawcore/pkg/domain"
	dErrors "drawcore/pkg/domain-errors"
)

// ParticipateRequest is the body of POST /rounds/{roundID}/participations.
type ParticipateRequest struct {
	Shares        int64  `json:"shares"`
	FundingSource string `json:"fundingSource,omitempty"`
}

func (r ParticipateRequest) Validate() error {
	if r.Shares < 1 {
		return dErrors.New(dErrors.CodeValidation, "shares must be at least 1")
	}
	if _, err := id.ParseFundingSource(r.FundingSource); err != nil {
		return err
	}
	return nil
}

// ParsedFundingSource returns the funding source; call after Validate.
func (r ParticipateRequest) ParsedFundingSource() id.FundingSource {
	source, _ := id.ParseFundingSource(r.FundingSource)
	return source
}

// CreateRoundRequest is the body of POST /admin/rounds.
type CreateRoundRequest struct {
	ProductID     string `json:"productId"`
	RoundNumber   int64  `json:"roundNumber"`
	TotalShares   int64  `json:"totalShares"`
	PricePerShare int64  `json:"pricePerShare"`
	BaseNumber    int64  `json:"baseNumber,omitempty"`
}

func (r CreateRoundRequest) Validate() error {
	if _, err := id.ParseProductID(r.ProductID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "productId")
	}
	if r.TotalShares < 1 {
		return dErrors.New(dErrors.CodeValidation, "totalShares must be at least 1")
	}
	if r.PricePerShare < 1 {
		return dErrors.New(dErrors.CodeValidation, "pricePerShare must be at least 1")
	}
	if r.BaseNumber < 0 {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("baseNumber %d is negative", r.BaseNumber))
	}
	return nil
}

// ParsedProductID returns the product ID; call after Validate.
func (r CreateRoundRequest) ParsedProductID() id.ProductID {
	productID, _ := id.ParseProductID(r.ProductID)
	return productID
}

// ForceDrawRequest is the body of POST /admin/rounds/{roundID}/draw.
type ForceDrawRequest struct {
	// AllowPartial closes the round at its current sales before drawing.
	// Without it a round that is not full is refused.
	AllowPartial bool `json:"allowPartial,omitempty"`
}
