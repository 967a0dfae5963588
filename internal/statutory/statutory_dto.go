package statutory

import (
	"time"

	statutoryerrors "go-payroll/internal/statutory/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateVersionRequest struct {
	Country       string `json:"country" binding:"required,len=2"`
	EffectiveFrom string `json:"effective_from" binding:"required"`
}

type BracketInput struct {
	CompensationMin string `json:"compensation_min" binding:"required"`
	CompensationMax string `json:"compensation_max"`
	EmployeeAmount  string `json:"employee_amount" binding:"required"`
	EmployerAmount  string `json:"employer_amount" binding:"required"`
}

type SetBracketsRequest struct {
	Brackets []BracketInput `json:"brackets" binding:"required,dive"`
}

type TaxBracketInput struct {
	Threshold string `json:"threshold" binding:"required"`
	BaseTax   string `json:"base_tax" binding:"required"`
	Rate      string `json:"rate" binding:"required"`
}

type SetTaxBracketsRequest struct {
	Brackets []TaxBracketInput `json:"brackets" binding:"required,dive"`
}

type VersionResponse struct {
	ID            string  `json:"id"`
	Country       string  `json:"country"`
	Status        string  `json:"status"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to,omitempty"`
	PublishedAt   *string `json:"published_at,omitempty"`
}

func mapVersionResponse(v StatutoryVersion) VersionResponse {
	resp := VersionResponse{
		ID:            v.ID.String(),
		Country:       v.Country,
		Status:        v.Status,
		EffectiveFrom: v.EffectiveFrom.Format("2006-01-02"),
	}
	if v.EffectiveTo != nil {
		s := v.EffectiveTo.Format("2006-01-02")
		resp.EffectiveTo = &s
	}
	if v.PublishedAt != nil {
		s := v.PublishedAt.Format(time.RFC3339)
		resp.PublishedAt = &s
	}
	return resp
}

func mapBracketInputs(versionID uuid.UUID, scheme string, inputs []BracketInput) ([]ContributionBracket, error) {
	brackets := make([]ContributionBracket, 0, len(inputs))
	for _, in := range inputs {
		min, err := decimal.NewFromString(in.CompensationMin)
		if err != nil {
			return nil, statutoryerrors.ErrBracketsNotContiguous
		}
		ee, err := decimal.NewFromString(in.EmployeeAmount)
		if err != nil {
			return nil, statutoryerrors.ErrBracketsNotContiguous
		}
		er, err := decimal.NewFromString(in.EmployerAmount)
		if err != nil {
			return nil, statutoryerrors.ErrBracketsNotContiguous
		}

		b := ContributionBracket{
			VersionID:       versionID,
			Scheme:          scheme,
			CompensationMin: min,
			EmployeeAmount:  ee,
			EmployerAmount:  er,
		}
		if in.CompensationMax != "" {
			max, err := decimal.NewFromString(in.CompensationMax)
			if err != nil {
				return nil, statutoryerrors.ErrBracketsNotContiguous
			}
			b.CompensationMax = &max
		}
		brackets = append(brackets, b)
	}
	return brackets, nil
}

func mapTaxBracketInputs(versionID uuid.UUID, frequency string, inputs []TaxBracketInput) ([]TaxBracket, error) {
	brackets := make([]TaxBracket, 0, len(inputs))
	for _, in := range inputs {
		threshold, err := decimal.NewFromString(in.Threshold)
		if err != nil {
			return nil, statutoryerrors.ErrEmptyTaxTable
		}
		base, err := decimal.NewFromString(in.BaseTax)
		if err != nil {
			return nil, statutoryerrors.ErrEmptyTaxTable
		}
		rate, err := decimal.NewFromString(in.Rate)
		if err != nil {
			return nil, statutoryerrors.ErrEmptyTaxTable
		}
		brackets = append(brackets, TaxBracket{
			VersionID:    versionID,
			PayFrequency: frequency,
			Threshold:    threshold,
			BaseTax:      base,
			Rate:         rate,
		})
	}
	return brackets, nil
}
