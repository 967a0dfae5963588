package adjustment

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateTypeRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Category string `json:"category" binding:"required"`
}

type TypeResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type BatchEntryInput struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	Name       string `json:"name" binding:"required,max=120"`
	Category   string `json:"category" binding:"omitempty"`
	Amount     string `json:"amount" binding:"required"`
}

// BatchUpsertRequest replaces entries by (employee, name, period) key. A zero
// amount removes the entry.
type BatchUpsertRequest struct {
	PeriodKey string            `json:"period_key" binding:"required"`
	Entries   []BatchEntryInput `json:"entries" binding:"required,min=1,dive"`
}

type AdjustmentResponse struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Amount     string `json:"amount"`
	PeriodKey  string `json:"period_key"`
	Source     string `json:"source"`
}

type CreateRecurringRequest struct {
	EmployeeID string  `json:"employee_id" binding:"required,uuid"`
	Name       string  `json:"name" binding:"required,max=120"`
	Category   string  `json:"category" binding:"required"`
	Amount     string  `json:"amount" binding:"required"`
	Mode       string  `json:"mode" binding:"required,oneof=SPLIT 1ST 2ND"`
	MaxAmount  *string `json:"max_amount"`
	StartDate  *string `json:"start_date"`
	EndDate    *string `json:"end_date"`
}

type UpdateRecurringRequest struct {
	Amount    *string `json:"amount"`
	Mode      *string `json:"mode" binding:"omitempty,oneof=SPLIT 1ST 2ND"`
	MaxAmount *string `json:"max_amount"`
	EndDate   *string `json:"end_date"`
	Active    *bool   `json:"active"`
}

type RecurringResponse struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Amount     string  `json:"amount"`
	Mode       string  `json:"mode"`
	MaxAmount  *string `json:"max_amount,omitempty"`
	StartDate  *string `json:"start_date,omitempty"`
	EndDate    *string `json:"end_date,omitempty"`
	Active     bool    `json:"active"`
}

type ApplyRecurringRequest struct {
	Month  string `json:"month" binding:"required"`
	Cutoff string `json:"cutoff" binding:"required,oneof=A B MONTHLY"`
}

// ApplyResult summarizes one materialization pass.
type ApplyResult struct {
	PeriodKey string `json:"period_key"`
	Applied   int    `json:"applied"`
	Skipped   int    `json:"skipped"`
	Capped    int    `json:"capped"`
}

func mapTypeResponse(t AdjustmentType) TypeResponse {
	return TypeResponse{
		ID:       t.ID.String(),
		Name:     t.Name,
		Category: string(t.Category),
	}
}

func mapAdjustmentResponse(a Adjustment) AdjustmentResponse {
	return AdjustmentResponse{
		ID:         a.ID.String(),
		EmployeeID: a.EmployeeID.String(),
		Name:       a.Name,
		Category:   string(a.Category),
		Amount:     a.Amount.StringFixed(2),
		PeriodKey:  a.PeriodKey,
		Source:     a.Source,
	}
}

func mapRecurringResponse(r RecurringAdjustment) RecurringResponse {
	resp := RecurringResponse{
		ID:         r.ID.String(),
		EmployeeID: r.EmployeeID.String(),
		Name:       r.Name,
		Category:   string(r.Category),
		Amount:     r.Amount.StringFixed(2),
		Mode:       r.Mode,
		Active:     r.Active,
	}
	if r.MaxAmount != nil {
		s := r.MaxAmount.StringFixed(2)
		resp.MaxAmount = &s
	}
	if r.StartDate != nil {
		s := r.StartDate.Format("2006-01-02")
		resp.StartDate = &s
	}
	if r.EndDate != nil {
		s := r.EndDate.Format("2006-01-02")
		resp.EndDate = &s
	}
	return resp
}

func parseAmount(raw string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(raw)
	if err != nil || amount.IsNegative() {
		return decimal.Decimal{}, false
	}
	return amount, true
}

func parseDatePtr(raw *string) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}
