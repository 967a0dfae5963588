package payrollrun

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type CreateRunRequest struct {
	PeriodKey string `json:"period_key" binding:"required"`
	Code      string `json:"code" binding:"required,oneof=A B MONTHLY SPECIAL"`
}

type RunResponse struct {
	ID        string `json:"id"`
	PeriodKey string `json:"period_key"`
	Code      string `json:"code"`
	Status    string `json:"status"`

	EmployeeCount  int             `json:"employee_count"`
	TotalGross     decimal.Decimal `json:"total_gross"`
	TotalNet       decimal.Decimal `json:"total_net"`
	TotalEmployer  decimal.Decimal `json:"total_employer"`
	StatutoryRefID *string         `json:"statutory_ref_id,omitempty"`

	ComputedAt *time.Time `json:"computed_at,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	PostedAt   *time.Time `json:"posted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type RowResponse struct {
	EmployeeID string `json:"employee_id"`

	BasicPay   decimal.Decimal `json:"basic_pay"`
	GrossPay   decimal.Decimal `json:"gross_pay"`
	TaxablePay decimal.Decimal `json:"taxable_pay"`
	NetPay     decimal.Decimal `json:"net_pay"`

	SSSEmployee        decimal.Decimal `json:"sss_employee"`
	SSSEmployer        decimal.Decimal `json:"sss_employer"`
	PhilHealthEmployee decimal.Decimal `json:"philhealth_employee"`
	PhilHealthEmployer decimal.Decimal `json:"philhealth_employer"`
	PagIbigEmployee    decimal.Decimal `json:"pagibig_employee"`
	PagIbigEmployer    decimal.Decimal `json:"pagibig_employer"`
	WithholdingTax     decimal.Decimal `json:"withholding_tax"`

	Components json.RawMessage `json:"components,omitempty"`
}

type RunDetailResponse struct {
	RunResponse
	Rows []RowResponse `json:"rows"`
}

func mapRunResponse(run PayrollRun) RunResponse {
	resp := RunResponse{
		ID:            run.ID.String(),
		PeriodKey:     run.PeriodKey,
		Code:          run.Code,
		Status:        run.Status,
		EmployeeCount: run.EmployeeCount,
		TotalGross:    run.TotalGross,
		TotalNet:      run.TotalNet,
		TotalEmployer: run.TotalEmployer,
		ComputedAt:    run.ComputedAt,
		ApprovedAt:    run.ApprovedAt,
		PostedAt:      run.PostedAt,
		CreatedAt:     run.CreatedAt,
	}
	if run.StatutoryRefID != nil {
		ref := run.StatutoryRefID.String()
		resp.StatutoryRefID = &ref
	}
	return resp
}

func mapRowResponse(row PayrollRow) RowResponse {
	return RowResponse{
		EmployeeID:         row.EmployeeID.String(),
		BasicPay:           row.BasicPay,
		GrossPay:           row.GrossPay,
		TaxablePay:         row.TaxablePay,
		NetPay:             row.NetPay,
		SSSEmployee:        row.SSSEmployee,
		SSSEmployer:        row.SSSEmployer,
		PhilHealthEmployee: row.PhilHealthEmployee,
		PhilHealthEmployer: row.PhilHealthEmployer,
		PagIbigEmployee:    row.PagIbigEmployee,
		PagIbigEmployer:    row.PagIbigEmployer,
		WithholdingTax:     row.WithholdingTax,
		Components:         json.RawMessage(row.Components),
	}
}

func mapRunDetailResponse(run PayrollRun, rows []PayrollRow) RunDetailResponse {
	resp := RunDetailResponse{
		RunResponse: mapRunResponse(run),
		Rows:        make([]RowResponse, len(rows)),
	}
	for i, row := range rows {
		resp.Rows[i] = mapRowResponse(row)
	}
	return resp
}
