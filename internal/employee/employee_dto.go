package employee

import (
	employeeerrors "go-payroll/internal/employee/errors"
	"go-payroll/internal/shared/money"

	"github.com/shopspring/decimal"
)

type CreateEmployeeRequest struct {
	EmployeeNo  string `json:"employee_no" binding:"omitempty,max=40"`
	FullName    string `json:"full_name" binding:"required,max=200"`
	Email       string `json:"email" binding:"omitempty,email"`
	HireDate    string `json:"hire_date" binding:"required"`
	MonthlyRate string `json:"monthly_rate" binding:"required"`
}

type UpdateEmployeeRequest struct {
	FullName string  `json:"full_name" binding:"required,max=200"`
	Email    string  `json:"email" binding:"omitempty,email"`
	Status   string  `json:"status" binding:"required,oneof=ACTIVE INACTIVE"`
	EndDate  *string `json:"end_date"`
}

type AddCompensationRequest struct {
	MonthlyRate   string `json:"monthly_rate" binding:"required"`
	EffectiveDate string `json:"effective_date" binding:"required"`
}

type EmployeeResponse struct {
	ID         string  `json:"id"`
	EmployeeNo string  `json:"employee_no"`
	FullName   string  `json:"full_name"`
	Email      string  `json:"email,omitempty"`
	Status     string  `json:"status"`
	HireDate   string  `json:"hire_date"`
	EndDate    *string `json:"end_date,omitempty"`
}

type CompensationResponse struct {
	ID            string `json:"id"`
	EmployeeID    string `json:"employee_id"`
	MonthlyRate   string `json:"monthly_rate"`
	EffectiveDate string `json:"effective_date"`
}

func mapToResponse(e Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:         e.ID.String(),
		EmployeeNo: e.EmployeeNo,
		FullName:   e.FullName,
		Email:      e.Email,
		Status:     e.Status,
		HireDate:   e.HireDate.Format("2006-01-02"),
	}
	if e.EndDate != nil {
		s := e.EndDate.Format("2006-01-02")
		resp.EndDate = &s
	}
	return resp
}

func mapToListResponse(employees []Employee) []EmployeeResponse {
	resp := make([]EmployeeResponse, len(employees))
	for i, e := range employees {
		resp[i] = mapToResponse(e)
	}
	return resp
}

func parseRate(raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(raw)
	if err != nil || rate.IsNegative() {
		return decimal.Decimal{}, employeeerrors.ErrInvalidRate
	}
	return money.Round(rate), nil
}

func mapCompensationResponse(c Compensation) CompensationResponse {
	return CompensationResponse{
		ID:            c.ID.String(),
		EmployeeID:    c.EmployeeID.String(),
		MonthlyRate:   c.MonthlyRate.StringFixed(2),
		EffectiveDate: c.EffectiveDate.Format("2006-01-02"),
	}
}
