package company

type UpsertProfileRequest struct {
	Name               string `json:"name" binding:"required,max=200"`
	Country            string `json:"country" binding:"omitempty,len=2"`
	PayFrequency       string `json:"pay_frequency" binding:"required,oneof=MONTHLY SEMI_MONTHLY"`
	WorkingDaysPerYear int    `json:"working_days_per_year" binding:"omitempty,min=1,max=366"`

	PhilHealthRate    string `json:"philhealth_rate" binding:"omitempty"`
	PhilHealthMinBase string `json:"philhealth_min_base" binding:"omitempty"`
	PhilHealthMaxBase string `json:"philhealth_max_base" binding:"omitempty"`

	PagIbigEmployeeRate string `json:"pagibig_employee_rate" binding:"omitempty"`
	PagIbigEmployerRate string `json:"pagibig_employer_rate" binding:"omitempty"`
	PagIbigMaxBase      string `json:"pagibig_max_base" binding:"omitempty"`
}

type ProfileResponse struct {
	CompanyID          string `json:"company_id"`
	Name               string `json:"name"`
	Country            string `json:"country"`
	PayFrequency       string `json:"pay_frequency"`
	WorkingDaysPerYear int    `json:"working_days_per_year"`

	PhilHealthRate    string `json:"philhealth_rate"`
	PhilHealthMinBase string `json:"philhealth_min_base"`
	PhilHealthMaxBase string `json:"philhealth_max_base"`

	PagIbigEmployeeRate string `json:"pagibig_employee_rate"`
	PagIbigEmployerRate string `json:"pagibig_employer_rate"`
	PagIbigMaxBase      string `json:"pagibig_max_base"`
}

func mapProfileResponse(p Profile) ProfileResponse {
	return ProfileResponse{
		CompanyID:          p.CompanyID.String(),
		Name:               p.Name,
		Country:            p.Country,
		PayFrequency:       p.PayFrequency,
		WorkingDaysPerYear: p.WorkingDaysPerYear,

		PhilHealthRate:    p.PhilHealthRate.String(),
		PhilHealthMinBase: p.PhilHealthMinBase.StringFixed(2),
		PhilHealthMaxBase: p.PhilHealthMaxBase.StringFixed(2),

		PagIbigEmployeeRate: p.PagIbigEmployeeRate.String(),
		PagIbigEmployerRate: p.PagIbigEmployerRate.String(),
		PagIbigMaxBase:      p.PagIbigMaxBase.StringFixed(2),
	}
}
