package payrollrun

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	StatusDraft    = "DRAFT"
	StatusComputed = "COMPUTED"
	StatusApproved = "APPROVED"
	StatusPosted   = "POSTED"
)

// Codes name which cutoff of the month a run covers. SPECIAL runs carry no
// basic pay; they exist for off-cycle payments driven purely by adjustments.
const (
	CodeFirstHalf  = "A"
	CodeSecondHalf = "B"
	CodeMonthly    = "MONTHLY"
	CodeSpecial    = "SPECIAL"
)

// ComponentSchemaVersion is stamped into every row's component JSON so later
// readers can tell which layout they are looking at.
const ComponentSchemaVersion = 1

// PayrollRun is one computation batch for a company, month and cutoff. One
// run per (company, period, code); the status field drives the lifecycle
// DRAFT -> COMPUTED -> APPROVED -> POSTED.
type PayrollRun struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index:idx_run_company_period,unique"`
	PeriodKey string    `gorm:"type:varchar(10);not null;index:idx_run_company_period,unique"`
	Code      string    `gorm:"type:varchar(10);not null;index:idx_run_company_period,unique"`
	Status    string    `gorm:"type:varchar(20);not null;default:'DRAFT'"`

	EmployeeCount  int             `gorm:"not null;default:0"`
	TotalGross     decimal.Decimal `gorm:"type:numeric(16,2);not null;default:0"`
	TotalNet       decimal.Decimal `gorm:"type:numeric(16,2);not null;default:0"`
	TotalEmployer  decimal.Decimal `gorm:"type:numeric(16,2);not null;default:0"`
	StatutoryRefID *uuid.UUID      `gorm:"type:uuid"`

	CreatedBy  uuid.UUID  `gorm:"type:uuid;not null"`
	ApprovedBy *uuid.UUID `gorm:"type:uuid"`
	PostedBy   *uuid.UUID `gorm:"type:uuid"`

	ComputedAt *time.Time
	ApprovedAt *time.Time
	PostedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PayrollRow is one employee's computed result inside a run. Statutory
// figures get explicit columns for reporting; the ordered component list is
// kept as JSON for payslip rendering.
type PayrollRow struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RunID      uuid.UUID `gorm:"type:uuid;not null;index:idx_row_run_employee,unique"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_row_run_employee,unique"`

	BasicPay   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	GrossPay   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	TaxablePay decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	NetPay     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	SSSEmployee        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	SSSEmployer        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	PhilHealthEmployee decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	PhilHealthEmployer decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	PagIbigEmployee    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	PagIbigEmployer    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	WithholdingTax     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	DeMinimis decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	Benefits  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	Components     datatypes.JSON `gorm:"type:jsonb"`
	InputsSnapshot datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PayrollHistory is the immutable posted record. Posting copies rows here;
// unposting deletes the copies and nothing else ever touches them. Exemption
// ceilings count against this table, not against volatile run rows.
type PayrollHistory struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RunID      uuid.UUID `gorm:"type:uuid;not null;index"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_history_company_employee"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_history_company_employee"`
	PeriodKey  string    `gorm:"type:varchar(10);not null"`
	Code       string    `gorm:"type:varchar(10);not null"`

	GrossPay   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	TaxablePay decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	NetPay     decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	DeMinimis  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	Benefits   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	PostedAt  time.Time `gorm:"not null"`
	CreatedAt time.Time
}

// Component is one line in a row's ordered component list.
type Component struct {
	Name     string          `json:"name"`
	Kind     string          `json:"kind"`
	Amount   decimal.Decimal `json:"amount"`
	Employer bool            `json:"employer,omitempty"`
}

// ComponentDoc is the JSON document stored per row.
type ComponentDoc struct {
	SchemaVersion int         `json:"schema_version"`
	Items         []Component `json:"items"`
}

const (
	ComponentKindEarning      = "earning"
	ComponentKindContribution = "contribution"
	ComponentKindTax          = "tax"
	ComponentKindDeduction    = "deduction"
	ComponentKindAddition     = "addition"
)
