package employee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

type Employee struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_employee_company_no,unique"`
	EmployeeNo string     `gorm:"type:varchar(40);not null;index:idx_employee_company_no,unique"`
	FullName   string     `gorm:"type:varchar(200);not null"`
	Email      string     `gorm:"type:varchar(200)"`
	Status     string     `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	HireDate   time.Time  `gorm:"type:date;not null"`
	EndDate    *time.Time `gorm:"type:date"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Compensation is an effective-dated monthly rate. The rate in force at a
// date is the row with the latest effective date not after it.
type Compensation struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	EmployeeID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_comp_employee_effective,unique"`
	MonthlyRate   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	EffectiveDate time.Time       `gorm:"type:date;not null;index:idx_comp_employee_effective,unique"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PayProfile is the roster row the computation engine consumes: one active
// employee with the monthly rate in force at the run's reference date.
type PayProfile struct {
	EmployeeID  uuid.UUID
	FullName    string
	EmployeeNo  string
	MonthlyRate decimal.Decimal
}
