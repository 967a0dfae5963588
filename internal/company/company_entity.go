package company

import (
	"time"

	"go-payroll/internal/contribution"
	"go-payroll/internal/statutory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Profile holds per-tenant payroll parameters. Rate-based scheme settings
// live here; bracket tables live in the country's statutory version.
type Profile struct {
	CompanyID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name               string    `gorm:"type:varchar(200);not null"`
	Country            string    `gorm:"type:varchar(2);not null;default:'PH'"`
	PayFrequency       string    `gorm:"type:varchar(20);not null;default:'SEMI_MONTHLY'"`
	WorkingDaysPerYear int       `gorm:"not null;default:261"`

	PhilHealthRate    decimal.Decimal `gorm:"type:numeric(8,5);not null"`
	PhilHealthMinBase decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	PhilHealthMaxBase decimal.Decimal `gorm:"type:numeric(14,2);not null"`

	PagIbigEmployeeRate decimal.Decimal `gorm:"type:numeric(8,5);not null"`
	PagIbigEmployerRate decimal.Decimal `gorm:"type:numeric(8,5);not null"`
	PagIbigMaxBase      decimal.Decimal `gorm:"type:numeric(14,2);not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultProfile seeds a tenant with the prevailing Philippine parameters:
// PhilHealth 5% on a 10k..100k base, Pag-IBIG 2%/2% capped at a 10k base.
func DefaultProfile(companyID uuid.UUID, name string) Profile {
	return Profile{
		CompanyID:          companyID,
		Name:               name,
		Country:            "PH",
		PayFrequency:       statutory.FrequencySemiMonthly,
		WorkingDaysPerYear: 261,

		PhilHealthRate:    decimal.RequireFromString("0.05"),
		PhilHealthMinBase: decimal.NewFromInt(10000),
		PhilHealthMaxBase: decimal.NewFromInt(100000),

		PagIbigEmployeeRate: decimal.RequireFromString("0.02"),
		PagIbigEmployerRate: decimal.RequireFromString("0.02"),
		PagIbigMaxBase:      decimal.NewFromInt(10000),
	}
}

// ContributionProfile projects the tenant parameters into the calculator's
// input shape.
func (p Profile) ContributionProfile() contribution.Profile {
	return contribution.Profile{
		PhilHealthRate:    p.PhilHealthRate,
		PhilHealthMinBase: p.PhilHealthMinBase,
		PhilHealthMaxBase: p.PhilHealthMaxBase,

		PagIbigEmployeeRate: p.PagIbigEmployeeRate,
		PagIbigEmployerRate: p.PagIbigEmployerRate,
		PagIbigMaxBase:      p.PagIbigMaxBase,
	}
}
