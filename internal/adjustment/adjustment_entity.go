package adjustment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SourceManual    = "manual"
	SourceRecurring = "recurring"
)

const (
	ModeSplit = "SPLIT"
	Mode1st   = "1ST"
	Mode2nd   = "2ND"
)

// AdjustmentType is a tenant catalog entry fixing how a named adjustment is
// classified.
type AdjustmentType struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index:idx_type_company_name,unique"`
	Name      string    `gorm:"type:varchar(120);not null;index:idx_type_company_name,unique"`
	Category  Category  `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Adjustment is one materialized ledger entry for an employee and period key.
// Unique per (company, employee, name, period key); batch operations replace
// or remove entries by that key.
type Adjustment struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_adj_key,unique"`
	EmployeeID uuid.UUID       `gorm:"type:uuid;not null;index:idx_adj_key,unique"`
	Name       string          `gorm:"type:varchar(120);not null;index:idx_adj_key,unique"`
	PeriodKey  string          `gorm:"type:varchar(20);not null;index:idx_adj_key,unique"`
	Category   Category        `gorm:"type:varchar(20);not null"`
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Source     string          `gorm:"type:varchar(20);not null;default:'manual'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RecurringAdjustment materializes into one-time adjustments per cutoff via
// the explicit apply operation; it is never consulted inline at compute time.
type RecurringAdjustment struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID        `gorm:"type:uuid;not null;index"`
	EmployeeID uuid.UUID        `gorm:"type:uuid;not null;index"`
	Name       string           `gorm:"type:varchar(120);not null"`
	Category   Category         `gorm:"type:varchar(20);not null"`
	Amount     decimal.Decimal  `gorm:"type:numeric(14,2);not null"`
	Mode       string           `gorm:"type:varchar(10);not null"`
	MaxAmount  *decimal.Decimal `gorm:"type:numeric(14,2)"`
	StartDate  *time.Time       `gorm:"type:date"`
	EndDate    *time.Time       `gorm:"type:date"`
	Active     bool             `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Item is one resolved named amount, the resolver's output unit.
type Item struct {
	Name     string          `json:"name"`
	Category Category        `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Totals groups resolved items by category traits for the pay equation.
type Totals struct {
	Earnings   decimal.Decimal // taxable earning-family categories
	Exemptible decimal.Decimal // de-minimis / benefit amounts
	Deductions decimal.Decimal // net-only subtractions (positive magnitude)
	Additions  decimal.Decimal // net-only additions
}

// Summarize folds items into category totals. Deduction amounts are stored
// positive and reported positive here; the sign lives in the traits table.
func Summarize(items []Item) Totals {
	var t Totals
	for _, item := range items {
		traits := item.Category.Traits()
		switch {
		case traits.AffectsGross && traits.Exemptible:
			t.Exemptible = t.Exemptible.Add(item.Amount)
		case traits.AffectsGross:
			t.Earnings = t.Earnings.Add(item.Amount)
		case traits.Sign < 0:
			t.Deductions = t.Deductions.Add(item.Amount)
		default:
			t.Additions = t.Additions.Add(item.Amount)
		}
	}
	return t
}
