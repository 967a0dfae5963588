package statutory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
)

const (
	SchemeSSS = "sss"
)

const (
	FrequencyMonthly     = "MONTHLY"
	FrequencySemiMonthly = "SEMI_MONTHLY"
)

// StatutoryVersion is one time-boxed revision of the government tables for a
// country. Published versions never overlap; the open-ended tail
// (EffectiveTo = nil) is the catch-all.
type StatutoryVersion struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Country       string     `gorm:"type:varchar(2);not null;index:idx_country_status"`
	Status        string     `gorm:"type:varchar(20);not null;default:'DRAFT';index:idx_country_status"`
	EffectiveFrom time.Time  `gorm:"type:date;not null"`
	EffectiveTo   *time.Time `gorm:"type:date"`
	PublishedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Brackets    []ContributionBracket `gorm:"foreignKey:VersionID"`
	TaxBrackets []TaxBracket          `gorm:"foreignKey:VersionID"`
}

// ContributionBracket is one row of a bracket-based scheme table. A nil
// CompensationMax marks the open top row.
type ContributionBracket struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VersionID       uuid.UUID        `gorm:"type:uuid;not null;index:idx_version_scheme"`
	Scheme          string           `gorm:"type:varchar(20);not null;index:idx_version_scheme"`
	CompensationMin decimal.Decimal  `gorm:"type:numeric(14,2);not null"`
	CompensationMax *decimal.Decimal `gorm:"type:numeric(14,2)"`
	EmployeeAmount  decimal.Decimal  `gorm:"type:numeric(14,2);not null"`
	EmployerAmount  decimal.Decimal  `gorm:"type:numeric(14,2);not null"`
	CreatedAt       time.Time
}

// TaxBracket is one progressive withholding row: the bracket applies to the
// highest Threshold not exceeding taxable income.
type TaxBracket struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VersionID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_version_frequency"`
	PayFrequency string          `gorm:"type:varchar(20);not null;index:idx_version_frequency"`
	Threshold    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	BaseTax      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Rate         decimal.Decimal `gorm:"type:numeric(8,6);not null"`
	CreatedAt    time.Time
}

// Tables bundles everything the calculator needs for one resolved version.
type Tables struct {
	Version     StatutoryVersion
	SSSBrackets []ContributionBracket
	TaxTables   map[string][]TaxBracket // keyed by pay frequency
}
