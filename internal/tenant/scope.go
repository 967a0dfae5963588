package tenant

import "gorm.io/gorm"

// Scope restricts a query to one company. Every payroll table carries a
// company_id column and every read path applies this scope, so a tenant can
// never see another tenant's rows even when an id leaks across tenants.
func Scope(companyID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("company_id = ?", companyID)
	}
}
