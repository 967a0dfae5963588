package adjustment

import (
	"context"
	"database/sql"

	"go-payroll/internal/tenant"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=adjustment_repo.go -destination=mock/adjustment_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	CreateType(ctx context.Context, t *AdjustmentType) error
	ListTypes(ctx context.Context, companyID string) ([]AdjustmentType, error)
	FindTypeByName(ctx context.Context, companyID, name string) (*AdjustmentType, error)
	DeleteType(ctx context.Context, companyID, id string) error

	Upsert(ctx context.Context, adj *Adjustment) error
	Delete(ctx context.Context, companyID, employeeID, name, periodKey string) error
	ListByEmployeePeriod(ctx context.Context, companyID, employeeID, periodKey string) ([]Adjustment, error)
	ListByPeriod(ctx context.Context, companyID, periodKey string) ([]Adjustment, error)
	SumMaterialized(ctx context.Context, companyID, employeeID, name, excludePeriodKey string) (decimal.Decimal, error)

	CreateRecurring(ctx context.Context, rec *RecurringAdjustment) error
	UpdateRecurring(ctx context.Context, rec *RecurringAdjustment) error
	FindRecurringByID(ctx context.Context, companyID, id string) (*RecurringAdjustment, error)
	ListRecurring(ctx context.Context, companyID string) ([]RecurringAdjustment, error)
	ListActiveRecurring(ctx context.Context, companyID string) ([]RecurringAdjustment, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	session := r.db.Session(&gorm.Session{Context: r.db.Statement.Context, NewDB: true})
	session.Statement.ConnPool = tx
	return &repository{db: session}
}

func (r *repository) CreateType(ctx context.Context, t *AdjustmentType) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *repository) ListTypes(ctx context.Context, companyID string) ([]AdjustmentType, error) {
	var types []AdjustmentType
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("name ASC").
		Find(&types).Error
	return types, err
}

func (r *repository) FindTypeByName(ctx context.Context, companyID, name string) (*AdjustmentType, error) {
	var t AdjustmentType
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&t, "name = ?", name).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) DeleteType(ctx context.Context, companyID, id string) error {
	return r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Delete(&AdjustmentType{}, "id = ?", id).Error
}

// Upsert replaces the amount/category/source for the (company, employee,
// name, period) key, so re-running a batch or a recurring apply overwrites
// instead of duplicating.
func (r *repository) Upsert(ctx context.Context, adj *Adjustment) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "company_id"}, {Name: "employee_id"}, {Name: "name"}, {Name: "period_key"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"category", "amount", "source", "updated_at"}),
		}).
		Create(adj).Error
}

func (r *repository) Delete(ctx context.Context, companyID, employeeID, name, periodKey string) error {
	return r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ? AND name = ? AND period_key = ?", employeeID, name, periodKey).
		Delete(&Adjustment{}).Error
}

func (r *repository) ListByEmployeePeriod(ctx context.Context, companyID, employeeID, periodKey string) ([]Adjustment, error) {
	var adjustments []Adjustment
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ? AND period_key = ?", employeeID, periodKey).
		Order("name ASC").
		Find(&adjustments).Error
	return adjustments, err
}

func (r *repository) ListByPeriod(ctx context.Context, companyID, periodKey string) ([]Adjustment, error) {
	var adjustments []Adjustment
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("period_key = ?", periodKey).
		Order("employee_id ASC, name ASC").
		Find(&adjustments).Error
	return adjustments, err
}

// SumMaterialized totals the lifetime materializations of one recurring
// adjustment, excluding the cutoff currently being re-applied.
func (r *repository) SumMaterialized(ctx context.Context, companyID, employeeID, name, excludePeriodKey string) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&Adjustment{}).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ? AND name = ? AND source = ?", employeeID, name, SourceRecurring).
		Where("period_key <> ?", excludePeriodKey).
		Select("SUM(amount)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *repository) CreateRecurring(ctx context.Context, rec *RecurringAdjustment) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *repository) UpdateRecurring(ctx context.Context, rec *RecurringAdjustment) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

func (r *repository) FindRecurringByID(ctx context.Context, companyID, id string) (*RecurringAdjustment, error) {
	var rec RecurringAdjustment
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&rec, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) ListRecurring(ctx context.Context, companyID string) ([]RecurringAdjustment, error) {
	var recs []RecurringAdjustment
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("created_at ASC").
		Find(&recs).Error
	return recs, err
}

func (r *repository) ListActiveRecurring(ctx context.Context, companyID string) ([]RecurringAdjustment, error) {
	var recs []RecurringAdjustment
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("active = ?", true).
		Order("created_at ASC").
		Find(&recs).Error
	return recs, err
}
