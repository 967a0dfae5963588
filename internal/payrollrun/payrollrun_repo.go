package payrollrun

import (
	"context"
	"database/sql"
	"time"

	"go-payroll/internal/tenant"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

//go:generate mockgen -source=payrollrun_repo.go -destination=mock/payrollrun_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	Create(ctx context.Context, run *PayrollRun) error
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*PayrollRun, error)
	FindByPeriod(ctx context.Context, companyID, periodKey, code string) (*PayrollRun, error)
	ListByCompany(ctx context.Context, companyID string, filter RunQueryFilter) ([]PayrollRun, error)
	Update(ctx context.Context, run *PayrollRun) error
	Delete(ctx context.Context, companyID, id string) error

	// UpdateStatusIf performs the compare-and-set that serializes lifecycle
	// transitions; false means the run was not in fromStatus anymore.
	UpdateStatusIf(ctx context.Context, id, fromStatus string, apply map[string]any) (bool, error)

	CreateRows(ctx context.Context, rows []PayrollRow) error
	DeleteRowsByRun(ctx context.Context, runID string) error
	ListRowsByRun(ctx context.Context, companyID, runID string) ([]PayrollRow, error)
	FindRow(ctx context.Context, companyID, runID, employeeID string) (*PayrollRow, error)
	UpdateRowSnapshots(ctx context.Context, rows []PayrollRow) error
	ClearRowSnapshotsByRun(ctx context.Context, runID string) error

	CreateHistoryRows(ctx context.Context, rows []PayrollHistory) error
	DeleteHistoryByRun(ctx context.Context, runID string) error
	// SumExemptibleYTD totals posted de-minimis/benefit amounts for the
	// employee in the calendar year, excluding the given run.
	SumExemptibleYTD(ctx context.Context, companyID, employeeID string, year int, excludeRunID string) (decimal.Decimal, error)
}

type RunQueryFilter struct {
	Status    string
	PeriodKey string
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a repository whose statements run on tx. The session swap is
// what gorm's own Begin does under the hood.
func (r *repository) WithTx(tx *sql.Tx) Repository {
	session := r.db.Session(&gorm.Session{Context: r.db.Statement.Context, NewDB: true})
	session.Statement.ConnPool = tx
	return &repository{db: session}
}

func (r *repository) Create(ctx context.Context, run *PayrollRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*PayrollRun, error) {
	var run PayrollRun
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&run, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *repository) FindByPeriod(ctx context.Context, companyID, periodKey, code string) (*PayrollRun, error) {
	var run PayrollRun
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("period_key = ? AND code = ?", periodKey, code).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *repository) ListByCompany(ctx context.Context, companyID string, filter RunQueryFilter) ([]PayrollRun, error) {
	var runs []PayrollRun
	query := r.db.WithContext(ctx).Scopes(tenant.Scope(companyID))
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PeriodKey != "" {
		query = query.Where("period_key = ?", filter.PeriodKey)
	}
	err := query.Order("period_key DESC, code ASC").Find(&runs).Error
	return runs, err
}

func (r *repository) Update(ctx context.Context, run *PayrollRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *repository) Delete(ctx context.Context, companyID, id string) error {
	return r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Delete(&PayrollRun{}, "id = ?", id).Error
}

func (r *repository) UpdateStatusIf(ctx context.Context, id, fromStatus string, apply map[string]any) (bool, error) {
	if apply == nil {
		apply = map[string]any{}
	}
	apply["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&PayrollRun{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(apply)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) CreateRows(ctx context.Context, rows []PayrollRow) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 200).Error
}

func (r *repository) DeleteRowsByRun(ctx context.Context, runID string) error {
	return r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Delete(&PayrollRow{}).Error
}

func (r *repository) ListRowsByRun(ctx context.Context, companyID, runID string) ([]PayrollRow, error) {
	var rows []PayrollRow
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("run_id = ?", runID).
		Order("employee_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindRow(ctx context.Context, companyID, runID, employeeID string) (*PayrollRow, error) {
	var row PayrollRow
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("run_id = ? AND employee_id = ?", runID, employeeID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) UpdateRowSnapshots(ctx context.Context, rows []PayrollRow) error {
	for _, row := range rows {
		err := r.db.WithContext(ctx).
			Model(&PayrollRow{}).
			Where("id = ?", row.ID).
			Update("inputs_snapshot", row.InputsSnapshot).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) ClearRowSnapshotsByRun(ctx context.Context, runID string) error {
	return r.db.WithContext(ctx).
		Model(&PayrollRow{}).
		Where("run_id = ?", runID).
		Update("inputs_snapshot", nil).Error
}

func (r *repository) CreateHistoryRows(ctx context.Context, rows []PayrollHistory) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 200).Error
}

func (r *repository) DeleteHistoryByRun(ctx context.Context, runID string) error {
	return r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Delete(&PayrollHistory{}).Error
}

func (r *repository) SumExemptibleYTD(ctx context.Context, companyID, employeeID string, year int, excludeRunID string) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	query := r.db.WithContext(ctx).
		Model(&PayrollHistory{}).
		Where("company_id = ? AND employee_id = ?", companyID, employeeID).
		Where("period_key LIKE ?", formatYearPrefix(year)).
		Select("SUM(de_minimis + benefits)")
	if excludeRunID != "" {
		query = query.Where("run_id <> ?", excludeRunID)
	}
	if err := query.Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func formatYearPrefix(year int) string {
	return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006") + "-%"
}
