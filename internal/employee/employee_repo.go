package employee

import (
	"context"
	"database/sql"
	"time"

	"go-payroll/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, emp *Employee) error
	FindAllByCompany(ctx context.Context, companyID string) ([]Employee, error)
	FindByIDAndCompany(ctx context.Context, companyID string, id string) (*Employee, error)
	Update(ctx context.Context, emp *Employee) error
	Delete(ctx context.Context, companyID string, id string) error

	AddCompensation(ctx context.Context, comp *Compensation) error
	ListCompensation(ctx context.Context, companyID, employeeID string) ([]Compensation, error)
	ListActiveWithRate(ctx context.Context, companyID string, asOf time.Time) ([]PayProfile, error)
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

func (r *repository) Create(ctx context.Context, emp *Employee) error {
	return r.db.WithContext(ctx).Create(emp).Error
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]Employee, error) {
	var employees []Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("employee_no ASC").
		Find(&employees).Error
	return employees, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID string, id string) (*Employee, error) {
	var emp Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&emp, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *repository) Update(ctx context.Context, emp *Employee) error {
	return r.db.WithContext(ctx).Save(emp).Error
}

func (r *repository) Delete(ctx context.Context, companyID string, id string) error {
	return r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Delete(&Employee{}, "id = ?", id).Error
}

func (r *repository) AddCompensation(ctx context.Context, comp *Compensation) error {
	return r.db.WithContext(ctx).Create(comp).Error
}

func (r *repository) ListCompensation(ctx context.Context, companyID, employeeID string) ([]Compensation, error) {
	var comps []Compensation
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Order("effective_date DESC").
		Find(&comps).Error
	return comps, err
}

// ListActiveWithRate builds the pay roster: every active employee joined with
// the compensation row in force at asOf. Employees without any effective rate
// are excluded; the engine treats an empty roster as a no-op run.
func (r *repository) ListActiveWithRate(ctx context.Context, companyID string, asOf time.Time) ([]PayProfile, error) {
	var profiles []PayProfile
	query := `
SELECT
	employees.id AS employee_id,
	employees.full_name,
	employees.employee_no,
	compensations.monthly_rate
FROM employees
JOIN compensations ON compensations.id = (
	SELECT c.id
	FROM compensations c
	WHERE c.employee_id = employees.id
	  AND c.effective_date <= ?
	ORDER BY c.effective_date DESC, c.created_at DESC
	LIMIT 1
)
WHERE employees.company_id = ?
  AND employees.status = ?
  AND (employees.end_date IS NULL OR employees.end_date >= ?)
ORDER BY employees.employee_no ASC
`

	err := r.db.WithContext(ctx).Raw(query, asOf, companyID, StatusActive, asOf).Scan(&profiles).Error
	return profiles, err
}
