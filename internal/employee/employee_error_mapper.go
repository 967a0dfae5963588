package employee

import (
	"errors"
	"strings"

	employeeerrors "go-payroll/internal/employee/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return employeeerrors.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "idx_employee_company_no":
				return employeeerrors.ErrEmployeeNoExists
			case "idx_comp_employee_effective":
				return employeeerrors.ErrRateEffectiveDateExists
			}
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") {
		if strings.Contains(errMsg, "idx_employee_company_no") {
			return employeeerrors.ErrEmployeeNoExists
		}
		if strings.Contains(errMsg, "idx_comp_employee_effective") {
			return employeeerrors.ErrRateEffectiveDateExists
		}
	}

	return err
}
