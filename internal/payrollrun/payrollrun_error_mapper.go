package payrollrun

import (
	"errors"
	"strings"

	payrollrunerrors "go-payroll/internal/payrollrun/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "idx_run_company_period" {
			return payrollrunerrors.ErrRunExists
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "idx_run_company_period") {
		return payrollrunerrors.ErrRunExists
	}

	return err
}
