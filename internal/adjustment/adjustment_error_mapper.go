package adjustment

import (
	"errors"
	"strings"

	adjustmenterrors "go-payroll/internal/adjustment/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "idx_type_company_name" {
			return adjustmenterrors.ErrTypeNameExists
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "idx_type_company_name") {
		return adjustmenterrors.ErrTypeNameExists
	}

	return err
}
