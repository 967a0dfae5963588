package employeeerrors

import (
	"net/http"

	"go-payroll/internal/shared/apperror"
)

var (
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrEmployeeNoExists = apperror.New(
		apperror.CodeConflict,
		"an employee with this number already exists",
		http.StatusConflict,
	)
	ErrInvalidRate = apperror.New(
		apperror.CodeInvalidInput,
		"monthly rate must be a valid non-negative number",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrRateEffectiveDateExists = apperror.New(
		apperror.CodeConflict,
		"a compensation row with this effective date already exists",
		http.StatusConflict,
	)
	ErrInvalidStatus = apperror.New(
		apperror.CodeInvalidInput,
		"status must be ACTIVE or INACTIVE",
		http.StatusBadRequest,
	)
)
