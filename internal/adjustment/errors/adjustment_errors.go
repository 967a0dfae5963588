package adjustmenterrors

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
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidCategory = apperror.New(
		apperror.CodeInvalidInput,
		"unknown adjustment category",
		http.StatusBadRequest,
	)
	ErrInvalidMode = apperror.New(
		apperror.CodeInvalidInput,
		"recurring mode must be SPLIT, 1ST or 2ND",
		http.StatusBadRequest,
	)
	ErrInvalidAmount = apperror.New(
		apperror.CodeInvalidInput,
		"adjustment amount must be a valid non-negative number",
		http.StatusBadRequest,
	)
	ErrInvalidPeriodKey = apperror.New(
		apperror.CodeInvalidInput,
		"invalid period key, expected YYYY-MM with optional cutoff suffix",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrTypeNameExists = apperror.New(
		apperror.CodeConflict,
		"an adjustment type with this name already exists",
		http.StatusConflict,
	)
	ErrTypeNotFound = apperror.New(
		apperror.CodeNotFound,
		"adjustment type not found",
		http.StatusNotFound,
	)
	ErrRecurringNotFound = apperror.New(
		apperror.CodeNotFound,
		"recurring adjustment not found",
		http.StatusNotFound,
	)
)
