package companyerrors

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
	ErrInvalidFrequency = apperror.New(
		apperror.CodeInvalidInput,
		"pay frequency must be MONTHLY or SEMI_MONTHLY",
		http.StatusBadRequest,
	)
	ErrInvalidParameter = apperror.New(
		apperror.CodeInvalidInput,
		"scheme parameters must be valid non-negative numbers",
		http.StatusBadRequest,
	)
)
