package joberrors

import (
	"net/http"

	"go-payroll/internal/shared/apperror"
)

var (
	ErrJobNotFound = apperror.New(
		apperror.CodeNotFound,
		"job not found",
		http.StatusNotFound,
	)
	ErrUnknownJobType = apperror.New(
		apperror.CodeInvalidInput,
		"unknown job type",
		http.StatusBadRequest,
	)
	ErrJobNotCancellable = apperror.New(
		apperror.CodeConflict,
		"job already finished and cannot be cancelled",
		http.StatusConflict,
	)
	ErrJobNotClaimable = apperror.New(
		apperror.CodeConflict,
		"job is not pending",
		http.StatusConflict,
	)
)
