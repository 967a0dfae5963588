package contributionerrors

import (
	"net/http"

	"go-payroll/internal/shared/apperror"
)

var (
	ErrInvalidCompensation = apperror.New(
		apperror.CodeComputation,
		"compensation must be a finite, non-negative amount",
		http.StatusUnprocessableEntity,
	)
)
