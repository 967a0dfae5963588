package payrollrunerrors

import (
	"net/http"

	"go-payroll/internal/shared/apperror"
)

var (
	ErrRunNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll run not found",
		http.StatusNotFound,
	)
	ErrRunExists = apperror.New(
		apperror.CodeConflict,
		"a payroll run already exists for this period and cutoff",
		http.StatusConflict,
	)
	ErrInvalidPeriod = apperror.New(
		apperror.CodeInvalidInput,
		"invalid period, expected YYYY-MM",
		http.StatusBadRequest,
	)
	ErrInvalidCode = apperror.New(
		apperror.CodeInvalidInput,
		"run code must be A, B, MONTHLY or SPECIAL",
		http.StatusBadRequest,
	)
	ErrComputeOnlyDraft = apperror.New(
		apperror.CodeConflict,
		"only a DRAFT run can be computed",
		http.StatusConflict,
	)
	ErrApproveOnlyComputed = apperror.New(
		apperror.CodeConflict,
		"only a COMPUTED run can be approved",
		http.StatusConflict,
	)
	ErrPostOnlyApproved = apperror.New(
		apperror.CodeConflict,
		"only an APPROVED run can be posted",
		http.StatusConflict,
	)
	ErrUnpostOnlyPosted = apperror.New(
		apperror.CodeConflict,
		"only a POSTED run can be unposted",
		http.StatusConflict,
	)
	ErrDeleteOnlyUnposted = apperror.New(
		apperror.CodeConflict,
		"a POSTED run cannot be deleted",
		http.StatusConflict,
	)
	ErrRunBusy = apperror.New(
		apperror.CodeConflict,
		"the run changed state concurrently, retry",
		http.StatusConflict,
	)
	ErrRowNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll row not found",
		http.StatusNotFound,
	)
)
