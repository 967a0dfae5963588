package statutoryerrors

import (
	"net/http"

	"go-payroll/internal/shared/apperror"
)

var (
	ErrInvalidCountry = apperror.New(
		apperror.CodeInvalidInput,
		"invalid country code",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrVersionNotFound = apperror.New(
		apperror.CodeNotFound,
		"statutory version not found",
		http.StatusNotFound,
	)
	ErrNoStatutoryVersion = apperror.New(
		apperror.CodeComputation,
		"no published statutory version covers the requested date",
		http.StatusUnprocessableEntity,
	)
	ErrNoBracketMatch = apperror.New(
		apperror.CodeComputation,
		"contribution table has no brackets",
		http.StatusUnprocessableEntity,
	)
	ErrVersionAlreadyPublished = apperror.New(
		apperror.CodeInvalidState,
		"statutory version is already published",
		http.StatusBadRequest,
	)
	ErrVersionNotDraft = apperror.New(
		apperror.CodeInvalidState,
		"statutory tables can only be edited while the version is DRAFT",
		http.StatusBadRequest,
	)
	ErrBracketsNotContiguous = apperror.New(
		apperror.CodeInvalidInput,
		"contribution brackets must be contiguous and non-overlapping",
		http.StatusBadRequest,
	)
	ErrBracketsUnbounded = apperror.New(
		apperror.CodeInvalidInput,
		"the last contribution bracket must leave its upper bound open",
		http.StatusBadRequest,
	)
	ErrOverlappingVersion = apperror.New(
		apperror.CodeConflict,
		"a published statutory version already covers this effective date",
		http.StatusConflict,
	)
	ErrEmptyTaxTable = apperror.New(
		apperror.CodeInvalidInput,
		"withholding tax table cannot be empty",
		http.StatusBadRequest,
	)
)
