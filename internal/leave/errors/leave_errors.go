package leaveerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrInvalidID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave request id",
		http.StatusBadRequest,
	)
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
	ErrReasonRequired = apperror.RequiredField("reason")
	ErrDatesRequired  = apperror.New(
		apperror.CodeInvalidInput,
		"leave_dates must be a non-empty array",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrDuplicateDates = apperror.New(
		apperror.CodeInvalidInput,
		"leave_dates must not contain duplicates",
		http.StatusBadRequest,
	)
	ErrDateNotInFuture = apperror.New(
		apperror.CodeInvalidDate,
		"leave dates must be after today",
		http.StatusBadRequest,
	)
	ErrLeaveOverlap = apperror.New(
		apperror.CodeConflict,
		"leave dates overlap an existing request",
		http.StatusConflict,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrInvalidState = apperror.New(
		apperror.CodeInvalidState,
		"leave request has already been decided",
		http.StatusConflict,
	)
	ErrRejectReasonRequired = apperror.RequiredField("reason")
	ErrNotOwner             = apperror.New(
		apperror.CodeForbidden,
		"you can only delete your own leave requests",
		http.StatusForbidden,
	)
)
