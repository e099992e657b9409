package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error types
var (
	ErrNotFound      = errors.New("resource not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrBadRequest    = errors.New("bad request")
	ErrConflict      = errors.New("resource conflict")
	ErrInternal      = errors.New("internal server error")
	ErrValidation    = errors.New("validation error")
	ErrInvalidPIN    = errors.New("invalid PIN")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("invalid token")
	ErrNotAuthorized = errors.New("manager authorization required")

	// Correction validation failures, in evaluation order.
	ErrNoEntryToCorrect  = errors.New("no time entry to correct")
	ErrNoChangeRequested = errors.New("no change requested")
	ErrReasonTooShort    = errors.New("correction reason too short")
	ErrFutureTime        = errors.New("corrected time is in the future")
	ErrOutOfOrder        = errors.New("clock-out not after clock-in")
	ErrShiftTooLong      = errors.New("shift duration exceeds maximum")
	ErrOpenEntry         = errors.New("employee already clocked in")
	ErrNoOpenEntry       = errors.New("employee is not clocked in")
	ErrPersistence       = errors.New("persistence failed")
	ErrStorage           = errors.New("storage error")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Err:        ErrForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

func InvalidPIN() *AppError {
	return &AppError{
		Err:        ErrInvalidPIN,
		Code:       "INVALID_PIN",
		Message:    "invalid manager PIN",
		StatusCode: http.StatusUnauthorized,
	}
}

func TokenExpired() *AppError {
	return &AppError{
		Err:        ErrTokenExpired,
		Code:       "TOKEN_EXPIRED",
		Message:    "token has expired",
		StatusCode: http.StatusUnauthorized,
	}
}

func TokenInvalid() *AppError {
	return &AppError{
		Err:        ErrTokenInvalid,
		Code:       "TOKEN_INVALID",
		Message:    "invalid token",
		StatusCode: http.StatusUnauthorized,
	}
}

// Correction workflow constructors. Each maps to a distinct code so callers
// and UIs can tell the failures apart.

func NotAuthorized() *AppError {
	return &AppError{
		Err:        ErrNotAuthorized,
		Code:       "NOT_AUTHORIZED",
		Message:    "an active manager session is required",
		StatusCode: http.StatusUnauthorized,
	}
}

func NoEntryToCorrect(employeeID string) *AppError {
	return &AppError{
		Err:        ErrNoEntryToCorrect,
		Code:       "NO_ENTRY_TO_CORRECT",
		Message:    "no time entry found to correct for employee " + employeeID,
		StatusCode: http.StatusNotFound,
	}
}

func NoChangeRequested() *AppError {
	return &AppError{
		Err:        ErrNoChangeRequested,
		Code:       "NO_CHANGE_REQUESTED",
		Message:    "at least one corrected time must be provided",
		StatusCode: http.StatusBadRequest,
	}
}

func ReasonTooShort(min int) *AppError {
	return &AppError{
		Err:        ErrReasonTooShort,
		Code:       "REASON_TOO_SHORT",
		Message:    fmt.Sprintf("correction reason must be at least %d characters", min),
		StatusCode: http.StatusBadRequest,
	}
}

func FutureTime(field string) *AppError {
	return &AppError{
		Err:        ErrFutureTime,
		Code:       "FUTURE_TIME",
		Message:    fmt.Sprintf("%s cannot be in the future", field),
		StatusCode: http.StatusBadRequest,
		Details:    map[string]string{"field": field},
	}
}

func OutOfOrder() *AppError {
	return &AppError{
		Err:        ErrOutOfOrder,
		Code:       "OUT_OF_ORDER",
		Message:    "clock-out time must be after clock-in time",
		StatusCode: http.StatusBadRequest,
	}
}

func ShiftTooLong(maxHours float64) *AppError {
	return &AppError{
		Err:        ErrShiftTooLong,
		Code:       "SHIFT_TOO_LONG",
		Message:    fmt.Sprintf("shift duration cannot exceed %.0f hours", maxHours),
		StatusCode: http.StatusBadRequest,
	}
}

func OpenEntryExists(employeeID string) *AppError {
	return &AppError{
		Err:        ErrOpenEntry,
		Code:       "ALREADY_CLOCKED_IN",
		Message:    "employee " + employeeID + " already has an open time entry",
		StatusCode: http.StatusConflict,
	}
}

func NoOpenEntry(employeeID string) *AppError {
	return &AppError{
		Err:        ErrNoOpenEntry,
		Code:       "NOT_CLOCKED_IN",
		Message:    "employee " + employeeID + " has no open time entry",
		StatusCode: http.StatusConflict,
	}
}

func PersistenceFailed(err error) *AppError {
	return &AppError{
		Err:        errors.Join(ErrPersistence, err),
		Code:       "PERSISTENCE_FAILED",
		Message:    "failed to save the correction",
		StatusCode: http.StatusInternalServerError,
	}
}

func Storage(err error) *AppError {
	return &AppError{
		Err:        errors.Join(ErrStorage, err),
		Code:       "STORAGE_ERROR",
		Message:    "storage operation failed",
		StatusCode: http.StatusInternalServerError,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
