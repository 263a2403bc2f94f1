package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Standard sentinel errors for the back-office error taxonomy.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrAlreadyExists    = errors.New("resource already exists")
	ErrValidation       = errors.New("validation failed")
	ErrIntegrity        = errors.New("integrity violation")
	ErrTransition       = errors.New("illegal status transition")
	ErrStoreUnavailable = errors.New("record store unavailable")
	ErrUnauthorized     = errors.New("unauthorized")
)

// FieldViolation describes a single invalid field in a payload.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`

	// Violations is set for VALIDATION_ERROR so callers can surface the
	// complete set of field errors at once.
	Violations []FieldViolation `json:"violations,omitempty"`

	// BlockingCount is set for INTEGRITY_VIOLATION (number of records that
	// reference the entity being mutated).
	BlockingCount int `json:"blocking_count,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists creates a 409 error for uniqueness conflicts (e.g. slugs).
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// Validation creates a 400 error carrying the full violation set.
func Validation(violations []FieldViolation) *AppError {
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = fmt.Sprintf("%s %s", v.Field, v.Message)
	}
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    strings.Join(msgs, "; "),
		Status:     http.StatusBadRequest,
		Err:        ErrValidation,
		Violations: violations,
	}
}

// InvalidInput creates a 400 error with a single message.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrValidation,
	}
}

// IntegrityViolation creates a 409 error reporting how many records block the
// operation.
func IntegrityViolation(message string, blockingCount int) *AppError {
	return &AppError{
		Code:          "INTEGRITY_VIOLATION",
		Message:       message,
		Status:        http.StatusConflict,
		Err:           ErrIntegrity,
		BlockingCount: blockingCount,
	}
}

// Transition creates a 409 error for an illegal order status change.
func Transition(from, to string) *AppError {
	return &AppError{
		Code:    "TRANSITION_ERROR",
		Message: fmt.Sprintf("cannot transition order from %q to %q", from, to),
		Status:  http.StatusConflict,
		Err:     ErrTransition,
	}
}

// StoreUnavailable creates a 503 error wrapping the underlying I/O failure.
func StoreUnavailable(err error) *AppError {
	return &AppError{
		Code:    "STORE_UNAVAILABLE",
		Message: "record store unavailable",
		Status:  http.StatusServiceUnavailable,
		Err:     fmt.Errorf("%w: %w", ErrStoreUnavailable, err),
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrIntegrity), errors.Is(err, ErrTransition):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
