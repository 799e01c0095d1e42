package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}

// ValidationError covers missing/empty required fields, malformed values and
// out-of-range numbers. Always checked before any write.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Validation(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InvariantError reports a violated cross-entity rule with the rule spelled
// out, e.g. "Payment amounts must equal invoice total".
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string { return e.Message }

func Invariant(format string, args ...interface{}) error {
	return &InvariantError{Message: fmt.Sprintf(format, args...)}
}

// ScopeError means the record exists but under a different organization.
// Distinct from not-found: an absent record yields a nil result instead.
type ScopeError struct {
	Entity string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("%s does not belong to your organization", e.Entity)
}

func Scope(entity string) error { return &ScopeError{Entity: entity} }

// StateError means the operation is invalid for the record's current status.
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }

func State(format string, args ...interface{}) error {
	return &StateError{Message: fmt.Sprintf(format, args...)}
}

// WriteAppError maps a typed service error onto the HTTP envelope. Messages
// pass through verbatim so the UI can display them directly.
func WriteAppError(w http.ResponseWriter, err error) {
	var (
		vErr *ValidationError
		iErr *InvariantError
		sErr *ScopeError
		tErr *StateError
	)
	switch {
	case errors.As(err, &vErr):
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidInput, vErr.Message, nil)
	case errors.As(err, &iErr):
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidInput, iErr.Message, nil)
	case errors.As(err, &sErr):
		WriteError(w, http.StatusForbidden, ErrCodeForbidden, sErr.Error(), nil)
	case errors.As(err, &tErr):
		WriteError(w, http.StatusConflict, ErrCodeConflict, tErr.Message, nil)
	default:
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error(), nil)
	}
}
