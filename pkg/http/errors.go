package http

import (
	"errors"
	"fmt"
	"net/http"

	"AgriIntel/internal/domain/errs"
)

// AppError represents application-level error with HTTP status.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Field:   field,
		Status:  status,
	}
}

// WithParam sets a single error param.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// InternalError creates a 500 error.
func InternalError(message string) *AppError {
	return NewAppError("ERR_INTERNAL", "", message, http.StatusInternalServerError)
}

// TooManyRequestsError creates a 429 error.
func TooManyRequestsError(message string) *AppError {
	return NewAppError("ERR_RATE_LIMITED", "", message, http.StatusTooManyRequests)
}

// FromDomain maps domain errors onto AppError. Unknown errors map to a 500.
func FromDomain(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		return NewAppError("ERR_VALIDATION", ve.Field, ve.Reason, http.StatusBadRequest).WithError(err)
	}
	var ce *errs.ConfigurationError
	if errors.As(err, &ce) {
		return NewAppError("ERR_MODEL_NOT_LOADED", "", ce.Error(), http.StatusInternalServerError).WithError(err)
	}
	if errors.Is(err, errs.ErrModelNotLoaded) {
		return NewAppError("ERR_MODEL_NOT_LOADED", "", err.Error(), http.StatusInternalServerError).WithError(err)
	}
	return InternalError("Something went wrong").WithError(err)
}
