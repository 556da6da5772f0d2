package errs

import (
	"errors"
	"fmt"
)

// ErrModelNotLoaded is returned when a model contract or the feature column
// list was not loaded at startup.
var ErrModelNotLoaded = errors.New("model not loaded")

// ConfigurationError reports a missing model-level dependency for a component.
type ConfigurationError struct {
	Component string
	Err       error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Component, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NotLoaded builds a ConfigurationError wrapping ErrModelNotLoaded.
func NotLoaded(component string) error {
	return &ConfigurationError{Component: component, Err: ErrModelNotLoaded}
}

// ValidationError rejects a request input. It is surfaced to callers
// separately from internal failures.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConfiguration reports whether err carries a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
