package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeColumnNotFound ErrorType = "COLUMN_NOT_FOUND"
	ErrTypeDateParse      ErrorType = "DATE_PARSE"
	ErrTypePersistence    ErrorType = "PERSISTENCE"
	ErrTypeParsing        ErrorType = "PARSING"
	ErrTypeValidation     ErrorType = "VALIDATION"
	ErrTypeNotFound       ErrorType = "NOT_FOUND"
	ErrTypeConfig         ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports a match when target is an *AppError of the same Type.
// This lets callers test against the Err* kind markers below.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == "" && t.Type == e.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Kind markers for errors.Is checks.
var (
	ErrColumnNotFound = &AppError{Type: ErrTypeColumnNotFound}
	ErrDateParse      = &AppError{Type: ErrTypeDateParse}
	ErrPersistence    = &AppError{Type: ErrTypePersistence}
)

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewColumnNotFoundError reports that none of the candidate columns exist.
func NewColumnNotFoundError(candidates []string) *AppError {
	return NewAppError(ErrTypeColumnNotFound, "no date column found", nil).
		WithContext("candidates", candidates)
}

// NewDateParseError reports a column that no format could parse in full.
func NewDateParseError(column string, value string, cause error) *AppError {
	return NewAppError(ErrTypeDateParse, fmt.Sprintf("unable to parse dates in column %q", column), cause).
		WithContext("column", column).
		WithContext("value", value)
}

// NewPersistenceError wraps a blob store failure
func NewPersistenceError(operation string, cause error) *AppError {
	return NewAppError(ErrTypePersistence, fmt.Sprintf("persistence %s failed", operation), cause).
		WithContext("operation", operation)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain.
func TypeOf(err error) (ErrorType, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type, true
	}
	return "", false
}
