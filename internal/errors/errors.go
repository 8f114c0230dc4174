// Package errors defines the structured error type shared across the
// tracker: every failure carries a category for exit-code mapping, a
// severity for logging, and optional key/value context.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrorCategory classifies a failure by subsystem. The CLI adapter maps
// categories to exit codes; IsCategory lets callers branch without matching
// on message text.
type ErrorCategory string

const (
	// Problems with what the user asked for.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Problems with the durable medium or the bytes in it.
	CategoryStorage         ErrorCategory = "storage"
	CategorySerialization   ErrorCategory = "serialization"
	CategoryDeserialization ErrorCategory = "deserialization"

	// Problems with the reference schedule.
	CategoryCatalog ErrorCategory = "catalog"

	// Problems in watch mode or in the tracker itself.
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity grades how bad a failure is, from informational to fatal.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
	SeverityInfo    ErrorSeverity = "info"
)

// ContextFields carries structured key/value context on a TrackerError.
type ContextFields map[string]any

// TrackerError is the structured error used across the tracker.
type TrackerError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

func (e *TrackerError) Error() string {
	msg := fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the cause to the errors.Is and errors.As chain.
func (e *TrackerError) Unwrap() error {
	return e.Cause
}

// WithContext attaches one key/value pair and returns the error for chaining.
func (e *TrackerError) WithContext(key string, value any) *TrackerError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New builds a TrackerError with no cause.
func New(category ErrorCategory, severity ErrorSeverity, message string) *TrackerError {
	return &TrackerError{Category: category, Severity: severity, Message: message}
}

// Wrap builds a TrackerError around a cause.
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *TrackerError {
	te := New(category, severity, message)
	te.Cause = err
	return te
}

// Retryable builds a TrackerError marked safe to retry.
func Retryable(category ErrorCategory, severity ErrorSeverity, message string) *TrackerError {
	te := New(category, severity, message)
	te.Retryable = true
	return te
}

// WrapError wraps a cause at the default error severity.
func WrapError(err error, category ErrorCategory, message string) *TrackerError {
	return Wrap(err, category, SeverityError, message)
}

// IsCategory reports whether err, anywhere along its chain, is a
// TrackerError of the given category. The outermost TrackerError decides.
func IsCategory(err error, category ErrorCategory) bool {
	var te *TrackerError
	if stdErrors.As(err, &te) {
		return te.Category == category
	}
	return false
}

// IsRetryable reports whether err is marked safe to retry.
func IsRetryable(err error) bool {
	var te *TrackerError
	if stdErrors.As(err, &te) {
		return te.Retryable
	}
	return false
}
