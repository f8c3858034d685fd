package errors

import (
	stderrors "errors"
	"fmt"
)

// FusionError is the structured error type for scorefusion.
// It provides rich context for error handling, logging, and user presentation.
type FusionError struct {
	// Code is the unique error code (e.g., "ERR_106_WEIGHTS_MISMATCH").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *FusionError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *FusionError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work against the sentinel values below.
func (e *FusionError) Is(target error) bool {
	if t, ok := target.(*FusionError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *FusionError) WithDetail(key, value string) *FusionError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *FusionError) WithSuggestion(suggestion string) *FusionError {
	e.Suggestion = suggestion
	return e
}

// Sentinels for errors.Is checks. Matching is by code only.
var (
	ErrUnknownTechnique       = &FusionError{Code: ErrCodeUnknownTechnique}
	ErrUnsupportedParameter   = &FusionError{Code: ErrCodeUnsupportedParameter}
	ErrInvalidParameter       = &FusionError{Code: ErrCodeInvalidParameter}
	ErrWeightsMismatch        = &FusionError{Code: ErrCodeWeightsMismatch}
	ErrBoundsMismatch         = &FusionError{Code: ErrCodeBoundsMismatch}
	ErrIncompatibleTechniques = &FusionError{Code: ErrCodeIncompatibleTechniques}
	ErrInvalidInput           = &FusionError{Code: ErrCodeInvalidInput}
	ErrSubQueryCountMismatch  = &FusionError{Code: ErrCodeSubQueryCountMismatch}
	ErrAlreadyProcessed       = &FusionError{Code: ErrCodeAlreadyProcessed}
	ErrExplanationMismatch    = &FusionError{Code: ErrCodeExplanationMismatch}
	ErrExplanationMissing     = &FusionError{Code: ErrCodeExplanationMissing}
)

// New creates a new FusionError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *FusionError {
	return &FusionError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Newf is New with a formatted message and no cause.
func Newf(code string, format string, args ...any) *FusionError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates a FusionError from an existing error.
// The error's message becomes the FusionError message.
func Wrap(code string, err error) *FusionError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *FusionError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *FusionError {
	return New(ErrCodeFileUnreadable, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *FusionError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *FusionError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the in-flight response.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var fe *FusionError
	if stderrors.As(err, &fe) {
		return fe.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a FusionError.
// Returns empty string if no FusionError is in the chain.
func GetCode(err error) string {
	var fe *FusionError
	if stderrors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// GetCategory extracts the category from a FusionError.
// Returns empty string if no FusionError is in the chain.
func GetCategory(err error) Category {
	var fe *FusionError
	if stderrors.As(err, &fe) {
		return fe.Category
	}
	return ""
}
