// Package errors provides structured error handling for scorefusion.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors (technique names, parameters, weights, bounds)
//   - 2XX: IO errors (pipeline and request files)
//   - 4XX: Validation errors (malformed result containers)
//   - 5XX: Data-consistency and internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryConsistency indicates data that disagrees with itself mid-pass.
	CategoryConsistency Category = "CONSISTENCY"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound         = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid          = "ERR_102_CONFIG_INVALID"
	ErrCodeUnknownTechnique       = "ERR_103_UNKNOWN_TECHNIQUE"
	ErrCodeUnsupportedParameter   = "ERR_104_UNSUPPORTED_PARAMETER"
	ErrCodeInvalidParameter       = "ERR_105_INVALID_PARAMETER"
	ErrCodeWeightsMismatch        = "ERR_106_WEIGHTS_MISMATCH"
	ErrCodeBoundsMismatch         = "ERR_107_BOUNDS_MISMATCH"
	ErrCodeIncompatibleTechniques = "ERR_108_INCOMPATIBLE_TECHNIQUES"

	// IO errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFileUnreadable = "ERR_202_FILE_UNREADABLE"

	// Validation errors (400-499)
	ErrCodeInvalidInput          = "ERR_401_INVALID_INPUT"
	ErrCodeSubQueryCountMismatch = "ERR_402_SUBQUERY_COUNT_MISMATCH"
	ErrCodeAlreadyProcessed      = "ERR_403_ALREADY_PROCESSED"

	// Consistency and internal errors (500-599)
	ErrCodeInternal            = "ERR_501_INTERNAL"
	ErrCodeExplanationMismatch = "ERR_502_EXPLANATION_MISMATCH"
	ErrCodeExplanationMissing  = "ERR_503_EXPLANATION_MISSING"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	numStr := code[4:7]

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	case '5':
		if code == ErrCodeInternal {
			return CategoryInternal
		}
		return CategoryConsistency
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeExplanationMismatch, ErrCodeExplanationMissing, ErrCodeAlreadyProcessed:
		return SeverityFatal
	}
	return SeverityError
}
