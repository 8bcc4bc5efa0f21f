package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryExtraction    ErrorCategory = "extraction"
	CategoryStorage       ErrorCategory = "storage"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeFileCorrupted  ErrorCode = "file_corrupted"

	// Parse errors
	CodeInvalidFormat  ErrorCode = "invalid_format"
	CodeEncodingError  ErrorCode = "encoding_error"
	CodeInvalidPayload ErrorCode = "invalid_payload"

	// Validation errors
	CodeUnknownCategory ErrorCode = "unknown_category"
	CodeUnknownBank     ErrorCode = "unknown_bank"
	CodeMissingField    ErrorCode = "missing_field"
	CodeInvalidValue    ErrorCode = "invalid_value"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"

	// Extraction errors
	CodeUnreadableDocument ErrorCode = "unreadable_document"
	CodeNoTextLayer        ErrorCode = "no_text_layer"

	// Storage errors
	CodeStoreUnavailable ErrorCode = "store_unavailable"
	CodeStoreWrite       ErrorCode = "store_write"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// CategorizerError is the base error type for all application errors
type CategorizerError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *CategorizerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *CategorizerError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *CategorizerError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryExtraction:
		return 5
	case CategoryStorage, CategoryInternal:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *CategorizerError) WithContext(key string, value interface{}) *CategorizerError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *CategorizerError) WithSuggestion(suggestion string) *CategorizerError {
	e.Suggestion = suggestion
	return e
}

// New creates a new CategorizerError
func New(category ErrorCategory, code ErrorCode, message string) *CategorizerError {
	return &CategorizerError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with CategorizerError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *CategorizerError {
	if err == nil {
		return nil
	}

	return &CategorizerError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func build(err error, category ErrorCategory, code ErrorCode, message string) *CategorizerError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *CategorizerError {
	var message, suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeFileCorrupted:
		message = fmt.Sprintf("file appears to be corrupted: %s", path)
		suggestion = "export the statement again from your bank and retry"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	return build(err, CategoryFile, code, message).
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error
func ParseError(code ErrorCode, source string, line int, err error) *CategorizerError {
	var message, suggestion string

	switch code {
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid format in %s at line %d", source, line)
		suggestion = "check the data format and ensure it matches the expected structure"
	case CodeEncodingError:
		message = fmt.Sprintf("encoding error in %s at line %d", source, line)
		suggestion = "ensure the file is saved in UTF-8 encoding"
	case CodeInvalidPayload:
		message = fmt.Sprintf("invalid payload in %s", source)
		suggestion = "provide a JSON object mapping merchant names to category ids"
	default:
		message = fmt.Sprintf("parse error in %s at line %d", source, line)
		suggestion = "check the file format and data integrity"
	}

	result := build(err, CategoryParse, code, message).
		WithSuggestion(suggestion).
		WithContext("source", source)
	if line > 0 {
		result.WithContext("line", line)
	}
	return result
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *CategorizerError {
	var message, suggestion string

	switch code {
	case CodeUnknownCategory:
		message = fmt.Sprintf("unknown category in field '%s': %v", field, value)
		suggestion = "use one of the category ids listed in the catalog"
	case CodeUnknownBank:
		message = fmt.Sprintf("unknown bank in field '%s': %v", field, value)
		suggestion = "use one of the supported bank ids or omit the flag for auto-detection"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	return build(err, CategoryValidation, code, message).
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *CategorizerError {
	message := fmt.Sprintf("invalid configuration for '%s': %v", setting, value)

	return build(err, CategoryConfiguration, code, message).
		WithSuggestion("check the configuration file and CATEGORIZER_* environment variables").
		WithContext("setting", setting).
		WithContext("value", value)
}

// ExtractionError creates an error for documents whose text cannot be extracted
func ExtractionError(code ErrorCode, path string, err error) *CategorizerError {
	var message, suggestion string

	switch code {
	case CodeUnreadableDocument:
		message = fmt.Sprintf("could not read statement document: %s", path)
		suggestion = "make sure the file is a valid, unencrypted PDF downloaded from your bank"
	case CodeNoTextLayer:
		message = fmt.Sprintf("statement document has no extractable text: %s", path)
		suggestion = "the PDF looks scanned; download the digital statement or export it as CSV"
	default:
		message = fmt.Sprintf("text extraction failed: %s", path)
		suggestion = "try exporting the statement as CSV instead"
	}

	return build(err, CategoryExtraction, code, message).
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// StorageError creates a key-value store error
func StorageError(code ErrorCode, location string, err error) *CategorizerError {
	var message, suggestion string

	switch code {
	case CodeStoreUnavailable:
		message = fmt.Sprintf("learned categories store unavailable: %s", location)
		suggestion = "check that no other process holds the store file and that the directory is writable"
	case CodeStoreWrite:
		message = fmt.Sprintf("failed to write learned categories to %s", location)
		suggestion = "check free disk space and file permissions"
	default:
		message = fmt.Sprintf("storage error: %s", location)
		suggestion = "try again"
	}

	return build(err, CategoryStorage, code, message).
		WithSuggestion(suggestion).
		WithContext("location", location)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *CategorizerError {
	message := fmt.Sprintf("unexpected error during %s", operation)

	return build(err, CategoryInternal, code, message).
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// AsCategorizerError extracts a CategorizerError from an error chain
func AsCategorizerError(err error) (*CategorizerError, bool) {
	var categorizerErr *CategorizerError
	if errors.As(err, &categorizerErr) {
		return categorizerErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain
func HasCode(err error, code ErrorCode) bool {
	categorizerErr, ok := AsCategorizerError(err)
	return ok && categorizerErr.Code == code
}
