package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeExtraction      = "EXTRACTION_ERROR"
	ErrCodeEmbeddingFormat = "EMBEDDING_FORMAT_ERROR"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// NewExtractionError records an unrecoverable per-source extraction failure.
// It always terminates the ingestion run for that source.
func NewExtractionError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeExtraction, message, err)
}

// NewEmbeddingFormatError records an unexpected response shape from an
// external embedding backend.
func NewEmbeddingFormatError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeEmbeddingFormat, message, err)
}

// NewValidationError creates a validation DomainError
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidation, message)
}

// IsExtractionError reports whether err is an extraction failure
func IsExtractionError(err error) bool {
	domainErr, ok := err.(*DomainError)
	return ok && domainErr.Code == ErrCodeExtraction
}

// Validation errors
var (
	ErrInvalidSourceKind       = NewDomainError(ErrCodeValidation, "invalid source kind")
	ErrInvalidSourceStatus     = NewDomainError(ErrCodeValidation, "invalid source status")
	ErrInvalidStatusTransition = NewDomainError(ErrCodeValidation, "invalid source status transition")
	ErrMissingTenant           = NewDomainError(ErrCodeUnauthorized, "tenant context is required")
)

// Not found errors
var (
	ErrSourceNotFound    = NewDomainError(ErrCodeNotFound, "knowledge source not found")
	ErrLLMConfigNotFound = NewDomainError(ErrCodeNotFound, "llm config not found")
)
