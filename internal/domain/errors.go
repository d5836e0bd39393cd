package domain

import (
	"errors"
	"fmt"
)

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

// Is matches another DomainError by code and message so wrapped sentinels
// still compare equal with errors.Is.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code && e.Message == other.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
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
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrEmptyTranscript        = NewDomainError(ErrCodeValidation, "transcript text is required")
	ErrInvalidMaxItems        = NewDomainError(ErrCodeValidation, "max_mcqs must be positive")
	ErrInvalidMinDistractors  = NewDomainError(ErrCodeValidation, "min_distractors must be between 0 and 3")
	ErrInvalidOptions         = NewDomainError(ErrCodeValidation, "invalid generator options")
	ErrInvalidJobStatus       = NewDomainError(ErrCodeValidation, "invalid generation job status")
	ErrInvalidQuestionSetStat = NewDomainError(ErrCodeValidation, "invalid question set status")
	ErrMissingRequiredField   = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidMCQ             = NewDomainError(ErrCodeValidation, "invalid mcq")
)

// Not found errors
var (
	ErrQuestionSetNotFound   = NewDomainError(ErrCodeNotFound, "question set not found")
	ErrGenerationJobNotFound = NewDomainError(ErrCodeNotFound, "generation job not found")
	ErrExportNotFound        = NewDomainError(ErrCodeNotFound, "export not available")
)

// Operation errors
var (
	ErrQuestionSetNotReady  = NewDomainError(ErrCodeInvalidOperation, "question set is not completed yet")
	ErrStorageNotConfigured = NewDomainError(ErrCodeInvalidOperation, "export storage not configured")
	ErrStorageOperationFail = NewDomainError(ErrCodeInternalError, "storage operation failed")
)

// Authorization errors
var (
	ErrInvalidAPIKey = NewDomainError(ErrCodeUnauthorized, "invalid api key")
)
