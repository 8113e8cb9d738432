package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeMissingPassword ErrorType = "password_missing"
	ErrorTypeInvalidPassword ErrorType = "password_invalid"
	ErrorTypePageExtraction  ErrorType = "page_extraction"
	ErrorTypeTableExtraction ErrorType = "table_extraction"
	ErrorTypeRecognition     ErrorType = "recognition_unavailable"
	ErrorTypeCacheCorruption ErrorType = "cache_corruption"
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeIO              ErrorType = "io"
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func MissingPasswordError(message string) *DomainError {
	return NewError(ErrorTypeMissingPassword, message, nil)
}

func InvalidPasswordError(message string, err error) *DomainError {
	return NewError(ErrorTypeInvalidPassword, message, err)
}

func PageExtractionError(message string, err error) *DomainError {
	return NewError(ErrorTypePageExtraction, message, err)
}

func TableExtractionError(message string, err error) *DomainError {
	return NewError(ErrorTypeTableExtraction, message, err)
}

func RecognitionUnavailableError(message string) *DomainError {
	return NewError(ErrorTypeRecognition, message, nil)
}

func CacheCorruptionError(message string, err error) *DomainError {
	return NewError(ErrorTypeCacheCorruption, message, err)
}

func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}

// hasType reports whether err is a DomainError of the given type.
func hasType(err error, t ErrorType) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type == t
	}
	return false
}

// IsMissingPassword reports whether err is a missing-password failure.
func IsMissingPassword(err error) bool {
	return hasType(err, ErrorTypeMissingPassword)
}

// IsInvalidPassword reports whether err is a rejected-password failure.
func IsInvalidPassword(err error) bool {
	return hasType(err, ErrorTypeInvalidPassword)
}

// IsCacheCorruption reports whether err is a corrupt cache entry.
func IsCacheCorruption(err error) bool {
	return hasType(err, ErrorTypeCacheCorruption)
}
