package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	// ErrBackendUnavailable marks a credential, network, or service failure of
	// an OCR backend. Recovered by falling back to the next backend; only
	// surfaced when every backend fails.
	ErrBackendUnavailable = errors.New("ocr backend unavailable")

	// ErrNoTextDetected means every backend returned zero tokens. Terminal for
	// the document, not retried.
	ErrNoTextDetected = errors.New("no text detected in image")

	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternal          = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
