package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("username or email already exists")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrBlobNotFound        = errors.New("blob not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrInvalidFile         = errors.New("invalid file")
	ErrNoConversionOutput  = errors.New("converter produced no output")
	ErrConverterNotPresent = errors.New("converter binary not available")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// ConversionError reports a failed run of the external converter. Output holds
// whatever diagnostics the tool printed.
type ConversionError struct {
	Input  string
	Output string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("conversion of %s failed: %v: %s", e.Input, e.Err, e.Output)
	}
	return fmt.Sprintf("conversion of %s failed: %v", e.Input, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
