// Package errors provides structured error types for the fluidcad document model.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the core, CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The document model raises five domain codes:
//   - TYPE_MISMATCH: a parameter accessed as the wrong kind, or a value outside its bounds
//   - UNKNOWN_PARAMETER: a key not declared by the owning type definition
//   - INVALID_REFERENCE: a malformed component/port reference or target
//   - UNRESOLVED_FEATURE: a feature id that the device cannot resolve
//   - MALFORMED_GEOMETRY: waypoint lists that cannot form a route
//
// The remaining codes cover input, lookup and internal failures.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeTypeMismatch, "parameter %q is %s, not Point", key, kind)
//	if errors.Is(err, errors.ErrCodeTypeMismatch) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Document model errors
	ErrCodeTypeMismatch      Code = "TYPE_MISMATCH"
	ErrCodeUnknownParameter  Code = "UNKNOWN_PARAMETER"
	ErrCodeInvalidReference  Code = "INVALID_REFERENCE"
	ErrCodeUnresolvedFeature Code = "UNRESOLVED_FEATURE"
	ErrCodeMalformedGeometry Code = "MALFORMED_GEOMETRY"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Lookup errors
	ErrCodeNotFound  Code = "NOT_FOUND"
	ErrCodeDuplicate Code = "DUPLICATE"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code;
// the outermost *Error decides.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Unsupported reports an operation that exists in the API but is not
// available for the given subject. Callers can tell it apart from real
// faults with Is(err, ErrCodeUnsupported).
func Unsupported(op, subject string) *Error {
	return New(ErrCodeUnsupported, "%s is not supported for %s", op, subject)
}
