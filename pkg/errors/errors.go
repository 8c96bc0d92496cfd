// Package errors provides structured error types for the Sleever engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and embedding applications
//   - Machine-readable error codes for programmatic handling
//   - Per-element fault classification during a placement run
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes map one-to-one onto the engine's fault taxonomy. Most of them mark
// per-element outcomes that are counted and logged but never abort a run:
//   - GEOMETRY_UNAVAILABLE: no retrievable solid or curve for an element
//   - NO_INTERSECTION: no structural host crosses the routing element
//   - MISSING_TEMPLATE: no opening template registered for a host/category pair
//   - SUPPRESSED_DUPLICATE: a policy outcome, not a failure
//   - CREATION_FAILURE: opening instantiation failed or vanished post-creation
//
// Only TRANSACTION_FAILED is fatal for a whole run.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMissingTemplate, "no template for %s/%s", kind, cat)
//	if errors.Is(err, errors.ErrCodeMissingTemplate) {
//	    // Skip the item, surface an end-of-run warning
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(origErr, errors.ErrCodeCreationFailure, "create opening at %v", pt)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different fault categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidCategory Code = "INVALID_CATEGORY"
	ErrCodeInvalidHostKind Code = "INVALID_HOST_KIND"
	ErrCodeInvalidProfile  Code = "INVALID_PROFILE"

	// Per-element outcomes (counted, never fatal)
	ErrCodeGeometryUnavailable Code = "GEOMETRY_UNAVAILABLE"
	ErrCodeNoIntersection      Code = "NO_INTERSECTION"
	ErrCodeMissingTemplate     Code = "MISSING_TEMPLATE"
	ErrCodeSuppressedDuplicate Code = "SUPPRESSED_DUPLICATE"
	ErrCodeCreationFailure     Code = "CREATION_FAILURE"
	ErrCodeDegenerateCluster   Code = "DEGENERATE_CLUSTER"

	// Store and run-scope errors
	ErrCodeTransactionFailed Code = "TRANSACTION_FAILED"
	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeInternal          Code = "INTERNAL_ERROR"
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

// Wrap creates a new Error wrapping an existing error. The cause comes
// first, mirroring how call sites read: wrap this error with that code.
func Wrap(cause error, code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
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

// IsElementFault reports whether err is a per-element outcome that a
// placement run should count and continue past rather than abort on.
func IsElementFault(err error) bool {
	switch GetCode(err) {
	case ErrCodeGeometryUnavailable,
		ErrCodeNoIntersection,
		ErrCodeMissingTemplate,
		ErrCodeSuppressedDuplicate,
		ErrCodeCreationFailure,
		ErrCodeDegenerateCluster:
		return true
	}
	return false
}
