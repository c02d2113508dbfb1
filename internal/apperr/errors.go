// Package apperr defines the application error taxonomy shared by the job
// service, the user directory and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code categorizes an application error.
type Code string

const (
	CodeValidation         Code = "validation"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeInvalidTransition  Code = "invalid_transition"
	CodeInvalidState       Code = "invalid_state"
	CodePreconditionFailed Code = "precondition_failed"
	CodeConflict           Code = "conflict"
	CodeInvalidReference   Code = "invalid_reference"
	CodeInternal           Code = "internal"
)

// Error is a structured application error with a code, a human readable
// message and an optional cause.
type Error struct {
	Code    Code
	Message string
	// Field names the offending input field for validation errors.
	Field string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// HTTPStatus returns the status code the error is rendered with.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation, CodeInvalidTransition, CodeInvalidState,
		CodePreconditionFailed, CodeInvalidReference:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func newf(code Code, format string, args ...any) *Error {
	if len(args) == 0 {
		return &Error{Code: code, Message: format}
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(format string, args ...any) *Error { return newf(CodeValidation, format, args...) }

// ValidationField creates a validation error for a specific input field.
func ValidationField(field, message string) *Error {
	return &Error{Code: CodeValidation, Message: message, Field: field}
}

func Unauthorized(format string, args ...any) *Error { return newf(CodeUnauthorized, format, args...) }

func Forbidden(format string, args ...any) *Error { return newf(CodeForbidden, format, args...) }

func NotFound(format string, args ...any) *Error { return newf(CodeNotFound, format, args...) }

func InvalidTransition(format string, args ...any) *Error {
	return newf(CodeInvalidTransition, format, args...)
}

func InvalidState(format string, args ...any) *Error { return newf(CodeInvalidState, format, args...) }

func PreconditionFailed(format string, args ...any) *Error {
	return newf(CodePreconditionFailed, format, args...)
}

func Conflict(format string, args ...any) *Error { return newf(CodeConflict, format, args...) }

func InvalidReference(format string, args ...any) *Error {
	return newf(CodeInvalidReference, format, args...)
}

// Wrap attaches a code and message to an existing error.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// CodeOf returns the code of err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

func IsNotFound(err error) bool { return Is(err, CodeNotFound) }

func IsConflict(err error) bool { return Is(err, CodeConflict) }

func IsValidation(err error) bool { return Is(err, CodeValidation) }

func IsForbidden(err error) bool { return Is(err, CodeForbidden) }
