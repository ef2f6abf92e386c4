// Package apierror defines the typed errors that cross layer boundaries and
// their mapping to HTTP statuses. Services and handlers construct these;
// pkg/httputil turns them into the uniform response envelope.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable error code included in every error envelope.
type Code string

const (
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeInvalidJSON        Code = "INVALID_JSON"
	CodeInvalidID          Code = "INVALID_ID"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeInvalidToken       Code = "INVALID_TOKEN"
	CodeTokenExpired       Code = "TOKEN_EXPIRED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodeDuplicateEntry     Code = "DUPLICATE_ENTRY"
	CodePayloadTooLarge    Code = "PAYLOAD_TOO_LARGE"
	CodeFileTooLarge       Code = "FILE_TOO_LARGE"
	CodeTooManyFiles       Code = "TOO_MANY_FILES"
	CodeUnexpectedField    Code = "UNEXPECTED_FIELD"
	CodeNotEnabled         Code = "NOT_ENABLED"
	CodeUnavailable        Code = "SERVICE_UNAVAILABLE"
	CodeGatewayTimeout     Code = "GATEWAY_TIMEOUT"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// statusByCode maps error codes to HTTP statuses. Codes missing from the map
// fall back to 500 so an unmapped code can never leak a 200.
var statusByCode = map[Code]int{
	CodeBadRequest:         http.StatusBadRequest,
	CodeInvalidJSON:        http.StatusBadRequest,
	CodeInvalidID:          http.StatusBadRequest,
	CodeValidation:         http.StatusUnprocessableEntity,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeInvalidCredentials: http.StatusUnauthorized,
	CodeInvalidToken:       http.StatusUnauthorized,
	CodeTokenExpired:       http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeNotFound:           http.StatusNotFound,
	CodeConflict:           http.StatusConflict,
	CodeDuplicateEntry:     http.StatusConflict,
	CodePayloadTooLarge:    http.StatusRequestEntityTooLarge,
	CodeFileTooLarge:       http.StatusBadRequest,
	CodeTooManyFiles:       http.StatusBadRequest,
	CodeUnexpectedField:    http.StatusBadRequest,
	CodeNotEnabled:         http.StatusNotImplemented,
	CodeUnavailable:        http.StatusServiceUnavailable,
	CodeGatewayTimeout:     http.StatusGatewayTimeout,
	CodeInternal:           http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for a code.
func StatusFor(code Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FieldError describes a single failed field in a validation error.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Error is a typed API error. The zero Details value is omitted from the
// envelope.
type Error struct {
	Code    Code
	Message string
	Details any

	cause error
}

// New constructs an API error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs an API error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an API error that preserves the underlying cause for
// errors.Is / errors.As chains and server-side logging.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// WithDetails attaches structured details to the error and returns it.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// Status returns the HTTP status for the error's code.
func (e *Error) Status() int {
	return StatusFor(e.Code)
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Validation builds a 422 error from per-field failures.
func Validation(fields ...FieldError) *Error {
	return New(CodeValidation, "Validation failed").WithDetails(fields)
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}
