// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for Yomira ID.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Taxonomy: Every failure the token lifecycle can produce maps to exactly one Code,
    so callers can render consistent status codes without parsing message text.
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Error Codes

// Stable, enumerable identifiers for every failure kind in the token lifecycle.
const (
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeTooManyAttempts       = "TOO_MANY_ATTEMPTS"
	CodeExpiredToken          = "EXPIRED_TOKEN"
	CodeMalformedToken        = "MALFORMED_TOKEN"
	CodeWrongTokenType        = "WRONG_TOKEN_TYPE"
	CodeTokenRevoked          = "TOKEN_REVOKED"
	CodeNotAuthenticated      = "NOT_AUTHENTICATED"
	CodeDependencyUnavailable = "DEPENDENCY_UNAVAILABLE"
	CodeStorageFailure        = "STORAGE_FAILURE"
	CodeNotFound              = "NOT_FOUND"
	CodeConflict              = "CONFLICT"
	CodeForbidden             = "FORBIDDEN"
	CodeValidationError       = "VALIDATION_ERROR"
	CodeInternal              = "INTERNAL_ERROR"
)

// AppError is the canonical error type for the Yomira ID API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "TOKEN_REVOKED").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Credential Failures (4xx)

// InvalidCredentials creates a 401 [AppError] for a failed credential check.
// The message is deliberately generic to prevent account enumeration.
func InvalidCredentials() *AppError {
	return &AppError{
		Code:       CodeInvalidCredentials,
		Message:    "Invalid login credentials",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// TooManyAttempts creates a 429 [AppError] when the failed-attempt throttle
// blocks further credential checks for a principal.
func TooManyAttempts(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       CodeTooManyAttempts,
		Message:    fmt.Sprintf("Too many failed attempts. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// # Token Failures (4xx)

// ExpiredToken creates a 401 [AppError] for a token past its embedded expiry.
func ExpiredToken() *AppError {
	return &AppError{
		Code:       CodeExpiredToken,
		Message:    "Token expired",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// MalformedToken creates a 401 [AppError] for a token that failed structural
// or signature validation. The parse error is kept server-side only.
func MalformedToken(cause error) *AppError {
	return &AppError{
		Code:       CodeMalformedToken,
		Message:    "Invalid token",
		HTTPStatus: http.StatusUnauthorized,
		Cause:      cause,
	}
}

// WrongTokenType creates a 401 [AppError] for a type-discriminator mismatch.
func WrongTokenType(got, want string) *AppError {
	return &AppError{
		Code:       CodeWrongTokenType,
		Message:    fmt.Sprintf("Invalid token type %q, expected %q", got, want),
		HTTPStatus: http.StatusUnauthorized,
	}
}

// TokenRevoked creates a 401 [AppError] for a refresh token that has already
// been rotated or explicitly revoked.
func TokenRevoked() *AppError {
	return &AppError{
		Code:       CodeTokenRevoked,
		Message:    "Token has been revoked",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NotAuthenticated creates a 401 [AppError] for requests lacking a valid
// session or bearer token.
func NotAuthenticated(msg string) *AppError {
	return &AppError{
		Code:       CodeNotAuthenticated,
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Principal") // Returns "Principal not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Forbidden creates a 403 [AppError].
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       CodeValidationError,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// # Server & Dependency Errors (5xx)

// DependencyUnavailable creates a 503 [AppError] for a remote collaborator
// (user directory) that timed out or returned an error status.
func DependencyUnavailable(dependency string, cause error) *AppError {
	return &AppError{
		Code:       CodeDependencyUnavailable,
		Message:    dependency + " is unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// StorageFailure creates a 500 [AppError] for a durable-storage commit or
// rollback failure. Never swallowed: the transaction has been rolled back
// and the caller must treat the operation as not having happened.
func StorageFailure(cause error) *AppError {
	return &AppError{
		Code:       CodeStorageFailure,
		Message:    "Storage operation failed",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries the given machine-readable code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
