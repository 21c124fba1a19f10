// Package errors provides standardized error handling for the CRM API surface.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeAuthenticationError ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeSessionInvalid      ErrorCode = "SESSION_INVALID"
	ErrCodeUserExists          ErrorCode = "USER_EXISTS"
	ErrCodeUserNotFound        ErrorCode = "USER_NOT_FOUND"

	ErrCodeCredentialsNotFound ErrorCode = "CREDENTIALS_NOT_FOUND"
	ErrCodeTemplateNotFound    ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeInstanceNotFound    ErrorCode = "INSTANCE_NOT_FOUND"

	ErrCodeGatewayError       ErrorCode = "GATEWAY_ERROR"
	ErrCodeGatewayUnreachable ErrorCode = "GATEWAY_UNREACHABLE"

	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable request validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthenticationError creates a non-retryable authentication error.
func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthenticationError,
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionInvalidError creates a non-retryable session error.
func NewSessionInvalidError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionInvalid,
		Message:   "Session is missing or expired",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserExistsError creates a non-retryable duplicate user error.
func NewUserExistsError(email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUserExists,
		Message:   "User already registered",
		Details:   fmt.Sprintf("email: %s", email),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserNotFoundError creates a non-retryable missing user error.
func NewUserNotFoundError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUserNotFound,
		Message:   "User not found",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCredentialsNotFoundError creates a non-retryable missing credential error.
// Dispatch treats this as a whole-batch precondition failure.
func NewCredentialsNotFoundError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCredentialsNotFound,
		Message:   "No gateway credentials configured for user",
		Details:   fmt.Sprintf("userId: %s", userID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError creates a non-retryable template error.
func NewTemplateNotFoundError(templateID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Template not found",
		Details:   fmt.Sprintf("templateId: %s", templateID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInstanceNotFoundError creates a non-retryable instance resolution error.
func NewInstanceNotFoundError(hint string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInstanceNotFound,
		Message:   "No gateway instance matched the request",
		Details:   hint,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGatewayError creates a retryable upstream gateway error.
func NewGatewayError(httpStatus int, body string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGatewayError,
		Message:   "Upstream gateway returned an error",
		Details:   fmt.Sprintf("status: %d, body: %s", httpStatus, body),
		Retryable: true,
		Metadata:  map[string]interface{}{"upstreamStatus": httpStatus},
		Timestamp: time.Now().UTC(),
	}
}

// NewGatewayUnreachableError creates a retryable transport-level gateway error.
func NewGatewayUnreachableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGatewayUnreachable,
		Message:   "Upstream gateway unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseError creates a retryable database error.
func NewDatabaseError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseError,
		Message:   "Database operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternalError,
		Message:   "Internal server error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP Status Mapping
// ==========================

// httpStatusMapping maps internal error codes to HTTP response statuses.
var httpStatusMapping = map[ErrorCode]int{
	ErrCodeValidationFailed:    http.StatusBadRequest,
	ErrCodeAuthenticationError: http.StatusUnauthorized,
	ErrCodeSessionInvalid:      http.StatusUnauthorized,
	ErrCodeUserExists:          http.StatusConflict,
	ErrCodeUserNotFound:        http.StatusNotFound,
	ErrCodeCredentialsNotFound: http.StatusNotFound,
	ErrCodeTemplateNotFound:    http.StatusNotFound,
	ErrCodeInstanceNotFound:    http.StatusNotFound,
	ErrCodeGatewayError:        http.StatusBadGateway,
	ErrCodeGatewayUnreachable:  http.StatusInternalServerError,
	ErrCodeDatabaseError:       http.StatusInternalServerError,
	ErrCodeInternalError:       http.StatusInternalServerError,
}

// HTTPStatus returns the HTTP response status for an error code.
func HTTPStatus(code ErrorCode) int {
	if status, exists := httpStatusMapping[code]; exists {
		return status
	}
	return http.StatusInternalServerError
}

// FromError converts any error to a StandardError for API rendering.
func FromError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return NewInternalError(err)
}

// A gateway error carrying an upstream status of 4xx or higher keeps that
// status on the API surface; anything else degrades to 502.
func (e *StandardError) UpstreamHTTPStatus() int {
	if e.Code != ErrCodeGatewayError {
		return HTTPStatus(e.Code)
	}
	if raw, ok := e.Metadata["upstreamStatus"]; ok {
		if status, ok := raw.(int); ok && status >= 400 {
			return status
		}
	}
	return http.StatusBadGateway
}
