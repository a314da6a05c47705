// Package errors provides custom error types for the minigpt completion client.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common cases
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrEmptyCredential   = errors.New("empty credential")
	ErrEmptyMessage      = errors.New("empty message")
	ErrInvalidResponse   = errors.New("invalid response format")
	ErrAuthFailed        = errors.New("authentication failed")
)

// APIError represents a non-success response from the completion endpoint.
// Message is the human-readable reason shown to the user: either the
// server-provided error.message or "HTTP <code>: <status text>".
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// Is allows comparison with sentinel errors
func (e *APIError) Is(target error) bool {
	if target == ErrAuthFailed {
		return e.StatusCode == 401 || e.StatusCode == 403
	}
	_, ok := target.(*APIError)
	return ok
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, status, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Status:     status,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// NewAPIErrorWithBody creates a new APIError that keeps the raw response
// body for diagnostics.
func NewAPIErrorWithBody(statusCode int, status, endpoint, message, body string) *APIError {
	e := NewAPIError(statusCode, status, endpoint, message)
	e.Body = body
	return e
}

// ParseError represents a response parsing error
type ParseError struct {
	Message string
	Path    string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: missing %s", ErrInvalidResponse, e.Path)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidResponse, e.Message)
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// NewParseError creates a new ParseError
func NewParseError(message, path string) *ParseError {
	return &ParseError{Message: message, Path: path}
}

// NetworkError represents a transport failure before any response arrived.
type NetworkError struct {
	Operation string
	Endpoint  string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(operation, endpoint string, err error) *NetworkError {
	return &NetworkError{Operation: operation, Endpoint: endpoint, Err: err}
}

// IsAuthError reports whether err is an authentication failure (401/403).
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthFailed)
}

// IsNetworkError reports whether err is a transport failure.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsTimeoutError reports whether err looks like a transport timeout.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	var t interface{ Timeout() bool }
	if errors.As(err, &t) && t.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded")
}

// GetHTTPStatus returns the HTTP status carried by err, or 0.
func GetHTTPStatus(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}

// Reason returns the human-readable failure text shown in the chat log.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Error()
	}
	return err.Error()
}
