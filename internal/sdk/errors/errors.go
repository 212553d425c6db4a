// Package errors provides the SDK error taxonomy without CLI-specific hints.
// The CLI layer wraps these with user-facing hints.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error is a structured error for SDK operations.
// Unlike output.Error, it does not contain CLI-specific hints.
type Error struct {
	Code       string         // Error code (e.g., "server_error", "auth_required")
	Message    string         // Error message
	HTTPStatus int            // HTTP status code if applicable
	Retryable  bool           // Whether the operation can be retried
	Cause      error          // Underlying error
	Context    map[string]any // Extra detail (job id, elapsed time)
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Error codes.
const (
	CodeUsage      = "usage"
	CodeNotFound   = "not_found"
	CodeAuth       = "auth_required"
	CodeRefresh    = "refresh_failed"
	CodeServer     = "server_error"
	CodeTransport  = "transport"
	CodeJobTimeout = "job_timeout"
)

// Exit codes.
const (
	ExitOK         = 0 // Success
	ExitUsage      = 1 // Invalid arguments or flags
	ExitNotFound   = 2 // Resource not found
	ExitAuth       = 3 // Not authenticated
	ExitRefresh    = 4 // Session could not be renewed
	ExitTransport  = 5 // Connection, HTTP or decode failure
	ExitServer     = 6 // Server returned a non-success envelope
	ExitJobTimeout = 7 // Job did not finish in time
)

// ExitCodeFor returns the exit code for a given error code.
func ExitCodeFor(code string) int {
	switch code {
	case CodeUsage:
		return ExitUsage
	case CodeNotFound:
		return ExitNotFound
	case CodeAuth:
		return ExitAuth
	case CodeRefresh:
		return ExitRefresh
	case CodeTransport:
		return ExitTransport
	case CodeServer:
		return ExitServer
	case CodeJobTimeout:
		return ExitJobTimeout
	default:
		return ExitServer
	}
}

// ServerErrorMessage is the fixed message for non-success envelopes.
const ServerErrorMessage = "Server responded with an error"

// Error constructors.

// ErrUsage creates a usage error.
func ErrUsage(msg string) *Error {
	return &Error{Code: CodeUsage, Message: msg}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, identifier string) *Error {
	return &Error{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found: %s", resource, identifier),
		HTTPStatus: 404,
	}
}

// ErrAuth creates an authentication error.
func ErrAuth(msg string) *Error {
	return &Error{
		Code:       CodeAuth,
		Message:    msg,
		HTTPStatus: 401,
	}
}

// ErrLogin creates an authentication error for a rejected login attempt.
func ErrLogin(cause error) *Error {
	return &Error{
		Code:    CodeAuth,
		Message: "Login failed",
		Cause:   cause,
	}
}

// ErrRefresh creates a refresh error. The session has already been cleared
// by the time this is returned.
func ErrRefresh(cause error) *Error {
	return &Error{
		Code:    CodeRefresh,
		Message: "Failed to refresh session",
		Cause:   cause,
	}
}

// ErrServer creates a server error for an envelope whose status is not "success".
func ErrServer(status string) *Error {
	return &Error{
		Code:    CodeServer,
		Message: ServerErrorMessage,
		Context: map[string]any{"status": status},
	}
}

// ErrTransport creates a transport error for a failed HTTP exchange.
func ErrTransport(status int, msg string) *Error {
	return &Error{
		Code:       CodeTransport,
		Message:    msg,
		HTTPStatus: status,
		Retryable:  status == 429 || status >= 500,
	}
}

// ErrNetwork creates a transport error for a connection-level failure.
func ErrNetwork(cause error) *Error {
	return &Error{
		Code:      CodeTransport,
		Message:   "Network error",
		Retryable: true,
		Cause:     cause,
	}
}

// ErrDecode creates a transport error for an undecodable response body.
func ErrDecode(cause error) *Error {
	return &Error{
		Code:    CodeTransport,
		Message: "Failed to decode response",
		Cause:   cause,
	}
}

// ErrJobTimeout creates a job timeout error naming the job and the time spent waiting.
func ErrJobTimeout(jobID string, elapsed time.Duration, cause error) *Error {
	return &Error{
		Code:    CodeJobTimeout,
		Message: fmt.Sprintf("Job %s did not complete within %s", jobID, elapsed.Round(time.Millisecond)),
		Cause:   cause,
		Context: map[string]any{
			"job_id":  jobID,
			"elapsed": elapsed,
		},
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err's chain holds an *Error with the given code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}

// IsAuth reports whether err is an authentication error.
func IsAuth(err error) bool { return IsCode(err, CodeAuth) }

// IsRefresh reports whether err is a refresh error.
func IsRefresh(err error) bool { return IsCode(err, CodeRefresh) }

// IsServer reports whether err is a server error.
func IsServer(err error) bool { return IsCode(err, CodeServer) }

// IsTransport reports whether err is a transport error.
func IsTransport(err error) bool { return IsCode(err, CodeTransport) }

// IsJobTimeout reports whether err is a job timeout error.
func IsJobTimeout(err error) bool { return IsCode(err, CodeJobTimeout) }
