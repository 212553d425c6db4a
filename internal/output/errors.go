package output

import (
	"errors"
	"fmt"

	sdkerrors "github.com/oktotech/okto-go/internal/sdk/errors"
)

// Error is a structured error with code, message, and optional hint.
type Error struct {
	Code       string
	Message    string
	Hint       string
	HTTPStatus int
	Retryable  bool
	Cause      error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Hint)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *Error) ExitCode() int {
	return ExitCodeFor(e.Code)
}

// Error constructors for common cases.

func ErrUsage(msg string) *Error {
	return &Error{Code: CodeUsage, Message: msg}
}

func ErrUsageHint(msg, hint string) *Error {
	return &Error{Code: CodeUsage, Message: msg, Hint: hint}
}

func ErrNotFound(resource, identifier string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
	}
}

func ErrAuth(msg string) *Error {
	return &Error{
		Code:    CodeAuth,
		Message: msg,
		Hint:    "Run: okto auth login",
	}
}

// AsError converts err to an *Error. SDK errors keep their code and gain
// a hint; anything else is reported as a server error.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var se *sdkerrors.Error
	if errors.As(err, &se) {
		return fromSDK(se)
	}
	return &Error{
		Code:    CodeServer,
		Message: err.Error(),
		Cause:   err,
	}
}

func fromSDK(se *sdkerrors.Error) *Error {
	return &Error{
		Code:       se.Code,
		Message:    se.Error(),
		Hint:       hintFor(se),
		HTTPStatus: se.HTTPStatus,
		Retryable:  se.Retryable,
		Cause:      se,
	}
}

func hintFor(se *sdkerrors.Error) string {
	switch se.Code {
	case CodeAuth:
		return "Run: okto auth login"
	case CodeRefresh:
		return "Your session could not be renewed. Run: okto auth login"
	case CodeServer:
		if status, ok := se.Context["status"].(string); ok && status != "" {
			return fmt.Sprintf("Response status was %q", status)
		}
		return ""
	case CodeTransport:
		switch {
		case se.HTTPStatus == 429:
			return "Try again later"
		case se.HTTPStatus == 0 && se.Retryable:
			return "Check your connection and the --env / --base-url settings"
		case se.Retryable:
			return "The request can be retried"
		}
		return ""
	case CodeJobTimeout:
		if id, ok := se.Context["job_id"].(string); ok && id != "" {
			return fmt.Sprintf("Job %s may still finish. Query its status again later", id)
		}
		return "The job may still finish. Check its status later"
	}
	return ""
}
