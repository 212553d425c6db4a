// Package output provides JSON and styled terminal output and CLI error hints.
package output

import (
	sdkerrors "github.com/oktotech/okto-go/internal/sdk/errors"
)

// Exit codes, shared with the SDK error taxonomy.
const (
	ExitOK         = sdkerrors.ExitOK
	ExitUsage      = sdkerrors.ExitUsage
	ExitNotFound   = sdkerrors.ExitNotFound
	ExitAuth       = sdkerrors.ExitAuth
	ExitRefresh    = sdkerrors.ExitRefresh
	ExitTransport  = sdkerrors.ExitTransport
	ExitServer     = sdkerrors.ExitServer
	ExitJobTimeout = sdkerrors.ExitJobTimeout
)

// Error codes for the JSON envelope.
const (
	CodeUsage      = sdkerrors.CodeUsage
	CodeNotFound   = sdkerrors.CodeNotFound
	CodeAuth       = sdkerrors.CodeAuth
	CodeRefresh    = sdkerrors.CodeRefresh
	CodeServer     = sdkerrors.CodeServer
	CodeTransport  = sdkerrors.CodeTransport
	CodeJobTimeout = sdkerrors.CodeJobTimeout
)

// ExitCodeFor returns the exit code for a given error code.
// Unknown codes exit as server errors.
func ExitCodeFor(code string) int {
	return sdkerrors.ExitCodeFor(code)
}
