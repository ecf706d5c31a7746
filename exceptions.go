package main

import (
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// Error codes
const (
	ErrConfiguration     goerrors.ErrorCode = "CONFIGURATION_ERROR"
	ErrUnknownTool       goerrors.ErrorCode = "UNKNOWN_TOOL"
	ErrUnknownTarget     goerrors.ErrorCode = "UNKNOWN_TARGET"
	ErrInvalidStep       goerrors.ErrorCode = "INVALID_STEP"
	ErrInvalidArgument   goerrors.ErrorCode = "INVALID_ARGUMENT"
	ErrRecursionLimit    goerrors.ErrorCode = "RECURSION_LIMIT"
	ErrUnterminatedToken goerrors.ErrorCode = "UNTERMINATED_TOKEN"
	ErrUnknownVariable   goerrors.ErrorCode = "UNKNOWN_VARIABLE"
	ErrCommandExecution  goerrors.ErrorCode = "COMMAND_EXECUTION"
	ErrFileSystem        goerrors.ErrorCode = "FILESYSTEM_ERROR"
)

var exceptions = map[goerrors.ErrorCode]string{
	ErrConfiguration:     "configuration error: %s",
	ErrUnknownTool:       "unknown build tool %q",
	ErrUnknownTarget:     "target %q not found",
	ErrInvalidStep:       "invalid build step: %s",
	ErrInvalidArgument:   "%s: %s",
	ErrRecursionLimit:    "maximum recursion depth %d reached in %s",
	ErrUnterminatedToken: "no end marker found after %q in %q",
	ErrUnknownVariable:   "unknown build variable %q",
	ErrCommandExecution:  "error in %s: %s (%s)",
	ErrFileSystem:        "%s %s",
}

// raise builds a coded error from the message table.
func raise(code goerrors.ErrorCode, args ...any) error {
	return goerrors.New(code, fmt.Sprintf(exceptions[code], args...))
}

// wrapErr attaches a code and message to an underlying failure.
func wrapErr(err error, code goerrors.ErrorCode, args ...any) error {
	return goerrors.Wrap(err, code, fmt.Sprintf(exceptions[code], args...))
}

// IsConfigurationError reports whether err belongs to the configuration
// family: malformed steps, unknown tools, bad arguments.
func IsConfigurationError(err error) bool {
	for _, code := range []goerrors.ErrorCode{ErrConfiguration, ErrUnknownTool, ErrUnknownTarget, ErrInvalidStep, ErrInvalidArgument} {
		if goerrors.HasCode(err, code) {
			return true
		}
	}
	return false
}
