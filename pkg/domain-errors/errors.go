// Package domainerrors defines coded errors shared by all ledger services.
//
// Stores return sentinel errors (pkg/platform/sentinel) describing infrastructure
// facts; services translate those into coded errors so transports and callers can
// branch on the code without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers and the HTTP layer.
type Code string

const (
	// CodeValidation marks missing or malformed input. Surfaced before any
	// side effect occurs.
	CodeValidation Code = "validation_error"
	// CodeNotFound marks an unknown network, contract, template, issuer,
	// token, listing, or DID.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized marks a caller that is not allowed to act on the
	// entity, e.g. a non-holder listing a token.
	CodeUnauthorized Code = "unauthorized"
	// CodeConflict marks a state conflict: listing not active, token in a
	// terminal state, or the losing side of a purchase race.
	CodeConflict Code = "state_conflict"
	// CodeExternal marks a failure or timeout in an external collaborator
	// (content store, signer, ledger connector).
	CodeExternal Code = "external_service_error"
	// CodeIntegrity marks a stored content address or proof that no longer
	// matches the recomputed value.
	CodeIntegrity Code = "integrity_error"
	// CodeInternal is the fallback for unexpected failures.
	CodeInternal Code = "internal_error"
)

// Error carries a code, a caller-safe message, and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. If err is already
// coded, the original code wins so translation at one layer is not clobbered
// by a blanket Wrap at a higher one.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	var coded *Error
	if errors.As(err, &coded) {
		code = coded.Code
	}
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf extracts the code from err, or CodeInternal if err is not coded.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// MessageOf returns the caller-safe message, or empty if err is not coded.
func MessageOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Message
	}
	return ""
}
