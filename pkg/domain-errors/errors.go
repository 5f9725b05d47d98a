// Package domainerrors defines the stable error codes the service exposes.
// Services wrap infrastructure errors with a code; transport translates the
// code to an HTTP status without inspecting the underlying cause.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, user-visible error class.
type Code string

const (
	// CodeBadRequest covers malformed or oversized input rejected at intake.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound covers references to documents or runs that do not exist.
	CodeNotFound Code = "not_found"
	// CodeUnreadableDocument covers documents with zero extractable pages.
	CodeUnreadableDocument Code = "unreadable_document"
	// CodeNoMatch covers free-text commands below the intent confidence bar.
	CodeNoMatch Code = "no_match"
	// CodeTimeout covers runs exceeding their wall-clock ceiling.
	CodeTimeout Code = "timeout"
	// CodeUnavailable covers infrastructure that should page an operator,
	// e.g. the standards store failing to load.
	CodeUnavailable Code = "unavailable"
	// CodeInternal is the fallback for everything else.
	CodeInternal Code = "internal_error"
)

// Error pairs a code with a human-readable description and an optional cause.
type Error struct {
	Code        Code
	Description string
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, description string) error {
	return &Error{Code: code, Description: description}
}

// Wrap attaches a code and description to an underlying error.
func Wrap(err error, code Code, description string) error {
	return &Error{Code: code, Description: description, cause: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnreadableDocument:
		return http.StatusUnprocessableEntity
	case CodeNoMatch:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
