package gameerr

import (
	"errors"
	"fmt"
)

// Code is a stable caller-facing error code. Presentation layers key their
// messages off these values, so they must never be renamed.
type Code string

const (
	CodeValidation           Code = "validation"
	CodeNotFound             Code = "not_found"
	CodeNotAvailable         Code = "not_available"
	CodeAlreadyAccepted      Code = "already_accepted"
	CodeAlreadyCleared       Code = "already_cleared"
	CodeObjectiveMismatch    Code = "objective_mismatch"
	CodeInsufficientFunds    Code = "insufficient_funds"
	CodeInsufficientQuantity Code = "insufficient_quantity"
	CodeSlotsExhausted       Code = "slots_exhausted"
	CodeUndiscardable        Code = "undiscardable"
	CodeInstanceLocked       Code = "instance_locked"
)

// Error is a recoverable domain error. All game services report rule
// violations as *Error; anything else bubbling out of them is a storage
// failure.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// New creates a domain error with the given code.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf returns the domain code carried by err, or "" if err is not a
// domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Is reports whether err is a domain error with the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
