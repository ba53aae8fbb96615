// Package domainerrors provides coded errors shared by the client packages.
//
// A coded error carries a stable machine-readable Code next to a human message,
// so callers branch on HasCode instead of matching strings:
//
//	if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
//		// session is gone, send the user back to login
//	}
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is a stable identifier for a class of failure.
type Code string

// Transfer workflow taxonomy.
const (
	CodeInvalidAmount     Code = "invalid_amount"
	CodeNonPositiveAmount Code = "non_positive_amount"
	CodeUnknownAccount    Code = "unknown_account"
	CodeUnknownPayee      Code = "unknown_payee"
	CodeUnauthorized      Code = "unauthorized"
	CodeRequestFailed     Code = "request_failed"
	CodeResponseMalformed Code = "response_malformed"
)

// Generic codes.
const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal_error"
)

// Error is a coded error. Err is optional and preserved for errors.Is/As.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the outermost code in the chain, or "" for uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// HasCode reports whether any coded error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is an alias of HasCode kept for call sites that read better as a predicate.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}
