package booking

import (
	"errors"
	"fmt"
)

// Code classifies why a booking stage failed. Retryability is a property of
// the code, never of the message text.
type Code string

const (
	CodeNoCredentials Code = "no_credentials"
	CodeLoginFailed   Code = "login_failed"
	CodeMissingToken  Code = "missing_token"
	CodeValidation    Code = "validation"
	CodeAuth          Code = "auth"
	CodeForbidden     Code = "forbidden"
	CodeTransport     Code = "transport"
	CodeUnknownVenue  Code = "unknown_venue"
)

// Retryable reports whether another strategy may be attempted after a failure
// with this code. Only transport-level failures qualify; credential, token and
// venue business-rule rejections are terminal.
func (c Code) Retryable() bool {
	return c == CodeTransport
}

// Error is a classified booking failure.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsError attempts to unwrap err into a booking *Error.
func AsError(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// Outcome is the three-way result of a booking attempt. The portals offer no
// reliable confirmation channel, so "no failure detected" is kept distinct
// from positively confirmed success.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeSuccess
	OutcomeUnverified
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeUnverified:
		return "unverified"
	default:
		return "failed"
	}
}

// Result is what a booking strategy reports back to the executor.
type Result struct {
	Outcome Outcome
	Message string
	Code    Code // set when Outcome is OutcomeFailed
}
