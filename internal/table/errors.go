package table

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a table operation failure.
type ErrorCode string

const (
	ErrCodeInvalidName     ErrorCode = "invalid_name"
	ErrCodeTypeMismatch    ErrorCode = "type_mismatch"
	ErrCodeInvalidHandle   ErrorCode = "invalid_handle"
	ErrCodeHandleExhausted ErrorCode = "handle_exhausted"
	ErrCodeInstanceClosed  ErrorCode = "instance_closed"
)

// Error is the structured error returned by table operations. Every failure
// is synchronous and scoped to the offending call; no error here ever affects
// unrelated topics or subscribers.
type Error struct {
	Code    ErrorCode `json:"code"`
	Topic   string    `json:"topic,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

func errInvalidName(name, reason string) *Error {
	return &Error{
		Code:    ErrCodeInvalidName,
		Topic:   name,
		Message: fmt.Sprintf("invalid topic name %q: %s", name, reason),
	}
}

func errTypeMismatch(topic, committed, requested string) *Error {
	return &Error{
		Code:    ErrCodeTypeMismatch,
		Topic:   topic,
		Message: fmt.Sprintf("topic %q is bound to type %s, not %s", topic, committed, requested),
	}
}

func errInvalidHandle(what string) *Error {
	return &Error{
		Code:    ErrCodeInvalidHandle,
		Message: what + " handle is released or unknown",
	}
}

func errInstanceClosed() *Error {
	return &Error{
		Code:    ErrCodeInstanceClosed,
		Message: "instance is closed",
	}
}

// codeOf extracts the ErrorCode from err, or "" when err is not a table Error.
func codeOf(err error) ErrorCode {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// IsInvalidName reports whether err is an invalid-name failure.
func IsInvalidName(err error) bool { return codeOf(err) == ErrCodeInvalidName }

// IsTypeMismatch reports whether err is a type-mismatch failure.
func IsTypeMismatch(err error) bool { return codeOf(err) == ErrCodeTypeMismatch }

// IsInvalidHandle reports whether err is a use-after-release failure.
func IsInvalidHandle(err error) bool { return codeOf(err) == ErrCodeInvalidHandle }
