// Package cerror provides the structured error type used across the
// framework: every raised failure carries a machine-matchable code,
// a human-readable detail and an optional data payload.
package cerror

import (
	"errors"
	"fmt"
)

// Error is a coded error
// Two Errors are considered equal by errors.Is when their codes match,
// so callers match failures by code rather than by message text
type Error struct {
	Code string
	Msg  string
	Data map[string]any
}

func New(code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// WithData returns a copy of the error with the payload attached
func (e *Error) WithData(data map[string]any) *Error {
	return &Error{Code: e.Code, Msg: e.Msg, Data: data}
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Code
	}
	return e.Code + ": " + e.Msg
}

func (e *Error) Is(target error) bool {
	var ce *Error
	if errors.As(target, &ce) {
		return ce.Code == e.Code
	}
	return false
}

// Code extracts the code from err, or returns an empty string
// when err is not a coded error
func Code(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
