package lerr

import (
	"errors"
	"fmt"
)

// Code represents a stable error category that callers can switch on.
type Code string

const (
	CodeUnknown        Code = "unknown"
	CodeNetwork        Code = "network"
	CodeUnauthorized   Code = "unauthorized"
	CodeSessionExpired Code = "session_expired"
	CodeValidation     Code = "validation"
	CodeServer         Code = "server"
)

// Error carries a Code, the HTTP status when there was a response, the
// server's message verbatim, and the underlying error.
type Error struct {
	Code    Code
	Status  int
	Message string
	err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.err)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// New wraps an error with the provided code. If err is nil a nil is returned.
func New(code Code, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, err: err}
}

// FromStatus builds an error for a non-2xx response.
func FromStatus(status int, message string) *Error {
	return &Error{Code: CodeForStatus(status), Status: status, Message: message}
}

// CodeForStatus maps an HTTP status to a Code.
func CodeForStatus(status int) Code {
	switch {
	case status == 401:
		return CodeUnauthorized
	case status >= 400 && status < 500:
		return CodeValidation
	case status >= 500:
		return CodeServer
	}
	return CodeUnknown
}

// Expired builds a session-expired error wrapping cause (may be nil).
func Expired(message string, cause error) *Error {
	return &Error{Code: CodeSessionExpired, Status: 401, Message: message, err: cause}
}

// IsCode helps callers compare codes without type assertions.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsAuth reports whether err means the caller has to log in again.
func IsAuth(err error) bool {
	return IsCode(err, CodeUnauthorized) || IsCode(err, CodeSessionExpired)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
