package remote

import (
	"errors"
	"fmt"
)

// Codes follow the Postgres / PostgREST conventions so that both backends
// report the same condition the same way.
const (
	CodeNoRows              = "PGRST116"
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
	CodeUndefinedTable      = "42P01"
	CodeUndefinedColumn     = "42703"
	CodeUnfilteredMutation  = "21000"
	CodeInternal            = "XX000"
)

type ErrorKind int

const (
	// ErrorRemote means the store answered and refused the operation.
	ErrorRemote ErrorKind = iota
	// ErrorTransport means the store could not be reached or answered garbage.
	ErrorTransport
)

func (k ErrorKind) String() string {
	if k == ErrorTransport {
		return "transport"
	}
	return "remote"
}

// Error is returned by every Gateway operation that fails.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details string
	Hint    string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s error %s: %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func remoteError(code, format string, args ...any) *Error {
	return &Error{Kind: ErrorRemote, Code: code, Message: fmt.Sprintf(format, args...)}
}

func transportError(err error) *Error {
	return &Error{Kind: ErrorTransport, Message: err.Error(), Err: err}
}

// Code returns the remote error code carried by err, or "".
func Code(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

func IsNoRows(err error) bool { return Code(err) == CodeNoRows }

func IsUniqueViolation(err error) bool { return Code(err) == CodeUniqueViolation }

func IsTransport(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Kind == ErrorTransport
}
