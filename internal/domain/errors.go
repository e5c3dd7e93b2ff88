package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for each failure class. Errors returned by decoders and the
// reconciler wrap one of these so callers can test with errors.Is.
var (
	ErrFormat = errors.New("format error")
	ErrIO     = errors.New("io error")
	ErrLookup = errors.New("lookup error")
	ErrState  = errors.New("state error")
)

// Error describes a failed operation on a tracking file.
type Error struct {
	Kind error  // one of the sentinels above
	Op   string // operation, e.g. "decode registry"
	Path string // file involved, may be empty
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the class sentinel and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// FormatErrorf builds a format error for a malformed structure.
func FormatErrorf(op, format string, args ...any) *Error {
	return &Error{Kind: ErrFormat, Op: op, Err: fmt.Errorf(format, args...)}
}

// LookupErrorf builds a lookup error for an unresolvable id.
func LookupErrorf(op, format string, args ...any) *Error {
	return &Error{Kind: ErrLookup, Op: op, Err: fmt.Errorf(format, args...)}
}

// StateError reports use of a value that never became ready.
func StateError(op string) *Error {
	return &Error{Kind: ErrState, Op: op, Err: errors.New("decoder not ready")}
}

// IOError wraps an open/read/close failure for path.
func IOError(op, path string, err error) *Error {
	return &Error{Kind: ErrIO, Op: op, Path: path, Err: err}
}
