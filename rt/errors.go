package rt

import (
	"fmt"
)

// ErrorCode identifies the class of a runtime failure.
type ErrorCode int

// Stable error codes - do not change values.
const (
	CodeNotBlessed       ErrorCode = 1001 // RT1001: method call on an unblessed value
	CodeMethodNotFound   ErrorCode = 1002 // RT1002: no package in the hierarchy defines the method
	CodeNoPackage        ErrorCode = 1003 // RT1003: package-scoped operation without a current package
	CodeNotReference     ErrorCode = 1004 // RT1004: operation requires a reference
	CodeNotCallable      ErrorCode = 1005 // RT1005: value is neither a closure nor a native function
	CodeDoubleFree       ErrorCode = 1006 // RT1006: refcount dropped below zero
	CodeUseAfterFree     ErrorCode = 1007 // RT1007: incref of a value that was already freed
	CodeCorruptBless     ErrorCode = 1008 // RT1008: blessed tag on a non-reference
	CodeNoMethodContext  ErrorCode = 1009 // RT1009: SUPER dispatch outside of a method
	CodeOutOfRange       ErrorCode = 1010 // RT1010: numeric conversion or offset out of range
	CodeBadRegex         ErrorCode = 1011 // RT1011: regex failed to compile
	CodeStructLayout     ErrorCode = 1012 // RT1012: native struct definition misuse
	CodeUnknownSnapshot  ErrorCode = 1013 // RT1013: snapshot record with an unknown kind
	CodeUnsupportedValue ErrorCode = 1999 // RT1999: value kind not supported by the operation
)

// String returns the code as "RT1001" format.
func (c ErrorCode) String() string {
	return fmt.Sprintf("RT%d", int(c))
}

// Error is a recoverable runtime failure surfaced to the host.
// Invariant violations (double free, use after free) panic with *Error.
type Error struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error carrying the same code, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrNotBlessed       = &Error{Code: CodeNotBlessed}
	ErrMethodNotFound   = &Error{Code: CodeMethodNotFound}
	ErrNoPackage        = &Error{Code: CodeNoPackage}
	ErrNotReference     = &Error{Code: CodeNotReference}
	ErrNotCallable      = &Error{Code: CodeNotCallable}
	ErrDoubleFree       = &Error{Code: CodeDoubleFree}
	ErrUseAfterFree     = &Error{Code: CodeUseAfterFree}
	ErrCorruptBless     = &Error{Code: CodeCorruptBless}
	ErrNoMethodContext  = &Error{Code: CodeNoMethodContext}
	ErrOutOfRange       = &Error{Code: CodeOutOfRange}
	ErrBadRegex         = &Error{Code: CodeBadRegex}
	ErrStructLayout     = &Error{Code: CodeStructLayout}
	ErrUnknownSnapshot  = &Error{Code: CodeUnknownSnapshot}
	ErrUnsupportedValue = &Error{Code: CodeUnsupportedValue}
)

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// fault reports a broken invariant. Tracers see it before the panic unwinds.
func fault(code ErrorCode, format string, args ...any) {
	err := newError(code, format, args...)
	traceFault(err)
	panic(err)
}
