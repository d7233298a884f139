package asm

import "fmt"

// ErrorKind names one of the fixed diagnostic categories the matcher,
// classifiers, and module assembler can raise.
type ErrorKind string

const (
	UnexpectedEndOfLine ErrorKind = "UnexpectedEndOfLine"
	InvalidOperand       ErrorKind = "InvalidOperand"
	NoMatch               ErrorKind = "NoMatch"
	UnknownMnemonic       ErrorKind = "UnknownMnemonic"
	ImmediateOverflow     ErrorKind = "ImmediateOverflow"
	UnresolvedReference   ErrorKind = "UnresolvedReference"
	DuplicateLabel        ErrorKind = "DuplicateLabel"
)

// Error is the error type raised by the classifiers, the matcher, and the
// module assembler; encoding recipes never fail. Line/column is carried by the caller that
// has a Location available; the core itself only knows token positions.
type Error struct {
	Kind    ErrorKind
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// NewError builds a bare Error of the given kind.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error chaining a lower-level cause.
func Wrap(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Wrapped: cause}
}
