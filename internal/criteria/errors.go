package criteria

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes builder errors.
type ErrorCode string

const (
	// CodeInvalidNavigation indicates navigation past a basic type.
	CodeInvalidNavigation ErrorCode = "INVALID_NAVIGATION"

	// CodeNoSuchAttribute indicates an attribute lookup failed.
	CodeNoSuchAttribute ErrorCode = "NO_SUCH_ATTRIBUTE"

	// CodeUnsupported indicates an operation with no lowering.
	CodeUnsupported ErrorCode = "UNSUPPORTED_OPERATION"

	// CodeDegeneratePath indicates a root path with neither attribute nor alias.
	CodeDegeneratePath ErrorCode = "DEGENERATE_PATH"

	// CodeInvalidLiteral indicates a Go value with no literal form.
	CodeInvalidLiteral ErrorCode = "INVALID_LITERAL"

	// CodeInvalidTreat indicates a downcast to a type that is not a subtype.
	CodeInvalidTreat ErrorCode = "INVALID_TREAT"

	// CodeNotBindable indicates a path whose attribute cannot be its model.
	CodeNotBindable ErrorCode = "NOT_BINDABLE"

	// CodeInvalidQuery indicates a query that cannot be compiled.
	CodeInvalidQuery ErrorCode = "INVALID_QUERY"
)

// Error is a builder error.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the builder operation that failed, e.g. "Path.GetByName".
	Op string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Sentinels for errors.Is. They match any *Error with the same code.
var (
	ErrInvalidNavigation = &Error{Code: CodeInvalidNavigation}
	ErrNoSuchAttribute   = &Error{Code: CodeNoSuchAttribute}
	ErrUnsupported       = &Error{Code: CodeUnsupported}
	ErrDegeneratePath    = &Error{Code: CodeDegeneratePath}
	ErrInvalidLiteral    = &Error{Code: CodeInvalidLiteral}
)

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel with e's code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Op == "" && t.Message == "" && t.Code == e.Code
}

// IsInvalidNavigation returns true if err is a navigation past a basic type.
// Uses errors.As to handle wrapped errors.
func IsInvalidNavigation(err error) bool {
	return hasCode(err, CodeInvalidNavigation)
}

// IsUnsupported returns true if err is an unsupported operation.
func IsUnsupported(err error) bool {
	return hasCode(err, CodeUnsupported)
}

// IsNoSuchAttribute returns true if err is a failed attribute lookup.
func IsNoSuchAttribute(err error) bool {
	return hasCode(err, CodeNoSuchAttribute)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

func unsupported(op string) error {
	return &Error{
		Code:    CodeUnsupported,
		Op:      op,
		Message: "not implemented by the expression tree",
	}
}
