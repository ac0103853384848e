package errs

import (
	"fmt"
)

// Kind enumerates every failure class a caller can observe.
// The dispatcher guarantees no other error shape escapes to a caller.
type Kind string

const (
	NotFound            Kind = "NotFound"
	ParseError          Kind = "ParseError"
	Empty               Kind = "EmptyError"
	EmptyTable          Kind = "EmptyTableError"
	TypeMismatch        Kind = "TypeMismatchError"
	UnsupportedOperator Kind = "UnsupportedOperatorError"
	InvalidChartRequest Kind = "InvalidChartRequestError"
	UnknownOperation    Kind = "UnknownOperationError"
	InvalidArguments    Kind = "InvalidArgumentsError"
	Timeout             Kind = "TimeoutError"
	Internal            Kind = "InternalError"
)

// Error is the typed failure produced by every engine and surfaced
// by the dispatcher. Detail carries structured context such as the
// offending predicate index.
type Error struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Detail  map[string]any `json:"detail,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// With attaches a detail entry and returns the error for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Detail == nil {
		e.Detail = make(map[string]any)
	}
	e.Detail[key] = value
	return e
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewNotFound(path string) *Error {
	return New(NotFound, "dataset %q not found", path).With("path", path)
}

func NewParseError(path string, cause error) *Error {
	return New(ParseError, "dataset %q is not well-formed CSV: %v", path, cause).With("path", path)
}

func NewEmpty(path string) *Error {
	return New(Empty, "dataset %q has no data rows", path).With("path", path)
}

func NewEmptyTable() *Error {
	return New(EmptyTable, "table has zero rows")
}

func NewTypeMismatch(index int, column string, value any, wantType string) *Error {
	return New(TypeMismatch, "predicate %d: value %v cannot be coerced to %s (column %q)",
		index, value, wantType, column).With("predicate", index)
}

func NewUnsupportedOperator(index int, op, column, colType string) *Error {
	return New(UnsupportedOperator, "predicate %d: operator %q not defined for %s column %q",
		index, op, colType, column).With("predicate", index)
}

func NewInvalidChartRequest(constraint string) *Error {
	return New(InvalidChartRequest, "invalid chart request: %s", constraint).With("constraint", constraint)
}

func NewUnknownOperation(name string) *Error {
	return New(UnknownOperation, "unknown operation %q", name).With("operation", name)
}

func NewInvalidArguments(format string, args ...any) *Error {
	return New(InvalidArguments, format, args...)
}

func NewTimeout(what string) *Error {
	return New(Timeout, "%s timed out", what)
}

func NewInternal(cause any) *Error {
	return New(Internal, "internal error: %v", cause)
}

// AsError classifies an arbitrary error. Typed errors pass through
// unchanged; anything else becomes Internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return NewInternal(err)
}
