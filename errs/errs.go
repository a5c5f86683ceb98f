// Package errs defines the error taxonomy shared by every mathflow engine.
//
// Every failure surfaced by an operation is an *Error carrying a Category.
// The category tells a caller whether the input was at fault (and should be
// corrected) or whether the engine reached the edge of what it can compute.
package errs

import (
	"errors"
	"fmt"
)

// Category classifies an *Error.
type Category string

const (
	ParseError                  Category = "ParseError"
	UnsupportedOperationError   Category = "UnsupportedOperationError"
	IntegrationUnsupportedError Category = "IntegrationUnsupportedError"
	ClosedFormUnavailableError  Category = "ClosedFormUnavailableError"
	LimitUndefinedError         Category = "LimitUndefinedError"
	DimensionError              Category = "DimensionError"
	RangeError                  Category = "RangeError"
	ExpressionTooLargeError     Category = "ExpressionTooLargeError"
	ComputationTimeoutError     Category = "ComputationTimeoutError"
)

// Categories lists every category in a stable order.
var Categories = []Category{
	ParseError,
	UnsupportedOperationError,
	IntegrationUnsupportedError,
	ClosedFormUnavailableError,
	LimitUndefinedError,
	DimensionError,
	RangeError,
	ExpressionTooLargeError,
	ComputationTimeoutError,
}

// ClientFault reports whether errors of this category are caused by the
// request itself rather than by a limitation of the engine.
func (c Category) ClientFault() bool {
	switch c {
	case ParseError, DimensionError, RangeError, ExpressionTooLargeError:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

// Error is the error type returned by all engines.
//
// Pos is the byte offset of the offending token for parse errors and -1
// otherwise. Input is the source text, when known.
type Error struct {
	Category Category
	Msg      string
	Input    string
	Pos      int

	// The underlying error that triggered this one, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Pos >= 0 {
		msg = fmt.Sprintf("%s at position %d", msg, e.Pos)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by category so that errors.Is(err, &Error{Category: c})
// works as a category test.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Category == e.Category
}

// New creates an error of the given category.
func New(c Category, format string, args ...interface{}) *Error {
	return &Error{Category: c, Msg: fmt.Sprintf(format, args...), Pos: -1}
}

// Wrap creates an error of the given category around err.
func Wrap(c Category, err error, format string, args ...interface{}) *Error {
	return &Error{Category: c, Msg: fmt.Sprintf(format, args...), Pos: -1, Err: err}
}

// Parse creates a ParseError pointing at pos in input.
func Parse(input string, pos int, format string, args ...interface{}) *Error {
	return &Error{Category: ParseError, Msg: fmt.Sprintf(format, args...), Input: input, Pos: pos}
}

// CategoryOf returns the category of the first *Error in err's chain.
func CategoryOf(err error) (Category, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Category, true
	}
	return "", false
}

// Has reports whether err carries category c.
func Has(err error, c Category) bool {
	got, ok := CategoryOf(err)
	return ok && got == c
}
