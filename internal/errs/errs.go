// Package errs holds the typed validation and format errors shared by the
// tick data model and its codec.
package errs

import (
	"errors"
	"fmt"
)

// Sentinels matched through errors.Is.
var (
	ErrOutOfRange = errors.New("out of range")
	ErrNull       = errors.New("null argument")
	ErrFormat     = errors.New("invalid data format")
)

// RangeError reports a value that violates an invariant of the model.
type RangeError struct {
	Field  string
	Value  any
	Reason string
}

// Range returns a RangeError for field.
func Range(field string, value any, reason string) *RangeError {
	return &RangeError{Field: field, Value: value, Reason: reason}
}

func (e *RangeError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %v is out of range", e.Field, e.Value)
	}
	return fmt.Sprintf("%s: %v is out of range (%s)", e.Field, e.Value, e.Reason)
}

func (e *RangeError) Is(target error) bool { return target == ErrOutOfRange }

// NullError reports a missing required argument.
type NullError struct {
	Field string
}

// Null returns a NullError for field.
func Null(field string) *NullError { return &NullError{Field: field} }

func (e *NullError) Error() string { return fmt.Sprintf("%s: must not be nil", e.Field) }

func (e *NullError) Is(target error) bool { return target == ErrNull }

// FormatError reports a payload that does not hold the expected data.
// Err, when set, is the underlying decoding failure.
type FormatError struct {
	Field    string
	Expected any
	Actual   any
	Err      error
}

// Format returns a FormatError for field.
func Format(field string, expected, actual any) *FormatError {
	return &FormatError{Field: field, Expected: expected, Actual: actual}
}

// Wrap attaches the underlying cause.
func (e *FormatError) Wrap(err error) *FormatError {
	e.Err = err
	return e
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("format error: %s: expected %v, got %v", e.Field, e.Expected, e.Actual)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

func (e *FormatError) Unwrap() error { return e.Err }
