package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinels for errors.Is. The typed errors below match them and carry the
// row, column and value involved.
var (
	ErrParse           = errors.New("invalid csv")
	ErrIndexOutOfRange = errors.New("row index out of range")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrCoercion        = errors.New("cannot coerce value")

	// ErrEmptyFile is wrapped by the ParseError for input without a header.
	ErrEmptyFile = errors.New("empty file: no columns to parse")

	// ErrEditBufferClosed is returned when a buffer is committed twice or after Discard.
	ErrEditBufferClosed = errors.New("edit buffer already committed or discarded")

	// ErrStaleEditBuffer is returned when the table changed after the buffer was opened.
	ErrStaleEditBuffer = errors.New("edit buffer is stale: table changed since it was opened")
)

// ParseError rejects malformed input at load.
type ParseError struct {
	Record int // 1-based record number, header included; 0 when not tied to a record
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "invalid csv"
	if e.Record > 0 {
		msg += ": record " + strconv.Itoa(e.Record)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }
func (e *ParseError) Unwrap() error        { return e.Err }

// IndexOutOfRangeError is returned by row operations given an index outside [0, Len).
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("row index %d out of range [0, %d)", e.Index, e.Len)
}

func (e *IndexOutOfRangeError) Is(target error) bool { return target == ErrIndexOutOfRange }

// UnknownColumnError lists edit keys that are not table columns, sorted.
type UnknownColumnError struct {
	Columns []string
}

func (e *UnknownColumnError) Error() string {
	quoted := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		quoted[i] = strconv.Quote(c)
	}
	return "unknown column " + strings.Join(quoted, ", ")
}

func (e *UnknownColumnError) Is(target error) bool { return target == ErrUnknownColumn }

// CoercionError names the column whose raw value does not fit its kind.
type CoercionError struct {
	Column string
	Value  string
	Kind   Kind
	Err    error
}

func (e *CoercionError) Error() string {
	msg := fmt.Sprintf("cannot coerce %q into %s column %q", e.Value, e.Kind, e.Column)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CoercionError) Is(target error) bool { return target == ErrCoercion }
func (e *CoercionError) Unwrap() error        { return e.Err }
