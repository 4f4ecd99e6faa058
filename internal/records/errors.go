package records

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound reports an update or lookup whose primary key matched no row.
	ErrNotFound = errors.New("record not found")
	// ErrSchemaMismatch reports fields that have no column in the table header.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrDecode reports a structured cell whose text is not valid JSON for its declared kind.
	ErrDecode = errors.New("decode cell")
)

// NotFoundError carries the table and key that failed to match.
type NotFoundError struct {
	Table string
	Key   string
	ID    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s=%q not found", e.Table, e.Key, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ErrorKind classifies the failure for status mapping.
func (e *NotFoundError) ErrorKind() string { return "not_found" }

// SchemaMismatchError lists the fields the header does not know about.
type SchemaMismatchError struct {
	Table  string
	Fields []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s: fields not in header: %s", e.Table, strings.Join(e.Fields, ", "))
}

func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

// ErrorKind classifies the failure for status mapping.
func (e *SchemaMismatchError) ErrorKind() string { return "validation" }

// DecodeError locates a cell that could not be decoded.
type DecodeError struct {
	Column string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("column %s: %v", e.Column, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// ErrorKind classifies the failure for status mapping.
func (e *DecodeError) ErrorKind() string { return "validation" }

// RowError locates a row that could not be decoded. Row is the 1-based
// sheet row, so the header is row 1 and the first data row is row 2.
type RowError struct {
	Table string
	Row   int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.Table, e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ErrorKind classifies the failure for status mapping.
func (e *RowError) ErrorKind() string { return "decode" }
