package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNoHeader is returned when the input has no header line
	ErrNoHeader = errors.New("missing header line")

	// ErrUnknownColumn is returned when a column name is not part of the header
	ErrUnknownColumn = errors.New("unknown column")

	// ErrUnknownColumnType is returned when a type catalog names an unsupported type
	ErrUnknownColumnType = errors.New("unknown column type")

	// ErrInvalidRecordIndex is returned when a record index is out of range
	ErrInvalidRecordIndex = errors.New("invalid record index")

	// ErrNotNumeric is returned when a value of a number column cannot be coerced
	ErrNotNumeric = errors.New("value is not numeric")

	// ErrNotCategory is returned when category counts are requested for a column that is not a category
	ErrNotCategory = errors.New("not a category column")

	// ErrNoDataset is returned when an operation needs a loaded dataset
	ErrNoDataset = errors.New("no dataset loaded")
)

// ParseError reports a malformed input text
type ParseError struct {
	Line int // 1-based line number
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CoercionError reports a value of a number column that is not a finite number
type CoercionError struct {
	Column string
	Record int // load index of the record
	Value  string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("column %q record %d: %q: %v", e.Column, e.Record, e.Value, ErrNotNumeric)
}

func (e *CoercionError) Unwrap() error {
	return ErrNotNumeric
}
