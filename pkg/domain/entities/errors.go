package entities

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTableNotFound is returned when a dataset does not hold a named table
	ErrTableNotFound = errors.New("table not found")

	// ErrDatasetNotFound is returned when nothing is stored at a location
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrRunLocked is returned when another run holds the dataset
	ErrRunLocked = errors.New("dataset is locked by another run")
)

// MissingTableError reports required tables absent from a loaded dataset.
// It aborts a run before any allocation happens.
type MissingTableError struct {
	Tables []string
}

func (e *MissingTableError) Error() string {
	return fmt.Sprintf("missing required tables: %s", strings.Join(e.Tables, ", "))
}

// MissingColumnError reports required columns absent from a table header
type MissingColumnError struct {
	Table   string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("table %s is missing required columns: %s", e.Table, strings.Join(e.Columns, ", "))
}

// MissingFieldError reports a row that lacks a value for a required column
type MissingFieldError struct {
	Table  string
	Row    int
	Column string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s row %d: missing value for %s", e.Table, e.Row, e.Column)
}

// InvalidQuantityError reports a negative, fractional or non-numeric quantity
type InvalidQuantityError struct {
	Table  string
	Row    int
	Column string
	Value  string
	Reason string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("%s row %d: invalid %s %q: %s", e.Table, e.Row, e.Column, e.Value, e.Reason)
}

// PersistenceError reports a failure writing the output artifact
type PersistenceError struct {
	Location string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %s: %v", e.Location, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
