package core

import (
	"errors"
	"fmt"
)

// Request-level failure categories. Every one of them is reported to HTTP
// clients as a 400 carrying the error text.
var (
	// ErrBadRequest is returned when a required field is missing or malformed.
	ErrBadRequest = errors.New("bad request")

	// ErrNoData is returned when analysis or a chart is requested on an empty result.
	ErrNoData = errors.New("no data")

	// ErrInsufficientColumns is returned when a chart is requested on fewer than two columns.
	ErrInsufficientColumns = errors.New("chart requires at least two columns")

	// ErrMissingParameter is returned when aggregation lacks group_by or aggregate_column.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrUnsupportedFunction is returned for unknown aggregate function names.
	ErrUnsupportedFunction = errors.New("unsupported aggregate function")
)

// StoreError wraps any failure reported by the store: syntax, permissions
// or connectivity.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err as a StoreError for op. A nil err yields nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// BadRequestf formats a message and wraps it with ErrBadRequest.
func BadRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}
