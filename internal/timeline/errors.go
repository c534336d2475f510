package timeline

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyRange is returned when an axis has no values to enumerate.
	ErrEmptyRange = errors.New("empty range")
	// ErrInvertedRange is returned when an axis ends before it starts.
	ErrInvertedRange = errors.New("inverted range")
	// ErrGridMismatch is returned when a dense grid does not match its axes.
	ErrGridMismatch = errors.New("dense grid does not match axis product")
	// ErrNonFinite is returned when a computed magnitude is NaN or infinite.
	ErrNonFinite = errors.New("non-finite magnitude")
)

// MalformedRecordError reports a source row that cannot be reconciled into
// a fact because a required cell holds an unparseable value.
type MalformedRecordError struct {
	Line  int
	ExpID string
	Field string
	Value string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %q (line %d): field %s=%q: %v", e.ExpID, e.Line, e.Field, e.Value, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// RangeError reports an axis that cannot be enumerated by the densifier.
type RangeError struct {
	Axis   string
	Reason string
	Err    error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range error on %s axis: %s", e.Axis, e.Reason)
}

func (e *RangeError) Unwrap() error {
	return e.Err
}

// ValidationError represents an invalid pipeline parameter
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (ve *ValidationError) Error() string {
	if ve.Value != nil {
		return fmt.Sprintf("validation error for field %s: %s (value: %v)", ve.Field, ve.Message, ve.Value)
	}
	return fmt.Sprintf("validation error for field %s: %s", ve.Field, ve.Message)
}
