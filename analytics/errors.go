package analytics

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyData is returned by reductions that are undefined on zero rows.
	// Callers handle it locally, it never stops a render pass.
	ErrEmptyData    = errors.New("no data for the selected period")
	ErrInvalidRange = errors.New("start date is after end date")
	ErrUnknownView  = errors.New("unknown view")
)

// MappingError rejects a column configuration. Row is -1 for column level problems.
type MappingError struct {
	Field  string
	Column string
	Row    int
	Reason string
}

func (e *MappingError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("%s column %q, row %d: %s", e.Field, e.Column, e.Row+1, e.Reason)
	}
	return fmt.Sprintf("%s column %q: %s", e.Field, e.Column, e.Reason)
}

// DateError reports the first cell of the date column that is not a date.
type DateError struct {
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("date column %q, row %d: cannot parse %q as a date", e.Column, e.Row+1, e.Value)
}

func (e *DateError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err must stop the current render pass and be shown
// to the user as a rejected configuration.
func IsFatal(err error) bool {
	var me *MappingError
	var de *DateError
	return errors.As(err, &me) || errors.As(err, &de) || errors.Is(err, ErrInvalidRange)
}
