package symptoms

import (
	"errors"
	"fmt"
)

// InvalidSeverityError is returned when a severity word is neither canonical nor a known synonym.
type InvalidSeverityError struct {
	Raw string
}

func (e *InvalidSeverityError) Error() string {
	return fmt.Sprintf("invalid severity %q: use none, mild, moderate or severe", e.Raw)
}

// UnparseableTimeError is returned when no date or time could be read from the text.
type UnparseableTimeError struct {
	Text string
}

func (e *UnparseableTimeError) Error() string {
	return fmt.Sprintf("could not understand time %q", e.Text)
}

// ValidationError names the entry field that failed construction.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	switch {
	case e.Field == "":
		return e.Reason
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	case e.Value != "":
		return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Reason, e.Value)
	default:
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsUserError reports whether err is a validation-class failure the user can correct.
func IsUserError(err error) bool {
	var (
		sevErr  *InvalidSeverityError
		timeErr *UnparseableTimeError
		valErr  *ValidationError
	)
	return errors.As(err, &sevErr) || errors.As(err, &timeErr) || errors.As(err, &valErr)
}
