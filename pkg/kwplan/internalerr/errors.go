package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure kinds of a planning run
var (
	ErrConfiguration   = errors.New("invalid configuration")
	ErrEmptyInput      = errors.New("no keyword data found")
	ErrEmptyResult     = errors.New("no keywords remaining after filtering")
	ErrMalformedRecord = errors.New("malformed keyword record")
	ErrNotFound        = errors.New("not found")
)

// StageError records where a run failed and how many records were in play.
type StageError struct {
	Stage     string
	Kind      error
	Input     int
	Remaining int
	Detail    error
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("%s: %v (input=%d remaining=%d)", e.Stage, e.Kind, e.Input, e.Remaining)
	if e.Detail != nil {
		msg += ": " + e.Detail.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying detail to errors.Is/As.
func (e *StageError) Unwrap() []error {
	if e.Detail == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Detail}
}

// Configf builds a configuration error for a missing or malformed key.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
