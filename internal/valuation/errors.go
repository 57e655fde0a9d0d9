package valuation

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below via errors.Is.
var (
	ErrMissingData   = errors.New("missing data")
	ErrInvalidParams = errors.New("invalid parameters")
)

// MissingDataError reports a required input that is absent or not positive.
type MissingDataError struct {
	Field   string
	Present bool // false when absent, true when present but <= 0
}

func (e *MissingDataError) Error() string {
	if e.Present {
		return fmt.Sprintf("missing data: %s must be greater than zero", e.Field)
	}
	return fmt.Sprintf("missing data: %s is not available", e.Field)
}

func (e *MissingDataError) Is(target error) bool {
	return target == ErrMissingData
}

// InvalidParamsError reports a user-supplied parameter outside its domain.
type InvalidParamsError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidParamsError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidParamsError) Is(target error) bool {
	return target == ErrInvalidParams
}
