package model

import (
	"errors"
	"fmt"
)

// ErrInvalidDimension is matched by every *DimensionError.
var ErrInvalidDimension = errors.New("invalid dimension")

// DimensionError reports a missing, malformed or out-of-range input field.
type DimensionError struct {
	Field  string
	Value  string
	Reason string
}

func (e *DimensionError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid dimension %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid dimension %s=%s: %s", e.Field, e.Value, e.Reason)
}

func (e *DimensionError) Unwrap() error { return ErrInvalidDimension }
