package config

import (
	"errors"
	"fmt"
)

var ErrInvalid = errors.New("config: invalid")

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }
