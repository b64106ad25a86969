package dynamo

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState      = errors.New("dynamo: plant state is not finite")
	ErrParameterBounds   = errors.New("dynamo: parameter out of range")
	ErrUnknownParam      = errors.New("dynamo: no such parameter")
	ErrDimensionMismatch = errors.New("dynamo: vector length does not match plant")
)

// SimulationError records where in a run the plant failed. State is the
// last good state, before the failing step.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("plant step %d at t=%.3fs: %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error { return e.Wrapped }
