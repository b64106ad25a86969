package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// State is the plant's continuous state. The chassis uses
// [x, y, heading, vx, vy, omega] with velocities in the field frame.
type State []float64

// Clone returns an independent copy.
func (s State) Clone() State {
	return append(State(nil), s...)
}

// IsValid reports whether every entry is finite.
func (s State) IsValid() bool {
	if floats.HasNaN(s) {
		return false
	}
	for _, v := range s {
		if math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Axpy returns s + a*d as a new state; neither operand is modified.
func (s State) Axpy(a float64, d State) State {
	out := make(State, len(s))
	floats.AddScaledTo(out, s, a, d)
	return out
}

// Control is what the plant is driven with for one integration step:
// the commanded robot-relative chassis speeds.
type Control []float64

// System is a plant written as dx/dt = f(x, u, t).
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Integrator advances a System by dt with u held.
type Integrator interface {
	Step(sys System, x State, u Control, t float64, dt float64) State
}

// Configurable exposes named parameters that can be changed while running.
// The chassis plant and the heading controller both implement it.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

func CheckDims(sys System, x State, u Control) error {
	if want := sys.StateDim(); len(x) != want {
		return fmt.Errorf("%w: got %d state entries for a %d-state plant", ErrDimensionMismatch, len(x), want)
	}
	if want := sys.ControlDim(); len(u) != want {
		return fmt.Errorf("%w: got %d control entries for a %d-input plant", ErrDimensionMismatch, len(u), want)
	}
	return nil
}
