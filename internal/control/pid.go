package control

import (
	"fmt"

	"github.com/golang/geo/s1"
)

// Default heading gains used by the drive request.
const (
	DefaultHeadingKp = 4.0
	DefaultHeadingKi = 0.0
	DefaultHeadingKd = 0.0
)

// Heading is a PID controller over a circular input. The error is always
// taken the short way around, wrapped into (-π, π].
type Heading struct {
	Kp       float64
	Ki       float64
	Kd       float64
	integral float64
	prevErr  float64
	prevT    float64
	lastErr  s1.Angle
	first    bool
}

func NewHeading(kp, ki, kd float64) *Heading {
	return &Heading{
		Kp:    kp,
		Ki:    ki,
		Kd:    kd,
		first: true,
	}
}

// WrapError is the signed shortest rotation from current to target.
func WrapError(current, target s1.Angle) s1.Angle {
	return (target - current).Normalized()
}

// Calculate returns an angular rate in rad/s that drives current toward
// target. t is the sample time in seconds.
func (h *Heading) Calculate(current, target s1.Angle, t float64) float64 {
	e := WrapError(current, target)
	h.lastErr = e
	err := e.Radians()

	if h.first {
		h.prevErr = err
		h.prevT = t
		h.first = false
		return h.Kp * err
	}

	dt := t - h.prevT
	if dt > 0 {
		h.integral += err * dt
		derivative := (err - h.prevErr) / dt

		u := h.Kp*err + h.Ki*h.integral + h.Kd*derivative

		h.prevErr = err
		h.prevT = t

		return u
	}
	return h.Kp*err + h.Ki*h.integral
}

// Error returns the wrapped error seen by the last Calculate call.
func (h *Heading) Error() s1.Angle {
	return h.lastErr
}

// Reset clears integral and derivative state
func (h *Heading) Reset() {
	h.integral = 0
	h.prevErr = 0
	h.prevT = 0
	h.lastErr = 0
	h.first = true
}

// GetParams returns tunable parameters for live adjustment
func (h *Heading) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp": h.Kp,
		"Ki": h.Ki,
		"Kd": h.Kd,
	}
}

// SetParam adjusts a gain by name.
func (h *Heading) SetParam(name string, value float64) error {
	switch name {
	case "Kp", "kp":
		h.Kp = value
	case "Ki", "ki":
		h.Ki = value
	case "Kd", "kd":
		h.Kd = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return nil
}
