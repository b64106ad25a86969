package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/swervesim/internal/dynamo"
)

// RK4 is classic fourth-order Runge-Kutta. The slope and probe vectors
// live on the struct, so an RK4 must not be shared between plants.
type RK4 struct {
	slopes [4]dynamo.State
	probe  dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) grow(n int) {
	if len(r.probe) == n {
		return
	}
	for i := range r.slopes {
		r.slopes[i] = make(dynamo.State, n)
	}
	r.probe = make(dynamo.State, n)
}

// slopeAt evaluates sys at x + h*k into dst.
func (r *RK4) slopeAt(dst dynamo.State, sys dynamo.System, x, k dynamo.State, h float64, u dynamo.Control, t float64) {
	floats.AddScaledTo(r.probe, x, h, k)
	copy(dst, sys.Derive(r.probe, u, t))
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	r.grow(len(x))
	k := &r.slopes
	half := dt / 2

	copy(k[0], sys.Derive(x, u, t))
	r.slopeAt(k[1], sys, x, k[0], half, u, t+half)
	r.slopeAt(k[2], sys, x, k[1], half, u, t+half)
	r.slopeAt(k[3], sys, x, k[2], dt, u, t+dt)

	// x + dt/6 * (k1 + 2k2 + 2k3 + k4)
	next := x.Clone()
	for i, w := range [4]float64{1, 2, 2, 1} {
		floats.AddScaled(next, w*dt/6, k[i])
	}
	return next
}
