package integrators

import "github.com/san-kum/swervesim/internal/dynamo"

// Euler takes one forward-difference step. Good enough for the chassis
// lag at the default 5 ms plant period.
type Euler struct{}

func NewEuler() *Euler { return &Euler{} }

func (Euler) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	return x.Axpy(dt, sys.Derive(x, u, t))
}
