// Package dynamo provides the ODE primitives the simulated robot is built on.
//
//   - [State]: vector representing plant state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper
//   - [Configurable]: named parameters for live tuning
//
// # Example
//
//	plant := physics.NewChassis()
//	integ := integrators.NewRK4()
//	x = integ.Step(plant, x, u, t, 0.005)
//
// Integrators keep scratch buffers and are NOT safe for concurrent use.
// Give every goroutine its own.
package dynamo
