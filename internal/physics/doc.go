// Package physics provides the plant models used when no robot is attached.
//
// [Chassis] implements [dynamo.System] and [dynamo.Configurable]: a planar
// rigid body whose field-frame velocity lags the commanded robot-relative
// velocity.
//
//	plant := physics.NewChassis()
//	x := physics.NewChassisState(geom.NewPose(1, 2, 0))
//	x = integrators.NewRK4().Step(plant, x, dynamo.Control{1, 0, 0}, 0, 0.005)
//	pose := physics.PoseOf(x)
package physics
