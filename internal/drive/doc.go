// Package drive resolves a motion request into four module states.
//
// A cycle runs strictly in this order:
//
//	rot := policy.Rotation(state, req.RotationalRate)   // operator, point-at or align-snap
//	speeds := ResolveChassisSpeeds(state, req, rot.Rate) // perspective, deadband, field->robot, discretize
//	states := kinematics.ToModuleStates(...)             // inverse kinematics
//	states, _ = kinematics.DesaturateWheelSpeeds(...)    // uniform scale
//
// Resolve does all four. It reads only the State it is given, so callers
// take one snapshot per cycle and hand it in.
package drive
