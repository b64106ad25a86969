// Package viz draws a running swerve experiment in the terminal.
//
// The field is a braille [Canvas] scaled by [Field]; the robot frame, its
// trail and the line to the pointing target are redrawn every frame. The
// live [Model] steps the experiment's loop itself, so sim time follows
// wall time at the chosen speed.
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	WASD    - Drive from the keyboard, operator perspective
//	Q/E     - Rotate
//	X       - Return the sticks to the scenario script
//	G       - Toggle align snap
//	P       - Point at the speaker / clear the target
//	R       - Reset heading to operator forward
//	B/N     - Switch alliance / toggle disabled
//	T       - Cycle color themes
//	?       - Show help overlay
package viz
