// Package sim closes the loop between a drivetrain and a simulated chassis.
//
// The Plant receives module commands as an actuator and reports the pose and
// measured module states back to the drivetrain as an estimator would. Loop
// drives both, either in virtual time (Run) or on wall-clock tickers
// (RunRealtime) where the plant and the control cycle are separate
// goroutines sharing only the drivetrain's snapshots.
package sim
