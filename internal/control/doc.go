// Package control provides the heading controller used by the drive.
//
// [Heading] is a discrete PID over a circular input: it turns a
// (current, target) heading pair into an angular rate command. The wrapped
// error always lies in (-π, π], so the robot turns the short way.
//
// # Usage
//
//	h := control.NewHeading(control.DefaultHeadingKp, 0, 0)
//	omega := h.Calculate(pose.Rotation, target, now)
//
// The controller keeps its integral and previous error between calls.
// Callers never reset it on their own; [Heading.Reset] exists for tuning
// and tests. [Heading.GetParams] and [Heading.SetParam] support live tuning.
package control
