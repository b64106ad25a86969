package drive

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
	"github.com/san-kum/swervesim/internal/actuator"
	"github.com/san-kum/swervesim/internal/geom"
	"github.com/san-kum/swervesim/internal/kinematics"
)

// MaxAngleRate is the teleop rotation ceiling in rad/s.
const MaxAngleRate = 2.5 * math.Pi

// ForwardReference says which frame the request's translation is in.
type ForwardReference uint8

const (
	// OperatorPerspective: +x points away from the driver station wall.
	OperatorPerspective ForwardReference = iota
	// FieldFrame: +x points from the blue wall toward the red wall.
	FieldFrame
	// RobotCentric: +x is the robot's front; no field conversion.
	RobotCentric
)

func (f ForwardReference) String() string {
	switch f {
	case OperatorPerspective:
		return "operator_perspective"
	case FieldFrame:
		return "field"
	case RobotCentric:
		return "robot_centric"
	default:
		return fmt.Sprintf("ForwardReference(%d)", uint8(f))
	}
}

// ParseForwardReference accepts the names produced by String.
func ParseForwardReference(s string) (ForwardReference, error) {
	switch s {
	case "operator_perspective", "operator", "":
		return OperatorPerspective, nil
	case "field":
		return FieldFrame, nil
	case "robot_centric", "robot":
		return RobotCentric, nil
	}
	return 0, fmt.Errorf("drive: unknown forward reference %q", s)
}

// Request is a motion demand for one cycle.
type Request struct {
	VelocityX          float64 // m/s
	VelocityY          float64 // m/s
	RotationalRate     float64 // rad/s, counter-clockwise positive
	Deadband           float64 // m/s
	RotationalDeadband float64 // rad/s
	CenterOfRotation   r2.Point
	Forward            ForwardReference
	DriveRequest       actuator.DriveRequest
	SteerRequest       actuator.SteerRequest
}

// TeleopRequest returns the request the driver sticks feed: operator
// perspective, open-loop drive and deadbands at 0.1% of the limits.
func TeleopRequest(maxSpeed, maxAngleRate float64) Request {
	return Request{
		Deadband:           maxSpeed * 0.001,
		RotationalDeadband: maxAngleRate * 0.001,
		Forward:            OperatorPerspective,
		DriveRequest:       actuator.OpenLoopVoltage,
		SteerRequest:       actuator.MotionMagic,
	}
}

// WithVelocity returns a copy of r with new translation and rotation demand.
func (r Request) WithVelocity(vx, vy, omega float64) Request {
	r.VelocityX = vx
	r.VelocityY = vy
	r.RotationalRate = omega
	return r
}

// State is the snapshot of the drivetrain a single resolution reads.
// Target is nil when no pointing target is set.
type State struct {
	Pose            geom.Pose
	ModuleStates    [kinematics.NumModules]kinematics.ModuleState
	OperatorForward s1.Angle
	Target          *r2.Point
	Align           bool
	Timestamp       float64 // seconds
	UpdatePeriod    float64 // seconds
}

// Chassis holds the fixed physical description of the robot.
type Chassis struct {
	Kinematics *kinematics.Kinematics
	MaxSpeed   float64
}
