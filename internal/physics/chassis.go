package physics

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"

	"github.com/san-kum/swervesim/internal/dynamo"
	"github.com/san-kum/swervesim/internal/geom"
	"github.com/san-kum/swervesim/internal/kinematics"
)

// State layout of the chassis plant.
const (
	IdxX = iota
	IdxY
	IdxHeading
	IdxVx // field frame
	IdxVy // field frame
	IdxOmega
	chassisDim
)

const (
	DefaultTau    = 0.08 // s
	DefaultRotTau = 0.06 // s
)

// Chassis is a planar rigid body whose velocity follows the commanded
// robot-relative velocity through a first-order lag. It stands in for the
// motors, wheels and carpet when no hardware is attached.
//
// Control: [vx, vy, omega] robot-relative.
type Chassis struct {
	Tau    float64
	RotTau float64
}

func NewChassis() *Chassis {
	return &Chassis{Tau: DefaultTau, RotTau: DefaultRotTau}
}

func (c *Chassis) StateDim() int   { return chassisDim }
func (c *Chassis) ControlDim() int { return 3 }

func (c *Chassis) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	heading := x[IdxHeading]
	vx, vy, omega := x[IdxVx], x[IdxVy], x[IdxOmega]

	var cmd r2.Point
	var cmdOmega float64
	if len(u) >= 3 {
		cmd = geom.Rotate(r2.Point{X: u[0], Y: u[1]}, s1.Angle(heading))
		cmdOmega = u[2]
	}

	return dynamo.State{
		vx,
		vy,
		omega,
		(cmd.X - vx) / c.Tau,
		(cmd.Y - vy) / c.Tau,
		(cmdOmega - omega) / c.RotTau,
	}
}

// NewChassisState places the robot at pose, at rest.
func NewChassisState(pose geom.Pose) dynamo.State {
	x := make(dynamo.State, chassisDim)
	x[IdxX] = pose.X()
	x[IdxY] = pose.Y()
	x[IdxHeading] = pose.Rotation.Radians()
	return x
}

// PoseOf reads the pose out of a chassis state, heading wrapped to (-π, π].
func PoseOf(x dynamo.State) geom.Pose {
	return geom.NewPose(x[IdxX], x[IdxY], s1.Angle(x[IdxHeading]).Normalized())
}

// RobotSpeeds is the robot-relative velocity in x.
func RobotSpeeds(x dynamo.State) kinematics.ChassisSpeeds {
	field := kinematics.ChassisSpeeds{Vx: x[IdxVx], Vy: x[IdxVy], Omega: x[IdxOmega]}
	return kinematics.FromFieldRelative(field, s1.Angle(x[IdxHeading]))
}

// KineticEnergy for a robot of the given mass and yaw inertia.
func KineticEnergy(x dynamo.State, mass, inertia float64) float64 {
	v2 := x[IdxVx]*x[IdxVx] + x[IdxVy]*x[IdxVy]
	return 0.5*mass*v2 + 0.5*inertia*x[IdxOmega]*x[IdxOmega]
}

func (c *Chassis) GetParams() map[string]float64 {
	return map[string]float64{
		"tau":     c.Tau,
		"rot_tau": c.RotTau,
	}
}

func (c *Chassis) SetParam(name string, value float64) error {
	if value <= 0 || math.IsNaN(value) {
		return fmt.Errorf("%w: %s must be positive, got %f", dynamo.ErrParameterBounds, name, value)
	}
	switch name {
	case "tau":
		c.Tau = value
	case "rot_tau":
		c.RotTau = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}
