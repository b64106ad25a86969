package drive

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/san-kum/swervesim/internal/geom"
	"github.com/san-kum/swervesim/internal/kinematics"
)

// Output is everything one resolution produced.
type Output struct {
	Rotation    Rotation
	Speeds      kinematics.ChassisSpeeds // robot-relative, discretized
	States      [kinematics.NumModules]kinematics.ModuleState
	Desaturated bool
}

// ResolveChassisSpeeds turns a request and the effective rotation rate into
// robot-relative speeds held for one update period.
func ResolveChassisSpeeds(st State, req Request, omega float64) kinematics.ChassisSpeeds {
	v := r2.Point{X: req.VelocityX, Y: req.VelocityY}
	if req.Forward == OperatorPerspective {
		v = geom.Rotate(v, st.OperatorForward)
	}

	if req.Deadband > 0 && v.Norm() <= req.Deadband {
		v = r2.Point{}
	}
	if math.Abs(omega) < req.RotationalDeadband {
		omega = 0
	}

	speeds := kinematics.ChassisSpeeds{Vx: v.X, Vy: v.Y, Omega: omega}
	if req.Forward != RobotCentric {
		speeds = kinematics.FromFieldRelative(speeds, st.Pose.Rotation)
	}
	return kinematics.Discretize(speeds, st.UpdatePeriod)
}

// Resolve runs one full cycle: pointing policy, chassis speeds, inverse
// kinematics and desaturation, in that order. Only the policy's heading
// controller is mutated.
func Resolve(st State, req Request, ch Chassis, p *Policy) Output {
	rot := p.Rotation(st, req.RotationalRate)
	speeds := ResolveChassisSpeeds(st, req, rot.Rate)

	states := ch.Kinematics.ToModuleStates(speeds, req.CenterOfRotation, st.ModuleStates)
	states, scaled := kinematics.DesaturateWheelSpeeds(states, ch.MaxSpeed)

	return Output{
		Rotation:    rot,
		Speeds:      speeds,
		States:      states,
		Desaturated: scaled,
	}
}
