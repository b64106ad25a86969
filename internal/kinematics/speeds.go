package kinematics

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
	"github.com/san-kum/swervesim/internal/geom"
)

// ChassisSpeeds is a planar velocity: vx, vy in m/s and omega in rad/s.
// Whether it is field- or robot-relative depends on where it came from.
type ChassisSpeeds struct {
	Vx    float64
	Vy    float64
	Omega float64
}

func (c ChassisSpeeds) IsZero() bool {
	return c.Vx == 0 && c.Vy == 0 && c.Omega == 0
}

// Linear is the translational speed magnitude.
func (c ChassisSpeeds) Linear() float64 {
	return math.Hypot(c.Vx, c.Vy)
}

func (c ChassisSpeeds) String() string {
	return fmt.Sprintf("ChassisSpeeds(vx=%.3f, vy=%.3f, omega=%.3f)", c.Vx, c.Vy, c.Omega)
}

// FromFieldRelative converts field-relative speeds into the robot frame
// for a robot facing heading.
func FromFieldRelative(field ChassisSpeeds, heading s1.Angle) ChassisSpeeds {
	v := geom.Rotate(r2.Point{X: field.Vx, Y: field.Vy}, -heading)
	return ChassisSpeeds{Vx: v.X, Vy: v.Y, Omega: field.Omega}
}

// ToFieldRelative is the inverse of FromFieldRelative.
func ToFieldRelative(robot ChassisSpeeds, heading s1.Angle) ChassisSpeeds {
	v := geom.Rotate(r2.Point{X: robot.Vx, Y: robot.Vy}, heading)
	return ChassisSpeeds{Vx: v.X, Vy: v.Y, Omega: robot.Omega}
}

// Discretize corrects speeds that will be held constant for dt seconds.
// Commanding vx and omega together for one period traces an arc; the
// returned speeds make that arc end where the continuous-time request
// would have put the robot, which removes the sideways skew.
func Discretize(speeds ChassisSpeeds, dt float64) ChassisSpeeds {
	if dt <= 0 {
		return speeds
	}
	delta := geom.NewPose(speeds.Vx*dt, speeds.Vy*dt, s1.Angle(speeds.Omega*dt))
	tw := geom.Log(delta)
	return ChassisSpeeds{
		Vx:    tw.Dx / dt,
		Vy:    tw.Dy / dt,
		Omega: tw.Dtheta / dt,
	}
}
