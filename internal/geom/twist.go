package geom

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
)

// Twist is a displacement along an arc: dx, dy in the starting frame and
// the heading change dtheta.
type Twist struct {
	Dx, Dy, Dtheta float64
}

// Log returns the twist that carries the origin pose to delta when
// followed at constant velocity.
func Log(delta Pose) Twist {
	dtheta := delta.Rotation.Normalized().Radians()
	halfDtheta := dtheta / 2
	cosMinusOne := math.Cos(dtheta) - 1

	var halfThetaByTan float64
	if math.Abs(cosMinusOne) < 1e-9 {
		halfThetaByTan = 1 - dtheta*dtheta/12
	} else {
		halfThetaByTan = -(halfDtheta * math.Sin(dtheta)) / cosMinusOne
	}

	// multiply by the complex number (halfThetaByTan, -halfDtheta)
	t := delta.Translation
	return Twist{
		Dx:     t.X*halfThetaByTan + t.Y*halfDtheta,
		Dy:     t.Y*halfThetaByTan - t.X*halfDtheta,
		Dtheta: dtheta,
	}
}

// Exp is the inverse of Log: the pose reached from the origin by following t.
func Exp(t Twist) Pose {
	sin, cos := math.Sincos(t.Dtheta)

	var s, c float64
	if math.Abs(t.Dtheta) < 1e-9 {
		s = 1 - t.Dtheta*t.Dtheta/6
		c = 0.5 * t.Dtheta
	} else {
		s = sin / t.Dtheta
		c = (1 - cos) / t.Dtheta
	}

	return Pose{
		Translation: r2.Point{
			X: t.Dx*s - t.Dy*c,
			Y: t.Dx*c + t.Dy*s,
		},
		Rotation: s1.Angle(t.Dtheta),
	}
}
