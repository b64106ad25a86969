package geom

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
)

const metersPerInch = 0.0254

// Pose is a robot position and heading in the field frame.
type Pose struct {
	Translation r2.Point
	Rotation    s1.Angle
}

func NewPose(x, y float64, heading s1.Angle) Pose {
	return Pose{Translation: r2.Point{X: x, Y: y}, Rotation: heading}
}

func (p Pose) X() float64 { return p.Translation.X }
func (p Pose) Y() float64 { return p.Translation.Y }

func (p Pose) String() string {
	return fmt.Sprintf("Pose(%s, %.2f°)", FormatTranslation(p.Translation), p.Rotation.Degrees())
}

// FormatTranslation renders a point the way the dashboard shows it.
func FormatTranslation(t r2.Point) string {
	return fmt.Sprintf("(%.2f, %.2f)", t.X, t.Y)
}

// Rotate turns v counter-clockwise by a.
func Rotate(v r2.Point, a s1.Angle) r2.Point {
	sin, cos := math.Sincos(a.Radians())
	return r2.Point{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// AngleOf returns the direction of v. The zero vector points along +x.
func AngleOf(v r2.Point) s1.Angle {
	return s1.Angle(math.Atan2(v.Y, v.X))
}

// Bearing is the field heading the robot must face to point at target.
func Bearing(from Pose, target r2.Point) s1.Angle {
	return AngleOf(target.Sub(from.Translation))
}

// Distance between two field points in meters.
func Distance(a, b r2.Point) float64 {
	return a.Sub(b).Norm()
}

// WrapDegrees maps an angle in degrees into [0, 360).
func WrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

func InchesToMeters(in float64) float64 {
	return in * metersPerInch
}
