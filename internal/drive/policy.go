package drive

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/san-kum/swervesim/internal/control"
	"github.com/san-kum/swervesim/internal/geom"
)

const (
	DefaultPointAtThreshold = 0.05
	DefaultAlignThreshold   = 6.3
)

// Mode names the source of the rotation rate in a cycle.
type Mode uint8

const (
	Passthrough Mode = iota
	PointAt
	AlignSnap
)

func (m Mode) String() string {
	switch m {
	case Passthrough:
		return "passthrough"
	case PointAt:
		return "point_at"
	case AlignSnap:
		return "align_snap"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Rotation is the outcome of the pointing policy. Target is the heading fed
// to the controller and is zero in Passthrough.
type Rotation struct {
	Mode   Mode
	Rate   float64
	Target s1.Angle
}

// Policy picks the rotation source each cycle. An explicit operator rotation
// always wins. Otherwise a pointing target beats alignment, and pointing uses
// the stricter threshold.
type Policy struct {
	PointAtThreshold float64
	AlignThreshold   float64
	// MaxPointingRate limits the point-at output; zero disables the limit.
	MaxPointingRate float64
	Heading         *control.Heading
}

func NewPolicy(heading *control.Heading) *Policy {
	return &Policy{
		PointAtThreshold: DefaultPointAtThreshold,
		AlignThreshold:   DefaultAlignThreshold,
		MaxPointingRate:  MaxAngleRate,
		Heading:          heading,
	}
}

func DefaultPolicy() *Policy {
	return NewPolicy(control.NewHeading(
		control.DefaultHeadingKp,
		control.DefaultHeadingKi,
		control.DefaultHeadingKd,
	))
}

// Rotation resolves the effective rate for the commanded rate in st.
// The heading controller is only advanced when an override fires.
func (p *Policy) Rotation(st State, commanded float64) Rotation {
	switch {
	case math.Abs(commanded) < p.PointAtThreshold && st.Target != nil:
		target := geom.Bearing(st.Pose, *st.Target)
		rate := p.Heading.Calculate(st.Pose.Rotation, target, st.Timestamp)
		if p.MaxPointingRate > 0 {
			rate = math.Max(-p.MaxPointingRate, math.Min(p.MaxPointingRate, rate))
		}
		return Rotation{Mode: PointAt, Rate: rate, Target: target}

	case math.Abs(commanded) < p.AlignThreshold && st.Align:
		target := SnapTarget(st.Pose.Rotation)
		rate := p.Heading.Calculate(st.Pose.Rotation, target, st.Timestamp)
		return Rotation{Mode: AlignSnap, Rate: rate, Target: target}
	}
	return Rotation{Mode: Passthrough, Rate: commanded}
}

// SnapTarget is the multiple of 90° nearest to heading, in (-180°, 180°].
// Exact 45° midpoints round up.
func SnapTarget(heading s1.Angle) s1.Angle {
	deg := geom.WrapDegrees(heading.Degrees())
	snapped := math.Floor((deg+45)/90) * 90
	return (s1.Angle(snapped) * s1.Degree).Normalized()
}
