package kinematics

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
)

// NumModules is fixed: a swerve drive here always has four corners.
const NumModules = 4

// Module indices. The order matches the location table handed to New.
const (
	FrontLeft = iota
	FrontRight
	BackLeft
	BackRight
)

var ModuleNames = [NumModules]string{"front_left", "front_right", "back_left", "back_right"}

// ModuleState is one module's wheel speed (m/s) and steering angle.
type ModuleState struct {
	Speed float64
	Angle s1.Angle
}

func (m ModuleState) String() string {
	return fmt.Sprintf("ModuleState(%.3f m/s, %.2f°)", m.Speed, m.Angle.Degrees())
}

// Optimize returns an equivalent state that needs at most a 90° steering
// change from current, reversing the wheel when that is shorter.
func (m ModuleState) Optimize(current s1.Angle) ModuleState {
	delta := (m.Angle - current).Normalized()
	if delta.Abs() > 90*s1.Degree {
		return ModuleState{
			Speed: -m.Speed,
			Angle: (m.Angle + math.Pi).Normalized(),
		}
	}
	return m
}

// MaxSpeed is the largest absolute wheel speed in states.
func MaxSpeed(states [NumModules]ModuleState) float64 {
	maxSpeed := 0.0
	for _, s := range states {
		maxSpeed = math.Max(maxSpeed, math.Abs(s.Speed))
	}
	return maxSpeed
}

// DesaturateWheelSpeeds scales every wheel by the same factor so that none
// exceeds maxSpeed. Clamping wheels one at a time would change the ratio
// between them and with it the path curvature. Angles are left alone.
// The second result reports whether any scaling happened.
func DesaturateWheelSpeeds(states [NumModules]ModuleState, maxSpeed float64) ([NumModules]ModuleState, bool) {
	realMax := MaxSpeed(states)
	if realMax == 0 || realMax <= maxSpeed {
		return states, false
	}

	ratio := maxSpeed / realMax
	for i := range states {
		states[i].Speed *= ratio
	}
	return states, true
}
