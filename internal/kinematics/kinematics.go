package kinematics

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
	"gonum.org/v1/gonum/mat"
)

// Kinematics maps chassis velocities to wheel states for a fixed module
// layout. Locations are module contact patches relative to the robot
// center, +x forward and +y left.
type Kinematics struct {
	locations [NumModules]r2.Point
	forward   *mat.Dense
}

func New(locations [NumModules]r2.Point) *Kinematics {
	data := make([]float64, 0, NumModules*2*3)
	for _, loc := range locations {
		data = append(data,
			1, 0, -loc.Y,
			0, 1, loc.X,
		)
	}
	return &Kinematics{
		locations: locations,
		forward:   mat.NewDense(NumModules*2, 3, data),
	}
}

// Locations returns the module offsets in index order.
func (k *Kinematics) Locations() [NumModules]r2.Point {
	return k.locations
}

// DriveBaseRadius is the distance from the center to the farthest module.
func (k *Kinematics) DriveBaseRadius() float64 {
	r := 0.0
	for _, loc := range k.locations {
		r = math.Max(r, loc.Norm())
	}
	return r
}

// ToModuleStates solves rigid-body inverse kinematics about center. When
// the request is exactly zero the wheels keep the angles in hold and stop,
// so an idle robot does not snap every wheel back to 0°.
func (k *Kinematics) ToModuleStates(speeds ChassisSpeeds, center r2.Point, hold [NumModules]ModuleState) [NumModules]ModuleState {
	var states [NumModules]ModuleState
	if speeds.IsZero() {
		for i := range states {
			states[i] = ModuleState{Speed: 0, Angle: hold[i].Angle}
		}
		return states
	}

	for i, loc := range k.locations {
		rel := loc.Sub(center)
		vx := speeds.Vx - speeds.Omega*rel.Y
		vy := speeds.Vy + speeds.Omega*rel.X
		states[i] = ModuleState{
			Speed: math.Hypot(vx, vy),
			Angle: s1.Angle(math.Atan2(vy, vx)),
		}
	}
	return states
}

// ToChassisSpeeds is forward kinematics: the least-squares chassis velocity
// that best explains the measured wheel states.
func (k *Kinematics) ToChassisSpeeds(states [NumModules]ModuleState) ChassisSpeeds {
	b := make([]float64, 0, NumModules*2)
	for _, s := range states {
		sin, cos := math.Sincos(s.Angle.Radians())
		b = append(b, s.Speed*cos, s.Speed*sin)
	}

	var x mat.VecDense
	if err := x.SolveVec(k.forward, mat.NewVecDense(len(b), b)); err != nil {
		return ChassisSpeeds{}
	}
	return ChassisSpeeds{Vx: x.AtVec(0), Vy: x.AtVec(1), Omega: x.AtVec(2)}
}
