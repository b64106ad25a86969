package metrics

import (
	"math"

	"github.com/san-kum/swervesim/internal/dynamo"
	"github.com/san-kum/swervesim/internal/physics"
	"github.com/san-kum/swervesim/internal/sim"
)

// RotationEffort is the mean |ω| the policy commanded.
type RotationEffort struct {
	name    string
	sum     float64
	samples int
}

func NewRotationEffort() *RotationEffort {
	return &RotationEffort{name: "rotation_effort"}
}

func (r *RotationEffort) Name() string { return r.name }

func (r *RotationEffort) Observe(s sim.Sample) {
	r.sum += math.Abs(s.Output.Rotation.Rate)
	r.samples++
}

func (r *RotationEffort) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return r.sum / float64(r.samples)
}

func (r *RotationEffort) Reset() {
	r.sum = 0
	r.samples = 0
}

// Saturation is the fraction of cycles whose wheel speeds had to be scaled
// down to the module limit.
type Saturation struct {
	name      string
	saturated int
	samples   int
}

func NewSaturation() *Saturation {
	return &Saturation{name: "saturation_ratio"}
}

func (s *Saturation) Name() string { return s.name }

func (s *Saturation) Observe(sample sim.Sample) {
	if sample.Output.Desaturated {
		s.saturated++
	}
	s.samples++
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.saturated) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.saturated = 0
	s.samples = 0
}

// PeakEnergy is the largest kinetic energy seen, from the measured speeds.
type PeakEnergy struct {
	name    string
	mass    float64 // kg
	inertia float64 // kg·m²
	peak    float64
}

func NewPeakEnergy(mass, inertia float64) *PeakEnergy {
	return &PeakEnergy{name: "peak_energy", mass: mass, inertia: inertia}
}

func (p *PeakEnergy) Name() string { return p.name }

func (p *PeakEnergy) Observe(s sim.Sample) {
	x := make(dynamo.State, physics.IdxOmega+1)
	x[physics.IdxVx] = s.Measured.Vx
	x[physics.IdxVy] = s.Measured.Vy
	x[physics.IdxOmega] = s.Measured.Omega
	p.peak = math.Max(p.peak, physics.KineticEnergy(x, p.mass, p.inertia))
}

func (p *PeakEnergy) Value() float64 { return p.peak }

func (p *PeakEnergy) Reset() { p.peak = 0 }
