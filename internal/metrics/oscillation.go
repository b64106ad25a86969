package metrics

import (
	"github.com/san-kum/swervesim/internal/analysis"
	"github.com/san-kum/swervesim/internal/sim"
)

// Oscillation is the dominant frequency of the heading error in Hz. A
// well damped controller reports 0 or a low frequency; ringing shows up as
// a clear peak.
type Oscillation struct {
	name   string
	errs   []float64
	t0, t1 float64
}

func NewOscillation() *Oscillation {
	return &Oscillation{name: "heading_oscillation"}
}

func (o *Oscillation) Name() string { return o.name }

func (o *Oscillation) Observe(s sim.Sample) {
	switch len(o.errs) {
	case 0:
		o.t0 = s.T
	case 1:
		o.t1 = s.T
	}
	o.errs = append(o.errs, s.HeadingError())
}

func (o *Oscillation) Value() float64 {
	if len(o.errs) < 2 || o.t1 <= o.t0 {
		return 0
	}
	hz, _, err := analysis.DominantFrequency(o.errs, o.t1-o.t0)
	if err != nil {
		return 0
	}
	return hz
}

func (o *Oscillation) Reset() {
	o.errs = o.errs[:0]
	o.t0, o.t1 = 0, 0
}
