package metrics

import (
	"math"

	"github.com/san-kum/swervesim/internal/drive"
	"github.com/san-kum/swervesim/internal/sim"
)

// HeadingError is the RMS heading error over cycles where a rotation
// override was active. Passthrough cycles have no target and are skipped.
type HeadingError struct {
	name    string
	sumSq   float64
	samples int
}

func NewHeadingError() *HeadingError {
	return &HeadingError{name: "heading_error"}
}

func (h *HeadingError) Name() string { return h.name }

func (h *HeadingError) Observe(s sim.Sample) {
	if s.Output.Rotation.Mode == drive.Passthrough {
		return
	}
	e := s.HeadingError()
	h.sumSq += e * e
	h.samples++
}

func (h *HeadingError) Value() float64 {
	if h.samples == 0 {
		return 0
	}
	return math.Sqrt(h.sumSq / float64(h.samples))
}

func (h *HeadingError) Reset() {
	h.sumSq = 0
	h.samples = 0
}

// Settling is the time of the last cycle whose heading error exceeded
// threshold, i.e. how long the override took to settle for good.
type Settling struct {
	name      string
	threshold float64
	last      float64
}

func NewSettling(threshold float64) *Settling {
	return &Settling{name: "settling_time", threshold: threshold}
}

func (s *Settling) Name() string { return s.name }

func (s *Settling) Observe(sample sim.Sample) {
	if sample.Output.Rotation.Mode == drive.Passthrough {
		return
	}
	if math.Abs(sample.HeadingError()) > s.threshold {
		s.last = sample.T
	}
}

func (s *Settling) Value() float64 { return s.last }

func (s *Settling) Reset() { s.last = 0 }
