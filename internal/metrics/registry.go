package metrics

import (
	"fmt"
	"sort"

	"github.com/san-kum/swervesim/internal/sim"
)

const (
	DefaultSettleThreshold = 0.05 // rad
	DefaultMass            = 56.0 // kg, robot with battery and bumpers
	DefaultInertia         = 6.0  // kg·m²
)

var registry = map[string]func() sim.Metric{
	"heading_error":       func() sim.Metric { return NewHeadingError() },
	"heading_oscillation": func() sim.Metric { return NewOscillation() },
	"settling_time":       func() sim.Metric { return NewSettling(DefaultSettleThreshold) },
	"rotation_effort":     func() sim.Metric { return NewRotationEffort() },
	"saturation_ratio":    func() sim.Metric { return NewSaturation() },
	"peak_energy":         func() sim.Metric { return NewPeakEnergy(DefaultMass, DefaultInertia) },
}

// New returns a fresh metric by name.
func New(name string) (sim.Metric, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric %q (have %v)", name, Names())
	}
	return factory(), nil
}

// All returns one fresh instance of every metric, sorted by name.
func All() []sim.Metric {
	out := make([]sim.Metric, 0, len(registry))
	for _, n := range Names() {
		out = append(out, registry[n]())
	}
	return out
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
