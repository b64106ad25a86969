package optim

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/san-kum/swervesim/internal/automation"
	"github.com/san-kum/swervesim/internal/config"
	"github.com/san-kum/swervesim/internal/experiment"
	"github.com/san-kum/swervesim/internal/metrics"
	"github.com/san-kum/swervesim/internal/sim"
)

// TuneHeading grid-searches heading controller gains on a scenario,
// minimizing the named metric. params name gains: "kp", "ki" or "kd".
func TuneHeading(
	ctx context.Context,
	base *config.Config,
	sc *automation.Scenario,
	params []string,
	ranges [][]float64,
	metricName string,
) ([]Trial, error) {
	g, err := NewGridSearch(params, ranges)
	if err != nil {
		return nil, err
	}
	if _, err := metrics.New(metricName); err != nil {
		return nil, err
	}

	build := func(p map[string]float64) (*sim.Loop, error) {
		cfg := *base
		for name, v := range p {
			switch name {
			case "kp":
				cfg.Heading.Kp = v
			case "ki":
				cfg.Heading.Ki = v
			case "kd":
				cfg.Heading.Kd = v
			}
		}
		m, _ := metrics.New(metricName)
		e, err := experiment.New(&cfg, sc, experiment.Options{
			Logger:  zerolog.Nop(),
			Metrics: []sim.Metric{m},
		})
		if err != nil {
			return nil, err
		}
		return e.Loop, nil
	}

	simCfg := base.SimConfig()
	simCfg.Duration = sc.EndTime()
	return g.Search(ctx, simCfg, build, metricName)
}
