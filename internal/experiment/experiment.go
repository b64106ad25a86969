package experiment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/san-kum/swervesim/internal/actuator"
	"github.com/san-kum/swervesim/internal/automation"
	"github.com/san-kum/swervesim/internal/config"
	"github.com/san-kum/swervesim/internal/drivetrain"
	"github.com/san-kum/swervesim/internal/integrators"
	"github.com/san-kum/swervesim/internal/metrics"
	"github.com/san-kum/swervesim/internal/sim"
	"github.com/san-kum/swervesim/internal/telemetry"
)

type Options struct {
	Logger zerolog.Logger
	// Extra sinks alongside the in-memory table.
	Publishers []telemetry.Publisher
	// Extra actuators alongside the simulated plant, e.g. a CAN bus.
	Actuators []actuator.Actuator
	// Metrics to record; nil records metrics.All().
	Metrics []sim.Metric
}

// Experiment is one scenario wired to a simulated robot.
type Experiment struct {
	Config   *config.Config
	Scenario *automation.Scenario

	Loop       *sim.Loop
	Drivetrain *drivetrain.Drivetrain
	Plant      *sim.Plant
	Match      *drivetrain.StaticMatch
	Script     *automation.Script
	Table      *telemetry.Table
}

func New(cfg *config.Config, sc *automation.Scenario, opts Options) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	integ, err := integrators.New(cfg.Sim.Integrator)
	if err != nil {
		return nil, err
	}
	dyn, err := cfg.Plant()
	if err != nil {
		return nil, fmt.Errorf("plant: %w", err)
	}

	chassis := cfg.Chassis()
	plant := sim.NewPlant(dyn, integ, chassis.Kinematics, sc.Start.Pose())

	// scenario match settings win over config when given
	match := drivetrain.NewStaticMatch(cfg.MatchState())
	if sc.Alliance != "" || sc.Disabled {
		match = drivetrain.NewStaticMatch(sc.MatchState())
	}

	table := telemetry.NewTable()
	pubs := append(telemetry.Multi{table}, opts.Publishers...)
	acts := append(actuator.Fanout{plant}, opts.Actuators...)

	dt, err := drivetrain.New(drivetrain.Config{
		Chassis:      chassis,
		UpdatePeriod: cfg.Drive.UpdatePeriod,
	}, acts, match,
		drivetrain.WithPolicy(cfg.Policy()),
		drivetrain.WithPublisher(pubs),
		drivetrain.WithLogger(opts.Logger),
		drivetrain.WithSeeder(plant),
	)
	if err != nil {
		return nil, err
	}
	plant.SetSink(dt)

	script := automation.NewScript(sc, cfg.BaseRequest(), match, opts.Logger)
	loop := sim.NewLoop(dt, plant, script, opts.Logger)

	ms := opts.Metrics
	if ms == nil {
		ms = metrics.All()
	}
	for _, m := range ms {
		loop.AddMetric(m)
	}

	return &Experiment{
		Config:     cfg,
		Scenario:   sc,
		Loop:       loop,
		Drivetrain: dt,
		Plant:      plant,
		Match:      match,
		Script:     script,
		Table:      table,
	}, nil
}

// SimConfig is the config's loop settings with the scenario's length.
func (e *Experiment) SimConfig() sim.Config {
	c := e.Config.SimConfig()
	c.Duration = e.Scenario.EndTime()
	return c
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	return e.Loop.Run(ctx, e.SimConfig())
}

// RunRealtime runs on wall-clock tickers for the scenario length, or until
// ctx is done when forever is set.
func (e *Experiment) RunRealtime(ctx context.Context, forever bool) (*sim.Result, error) {
	c := e.SimConfig()
	if forever {
		c.Duration = 0
	}
	return e.Loop.RunRealtime(ctx, c)
}
