package drivetrain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/san-kum/swervesim/internal/actuator"
	"github.com/san-kum/swervesim/internal/drive"
	"github.com/san-kum/swervesim/internal/geom"
	"github.com/san-kum/swervesim/internal/kinematics"
	"github.com/san-kum/swervesim/internal/telemetry"
)

var ErrNoKinematics = errors.New("drivetrain: kinematics required")

// Seeder resets whatever produces the pose estimate.
type Seeder interface {
	Seed(pose geom.Pose)
}

type Config struct {
	Chassis      drive.Chassis
	UpdatePeriod float64 // seconds
}

type Option func(*Drivetrain)

func WithPublisher(p telemetry.Publisher) Option {
	return func(d *Drivetrain) { d.publisher = p }
}

func WithLogger(l zerolog.Logger) Option {
	return func(d *Drivetrain) { d.logger = l.With().Str("component", "drivetrain").Logger() }
}

func WithPolicy(p *drive.Policy) Option {
	return func(d *Drivetrain) { d.policy = p }
}

func WithSeeder(s Seeder) Option {
	return func(d *Drivetrain) { d.seeder = s }
}

// Drivetrain owns the state shared between the control cycle and the pose
// producer. Pose, measured module states, target and align flag are each
// published as one atomic value, so a reader never sees half an update.
type Drivetrain struct {
	chassis      drive.Chassis
	updatePeriod float64
	actuator     actuator.Actuator
	match        MatchSource
	publisher    telemetry.Publisher
	seeder       Seeder
	logger       zerolog.Logger

	// serializes Apply; the heading controller is not safe for concurrent use
	applyMu sync.Mutex
	policy  *drive.Policy

	pose    atomic.Pointer[geom.Pose]
	modules atomic.Pointer[[kinematics.NumModules]kinematics.ModuleState]
	target  atomic.Pointer[r2.Point]
	align   atomic.Bool

	perspectiveMu         sync.RWMutex
	operatorForward       s1.Angle
	hasAppliedPerspective bool

	cycles      metric.Int64Counter
	desaturated metric.Int64Counter
}

func New(cfg Config, act actuator.Actuator, match MatchSource, opts ...Option) (*Drivetrain, error) {
	if cfg.Chassis.Kinematics == nil {
		return nil, ErrNoKinematics
	}

	d := &Drivetrain{
		chassis:      cfg.Chassis,
		updatePeriod: cfg.UpdatePeriod,
		actuator:     act,
		match:        match,
		publisher:    telemetry.Nop{},
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.policy == nil {
		d.policy = drive.DefaultPolicy()
	}

	d.pose.Store(&geom.Pose{})
	d.modules.Store(&[kinematics.NumModules]kinematics.ModuleState{})

	m := meter()
	var err error
	d.cycles, err = m.Int64Counter(
		"drive.cycles",
		metric.WithDescription("Control cycles resolved, by rotation mode"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cycles counter: %w", err)
	}
	d.desaturated, err = m.Int64Counter(
		"drive.desaturated",
		metric.WithDescription("Control cycles whose wheel speeds were scaled down"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating desaturated counter: %w", err)
	}

	return d, nil
}

// UpdateEstimate publishes a new pose and measured module states. There is
// one writer: the estimator or the simulated plant.
func (d *Drivetrain) UpdateEstimate(pose geom.Pose, states [kinematics.NumModules]kinematics.ModuleState) {
	d.pose.Store(&pose)
	d.modules.Store(&states)
}

func (d *Drivetrain) Pose() geom.Pose {
	return *d.pose.Load()
}

func (d *Drivetrain) ModuleStates() [kinematics.NumModules]kinematics.ModuleState {
	return *d.modules.Load()
}

// SeedFieldRelative replaces the pose estimate.
func (d *Drivetrain) SeedFieldRelative(pose geom.Pose) {
	d.pose.Store(&pose)
	if d.seeder != nil {
		d.seeder.Seed(pose)
	}
	d.logger.Info().Str("pose", pose.String()).Msg("Pose seeded")
}

// ResetHeadingToOperatorForward keeps the translation and declares that the
// robot now faces away from its driver station.
func (d *Drivetrain) ResetHeadingToOperatorForward() {
	current := d.Pose()
	heading := d.match.Match().AllianceOrBlue().OperatorForward()
	d.SeedFieldRelative(geom.Pose{Translation: current.Translation, Rotation: heading})
}

// Periodic latches the operator perspective and publishes dashboard values.
// The perspective is applied the first time the alliance is known and again
// on every call while disabled, so a mid-match restart corrects itself
// without changing driving behavior while enabled.
func (d *Drivetrain) Periodic() {
	m := d.match.Match()

	d.perspectiveMu.Lock()
	if (!d.hasAppliedPerspective || m.Disabled) && m.Known {
		forward := m.Alliance.OperatorForward()
		if !d.hasAppliedPerspective || forward != d.operatorForward {
			d.logger.Info().Str("alliance", m.Alliance.String()).
				Float64("forwardDeg", forward.Degrees()).
				Msg("Operator perspective applied")
		}
		d.operatorForward = forward
		d.hasAppliedPerspective = true
	}
	d.perspectiveMu.Unlock()

	d.publish()
}

// OperatorForward returns the latched forward direction and whether one
// has been latched yet.
func (d *Drivetrain) OperatorForward() (s1.Angle, bool) {
	d.perspectiveMu.RLock()
	defer d.perspectiveMu.RUnlock()
	return d.operatorForward, d.hasAppliedPerspective
}

func (d *Drivetrain) SetPointingTarget(p r2.Point) {
	d.target.Store(&p)
}

func (d *Drivetrain) ClearPointingTarget() {
	d.target.Store(nil)
}

func (d *Drivetrain) PointingTarget() (r2.Point, bool) {
	p := d.target.Load()
	if p == nil {
		return r2.Point{}, false
	}
	return *p, true
}

func (d *Drivetrain) SetAlign(on bool) {
	d.align.Store(on)
}

func (d *Drivetrain) Align() bool {
	return d.align.Load()
}

// Snapshot reads every shared value once for a single cycle.
func (d *Drivetrain) Snapshot(timestamp float64) drive.State {
	forward, _ := d.OperatorForward()
	return drive.State{
		Pose:            d.Pose(),
		ModuleStates:    d.ModuleStates(),
		OperatorForward: forward,
		Target:          d.target.Load(),
		Align:           d.align.Load(),
		Timestamp:       timestamp,
		UpdatePeriod:    d.updatePeriod,
	}
}

// Apply resolves req against a fresh snapshot and sends the module
// commands to the actuator.
func (d *Drivetrain) Apply(req drive.Request, timestamp float64) drive.Output {
	st := d.Snapshot(timestamp)

	d.applyMu.Lock()
	out := drive.Resolve(st, req, d.chassis, d.policy)
	d.applyMu.Unlock()

	for i, state := range out.States {
		d.actuator.Apply(i, actuator.ModuleCommand{
			State: state,
			Drive: req.DriveRequest,
			Steer: req.SteerRequest,
		})
	}

	ctx := context.Background()
	d.cycles.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", out.Rotation.Mode.String())))
	if out.Desaturated {
		d.desaturated.Add(ctx, 1)
		d.logger.Trace().Float64("max", d.chassis.MaxSpeed).Msg("Wheel speeds desaturated")
	}
	return out
}

// ApplyChassisSpeeds drives robot-relative speeds directly, bypassing the
// pointing policy. Used by autonomous followers.
func (d *Drivetrain) ApplyChassisSpeeds(speeds kinematics.ChassisSpeeds, driveReq actuator.DriveRequest) [kinematics.NumModules]kinematics.ModuleState {
	states := d.chassis.Kinematics.ToModuleStates(speeds, r2.Point{}, d.ModuleStates())
	states, scaled := kinematics.DesaturateWheelSpeeds(states, d.chassis.MaxSpeed)
	for i, state := range states {
		d.actuator.Apply(i, actuator.ModuleCommand{State: state, Drive: driveReq})
	}
	if scaled {
		d.desaturated.Add(context.Background(), 1)
	}
	return states
}

// Policy exposes the pointing policy for live gain tuning.
func (d *Drivetrain) Policy() *drive.Policy {
	return d.policy
}

func (d *Drivetrain) Chassis() drive.Chassis {
	return d.chassis
}
