package sim

import (
	"sync"

	"github.com/golang/geo/r2"

	"github.com/san-kum/swervesim/internal/actuator"
	"github.com/san-kum/swervesim/internal/dynamo"
	"github.com/san-kum/swervesim/internal/geom"
	"github.com/san-kum/swervesim/internal/kinematics"
	"github.com/san-kum/swervesim/internal/physics"
)

// EstimateSink receives the plant's pose and module states after each step.
type EstimateSink interface {
	UpdateEstimate(pose geom.Pose, states [kinematics.NumModules]kinematics.ModuleState)
}

// Plant is the simulated robot. It takes module commands like real
// hardware would, integrates the chassis, and reports pose and measured
// module states back as an estimator would.
type Plant struct {
	mu       sync.Mutex
	dyn      *physics.Chassis
	integ    dynamo.Integrator
	kin      *kinematics.Kinematics
	x        dynamo.State
	t        float64
	steps    int
	pending  [kinematics.NumModules]kinematics.ModuleState
	measured [kinematics.NumModules]kinematics.ModuleState
	sink     EstimateSink
}

func NewPlant(dyn *physics.Chassis, integ dynamo.Integrator, kin *kinematics.Kinematics, start geom.Pose) *Plant {
	return &Plant{
		dyn:   dyn,
		integ: integ,
		kin:   kin,
		x:     physics.NewChassisState(start),
	}
}

// SetSink registers where estimates go. Call before stepping.
func (p *Plant) SetSink(s EstimateSink) {
	p.mu.Lock()
	p.sink = s
	p.mu.Unlock()
}

// Apply implements actuator.Actuator. Like a motor controller, the module
// reverses the wheel rather than steer more than 90°.
func (p *Plant) Apply(module int, cmd actuator.ModuleCommand) {
	if module < 0 || module >= kinematics.NumModules {
		return
	}
	p.mu.Lock()
	p.pending[module] = cmd.State.Optimize(p.pending[module].Angle)
	p.mu.Unlock()
}

// Seed moves the robot to pose, keeping its velocity.
func (p *Plant) Seed(pose geom.Pose) {
	p.mu.Lock()
	p.x[physics.IdxX] = pose.X()
	p.x[physics.IdxY] = pose.Y()
	p.x[physics.IdxHeading] = pose.Rotation.Radians()
	p.mu.Unlock()
}

// Step advances the plant by dt and publishes the new estimate.
func (p *Plant) Step(dt float64, validate bool) error {
	p.mu.Lock()
	cmd := p.kin.ToChassisSpeeds(p.pending)
	u := dynamo.Control{cmd.Vx, cmd.Vy, cmd.Omega}
	if validate {
		if err := dynamo.CheckDims(p.dyn, p.x, u); err != nil {
			p.mu.Unlock()
			return err
		}
	}

	next := p.integ.Step(p.dyn, p.x, u, p.t, dt)
	if validate && !next.IsValid() {
		err := &dynamo.SimulationError{Step: p.steps, Time: p.t, State: p.x.Clone(), Wrapped: dynamo.ErrInvalidState}
		p.mu.Unlock()
		return err
	}
	p.x = next
	p.t += dt
	p.steps++

	p.measured = p.kin.ToModuleStates(physics.RobotSpeeds(p.x), r2.Point{}, p.measured)
	pose := physics.PoseOf(p.x)
	measured := p.measured
	sink := p.sink
	p.mu.Unlock()

	if sink != nil {
		sink.UpdateEstimate(pose, measured)
	}
	return nil
}

func (p *Plant) Pose() geom.Pose {
	p.mu.Lock()
	defer p.mu.Unlock()
	return physics.PoseOf(p.x)
}

// State returns a copy of the raw chassis state.
func (p *Plant) State() dynamo.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.x.Clone()
}

// Publish pushes the current estimate without stepping.
func (p *Plant) Publish() {
	p.mu.Lock()
	pose := physics.PoseOf(p.x)
	measured := p.measured
	sink := p.sink
	p.mu.Unlock()
	if sink != nil {
		sink.UpdateEstimate(pose, measured)
	}
}
