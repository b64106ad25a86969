package sim

import (
	"github.com/san-kum/swervesim/internal/drive"
	"github.com/san-kum/swervesim/internal/drivetrain"
	"github.com/san-kum/swervesim/internal/geom"
	"github.com/san-kum/swervesim/internal/kinematics"
)

// Sample is one control cycle as seen from outside.
type Sample struct {
	T        float64
	Pose     geom.Pose
	Request  drive.Request
	Output   drive.Output
	Measured kinematics.ChassisSpeeds // robot-relative
}

// HeadingError is the wrapped error to the rotation target, zero when no
// override was active.
func (s Sample) HeadingError() float64 {
	if s.Output.Rotation.Mode == drive.Passthrough {
		return 0
	}
	return (s.Output.Rotation.Target - s.Pose.Rotation).Normalized().Radians()
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnCycle(s Sample)
}

type ObserverFunc func(Sample)

func (f ObserverFunc) OnCycle(s Sample) { f(s) }

// Driver supplies the request for each cycle. It may also flip the
// drivetrain's pointing target and align flag, the way button bindings do.
type Driver interface {
	Command(t float64, d *drivetrain.Drivetrain) drive.Request
}

type DriverFunc func(t float64, d *drivetrain.Drivetrain) drive.Request

func (f DriverFunc) Command(t float64, d *drivetrain.Drivetrain) drive.Request { return f(t, d) }

type Config struct {
	ControlPeriod float64 // s
	PlantPeriod   float64 // s
	Duration      float64 // s, zero runs RunRealtime until canceled
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		ControlPeriod: 0.02,
		PlantPeriod:   0.005,
		Duration:      10.0,
		ValidateState: true,
	}
}

type Result struct {
	Samples []Sample
	Metrics map[string]float64
	Cycles  int
	Errors  []error
}

// Final is the last recorded sample.
func (r *Result) Final() (Sample, bool) {
	if len(r.Samples) == 0 {
		return Sample{}, false
	}
	return r.Samples[len(r.Samples)-1], true
}
