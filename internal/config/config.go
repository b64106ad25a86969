package config

import (
	"fmt"
	"math"
	"os"

	"github.com/golang/geo/r2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/swervesim/internal/actuator"
	"github.com/san-kum/swervesim/internal/control"
	"github.com/san-kum/swervesim/internal/drive"
	"github.com/san-kum/swervesim/internal/drivetrain"
	"github.com/san-kum/swervesim/internal/geom"
	"github.com/san-kum/swervesim/internal/integrators"
	"github.com/san-kum/swervesim/internal/kinematics"
	"github.com/san-kum/swervesim/internal/physics"
	"github.com/san-kum/swervesim/internal/sim"
	"github.com/san-kum/swervesim/internal/telemetry"
)

const (
	DefaultMotorFreeRPS      = 6080.0 / 60.0 // Falcon 500, FOC
	DefaultDriveGearRatio    = (50.0 / 14.0) * (16.0 / 28.0) * (45.0 / 15.0)
	DefaultWheelRadiusInches = 1.94
	DefaultModuleXInches     = 7.875
	DefaultModuleYInches     = 11.375
	DefaultDeadbandFraction  = 0.001
	DefaultUpdatePeriod      = 0.02
	DefaultPlantPeriod       = 0.005
	DefaultDuration          = 10.0
	DefaultCANBaseID         = 0x200
)

type Config struct {
	Drive     DriveConfig     `yaml:"drive"`
	Heading   HeadingConfig   `yaml:"heading"`
	Modules   ModulesConfig   `yaml:"modules"`
	Sim       SimConfig       `yaml:"sim"`
	Match     MatchConfig     `yaml:"match"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	CAN       CANConfig       `yaml:"can"`
	Log       LogConfig       `yaml:"log"`
	DataDir   string          `yaml:"data_dir"`
}

type DriveConfig struct {
	MaxSpeed         float64 `yaml:"max_speed"`      // m/s
	MaxAngleRate     float64 `yaml:"max_angle_rate"` // rad/s
	DeadbandFraction float64 `yaml:"deadband_fraction"`
	UpdatePeriod     float64 `yaml:"update_period"` // s
	Forward          string  `yaml:"forward"`
	DriveRequest     string  `yaml:"drive_request"`
	SteerRequest     string  `yaml:"steer_request"`
}

type HeadingConfig struct {
	Kp               float64 `yaml:"kp"`
	Ki               float64 `yaml:"ki"`
	Kd               float64 `yaml:"kd"`
	PointAtThreshold float64 `yaml:"point_at_threshold"`
	AlignThreshold   float64 `yaml:"align_threshold"`
	MaxPointingRate  float64 `yaml:"max_pointing_rate"`
}

// Location is a module offset in inches, +x forward and +y left.
type Location struct {
	X float64 `yaml:"x_in"`
	Y float64 `yaml:"y_in"`
}

type ModulesConfig struct {
	FrontLeft         Location `yaml:"front_left"`
	FrontRight        Location `yaml:"front_right"`
	BackLeft          Location `yaml:"back_left"`
	BackRight         Location `yaml:"back_right"`
	MotorFreeRPS      float64  `yaml:"motor_free_rps"`
	DriveGearRatio    float64  `yaml:"drive_gear_ratio"`
	WheelRadiusInches float64  `yaml:"wheel_radius_in"`
}

type SimConfig struct {
	PlantPeriod float64 `yaml:"plant_period"`
	Duration    float64 `yaml:"duration"`
	Integrator  string  `yaml:"integrator"`
	Tau         float64 `yaml:"tau"`
	RotTau      float64 `yaml:"rot_tau"`
}

type MatchConfig struct {
	Alliance string `yaml:"alliance"`
	Disabled bool   `yaml:"disabled"`
}

type TelemetryConfig struct {
	Log    bool         `yaml:"log"`
	Influx InfluxConfig `yaml:"influx"`
}

type InfluxConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BackupPath    string `yaml:"backup_path"`
	BatchSize     uint   `yaml:"batch_size"`
	FlushInterval uint   `yaml:"flush_interval_ms"`
}

type CANConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Interface string `yaml:"interface"`
	BaseID    uint32 `yaml:"base_id"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

func DefaultConfig() *Config {
	modules := ModulesConfig{
		FrontLeft:         Location{X: DefaultModuleXInches, Y: DefaultModuleYInches},
		FrontRight:        Location{X: DefaultModuleXInches, Y: -DefaultModuleYInches},
		BackLeft:          Location{X: -DefaultModuleXInches, Y: DefaultModuleYInches},
		BackRight:         Location{X: -DefaultModuleXInches, Y: -DefaultModuleYInches},
		MotorFreeRPS:      DefaultMotorFreeRPS,
		DriveGearRatio:    DefaultDriveGearRatio,
		WheelRadiusInches: DefaultWheelRadiusInches,
	}
	return &Config{
		Drive: DriveConfig{
			MaxSpeed:         modules.SpeedAt12Volts(),
			MaxAngleRate:     drive.MaxAngleRate,
			DeadbandFraction: DefaultDeadbandFraction,
			UpdatePeriod:     DefaultUpdatePeriod,
			Forward:          drive.OperatorPerspective.String(),
			DriveRequest:     actuator.OpenLoopVoltage.String(),
			SteerRequest:     actuator.MotionMagic.String(),
		},
		Heading: HeadingConfig{
			Kp:               control.DefaultHeadingKp,
			Ki:               control.DefaultHeadingKi,
			Kd:               control.DefaultHeadingKd,
			PointAtThreshold: drive.DefaultPointAtThreshold,
			AlignThreshold:   drive.DefaultAlignThreshold,
			MaxPointingRate:  drive.MaxAngleRate,
		},
		Modules: modules,
		Sim: SimConfig{
			PlantPeriod: DefaultPlantPeriod,
			Duration:    DefaultDuration,
			Integrator:  "rk4",
			Tau:         physics.DefaultTau,
			RotTau:      physics.DefaultRotTau,
		},
		Telemetry: TelemetryConfig{
			Influx: InfluxConfig{
				URL:           "http://localhost:8086",
				Org:           "frc",
				Bucket:        "swervesim",
				BackupPath:    "telemetry.lp.gz",
				BatchSize:     500,
				FlushInterval: 1000,
			},
		},
		CAN: CANConfig{
			Interface: "can0",
			BaseID:    DefaultCANBaseID,
		},
		Log:     LogConfig{Level: "info"},
		DataDir: "runs",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// SpeedAt12Volts is the theoretical free speed in m/s.
func (m ModulesConfig) SpeedAt12Volts() float64 {
	if m.DriveGearRatio == 0 {
		return 0
	}
	wheelRPS := m.MotorFreeRPS / m.DriveGearRatio
	return wheelRPS * geom.InchesToMeters(2*math.Pi*m.WheelRadiusInches)
}

// Locations converts the module offsets to meters in kinematics order.
func (m ModulesConfig) Locations() [kinematics.NumModules]r2.Point {
	var out [kinematics.NumModules]r2.Point
	for i, loc := range []Location{m.FrontLeft, m.FrontRight, m.BackLeft, m.BackRight} {
		out[i] = r2.Point{X: geom.InchesToMeters(loc.X), Y: geom.InchesToMeters(loc.Y)}
	}
	return out
}

func (c *Config) Chassis() drive.Chassis {
	return drive.Chassis{
		Kinematics: kinematics.New(c.Modules.Locations()),
		MaxSpeed:   c.Drive.MaxSpeed,
	}
}

// Policy builds a fresh pointing policy with its own heading controller.
func (c *Config) Policy() *drive.Policy {
	p := drive.NewPolicy(control.NewHeading(c.Heading.Kp, c.Heading.Ki, c.Heading.Kd))
	p.PointAtThreshold = c.Heading.PointAtThreshold
	p.AlignThreshold = c.Heading.AlignThreshold
	p.MaxPointingRate = c.Heading.MaxPointingRate
	return p
}

// BaseRequest is the teleop request template: deadbands as a fraction of
// the limits, plus the configured forward reference and module requests.
func (c *Config) BaseRequest() drive.Request {
	req := drive.TeleopRequest(c.Drive.MaxSpeed, c.Drive.MaxAngleRate)
	req.Deadband = c.Drive.MaxSpeed * c.Drive.DeadbandFraction
	req.RotationalDeadband = c.Drive.MaxAngleRate * c.Drive.DeadbandFraction
	// validated
	req.Forward, _ = drive.ParseForwardReference(c.Drive.Forward)
	req.DriveRequest, _ = actuator.ParseDriveRequest(c.Drive.DriveRequest)
	req.SteerRequest, _ = actuator.ParseSteerRequest(c.Drive.SteerRequest)
	return req
}

func (c *Config) Plant() (*physics.Chassis, error) {
	p := physics.NewChassis()
	if err := p.SetParam("tau", c.Sim.Tau); err != nil {
		return nil, err
	}
	if err := p.SetParam("rot_tau", c.Sim.RotTau); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		ControlPeriod: c.Drive.UpdatePeriod,
		PlantPeriod:   c.Sim.PlantPeriod,
		Duration:      c.Sim.Duration,
		ValidateState: true,
	}
}

func (c *Config) MatchState() drivetrain.MatchState {
	a, known, _ := drivetrain.ParseAlliance(c.Match.Alliance)
	return drivetrain.MatchState{Alliance: a, Known: known, Disabled: c.Match.Disabled}
}

func (c *Config) InfluxConfig() telemetry.InfluxConfig {
	in := c.Telemetry.Influx
	return telemetry.InfluxConfig{
		URL:           in.URL,
		Token:         in.Token,
		Org:           in.Org,
		Bucket:        in.Bucket,
		BackupPath:    in.BackupPath,
		BatchSize:     in.BatchSize,
		FlushInterval: in.FlushInterval,
	}
}

// Validate reports the first problem found.
func (c *Config) Validate() error {
	positive := []struct {
		field string
		value float64
	}{
		{"drive.max_speed", c.Drive.MaxSpeed},
		{"drive.max_angle_rate", c.Drive.MaxAngleRate},
		{"drive.update_period", c.Drive.UpdatePeriod},
		{"sim.plant_period", c.Sim.PlantPeriod},
		{"sim.tau", c.Sim.Tau},
		{"sim.rot_tau", c.Sim.RotTau},
		{"heading.align_threshold", c.Heading.AlignThreshold},
	}
	for _, p := range positive {
		if !(p.value > 0) || math.IsInf(p.value, 0) {
			return &ValidationError{Field: p.field, Reason: fmt.Sprintf("must be positive, got %v", p.value)}
		}
	}

	if c.Drive.DeadbandFraction < 0 || c.Drive.DeadbandFraction >= 1 {
		return &ValidationError{Field: "drive.deadband_fraction", Reason: "must be in [0, 1)"}
	}
	if c.Sim.PlantPeriod > c.Drive.UpdatePeriod {
		return &ValidationError{Field: "sim.plant_period", Reason: "must not exceed drive.update_period"}
	}
	if c.Sim.Duration < 0 {
		return &ValidationError{Field: "sim.duration", Reason: "must not be negative"}
	}
	if c.Heading.PointAtThreshold < 0 || c.Heading.MaxPointingRate < 0 {
		return &ValidationError{Field: "heading", Reason: "thresholds and rates must not be negative"}
	}

	if _, err := drive.ParseForwardReference(c.Drive.Forward); err != nil {
		return &ValidationError{Field: "drive.forward", Reason: err.Error()}
	}
	if _, err := actuator.ParseDriveRequest(c.Drive.DriveRequest); err != nil {
		return &ValidationError{Field: "drive.drive_request", Reason: err.Error()}
	}
	if _, err := actuator.ParseSteerRequest(c.Drive.SteerRequest); err != nil {
		return &ValidationError{Field: "drive.steer_request", Reason: err.Error()}
	}
	if _, err := integrators.New(c.Sim.Integrator); err != nil {
		return &ValidationError{Field: "sim.integrator", Reason: err.Error()}
	}
	if _, _, err := drivetrain.ParseAlliance(c.Match.Alliance); err != nil {
		return &ValidationError{Field: "match.alliance", Reason: err.Error()}
	}

	if c.Telemetry.Influx.Enabled && c.Telemetry.Influx.URL == "" {
		return &ValidationError{Field: "telemetry.influx.url", Reason: "required when influx is enabled"}
	}
	if c.CAN.Enabled && c.CAN.Interface == "" {
		return &ValidationError{Field: "can.interface", Reason: "required when CAN is enabled"}
	}
	if c.CAN.BaseID+kinematics.NumModules > 0x1FFFFFFF {
		return &ValidationError{Field: "can.base_id", Reason: "module ids exceed the 29-bit range"}
	}
	return nil
}
