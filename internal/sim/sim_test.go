package sim

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
	"github.com/rs/zerolog"

	"github.com/san-kum/swervesim/internal/actuator"
	"github.com/san-kum/swervesim/internal/drive"
	"github.com/san-kum/swervesim/internal/drivetrain"
	"github.com/san-kum/swervesim/internal/dynamo"
	"github.com/san-kum/swervesim/internal/geom"
	"github.com/san-kum/swervesim/internal/integrators"
	"github.com/san-kum/swervesim/internal/kinematics"
	"github.com/san-kum/swervesim/internal/physics"
)

func testKinematics() *kinematics.Kinematics {
	x := geom.InchesToMeters(7.875)
	y := geom.InchesToMeters(11.375)
	return kinematics.New([kinematics.NumModules]r2.Point{
		{X: x, Y: y}, {X: x, Y: -y}, {X: -x, Y: y}, {X: -x, Y: -y},
	})
}

func newTestLoop(t *testing.T, start geom.Pose, integ dynamo.Integrator, driver Driver) *Loop {
	t.Helper()
	kin := testKinematics()
	if integ == nil {
		integ = integrators.NewRK4()
	}
	plant := NewPlant(physics.NewChassis(), integ, kin, start)

	d, err := drivetrain.New(drivetrain.Config{
		Chassis:      drive.Chassis{Kinematics: kin, MaxSpeed: 4.5},
		UpdatePeriod: 0.02,
	}, plant, drivetrain.NewStaticMatch(drivetrain.MatchState{}), drivetrain.WithSeeder(plant))
	if err != nil {
		t.Fatalf("drivetrain: %v", err)
	}
	plant.SetSink(d)

	return NewLoop(d, plant, driver, zerolog.Nop())
}

func constant(req drive.Request) Driver {
	return DriverFunc(func(float64, *drivetrain.Drivetrain) drive.Request { return req })
}

type countMetric struct{ n int }

func (c *countMetric) Name() string   { return "count" }
func (c *countMetric) Observe(Sample) { c.n++ }
func (c *countMetric) Value() float64 { return float64(c.n) }
func (c *countMetric) Reset()         { c.n = 0 }

type nanIntegrator struct{}

func (nanIntegrator) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	out := x.Clone()
	out[0] = math.NaN()
	return out
}

func TestRun_DrivesForward(t *testing.T) {
	loop := newTestLoop(t, geom.Pose{}, nil, constant(drive.Request{VelocityX: 1, Forward: drive.FieldFrame}))

	cfg := DefaultConfig()
	cfg.Duration = 2.0
	result, err := loop.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Cycles != 100 {
		t.Errorf("expected 100 cycles, got %d", result.Cycles)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}

	pose := loop.Plant().Pose()
	// first-order lag: x(t) = v(t - tau(1 - e^{-t/tau}))
	want := 2.0 - physics.DefaultTau*(1-math.Exp(-2.0/physics.DefaultTau))
	if math.Abs(pose.X()-want) > 0.03 {
		t.Errorf("expected x ~%.3f, got %.3f", want, pose.X())
	}
	if math.Abs(pose.Y()) > 1e-9 {
		t.Errorf("expected no sideways drift, got y=%g", pose.Y())
	}

	final, _ := result.Final()
	if math.Abs(final.Measured.Vx-1) > 0.01 {
		t.Errorf("expected measured vx ~1, got %.4f", final.Measured.Vx)
	}
}

func TestRun_AlignSnapsHeading(t *testing.T) {
	loop := newTestLoop(t, geom.NewPose(0, 0, 10*s1.Degree), nil, constant(drive.Request{}))
	loop.Drivetrain().SetAlign(true)

	cfg := DefaultConfig()
	cfg.Duration = 3.0
	result, err := loop.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	heading := loop.Plant().Pose().Rotation.Degrees()
	if math.Abs(heading) > 1.0 {
		t.Errorf("expected heading near 0°, got %.3f°", heading)
	}
	if result.Samples[0].Output.Rotation.Mode != drive.AlignSnap {
		t.Errorf("expected align snap, got %v", result.Samples[0].Output.Rotation.Mode)
	}
}

func TestRun_PointsAtTarget(t *testing.T) {
	loop := newTestLoop(t, geom.Pose{}, nil, constant(drive.Request{}))
	loop.Drivetrain().SetPointingTarget(r2.Point{X: 5, Y: 5})

	cfg := DefaultConfig()
	cfg.Duration = 3.0
	result, err := loop.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	heading := loop.Plant().Pose().Rotation.Degrees()
	if math.Abs(heading-45) > 2.0 {
		t.Errorf("expected heading near 45°, got %.3f°", heading)
	}
	final, _ := result.Final()
	if math.Abs(final.HeadingError()) > 2*math.Pi/180 {
		t.Errorf("expected small heading error, got %.4f rad", final.HeadingError())
	}
	if !loop.Drivetrain().GoodPointing() {
		t.Error("expected good pointing after settling")
	}
}

func TestRun_MetricsAndObservers(t *testing.T) {
	loop := newTestLoop(t, geom.Pose{}, nil, constant(drive.Request{}))
	m := &countMetric{}
	loop.AddMetric(m)

	var seen int
	loop.AddObserver(ObserverFunc(func(Sample) { seen++ }))

	cfg := DefaultConfig()
	cfg.Duration = 1.0
	result, err := loop.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Metrics["count"] != 50 {
		t.Errorf("expected metric 50, got %f", result.Metrics["count"])
	}
	if seen != 50 {
		t.Errorf("expected 50 observer calls, got %d", seen)
	}

	// metrics reset between runs
	result, _ = loop.Run(context.Background(), cfg)
	if result.Metrics["count"] != 50 {
		t.Errorf("expected metric reset to 50, got %f", result.Metrics["count"])
	}
	if loop.Cycles() != 100 {
		t.Errorf("expected 100 total cycles, got %d", loop.Cycles())
	}
}

func TestRun_InvalidState(t *testing.T) {
	loop := newTestLoop(t, geom.Pose{}, nanIntegrator{}, constant(drive.Request{}))

	result, err := loop.Run(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(result.Errors))
	}
	if !errors.Is(result.Errors[0], dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", result.Errors[0])
	}
	var simErr *dynamo.SimulationError
	if !errors.As(result.Errors[0], &simErr) || simErr.Step != 0 {
		t.Errorf("expected SimulationError at step 0, got %v", result.Errors[0])
	}
	if result.Cycles != 1 {
		t.Errorf("expected run to stop after 1 cycle, got %d", result.Cycles)
	}
}

func TestRun_ValidateConfig(t *testing.T) {
	loop := newTestLoop(t, geom.Pose{}, nil, constant(drive.Request{}))

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero control period", Config{PlantPeriod: 0.005, Duration: 1}},
		{"zero plant period", Config{ControlPeriod: 0.02, Duration: 1}},
		{"plant slower than control", Config{ControlPeriod: 0.02, PlantPeriod: 0.05, Duration: 1}},
		{"zero duration", Config{ControlPeriod: 0.02, PlantPeriod: 0.005}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loop.Run(context.Background(), tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestRun_NoDriver(t *testing.T) {
	loop := newTestLoop(t, geom.Pose{}, nil, nil)
	if _, err := loop.Run(context.Background(), DefaultConfig()); !errors.Is(err, ErrNoDriver) {
		t.Errorf("expected ErrNoDriver, got %v", err)
	}
}

func TestRun_Canceled(t *testing.T) {
	loop := newTestLoop(t, geom.Pose{}, nil, constant(drive.Request{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := loop.Run(ctx, DefaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.Cycles != 0 {
		t.Errorf("expected empty partial result, got %+v", result)
	}
}

func TestRunRealtime(t *testing.T) {
	loop := newTestLoop(t, geom.Pose{}, nil, constant(drive.Request{VelocityX: 1, Forward: drive.FieldFrame}))

	cfg := DefaultConfig()
	cfg.Duration = 0.3
	start := time.Now()
	result, err := loop.RunRealtime(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 250*time.Millisecond {
		t.Errorf("realtime run returned after %v", elapsed)
	}
	if result.Cycles == 0 {
		t.Error("expected some control cycles")
	}
	if loop.Plant().Pose().X() <= 0 {
		t.Error("expected the plant to move forward")
	}
}

func TestPlant_SeedAndApply(t *testing.T) {
	kin := testKinematics()
	plant := NewPlant(physics.NewChassis(), integrators.NewRK4(), kin, geom.Pose{})

	plant.Seed(geom.NewPose(1, 2, math.Pi/2))
	pose := plant.Pose()
	if pose.X() != 1 || pose.Y() != 2 {
		t.Errorf("expected seeded translation (1, 2), got %s", pose)
	}

	// out of range indices are ignored
	plant.Apply(-1, actuator.ModuleCommand{State: kinematics.ModuleState{Speed: 9}})
	plant.Apply(kinematics.NumModules, actuator.ModuleCommand{State: kinematics.ModuleState{Speed: 9}})
	if err := plant.Step(0.005, true); err != nil {
		t.Fatalf("step: %v", err)
	}
	if v := plant.State()[physics.IdxVx]; v != 0 {
		t.Errorf("expected plant at rest, got vx=%g", v)
	}

	// a backwards command is driven as a reversed wheel, same motion
	for i := 0; i < kinematics.NumModules; i++ {
		plant.Apply(i, actuator.ModuleCommand{State: kinematics.ModuleState{Speed: 1, Angle: math.Pi}})
	}
	if got := plant.pending[0]; got.Speed != -1 || math.Abs(got.Angle.Radians()) > 1e-12 {
		t.Errorf("expected reversed wheel at 0 rad, got %s", got)
	}
	if err := plant.Step(0.005, true); err != nil {
		t.Fatalf("step: %v", err)
	}
	if v := physics.RobotSpeeds(plant.State()).Vx; v >= 0 {
		t.Errorf("expected backwards robot motion, got vx=%g", v)
	}
}

func TestRunAll(t *testing.T) {
	builds := make([]Builder, 3)
	for i := range builds {
		speed := float64(i + 1)
		builds[i] = func() (*Loop, error) {
			return newTestLoop(t, geom.Pose{}, nil, constant(drive.Request{VelocityX: speed, Forward: drive.FieldFrame})), nil
		}
	}

	cfg := DefaultConfig()
	cfg.Duration = 1.0
	results, err := RunAll(context.Background(), cfg, builds)
	if err != nil {
		t.Fatalf("run all failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		prev, _ := results[i-1].Final()
		cur, _ := results[i].Final()
		if cur.Pose.X() <= prev.Pose.X() {
			t.Errorf("run %d should travel farther than run %d", i, i-1)
		}
	}

	bad := append(builds, func() (*Loop, error) { return nil, errors.New("boom") })
	if _, err := RunAll(context.Background(), cfg, bad); err == nil {
		t.Error("expected build error")
	}
}

func TestStep_MatchesRun(t *testing.T) {
	req := drive.Request{VelocityX: 1, VelocityY: 0.5, Forward: drive.FieldFrame}
	a := newTestLoop(t, geom.Pose{}, nil, constant(req))
	b := newTestLoop(t, geom.Pose{}, nil, constant(req))

	cfg := DefaultConfig()
	cfg.Duration = 0.5
	if _, err := a.Run(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 25; i++ {
		if _, err := b.Step(float64(i)*cfg.ControlPeriod, cfg); err != nil {
			t.Fatal(err)
		}
	}

	pa, pb := a.Plant().Pose(), b.Plant().Pose()
	if pa != pb {
		t.Errorf("step and run disagree: %s vs %s", pa, pb)
	}
}
