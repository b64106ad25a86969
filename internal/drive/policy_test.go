package drive

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
	"github.com/san-kum/swervesim/internal/geom"
)

func TestSnapTarget(t *testing.T) {
	tests := []struct {
		heading float64
		want    float64
	}{
		{10, 0},
		{44.9, 0},
		{45, 90},
		{100, 90},
		{-10, 0},
		{-80, -90},
		{179, 180},
		{-179, 180},
		{350, 0},
		{725, 0},
	}

	for _, tt := range tests {
		got := SnapTarget(s1.Angle(tt.heading) * s1.Degree).Degrees()
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("SnapTarget(%v°) = %v°, want %v°", tt.heading, got, tt.want)
		}
	}
}

func TestPolicy_Thresholds(t *testing.T) {
	target := r2.Point{X: 3, Y: 0}

	tests := []struct {
		name      string
		commanded float64
		target    *r2.Point
		align     bool
		want      Mode
	}{
		{"nothing set", 0, nil, false, Passthrough},
		{"target below point threshold", 0.049, &target, false, PointAt},
		{"target at point threshold", 0.05, &target, false, Passthrough},
		{"align below align threshold", 6.29, nil, true, AlignSnap},
		{"align at align threshold", 6.3, nil, true, Passthrough},
		{"negative rate uses magnitude", -0.01, &target, true, PointAt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			st := State{Pose: geom.NewPose(0, 0, 0.3), Target: tt.target, Align: tt.align}

			rot := p.Rotation(st, tt.commanded)
			if rot.Mode != tt.want {
				t.Errorf("expected %v, got %v", tt.want, rot.Mode)
			}
			if rot.Mode == Passthrough && rot.Rate != tt.commanded {
				t.Errorf("passthrough should keep %f, got %f", tt.commanded, rot.Rate)
			}
		})
	}
}

func TestPolicy_PointingRateLimit(t *testing.T) {
	// target almost directly behind: error near π, 4π rad/s unclamped
	target := r2.Point{X: -5, Y: 0.001}
	st := State{Pose: geom.NewPose(0, 0, 0), Target: &target}

	p := DefaultPolicy()
	rot := p.Rotation(st, 0)
	if math.Abs(rot.Rate-MaxAngleRate) > 1e-12 {
		t.Errorf("expected rate limited to %f, got %f", MaxAngleRate, rot.Rate)
	}

	p = DefaultPolicy()
	p.MaxPointingRate = 0
	rot = p.Rotation(st, 0)
	if rot.Rate <= MaxAngleRate {
		t.Errorf("expected unlimited rate above %f, got %f", MaxAngleRate, rot.Rate)
	}
}

func TestPolicy_PassthroughLeavesControllerAlone(t *testing.T) {
	p := DefaultPolicy()
	p.Rotation(State{Pose: geom.NewPose(0, 0, 1)}, 2.0)

	if p.Heading.Error() != 0 {
		t.Errorf("controller should not run in passthrough, saw error %v", p.Heading.Error())
	}
}

func TestParseForwardReference(t *testing.T) {
	for _, f := range []ForwardReference{OperatorPerspective, FieldFrame, RobotCentric} {
		got, err := ParseForwardReference(f.String())
		if err != nil || got != f {
			t.Errorf("round trip %v: got %v, %v", f, got, err)
		}
	}
	if _, err := ParseForwardReference("sideways"); err == nil {
		t.Error("expected error for unknown reference")
	}
}

func TestTeleopRequest(t *testing.T) {
	req := TeleopRequest(4.0, MaxAngleRate).WithVelocity(1, 2, 3)

	if math.Abs(req.Deadband-0.004) > 1e-12 {
		t.Errorf("expected deadband 0.004, got %f", req.Deadband)
	}
	if req.VelocityX != 1 || req.VelocityY != 2 || req.RotationalRate != 3 {
		t.Errorf("unexpected velocity %+v", req)
	}
	if req.Forward != OperatorPerspective {
		t.Errorf("expected operator perspective, got %v", req.Forward)
	}
}
