package drivetrain

import (
	"math"
	"sync"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/swervesim/internal/actuator"
	"github.com/san-kum/swervesim/internal/drive"
	"github.com/san-kum/swervesim/internal/geom"
	"github.com/san-kum/swervesim/internal/kinematics"
	"github.com/san-kum/swervesim/internal/telemetry"
)

type seedRecorder struct {
	seeded []geom.Pose
}

func (s *seedRecorder) Seed(p geom.Pose) { s.seeded = append(s.seeded, p) }

func newTestDrivetrain(t *testing.T, match *StaticMatch, opts ...Option) (*Drivetrain, *actuator.Recorder) {
	t.Helper()
	x := geom.InchesToMeters(7.875)
	y := geom.InchesToMeters(11.375)
	k := kinematics.New([kinematics.NumModules]r2.Point{
		{X: x, Y: y}, {X: x, Y: -y}, {X: -x, Y: y}, {X: -x, Y: -y},
	})

	rec := actuator.NewRecorder()
	d, err := New(Config{
		Chassis:      drive.Chassis{Kinematics: k, MaxSpeed: 4.5},
		UpdatePeriod: 0.02,
	}, rec, match, opts...)
	require.NoError(t, err)
	return d, rec
}

func TestNew_RequiresKinematics(t *testing.T) {
	_, err := New(Config{}, actuator.NewRecorder(), NewStaticMatch(MatchState{}))
	assert.ErrorIs(t, err, ErrNoKinematics)
}

func TestPeriodic_PerspectiveLatch(t *testing.T) {
	match := NewStaticMatch(MatchState{})
	d, _ := newTestDrivetrain(t, match)

	// unknown alliance: nothing latched
	d.Periodic()
	_, latched := d.OperatorForward()
	assert.False(t, latched)

	// first known alliance latches even while enabled
	match.SetAlliance(Red)
	d.Periodic()
	fwd, latched := d.OperatorForward()
	assert.True(t, latched)
	assert.InDelta(t, 180.0, fwd.Degrees(), 1e-9)

	// enabled: a changed alliance is ignored
	match.SetAlliance(Blue)
	d.Periodic()
	fwd, _ = d.OperatorForward()
	assert.InDelta(t, 180.0, fwd.Degrees(), 1e-9)

	// disabled: relatched every cycle
	match.SetDisabled(true)
	d.Periodic()
	fwd, _ = d.OperatorForward()
	assert.InDelta(t, 0.0, fwd.Degrees(), 1e-9)

	// disabled with the alliance gone: previous value kept
	match.ClearAlliance()
	d.Periodic()
	fwd, latched = d.OperatorForward()
	assert.True(t, latched)
	assert.InDelta(t, 0.0, fwd.Degrees(), 1e-9)
}

func TestPointingTargetAndAlign(t *testing.T) {
	d, _ := newTestDrivetrain(t, NewStaticMatch(MatchState{}))

	_, ok := d.PointingTarget()
	assert.False(t, ok)

	d.SetPointingTarget(r2.Point{X: 1, Y: 2})
	p, ok := d.PointingTarget()
	assert.True(t, ok)
	assert.Equal(t, r2.Point{X: 1, Y: 2}, p)

	st := d.Snapshot(0)
	require.NotNil(t, st.Target)
	assert.Equal(t, p, *st.Target)

	d.ClearPointingTarget()
	assert.Nil(t, d.Snapshot(0).Target)

	d.SetAlign(true)
	assert.True(t, d.Align())
	assert.True(t, d.Snapshot(0).Align)
}

func TestSnapshot_CarriesEstimate(t *testing.T) {
	d, _ := newTestDrivetrain(t, NewStaticMatch(MatchState{}))
	pose := geom.NewPose(1, 2, 0.5)
	states := [kinematics.NumModules]kinematics.ModuleState{{Speed: 1, Angle: 0.3}}

	d.UpdateEstimate(pose, states)
	st := d.Snapshot(3.5)

	assert.Equal(t, pose, st.Pose)
	assert.Equal(t, states, st.ModuleStates)
	assert.Equal(t, 3.5, st.Timestamp)
	assert.Equal(t, 0.02, st.UpdatePeriod)
}

func TestApply_SendsFourCommands(t *testing.T) {
	d, rec := newTestDrivetrain(t, NewStaticMatch(MatchState{}))

	req := drive.Request{VelocityX: 1, Forward: drive.FieldFrame, DriveRequest: actuator.Velocity}
	out := d.Apply(req, 0)

	assert.Equal(t, kinematics.NumModules, rec.Applied())
	for i, cmd := range rec.Last() {
		assert.Equal(t, out.States[i], cmd.State)
		assert.Equal(t, actuator.Velocity, cmd.Drive)
	}
}

func TestApply_AlignUsesPose(t *testing.T) {
	d, _ := newTestDrivetrain(t, NewStaticMatch(MatchState{}))
	d.UpdateEstimate(geom.NewPose(0, 0, 10*s1.Degree), [kinematics.NumModules]kinematics.ModuleState{})
	d.SetAlign(true)

	out := d.Apply(drive.Request{}, 0)
	assert.Equal(t, drive.AlignSnap, out.Rotation.Mode)
	assert.Less(t, out.Rotation.Rate, 0.0)
}

func TestApplyChassisSpeeds(t *testing.T) {
	d, rec := newTestDrivetrain(t, NewStaticMatch(MatchState{}))
	d.SetPointingTarget(r2.Point{X: 5, Y: 5})

	states := d.ApplyChassisSpeeds(kinematics.ChassisSpeeds{Vx: 9}, actuator.Velocity)
	for _, s := range states {
		assert.InDelta(t, 4.5, s.Speed, 1e-9)
		assert.InDelta(t, 0.0, s.Angle.Radians(), 1e-12)
	}
	assert.Equal(t, kinematics.NumModules, rec.Applied())
}

func TestResetHeadingToOperatorForward(t *testing.T) {
	tests := []struct {
		name  string
		state MatchState
		want  float64
	}{
		{"unknown defaults to blue", MatchState{}, 0},
		{"blue", MatchState{Alliance: Blue, Known: true}, 0},
		{"red", MatchState{Alliance: Red, Known: true}, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seeds := &seedRecorder{}
			d, _ := newTestDrivetrain(t, NewStaticMatch(tt.state), WithSeeder(seeds))
			d.UpdateEstimate(geom.NewPose(3, 4, 1.0), [kinematics.NumModules]kinematics.ModuleState{})

			d.ResetHeadingToOperatorForward()

			pose := d.Pose()
			assert.Equal(t, r2.Point{X: 3, Y: 4}, pose.Translation)
			assert.InDelta(t, tt.want, pose.Rotation.Degrees(), 1e-9)
			require.Len(t, seeds.seeded, 1)
			assert.Equal(t, pose, seeds.seeded[0])
		})
	}
}

func TestSpeakerQueries(t *testing.T) {
	match := NewStaticMatch(MatchState{})
	d, _ := newTestDrivetrain(t, match)

	assert.Equal(t, r2.Point{X: 0, Y: 5.548}, d.SpeakerLocation())

	match.SetAlliance(Red)
	assert.Equal(t, r2.Point{X: 16.579, Y: 5.548}, d.SpeakerLocation())

	d.UpdateEstimate(geom.NewPose(16.579, 1.548, 0), [kinematics.NumModules]kinematics.ModuleState{})
	assert.InDelta(t, 4.0, d.DistanceToSpeaker(), 1e-9)
	assert.InDelta(t, 90.0, d.AngleTo(d.SpeakerLocation()).Degrees(), 1e-9)
}

func TestNotActivelyMoving(t *testing.T) {
	d, _ := newTestDrivetrain(t, NewStaticMatch(MatchState{}))
	assert.True(t, d.NotActivelyMoving())

	moving := [kinematics.NumModules]kinematics.ModuleState{}
	for i := range moving {
		moving[i] = kinematics.ModuleState{Speed: 0.5}
	}
	d.UpdateEstimate(geom.Pose{}, moving)
	assert.False(t, d.NotActivelyMoving())

	spinning := d.chassis.Kinematics.ToModuleStates(kinematics.ChassisSpeeds{Omega: 3}, r2.Point{}, moving)
	d.UpdateEstimate(geom.Pose{}, spinning)
	assert.True(t, d.NotActivelyMoving(), "pure rotation is not translation")
}

func TestGoodPointing(t *testing.T) {
	d, _ := newTestDrivetrain(t, NewStaticMatch(MatchState{}))
	assert.True(t, d.GoodPointing())

	d.SetPointingTarget(r2.Point{X: 5, Y: 0})
	d.UpdateEstimate(geom.NewPose(0, 0, 0.05), [kinematics.NumModules]kinematics.ModuleState{})
	assert.True(t, d.GoodPointing())

	d.UpdateEstimate(geom.NewPose(0, 0, 0.5), [kinematics.NumModules]kinematics.ModuleState{})
	assert.False(t, d.GoodPointing())
}

func TestModulePoses(t *testing.T) {
	d, _ := newTestDrivetrain(t, NewStaticMatch(MatchState{}))
	d.UpdateEstimate(geom.NewPose(2, 3, math.Pi/2), [kinematics.NumModules]kinematics.ModuleState{})

	poses := d.ModulePoses()
	fl := d.chassis.Kinematics.Locations()[kinematics.FrontLeft]
	// rotated 90°: (x, y) -> (-y, x)
	assert.InDelta(t, 2-fl.Y, poses[kinematics.FrontLeft].X(), 1e-9)
	assert.InDelta(t, 3+fl.X, poses[kinematics.FrontLeft].Y(), 1e-9)
}

func TestPeriodic_PublishesDashboard(t *testing.T) {
	tbl := telemetry.NewTable()
	d, _ := newTestDrivetrain(t, NewStaticMatch(MatchState{Alliance: Blue, Known: true}), WithPublisher(tbl))
	d.UpdateEstimate(geom.NewPose(3, 1.548, 0), [kinematics.NumModules]kinematics.ModuleState{})

	d.Periodic()

	loc, _ := tbl.String(telemetry.KeySpeakerLocation)
	assert.Equal(t, "(0.00, 5.55)", loc)
	dist, _ := tbl.Number(telemetry.KeyDistanceSpeaker)
	assert.InDelta(t, 5.0, dist, 1e-9)
	tr, _ := tbl.String(telemetry.KeyRobotTranslation)
	assert.Equal(t, "(3.00, 1.55)", tr)
	rot, _ := tbl.String(telemetry.KeyRobotRotation)
	assert.Equal(t, "0.00°", rot)
	good, _ := tbl.Boolean(telemetry.KeyGoodPointing)
	assert.True(t, good)
	still, _ := tbl.Boolean(telemetry.KeyNotMoving)
	assert.True(t, still)
}

func TestConcurrentSettersAndApply(t *testing.T) {
	d, _ := newTestDrivetrain(t, NewStaticMatch(MatchState{}))

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			d.UpdateEstimate(geom.NewPose(float64(i), 0, s1.Angle(i)), [kinematics.NumModules]kinematics.ModuleState{})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if i%2 == 0 {
				d.SetPointingTarget(r2.Point{X: 10, Y: float64(i)})
			} else {
				d.ClearPointingTarget()
			}
			d.SetAlign(i%3 == 0)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			out := d.Apply(drive.Request{VelocityX: 1}, float64(i)*0.02)
			for _, s := range out.States {
				assert.False(t, math.IsNaN(s.Speed))
			}
		}
	}()
	wg.Wait()
}
