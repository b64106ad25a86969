package automation

import (
	"sync"

	"github.com/golang/geo/r2"
	"github.com/rs/zerolog"

	"github.com/san-kum/swervesim/internal/drive"
	"github.com/san-kum/swervesim/internal/drivetrain"
)

// Script plays a scenario as the driver of a sim loop. Steps fire on the
// first cycle at or after their time, in order.
type Script struct {
	mu     sync.Mutex
	steps  []Step
	next   int
	req    drive.Request
	match  *drivetrain.StaticMatch
	logger zerolog.Logger
}

// NewScript plays sc on top of base, the request template carrying the
// deadbands and module request kinds.
func NewScript(sc *Scenario, base drive.Request, match *drivetrain.StaticMatch, logger zerolog.Logger) *Script {
	return &Script{
		steps:  sc.sortedSteps(),
		req:    base,
		match:  match,
		logger: logger.With().Str("component", "script").Str("scenario", sc.Name).Logger(),
	}
}

// Command implements sim.Driver.
func (s *Script) Command(t float64, d *drivetrain.Drivetrain) drive.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.next < len(s.steps) && s.steps[s.next].At <= t {
		s.fire(s.steps[s.next], d)
		s.next++
	}
	return s.req
}

// Done reports whether every step has fired.
func (s *Script) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next >= len(s.steps)
}

func (s *Script) fire(st Step, d *drivetrain.Drivetrain) {
	s.logger.Debug().Float64("at", st.At).Msg("Step")

	if st.VX != nil {
		s.req.VelocityX = *st.VX
	}
	if st.VY != nil {
		s.req.VelocityY = *st.VY
	}
	if st.Omega != nil {
		s.req.RotationalRate = *st.Omega
	}
	if st.Forward != "" {
		// validated on load
		s.req.Forward, _ = drive.ParseForwardReference(st.Forward)
	}

	if st.Alliance != "" {
		a, _, _ := drivetrain.ParseAlliance(st.Alliance)
		s.match.SetAlliance(a)
	}
	if st.ClearAlliance {
		s.match.ClearAlliance()
	}
	if st.Disabled != nil {
		s.match.SetDisabled(*st.Disabled)
	}

	switch {
	case st.Target != nil:
		d.SetPointingTarget(r2.Point{X: st.Target.X, Y: st.Target.Y})
	case st.TargetSpeaker:
		d.SetPointingTarget(d.SpeakerLocation())
	case st.ClearTarget:
		d.ClearPointingTarget()
	}
	if st.Align != nil {
		d.SetAlign(*st.Align)
	}

	if st.Seed != nil {
		d.SeedFieldRelative(st.Seed.Pose())
	}
	if st.ResetHeading {
		d.ResetHeadingToOperatorForward()
	}
}
