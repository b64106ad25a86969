package drivetrain

import (
	"fmt"
	"strings"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
)

type Alliance uint8

const (
	Blue Alliance = iota
	Red
)

func (a Alliance) String() string {
	switch a {
	case Blue:
		return "blue"
	case Red:
		return "red"
	default:
		return fmt.Sprintf("Alliance(%d)", uint8(a))
	}
}

// ParseAlliance accepts "blue" or "red" in any case. An empty string means
// the alliance is not known yet.
func ParseAlliance(s string) (a Alliance, known bool, err error) {
	switch strings.ToLower(s) {
	case "":
		return Blue, false, nil
	case "blue":
		return Blue, true, nil
	case "red":
		return Red, true, nil
	}
	return Blue, false, fmt.Errorf("drivetrain: unknown alliance %q", s)
}

// OperatorForward is the field heading that points away from the
// alliance's driver station wall.
func (a Alliance) OperatorForward() s1.Angle {
	if a == Red {
		return 180 * s1.Degree
	}
	return 0
}

// SpeakerLocation is the alliance's speaker opening on the field, in meters.
func (a Alliance) SpeakerLocation() r2.Point {
	if a == Red {
		return r2.Point{X: 16.579, Y: 5.548}
	}
	return r2.Point{X: 0, Y: 5.548}
}

// MatchState is what the field management system reports.
type MatchState struct {
	Alliance Alliance
	Known    bool
	Disabled bool
}

// AllianceOrBlue falls back to Blue when the alliance is unknown.
func (m MatchState) AllianceOrBlue() Alliance {
	if !m.Known {
		return Blue
	}
	return m.Alliance
}

type MatchSource interface {
	Match() MatchState
}

// StaticMatch is a MatchSource set by hand, from config or a scenario.
type StaticMatch struct {
	mu    sync.RWMutex
	state MatchState
}

func NewStaticMatch(state MatchState) *StaticMatch {
	return &StaticMatch{state: state}
}

func (s *StaticMatch) Match() MatchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *StaticMatch) SetAlliance(a Alliance) {
	s.mu.Lock()
	s.state.Alliance = a
	s.state.Known = true
	s.mu.Unlock()
}

func (s *StaticMatch) ClearAlliance() {
	s.mu.Lock()
	s.state.Known = false
	s.mu.Unlock()
}

func (s *StaticMatch) SetDisabled(disabled bool) {
	s.mu.Lock()
	s.state.Disabled = disabled
	s.mu.Unlock()
}
