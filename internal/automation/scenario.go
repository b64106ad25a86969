package automation

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"

	"github.com/golang/geo/s1"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/swervesim/internal/drive"
	"github.com/san-kum/swervesim/internal/drivetrain"
	"github.com/san-kum/swervesim/internal/geom"
)

var (
	ErrEmptyScenario = errors.New("automation: scenario has no steps")
	ErrBadStep       = errors.New("automation: invalid step")
)

// Scenario scripts a drive session: where the robot starts, what the match
// looks like, and what the driver does at which time.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Duration    float64 `yaml:"duration"`
	Start       Pose    `yaml:"start"`
	Alliance    string  `yaml:"alliance"`
	Disabled    bool    `yaml:"disabled"`
	Steps       []Step  `yaml:"steps"`
}

type Pose struct {
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	HeadingDeg float64 `yaml:"heading_deg"`
}

func (p Pose) Pose() geom.Pose {
	return geom.NewPose(p.X, p.Y, s1.Angle(p.HeadingDeg)*s1.Degree)
}

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Step changes inputs at time At. Nil fields leave the previous value.
type Step struct {
	At float64 `yaml:"at"`

	VX      *float64 `yaml:"vx"`
	VY      *float64 `yaml:"vy"`
	Omega   *float64 `yaml:"omega"`
	Forward string   `yaml:"forward"`

	Target        *Point `yaml:"target"`
	TargetSpeaker bool   `yaml:"target_speaker"`
	ClearTarget   bool   `yaml:"clear_target"`
	Align         *bool  `yaml:"align"`

	Alliance      string `yaml:"alliance"`
	ClearAlliance bool   `yaml:"clear_alliance"`
	Disabled      *bool  `yaml:"disabled"`

	Seed         *Pose `yaml:"seed"`
	ResetHeading bool  `yaml:"reset_heading"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Save writes the scenario as YAML.
func (sc *Scenario) Save(path string) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return fmt.Errorf("encoding scenario: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return ErrEmptyScenario
	}
	if _, _, err := drivetrain.ParseAlliance(sc.Alliance); err != nil {
		return fmt.Errorf("%w: %v", ErrBadStep, err)
	}
	for i, st := range sc.Steps {
		if st.At < 0 || math.IsNaN(st.At) {
			return fmt.Errorf("%w: step %d at %f", ErrBadStep, i+1, st.At)
		}
		if st.Forward != "" {
			if _, err := drive.ParseForwardReference(st.Forward); err != nil {
				return fmt.Errorf("%w: step %d: %v", ErrBadStep, i+1, err)
			}
		}
		if _, _, err := drivetrain.ParseAlliance(st.Alliance); err != nil {
			return fmt.Errorf("%w: step %d: %v", ErrBadStep, i+1, err)
		}
		if st.Target != nil && (st.TargetSpeaker || st.ClearTarget) {
			return fmt.Errorf("%w: step %d sets more than one target action", ErrBadStep, i+1)
		}
	}
	return nil
}

// EndTime is the run length: Duration if set, else one second past the
// last step.
func (sc *Scenario) EndTime() float64 {
	if sc.Duration > 0 {
		return sc.Duration
	}
	end := 0.0
	for _, st := range sc.Steps {
		end = math.Max(end, st.At)
	}
	return end + 1.0
}

// MatchState is the match at t=0.
func (sc *Scenario) MatchState() drivetrain.MatchState {
	a, known, _ := drivetrain.ParseAlliance(sc.Alliance)
	return drivetrain.MatchState{Alliance: a, Known: known, Disabled: sc.Disabled}
}

// Perturbed copies the scenario with the start pose jittered uniformly by
// up to pos meters and heading degrees.
func (sc *Scenario) Perturbed(rng *rand.Rand, pos, heading float64) *Scenario {
	out := *sc
	out.Steps = append([]Step(nil), sc.Steps...)
	out.Start.X += (rng.Float64() - 0.5) * 2 * pos
	out.Start.Y += (rng.Float64() - 0.5) * 2 * pos
	out.Start.HeadingDeg += (rng.Float64() - 0.5) * 2 * heading
	return &out
}

func (sc *Scenario) sortedSteps() []Step {
	steps := append([]Step(nil), sc.Steps...)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].At < steps[j].At })
	return steps
}
