package automation

import (
	"fmt"
	"sort"
)

func f(v float64) *float64 { return &v }
func b(v bool) *bool       { return &v }

var builtins = map[string]Scenario{
	"straight": {
		Name:        "straight",
		Description: "Field-relative drive forward, then stop",
		Duration:    4,
		Alliance:    "blue",
		Steps: []Step{
			{At: 0, VX: f(2), Forward: "field"},
			{At: 2, VX: f(0)},
		},
	},
	"align": {
		Name:        "align",
		Description: "Snap a skewed robot to the nearest 90°",
		Duration:    3,
		Start:       Pose{X: 2, Y: 2, HeadingDeg: 37},
		Steps: []Step{
			{At: 0, Align: b(true)},
		},
	},
	"speaker": {
		Name:        "speaker",
		Description: "Hold the speaker in view while strafing",
		Duration:    5,
		Start:       Pose{X: 3, Y: 2},
		Alliance:    "blue",
		Steps: []Step{
			{At: 0, TargetSpeaker: true},
			{At: 1, VY: f(1), Forward: "field"},
			{At: 3, VY: f(0)},
		},
	},
	"red-perspective": {
		Name:        "red-perspective",
		Description: "Red driver station: latch while disabled, reset heading, drive away from the wall",
		Duration:    3,
		Start:       Pose{X: 15, Y: 4, HeadingDeg: 180},
		Alliance:    "red",
		Disabled:    true,
		Steps: []Step{
			{At: 0, ResetHeading: true},
			{At: 0.5, Disabled: b(false)},
			{At: 0.5, VX: f(1), Forward: "operator"},
			{At: 2, VX: f(0)},
		},
	},
	"saturate": {
		Name:        "saturate",
		Description: "Full speed while spinning, wheel speeds scaled down",
		Duration:    2,
		Steps: []Step{
			{At: 0, VX: f(4.5), Omega: f(6), Forward: "robot"},
			{At: 1.5, VX: f(0), Omega: f(0)},
		},
	},
}

// Builtin returns a copy of a named built-in scenario.
func Builtin(name string) (*Scenario, error) {
	sc, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q (have %v)", name, BuiltinNames())
	}
	sc.Steps = append([]Step(nil), sc.Steps...)
	return &sc, nil
}

func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve treats ref as a built-in name first, then as a file path.
func Resolve(ref string) (*Scenario, error) {
	if _, ok := builtins[ref]; ok {
		return Builtin(ref)
	}
	return LoadScenario(ref)
}
