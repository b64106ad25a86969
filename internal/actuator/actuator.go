package actuator

import (
	"fmt"
	"sync"

	"github.com/san-kum/swervesim/internal/kinematics"
)

// DriveRequest selects how the drive motor follows the wheel speed.
type DriveRequest uint8

const (
	OpenLoopVoltage DriveRequest = iota
	Velocity
)

func (d DriveRequest) String() string {
	switch d {
	case OpenLoopVoltage:
		return "open_loop_voltage"
	case Velocity:
		return "velocity"
	default:
		return fmt.Sprintf("DriveRequest(%d)", uint8(d))
	}
}

func ParseDriveRequest(s string) (DriveRequest, error) {
	switch s {
	case "open_loop_voltage", "":
		return OpenLoopVoltage, nil
	case "velocity":
		return Velocity, nil
	}
	return 0, fmt.Errorf("actuator: unknown drive request %q", s)
}

// SteerRequest selects the steering motion profile.
type SteerRequest uint8

const (
	MotionMagic SteerRequest = iota
	MotionMagicExpo
)

func (s SteerRequest) String() string {
	switch s {
	case MotionMagic:
		return "motion_magic"
	case MotionMagicExpo:
		return "motion_magic_expo"
	default:
		return fmt.Sprintf("SteerRequest(%d)", uint8(s))
	}
}

func ParseSteerRequest(s string) (SteerRequest, error) {
	switch s {
	case "motion_magic", "":
		return MotionMagic, nil
	case "motion_magic_expo":
		return MotionMagicExpo, nil
	}
	return 0, fmt.Errorf("actuator: unknown steer request %q", s)
}

// ModuleCommand is everything a module needs for one cycle.
type ModuleCommand struct {
	State kinematics.ModuleState
	Drive DriveRequest
	Steer SteerRequest
}

// Actuator receives per-module commands. Implementations must not block
// the control cycle and report their own failures.
type Actuator interface {
	Apply(module int, cmd ModuleCommand)
}

// Recorder keeps the most recent command for each module.
type Recorder struct {
	mu       sync.RWMutex
	commands [kinematics.NumModules]ModuleCommand
	applied  int
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Apply(module int, cmd ModuleCommand) {
	if module < 0 || module >= kinematics.NumModules {
		return
	}
	r.mu.Lock()
	r.commands[module] = cmd
	r.applied++
	r.mu.Unlock()
}

// Last returns the latest command set.
func (r *Recorder) Last() [kinematics.NumModules]ModuleCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands
}

// States is Last reduced to wheel states.
func (r *Recorder) States() [kinematics.NumModules]kinematics.ModuleState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var states [kinematics.NumModules]kinematics.ModuleState
	for i, c := range r.commands {
		states[i] = c.State
	}
	return states
}

// Applied counts accepted Apply calls.
func (r *Recorder) Applied() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.applied
}

// Fanout forwards each command to several actuators in order.
type Fanout []Actuator

func (f Fanout) Apply(module int, cmd ModuleCommand) {
	for _, a := range f {
		a.Apply(module, cmd)
	}
}
