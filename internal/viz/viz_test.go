package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/geo/r2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/swervesim/internal/automation"
	"github.com/san-kum/swervesim/internal/config"
	"github.com/san-kum/swervesim/internal/experiment"
)

func TestCanvasSetAndString(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(10, 10) // off canvas

	got := []rune(c.String())
	require.Len(t, got, 2)
	assert.Equal(t, rune(brailleBlank|0x01), got[0])
	assert.Equal(t, rune(brailleBlank|0x80), got[1])

	c.Clear()
	assert.Equal(t, strings.Repeat(string(rune(brailleBlank)), 2), c.String())
}

func TestCanvasLine(t *testing.T) {
	c := NewCanvas(4, 1)
	c.Line(0, 0, 7, 0)
	for _, r := range c.String() {
		assert.Equal(t, rune(brailleBlank|0x01|0x08), r)
	}
}

func TestFieldProject(t *testing.T) {
	f := NewField(NewCanvas(50, 25), 10, 5)
	w, h := f.Dots()

	x, y := f.Project(r2.Point{})
	assert.Equal(t, 0, x)
	assert.Equal(t, h-1, y, "field origin is bottom left")

	x, y = f.Project(r2.Point{X: 10, Y: 5})
	assert.Equal(t, w-1, x)
	assert.Equal(t, 0, y)
}

func newLiveModel(t *testing.T) Model {
	t.Helper()
	sc, err := automation.Builtin("straight")
	require.NoError(t, err)
	exp, err := experiment.New(config.DefaultConfig(), sc, experiment.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	return NewModel(exp)
}

func TestModelTickAdvances(t *testing.T) {
	m := newLiveModel(t)
	next, cmd := m.Update(TickMsg(time.Now()))
	assert.NotNil(t, cmd)

	m = next.(Model)
	assert.InDelta(t, 0.06, m.t, 1e-9) // 50 ms frame rounds to 3 cycles
	assert.Len(t, m.trail, 3)
	assert.NotEmpty(t, m.View())
}

func TestModelPauseAndKeys(t *testing.T) {
	m := newLiveModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})
	m = next.(Model)
	assert.True(t, m.paused)
	next, _ = m.Update(TickMsg(time.Now()))
	m = next.(Model)
	assert.Zero(t, m.t)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	m = next.(Model)
	assert.True(t, m.exp.Drivetrain.Align())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'w'}})
	m = next.(Model)
	assert.True(t, m.driver.active)
	assert.Equal(t, 1.0, m.driver.vx)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	m = next.(Model)
	assert.False(t, m.driver.active)
}

func TestModelGainTuning(t *testing.T) {
	m := newLiveModel(t)
	require.Equal(t, []string{"Kd", "Ki", "Kp"}, m.params)
	heading := m.exp.Drivetrain.Policy().Heading

	// Kd starts at zero and is nudged up
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{']'}})
	m = next.(Model)
	assert.InDelta(t, 0.01, heading.Kd, 1e-12)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	kp := heading.Kp
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}})
	m = next.(Model)
	assert.InDelta(t, kp*0.9, heading.Kp, 1e-12)
	assert.NoError(t, m.err)
}

func TestManualDriverDecay(t *testing.T) {
	d := &manualDriver{}
	d.push(1, 0, 0)
	for i := 0; i < stickHold; i++ {
		d.decay()
		assert.Equal(t, 1.0, d.vx)
	}
	d.decay()
	assert.Zero(t, d.vx)
	assert.True(t, d.active)
}

func TestGetTheme(t *testing.T) {
	assert.Equal(t, "red", GetTheme("red").Name)
	assert.Equal(t, ThemeCarpet.Name, GetTheme("nope").Name)
	assert.Len(t, ThemeNames(), len(Themes))
}

func TestPickerLaunchesLive(t *testing.T) {
	app := NewInteractiveApp(config.DefaultConfig(), zerolog.Nop())
	p := app.(*picker)

	enter := tea.KeyMsg{Type: tea.KeyEnter}
	_, _ = p.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, p.cursor)
	_, _ = p.Update(enter)
	require.Equal(t, statePreset, p.state)
	assert.Equal(t, automation.BuiltinNames()[1], p.scenario)

	_, cmd := p.Update(enter)
	require.NoError(t, p.err)
	assert.Equal(t, stateLive, p.state)
	assert.NotNil(t, cmd)
	assert.Equal(t, p.scenario, p.live.exp.Scenario.Name)

	_, _ = p.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, stateScenario, p.state)
}
