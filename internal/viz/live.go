package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/golang/geo/r2"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/swervesim/internal/drive"
	"github.com/san-kum/swervesim/internal/drivetrain"
	"github.com/san-kum/swervesim/internal/dynamo"
	"github.com/san-kum/swervesim/internal/experiment"
	"github.com/san-kum/swervesim/internal/kinematics"
	"github.com/san-kum/swervesim/internal/sim"
	"github.com/san-kum/swervesim/internal/telemetry"
)

// Field size for the 2024 game, in meters.
const (
	FieldLength = 16.541
	FieldWidth  = 8.211
)

const (
	frameInterval = 50 * time.Millisecond
	trailLen      = 400
	historyLen    = 120
	stickHold     = 4 // frames a key press keeps the stick deflected
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// manualDriver lets the keyboard take the sticks from a scenario script.
// Script steps keep firing underneath so toggles and alliance changes still
// happen on time.
type manualDriver struct {
	script sim.Driver
	active bool

	vx, vy, omega float64 // fraction of max, [-1, 1]
	hold          int
	maxSpeed      float64
	maxRate       float64
}

func (m *manualDriver) Command(t float64, d *drivetrain.Drivetrain) drive.Request {
	req := m.script.Command(t, d)
	if !m.active {
		return req
	}
	req.Forward = drive.OperatorPerspective
	return req.WithVelocity(m.vx*m.maxSpeed, m.vy*m.maxSpeed, m.omega*m.maxRate)
}

func (m *manualDriver) push(vx, vy, omega float64) {
	m.active = true
	m.vx, m.vy, m.omega = vx, vy, omega
	m.hold = stickHold
}

// decay centers the sticks once no key has been seen for a few frames;
// terminals report presses, not releases.
func (m *manualDriver) decay() {
	if m.hold > 0 {
		m.hold--
		return
	}
	m.vx, m.vy, m.omega = 0, 0, 0
}

// Model is the live field view of one experiment.
type Model struct {
	exp    *experiment.Experiment
	cfg    sim.Config
	driver *manualDriver
	field  *Field

	theme    Theme
	themeIdx int

	tunable  dynamo.Configurable
	params   []string
	paramIdx int

	t       float64
	speed   float64
	paused  bool
	help    bool
	err     error
	last    sim.Sample
	trail   []r2.Point
	errHist []float64

	width, height int
}

func NewModel(exp *experiment.Experiment) Model {
	d := &manualDriver{
		script:   exp.Script,
		maxSpeed: exp.Config.Drive.MaxSpeed,
		maxRate:  exp.Config.Drive.MaxAngleRate,
	}
	exp.Loop.SetDriver(d)

	heading := exp.Drivetrain.Policy().Heading
	params := make([]string, 0, 3)
	for name := range heading.GetParams() {
		params = append(params, name)
	}
	sort.Strings(params)

	return Model{
		exp:     exp,
		tunable: heading,
		params:  params,
		cfg:     exp.SimConfig(),
		driver:  d,
		field:   NewField(NewCanvas(64, 16), FieldLength, FieldWidth),
		theme:   ThemeCarpet,
		speed:   1,
		width:   100,
		height:  32,
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		w := max(msg.Width-44, 24)
		h := max(int(float64(w)*2*FieldWidth/FieldLength/4), 8)
		m.field = NewField(NewCanvas(w, h), FieldLength, FieldWidth)

	case TickMsg:
		if !m.paused && m.err == nil {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	dt := m.exp.Drivetrain
	switch msg.String() {
	case "esc", "ctrl+c":
		return m, tea.Quit
	case " ", "space":
		m.paused = !m.paused
	case "?":
		m.help = !m.help
	case "w", "up":
		m.driver.push(1, 0, 0)
	case "s", "down":
		m.driver.push(-1, 0, 0)
	case "a", "left":
		m.driver.push(0, 1, 0)
	case "d", "right":
		m.driver.push(0, -1, 0)
	case "q":
		m.driver.push(0, 0, 1)
	case "e":
		m.driver.push(0, 0, -1)
	case "x":
		m.driver.active = false
	case "g":
		dt.SetAlign(!dt.Align())
	case "p":
		if _, ok := dt.PointingTarget(); ok {
			dt.ClearPointingTarget()
		} else {
			dt.SetPointingTarget(dt.SpeakerLocation())
		}
	case "r":
		dt.ResetHeadingToOperatorForward()
	case "b":
		if m.exp.Match.Match().AllianceOrBlue() == drivetrain.Blue {
			m.exp.Match.SetAlliance(drivetrain.Red)
		} else {
			m.exp.Match.SetAlliance(drivetrain.Blue)
		}
	case "n":
		m.exp.Match.SetDisabled(!m.exp.Match.Match().Disabled)
	case "+", "=":
		m.speed = math.Min(m.speed*2, 8)
	case "-", "_":
		m.speed = math.Max(m.speed/2, 0.25)
	case "tab":
		m.cycleParam()
	case "[":
		m.adjustParam(0.9)
	case "]":
		m.adjustParam(1.1)
	case "t":
		m.themeIdx = (m.themeIdx + 1) % len(Themes)
		m.theme = Themes[m.themeIdx]
	}
	return m, nil
}

func (m *Model) cycleParam() {
	if len(m.params) > 0 {
		m.paramIdx = (m.paramIdx + 1) % len(m.params)
	}
}

// adjustParam scales the selected gain; a zero gain is nudged up from 0.01.
func (m *Model) adjustParam(factor float64) {
	if len(m.params) == 0 {
		return
	}
	name := m.params[m.paramIdx]
	v := m.tunable.GetParams()[name]
	if v == 0 && factor > 1 {
		v = 0.01
	} else {
		v *= factor
	}
	if err := m.tunable.SetParam(name, v); err != nil {
		m.err = err
	}
}

// cyclesPerFrame keeps sim time in step with wall time at speed 1.
func (m *Model) cyclesPerFrame() int {
	n := int(math.Round(m.speed * frameInterval.Seconds() / m.cfg.ControlPeriod))
	return max(n, 1)
}

func (m *Model) advance() {
	for i := 0; i < m.cyclesPerFrame(); i++ {
		s, err := m.exp.Loop.Step(m.t, m.cfg)
		m.t += m.cfg.ControlPeriod
		m.last = s
		if err != nil {
			m.err = err
			return
		}
		m.trail = append(m.trail, s.Pose.Translation)
		if len(m.trail) > trailLen {
			m.trail = m.trail[1:]
		}
		m.errHist = append(m.errHist, s.HeadingError()*180/math.Pi)
		if len(m.errHist) > historyLen {
			m.errHist = m.errHist[1:]
		}
	}
	m.driver.decay()
}

func (m Model) View() string {
	if m.help {
		return m.helpView()
	}
	m.draw()

	fieldStyle := lipgloss.NewStyle().Foreground(m.theme.Field)
	left := panelStyle.Render(titleStyle.Render(m.exp.Scenario.Name) + "\n" + fieldStyle.Render(m.field.String()))
	right := lipgloss.JoinVertical(lipgloss.Left, m.statsPanel(), m.graphPanel())

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return body + "\n" + m.statusLine()
}

func (m *Model) draw() {
	f := m.field
	f.Clear()
	f.Border()

	for _, a := range []drivetrain.Alliance{drivetrain.Blue, drivetrain.Red} {
		sp := a.SpeakerLocation()
		f.Segment(r2.Point{X: sp.X, Y: sp.Y - 0.5}, r2.Point{X: sp.X, Y: sp.Y + 0.5})
	}
	for _, p := range m.trail {
		f.Point(p)
	}

	dt := m.exp.Drivetrain
	pose := dt.Pose()
	f.Robot(pose, dt.Chassis().Kinematics.Locations())
	if target, ok := dt.PointingTarget(); ok {
		f.Dashed(pose.Translation, target)
	}
}

func (m Model) statsPanel() string {
	dt := m.exp.Drivetrain
	pose := dt.Pose()
	var b strings.Builder

	b.WriteString(titleStyle.Render("Robot") + "\n")
	b.WriteString(row("time", fmt.Sprintf("%.2f s", m.t)) + "\n")
	b.WriteString(row("pose", pose.String()) + "\n")
	b.WriteString(row("rotation", m.last.Output.Rotation.Mode.String()) + "\n")

	driverLabel := "script"
	if m.driver.active {
		driverLabel = "keyboard"
	}
	b.WriteString(row("driver", driverLabel) + "\n")
	b.WriteString(m.theme.Flag(dt.Align(), "align") + "  ")
	_, pointing := dt.PointingTarget()
	b.WriteString(m.theme.Flag(pointing, "point") + "  ")
	b.WriteString(m.theme.Flag(m.last.Output.Desaturated, "sat") + "\n\n")

	b.WriteString(titleStyle.Render("Gains") + "\n")
	gains := m.tunable.GetParams()
	for i, name := range m.params {
		label := "  " + name
		if i == m.paramIdx {
			label = "> " + name
		}
		b.WriteString(row(label, fmt.Sprintf("%.3f", gains[name])) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("Modules") + "\n")
	states := dt.ModuleStates()
	for i := 0; i < kinematics.NumModules; i++ {
		frac := math.Abs(states[i].Speed) / m.exp.Config.Drive.MaxSpeed
		b.WriteString(fmt.Sprintf("%-11s %s %5.2f %6.1f°\n",
			kinematics.ModuleNames[i], Bar(frac, 10), states[i].Speed, states[i].Angle.Degrees()))
	}

	b.WriteString("\n" + titleStyle.Render("Dashboard") + "\n")
	for _, k := range m.exp.Table.Keys() {
		b.WriteString(row(strings.TrimPrefix(k, "DT "), formatValue(m.exp.Table, k)) + "\n")
	}
	return panelStyle.Width(40).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) graphPanel() string {
	if len(m.errHist) < 2 {
		return ""
	}
	chart := asciigraph.Plot(m.errHist,
		asciigraph.Height(5),
		asciigraph.Width(30),
		asciigraph.Precision(1),
		asciigraph.Caption("heading error (deg)"))
	return panelStyle.Render(chart)
}

func (m Model) statusLine() string {
	status := statusRunning.Render("RUNNING")
	switch {
	case m.err != nil:
		status = statusError.Render("ERROR " + m.err.Error())
	case m.paused:
		status = statusPaused.Render("PAUSED")
	}
	alliance := "unknown"
	if st := m.exp.Match.Match(); st.Known {
		alliance = st.Alliance.String()
	}
	return fmt.Sprintf("%s  %s  speed %.2gx  %s  %s",
		status, alliance, m.speed, m.theme.Name, hintStyle.Render("? help"))
}

func (m Model) helpView() string {
	keys := [][2]string{
		{"space", "pause / resume"},
		{"w a s d", "drive (operator perspective)"},
		{"q e", "rotate"},
		{"x", "hand the sticks back to the script"},
		{"g", "toggle align snap"},
		{"p", "point at speaker / clear target"},
		{"r", "reset heading to operator forward"},
		{"b", "switch alliance"},
		{"n", "toggle disabled"},
		{"+ -", "sim speed"},
		{"tab", "select heading gain"},
		{"[ ]", "scale gain down / up"},
		{"t", "cycle theme"},
		{"esc", "quit"},
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Keys") + "\n\n")
	for _, k := range keys {
		b.WriteString(row(k[0], k[1]) + "\n")
	}
	return panelStyle.Render(b.String())
}

func formatValue(t *telemetry.Table, key string) string {
	v, _ := t.Get(key)
	switch v := v.(type) {
	case float64:
		return fmt.Sprintf("%.2f", v)
	case bool:
		if v {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprint(v)
	}
}

// RunLive opens the live view on exp and blocks until the user quits.
func RunLive(exp *experiment.Experiment) error {
	p := tea.NewProgram(NewModel(exp), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
