package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/san-kum/swervesim/internal/automation"
	"github.com/san-kum/swervesim/internal/config"
	"github.com/san-kum/swervesim/internal/experiment"
)

const (
	stateScenario = iota
	statePreset
	stateLive
)

// picker chooses a scenario and a preset, then hands over to the live view.
type picker struct {
	state     int
	cursor    int
	scenarios []string
	presets   []string
	scenario  string

	base   *config.Config
	logger zerolog.Logger
	err    error
	live   Model
}

func NewInteractiveApp(base *config.Config, logger zerolog.Logger) tea.Model {
	return &picker{
		scenarios: automation.BuiltinNames(),
		presets:   config.ListPresets(),
		base:      base,
		logger:    logger,
	}
}

func (p *picker) Init() tea.Cmd { return nil }

func (p *picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.state == stateLive {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "backspace" {
			p.state = stateScenario
			p.cursor = 0
			return p, nil
		}
		next, cmd := p.live.Update(msg)
		p.live = next.(Model)
		return p, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	items := p.items()
	switch k.String() {
	case "q", "esc", "ctrl+c":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(items)-1 {
			p.cursor++
		}
	case "enter":
		return p.choose(items[p.cursor])
	}
	return p, nil
}

func (p *picker) items() []string {
	if p.state == statePreset {
		return p.presets
	}
	return p.scenarios
}

func (p *picker) choose(item string) (tea.Model, tea.Cmd) {
	if p.state == stateScenario {
		p.scenario = item
		p.state = statePreset
		p.cursor = 0
		return p, nil
	}

	exp, err := p.build(p.scenario, item)
	if err != nil {
		p.err = err
		p.state = stateScenario
		p.cursor = 0
		return p, nil
	}
	p.err = nil
	p.live = NewModel(exp)
	p.state = stateLive
	return p, p.live.Init()
}

func (p *picker) build(scenario, preset string) (*experiment.Experiment, error) {
	sc, err := automation.Builtin(scenario)
	if err != nil {
		return nil, err
	}
	apply, ok := config.Presets[preset]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q", preset)
	}
	cfg := *p.base
	apply(&cfg)
	return experiment.New(&cfg, sc, experiment.Options{Logger: p.logger})
}

func (p *picker) View() string {
	if p.state == stateLive {
		return p.live.View()
	}

	var b strings.Builder
	title := "Scenario"
	if p.state == statePreset {
		title = fmt.Sprintf("Preset for %s", p.scenario)
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")
	for i, item := range p.items() {
		cursor := "  "
		if i == p.cursor {
			cursor = "> "
			b.WriteString(valueStyle.Bold(true).Render(cursor+item) + "\n")
			continue
		}
		b.WriteString(hintStyle.Render(cursor+item) + "\n")
	}
	if p.err != nil {
		b.WriteString("\n" + statusError.Render(p.err.Error()) + "\n")
	}
	b.WriteString("\n" + hintStyle.Render("enter select · q quit · backspace returns here from the live view"))
	return panelStyle.Render(b.String())
}

func RunInteractive(base *config.Config, logger zerolog.Logger) error {
	_, err := tea.NewProgram(NewInteractiveApp(base, logger), tea.WithAltScreen()).Run()
	return err
}
