package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ffff"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e0e0e0"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666688")).
			Italic(true)

	statusRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	statusPaused  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	statusError   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
)

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

// Bar renders a horizontal fill for frac in [0, 1].
func Bar(frac float64, width int) string {
	filled := int(frac*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
