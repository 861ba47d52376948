package tui

import (
	"compass/types"

	"github.com/charmbracelet/lipgloss"
)

// Gradient ends for the component bars, calm to hot.
const (
	colorSuccess = "#2E9E6B"
	colorError   = "#D64545"
)

var (
	ink    = lipgloss.AdaptiveColor{Light: "#1F2933", Dark: "#E4E7EB"}
	muted  = lipgloss.AdaptiveColor{Light: "#7B8794", Dark: "#9AA5B1"}
	accent = lipgloss.AdaptiveColor{Light: "#B3261E", Dark: "#F2B8B5"}
	amber  = lipgloss.Color("#E0A526")
)

// severityRamp runs from low to critical.
var severityRamp = map[types.Severity]lipgloss.TerminalColor{
	types.SeverityLow:      muted,
	types.SeverityModerate: lipgloss.Color(colorSuccess),
	types.SeverityElevated: amber,
	types.SeverityHigh:     lipgloss.Color("#E8762C"),
	types.SeverityCritical: lipgloss.Color(colorError),
}

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).
			BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(muted)
	InfoStyle      = lipgloss.NewStyle().Foreground(muted)
	StatusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess))
	WarnStyle      = lipgloss.NewStyle().Foreground(amber)
	ErrorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorError))
	HighlightStyle = lipgloss.NewStyle().Reverse(true).Foreground(ink).PaddingLeft(1).PaddingRight(1)
	TabStyle       = lipgloss.NewStyle().Foreground(muted).Underline(true).PaddingLeft(1).PaddingRight(1)
)

func severityStyle(s types.Severity) lipgloss.Style {
	c, ok := severityRamp[s]
	if !ok {
		c = muted
	}
	return lipgloss.NewStyle().Foreground(c).Bold(s.Rank() >= types.SeverityHigh.Rank())
}
