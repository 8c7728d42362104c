package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorHot     = lipgloss.Color("#e53935")
	colorWarm    = lipgloss.Color("#FFC107")
	colorNurture = lipgloss.Color("#2196F3")
	colorMuted   = lipgloss.Color("#6b7280")
	colorOK      = lipgloss.Color("#8BC34A")

	titleStyle   = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	nameStyle    = lipgloss.NewStyle().Width(10)
	messageStyle = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle   = lipgloss.NewStyle().Foreground(colorHot).Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(colorOK)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1).
			MarginTop(1)
)

func recommendationStyle(rec string) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	switch rec {
	case "hot":
		return s.Foreground(colorHot)
	case "warm":
		return s.Foreground(colorWarm)
	case "nurture":
		return s.Foreground(colorNurture)
	}
	return s.Foreground(colorMuted)
}
