package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	header      lipgloss.Style
	judgeTag    lipgloss.Style
	partnerTag  lipgloss.Style
	humanTag    lipgloss.Style
	errorText   lipgloss.Style
	status      lipgloss.Style
	banner      lipgloss.Style
	crashBanner lipgloss.Style
	help        lipgloss.Style
	inputPanel  lipgloss.Style
}

func newTheme() theme {
	red := lipgloss.Color("#ff5f5f")
	cyan := lipgloss.Color("#5fd7ff")
	green := lipgloss.Color("#87ff87")
	yellow := lipgloss.Color("#ffd75f")
	muted := lipgloss.Color("#8a8a8a")

	return theme{
		header: lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.RoundedBorder()).
			Padding(0, 1),
		judgeTag:   lipgloss.NewStyle().Foreground(red).Bold(true),
		partnerTag: lipgloss.NewStyle().Foreground(cyan).Bold(true),
		humanTag:   lipgloss.NewStyle().Foreground(green).Bold(true),
		errorText:  lipgloss.NewStyle().Foreground(red),
		status:     lipgloss.NewStyle().Foreground(cyan),
		banner: lipgloss.NewStyle().
			Foreground(yellow).
			Bold(true).
			BorderStyle(lipgloss.RoundedBorder()).
			Padding(0, 1),
		crashBanner: lipgloss.NewStyle().
			Foreground(red).
			Bold(true).
			BorderStyle(lipgloss.RoundedBorder()).
			Padding(0, 1),
		help: lipgloss.NewStyle().Foreground(muted),
		inputPanel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			Padding(0, 1),
	}
}
