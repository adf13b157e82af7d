package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent = lipgloss.Color("#8BC34A")
	colorMuted  = lipgloss.Color("#6b7280")
	colorWarn   = lipgloss.Color("#FFC107")
	colorError  = lipgloss.Color("#e53935")
	colorBorder = lipgloss.Color("#2a3850")
)

// styles holds the lipgloss styles used by the view.
type styles struct {
	title     lipgloss.Style
	muted     lipgloss.Style
	available lipgloss.Style
	rented    lipgloss.Style
	modal     lipgloss.Style
	owner     lipgloss.Style
	user      lipgloss.Style
	status    lipgloss.Style
	err       lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		muted:     lipgloss.NewStyle().Foreground(colorMuted),
		available: lipgloss.NewStyle().Foreground(colorAccent),
		rented:    lipgloss.NewStyle().Foreground(colorWarn),
		modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			MarginTop(1),
		owner:  lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		user:   lipgloss.NewStyle().Bold(true),
		status: lipgloss.NewStyle().Foreground(colorMuted).Italic(true),
		err:    lipgloss.NewStyle().Foreground(colorError),
	}
}
