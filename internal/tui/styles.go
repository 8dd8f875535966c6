package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#A78BFA") // purple
	goodColor    = lipgloss.Color("#10B981") // green
	warnColor    = lipgloss.Color("#F59E0B") // amber
	badColor     = lipgloss.Color("#F87171") // red
	mutedColor   = lipgloss.Color("#9CA3AF") // gray
	borderColor  = lipgloss.Color("#6B7280") // gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(goodColor)

	closedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warnColor)

	stoppedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(badColor)

	statsStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	paneTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	eventStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	crashStyle = lipgloss.NewStyle().
			Foreground(badColor)

	footerStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)
