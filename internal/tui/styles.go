package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary  = lipgloss.Color("#1e3a8a")
	colorAccent   = lipgloss.Color("#8884d8")
	colorTop      = lipgloss.Color("#82ca9d")
	colorBottom   = lipgloss.Color("#ff8042")
	colorPositive = lipgloss.Color("#3b82f6")
	colorNegative = lipgloss.Color("#ef4444")
	colorMuted    = lipgloss.Color("#6b7280")
)

// Styles groups the lipgloss styles used by the terminal dashboard.
type Styles struct {
	Header    lipgloss.Style
	Title     lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Muted     lipgloss.Style
	Bold      lipgloss.Style
	Error     lipgloss.Style
	Card      lipgloss.Style
	Help      lipgloss.Style
}

// DefaultStyles returns the dashboard palette.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(colorPrimary).
			Padding(0, 1),
		Title:     lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).MarginTop(1),
		Tab:       lipgloss.NewStyle().Padding(0, 2).Foreground(colorMuted),
		ActiveTab: lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(colorPrimary),
		Muted:     lipgloss.NewStyle().Foreground(colorMuted),
		Bold:      lipgloss.NewStyle().Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(colorNegative).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorNegative).
			Padding(0, 1),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1).
			MarginRight(1),
		Help: lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1),
	}
}
