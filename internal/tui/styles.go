package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var (
	accent  = lipgloss.Color("#F28C28")
	primary = lipgloss.Color("#3B82F6")

	// Title styling
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primary)

	// Header styling for per-canister steps
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent)

	// Success styling
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	// Error styling
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	// Warning styling
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5C07B")).
			Bold(true)

	// Subtle text styling
	SubtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	// Command styling for dry runs
	CommandStyle = lipgloss.NewStyle().
			Foreground(primary)
)

// NewHuhTheme returns the charm theme with orange titles and blue selections
func NewHuhTheme() *huh.Theme {
	theme := huh.ThemeCharm()

	theme.Focused.Title = theme.Focused.Title.Foreground(accent)
	theme.Focused.MultiSelectSelector = theme.Focused.MultiSelectSelector.Foreground(accent)
	theme.Focused.SelectedOption = theme.Focused.SelectedOption.Foreground(primary)
	theme.Focused.SelectedPrefix = theme.Focused.SelectedPrefix.Foreground(primary)

	return theme
}
