package tui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	PrimaryColor = lipgloss.Color("39")  // Blue
	AccentColor  = lipgloss.Color("76")  // Green
	ErrorColor   = lipgloss.Color("196") // Red
	WarningColor = lipgloss.Color("214") // Orange
	MutedColor   = lipgloss.Color("240") // Gray
	TextColor    = lipgloss.Color("252") // Light gray
	BgColor      = lipgloss.Color("235") // Dark gray
)

// Styles
var (
	// Result list styles
	ResultListStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(MutedColor).
			Padding(0, 1)

	ResultItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	ResultItemSelectedStyle = lipgloss.NewStyle().
				Background(PrimaryColor).
				Foreground(lipgloss.Color("0")).
				Padding(0, 1)

	ScoreStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true)

	// Detail pane styles
	DetailStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(MutedColor).
			Padding(0, 1)

	DetailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(PrimaryColor)

	DetailLabelStyle = lipgloss.NewStyle().
				Foreground(MutedColor)

	// Input styles
	InputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 1)

	InputFocusedStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(AccentColor).
				Padding(0, 1)

	// Status bar styles
	StatusBarStyle = lipgloss.NewStyle().
			Background(BgColor).
			Foreground(TextColor).
			Padding(0, 1)

	StatusModeStyle = lipgloss.NewStyle().
			Background(PrimaryColor).
			Foreground(lipgloss.Color("0")).
			Padding(0, 1).
			MarginRight(1)

	StatusErrorStyle = lipgloss.NewStyle().
				Background(ErrorColor).
				Foreground(lipgloss.Color("0")).
				Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor)
)
