package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorAccent  = lipgloss.Color("99")
	colorActive  = lipgloss.Color("86")
	colorDim     = lipgloss.Color("241")
	colorError   = lipgloss.Color("196")
	colorWarning = lipgloss.Color("214")
	colorBorder  = lipgloss.Color("63")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	activeStyle = lipgloss.NewStyle().
			Foreground(colorActive)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	helpStyle = dimStyle

	inputBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	// Search results.
	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	scoreStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("141"))

	snippetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	// Notices printed by the CLI.
	noticeStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorWarning).
			Padding(0, 1)

	noticeTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorWarning)
)
