package tui

import "github.com/charmbracelet/lipgloss"

// styles contains all lipgloss styles used by the TUI.
var styles = struct {
	// Layout styles
	Container lipgloss.Style
	Divider   lipgloss.Style

	// Header styles
	Title        lipgloss.Style
	Connected    lipgloss.Style
	Disconnected lipgloss.Style

	// Body styles
	Stage    lipgloss.Style
	Message  lipgloss.Style
	Detail   lipgloss.Style
	Intent   lipgloss.Style
	Circle   lipgloss.Style
	Spinner  lipgloss.Style
	Complete lipgloss.Style

	// Footer styles
	Footer lipgloss.Style
	Notice lipgloss.Style

	// Status colors
	StatusIdle     lipgloss.Style
	StatusThinking lipgloss.Style
	StatusCoding   lipgloss.Style
	StatusComplete lipgloss.Style
	StatusHidden   lipgloss.Style
}{
	// Layout styles
	Container: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1),

	Divider: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	// Header styles
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")),

	Connected: lipgloss.NewStyle().
		Foreground(lipgloss.Color("82")),

	Disconnected: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")),

	// Body styles
	Stage: lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")),

	Message: lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")),

	Detail: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Intent: lipgloss.NewStyle().
		Italic(true).
		Foreground(lipgloss.Color("177")),

	Circle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("114")),

	Spinner: lipgloss.NewStyle().
		Foreground(lipgloss.Color("63")),

	Complete: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("82")),

	// Footer styles
	Footer: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Notice: lipgloss.NewStyle().
		Foreground(lipgloss.Color("220")),

	// Status colors
	StatusIdle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	StatusThinking: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("63")),

	StatusCoding: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("214")),

	StatusComplete: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("82")),

	StatusHidden: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),
}
