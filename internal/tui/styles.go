package tui

import "github.com/charmbracelet/lipgloss"

var (
	dimStyle  = lipgloss.NewStyle().Faint(true)
	boldStyle = lipgloss.NewStyle().Bold(true)
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Error renders msg the way fatal messages are shown.
func Error(msg string) string { return errStyle.Render(msg) }

// Highlight renders s in the accent colour, e.g. a project name.
func Highlight(s string) string { return okStyle.Render(s) }
