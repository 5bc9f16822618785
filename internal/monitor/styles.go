package monitor

import "github.com/charmbracelet/lipgloss"

var (
	colorCorrect = lipgloss.Color("#22c55e")
	colorWrong   = lipgloss.Color("#dc2626")
	colorDimmed  = lipgloss.Color("#6b7280")
	colorAccent  = lipgloss.Color("#3b82f6")
	colorDone    = lipgloss.Color("#f59e0b")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle   = lipgloss.NewStyle().Foreground(colorDimmed).Width(10)
	correctStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCorrect)
	wrongStyle   = lipgloss.NewStyle().Foreground(colorWrong)
	doneStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorDone)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDimmed)
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDimmed).
			Padding(0, 1)
)
