package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/shiftr/internal/task"
)

// Shift palette: teal for working, amber for breaks.
var (
	colorPrimary   = lipgloss.Color("#2EC4B6")
	colorAccent    = lipgloss.Color("#FF9F1C")
	colorMuted     = lipgloss.Color("#6C757D")
	colorSuccess   = lipgloss.Color("#3DDC97")
	colorWarning   = lipgloss.Color("#FFBF69")
	colorError     = lipgloss.Color("#EF476F")
	colorFg        = lipgloss.Color("#E0E6ED")
	colorSubtle    = lipgloss.Color("#3A4750")
	colorHighlight = lipgloss.Color("#9BDEAC")
)

// Styles
var (
	// Tabs
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Padding(1, 2)

	// Clock
	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMuted).
			Align(lipgloss.Center)

	clockWorkingStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorSuccess).
				Align(lipgloss.Center)

	clockBreakStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWarning).
			Align(lipgloss.Center)

	// Text
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	accentStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	highlightStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	// Header/footer
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	// List items
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	// Calendar
	calendarDotStyle = lipgloss.NewStyle().
				Foreground(colorPrimary)

	calendarSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Reverse(true)
)

// statusStyles colors task statuses in lists.
var statusStyles = map[task.Status]lipgloss.Style{
	task.InProgress: successStyle,
	task.Pending:    warningStyle,
	task.Completed:  mutedStyle,
}

func renderStatus(s task.Status) string {
	st, ok := statusStyles[s]
	if !ok {
		st = normalItemStyle
	}
	return st.Render(string(s))
}
