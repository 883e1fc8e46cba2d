package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/shiftr/internal/attendance"
	"github.com/sadopc/shiftr/internal/clock"
	"github.com/sadopc/shiftr/internal/export"
	"github.com/sadopc/shiftr/internal/history"
	"github.com/sadopc/shiftr/internal/notify"
	"github.com/sadopc/shiftr/internal/store"
)

var exportFormats = []string{"CSV", "JSON", "XLSX"}

// Options configures NewApp.
type Options struct {
	// EmployeeID is the employee the terminal starts acting as. It may be
	// empty until one is created in the Team view.
	EmployeeID string
	// ExportDir defaults to the user's home directory.
	ExportDir string
}

// App is the root Bubble Tea model.
type App struct {
	env    *env
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashboard  dashboardModel
	tasks      tasksModel
	attendance attendanceModel
	summary    summaryModel
	reports    reportsModel
	team       teamModel
	settings   settingsModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(s *store.Store, ctrl *clock.Controller, tr *notify.Translator, opts Options) App {
	h := help.New()
	h.ShowAll = false

	e := &env{
		store:     s,
		ctrl:      ctrl,
		tr:        tr,
		actorID:   opts.EmployeeID,
		exportDir: opts.ExportDir,
	}
	return App{
		env:        e,
		activeView: viewDashboard,
		dashboard:  newDashboardModel(e),
		tasks:      newTasksModel(e),
		attendance: newAttendanceModel(e),
		summary:    newSummaryModel(e),
		reports:    newReportsModel(e),
		team:       newTeamModel(e),
		settings:   newSettingsModel(e),
		help:       h,
	}
}

// LiveUpdates forwards the controller's ticks to a running program.
func LiveUpdates(p *tea.Program) func(clock.LiveStatus) {
	return func(st clock.LiveStatus) {
		p.Send(liveMsg(st))
	}
}

func (a App) Init() tea.Cmd {
	if a.env.actorID == "" {
		return tea.Batch(a.dashboard.loadData(), a.team.refresh())
	}
	return a.dashboard.loadData()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.attendance.setSize(a.width, contentHeight)
		a.summary.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.team.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchView(viewDashboard)
		case key.Matches(msg, keys.Tab2):
			return a.switchView(viewTasks)
		case key.Matches(msg, keys.Tab3):
			return a.switchView(viewAttendance)
		case key.Matches(msg, keys.Tab4):
			return a.switchView(viewSummary)
		case key.Matches(msg, keys.Tab5):
			return a.switchView(viewReports)
		case key.Matches(msg, keys.Tab6):
			return a.switchView(viewTeam)
		case key.Matches(msg, keys.Tab7):
			return a.switchView(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchView((a.activeView + 1) % viewState(len(viewNames)))
		}

	case liveMsg:
		// Always route ticks to the dashboard clock
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case actionDoneMsg:
		a.status = msg.status.text
		a.statusErr = msg.status.isError
		return a, a.refreshAfterAction()

	case actorChangedMsg:
		a.env.actorID = msg.id
		a.dashboard.timer.reset()
		a.dashboard.picking = false
		a.status = ""
		return a, tea.Batch(a.resumeActor(msg.id), a.refreshCurrentView())

	case exportDoneMsg:
		a.exportPicking = false
		a.status = msg.status.text
		a.statusErr = msg.status.isError
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) switchView(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

// resumeActor restores the employee's running session, if any, and reloads
// the dashboard once it is live again.
func (a App) resumeActor(id string) tea.Cmd {
	ctrl := a.env.ctrl
	reload := a.dashboard.loadData()
	return tea.Sequence(func() tea.Msg {
		if err := ctrl.Resume(context.Background(), id); err != nil {
			return statusMsg{text: fmt.Sprintf("Resume: %v", err), isError: true}
		}
		return nil
	}, reload)
}

func (a App) refreshAfterAction() tea.Cmd {
	if a.activeView == viewDashboard {
		return a.dashboard.loadData()
	}
	return tea.Batch(a.dashboard.loadData(), a.refreshCurrentView())
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.(type) {
	// Data messages go to their view whichever view is active.
	case dashboardDataMsg, checkoutPromptMsg:
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd
	case tasksDataMsg:
		a.tasks, cmd = a.tasks.update(msg)
		return a, cmd
	case attendanceDataMsg:
		a.attendance, cmd = a.attendance.update(msg)
		return a, cmd
	case summaryDataMsg:
		a.summary, cmd = a.summary.update(msg)
		return a, cmd
	case reportsDataMsg:
		a.reports, cmd = a.reports.update(msg)
		return a, cmd
	case employeesDataMsg, teamTasksDataMsg:
		a.team, cmd = a.team.update(msg)
		return a, cmd
	case settingsDataMsg:
		a.settings, cmd = a.settings.update(msg)
		return a, cmd
	}

	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewAttendance:
		a.attendance, cmd = a.attendance.update(msg)
	case viewSummary:
		a.summary, cmd = a.summary.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewTeam:
		a.team, cmd = a.team.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.formActive
	case viewAttendance:
		return a.attendance.formActive
	case viewTeam:
		return a.team.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewTasks:
		return a.tasks.refresh()
	case viewAttendance:
		return a.attendance.refresh()
	case viewSummary:
		return a.summary.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewTeam:
		return a.team.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewTasks:
		content = a.tasks.view()
	case viewAttendance:
		content = a.attendance.view()
	case viewSummary:
		content = a.summary.view()
	case viewReports:
		content = a.reports.view()
	case viewTeam:
		content = a.team.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(1, a.height-headerHeight-footerHeight)

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker(contentHeight)
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("shiftr")
	if emp := a.dashboard.employee; emp != nil {
		title += mutedStyle.Render(" · " + emp.Name)
	}
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Session indicator in footer
	clockInfo := ""
	if t := a.dashboard.timer; t.running() {
		clockInfo = successStyle.Render(" ● " + formatDuration(t.session()))
		if t.onBreak() {
			clockInfo = warningStyle.Render(" ⏸ " + formatDuration(t.breaks()))
		}
	}

	left := footerStyle.Render(helpView)
	right := clockInfo + status

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker(_ int) string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  CSV/JSON: clock records  XLSX: attendance sheet"))
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// exportScope returns what the actor may export: everything for admins,
// their own data otherwise.
func exportScope(ctx context.Context, e *env) ([]history.ClockRecord, []attendance.Day, error) {
	emp, err := e.actor()
	if err != nil {
		return nil, nil, fmt.Errorf("export: %w", err)
	}
	ledger := e.ctrl.Ledger()
	if emp.IsAdmin() {
		recs, err := e.ctrl.Records().List(ctx)
		if err != nil {
			return nil, nil, err
		}
		var days []attendance.Day
		for _, id := range ledger.Employees() {
			days = append(days, ledger.Days(id)...)
		}
		return recs, days, nil
	}
	recs, err := e.ctrl.Records().ForEmployee(ctx, emp.ID)
	if err != nil {
		return nil, nil, err
	}
	return recs, ledger.Days(emp.ID), nil
}

func (a App) doExport(format int) tea.Cmd {
	e := a.env
	return func() tea.Msg {
		dir := e.exportDir
		if dir == "" {
			dir, _ = os.UserHomeDir()
		}
		dateStr := time.Now().Format(time.DateOnly)

		path, err := func() (string, error) {
			recs, days, err := exportScope(context.Background(), e)
			if err != nil {
				return "", err
			}
			switch format {
			case 0:
				path := filepath.Join(dir, fmt.Sprintf("shiftr-records-%s.csv", dateStr))
				return path, export.ToCSV(recs, employeeNames(e), path)
			case 1:
				path := filepath.Join(dir, fmt.Sprintf("shiftr-records-%s.json", dateStr))
				return path, export.ToJSON(recs, employeeNames(e), path)
			default:
				path := filepath.Join(dir, fmt.Sprintf("shiftr-attendance-%s.xlsx", dateStr))
				return path, export.ToXLSX(days, path)
			}
		}()
		return exportDoneMsg{path: path, status: e.report("export", err, map[string]any{"Path": path})}
	}
}
