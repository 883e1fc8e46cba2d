package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/shiftr/internal/attendance"
	"github.com/sadopc/shiftr/internal/clock"
	"github.com/sadopc/shiftr/internal/history"
	"github.com/sadopc/shiftr/internal/store"
	"github.com/sadopc/shiftr/internal/task"
)

const recentLimit = 5

type dashboardModel struct {
	env    *env
	timer  timerModel
	width  int
	height int

	employee *store.Employee
	tasks    []task.Task
	recent   []history.ClockRecord
	goal     int64

	// Task picker state
	picking      bool
	pickerCursor int

	// Checkout disposition form
	formActive  bool
	form        *huh.Form
	disposition *string
	prompt      clock.CheckoutPrompt
}

func newDashboardModel(e *env) dashboardModel {
	disp := string(task.InProgress)
	return dashboardModel{
		env:         e,
		disposition: &disp,
	}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

type dashboardDataMsg struct {
	employee *store.Employee
	live     clock.LiveStatus
	tasks    []task.Task
	recent   []history.ClockRecord
	goal     int64
}

type checkoutPromptMsg struct {
	prompt clock.CheckoutPrompt
	err    error
}

func (d dashboardModel) loadData() tea.Cmd {
	e := d.env
	id := e.actorID
	return func() tea.Msg {
		msg := dashboardDataMsg{goal: e.store.DailyGoalSeconds()}
		if id == "" {
			return msg
		}
		msg.employee, _ = e.actor()
		msg.live = e.ctrl.Live(id)
		tasks, _ := e.store.Tasks().Assignable(context.Background(), id)
		msg.tasks = task.Open(tasks)
		recs, _ := e.ctrl.Records().ForEmployee(context.Background(), id)
		if len(recs) > recentLimit {
			recs = recs[:recentLimit]
		}
		msg.recent = recs
		return msg
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.employee = msg.employee
		d.timer.apply(msg.live)
		d.tasks = msg.tasks
		d.recent = msg.recent
		d.goal = msg.goal
		if d.pickerCursor >= len(d.tasks) {
			d.pickerCursor = max(0, len(d.tasks)-1)
		}
		return d, nil

	case liveMsg:
		if msg.EmployeeID == d.env.actorID {
			d.timer.apply(clock.LiveStatus(msg))
		}
		return d, nil

	case checkoutPromptMsg:
		if msg.err != nil {
			return d, statusCmd(d.env.report("checkout", msg.err, nil))
		}
		if msg.prompt.Task == nil {
			return d, d.completeCheckout(task.Completed)
		}
		return d.showCheckoutForm(msg.prompt)

	case tea.KeyMsg:
		if d.employee == nil {
			return d, nil
		}
		if d.picking {
			return d.updatePicker(msg)
		}

		id := d.employee.ID
		ctrl := d.env.ctrl
		switch {
		case key.Matches(msg, keys.CheckIn):
			return d, d.act("checkin", func(ctx context.Context) error {
				return ctrl.CheckIn(ctx, id)
			}, nil)

		case key.Matches(msg, keys.Break):
			if d.timer.onBreak() {
				return d, d.act("break_out", func(ctx context.Context) error {
					return ctrl.BreakOut(ctx, id)
				}, nil)
			}
			return d, d.act("break_in", func(ctx context.Context) error {
				return ctrl.BreakIn(ctx, id)
			}, func() map[string]any {
				return map[string]any{"BreaksLeft": ctrl.Live(id).BreaksLeft}
			})

		case key.Matches(msg, keys.Start):
			if len(d.tasks) == 0 {
				return d, statusCmd(statusMsg{text: "No open tasks assigned. Add one in Team (6).", isError: true})
			}
			d.picking = true
			d.pickerCursor = 0
			return d, nil

		case key.Matches(msg, keys.Checkout):
			return d, func() tea.Msg {
				p, err := ctrl.BeginCheckout(context.Background(), id)
				return checkoutPromptMsg{prompt: p, err: err}
			}

		case key.Matches(msg, keys.Logout):
			return d, d.act("logout", func(ctx context.Context) error {
				return ctrl.Logout(ctx, id)
			}, nil)
		}
	}
	return d, nil
}

func (d dashboardModel) act(action string, fn func(ctx context.Context) error, data func() map[string]any) tea.Cmd {
	e := d.env
	return func() tea.Msg {
		return actionDoneMsg{status: e.run(action, fn, data)}
	}
}

func statusCmd(s statusMsg) tea.Cmd {
	return func() tea.Msg { return s }
}

func (d dashboardModel) updatePicker(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if d.pickerCursor > 0 {
			d.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if d.pickerCursor < len(d.tasks)-1 {
			d.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		d.picking = false
		if d.pickerCursor >= len(d.tasks) {
			return d, nil
		}
		return d, startTaskCmd(d.env, d.employee.ID, d.tasks[d.pickerCursor].ID)
	case key.Matches(msg, keys.Back):
		d.picking = false
	}
	return d, nil
}

func startTaskCmd(e *env, employeeID, taskID string) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{status: e.run("task_start", func(ctx context.Context) error {
			return e.ctrl.StartTask(ctx, employeeID, taskID)
		}, nil)}
	}
}

func (d dashboardModel) showCheckoutForm(p clock.CheckoutPrompt) (dashboardModel, tea.Cmd) {
	d.prompt = p
	*d.disposition = string(task.InProgress)

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Status of %q", p.Task.Title)).
				Options(
					huh.NewOption("Still in progress", string(task.InProgress)),
					huh.NewOption("Completed", string(task.Completed)),
				).
				Value(d.disposition),
		),
	).WithShowHelp(true).WithShowErrors(true)

	d.formActive = true
	return d, d.form.Init()
}

func (d dashboardModel) updateForm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			d.formActive = false
			d.form = nil
			d.env.ctrl.CancelCheckout(d.prompt.EmployeeID)
			return d, statusCmd(statusMsg{text: "Check-out cancelled"})
		}
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	if d.form.State == huh.StateCompleted {
		d.formActive = false
		d.form = nil
		return d, d.completeCheckout(task.Status(*d.disposition))
	}
	return d, cmd
}

func (d dashboardModel) completeCheckout(disposition task.Status) tea.Cmd {
	e := d.env
	id := d.env.actorID
	return func() tea.Msg {
		return actionDoneMsg{status: e.run("checkout", func(ctx context.Context) error {
			_, err := e.ctrl.CompleteCheckout(ctx, id, disposition)
			return err
		}, nil)}
	}
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	if d.employee == nil {
		return panelStyle.Width(contentWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("No employee selected"),
			mutedStyle.Render("Open Team (6), create an employee and press a to act as them."),
		))
	}

	if d.formActive && d.form != nil {
		return d.renderCheckoutForm(contentWidth)
	}

	clockPanel := d.renderClockPanel(contentWidth)
	totalsPanel := d.renderTotalsPanel(contentWidth)

	var bottomPanel string
	if d.picking {
		bottomPanel = d.renderTaskPicker(contentWidth)
	} else {
		bottomPanel = d.renderRecentPanel(contentWidth)
	}

	return lipgloss.JoinVertical(lipgloss.Left, clockPanel, totalsPanel, bottomPanel)
}

func (d dashboardModel) renderClockPanel(w int) string {
	name := highlightStyle.Render(d.employee.Name)
	if d.employee.FieldLocation != "" {
		name += mutedStyle.Render(" @ " + d.employee.FieldLocation)
	}

	if !d.timer.running() {
		hint := mutedStyle.Render("Press i to check in")
		if out := d.timer.status.Day.LogoutTime; out != nil {
			hint = mutedStyle.Render("Checked out " + humanize.Time(*out) + ". Press i to check in")
		}
		content := lipgloss.JoinVertical(lipgloss.Center,
			clockStyle.Width(w-6).Render("00:00:00"),
			d.timer.indicator(),
			name,
			hint,
		)
		return panelStyle.Width(w).Render(content)
	}

	style := clockWorkingStyle
	if d.timer.onBreak() {
		style = clockBreakStyle
	}
	timeDisplay := style.Width(w - 6).Render(formatDuration(d.timer.session()))

	taskLine := mutedStyle.Render("No task. Press s to start one")
	if title := d.timer.taskTitle(); title != "" {
		taskLine = highlightStyle.Render(title) + mutedStyle.Render("  "+formatDuration(d.timer.taskElapsed()))
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		timeDisplay,
		d.timer.indicator(),
		name,
		taskLine,
	)
	return activePanelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderTotalsPanel(w int) string {
	day := d.timer.status.Day
	work := d.timer.work()
	brk := d.timer.breaks()
	net := max(0, work-brk)

	title := titleStyle.Render("Today")
	if day.Date != "" {
		title += mutedStyle.Render("  " + day.Date)
	}

	goal := ""
	if d.goal > 0 {
		pct := float64(net.Seconds()) / float64(d.goal) * 100
		goal = mutedStyle.Render(fmt.Sprintf("  %.0f%% of %s goal", pct, formatHours(d.goal)))
	}

	rows := []string{
		title,
		fmt.Sprintf("  %-10s %s   %-8s %s", "Login", clockTime(day.LoginTime), "Logout", clockTime(day.LogoutTime)),
		fmt.Sprintf("  %-10s %s", "Work", highlightStyle.Render(formatDuration(work))),
		fmt.Sprintf("  %-10s %s", "Break", warningStyle.Render(formatDuration(brk))),
		fmt.Sprintf("  %-10s %s%s", "Net", successStyle.Render(formatDuration(net)), goal),
		fmt.Sprintf("  %-10s %d/%d", "Breaks", len(day.Breaks), attendance.MaxBreaksPerDay),
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Check-outs")
	if len(d.recent) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No clock records yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	for _, r := range d.recent {
		row := fmt.Sprintf("  %s  %-24s %s  %s  %s",
			r.CheckIn.Local().Format("Jan 02 15:04"),
			r.TaskTitle,
			formatSeconds(r.DurationSeconds),
			renderStatus(r.TaskStatus),
			mutedStyle.Render(humanize.Time(r.CheckOut)),
		)
		rows = append(rows, row)
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderTaskPicker(w int) string {
	title := titleStyle.Render("Select Task")

	var rows []string
	rows = append(rows, title)
	for i, t := range d.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == d.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		line := style.Render(fmt.Sprintf("%s%-28s", cursor, t.Title)) + " " + renderStatus(t.Status)
		if t.Location != "" {
			line += mutedStyle.Render("  " + t.Location)
		}
		rows = append(rows, line)
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: start  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderCheckoutForm(w int) string {
	title := titleStyle.Render("Check Out")
	info := mutedStyle.Render(fmt.Sprintf("Session %s since %s",
		formatDuration(d.prompt.Elapsed), d.prompt.StartedAt.Local().Format("15:04")))
	return activePanelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, info, "", d.form.View()),
	)
}
