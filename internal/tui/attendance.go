package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/shiftr/internal/attendance"
	"github.com/sadopc/shiftr/internal/history"
	"github.com/sadopc/shiftr/internal/store"
	"github.com/sadopc/shiftr/internal/timeutil"
)

type attendanceModel struct {
	env    *env
	width  int
	height int

	days      []attendance.Day
	admin     bool
	weekStart time.Weekday
	selected  time.Time
	cursor    int

	formActive bool
	form       *huh.Form
	editing    attendance.Day

	// Form field pointers (survive value copies)
	formStatus *string
	formLogin  *string
	formLogout *string
	formBreaks *string
}

func newAttendanceModel(e *env) attendanceModel {
	status, login, logout, breaks := "", "", "", ""
	return attendanceModel{
		env:        e,
		selected:   timeutil.StartOfDay(time.Now()),
		weekStart:  time.Monday,
		formStatus: &status,
		formLogin:  &login,
		formLogout: &logout,
		formBreaks: &breaks,
	}
}

func (a *attendanceModel) setSize(w, h int) {
	a.width = w
	a.height = h
}

type attendanceDataMsg struct {
	days      []attendance.Day
	admin     bool
	weekStart time.Weekday
}

func (a attendanceModel) refresh() tea.Cmd {
	e := a.env
	return func() tea.Msg {
		msg := attendanceDataMsg{weekStart: time.Monday}
		if e.store.SettingOr(store.SettingWeekStart, "monday") == "sunday" {
			msg.weekStart = time.Sunday
		}
		emp, err := e.actor()
		if err != nil {
			return msg
		}
		ledger := e.ctrl.Ledger()
		if emp.IsAdmin() {
			msg.admin = true
			for _, id := range ledger.Employees() {
				msg.days = append(msg.days, ledger.Days(id)...)
			}
		} else {
			msg.days = ledger.Days(emp.ID)
		}
		return msg
	}
}

func (a attendanceModel) selectedDate() string {
	return timeutil.DateKey(a.selected)
}

// onSelected returns the rows of the selected date in employee order.
func (a attendanceModel) onSelected() []attendance.Day {
	return history.GroupDaysByDate(a.days)[a.selectedDate()]
}

func (a attendanceModel) update(msg tea.Msg) (attendanceModel, tea.Cmd) {
	if a.formActive && a.form != nil {
		return a.updateForm(msg)
	}

	switch msg := msg.(type) {
	case attendanceDataMsg:
		a.days = msg.days
		a.admin = msg.admin
		a.weekStart = msg.weekStart
		if n := len(a.onSelected()); a.cursor >= n {
			a.cursor = max(0, n-1)
		}
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			a.selected = a.selected.AddDate(0, 0, -1)
			a.cursor = 0
		case key.Matches(msg, keys.Right):
			a.selected = a.selected.AddDate(0, 0, 1)
			a.cursor = 0
		case key.Matches(msg, keys.Up):
			if a.cursor > 0 {
				a.cursor--
			}
		case key.Matches(msg, keys.Down):
			if a.cursor < len(a.onSelected())-1 {
				a.cursor++
			}
		case key.Matches(msg, keys.Edit):
			rows := a.onSelected()
			if !a.admin {
				return a, statusCmd(statusMsg{text: "Only admins can edit attendance", isError: true})
			}
			if a.cursor < len(rows) {
				return a.showOverrideForm(rows[a.cursor])
			}
		}
	}
	return a, nil
}

func (a attendanceModel) showOverrideForm(d attendance.Day) (attendanceModel, tea.Cmd) {
	a.editing = d
	*a.formStatus = string(attendance.Present)
	*a.formLogin = clockValue(d.LoginTime)
	*a.formLogout = clockValue(d.LogoutTime)
	*a.formBreaks = formatBreakSpans(d.Breaks)

	a.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Status").
				Options(
					huh.NewOption("Present", string(attendance.Present)),
					huh.NewOption("Absent", string(attendance.Absent)),
				).Value(a.formStatus),
			huh.NewInput().Title("Login (HH:MM)").Value(a.formLogin).Validate(validateClock),
			huh.NewInput().Title("Logout (HH:MM)").Value(a.formLogout).Validate(validateClock),
			huh.NewInput().Title("Breaks (HH:MM-HH:MM, ...)").Value(a.formBreaks).Validate(validateBreaks),
		),
	).WithShowHelp(true).WithShowErrors(true)

	a.formActive = true
	return a, a.form.Init()
}

func (a attendanceModel) updateForm(msg tea.Msg) (attendanceModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			a.formActive = false
			a.form = nil
			return a, nil
		}
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	if a.form.State == huh.StateCompleted {
		a.formActive = false
		a.form = nil
		o, err := a.override()
		if err != nil {
			return a, statusCmd(statusMsg{text: err.Error(), isError: true})
		}
		e := a.env
		return a, func() tea.Msg {
			return actionDoneMsg{status: e.run("override", func(ctx context.Context) error {
				return e.ctrl.AdminOverride(ctx, o)
			}, nil)}
		}
	}
	return a, cmd
}

// override builds the admin edit from the form fields.
func (a attendanceModel) override() (attendance.Override, error) {
	o := attendance.Override{
		EmployeeID: a.editing.User.ID,
		Date:       a.editing.Date,
		Status:     attendance.Presence(*a.formStatus),
	}
	if o.Status == attendance.Absent {
		return o, nil
	}
	day, err := timeutil.ParseDateKey(a.editing.Date, time.Local)
	if err != nil {
		return o, err
	}
	if o.LoginTime, err = parseClock(day, *a.formLogin); err != nil {
		return o, err
	}
	if o.LogoutTime, err = parseClock(day, *a.formLogout); err != nil {
		return o, err
	}
	if o.Breaks, err = parseBreakSpans(day, *a.formBreaks); err != nil {
		return o, err
	}
	return o, nil
}

// parseClock reads "HH:MM" on day. An empty string is a missing time.
func parseClock(day time.Time, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	hm, err := time.Parse("15:04", s)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	t := time.Date(day.Year(), day.Month(), day.Day(), hm.Hour(), hm.Minute(), 0, 0, day.Location())
	return &t, nil
}

// parseBreakSpans reads comma separated "HH:MM-HH:MM" spans. Either side of a
// span may be left empty.
func parseBreakSpans(day time.Time, s string) ([]attendance.BreakSpan, error) {
	var spans []attendance.BreakSpan
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		in, out, found := strings.Cut(part, "-")
		if !found {
			return nil, fmt.Errorf("invalid break %q, want HH:MM-HH:MM", part)
		}
		var span attendance.BreakSpan
		var err error
		if span.In, err = parseClock(day, in); err != nil {
			return nil, err
		}
		if span.Out, err = parseClock(day, out); err != nil {
			return nil, err
		}
		spans = append(spans, span)
	}
	return spans, nil
}

func validateClock(s string) error {
	_, err := parseClock(time.Now(), s)
	return err
}

func validateBreaks(s string) error {
	_, err := parseBreakSpans(time.Now(), s)
	return err
}

func clockValue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format("15:04")
}

func formatBreakSpans(breaks []attendance.Break) string {
	parts := make([]string, 0, len(breaks))
	for _, b := range breaks {
		in := b.In
		parts = append(parts, clockValue(&in)+"-"+clockValue(b.Out))
	}
	return strings.Join(parts, ", ")
}

func (a attendanceModel) view() string {
	w := a.width - 4

	if a.formActive && a.form != nil {
		title := titleStyle.Render(fmt.Sprintf("Edit attendance: %s on %s", a.editing.User.Name, a.editing.Date))
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", a.form.View()),
		)
	}

	date := a.selectedDate()
	title := titleStyle.Render("Attendance") + "  " + highlightStyle.Render(a.selected.Format("Mon, Jan 02 2006"))

	dates := history.Dates(history.GroupDaysByDate(a.days))
	calendar := renderCalendar(a.selected, a.weekStart, history.MarkDates(dates, date))

	rows := a.onSelected()
	var table string
	if len(rows) == 0 {
		table = mutedStyle.Render("  No attendance on this date")
	} else {
		table = a.renderTable(rows)
	}

	hint := "  ←/→: day  ↑/↓: select"
	if a.admin {
		hint += "  e: edit"
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		title, "", calendar, "", table, "", mutedStyle.Render(hint),
	))
}

func (a attendanceModel) renderTable(rows []attendance.Day) string {
	var lines []string
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %-20s %-6s %-6s %-9s %-9s %-9s %s",
		"Employee", "In", "Out", "Work", "Break", "Net", "State")))
	for i, d := range rows {
		cursor := "  "
		style := normalItemStyle
		if i == a.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		lines = append(lines, style.Render(fmt.Sprintf("%s%-20s %-6s %-6s %-9s %-9s %-9s",
			cursor, d.User.Name, clockTime(d.LoginTime), clockTime(d.LogoutTime),
			formatSeconds(d.TotalWorkSeconds), formatSeconds(d.TotalBreakSeconds),
			formatSeconds(attendance.NetWorkSeconds(d)),
		))+" "+dayState(d))
	}

	if a.cursor < len(rows) {
		if breaks := rows[a.cursor].Breaks; len(breaks) > 0 {
			lines = append(lines, "", titleStyle.Render("  Breaks"))
			for i, b := range breaks {
				in := b.In
				dur := formatSeconds(b.DurationSeconds)
				if b.Out == nil {
					dur = warningStyle.Render("open")
				}
				lines = append(lines, fmt.Sprintf("  %d. %s - %s  %s", i+1, clockTime(&in), clockTime(b.Out), dur))
			}
		}
	}
	return strings.Join(lines, "\n")
}

func dayState(d attendance.Day) string {
	switch {
	case d.IsOnBreak:
		return warningStyle.Render("on break")
	case d.IsActive:
		return successStyle.Render("active")
	case d.Overridden:
		return accentStyle.Render("edited")
	}
	return mutedStyle.Render("done")
}

// renderCalendar draws the month of selected with a dot under every date
// that has attendance.
func renderCalendar(selected time.Time, weekStart time.Weekday, marks map[string]history.Mark) string {
	first := time.Date(selected.Year(), selected.Month(), 1, 0, 0, 0, 0, selected.Location())

	var b strings.Builder
	b.WriteString(mutedStyle.Render("  " + first.Format("January 2006")))
	b.WriteString("\n  ")
	for i := 0; i < 7; i++ {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%-4s", time.Weekday((int(weekStart)+i)%7).String()[:2])))
	}
	b.WriteString("\n  ")

	offset := (int(first.Weekday()) - int(weekStart) + 7) % 7
	b.WriteString(strings.Repeat("    ", offset))
	col := offset
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		m := marks[timeutil.DateKey(d)]
		cell := fmt.Sprintf("%2d", d.Day())
		switch {
		case m.Selected:
			cell = calendarSelectedStyle.Render(cell)
		case m.Dot:
			cell = calendarDotStyle.Render(cell)
		}
		dot := " "
		if m.Dot {
			dot = calendarDotStyle.Render("•")
		}
		b.WriteString(cell + dot + " ")
		col++
		if col == 7 {
			col = 0
			b.WriteString("\n  ")
		}
	}
	return strings.TrimRight(b.String(), " \n")
}
