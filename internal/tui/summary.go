package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/shiftr/internal/history"
)

// summaryModel lists finished clock records grouped by date, newest date
// first.
type summaryModel struct {
	env    *env
	width  int
	height int

	groups map[string][]history.ClockRecord
	dates  []string
	names  map[string]string
	admin  bool
	cursor int
}

func newSummaryModel(e *env) summaryModel {
	return summaryModel{env: e}
}

func (s *summaryModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type summaryDataMsg struct {
	records []history.ClockRecord
	names   map[string]string
	admin   bool
}

func (s summaryModel) refresh() tea.Cmd {
	e := s.env
	return func() tea.Msg {
		emp, err := e.actor()
		if err != nil {
			return summaryDataMsg{}
		}
		msg := summaryDataMsg{names: employeeNames(e), admin: emp.IsAdmin()}
		if msg.admin {
			msg.records, _ = e.ctrl.Records().List(context.Background())
		} else {
			msg.records, _ = e.ctrl.Records().ForEmployee(context.Background(), emp.ID)
		}
		return msg
	}
}

// employeeNames maps every employee ID, archived included, to a name.
func employeeNames(e *env) map[string]string {
	names := make(map[string]string)
	list, _ := e.store.ListEmployees(true)
	for _, emp := range list {
		names[emp.ID] = emp.Name
	}
	return names
}

func (s summaryModel) update(msg tea.Msg) (summaryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case summaryDataMsg:
		s.groups = history.GroupByDate(msg.records)
		s.dates = history.Dates(s.groups)
		slices.Reverse(s.dates)
		s.names = msg.names
		s.admin = msg.admin
		if s.cursor >= len(s.dates) {
			s.cursor = max(0, len(s.dates)-1)
		}
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up), key.Matches(msg, keys.Left):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down), key.Matches(msg, keys.Right):
			if s.cursor < len(s.dates)-1 {
				s.cursor++
			}
		}
	}
	return s, nil
}

func (s summaryModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Summary")

	if len(s.dates) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No clock records yet"),
		))
	}

	var rows []string
	rows = append(rows, title, "")

	// Date list
	for i, date := range s.dates {
		recs := s.groups[date]
		var total int64
		for _, r := range recs {
			total += r.DurationSeconds
		}
		cursor := "  "
		style := normalItemStyle
		if i == s.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-12s %s", cursor, date, formatSeconds(total)))+
			mutedStyle.Render(fmt.Sprintf("  %d records", len(recs))))
		if i == s.cursor {
			rows = append(rows, s.renderRecords(recs))
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  ↑/↓: date  E: export"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (s summaryModel) renderRecords(recs []history.ClockRecord) string {
	var lines []string
	for _, r := range recs {
		who := ""
		if s.admin {
			name, ok := s.names[r.EmployeeID]
			if !ok {
				name = r.EmployeeID
			}
			who = fmt.Sprintf("%-16s ", name)
		}
		lines = append(lines, fmt.Sprintf("      %s%s - %s  %-24s %s  %s  %s",
			who,
			r.CheckIn.Local().Format("15:04"),
			r.CheckOut.Local().Format("15:04"),
			r.TaskTitle,
			formatSeconds(r.DurationSeconds),
			renderStatus(r.TaskStatus),
			mutedStyle.Render(humanize.Time(r.CheckOut)),
		))
	}
	return strings.Join(lines, "\n")
}
