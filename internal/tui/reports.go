package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/shiftr/internal/attendance"
	"github.com/sadopc/shiftr/internal/history"
	"github.com/sadopc/shiftr/internal/timeutil"
)

const reportDays = 7

type reportsModel struct {
	env    *env
	width  int
	height int

	days      []attendance.Day
	summaries []history.DaySummary
	goal      int64
	offset    int // 7-day blocks back from today (0 = current)

	chart barchart.Model
}

func newReportsModel(e *env) reportsModel {
	return reportsModel{
		env:   e,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	days []attendance.Day
	goal int64
}

func (r reportsModel) refresh() tea.Cmd {
	e := r.env
	return func() tea.Msg {
		msg := reportsDataMsg{goal: e.store.DailyGoalSeconds()}
		emp, err := e.actor()
		if err != nil {
			return msg
		}
		ledger := e.ctrl.Ledger()
		if emp.IsAdmin() {
			for _, id := range ledger.Employees() {
				msg.days = append(msg.days, ledger.Days(id)...)
			}
		} else {
			msg.days = ledger.Days(emp.ID)
		}
		return msg
	}
}

// window returns the date keys of the displayed week, oldest first.
func (r reportsModel) window() []string {
	end := time.Now().AddDate(0, 0, -reportDays*r.offset)
	return timeutil.LastNDays(end, reportDays)
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.days = msg.days
		r.goal = msg.goal
		r.rebuild()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			r.rebuild()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			r.rebuild()
		}
	}
	return r, nil
}

func (r *reportsModel) rebuild() {
	r.summaries = history.Window(history.Summarize(r.days), r.window())
	r.buildChart()
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	workStyle := lipgloss.NewStyle().Foreground(colorSuccess)
	breakStyle := lipgloss.NewStyle().Foreground(colorWarning)

	var bars []barchart.BarData
	for _, s := range r.summaries {
		label := s.Date
		if t, err := timeutil.ParseDateKey(s.Date, time.Local); err == nil {
			label = t.Format("Mon 02")
		}
		bars = append(bars, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{
				{Name: "Net work", Value: float64(s.NetSeconds) / 3600.0, Style: workStyle},
				{Name: "Break", Value: float64(s.BreakSeconds) / 3600.0, Style: breakStyle},
			},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	dates := r.window()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s - %s", dates[0], dates[len(dates)-1]))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", dateLabel,
	)

	legend := "  " + successStyle.Render("● net work") + "  " + warningStyle.Render("● break")
	nav := mutedStyle.Render("  ←/→: navigate weeks")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", legend, "", r.renderSummaryTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderSummaryTable(w int) string {
	var total history.DaySummary
	for _, s := range r.summaries {
		total.WorkSeconds += s.WorkSeconds
		total.NetSeconds += s.NetSeconds
		total.BreakSeconds += s.BreakSeconds
		total.Breaks += s.Breaks
	}
	if total.WorkSeconds == 0 && total.Breaks == 0 {
		return mutedStyle.Render("  No data for this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %10s %10s %10s %7s %6s", "Date", "Work", "Break", "Net", "Breaks", "Goal")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 62))))

	for _, s := range r.summaries {
		goal := ""
		if r.goal > 0 && s.Employees > 0 {
			goal = fmt.Sprintf("%.0f%%", float64(s.NetSeconds)/float64(r.goal*int64(s.Employees))*100)
		}
		rows = append(rows, fmt.Sprintf("  %-12s %10s %10s %10s %7d %6s",
			s.Date, formatSeconds(s.WorkSeconds), formatSeconds(s.BreakSeconds),
			formatSeconds(s.NetSeconds), s.Breaks, goal,
		))
	}
	rows = append(rows, highlightStyle.Render(fmt.Sprintf("  %-12s %10s %10s %10s %7d",
		"Total", formatHours(total.WorkSeconds), formatHours(total.BreakSeconds),
		formatHours(total.NetSeconds), total.Breaks,
	)))
	return strings.Join(rows, "\n")
}
