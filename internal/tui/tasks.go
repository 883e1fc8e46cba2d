package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/shiftr/internal/task"
)

// taskFilters is the cycle the filter key walks through. "" shows all.
var taskFilters = []task.Status{"", task.InProgress, task.Pending, task.Completed}

type tasksModel struct {
	env    *env
	width  int
	height int

	tasks  []task.Task
	cursor int
	filter int
}

func newTasksModel(e *env) tasksModel {
	return tasksModel{env: e}
}

func (t *tasksModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

type tasksDataMsg struct {
	tasks []task.Task
}

func (t tasksModel) refresh() tea.Cmd {
	e := t.env
	id := e.actorID
	return func() tea.Msg {
		if id == "" {
			return tasksDataMsg{}
		}
		tasks, _ := e.store.Tasks().Assignable(context.Background(), id)
		return tasksDataMsg{tasks: tasks}
	}
}

func (t tasksModel) visible() []task.Task {
	status := taskFilters[t.filter]
	if status == "" {
		return t.tasks
	}
	return task.Filter(t.tasks, status)
}

func (t tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksDataMsg:
		t.tasks = msg.tasks
		if n := len(t.visible()); t.cursor >= n {
			t.cursor = max(0, n-1)
		}
		return t, nil

	case tea.KeyMsg:
		list := t.visible()
		switch {
		case key.Matches(msg, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
		case key.Matches(msg, keys.Down):
			if t.cursor < len(list)-1 {
				t.cursor++
			}
		case key.Matches(msg, keys.Filter):
			t.filter = (t.filter + 1) % len(taskFilters)
			t.cursor = 0
		case key.Matches(msg, keys.Start), key.Matches(msg, keys.Enter):
			if t.cursor < len(list) && t.env.actorID != "" {
				return t, startTaskCmd(t.env, t.env.actorID, list[t.cursor].ID)
			}
		}
	}
	return t, nil
}

func (t tasksModel) view() string {
	w := t.width - 4
	filterName := "All"
	if s := taskFilters[t.filter]; s != "" {
		filterName = string(s)
	}
	title := titleStyle.Render("My Tasks") + mutedStyle.Render("  filter: "+filterName)

	list := t.visible()
	if len(list) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks here. Tasks are assigned from Team (6)."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-30s %-12s %-8s %s", "Title", "Status", "Priority", "Due")))

	now := time.Now()
	for i, tk := range list {
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		row := style.Render(fmt.Sprintf("%s%-30s", cursor, tk.Title)) + " " +
			lipgloss.NewStyle().Width(12).Render(renderStatus(tk.Status)) + " " +
			fmt.Sprintf("%-8s ", tk.Priority) + dueLabel(tk, now)
		rows = append(rows, row)
	}

	if t.cursor < len(list) {
		rows = append(rows, "", t.renderDetail(list[t.cursor]))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter/s: start  f: filter"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (t tasksModel) renderDetail(tk task.Task) string {
	var lines []string
	if tk.Description != "" {
		lines = append(lines, "  "+tk.Description)
	}
	if tk.Location != "" {
		lines = append(lines, mutedStyle.Render("  Location: "+tk.Location))
	}
	if tk.StartAt != nil || tk.EndAt != nil {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("  Window: %s - %s", shortDate(tk.StartAt), shortDate(tk.EndAt))))
	}
	return strings.Join(lines, "\n")
}

func dueLabel(tk task.Task, now time.Time) string {
	if tk.Status == task.Completed {
		return ""
	}
	if task.Overdue(tk, now) {
		return errorStyle.Render("Overdue")
	}
	left, ok := task.TimeRemaining(tk, now)
	if !ok {
		return mutedStyle.Render("-")
	}
	return formatDuration(left.Truncate(time.Minute)) + " left"
}

func shortDate(t *time.Time) string {
	if t == nil {
		return "?"
	}
	return t.Local().Format("Jan 02 15:04")
}
