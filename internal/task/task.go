// Package task defines the work items an employee clocks time against.
package task

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

type Status string

const (
	Pending    Status = "Pending"
	InProgress Status = "In Progress"
	Completed  Status = "Completed"
)

// ParseStatus accepts the display label or a compact form ("in_progress").
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(s))) {
	case "pending":
		return Pending, nil
	case "in progress", "inprogress":
		return InProgress, nil
	case "completed", "done":
		return Completed, nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// rank orders statuses for display: work in progress first, finished last.
func (s Status) rank() int {
	switch s {
	case InProgress:
		return 0
	case Pending:
		return 1
	case Completed:
		return 2
	}
	return 3
}

type Priority string

const (
	Low    Priority = "Low"
	Medium Priority = "Medium"
	High   Priority = "High"
)

type Task struct {
	ID          string
	Title       string
	Description string
	AssigneeID  string
	Location    string
	StartAt     *time.Time
	EndAt       *time.Time
	Status      Status
	Priority    Priority
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Sort orders tasks in progress, pending, completed; ties keep the newest
// task first.
func Sort(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		ri, rj := tasks[i].Status.rank(), tasks[j].Status.rank()
		if ri != rj {
			return ri < rj
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}

// Filter returns the tasks with the given status. An empty status keeps all.
func Filter(tasks []Task, status Status) []Task {
	if status == "" {
		return tasks
	}
	var out []Task
	for _, t := range tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// Open returns the tasks that can still be started.
func Open(tasks []Task) []Task {
	var out []Task
	for _, t := range tasks {
		if t.Status != Completed {
			out = append(out, t)
		}
	}
	return out
}

// Active returns the first task in progress.
func Active(tasks []Task) (Task, bool) {
	for _, t := range tasks {
		if t.Status == InProgress {
			return t, true
		}
	}
	return Task{}, false
}

// TimeRemaining returns the time left until the task's deadline. ok is false
// when the task has no deadline; a non-positive duration means overdue.
func TimeRemaining(t Task, now time.Time) (left time.Duration, ok bool) {
	if t.EndAt == nil {
		return 0, false
	}
	return t.EndAt.Sub(now), true
}

// Overdue reports whether an unfinished task is past its deadline.
func Overdue(t Task, now time.Time) bool {
	left, ok := TimeRemaining(t, now)
	return ok && left <= 0 && t.Status != Completed
}

// ErrNotFound is wrapped by task lookups that match nothing.
var ErrNotFound = errors.New("task not found")
