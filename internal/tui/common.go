package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/sadopc/shiftr/internal/clock"
	"github.com/sadopc/shiftr/internal/notify"
	"github.com/sadopc/shiftr/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewTasks
	viewAttendance
	viewSummary
	viewReports
	viewTeam
	viewSettings
)

var viewNames = []string{"Dashboard", "Tasks", "Attendance", "Summary", "Reports", "Team", "Settings"}

// env is shared by every view. actorID is only changed from App.Update.
type env struct {
	store     *store.Store
	ctrl      *clock.Controller
	tr        *notify.Translator
	actorID   string
	exportDir string
}

func (e *env) actor() (*store.Employee, error) {
	if e.actorID == "" {
		return nil, store.ErrEmployeeNotFound
	}
	return e.store.GetEmployee(e.actorID)
}

// run executes a controller action and reports its outcome as a statusMsg.
// data, when set, is evaluated after the action.
func (e *env) run(action string, fn func(ctx context.Context) error, data func() map[string]any) statusMsg {
	err := fn(context.Background())
	var d map[string]any
	if err == nil && data != nil {
		d = data()
	}
	return e.report(action, err, d)
}

// report routes an outcome through the notify dispatcher.
func (e *env) report(action string, err error, data map[string]any) statusMsg {
	var out statusMsg
	d := notify.NewDispatcher(e.tr, notify.NotifierFunc(func(text string, sev notify.Severity) {
		out = statusMsg{text: text, isError: sev == notify.Error}
	}))
	d.Result(action, err, data)
	return out
}

// --- Messages ---

// liveMsg carries a tick from the controller's scheduler.
type liveMsg clock.LiveStatus

// actionDoneMsg follows every clock transition so views reload.
type actionDoneMsg struct {
	status statusMsg
}

// actorChangedMsg switches the employee the terminal acts as.
type actorChangedMsg struct {
	id string
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path   string
	status statusMsg
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatHours(secs int64) string {
	h := float64(secs) / 3600
	return fmt.Sprintf("%.1fh", h)
}

func clockTime(t *time.Time) string {
	if t == nil {
		return "--:--"
	}
	return t.Local().Format("15:04")
}
