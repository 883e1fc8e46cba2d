package clock

import (
	"time"

	"github.com/sadopc/shiftr/internal/attendance"
	"github.com/sadopc/shiftr/internal/timeutil"
)

// LiveStatus is what the dashboard shows for one employee at one instant.
type LiveStatus struct {
	EmployeeID string
	At         time.Time
	State      State
	Day        attendance.Day
	Totals     attendance.Totals
	TaskID     string
	TaskTitle  string
	// TaskElapsed is the running task segment without its breaks.
	TaskElapsed time.Duration
	BreaksLeft  int
}

// Live computes the employee's live counters now.
func (c *Controller) Live(employeeID string) LiveStatus {
	return c.liveAt(employeeID, c.now())
}

func (c *Controller) liveAt(employeeID string, now time.Time) LiveStatus {
	c.ledgerMu.RLock()
	day, carried, _ := todayOf(c.ledger, employeeID, now)
	c.ledgerMu.RUnlock()

	st := LiveStatus{
		EmployeeID: employeeID,
		At:         now,
		Day:        day,
		BreaksLeft: max(0, attendance.MaxBreaksPerDay-len(day.Breaks)),
	}
	s, hasSession := c.cachedSession(employeeID)
	var sessionStart time.Time
	if hasSession {
		sessionStart = s.StartedAt
	} else if day.LoginTime != nil {
		sessionStart = *day.LoginTime
	}
	st.Totals = attendance.DisplayTotals(day, sessionStart, now)

	switch {
	case !day.IsActive:
		st.State = Inactive
		return st
	case day.IsOnBreak:
		st.State = OnBreak
	case hasSession && s.TaskID != "":
		st.State = ActiveWithTask
	default:
		st.State = ActiveNoTask
	}
	if hasSession && s.TaskID != "" {
		st.TaskID, st.TaskTitle = s.TaskID, s.TaskTitle
		paused := time.Duration(s.PausedSeconds+carried)*time.Second + attendance.LiveBreak(day, now)
		st.TaskElapsed = max(0, timeutil.Elapsed(s.SegmentStart, now)-paused)
	}
	return st
}

// OnTick registers fn to receive live status on every tick of a running
// session. fn runs on the scheduler's goroutine.
func (c *Controller) OnTick(fn func(LiveStatus)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Controller) startTick(employeeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, running := c.ticks[employeeID]; running {
		return
	}
	c.ticks[employeeID] = c.sched.Every(c.tickEvery, func(now time.Time) {
		st := c.liveAt(employeeID, now)
		c.mu.Lock()
		listeners := append([]func(LiveStatus){}, c.listeners...)
		c.mu.Unlock()
		for _, fn := range listeners {
			fn(st)
		}
	})
}

func (c *Controller) stopTick(employeeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.ticks[employeeID]; ok {
		cancel()
		delete(c.ticks, employeeID)
	}
}

// Ticking reports whether the employee's live tick is running.
func (c *Controller) Ticking(employeeID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.ticks[employeeID]
	return ok
}
