package clock

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/shiftr/internal/history"
	"github.com/sadopc/shiftr/internal/task"
	"github.com/sadopc/shiftr/internal/timeutil"
)

const (
	LedgerKey        = "attendance/ledger"
	sessionKeyPrefix = "clock/session/"
)

func SessionKey(employeeID string) string { return sessionKeyPrefix + employeeID }

// session is the durable state of a running login, kept so the live clock
// survives a restart.
type session struct {
	StartedAt time.Time `json:"started_at"`
	// SegmentStart is where the next clock record begins. After a break that
	// checked the task out it is the end of that break.
	SegmentStart time.Time `json:"segment_start"`
	TaskID       string    `json:"task_id,omitempty"`
	TaskTitle    string    `json:"task_title,omitempty"`
	// PausedSeconds is break time inside the segment, left out of the record.
	PausedSeconds int64 `json:"paused_seconds,omitempty"`
}

func (s *session) setTask(t *task.Task, at time.Time) {
	s.SegmentStart = at
	s.PausedSeconds = 0
	s.TaskID, s.TaskTitle = "", ""
	if t != nil {
		s.TaskID, s.TaskTitle = t.ID, t.Title
	}
}

// record closes the current segment at out.
func (s *session) record(employeeID string, status task.Status, out time.Time) history.ClockRecord {
	title := s.TaskTitle
	if s.TaskID == "" {
		title = history.NoTaskTitle
		status = task.Completed
	}
	return history.ClockRecord{
		ID:              uuid.New().String(),
		EmployeeID:      employeeID,
		TaskID:          s.TaskID,
		TaskTitle:       title,
		TaskStatus:      status,
		CheckIn:         s.SegmentStart,
		CheckOut:        out,
		DurationSeconds: max(0, timeutil.ElapsedSeconds(s.SegmentStart, out)-s.PausedSeconds),
		Date:            timeutil.DateKey(s.SegmentStart),
	}
}

func (c *Controller) loadSession(ctx context.Context, employeeID string) (*session, error) {
	data, err := c.kv.Get(ctx, SessionKey(employeeID))
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var s session
	if err := json.Unmarshal(data, &s); err != nil {
		// A corrupt key is rebuilt from the ledger.
		return nil, nil
	}
	return &s, nil
}

func (c *Controller) saveSession(ctx context.Context, employeeID string, s *session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := c.kv.Set(ctx, SessionKey(employeeID), data); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	c.mu.Lock()
	c.sessions[employeeID] = s
	c.mu.Unlock()
	return nil
}

func (c *Controller) dropSession(ctx context.Context, employeeID string) error {
	c.mu.Lock()
	delete(c.sessions, employeeID)
	c.mu.Unlock()
	if err := c.kv.Remove(ctx, SessionKey(employeeID)); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func (c *Controller) cachedSession(employeeID string) (session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[employeeID]
	if !ok {
		return session{}, false
	}
	return *s, true
}
