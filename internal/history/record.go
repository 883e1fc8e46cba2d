// Package history holds the finalized clock records and the read-only
// projections the attendance and summary views render.
package history

import (
	"time"

	"github.com/sadopc/shiftr/internal/task"
)

// NoTaskTitle is recorded when a session ends without a task.
const NoTaskTitle = "—"

// ClockRecord is an immutable log entry written when a task session ends.
type ClockRecord struct {
	ID              string      `json:"id"`
	EmployeeID      string      `json:"employee_id"`
	TaskID          string      `json:"task_id,omitempty"`
	TaskTitle       string      `json:"task_title"`
	TaskStatus      task.Status `json:"task_status"`
	CheckIn         time.Time   `json:"check_in"`
	CheckOut        time.Time   `json:"check_out"`
	DurationSeconds int64       `json:"duration_seconds"`
	Date            string      `json:"date"`
}
