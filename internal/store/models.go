package store

import (
	"time"

	"github.com/sadopc/shiftr/internal/attendance"
	"github.com/sadopc/shiftr/internal/task"
)

type Employee struct {
	ID            string
	Name          string
	Email         string
	Phone         string
	Role          attendance.Role
	FieldLocation string
	Archived      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Snapshot is the identity copied into attendance records.
func (e Employee) Snapshot() attendance.EmployeeSnapshot {
	return attendance.EmployeeSnapshot{
		ID:            e.ID,
		Name:          e.Name,
		Email:         e.Email,
		PhoneNumber:   e.Phone,
		Role:          e.Role,
		FieldLocation: e.FieldLocation,
	}
}

func (e Employee) IsAdmin() bool { return e.Role == attendance.RoleAdmin }

type Setting struct {
	Key   string
	Value string
}

// TaskFilter narrows ListTasks. Zero fields match everything.
type TaskFilter struct {
	AssigneeID string
	Status     task.Status
	Limit      int
}
