package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/shiftr/internal/task"
)

const taskColumns = `id, assignee_id, title, description, location, start_at, end_at, status, priority, created_at, updated_at`

// CreateTask inserts t with a new ID. Empty status and priority default to
// pending and medium.
func (s *Store) CreateTask(t task.Task) (*task.Task, error) {
	if t.Status == "" {
		t.Status = task.Pending
	}
	if t.Priority == "" {
		t.Priority = task.Medium
	}
	t.ID = uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AssigneeID, t.Title, t.Description, t.Location,
		formatTime(t.StartAt), formatTime(t.EndAt), string(t.Status), string(t.Priority), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTaskByID(t.ID)
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func scanTask(row interface{ Scan(...any) error }) (task.Task, error) {
	var t task.Task
	var startAt, endAt sql.NullString
	var status, priority, createdAt, updatedAt string
	if err := row.Scan(&t.ID, &t.AssigneeID, &t.Title, &t.Description, &t.Location,
		&startAt, &endAt, &status, &priority, &createdAt, &updatedAt); err != nil {
		return task.Task{}, err
	}
	t.StartAt = parseTime(startAt)
	t.EndAt = parseTime(endAt)
	t.Status = task.Status(status)
	t.Priority = task.Priority(priority)
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return t, nil
}

func (s *Store) GetTaskByID(id string) (*task.Task, error) {
	t, err := scanTask(s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get task %s: %w", id, task.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return &t, nil
}

// ListTasks returns the matching tasks in display order.
func (s *Store) ListTasks(f TaskFilter) ([]task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var where []string
	var args []any
	if f.AssigneeID != "" {
		where = append(where, "assignee_id = ?")
		args = append(args, f.AssigneeID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, title"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	task.Sort(tasks)
	return tasks, nil
}

func (s *Store) UpdateTask(t task.Task) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE tasks SET assignee_id = ?, title = ?, description = ?, location = ?, start_at = ?, end_at = ?, status = ?, priority = ?, updated_at = ? WHERE id = ?`,
		t.AssigneeID, t.Title, t.Description, t.Location, formatTime(t.StartAt), formatTime(t.EndAt),
		string(t.Status), string(t.Priority), now, t.ID,
	)
	return err
}

func (s *Store) SetTaskStatus(id string, status task.Status) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`, string(status), now, id)
	if err != nil {
		return fmt.Errorf("set task status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set task %s status: %w", id, task.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteTask(id string) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	return err
}

// TaskSource adapts the store to the clock controller's task collaborator.
type TaskSource struct {
	s *Store
}

func (s *Store) Tasks() TaskSource { return TaskSource{s: s} }

func (ts TaskSource) Assignable(_ context.Context, employeeID string) ([]task.Task, error) {
	return ts.s.ListTasks(TaskFilter{AssigneeID: employeeID})
}

func (ts TaskSource) Get(_ context.Context, taskID string) (task.Task, error) {
	t, err := ts.s.GetTaskByID(taskID)
	if err != nil {
		return task.Task{}, err
	}
	return *t, nil
}

func (ts TaskSource) SetStatus(_ context.Context, taskID string, status task.Status) error {
	return ts.s.SetTaskStatus(taskID, status)
}
