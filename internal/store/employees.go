package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/shiftr/internal/attendance"
)

// ErrEmployeeNotFound is wrapped when no employee matches.
var ErrEmployeeNotFound = errors.New("employee not found")

const employeeColumns = `id, name, email, phone, role, field_location, archived, created_at, updated_at`

func (s *Store) CreateEmployee(name, email, phone string, role attendance.Role, location string) (*Employee, error) {
	if role == "" {
		role = attendance.RoleEmployee
	}
	id := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO employees (id, name, email, phone, role, field_location, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, name, strings.TrimSpace(email), phone, string(role), location, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert employee: %w", err)
	}
	return s.GetEmployee(id)
}

func scanEmployee(row interface{ Scan(...any) error }) (Employee, error) {
	var e Employee
	var role, createdAt, updatedAt string
	var archived int
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &role, &e.FieldLocation, &archived, &createdAt, &updatedAt); err != nil {
		return Employee{}, err
	}
	e.Role = attendance.Role(role)
	e.Archived = archived == 1
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return e, nil
}

func (s *Store) GetEmployee(id string) (*Employee, error) {
	e, err := scanEmployee(s.db.QueryRow(`SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get employee %s: %w", id, ErrEmployeeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get employee %s: %w", id, err)
	}
	return &e, nil
}

// FindEmployee looks an employee up by ID or, failing that, by email.
func (s *Store) FindEmployee(idOrEmail string) (*Employee, error) {
	e, err := scanEmployee(s.db.QueryRow(
		`SELECT `+employeeColumns+` FROM employees WHERE id = ? OR email = ? ORDER BY id = ? DESC LIMIT 1`,
		idOrEmail, strings.TrimSpace(idOrEmail), idOrEmail,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find employee %q: %w", idOrEmail, ErrEmployeeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find employee %q: %w", idOrEmail, err)
	}
	return &e, nil
}

func (s *Store) ListEmployees(includeArchived bool) ([]Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (s *Store) UpdateEmployee(e Employee) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE employees SET name = ?, email = ?, phone = ?, role = ?, field_location = ?, updated_at = ? WHERE id = ?`,
		e.Name, strings.TrimSpace(e.Email), e.Phone, string(e.Role), e.FieldLocation, now, e.ID,
	)
	return err
}

func (s *Store) ArchiveEmployee(id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE employees SET archived = 1, updated_at = ? WHERE id = ?`, now, id,
	)
	return err
}

// Snapshot returns the employee's current identity for attendance records.
func (s *Store) Snapshot(_ context.Context, employeeID string) (attendance.EmployeeSnapshot, error) {
	e, err := s.GetEmployee(employeeID)
	if err != nil {
		return attendance.EmployeeSnapshot{}, err
	}
	return e.Snapshot(), nil
}
