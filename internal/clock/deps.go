// Package clock coordinates an employee's attendance session with the task
// they are working on. It is the only writer of the attendance ledger.
package clock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sadopc/shiftr/internal/attendance"
	"github.com/sadopc/shiftr/internal/task"
)

// Persistence is a key/value store. Get returns nil, nil for a missing key.
type Persistence interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Identity supplies the employee snapshot stored with each session change.
type Identity interface {
	Snapshot(ctx context.Context, employeeID string) (attendance.EmployeeSnapshot, error)
}

// Tasks reads an employee's tasks and updates their status. Get wraps
// task.ErrNotFound for unknown IDs.
type Tasks interface {
	Assignable(ctx context.Context, employeeID string) ([]task.Task, error)
	Get(ctx context.Context, taskID string) (task.Task, error)
	SetStatus(ctx context.Context, taskID string, status task.Status) error
}

// Scheduler runs fn every d until the returned cancel func is called.
type Scheduler interface {
	Every(d time.Duration, fn func(now time.Time)) (cancel func())
}

// TickerScheduler implements Scheduler on time.Ticker.
type TickerScheduler struct{}

func NewTickerScheduler() TickerScheduler { return TickerScheduler{} }

func (TickerScheduler) Every(d time.Duration, fn func(time.Time)) func() {
	t := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case now := <-t.C:
				fn(now)
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			t.Stop()
			close(done)
		})
	}
}

// BreakPolicy decides what happens to the task in progress when a break starts.
type BreakPolicy string

const (
	// BreakPolicyCheckout ends the task segment with a record and puts the
	// task back to pending.
	BreakPolicyCheckout BreakPolicy = "checkout"
	// BreakPolicyPause keeps the task in progress across the break.
	BreakPolicyPause BreakPolicy = "pause"
)

func ParseBreakPolicy(s string) (BreakPolicy, error) {
	switch BreakPolicy(s) {
	case BreakPolicyCheckout, BreakPolicyPause:
		return BreakPolicy(s), nil
	case "":
		return BreakPolicyCheckout, nil
	}
	return "", fmt.Errorf("unknown break policy %q", s)
}

// State is the controller's view of one employee.
type State int

const (
	Inactive State = iota
	ActiveNoTask
	ActiveWithTask
	OnBreak
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case ActiveNoTask:
		return "active"
	case ActiveWithTask:
		return "working"
	case OnBreak:
		return "on break"
	}
	return fmt.Sprintf("State(%d)", int(s))
}
