package clock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sadopc/shiftr/internal/attendance"
	"github.com/sadopc/shiftr/internal/history"
	"github.com/sadopc/shiftr/internal/task"
	"github.com/sadopc/shiftr/internal/timeutil"
)

const defaultTickInterval = time.Second

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithBreakPolicy(p BreakPolicy) Option {
	return func(c *Controller) { c.policy = p }
}

func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) { c.tickEvery = d }
}

// Controller drives check-in, breaks, task work and checkout for every
// employee. Transitions of one employee are serialized; different employees
// proceed independently.
type Controller struct {
	kv     Persistence
	people Identity
	tasks  Tasks
	sched  Scheduler
	log    *history.Log

	now       func() time.Time
	policy    BreakPolicy
	tickEvery time.Duration

	ledgerMu sync.RWMutex
	ledger   *attendance.Ledger

	mu        sync.Mutex
	locks     map[string]*sync.Mutex
	pending   map[string]bool
	sessions  map[string]*session
	ticks     map[string]func()
	listeners []func(LiveStatus)
}

// New loads the ledger from kv and returns a ready controller.
func New(ctx context.Context, kv Persistence, people Identity, tasks Tasks, opts ...Option) (*Controller, error) {
	c := &Controller{
		kv:        kv,
		people:    people,
		tasks:     tasks,
		sched:     NewTickerScheduler(),
		log:       history.NewLog(kv),
		now:       time.Now,
		policy:    BreakPolicyCheckout,
		tickEvery: defaultTickInterval,
		ledger:    attendance.NewLedger(),
		locks:     make(map[string]*sync.Mutex),
		pending:   make(map[string]bool),
		sessions:  make(map[string]*session),
		ticks:     make(map[string]func()),
	}
	for _, o := range opts {
		o(c)
	}
	if err := c.reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Records is the clock record log the controller appends to.
func (c *Controller) Records() *history.Log { return c.log }

func (c *Controller) Policy() BreakPolicy { return c.policy }

// Ledger returns a snapshot of the attendance ledger.
func (c *Controller) Ledger() *attendance.Ledger {
	c.ledgerMu.RLock()
	defer c.ledgerMu.RUnlock()
	return c.ledger.Clone()
}

// Today returns the employee's record for the current date. A session still
// open from an earlier date shows as carried into it.
func (c *Controller) Today(employeeID string) (attendance.Day, bool) {
	c.ledgerMu.RLock()
	defer c.ledgerMu.RUnlock()
	day, _, ok := todayOf(c.ledger, employeeID, c.now())
	return day, ok
}

// todayOf reads today's record through a carry-over that is not stored yet.
// It also returns the break seconds that carry-over would close.
func todayOf(l *attendance.Ledger, employeeID string, now time.Time) (attendance.Day, int64, bool) {
	var paused int64
	if l.NeedsCarryOver(employeeID, now) {
		l = l.Clone()
		paused, _ = l.CarryOver(employeeID, now)
	}
	day, ok := l.Today(employeeID, now)
	return day, paused, ok
}

// rollover stores a session left open on an earlier date as carried into
// today. It returns the break seconds closed at midnight, which are also
// added to the cached session. Callers hold the employee lock.
func (c *Controller) rollover(ctx context.Context, employeeID string, now time.Time) (int64, error) {
	c.ledgerMu.RLock()
	stale := c.ledger.NeedsCarryOver(employeeID, now)
	c.ledgerMu.RUnlock()
	if !stale {
		return 0, nil
	}
	var paused int64
	if err := c.apply(ctx, func(l *attendance.Ledger) error {
		paused, _ = l.CarryOver(employeeID, now)
		return nil
	}); err != nil {
		return 0, err
	}
	log.Printf("carried session of %s over to %s", employeeID, timeutil.DateKey(now))

	s, ok := c.cachedSession(employeeID)
	if !ok || paused == 0 {
		return paused, nil
	}
	s.PausedSeconds += paused
	return paused, c.saveSession(ctx, employeeID, &s)
}

func (c *Controller) lock(employeeID string) func() {
	c.mu.Lock()
	m, ok := c.locks[employeeID]
	if !ok {
		m = &sync.Mutex{}
		c.locks[employeeID] = m
	}
	c.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func (c *Controller) reload(ctx context.Context) error {
	data, err := c.kv.Get(ctx, LedgerKey)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	l := attendance.NewLedger()
	if len(data) > 0 {
		if err := json.Unmarshal(data, l); err != nil {
			return err
		}
	}
	c.ledgerMu.Lock()
	c.ledger = l
	c.ledgerMu.Unlock()
	return nil
}

// check runs fn against a copy of the ledger and reports its rejection
// without changing anything.
func (c *Controller) check(fn func(*attendance.Ledger) error) error {
	c.ledgerMu.RLock()
	l := c.ledger.Clone()
	c.ledgerMu.RUnlock()
	return fn(l)
}

// apply runs fn on a copy of the ledger and, when it succeeds, persists the
// copy and makes it current.
func (c *Controller) apply(ctx context.Context, fn func(*attendance.Ledger) error) error {
	c.ledgerMu.Lock()
	defer c.ledgerMu.Unlock()

	next := c.ledger.Clone()
	if err := fn(next); err != nil {
		return err
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := c.kv.Set(ctx, LedgerKey, data); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	c.ledger = next
	return nil
}

func (c *Controller) activeTask(ctx context.Context, employeeID string) (*task.Task, error) {
	list, err := c.tasks.Assignable(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if t, ok := task.Active(list); ok {
		return &t, nil
	}
	return nil, nil
}

// State derives the employee's state from today's record and the task in
// progress.
func (c *Controller) State(ctx context.Context, employeeID string) (State, error) {
	day, ok := c.Today(employeeID)
	switch {
	case !ok || !day.IsActive:
		return Inactive, nil
	case day.IsOnBreak:
		return OnBreak, nil
	}
	if s, ok := c.cachedSession(employeeID); ok {
		if s.TaskID != "" {
			return ActiveWithTask, nil
		}
		return ActiveNoTask, nil
	}
	t, err := c.activeTask(ctx, employeeID)
	if err != nil {
		return Inactive, err
	}
	if t != nil {
		return ActiveWithTask, nil
	}
	return ActiveNoTask, nil
}

// currentSession returns the cached session or rebuilds one from today's
// record when the durable key was lost.
func (c *Controller) currentSession(ctx context.Context, employeeID string, day attendance.Day) (session, error) {
	if s, ok := c.cachedSession(employeeID); ok {
		return s, nil
	}
	s := session{StartedAt: c.now(), SegmentStart: c.now()}
	if day.LoginTime != nil {
		s.StartedAt, s.SegmentStart = *day.LoginTime, *day.LoginTime
	}
	t, err := c.activeTask(ctx, employeeID)
	if err != nil {
		return session{}, err
	}
	if t != nil {
		s.TaskID, s.TaskTitle = t.ID, t.Title
	}
	return s, nil
}

// CheckIn starts a session. A task left in progress by an earlier checkout is
// resumed.
func (c *Controller) CheckIn(ctx context.Context, employeeID string) error {
	defer c.lock(employeeID)()

	user, err := c.people.Snapshot(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("employee snapshot: %w", err)
	}
	now := c.now()
	if _, err := c.rollover(ctx, employeeID, now); err != nil {
		return err
	}
	if err := c.apply(ctx, func(l *attendance.Ledger) error {
		return l.RecordSessionChange(employeeID, true, now, user)
	}); err != nil {
		return err
	}

	s := &session{StartedAt: now}
	t, err := c.activeTask(ctx, employeeID)
	if err != nil {
		log.Printf("check-in %s: %v", employeeID, err)
	}
	s.setTask(t, now)
	if err := c.saveSession(ctx, employeeID, s); err != nil {
		return err
	}
	c.startTick(employeeID)
	return nil
}

// StartTask makes taskID the employee's task in progress. A different task in
// progress is checked out first and put back to pending.
func (c *Controller) StartTask(ctx context.Context, employeeID, taskID string) error {
	defer c.lock(employeeID)()

	now := c.now()
	if _, err := c.rollover(ctx, employeeID, now); err != nil {
		return err
	}
	date := timeutil.DateKey(now)
	day, ok := c.Today(employeeID)
	if !ok || !day.IsActive {
		return attendance.Reject(attendance.ReasonSessionNotStartedForTask, employeeID, date)
	}
	if day.IsOnBreak {
		return attendance.Reject(attendance.ReasonAlreadyOnBreak, employeeID, date)
	}
	if c.pendingCheckout(employeeID) {
		return attendance.Reject(attendance.ReasonCheckoutPending, employeeID, date)
	}

	t, err := c.tasks.Get(ctx, taskID)
	if errors.Is(err, task.ErrNotFound) || (err == nil && (t.AssigneeID != employeeID || t.Status == task.Completed)) {
		return attendance.Reject(attendance.ReasonTaskNotFound, employeeID, date)
	}
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}

	s, err := c.currentSession(ctx, employeeID, day)
	if err != nil {
		return err
	}
	if s.TaskID == taskID && t.Status == task.InProgress {
		return nil
	}

	if s.TaskID != "" {
		if err := c.log.Append(ctx, s.record(employeeID, task.InProgress, now)); err != nil {
			return err
		}
	}
	list, err := c.tasks.Assignable(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	for _, other := range task.Filter(list, task.InProgress) {
		if other.ID == taskID {
			continue
		}
		if err := c.tasks.SetStatus(ctx, other.ID, task.Pending); err != nil {
			return fmt.Errorf("pause task: %w", err)
		}
	}
	if err := c.tasks.SetStatus(ctx, taskID, task.InProgress); err != nil {
		return fmt.Errorf("start task: %w", err)
	}

	s.setTask(&t, now)
	return c.saveSession(ctx, employeeID, &s)
}

// BreakIn starts a break. Under BreakPolicyCheckout a task in progress is
// checked out first.
func (c *Controller) BreakIn(ctx context.Context, employeeID string) error {
	defer c.lock(employeeID)()

	now := c.now()
	if c.pendingCheckout(employeeID) {
		return attendance.Reject(attendance.ReasonCheckoutPending, employeeID, timeutil.DateKey(now))
	}
	if _, err := c.rollover(ctx, employeeID, now); err != nil {
		return err
	}
	startBreak := func(l *attendance.Ledger) error { return l.StartBreak(employeeID, now) }
	if err := c.check(startBreak); err != nil {
		return err
	}

	day, _ := c.Today(employeeID)
	s, err := c.currentSession(ctx, employeeID, day)
	if err != nil {
		return err
	}
	if c.policy == BreakPolicyCheckout && s.TaskID != "" {
		if err := c.log.Append(ctx, s.record(employeeID, task.InProgress, now)); err != nil {
			return err
		}
		if err := c.tasks.SetStatus(ctx, s.TaskID, task.Pending); err != nil {
			return fmt.Errorf("pause task: %w", err)
		}
		s.setTask(nil, now)
	}

	if err := c.apply(ctx, startBreak); err != nil {
		return err
	}
	return c.saveSession(ctx, employeeID, &s)
}

// BreakOut ends the open break.
func (c *Controller) BreakOut(ctx context.Context, employeeID string) error {
	defer c.lock(employeeID)()

	now := c.now()
	if _, err := c.rollover(ctx, employeeID, now); err != nil {
		return err
	}
	if err := c.apply(ctx, func(l *attendance.Ledger) error {
		return l.EndBreak(employeeID, now)
	}); err != nil {
		return err
	}

	day, _ := c.Today(employeeID)
	s, err := c.currentSession(ctx, employeeID, day)
	if err != nil {
		return err
	}
	if b, ok := day.LastBreak(); ok {
		s.PausedSeconds += b.DurationSeconds
		if s.TaskID == "" && timeutil.ElapsedSeconds(s.SegmentStart, now) <= s.PausedSeconds {
			// Nothing was worked in this segment yet; it starts now.
			s.SegmentStart, s.PausedSeconds = now, 0
		}
	}
	return c.saveSession(ctx, employeeID, &s)
}

// CheckoutPrompt describes a checkout waiting for the task's final status.
type CheckoutPrompt struct {
	EmployeeID string
	// Task is nil when the session has no task; the checkout then needs no
	// disposition.
	Task      *task.Task
	StartedAt time.Time
	Elapsed   time.Duration
}

// BeginCheckout starts the two-step checkout. Only one checkout per employee
// may be pending.
func (c *Controller) BeginCheckout(ctx context.Context, employeeID string) (CheckoutPrompt, error) {
	defer c.lock(employeeID)()

	now := c.now()
	if _, err := c.rollover(ctx, employeeID, now); err != nil {
		return CheckoutPrompt{}, err
	}
	date := timeutil.DateKey(now)
	day, ok := c.Today(employeeID)
	switch {
	case !ok || !day.IsActive:
		return CheckoutPrompt{}, attendance.Reject(attendance.ReasonAlreadyInactive, employeeID, date)
	case day.IsOnBreak:
		return CheckoutPrompt{}, attendance.Reject(attendance.ReasonCheckoutWhileOnBreak, employeeID, date)
	}

	s, err := c.currentSession(ctx, employeeID, day)
	if err != nil {
		return CheckoutPrompt{}, err
	}
	prompt := CheckoutPrompt{
		EmployeeID: employeeID,
		StartedAt:  s.StartedAt,
		Elapsed:    timeutil.Elapsed(s.StartedAt, now),
	}
	if s.TaskID != "" {
		t, err := c.tasks.Get(ctx, s.TaskID)
		if err != nil {
			return CheckoutPrompt{}, fmt.Errorf("get task: %w", err)
		}
		prompt.Task = &t
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[employeeID] {
		return CheckoutPrompt{}, attendance.Reject(attendance.ReasonCheckoutPending, employeeID, date)
	}
	c.pending[employeeID] = true
	return prompt, nil
}

// CompleteCheckout finishes a pending checkout. disposition is the task's
// final status: task.InProgress leaves it resumable, task.Completed closes it.
func (c *Controller) CompleteCheckout(ctx context.Context, employeeID string, disposition task.Status) (history.ClockRecord, error) {
	defer c.lock(employeeID)()

	now := c.now()
	if !c.pendingCheckout(employeeID) {
		return history.ClockRecord{}, attendance.Reject(attendance.ReasonNoCheckoutPending, employeeID, timeutil.DateKey(now))
	}
	if disposition != task.InProgress && disposition != task.Completed {
		return history.ClockRecord{}, fmt.Errorf("invalid checkout status %q", disposition)
	}
	if _, err := c.rollover(ctx, employeeID, now); err != nil {
		return history.ClockRecord{}, err
	}

	day, _ := c.Today(employeeID)
	s, err := c.currentSession(ctx, employeeID, day)
	if err != nil {
		return history.ClockRecord{}, err
	}
	if err := c.apply(ctx, func(l *attendance.Ledger) error {
		return l.StopSession(employeeID, now)
	}); err != nil {
		c.CancelCheckout(employeeID)
		return history.ClockRecord{}, err
	}

	rec := s.record(employeeID, disposition, now)
	if s.TaskID != "" {
		if err := c.tasks.SetStatus(ctx, s.TaskID, disposition); err != nil {
			log.Printf("checkout %s: set task %s %s: %v", employeeID, s.TaskID, disposition, err)
		}
	}
	if err := c.end(ctx, employeeID); err != nil {
		log.Printf("checkout %s: %v", employeeID, err)
	}
	if err := c.log.Append(ctx, rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// CancelCheckout drops a pending checkout.
func (c *Controller) CancelCheckout(employeeID string) {
	c.mu.Lock()
	delete(c.pending, employeeID)
	c.mu.Unlock()
}

func (c *Controller) pendingCheckout(employeeID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[employeeID]
}

// Logout force-ends the session, closing any open break. A task in progress
// stays in progress and its segment is recorded.
func (c *Controller) Logout(ctx context.Context, employeeID string) error {
	defer c.lock(employeeID)()

	now := c.now()
	if _, err := c.rollover(ctx, employeeID, now); err != nil {
		return err
	}
	day, _ := c.Today(employeeID)
	s, err := c.currentSession(ctx, employeeID, day)
	if err != nil {
		return err
	}
	s.PausedSeconds += int64(attendance.LiveBreak(day, now) / time.Second)
	if err := c.apply(ctx, func(l *attendance.Ledger) error {
		return l.StopSession(employeeID, now)
	}); err != nil {
		return err
	}
	c.CancelCheckout(employeeID)
	if err := c.end(ctx, employeeID); err != nil {
		log.Printf("logout %s: %v", employeeID, err)
	}
	if s.TaskID != "" {
		return c.log.Append(ctx, s.record(employeeID, task.InProgress, now))
	}
	return nil
}

// end clears the durable session and stops its live tick.
func (c *Controller) end(ctx context.Context, employeeID string) error {
	c.stopTick(employeeID)
	return c.dropSession(ctx, employeeID)
}

// Resume reloads durable state after a restart or suspend and restarts the
// live tick of a running session. A lost session key is rebuilt from the
// login time; a key left behind by an ended session is removed.
func (c *Controller) Resume(ctx context.Context, employeeID string) error {
	defer c.lock(employeeID)()

	if err := c.reload(ctx); err != nil {
		return err
	}
	stored, err := c.loadSession(ctx, employeeID)
	if err != nil {
		return err
	}
	paused, err := c.rollover(ctx, employeeID, c.now())
	if err != nil {
		return err
	}
	if stored != nil {
		stored.PausedSeconds += paused
	}
	day, ok := c.Today(employeeID)
	if !ok || !day.IsActive {
		if stored != nil {
			log.Printf("resume %s: removing stale session from %s", employeeID, stored.StartedAt.Format(time.RFC3339))
		}
		c.CancelCheckout(employeeID)
		return c.end(ctx, employeeID)
	}

	// A carried day opens at midnight while its session began the day before.
	if stored == nil || (day.LoginTime != nil && stored.StartedAt.Before(*day.LoginTime) && !day.CarriedOver) {
		c.mu.Lock()
		delete(c.sessions, employeeID)
		c.mu.Unlock()
		rebuilt, err := c.currentSession(ctx, employeeID, day)
		if err != nil {
			return err
		}
		stored = &rebuilt
	}
	if err := c.saveSession(ctx, employeeID, stored); err != nil {
		return err
	}
	c.startTick(employeeID)
	return nil
}

// AdminOverride replaces one historical day. Overriding a running session
// ends it.
func (c *Controller) AdminOverride(ctx context.Context, o attendance.Override) error {
	defer c.lock(o.EmployeeID)()

	if _, err := c.rollover(ctx, o.EmployeeID, c.now()); err != nil {
		return err
	}
	if err := c.apply(ctx, func(l *attendance.Ledger) error {
		return l.AdminOverride(o)
	}); err != nil {
		return err
	}
	if o.Date == timeutil.DateKey(c.now()) {
		c.CancelCheckout(o.EmployeeID)
		return c.end(ctx, o.EmployeeID)
	}
	return nil
}

// Close stops every live tick.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, cancel := range c.ticks {
		cancel()
		delete(c.ticks, id)
	}
}
