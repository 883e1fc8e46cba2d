package clock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sadopc/shiftr/internal/attendance"
	"github.com/sadopc/shiftr/internal/history"
	"github.com/sadopc/shiftr/internal/task"
)

// ============================================================
// Fakes
// ============================================================

type memKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	failSet error
}

func newMemKV() *memKV { return &memKV{data: make(map[string][]byte)} }

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return m.failSet
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memKV) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memKV) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

type people map[string]attendance.EmployeeSnapshot

func (p people) Snapshot(_ context.Context, id string) (attendance.EmployeeSnapshot, error) {
	s, ok := p[id]
	if !ok {
		return attendance.EmployeeSnapshot{}, fmt.Errorf("employee %s: not found", id)
	}
	return s, nil
}

type fakeTasks struct {
	mu    sync.Mutex
	tasks map[string]task.Task
}

func (f *fakeTasks) Assignable(_ context.Context, employeeID string) ([]task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []task.Task
	for _, t := range f.tasks {
		if t.AssigneeID == employeeID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTasks) Get(_ context.Context, id string) (task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return task.Task{}, fmt.Errorf("get task %s: %w", id, task.ErrNotFound)
	}
	return t, nil
}

func (f *fakeTasks) SetStatus(_ context.Context, id string, s task.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return task.ErrNotFound
	}
	t.Status = s
	f.tasks[id] = t
	return nil
}

func (f *fakeTasks) status(id string) task.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks[id].Status
}

type fakeScheduler struct {
	mu      sync.Mutex
	fns     []func(time.Time)
	active  int
	started int
}

func (f *fakeScheduler) Every(_ time.Duration, fn func(time.Time)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fns = append(f.fns, fn)
	f.active++
	f.started++
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.active--
			f.mu.Unlock()
		})
	}
}

func (f *fakeScheduler) fire(now time.Time) {
	f.mu.Lock()
	fns := append([]func(time.Time){}, f.fns...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(now)
	}
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) set(hh, mm int) {
	c.setDay(4, hh, mm)
}

func (c *fakeClock) setDay(day, hh, mm int) {
	c.mu.Lock()
	c.t = time.Date(2026, 3, day, hh, mm, 0, 0, time.UTC)
	c.mu.Unlock()
}

const emp = "emp-1"

type harness struct {
	ctx   context.Context
	kv    *memKV
	tasks *fakeTasks
	sched *fakeScheduler
	clk   *fakeClock
	c     *Controller
}

func newHarness(t *testing.T, policy BreakPolicy) *harness {
	t.Helper()
	h := &harness{
		ctx: context.Background(),
		kv:  newMemKV(),
		tasks: &fakeTasks{tasks: map[string]task.Task{
			"t1":    {ID: "t1", Title: "Install router", AssigneeID: emp, Status: task.Pending},
			"t2":    {ID: "t2", Title: "Survey site", AssigneeID: emp, Status: task.Pending},
			"done":  {ID: "done", Title: "Old job", AssigneeID: emp, Status: task.Completed},
			"other": {ID: "other", Title: "Not mine", AssigneeID: "emp-2", Status: task.Pending},
		}},
		sched: &fakeScheduler{},
		clk:   &fakeClock{},
	}
	h.clk.set(9, 0)
	h.c = h.open(t, policy)
	return h
}

// open builds a controller over the harness state, like a process restart.
func (h *harness) open(t *testing.T, policy BreakPolicy) *Controller {
	t.Helper()
	c, err := New(h.ctx, h.kv,
		people{emp: {ID: emp, Name: "Alice", Role: attendance.RoleEmployee}},
		h.tasks,
		WithClock(h.clk.now),
		WithBreakPolicy(policy),
		WithScheduler(h.sched),
	)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func (h *harness) state(t *testing.T) State {
	t.Helper()
	s, err := h.c.State(h.ctx, emp)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func (h *harness) records(t *testing.T) []history.ClockRecord {
	t.Helper()
	recs, err := h.c.Records().ForEmployee(h.ctx, emp)
	if err != nil {
		t.Fatal(err)
	}
	return recs
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func wantReason(t *testing.T, err error, want attendance.Reason) {
	t.Helper()
	got, ok := attendance.ReasonOf(err)
	if !ok || got != want {
		t.Fatalf("expected rejection %s, got %v", want, err)
	}
}

// ============================================================
// Check-in and tasks
// ============================================================

func TestCheckIn(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	if h.state(t) != Inactive {
		t.Fatal("expected inactive before check-in")
	}
	must(t, h.c.CheckIn(h.ctx, emp))
	if h.state(t) != ActiveNoTask {
		t.Fatalf("expected active, got %s", h.state(t))
	}
	if !h.c.Ticking(emp) {
		t.Fatal("live tick should run")
	}
	if !h.kv.has(SessionKey(emp)) {
		t.Fatal("session key not stored")
	}

	h.clk.set(9, 5)
	wantReason(t, h.c.CheckIn(h.ctx, emp), attendance.ReasonAlreadyActive)
	day, _ := h.c.Today(emp)
	if !day.LoginTime.Equal(time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("login time moved: %v", day.LoginTime)
	}
	if h.sched.started != 1 {
		t.Fatalf("expected one tick, started %d", h.sched.started)
	}
}

func TestStartTaskRequiresSession(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	wantReason(t, h.c.StartTask(h.ctx, emp, "t1"), attendance.ReasonSessionNotStartedForTask)
	if h.tasks.status("t1") != task.Pending {
		t.Fatal("rejected start changed the task")
	}
}

func TestStartTaskRejectsUnknownTasks(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	must(t, h.c.CheckIn(h.ctx, emp))
	for _, id := range []string{"missing", "other", "done"} {
		wantReason(t, h.c.StartTask(h.ctx, emp, id), attendance.ReasonTaskNotFound)
	}
	if h.state(t) != ActiveNoTask {
		t.Fatal("state should be unchanged")
	}
}

func TestStartTaskWhileOnBreak(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	must(t, h.c.CheckIn(h.ctx, emp))
	must(t, h.c.BreakIn(h.ctx, emp))
	wantReason(t, h.c.StartTask(h.ctx, emp, "t1"), attendance.ReasonAlreadyOnBreak)
}

func TestSwitchTaskChecksOutPrevious(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	must(t, h.c.CheckIn(h.ctx, emp))
	must(t, h.c.StartTask(h.ctx, emp, "t1"))
	if h.state(t) != ActiveWithTask || h.tasks.status("t1") != task.InProgress {
		t.Fatal("t1 should be in progress")
	}
	must(t, h.c.StartTask(h.ctx, emp, "t1"))
	if len(h.records(t)) != 0 {
		t.Fatal("restarting the same task should not record")
	}

	h.clk.set(10, 30)
	must(t, h.c.StartTask(h.ctx, emp, "t2"))
	if h.tasks.status("t1") != task.Pending || h.tasks.status("t2") != task.InProgress {
		t.Fatalf("unexpected statuses t1=%s t2=%s", h.tasks.status("t1"), h.tasks.status("t2"))
	}
	recs := h.records(t)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].TaskID != "t1" || recs[0].TaskStatus != task.InProgress || recs[0].DurationSeconds != 5400 {
		t.Fatalf("unexpected record %+v", recs[0])
	}
}

// ============================================================
// Breaks
// ============================================================

func TestBreakInChecksOutTask(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	must(t, h.c.CheckIn(h.ctx, emp))
	h.clk.set(9, 30)
	must(t, h.c.StartTask(h.ctx, emp, "t1"))
	h.clk.set(10, 0)
	must(t, h.c.BreakIn(h.ctx, emp))

	if h.state(t) != OnBreak {
		t.Fatalf("expected on break, got %s", h.state(t))
	}
	if h.tasks.status("t1") != task.Pending {
		t.Fatal("task should be back to pending")
	}
	recs := h.records(t)
	if len(recs) != 1 || recs[0].TaskStatus != task.InProgress || recs[0].DurationSeconds != 1800 {
		t.Fatalf("unexpected records %+v", recs)
	}

	h.clk.set(10, 15)
	must(t, h.c.BreakOut(h.ctx, emp))
	if h.state(t) != ActiveNoTask {
		t.Fatalf("expected active without task, got %s", h.state(t))
	}
	day, _ := h.c.Today(emp)
	if day.TotalBreakSeconds != 900 {
		t.Fatalf("expected 900 break seconds, got %d", day.TotalBreakSeconds)
	}
}

func TestBreakInPausesTask(t *testing.T) {
	h := newHarness(t, BreakPolicyPause)
	must(t, h.c.CheckIn(h.ctx, emp))
	must(t, h.c.StartTask(h.ctx, emp, "t1"))
	h.clk.set(10, 0)
	must(t, h.c.BreakIn(h.ctx, emp))
	if h.tasks.status("t1") != task.InProgress || len(h.records(t)) != 0 {
		t.Fatal("pause policy must keep the task and emit nothing")
	}

	h.clk.set(10, 20)
	must(t, h.c.BreakOut(h.ctx, emp))
	if h.state(t) != ActiveWithTask {
		t.Fatalf("expected working, got %s", h.state(t))
	}

	h.clk.set(11, 0)
	if got := h.c.Live(emp).TaskElapsed; got != 100*time.Minute {
		t.Fatalf("task elapsed = %v, want 1h40m", got)
	}
	_, err := h.c.BeginCheckout(h.ctx, emp)
	must(t, err)
	rec, err := h.c.CompleteCheckout(h.ctx, emp, task.Completed)
	must(t, err)
	if rec.DurationSeconds != 6000 {
		t.Fatalf("record should leave the break out, got %d", rec.DurationSeconds)
	}
}

func TestBreakLimitCheckedBeforeTaskSideEffects(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	must(t, h.c.CheckIn(h.ctx, emp))
	for i := 0; i < attendance.MaxBreaksPerDay; i++ {
		h.clk.set(10+i, 0)
		must(t, h.c.BreakIn(h.ctx, emp))
		h.clk.set(10+i, 10)
		must(t, h.c.BreakOut(h.ctx, emp))
	}
	must(t, h.c.StartTask(h.ctx, emp, "t1"))

	h.clk.set(16, 0)
	wantReason(t, h.c.BreakIn(h.ctx, emp), attendance.ReasonBreakLimitReached)
	if h.tasks.status("t1") != task.InProgress {
		t.Fatal("task must stay in progress")
	}
	if len(h.records(t)) != 0 {
		t.Fatal("no record may be emitted")
	}
	if h.c.Live(emp).BreaksLeft != 0 {
		t.Fatal("expected no breaks left")
	}
}

func TestSegmentAfterCheckoutBreakStartsAtBreakEnd(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	must(t, h.c.CheckIn(h.ctx, emp))
	must(t, h.c.StartTask(h.ctx, emp, "t1"))
	h.clk.set(12, 0)
	must(t, h.c.BreakIn(h.ctx, emp))
	h.clk.set(13, 0)
	must(t, h.c.BreakOut(h.ctx, emp))
	h.clk.set(14, 0)
	_, err := h.c.BeginCheckout(h.ctx, emp)
	must(t, err)
	rec, err := h.c.CompleteCheckout(h.ctx, emp, task.InProgress)
	must(t, err)

	want := time.Date(2026, 3, 4, 13, 0, 0, 0, time.UTC)
	if !rec.CheckIn.Equal(want) || rec.DurationSeconds != 3600 || rec.TaskTitle != history.NoTaskTitle {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestBreakOutWithoutBreak(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	wantReason(t, h.c.BreakOut(h.ctx, emp), attendance.ReasonRecordNotFound)
	must(t, h.c.CheckIn(h.ctx, emp))
	wantReason(t, h.c.BreakOut(h.ctx, emp), attendance.ReasonNoOpenBreak)
}

// ============================================================
// Checkout
// ============================================================

func TestCheckoutWhileOnBreak(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	must(t, h.c.CheckIn(h.ctx, emp))
	must(t, h.c.BreakIn(h.ctx, emp))
	before, _ := h.c.Today(emp)

	_, err := h.c.BeginCheckout(h.ctx, emp)
	wantReason(t, err, attendance.ReasonCheckoutWhileOnBreak)

	after, _ := h.c.Today(emp)
	if !after.IsOnBreak || len(after.Breaks) != len(before.Breaks) {
		t.Fatal("employee must remain on break")
	}
	if h.state(t) != OnBreak {
		t.Fatal("state changed")
	}
}

func TestCheckoutIsGuarded(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	_, err := h.c.BeginCheckout(h.ctx, emp)
	wantReason(t, err, attendance.ReasonAlreadyInactive)

	must(t, h.c.CheckIn(h.ctx, emp))
	_, err = h.c.CompleteCheckout(h.ctx, emp, task.Completed)
	wantReason(t, err, attendance.ReasonNoCheckoutPending)

	_, err = h.c.BeginCheckout(h.ctx, emp)
	must(t, err)
	_, err = h.c.BeginCheckout(h.ctx, emp)
	wantReason(t, err, attendance.ReasonCheckoutPending)
	wantReason(t, h.c.BreakIn(h.ctx, emp), attendance.ReasonCheckoutPending)

	h.c.CancelCheckout(emp)
	_, err = h.c.BeginCheckout(h.ctx, emp)
	must(t, err)
	if _, err := h.c.CompleteCheckout(h.ctx, emp, task.Pending); err == nil {
		t.Fatal("pending is not a valid checkout status")
	}
}

func TestCheckoutCompletesTask(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	must(t, h.c.CheckIn(h.ctx, emp))
	h.clk.set(9, 15)
	must(t, h.c.StartTask(h.ctx, emp, "t1"))

	h.clk.set(12, 15)
	prompt, err := h.c.BeginCheckout(h.ctx, emp)
	must(t, err)
	if prompt.Task == nil || prompt.Task.ID != "t1" || prompt.Elapsed != 195*time.Minute {
		t.Fatalf("unexpected prompt %+v", prompt)
	}
	rec, err := h.c.CompleteCheckout(h.ctx, emp, task.Completed)
	must(t, err)

	if rec.TaskTitle != "Install router" || rec.TaskStatus != task.Completed || rec.DurationSeconds != 10800 || rec.Date != "2026-03-04" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if h.tasks.status("t1") != task.Completed {
		t.Fatal("task should be completed")
	}
	day, _ := h.c.Today(emp)
	if day.IsActive || day.TotalWorkSeconds != 11700 {
		t.Fatalf("unexpected day %+v", day)
	}
	if h.kv.has(SessionKey(emp)) || h.c.Ticking(emp) {
		t.Fatal("session key and tick should be cleared")
	}
	if h.sched.active != 0 {
		t.Fatal("tick not cancelled")
	}
	if h.state(t) != Inactive {
		t.Fatal("expected inactive")
	}
	if len(h.records(t)) != 1 {
		t.Fatal("record not logged")
	}
}

func TestCheckoutKeepsTaskResumable(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	must(t, h.c.CheckIn(h.ctx, emp))
	must(t, h.c.StartTask(h.ctx, emp, "t1"))
	h.clk.set(12, 0)
	_, err := h.c.BeginCheckout(h.ctx, emp)
	must(t, err)
	_, err = h.c.CompleteCheckout(h.ctx, emp, task.InProgress)
	must(t, err)

	h.clk.set(13, 0)
	must(t, h.c.CheckIn(h.ctx, emp))
	if h.state(t) != ActiveWithTask {
		t.Fatalf("expected resumed task, got %s", h.state(t))
	}
	if got := h.c.Live(emp).TaskTitle; got != "Install router" {
		t.Fatalf("live task = %q", got)
	}
}

func TestCheckoutWithoutTask(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	must(t, h.c.CheckIn(h.ctx, emp))
	h.clk.set(10, 0)
	prompt, err := h.c.BeginCheckout(h.ctx, emp)
	must(t, err)
	if prompt.Task != nil {
		t.Fatal("no task expected")
	}
	rec, err := h.c.CompleteCheckout(h.ctx, emp, task.InProgress)
	must(t, err)
	if rec.TaskTitle != history.NoTaskTitle || rec.TaskStatus != task.Completed || rec.DurationSeconds != 3600 {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestLogoutClosesBreak(t *testing.T) {
	h := newHarness(t, BreakPolicyPause)
	must(t, h.c.CheckIn(h.ctx, emp))
	must(t, h.c.StartTask(h.ctx, emp, "t1"))
	h.clk.set(10, 0)
	must(t, h.c.BreakIn(h.ctx, emp))
	h.clk.set(10, 30)
	must(t, h.c.Logout(h.ctx, emp))

	day, _ := h.c.Today(emp)
	if day.IsActive || day.IsOnBreak || day.TotalBreakSeconds != 1800 || day.TotalWorkSeconds != 5400 {
		t.Fatalf("unexpected day %+v", day)
	}
	recs := h.records(t)
	if len(recs) != 1 || recs[0].TaskStatus != task.InProgress || recs[0].DurationSeconds != 3600 {
		t.Fatalf("unexpected records %+v", recs)
	}
	if h.tasks.status("t1") != task.InProgress {
		t.Fatal("logout keeps the task resumable")
	}
	wantReason(t, h.c.Logout(h.ctx, emp), attendance.ReasonAlreadyInactive)
}

// ============================================================
// Resume, ticks and persistence
// ============================================================

func TestResumeRestoresSession(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	h.clk.set(8, 0)
	must(t, h.c.CheckIn(h.ctx, emp))
	must(t, h.c.StartTask(h.ctx, emp, "t2"))
	h.c.Close()

	h.clk.set(11, 0)
	h.c = h.open(t, BreakPolicyCheckout)
	must(t, h.c.Resume(h.ctx, emp))

	st := h.c.Live(emp)
	if st.State != ActiveWithTask || st.TaskID != "t2" {
		t.Fatalf("unexpected live status %+v", st)
	}
	if st.Totals.Session != 3*time.Hour || st.Totals.Work != 3*time.Hour {
		t.Fatalf("elapsed time lost: %+v", st.Totals)
	}
	if !h.c.Ticking(emp) {
		t.Fatal("tick should restart")
	}
}

func TestResumeRebuildsLostKey(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	h.clk.set(8, 0)
	must(t, h.c.CheckIn(h.ctx, emp))
	must(t, h.kv.Remove(h.ctx, SessionKey(emp)))

	h.clk.set(9, 0)
	h.c = h.open(t, BreakPolicyCheckout)
	must(t, h.c.Resume(h.ctx, emp))
	if !h.kv.has(SessionKey(emp)) {
		t.Fatal("session key should be rebuilt")
	}
	if got := h.c.Live(emp).Totals.Session; got != time.Hour {
		t.Fatalf("session = %v, want 1h from login", got)
	}
}

func TestResumeRemovesStaleKey(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	h.kv.data[SessionKey(emp)] = []byte(`{"started_at":"2026-03-03T09:00:00Z"}`)
	must(t, h.c.Resume(h.ctx, emp))
	if h.kv.has(SessionKey(emp)) {
		t.Fatal("stale key should be removed")
	}
	if h.c.Ticking(emp) {
		t.Fatal("no tick for an inactive day")
	}
}

// ============================================================
// Sessions across midnight
// ============================================================

func TestCheckoutAfterMidnight(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	h.clk.set(22, 0)
	must(t, h.c.CheckIn(h.ctx, emp))
	must(t, h.c.StartTask(h.ctx, emp, "t1"))

	h.clk.setDay(5, 0, 30)
	if h.state(t) != ActiveWithTask {
		t.Fatalf("expected still working, got %s", h.state(t))
	}
	prompt, err := h.c.BeginCheckout(h.ctx, emp)
	must(t, err)
	if prompt.Elapsed != 150*time.Minute {
		t.Fatalf("elapsed = %v, want 2h30m", prompt.Elapsed)
	}
	rec, err := h.c.CompleteCheckout(h.ctx, emp, task.Completed)
	must(t, err)
	if rec.DurationSeconds != 9000 || rec.Date != "2026-03-04" || rec.TaskID != "t1" {
		t.Fatalf("unexpected record %+v", rec)
	}

	prev, ok := h.c.Ledger().Day(emp, "2026-03-04")
	midnight := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	if !ok || prev.IsActive || prev.TotalWorkSeconds != 7200 || prev.LogoutTime == nil || !prev.LogoutTime.Equal(midnight) {
		t.Fatalf("unexpected previous day %+v", prev)
	}
	day, ok := h.c.Today(emp)
	if !ok || day.IsActive || day.TotalWorkSeconds != 1800 {
		t.Fatalf("unexpected today %+v", day)
	}
	if h.c.Ticking(emp) || h.kv.has(SessionKey(emp)) {
		t.Fatal("session should be ended")
	}
}

func TestLogoutAfterMidnightDuringBreak(t *testing.T) {
	h := newHarness(t, BreakPolicyPause)
	h.clk.set(22, 0)
	must(t, h.c.CheckIn(h.ctx, emp))
	must(t, h.c.StartTask(h.ctx, emp, "t1"))
	h.clk.set(23, 30)
	must(t, h.c.BreakIn(h.ctx, emp))

	h.clk.setDay(5, 0, 30)
	must(t, h.c.Logout(h.ctx, emp))

	prev, _ := h.c.Ledger().Day(emp, "2026-03-04")
	if prev.IsActive || prev.IsOnBreak || prev.TotalWorkSeconds != 7200 || prev.TotalBreakSeconds != 1800 {
		t.Fatalf("unexpected previous day %+v", prev)
	}
	day, _ := h.c.Today(emp)
	if day.IsActive || day.IsOnBreak || day.TotalBreakSeconds != 1800 || day.TotalWorkSeconds != 1800 {
		t.Fatalf("unexpected today %+v", day)
	}
	recs := h.records(t)
	if len(recs) != 1 || recs[0].DurationSeconds != 5400 {
		t.Fatalf("record should leave both break halves out, got %+v", recs)
	}
}

func TestBreakOutAfterMidnight(t *testing.T) {
	h := newHarness(t, BreakPolicyPause)
	h.clk.set(22, 0)
	must(t, h.c.CheckIn(h.ctx, emp))
	must(t, h.c.StartTask(h.ctx, emp, "t1"))
	h.clk.set(23, 40)
	must(t, h.c.BreakIn(h.ctx, emp))

	h.clk.setDay(5, 0, 20)
	st := h.c.Live(emp)
	if st.State != OnBreak || st.TaskElapsed != 100*time.Minute || st.Day.Date != "2026-03-05" {
		t.Fatalf("unexpected live status before the carry is stored: %+v", st)
	}
	must(t, h.c.BreakOut(h.ctx, emp))
	if h.state(t) != ActiveWithTask {
		t.Fatalf("expected working, got %s", h.state(t))
	}
	h.clk.setDay(5, 1, 0)
	if got := h.c.Live(emp).TaskElapsed; got != 140*time.Minute {
		t.Fatalf("task elapsed = %v, want 2h20m", got)
	}
}

func TestCheckInAfterMidnightWhileStillActive(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	h.clk.set(22, 0)
	must(t, h.c.CheckIn(h.ctx, emp))
	h.clk.setDay(5, 0, 30)
	wantReason(t, h.c.CheckIn(h.ctx, emp), attendance.ReasonAlreadyActive)
}

func TestResumeAfterMidnightKeepsSession(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	h.clk.set(22, 0)
	must(t, h.c.CheckIn(h.ctx, emp))
	must(t, h.c.StartTask(h.ctx, emp, "t2"))
	h.c.Close()

	h.clk.setDay(5, 1, 0)
	h.c = h.open(t, BreakPolicyCheckout)
	must(t, h.c.Resume(h.ctx, emp))

	st := h.c.Live(emp)
	if st.State != ActiveWithTask || st.TaskID != "t2" {
		t.Fatalf("unexpected live status %+v", st)
	}
	if st.Totals.Session != 3*time.Hour || st.Totals.Work != time.Hour {
		t.Fatalf("unexpected totals %+v", st.Totals)
	}
	if !h.c.Ticking(emp) || !h.kv.has(SessionKey(emp)) {
		t.Fatal("session should survive the resume")
	}
	prev, _ := h.c.Ledger().Day(emp, "2026-03-04")
	if prev.IsActive || prev.TotalWorkSeconds != 7200 {
		t.Fatalf("previous day should be closed at midnight, got %+v", prev)
	}
}

func TestTickDeliversLiveStatus(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	var got []LiveStatus
	h.c.OnTick(func(st LiveStatus) { got = append(got, st) })
	must(t, h.c.CheckIn(h.ctx, emp))

	h.sched.fire(time.Date(2026, 3, 4, 9, 0, 42, 0, time.UTC))
	if len(got) != 1 {
		t.Fatalf("expected 1 tick, got %d", len(got))
	}
	if got[0].Totals.Work != 42*time.Second || got[0].State != ActiveNoTask {
		t.Fatalf("unexpected status %+v", got[0])
	}
}

func TestCloseCancelsTicks(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	must(t, h.c.CheckIn(h.ctx, emp))
	h.c.Close()
	if h.sched.active != 0 || h.c.Ticking(emp) {
		t.Fatal("ticks should be cancelled")
	}
}

func TestFailedSaveLeavesLedgerUnchanged(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	h.kv.failSet = errors.New("disk full")
	if err := h.c.CheckIn(h.ctx, emp); !errors.Is(err, h.kv.failSet) {
		t.Fatalf("expected save error, got %v", err)
	}
	if _, ok := h.c.Today(emp); ok {
		t.Fatal("ledger must not change when the save fails")
	}
}

func TestAdminOverride(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	wantReason(t, h.c.AdminOverride(h.ctx, attendance.Override{EmployeeID: emp, Date: "2026-03-04", Status: attendance.Present}), attendance.ReasonRecordNotFound)

	must(t, h.c.CheckIn(h.ctx, emp))
	login := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)
	logout := time.Date(2026, 3, 4, 17, 0, 0, 0, time.UTC)
	must(t, h.c.AdminOverride(h.ctx, attendance.Override{
		EmployeeID: emp, Date: "2026-03-04", LoginTime: &login, LogoutTime: &logout, Status: attendance.Present,
	}))

	day, _ := h.c.Today(emp)
	if day.TotalWorkSeconds != 9*3600 || day.IsActive {
		t.Fatalf("unexpected day %+v", day)
	}
	if h.c.Ticking(emp) || h.kv.has(SessionKey(emp)) {
		t.Fatal("overriding today ends the running session")
	}

	reopened := h.open(t, BreakPolicyCheckout)
	if d, _ := reopened.Today(emp); d.TotalWorkSeconds != 9*3600 {
		t.Fatal("override not persisted")
	}
}

func TestCheckInAfterOverrideCountsGross(t *testing.T) {
	h := newHarness(t, BreakPolicyCheckout)
	h.clk.set(9, 0)
	must(t, h.c.CheckIn(h.ctx, emp))
	login := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	logout := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	must(t, h.c.AdminOverride(h.ctx, attendance.Override{
		EmployeeID: emp, Date: "2026-03-04", LoginTime: &login, LogoutTime: &logout, Status: attendance.Present,
	}))

	h.clk.set(11, 0)
	must(t, h.c.CheckIn(h.ctx, emp))
	h.clk.set(12, 0)
	must(t, h.c.BreakIn(h.ctx, emp))
	h.clk.set(13, 0)
	must(t, h.c.BreakOut(h.ctx, emp))
	h.clk.set(14, 0)
	must(t, h.c.Logout(h.ctx, emp))

	day, _ := h.c.Today(emp)
	if day.Overridden || attendance.NetWorkSeconds(day) != 4*3600-3600 {
		t.Fatalf("unexpected day %+v", day)
	}
}
