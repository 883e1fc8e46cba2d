package attendance

import (
	"sort"
	"time"

	"github.com/sadopc/shiftr/internal/timeutil"
)

// Ledger maps employee IDs to their attendance days, ordered by date.
//
// A Ledger is owned by one caller; it does no locking of its own.
type Ledger struct {
	days map[string][]*Day
}

func NewLedger() *Ledger {
	return &Ledger{days: make(map[string][]*Day)}
}

func (l *Ledger) find(employeeID, date string) *Day {
	for _, d := range l.days[employeeID] {
		if d.Date == date {
			return d
		}
	}
	return nil
}

func (l *Ledger) resolve(employeeID, date string, user EmployeeSnapshot) *Day {
	if d := l.find(employeeID, date); d != nil {
		return d
	}
	d := &Day{Date: date, User: user}
	l.days[employeeID] = append(l.days[employeeID], d)
	return d
}

func (l *Ledger) sortDays(employeeID string) {
	list := l.days[employeeID]
	sort.SliceStable(list, func(i, j int) bool { return list[i].Date < list[j].Date })
}

// RecordSessionChange logs an employee in or out at the given instant. The
// day is created on first use and its user snapshot is always refreshed.
//
// Logging in while already active leaves the time fields alone and returns
// ErrAlreadyActive. Logging out always clears both flags and stamps the logout
// time, closing an open break at the same instant; it returns
// ErrAlreadyInactive when the day was not active.
func (l *Ledger) RecordSessionChange(employeeID string, active bool, at time.Time, user EmployeeSnapshot) error {
	date := timeutil.DateKey(at)
	today := l.resolve(employeeID, date, user)
	today.User = user
	defer l.sortDays(employeeID)

	if active {
		if today.IsActive {
			return reject(ReasonAlreadyActive, employeeID, date)
		}
		if today.Overridden {
			// New work on an edited day is accumulated gross again.
			today.TotalWorkSeconds += today.TotalBreakSeconds
			today.Overridden = false
		}
		login := at
		today.IsActive = true
		today.LoginTime = &login
		today.LogoutTime = nil
		today.CarriedOver = false
		return nil
	}

	wasActive := today.IsActive
	if today.OpenBreak() {
		closeBreak(today, at)
	}
	l.closeSession(today, at)
	logout := at
	today.LogoutTime = &logout
	today.IsOnBreak = false
	if !wasActive {
		return reject(ReasonAlreadyInactive, employeeID, date)
	}
	return nil
}

func (l *Ledger) closeSession(d *Day, at time.Time) {
	if d.IsActive && d.LoginTime != nil {
		d.TotalWorkSeconds += timeutil.ElapsedSeconds(*d.LoginTime, at)
	}
	d.IsActive = false
}

// StartBreak opens a break on today's record.
func (l *Ledger) StartBreak(employeeID string, at time.Time) error {
	date := timeutil.DateKey(at)
	today := l.find(employeeID, date)
	switch {
	case today == nil:
		return reject(ReasonRecordNotFound, employeeID, date)
	case !today.IsActive:
		return reject(ReasonNotActiveForBreak, employeeID, date)
	case today.IsOnBreak:
		return reject(ReasonAlreadyOnBreak, employeeID, date)
	case today.BreakLimitReached():
		return reject(ReasonBreakLimitReached, employeeID, date)
	}

	today.IsOnBreak = true
	today.Breaks = append(today.Breaks, Break{In: at})
	return nil
}

// EndBreak closes the open break on today's record.
func (l *Ledger) EndBreak(employeeID string, at time.Time) error {
	date := timeutil.DateKey(at)
	today := l.find(employeeID, date)
	switch {
	case today == nil:
		return reject(ReasonRecordNotFound, employeeID, date)
	case !today.IsActive:
		return reject(ReasonNotActiveForBreak, employeeID, date)
	case !today.IsOnBreak, !today.OpenBreak():
		return reject(ReasonNoOpenBreak, employeeID, date)
	}

	closeBreak(today, at)
	return nil
}

func closeBreak(d *Day, at time.Time) {
	last := &d.Breaks[len(d.Breaks)-1]
	out := at
	last.Out = &out
	last.DurationSeconds = timeutil.ElapsedSeconds(last.In, at)
	d.TotalBreakSeconds += last.DurationSeconds
	d.IsOnBreak = false
}

// StopSession force-ends today's session: an open break is closed as by
// EndBreak and an active session as by a logout, in one step.
func (l *Ledger) StopSession(employeeID string, at time.Time) error {
	date := timeutil.DateKey(at)
	today := l.find(employeeID, date)
	if today == nil {
		return reject(ReasonRecordNotFound, employeeID, date)
	}

	if today.IsOnBreak {
		if today.OpenBreak() {
			closeBreak(today, at)
		}
		today.IsOnBreak = false
	}
	if !today.IsActive {
		return reject(ReasonAlreadyInactive, employeeID, date)
	}
	l.closeSession(today, at)
	logout := at
	today.LogoutTime = &logout
	return nil
}

// staleSession returns the latest day before the date of now that is still
// active, provided the date of now has no active record of its own.
func (l *Ledger) staleSession(employeeID string, now time.Time) *Day {
	date := timeutil.DateKey(now)
	if d := l.find(employeeID, date); d != nil && d.IsActive {
		return nil
	}
	var stale *Day
	for _, d := range l.days[employeeID] {
		if d.IsActive && d.Date < date {
			stale = d
		}
	}
	return stale
}

// NeedsCarryOver reports whether a session from an earlier date is still
// open on the date of now.
func (l *Ledger) NeedsCarryOver(employeeID string, now time.Time) bool {
	return l.staleSession(employeeID, now) != nil
}

// CarryOver splits a session left open on an earlier date at each midnight
// up to the date of now. Every day is closed at the following midnight and the
// next one opened at that instant; an open break continues on the new day.
// It returns the break seconds closed at the midnights and whether anything
// was carried.
func (l *Ledger) CarryOver(employeeID string, now time.Time) (int64, bool) {
	day := l.staleSession(employeeID, now)
	if day == nil {
		return 0, false
	}
	defer l.sortDays(employeeID)

	date := timeutil.DateKey(now)
	var breakSeconds int64
	for day.Date < date {
		start, err := timeutil.ParseDateKey(day.Date, now.Location())
		if err != nil {
			break
		}
		midnight := start.AddDate(0, 0, 1)

		onBreak := day.IsOnBreak && day.OpenBreak()
		if onBreak {
			closeBreak(day, midnight)
			breakSeconds += day.Breaks[len(day.Breaks)-1].DurationSeconds
		}
		day.IsOnBreak = false
		l.closeSession(day, midnight)
		logout := midnight
		day.LogoutTime = &logout

		next := l.resolve(employeeID, timeutil.DateKey(midnight), day.User)
		if next.Overridden {
			next.TotalWorkSeconds += next.TotalBreakSeconds
			next.Overridden = false
		}
		login := midnight
		next.IsActive = true
		next.LoginTime = &login
		next.LogoutTime = nil
		next.CarriedOver = true
		if onBreak && !next.BreakLimitReached() {
			next.IsOnBreak = true
			next.Breaks = append(next.Breaks, Break{In: midnight})
		}
		day = next
	}
	return breakSeconds, true
}

// AdminOverride replaces one day's record. It edits existing days only and
// never leaves a break open. The stored work total is net of breaks until the
// next login on that day.
func (l *Ledger) AdminOverride(o Override) error {
	day := l.find(o.EmployeeID, o.Date)
	if day == nil {
		return reject(ReasonRecordNotFound, o.EmployeeID, o.Date)
	}

	day.IsActive = false
	day.IsOnBreak = false

	if o.Status == Absent {
		day.LoginTime = nil
		day.LogoutTime = nil
		day.Breaks = []Break{}
		day.TotalWorkSeconds = 0
		day.TotalBreakSeconds = 0
		day.Overridden = true
		return nil
	}

	day.LoginTime = copyTime(o.LoginTime)
	day.LogoutTime = copyTime(o.LogoutTime)

	var breakSeconds int64
	breaks := make([]Break, 0, len(o.Breaks))
	for _, span := range o.Breaks {
		// A span missing one end is stored closed with zero length.
		in, out := span.In, span.Out
		switch {
		case in == nil && out == nil:
			continue
		case in == nil:
			in = out
		case out == nil:
			out = in
		}
		b := Break{In: *in, Out: copyTime(out), DurationSeconds: timeutil.ElapsedSeconds(*in, *out)}
		breakSeconds += b.DurationSeconds
		breaks = append(breaks, b)
	}
	day.Breaks = breaks
	day.TotalBreakSeconds = breakSeconds

	day.TotalWorkSeconds = 0
	if o.LoginTime != nil && o.LogoutTime != nil {
		work := timeutil.ElapsedSeconds(*o.LoginTime, *o.LogoutTime)
		day.TotalWorkSeconds = max(0, work-breakSeconds)
	}
	day.Overridden = true
	return nil
}

// Today returns a copy of the employee's record for the date of now.
func (l *Ledger) Today(employeeID string, now time.Time) (Day, bool) {
	return l.Day(employeeID, timeutil.DateKey(now))
}

// Day returns a copy of the employee's record for date.
func (l *Ledger) Day(employeeID, date string) (Day, bool) {
	d := l.find(employeeID, date)
	if d == nil {
		return Day{}, false
	}
	return d.clone(), true
}

// Days returns copies of all the employee's records, oldest first.
func (l *Ledger) Days(employeeID string) []Day {
	list := l.days[employeeID]
	if len(list) == 0 {
		return nil
	}
	out := make([]Day, len(list))
	for i, d := range list {
		out[i] = d.clone()
	}
	return out
}

// DaysOn returns every employee's record for date, ordered by employee ID.
func (l *Ledger) DaysOn(date string) []Day {
	var out []Day
	for _, id := range l.Employees() {
		if d := l.find(id, date); d != nil {
			out = append(out, d.clone())
		}
	}
	return out
}

// Employees returns the IDs with at least one record, sorted.
func (l *Ledger) Employees() []string {
	ids := make([]string, 0, len(l.days))
	for id, list := range l.days {
		if len(list) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy.
func (l *Ledger) Clone() *Ledger {
	c := NewLedger()
	for id, list := range l.days {
		cp := make([]*Day, len(list))
		for i, d := range list {
			v := d.clone()
			cp[i] = &v
		}
		c.days[id] = cp
	}
	return c
}
