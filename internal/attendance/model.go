// Package attendance keeps per-employee, per-day attendance records and the
// session and break transitions that mutate them.
package attendance

import "time"

// MaxBreaksPerDay caps the number of breaks an employee may start in one day.
const MaxBreaksPerDay = 5

type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// EmployeeSnapshot is the denormalized employee identity stored on each day.
type EmployeeSnapshot struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phone_number"`
	Role          Role   `json:"role"`
	FieldLocation string `json:"field_location,omitempty"`
}

// Break is one break period. Out is nil while the break is open.
type Break struct {
	In              time.Time  `json:"break_in"`
	Out             *time.Time `json:"break_out"`
	DurationSeconds int64      `json:"duration_seconds"`
}

func (b Break) open() bool { return b.Out == nil }

// Day is the attendance record of one employee for one calendar date.
type Day struct {
	Date              string           `json:"date"`
	IsActive          bool             `json:"is_active"`
	IsOnBreak         bool             `json:"is_on_break"`
	LoginTime         *time.Time       `json:"login_time"`
	LogoutTime        *time.Time       `json:"logout_time"`
	TotalWorkSeconds  int64            `json:"total_work_seconds"`
	TotalBreakSeconds int64            `json:"total_break_seconds"`
	Breaks            []Break          `json:"breaks"`
	User              EmployeeSnapshot `json:"user"`
	// Overridden is set once an admin edit replaced the totals. Its work total
	// is net of breaks.
	Overridden bool `json:"overridden,omitempty"`
	// CarriedOver marks a day whose session was opened at midnight by a login
	// from an earlier date.
	CarriedOver bool `json:"carried_over,omitempty"`
}

// LastBreak returns the most recent break, if any.
func (d Day) LastBreak() (Break, bool) {
	if len(d.Breaks) == 0 {
		return Break{}, false
	}
	return d.Breaks[len(d.Breaks)-1], true
}

// OpenBreak reports whether the last break has not been closed yet.
func (d Day) OpenBreak() bool {
	b, ok := d.LastBreak()
	return ok && b.open()
}

// BreakLimitReached reports whether another break may not be started today.
func (d Day) BreakLimitReached() bool {
	return len(d.Breaks) >= MaxBreaksPerDay
}

// Presence is the status chosen in an admin override.
type Presence string

const (
	Present Presence = "Present"
	Absent  Presence = "Absent"
)

// BreakSpan is an admin-supplied break. Either end may be missing.
type BreakSpan struct {
	In  *time.Time `json:"break_in"`
	Out *time.Time `json:"break_out"`
}

// Override is a full-replacement admin edit of one historical day.
type Override struct {
	EmployeeID string
	Date       string
	LoginTime  *time.Time
	LogoutTime *time.Time
	Breaks     []BreakSpan
	Status     Presence
}

func (d Day) clone() Day {
	c := d
	c.LoginTime = copyTime(d.LoginTime)
	c.LogoutTime = copyTime(d.LogoutTime)
	if d.Breaks != nil {
		c.Breaks = make([]Break, len(d.Breaks))
		for i, b := range d.Breaks {
			c.Breaks[i] = Break{In: b.In, Out: copyTime(b.Out), DurationSeconds: b.DurationSeconds}
		}
	}
	return c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
