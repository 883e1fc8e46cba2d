package attendance

import (
	"time"

	"github.com/sadopc/shiftr/internal/timeutil"
)

// LiveWork is the elapsed time of the running session, zero when inactive.
func LiveWork(d Day, now time.Time) time.Duration {
	if !d.IsActive || d.LoginTime == nil {
		return 0
	}
	return timeutil.Elapsed(*d.LoginTime, now)
}

// LiveBreak is the elapsed time of the open break, zero when not on break.
func LiveBreak(d Day, now time.Time) time.Duration {
	if !d.IsOnBreak {
		return 0
	}
	b, ok := d.LastBreak()
	if !ok || !b.open() {
		return 0
	}
	return timeutil.Elapsed(b.In, now)
}

// Totals are the figures displayed for a day at one instant.
type Totals struct {
	Work    time.Duration
	Break   time.Duration
	Session time.Duration
}

// DisplayTotals adds the live intervals to the stored completed totals.
// sessionStart is the start of the current login; zero leaves Session empty.
func DisplayTotals(d Day, sessionStart, now time.Time) Totals {
	t := Totals{
		Work:  time.Duration(d.TotalWorkSeconds)*time.Second + LiveWork(d, now),
		Break: time.Duration(d.TotalBreakSeconds)*time.Second + LiveBreak(d, now),
	}
	if d.IsActive {
		t.Session = timeutil.Elapsed(sessionStart, now)
	}
	return t
}

// NetWorkSeconds is the stored work total with breaks taken out. Overridden
// days already store a net figure; a later login turns it back into gross.
func NetWorkSeconds(d Day) int64 {
	if d.Overridden {
		return d.TotalWorkSeconds
	}
	return max(0, d.TotalWorkSeconds-d.TotalBreakSeconds)
}
