package attendance

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sadopc/shiftr/internal/timeutil"
)

func (l *Ledger) MarshalJSON() ([]byte, error) {
	out := make(map[string][]Day, len(l.days))
	for id := range l.days {
		out[id] = l.Days(id)
	}
	return json.Marshal(out)
}

// UnmarshalJSON replaces the ledger with the decoded one, normalizing what it
// reads: days with invalid dates are dropped, duplicate dates keep the later
// entry, break flags without an open break are cleared, negative figures
// clamp to zero and every list is re-sorted.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var raw map[string][]Day
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode ledger: %w", err)
	}

	l.days = make(map[string][]*Day, len(raw))
	for id, days := range raw {
		if id == "" {
			continue
		}
		for _, d := range days {
			if _, err := timeutil.ParseDateKey(d.Date, time.Local); err != nil {
				continue
			}
			d := normalizeDay(d)
			if existing := l.find(id, d.Date); existing != nil {
				*existing = d
				continue
			}
			l.days[id] = append(l.days[id], &d)
		}
		l.sortDays(id)
	}
	return nil
}

func normalizeDay(d Day) Day {
	d.TotalWorkSeconds = max(0, d.TotalWorkSeconds)
	d.TotalBreakSeconds = max(0, d.TotalBreakSeconds)
	for i := range d.Breaks {
		d.Breaks[i].DurationSeconds = max(0, d.Breaks[i].DurationSeconds)
	}
	if !d.IsActive || !d.OpenBreak() {
		d.IsOnBreak = false
	}
	if d.IsActive && d.LoginTime == nil {
		d.IsActive = false
		d.IsOnBreak = false
	}
	return d
}
