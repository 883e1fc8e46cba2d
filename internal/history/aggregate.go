package history

import (
	"sort"

	"github.com/sadopc/shiftr/internal/attendance"
	"github.com/sadopc/shiftr/internal/timeutil"
)

// GroupByDate buckets records by their date, each bucket ordered by check-in.
func GroupByDate(records []ClockRecord) map[string][]ClockRecord {
	out := make(map[string][]ClockRecord)
	for _, r := range records {
		out[r.Date] = append(out[r.Date], r)
	}
	for _, list := range out {
		sort.SliceStable(list, func(i, j int) bool { return list[i].CheckIn.Before(list[j].CheckIn) })
	}
	return out
}

// GroupDaysByDate buckets attendance days by date.
func GroupDaysByDate(days []attendance.Day) map[string][]attendance.Day {
	out := make(map[string][]attendance.Day)
	for _, d := range days {
		out[d.Date] = append(out[d.Date], d)
	}
	return out
}

// OnDate returns the records of one date, ordered by check-in.
func OnDate(records []ClockRecord, date string) []ClockRecord {
	return GroupByDate(records)[date]
}

// Dates returns the sorted keys of a grouping.
func Dates[V any](groups map[string][]V) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Mark is the calendar state of one date.
type Mark struct {
	Dot      bool
	Selected bool
}

// MarkDates marks every date that has data and flags the selected one, which
// is included even when it has no data.
func MarkDates(dates []string, selected string) map[string]Mark {
	out := make(map[string]Mark, len(dates)+1)
	for _, d := range dates {
		out[d] = Mark{Dot: true}
	}
	if selected != "" {
		m := out[selected]
		m.Selected = true
		out[selected] = m
	}
	return out
}

// TotalBreakSeconds sums the closed breaks. Open or inverted breaks add nothing.
func TotalBreakSeconds(breaks []attendance.Break) int64 {
	var total int64
	for _, b := range breaks {
		if b.Out == nil {
			continue
		}
		total += timeutil.ElapsedSeconds(b.In, *b.Out)
	}
	return total
}

// DaySummary aggregates one date across employees.
type DaySummary struct {
	Date         string
	WorkSeconds  int64
	NetSeconds   int64
	BreakSeconds int64
	Breaks       int
	Employees    int
}

// Summarize returns one summary per date, oldest first.
func Summarize(days []attendance.Day) []DaySummary {
	groups := GroupDaysByDate(days)
	out := make([]DaySummary, 0, len(groups))
	for _, date := range Dates(groups) {
		s := DaySummary{Date: date}
		for _, d := range groups[date] {
			s.WorkSeconds += d.TotalWorkSeconds
			s.NetSeconds += attendance.NetWorkSeconds(d)
			s.BreakSeconds += d.TotalBreakSeconds
			s.Breaks += len(d.Breaks)
			s.Employees++
		}
		out = append(out, s)
	}
	return out
}

// Window returns the summaries for the given date keys in order, with empty
// entries for dates that have no data.
func Window(summaries []DaySummary, dates []string) []DaySummary {
	byDate := make(map[string]DaySummary, len(summaries))
	for _, s := range summaries {
		byDate[s.Date] = s
	}
	out := make([]DaySummary, len(dates))
	for i, d := range dates {
		s, ok := byDate[d]
		if !ok {
			s = DaySummary{Date: d}
		}
		out[i] = s
	}
	return out
}
