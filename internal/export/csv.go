// Package export writes clock records and attendance days to files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/shiftr/internal/history"
)

// ToCSV writes one row per clock record. names maps employee IDs to display
// names; unknown IDs are written as is.
func ToCSV(records []history.ClockRecord, names map[string]string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Date", "Employee", "Task", "Status", "Check In", "Check Out", "Duration (s)", "Duration"}); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.ID,
			r.Date,
			employeeName(names, r.EmployeeID),
			r.TaskTitle,
			string(r.TaskStatus),
			r.CheckIn.Local().Format(time.RFC3339),
			r.CheckOut.Local().Format(time.RFC3339),
			fmt.Sprintf("%d", r.DurationSeconds),
			formatDuration(r.DurationSeconds),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func employeeName(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
