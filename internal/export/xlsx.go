package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sadopc/shiftr/internal/attendance"
	"github.com/sadopc/shiftr/internal/history"
)

const (
	attendanceSheet = "Attendance"
	summarySheet    = "Summary"
)

var (
	attendanceHeader = []string{"Date", "Employee", "Email", "Login", "Logout", "Work", "Net Work", "Break", "Breaks", "Edited"}
	summaryHeader    = []string{"Date", "Employees", "Work", "Net Work", "Break", "Breaks"}
)

// ToXLSX writes an attendance workbook: one row per employee-day on the
// first sheet and per-date totals on the second.
func ToXLSX(days []attendance.Day, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), attendanceSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	if err := writeRow(f, attendanceSheet, 1, toAny(attendanceHeader)); err != nil {
		return err
	}
	for i, d := range days {
		row := []any{
			d.Date,
			d.User.Name,
			d.User.Email,
			clockTime(d.LoginTime),
			clockTime(d.LogoutTime),
			formatDuration(d.TotalWorkSeconds),
			formatDuration(attendance.NetWorkSeconds(d)),
			formatDuration(d.TotalBreakSeconds),
			len(d.Breaks),
			yesNo(d.Overridden),
		}
		if err := writeRow(f, attendanceSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := writeRow(f, summarySheet, 1, toAny(summaryHeader)); err != nil {
		return err
	}
	for i, s := range history.Summarize(days) {
		row := []any{
			s.Date,
			s.Employees,
			formatDuration(s.WorkSeconds),
			formatDuration(s.NetSeconds),
			formatDuration(s.BreakSeconds),
			s.Breaks,
		}
		if err := writeRow(f, summarySheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func clockTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format("15:04:05")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
