package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/shiftr/internal/history"
)

type jsonExport struct {
	ExportedAt string       `json:"exported_at"`
	Count      int          `json:"count"`
	Records    []jsonRecord `json:"records"`
}

type jsonRecord struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	EmployeeID  string `json:"employee_id"`
	Employee    string `json:"employee"`
	TaskID      string `json:"task_id,omitempty"`
	Task        string `json:"task"`
	Status      string `json:"status"`
	CheckIn     string `json:"check_in"`
	CheckOut    string `json:"check_out"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
}

func ToJSON(records []history.ClockRecord, names map[string]string, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(records),
		Records:    []jsonRecord{},
	}

	for _, r := range records {
		export.Records = append(export.Records, jsonRecord{
			ID:          r.ID,
			Date:        r.Date,
			EmployeeID:  r.EmployeeID,
			Employee:    employeeName(names, r.EmployeeID),
			TaskID:      r.TaskID,
			Task:        r.TaskTitle,
			Status:      string(r.TaskStatus),
			CheckIn:     r.CheckIn.Local().Format(time.RFC3339),
			CheckOut:    r.CheckOut.Local().Format(time.RFC3339),
			DurationSec: r.DurationSeconds,
			Duration:    formatDuration(r.DurationSeconds),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
