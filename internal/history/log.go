package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// RecordsKey is the persistence key of the clock record list.
const RecordsKey = "clock/records"

// KV is the subset of the persistence collaborator the log needs.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Log is the append-only list of clock records, newest first.
type Log struct {
	mu sync.Mutex
	kv KV
}

func NewLog(kv KV) *Log {
	return &Log{kv: kv}
}

// Append stores rec in front of the existing records.
func (l *Log) Append(ctx context.Context, rec ClockRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load(ctx)
	if err != nil {
		return err
	}
	records = append([]ClockRecord{rec}, records...)
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode clock records: %w", err)
	}
	if err := l.kv.Set(ctx, RecordsKey, data); err != nil {
		return fmt.Errorf("save clock records: %w", err)
	}
	return nil
}

// List returns every record, newest first.
func (l *Log) List(ctx context.Context) ([]ClockRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

// ForEmployee returns the employee's records, newest first.
func (l *Log) ForEmployee(ctx context.Context, employeeID string) ([]ClockRecord, error) {
	all, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []ClockRecord
	for _, r := range all {
		if r.EmployeeID == employeeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *Log) load(ctx context.Context) ([]ClockRecord, error) {
	data, err := l.kv.Get(ctx, RecordsKey)
	if err != nil {
		return nil, fmt.Errorf("load clock records: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []ClockRecord
	if err := json.Unmarshal(data, &records); err != nil {
		// An unreadable list is replaced on the next append.
		log.Printf("decode clock records: %v", err)
		return nil, nil
	}
	return records, nil
}
