package metrics

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Log persists execution records ordered by timestamp.
type Log interface {
	// Append stores rec and trims the log to the newest maxEntries records.
	Append(ctx context.Context, rec ExecutionRecord, maxEntries int) error
	// Between returns records with from <= Timestamp <= to, oldest first.
	Between(ctx context.Context, from, to time.Time) ([]ExecutionRecord, error)
	// PurgeBefore removes records with Timestamp <= before and returns how many were removed.
	PurgeBefore(ctx context.Context, before time.Time) (int, error)
	// Len returns the number of stored records.
	Len(ctx context.Context) (int, error)
}

// MemoryLog is a process-local Log.
type MemoryLog struct {
	mu      sync.RWMutex
	records []ExecutionRecord
}

// NewMemoryLog creates an empty in-memory log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (l *MemoryLog) Append(_ context.Context, rec ExecutionRecord, maxEntries int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos := sort.Search(len(l.records), func(i int) bool {
		return l.records[i].Timestamp.After(rec.Timestamp)
	})
	l.records = append(l.records, ExecutionRecord{})
	copy(l.records[pos+1:], l.records[pos:])
	l.records[pos] = rec

	if maxEntries > 0 && len(l.records) > maxEntries {
		drop := len(l.records) - maxEntries
		l.records = append(l.records[:0:0], l.records[drop:]...)
	}
	return nil
}

func (l *MemoryLog) Between(_ context.Context, from, to time.Time) ([]ExecutionRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []ExecutionRecord
	for _, r := range l.records {
		if r.Timestamp.Before(from) || r.Timestamp.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (l *MemoryLog) PurgeBefore(_ context.Context, before time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := sort.Search(len(l.records), func(i int) bool {
		return l.records[i].Timestamp.After(before)
	})
	l.records = append(l.records[:0:0], l.records[idx:]...)
	return idx, nil
}

func (l *MemoryLog) Len(context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records), nil
}
