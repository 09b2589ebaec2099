package ratelimiter

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dmitrymomot/auditbot/core/logger"
)

// window holds the admitted timestamps of a single key, oldest first.
type window struct {
	hits     []time.Time
	expireAt time.Time
}

// MemoryStore implements Store in process memory.
// Suitable for a single bot process; use RedisStore to share windows.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window

	now    func() time.Time
	logger *slog.Logger
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMemoryStoreLogger sets the logger used to report sweeps.
func WithMemoryStoreLogger(l *slog.Logger) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if l != nil {
			ms.logger = l
		}
	}
}

// WithMemoryStoreClock replaces time.Now for expiry decisions during cleanup.
func WithMemoryStoreClock(now func() time.Time) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStore creates a new in-memory store. Expired windows stay in memory
// until RemoveExpired is called; the bot schedules it once per window span.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		windows: make(map[string]*window),
		now:     time.Now,
		logger:  logger.Discard(),
	}

	for _, opt := range opts {
		opt(ms)
	}

	return ms
}

// Admit implements Store.
func (ms *MemoryStore) Admit(ctx context.Context, key string, now time.Time, span time.Duration, limit int) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, errors.Join(ErrStoreUnavailable, err)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	w, exists := ms.windows[key]
	if !exists {
		w = &window{}
		ms.windows[key] = w
	}

	// Entries strictly older than now-span fall out of the window.
	cutoff := now.Add(-span)
	idx := sort.Search(len(w.hits), func(i int) bool {
		return !w.hits[i].Before(cutoff)
	})
	w.hits = w.hits[idx:]

	d := Decision{Count: len(w.hits)}
	if len(w.hits) > 0 {
		d.Oldest = w.hits[0]
	}

	if d.Count >= limit {
		return d, nil
	}

	// Keep hits ordered even if callers pass slightly skewed clocks.
	pos := sort.Search(len(w.hits), func(i int) bool {
		return w.hits[i].After(now)
	})
	w.hits = append(w.hits, time.Time{})
	copy(w.hits[pos+1:], w.hits[pos:])
	w.hits[pos] = now

	w.expireAt = now.Add(span)
	d.Admitted = true

	return d, nil
}

// Reset implements Store.
func (ms *MemoryStore) Reset(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.windows, key)
	return nil
}

// RemoveExpired drops every window whose newest hit is older than its span.
// It returns the number of windows removed.
func (ms *MemoryStore) RemoveExpired() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	removed := 0
	for key, w := range ms.windows {
		if len(w.hits) == 0 || !now.Before(w.expireAt) {
			delete(ms.windows, key)
			removed++
		}
	}

	if removed > 0 {
		ms.logger.Debug("removed expired rate limit windows",
			logger.Component("ratelimiter"),
			logger.Count("removed", removed),
			logger.Count("active", len(ms.windows)))
	}
	return removed
}
