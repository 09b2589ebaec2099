package ratelimiter

import (
	"context"
	"time"
)

// Store persists per-key sliding windows.
//
// Admit must, for key:
//  1. drop every entry recorded before now-window;
//  2. count what is left;
//  3. when count < limit, record now and make the key expire after window.
//
// Implementations must tolerate concurrent callers, including other processes
// sharing the same backend.
type Store interface {
	Admit(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (Decision, error)
	Reset(ctx context.Context, key string) error
}

// Decision is what a Store observed while admitting a request.
type Decision struct {
	// Count is the number of entries inside the window before this request.
	Count int
	// Oldest is the timestamp of the oldest entry inside the window. Zero when empty.
	Oldest time.Time
	// Admitted reports whether the request was recorded.
	Admitted bool
}
