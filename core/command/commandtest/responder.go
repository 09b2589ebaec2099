// Package commandtest provides an in-memory command.Responder for tests.
package commandtest

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/auditbot/core/command"
)

// Responder records every reply.
type Responder struct {
	mu       sync.Mutex
	replies  []command.Reply
	edits    []command.Reply
	deferred bool
	replied  bool

	// Err is returned from every call when set.
	Err error
	// Ping is returned from Latency.
	Ping time.Duration
}

var _ command.Responder = (*Responder)(nil)

func (r *Responder) Reply(_ context.Context, rep command.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.replies = append(r.replies, rep)
	r.replied = true
	return nil
}

func (r *Responder) Defer(context.Context, bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.deferred = true
	r.replied = true
	return nil
}

func (r *Responder) Edit(_ context.Context, rep command.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.edits = append(r.edits, rep)
	return nil
}

func (r *Responder) Replied() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replied
}

func (r *Responder) Latency() time.Duration {
	return r.Ping
}

// Replies returns a copy of the initial replies.
func (r *Responder) Replies() []command.Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]command.Reply(nil), r.replies...)
}

// Edits returns a copy of the edits.
func (r *Responder) Edits() []command.Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]command.Reply(nil), r.edits...)
}

// Deferred reports whether Defer was called.
func (r *Responder) Deferred() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deferred
}

// Last returns the most recent reply or edit.
func (r *Responder) Last() (command.Reply, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.edits); n > 0 {
		return r.edits[n-1], true
	}
	if n := len(r.replies); n > 0 {
		return r.replies[n-1], true
	}
	return command.Reply{}, false
}
