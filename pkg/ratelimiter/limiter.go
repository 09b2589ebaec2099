package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/auditbot/core/logger"
)

// Result reports the outcome of a single check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// FailOpen is set when the store failed and the request was let through.
	FailOpen bool
}

// RetryAfter returns how long the caller should wait before retrying.
// Zero when the request was allowed.
func (r Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}

// Limiter implements sliding window admission control on top of a Store.
// It fails open: any store error results in an allowed request.
type Limiter struct {
	store  Store
	config Config
	prefix string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithConfig overrides the default 10 requests per minute policy.
func WithConfig(cfg Config) Option {
	return func(l *Limiter) {
		l.config = cfg
	}
}

// WithKeyPrefix sets the prefix prepended to every subject.
func WithKeyPrefix(prefix string) Option {
	return func(l *Limiter) {
		l.prefix = prefix
	}
}

// WithClock replaces time.Now. Tests use it to pin the window.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the logger used to report store failures.
func WithLogger(log *slog.Logger) Option {
	return func(l *Limiter) {
		if log != nil {
			l.logger = log
		}
	}
}

// New creates a Limiter backed by store.
func New(store Store, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, ErrStoreUnavailable
	}

	l := &Limiter{
		store:  store,
		config: DefaultConfig(),
		prefix: DefaultKeyPrefix,
		now:    time.Now,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.config.Validate(); err != nil {
		return nil, err
	}

	return l, nil
}

// Config returns the limiter's default policy.
func (l *Limiter) Config() Config {
	return l.config
}

// Check applies the default policy to subject.
func (l *Limiter) Check(ctx context.Context, subject string) Result {
	return l.CheckWith(ctx, subject, l.config.Window, l.config.MaxRequests)
}

// CheckWith applies an explicit window and limit to subject.
// Invalid parameters fall back to the limiter's default policy.
func (l *Limiter) CheckWith(ctx context.Context, subject string, window time.Duration, limit int) Result {
	if window <= 0 {
		window = l.config.Window
	}
	if limit <= 0 {
		limit = l.config.MaxRequests
	}

	now := l.now()
	failOpen := Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - 1,
		ResetAt:   now.Add(window),
		FailOpen:  true,
	}

	if subject == "" {
		l.logger.WarnContext(ctx, "rate limit check skipped",
			logger.Component("ratelimiter"),
			logger.Error(ErrEmptySubject))
		return failOpen
	}

	d, err := l.store.Admit(ctx, l.prefix+subject, now, window, limit)
	if err != nil {
		l.logger.WarnContext(ctx, "rate limit check failed, allowing request",
			logger.Component("ratelimiter"),
			logger.Subject(subject),
			logger.Error(err))
		return failOpen
	}

	if !d.Admitted {
		resetAt := now.Add(window)
		if !d.Oldest.IsZero() {
			resetAt = d.Oldest.Add(window)
		}
		return Result{
			Allowed:   false,
			Limit:     limit,
			Remaining: 0,
			ResetAt:   resetAt,
		}
	}

	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: max(limit-d.Count-1, 0),
		ResetAt:   now.Add(window),
	}
}

// Reset clears the window for subject (administrative override).
func (l *Limiter) Reset(ctx context.Context, subject string) error {
	if subject == "" {
		return ErrEmptySubject
	}
	return l.store.Reset(ctx, l.prefix+subject)
}
