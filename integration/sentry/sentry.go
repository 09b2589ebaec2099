package sentry

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	sentrygo "github.com/getsentry/sentry-go"
)

// ErrInvalidConfig is returned when the client cannot be built from Config.
var ErrInvalidConfig = errors.New("invalid sentry configuration")

// Config holds error tracking settings. An empty DSN disables tracking.
type Config struct {
	DSN          string        `env:"SENTRY_DSN"`
	Environment  string        `env:"APP_ENV" envDefault:"development"`
	Release      string        `env:"SENTRY_RELEASE"`
	SampleRate   float64       `env:"SENTRY_SAMPLE_RATE" envDefault:"1.0"`
	FlushTimeout time.Duration `env:"SENTRY_FLUSH_TIMEOUT" envDefault:"2s"`
	Debug        bool          `env:"SENTRY_DEBUG" envDefault:"false"`
}

// Tracker reports exceptions, messages and breadcrumbs to Sentry.
// It implements logger.Reporter and metrics.Breadcrumber.
// A zero-value or disabled Tracker drops everything.
type Tracker struct {
	hub          *sentrygo.Hub
	flushTimeout time.Duration
}

// Option configures a Tracker.
type Option func(*sentrygo.ClientOptions)

// WithTransport replaces the HTTP transport. Tests use it to capture events.
func WithTransport(t sentrygo.Transport) Option {
	return func(o *sentrygo.ClientOptions) {
		o.Transport = t
	}
}

// WithServerName sets the server_name reported with every event.
func WithServerName(name string) Option {
	return func(o *sentrygo.ClientOptions) {
		o.ServerName = name
	}
}

// New creates a Tracker. With an empty DSN it returns a disabled tracker.
func New(cfg Config, opts ...Option) (*Tracker, error) {
	flush := cfg.FlushTimeout
	if flush <= 0 {
		flush = 2 * time.Second
	}
	if cfg.DSN == "" {
		return &Tracker{flushTimeout: flush}, nil
	}

	co := sentrygo.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       cfg.SampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	}
	for _, opt := range opts {
		opt(&co)
	}

	client, err := sentrygo.NewClient(co)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, fmt.Errorf("sentry client: %w", err))
	}

	return &Tracker{
		hub:          sentrygo.NewHub(client, sentrygo.NewScope()),
		flushTimeout: flush,
	}, nil
}

// Enabled reports whether events are delivered anywhere.
func (t *Tracker) Enabled() bool {
	return t != nil && t.hub != nil
}

// CaptureException reports err with tags and extra context.
func (t *Tracker) CaptureException(err error, tags map[string]string, extra map[string]any) {
	if !t.Enabled() || err == nil {
		return
	}
	t.hub.WithScope(func(scope *sentrygo.Scope) {
		scope.SetTags(tags)
		if len(extra) > 0 {
			scope.SetContext("extra", extra)
		}
		t.hub.CaptureException(err)
	})
}

// CaptureMessage reports a message at level.
func (t *Tracker) CaptureMessage(message string, level slog.Level, extra map[string]any) {
	if !t.Enabled() {
		return
	}
	t.hub.WithScope(func(scope *sentrygo.Scope) {
		scope.SetLevel(Level(level))
		if len(extra) > 0 {
			scope.SetContext("extra", extra)
		}
		t.hub.CaptureMessage(message)
	})
}

// AddBreadcrumb appends to the trail attached to later events.
func (t *Tracker) AddBreadcrumb(category, message string, level slog.Level, data map[string]any) {
	if !t.Enabled() {
		return
	}
	t.hub.AddBreadcrumb(&sentrygo.Breadcrumb{
		Category:  category,
		Message:   message,
		Level:     Level(level),
		Data:      data,
		Timestamp: time.Now(),
	}, nil)
}

// Flush waits for buffered events up to the flush timeout.
func (t *Tracker) Flush() bool {
	if !t.Enabled() {
		return true
	}
	return t.hub.Flush(t.flushTimeout)
}

// Close flushes pending events.
func (t *Tracker) Close() error {
	if !t.Flush() {
		return fmt.Errorf("sentry: flush timed out after %s", t.flushTimeout)
	}
	return nil
}

// Level maps a slog level to a Sentry level.
func Level(l slog.Level) sentrygo.Level {
	switch {
	case l >= slog.LevelError+4:
		return sentrygo.LevelFatal
	case l >= slog.LevelError:
		return sentrygo.LevelError
	case l >= slog.LevelWarn:
		return sentrygo.LevelWarning
	case l >= slog.LevelInfo:
		return sentrygo.LevelInfo
	default:
		return sentrygo.LevelDebug
	}
}
