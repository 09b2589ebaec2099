package sentry_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	sentrygo "github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/auditbot/integration/sentry"
)

type captureTransport struct {
	mu     sync.Mutex
	events []*sentrygo.Event
}

func (c *captureTransport) Configure(sentrygo.ClientOptions) {}
func (c *captureTransport) Flush(time.Duration) bool         { return true }
func (c *captureTransport) FlushWithContext(context.Context) bool {
	return true
}
func (c *captureTransport) Close() {}

func (c *captureTransport) SendEvent(e *sentrygo.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureTransport) all() []*sentrygo.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*sentrygo.Event(nil), c.events...)
}

func newTracker(t *testing.T) (*sentry.Tracker, *captureTransport) {
	t.Helper()
	tr := &captureTransport{}
	tracker, err := sentry.New(sentry.Config{
		DSN:         "https://public@example.com/1",
		Environment: "test",
		SampleRate:  1.0,
	}, sentry.WithTransport(tr))
	require.NoError(t, err)
	require.True(t, tracker.Enabled())
	return tracker, tr
}

func TestTracker_CaptureException(t *testing.T) {
	t.Parallel()

	tracker, tr := newTracker(t)
	tracker.CaptureException(errors.New("gateway closed"),
		map[string]string{"component": "bot"},
		map[string]any{"message": "Discord client error"})

	events := tr.all()
	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, "bot", e.Tags["component"])
	require.NotEmpty(t, e.Exception)
	assert.Equal(t, "gateway closed", e.Exception[len(e.Exception)-1].Value)
	assert.Equal(t, "Discord client error", e.Contexts["extra"]["message"])
	assert.Equal(t, "test", e.Environment)
}

func TestTracker_CaptureMessage(t *testing.T) {
	t.Parallel()

	tracker, tr := newTracker(t)
	tracker.AddBreadcrumb("discord.command", "Discord command executed: ping", slog.LevelInfo,
		map[string]any{"commandName": "ping"})
	tracker.CaptureMessage("Rate limit hit", slog.LevelWarn, nil)

	events := tr.all()
	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, "Rate limit hit", e.Message)
	assert.Equal(t, sentrygo.LevelWarning, e.Level)
	require.Len(t, e.Breadcrumbs, 1)
	assert.Equal(t, "discord.command", e.Breadcrumbs[0].Category)
	assert.Equal(t, sentrygo.LevelInfo, e.Breadcrumbs[0].Level)
}

func TestTracker_Disabled(t *testing.T) {
	t.Parallel()

	tracker, err := sentry.New(sentry.Config{})
	require.NoError(t, err)
	assert.False(t, tracker.Enabled())

	assert.NotPanics(t, func() {
		tracker.CaptureException(errors.New("x"), nil, nil)
		tracker.CaptureMessage("x", slog.LevelError, nil)
		tracker.AddBreadcrumb("c", "m", slog.LevelInfo, nil)
	})
	assert.NoError(t, tracker.Close())

	var zero *sentry.Tracker
	assert.False(t, zero.Enabled())
}

func TestNew_InvalidDSN(t *testing.T) {
	t.Parallel()

	_, err := sentry.New(sentry.Config{DSN: "not a dsn"})
	assert.ErrorIs(t, err, sentry.ErrInvalidConfig)
}

func TestLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, sentrygo.LevelDebug, sentry.Level(slog.LevelDebug))
	assert.Equal(t, sentrygo.LevelInfo, sentry.Level(slog.LevelInfo))
	assert.Equal(t, sentrygo.LevelWarning, sentry.Level(slog.LevelWarn))
	assert.Equal(t, sentrygo.LevelError, sentry.Level(slog.LevelError))
}
