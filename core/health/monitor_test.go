package health_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/auditbot/core/alert"
	"github.com/dmitrymomot/auditbot/core/health"
	"github.com/dmitrymomot/auditbot/core/logger"
	"github.com/dmitrymomot/auditbot/core/metrics"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeMetrics struct {
	errors   int
	err      error
	counters map[string]int64
}

func (f *fakeMetrics) Counter(name string) int64 { return f.counters[name] }

func (f *fakeMetrics) ErrorsInWindow(context.Context, time.Duration) (int, error) {
	return f.errors, f.err
}

type sentAlert struct {
	message string
	level   alert.Level
}

type fakeAlerter struct {
	mu   sync.Mutex
	sent []sentAlert
	err  error
}

func (a *fakeAlerter) SendAlert(_ context.Context, msg string, level alert.Level) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, sentAlert{message: msg, level: level})
	return a.err
}

func (a *fakeAlerter) SendLeadAlert(context.Context, alert.Lead) error { return nil }

func nominalMemory(context.Context) health.Memory {
	return health.Memory{HeapAlloc: 64 << 20}
}

func newMonitor(clock *fakeClock, opts ...health.Option) *health.Monitor {
	base := []health.Option{
		health.WithClock(clock.Now),
		health.WithMemoryReader(nominalMemory),
	}
	return health.NewMonitor(append(base, opts...)...)
}

func TestMonitor_Check(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	t.Run("healthy with nominal readings", func(t *testing.T) {
		t.Parallel()
		clock := &fakeClock{now: start}
		m := newMonitor(clock,
			health.WithProbe(func(context.Context) error { clock.Advance(3 * time.Millisecond); return nil }),
			health.WithMetrics(&fakeMetrics{counters: map[string]int64{
				metrics.CounterGuilds:        2,
				metrics.CounterCommandsTotal: 40,
			}}),
		)
		clock.Advance(10 * time.Minute)

		s := m.Check(context.Background())
		assert.Equal(t, health.StatusHealthy, s.Status)
		assert.Equal(t, 3*time.Millisecond, s.Latency)
		assert.Equal(t, int64(2), s.GuildCount)
		assert.Equal(t, int64(40), s.CommandsExecuted)
		assert.Equal(t, 10*time.Minute+3*time.Millisecond, s.Uptime)

		last, ok := m.Last()
		require.True(t, ok)
		assert.Equal(t, s, last)
	})

	t.Run("slow probe is unhealthy even without errors", func(t *testing.T) {
		t.Parallel()
		clock := &fakeClock{now: start}
		m := newMonitor(clock,
			health.WithProbe(func(context.Context) error { clock.Advance(5001 * time.Millisecond); return nil }),
			health.WithMetrics(&fakeMetrics{}),
		)

		s := m.Check(context.Background())
		assert.Equal(t, health.StatusUnhealthy, s.Status)
		assert.Equal(t, 0, s.ErrorsInLastHour)
	})

	t.Run("eleven errors is degraded", func(t *testing.T) {
		t.Parallel()
		clock := &fakeClock{now: start}
		m := newMonitor(clock,
			health.WithProbe(func(context.Context) error { return nil }),
			health.WithMetrics(&fakeMetrics{errors: 11}),
		)

		s := m.Check(context.Background())
		assert.Equal(t, health.StatusDegraded, s.Status)
		assert.Equal(t, 11, s.ErrorsInLastHour)
	})

	t.Run("large heap is unhealthy", func(t *testing.T) {
		t.Parallel()
		clock := &fakeClock{now: start}
		m := newMonitor(clock, health.WithMemoryReader(func(context.Context) health.Memory {
			return health.Memory{HeapAlloc: 501 << 20}
		}))

		assert.Equal(t, health.StatusUnhealthy, m.Check(context.Background()).Status)
	})

	t.Run("failed probe counts as zero latency", func(t *testing.T) {
		t.Parallel()
		clock := &fakeClock{now: start}
		var buf bytes.Buffer
		m := newMonitor(clock,
			health.WithLogger(logger.New(logger.WithOutput(&buf))),
			health.WithProbe(func(context.Context) error {
				clock.Advance(10 * time.Second)
				return errors.New("connection refused")
			}),
		)

		s := m.Check(context.Background())
		assert.Equal(t, time.Duration(0), s.Latency)
		assert.Equal(t, health.StatusHealthy, s.Status)
		assert.Contains(t, buf.String(), "Health check failed")
	})

	t.Run("metrics failure counts as zero errors", func(t *testing.T) {
		t.Parallel()
		clock := &fakeClock{now: start}
		m := newMonitor(clock, health.WithMetrics(&fakeMetrics{errors: 0, err: errors.New("redis down")}))
		assert.Equal(t, 0, m.Check(context.Background()).ErrorsInLastHour)
	})

	t.Run("no snapshot before first check", func(t *testing.T) {
		t.Parallel()
		m := newMonitor(&fakeClock{now: start})
		_, ok := m.Last()
		assert.False(t, ok)
	})
}

func TestMonitor_Tick(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	slowProbe := func(clock *fakeClock) health.Option {
		return health.WithProbe(func(context.Context) error { clock.Advance(6 * time.Second); return nil })
	}

	t.Run("unhealthy in production alerts at error level", func(t *testing.T) {
		t.Parallel()
		clock := &fakeClock{now: start}
		a := &fakeAlerter{}
		m := newMonitor(clock, slowProbe(clock), health.WithAlerter(a), health.WithProduction(true))

		require.NoError(t, m.Tick(context.Background()))
		require.Len(t, a.sent, 1)
		assert.Equal(t, alert.LevelError, a.sent[0].level)
		assert.Contains(t, a.sent[0].message, "Bot health status: UNHEALTHY")
		assert.Contains(t, a.sent[0].message, "Latency: 6000ms")
	})

	t.Run("unhealthy outside production only logs", func(t *testing.T) {
		t.Parallel()
		clock := &fakeClock{now: start}
		a := &fakeAlerter{}
		var buf bytes.Buffer
		m := newMonitor(clock, slowProbe(clock), health.WithAlerter(a),
			health.WithLogger(logger.New(logger.WithOutput(&buf))))

		require.NoError(t, m.Tick(context.Background()))
		assert.Empty(t, a.sent)
		assert.Contains(t, buf.String(), "Bot health degraded")
	})

	t.Run("degraded alerts only when enabled", func(t *testing.T) {
		t.Parallel()
		clock := &fakeClock{now: start}
		a := &fakeAlerter{}
		m := newMonitor(clock, health.WithMetrics(&fakeMetrics{errors: 12}),
			health.WithAlerter(a), health.WithProduction(true))
		require.NoError(t, m.Tick(context.Background()))
		assert.Empty(t, a.sent)

		m = newMonitor(clock, health.WithMetrics(&fakeMetrics{errors: 12}),
			health.WithAlerter(a), health.WithProduction(true), health.WithAlertOnDegraded(true))
		require.NoError(t, m.Tick(context.Background()))
		require.Len(t, a.sent, 1)
		assert.Equal(t, alert.LevelWarning, a.sent[0].level)
	})

	t.Run("alert failure is logged", func(t *testing.T) {
		t.Parallel()
		clock := &fakeClock{now: start}
		var buf bytes.Buffer
		m := newMonitor(clock, slowProbe(clock),
			health.WithAlerter(&fakeAlerter{err: errors.New("webhook down")}),
			health.WithProduction(true),
			health.WithLogger(logger.New(logger.WithOutput(&buf))))

		require.NoError(t, m.Tick(context.Background()))
		assert.Contains(t, buf.String(), "Failed to send health alert")
	})
}
