package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/auditbot/core/alert"
	"github.com/dmitrymomot/auditbot/core/logger"
	"github.com/dmitrymomot/auditbot/core/metrics"
)

// ErrorWindow is the trailing window used for the error rate.
const ErrorWindow = time.Hour

// Metrics is the subset of the metrics collector read by the monitor.
type Metrics interface {
	Counter(name string) int64
	ErrorsInWindow(ctx context.Context, window time.Duration) (int, error)
}

// Monitor computes health snapshots and raises alerts.
type Monitor struct {
	probe           func(context.Context) error
	metrics         Metrics
	alerter         alert.Alerter
	logger          *slog.Logger
	now             func() time.Time
	memory          func(context.Context) Memory
	thresholds      Thresholds
	startedAt       time.Time
	production      bool
	alertOnDegraded bool

	mu   sync.RWMutex
	last *Snapshot
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithProbe sets the shared store ping used to measure latency.
func WithProbe(fn func(context.Context) error) Option {
	return func(m *Monitor) {
		m.probe = fn
	}
}

// WithMetrics sets the counter and error source.
func WithMetrics(mt Metrics) Option {
	return func(m *Monitor) {
		m.metrics = mt
	}
}

// WithAlerter sets the alert sink for non-healthy ticks in production.
func WithAlerter(a alert.Alerter) Option {
	return func(m *Monitor) {
		if a != nil {
			m.alerter = a
		}
	}
}

// WithLogger sets the monitor logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// WithMemoryReader replaces ReadMemory.
func WithMemoryReader(fn func(context.Context) Memory) Option {
	return func(m *Monitor) {
		if fn != nil {
			m.memory = fn
		}
	}
}

// WithThresholds overrides DefaultThresholds.
func WithThresholds(t Thresholds) Option {
	return func(m *Monitor) {
		m.thresholds = t
	}
}

// WithStartTime sets the instant uptime is measured from.
func WithStartTime(t time.Time) Option {
	return func(m *Monitor) {
		m.startedAt = t
	}
}

// WithProduction enables alert delivery.
func WithProduction(enabled bool) Option {
	return func(m *Monitor) {
		m.production = enabled
	}
}

// WithAlertOnDegraded also alerts on degraded snapshots.
func WithAlertOnDegraded(enabled bool) Option {
	return func(m *Monitor) {
		m.alertOnDegraded = enabled
	}
}

// NewMonitor creates a Monitor.
func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{
		alerter:    alert.Nop{},
		logger:     logger.Discard(),
		now:        time.Now,
		memory:     ReadMemory,
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.startedAt.IsZero() {
		m.startedAt = m.now()
	}
	return m
}

// Check computes a fresh snapshot. Probe and metrics failures are logged;
// a failed probe counts as zero latency.
func (m *Monitor) Check(ctx context.Context) Snapshot {
	var latency time.Duration
	if m.probe != nil {
		start := m.now()
		if err := m.probe(ctx); err != nil {
			m.logger.ErrorContext(ctx, "Health check failed",
				logger.Component("health"),
				logger.Error(err))
		} else {
			latency = m.now().Sub(start)
		}
	}

	var errCount int
	var guilds, commands int64
	if m.metrics != nil {
		n, err := m.metrics.ErrorsInWindow(ctx, ErrorWindow)
		if err != nil {
			m.logger.ErrorContext(ctx, "Health check failed",
				logger.Component("health"),
				logger.Error(err))
		}
		errCount = n
		guilds = m.metrics.Counter(metrics.CounterGuilds)
		commands = m.metrics.Counter(metrics.CounterCommandsTotal)
	}

	mem := m.memory(ctx)
	now := m.now()

	s := Snapshot{
		Status:           Classify(m.thresholds, latency, mem.HeapAlloc, errCount),
		Timestamp:        now,
		Uptime:           now.Sub(m.startedAt),
		Latency:          latency,
		Memory:           mem,
		GuildCount:       guilds,
		CommandsExecuted: commands,
		ErrorsInLastHour: errCount,
	}

	m.mu.Lock()
	m.last = &s
	m.mu.Unlock()

	return s
}

// Last returns the most recent snapshot, if any.
func (m *Monitor) Last() (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return Snapshot{}, false
	}
	return *m.last, true
}

// Uptime returns the time elapsed since the monitor started.
func (m *Monitor) Uptime() time.Duration {
	return m.now().Sub(m.startedAt)
}

// Tick is the periodic health task. Non-healthy snapshots are logged at warn;
// in production unhealthy ones (and degraded ones with WithAlertOnDegraded)
// are sent to the alerter.
func (m *Monitor) Tick(ctx context.Context) error {
	s := m.Check(ctx)
	if s.Status == StatusHealthy {
		m.logger.DebugContext(ctx, "health check passed",
			logger.Component("health"),
			logger.Latency(s.Latency))
		return nil
	}

	m.logger.WarnContext(ctx, "Bot health degraded",
		logger.Component("health"),
		logger.Status(string(s.Status)),
		logger.Latency(s.Latency),
		slog.Int("errors_last_hour", s.ErrorsInLastHour),
		slog.Int64("heap_mb", s.Memory.HeapMB()))

	if !m.production {
		return nil
	}
	if s.Status == StatusDegraded && !m.alertOnDegraded {
		return nil
	}

	level := alert.LevelWarning
	if s.Status == StatusUnhealthy {
		level = alert.LevelError
	}
	if err := m.alerter.SendAlert(ctx, s.Summary(), level); err != nil {
		m.logger.ErrorContext(ctx, "Failed to send health alert",
			logger.Component("health"),
			logger.Error(err))
	}
	return nil
}
