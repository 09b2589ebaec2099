package metrics

import (
	"context"
	"log/slog"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/auditbot/core/logger"
)

const (
	DefaultMaxEntries = 1000
	DefaultRetention  = 7 * 24 * time.Hour
	DefaultTopN       = 10
)

// Counter names maintained by the collector.
const (
	CounterCommandsTotal  = "commands:total"
	CounterCommandsFailed = "commands:failed"
	CounterGuilds         = "guilds"
	CounterGuildsJoined   = "guilds_joined"
	CounterGuildsLeft     = "guilds_left"
	CounterUsers          = "users"
)

// CommandCounter returns the per-command counter name.
func CommandCounter(name string) string {
	return "command:" + name + ":total"
}

// Breadcrumber receives a trail entry for every recorded execution.
type Breadcrumber interface {
	AddBreadcrumb(category, message string, level slog.Level, data map[string]any)
}

// Collector keeps process-local counters and writes executions to a Log.
type Collector struct {
	mu       sync.Mutex
	counters map[string]int64

	log        Log
	logger     *slog.Logger
	crumbs     Breadcrumber
	registerer prometheus.Registerer
	now        func() time.Time
	maxEntries int
	retention  time.Duration

	promCounters *prometheus.CounterVec
	promDuration *prometheus.HistogramVec
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger used for store failures and cleanup reports.
func WithLogger(l *slog.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBreadcrumbs forwards each recorded execution to b.
func WithBreadcrumbs(b Breadcrumber) Option {
	return func(c *Collector) {
		c.crumbs = b
	}
}

// WithRegisterer mirrors counters and execution times into Prometheus.
// Without it no Prometheus collectors are created.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(c *Collector) {
		c.registerer = r
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMaxEntries bounds the execution log.
func WithMaxEntries(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithRetention sets the age after which Cleanup purges records.
func WithRetention(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.retention = d
		}
	}
}

// New creates a Collector writing to log.
func New(log Log, opts ...Option) (*Collector, error) {
	if log == nil {
		return nil, ErrNilLog
	}

	c := &Collector{
		counters:   make(map[string]int64),
		log:        log,
		logger:     logger.Discard(),
		now:        time.Now,
		maxEntries: DefaultMaxEntries,
		retention:  DefaultRetention,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.registerer != nil {
		if err := c.registerPrometheus(); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Increment adds value to the named counter.
func (c *Collector) Increment(name string, value int64) {
	c.mu.Lock()
	c.counters[name] += value
	c.mu.Unlock()

	if c.promCounters != nil && value > 0 {
		c.promCounters.WithLabelValues(name).Add(float64(value))
	}
}

// Counter returns the named counter, zero if never incremented.
func (c *Collector) Counter(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[name]
}

// Snapshot returns a copy of all counters.
func (c *Collector) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.counters)
}

// ResetCounters clears the process-local counters. Prometheus counters are monotonic and left as is.
func (c *Collector) ResetCounters() {
	c.mu.Lock()
	clear(c.counters)
	c.mu.Unlock()
}

// RecordCommandExecution appends rec to the log and updates counters.
// Log failures are logged, never returned.
func (c *Collector) RecordCommandExecution(ctx context.Context, rec ExecutionRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = c.now()
	}
	if rec.GuildID == "" {
		rec.GuildID = DirectMessageScope
	}

	if err := c.log.Append(ctx, rec, c.maxEntries); err != nil {
		c.logger.ErrorContext(ctx, "Failed to record command execution",
			logger.Component("metrics"),
			logger.Command(rec.CommandName),
			logger.Error(err))
	}

	c.Increment(CommandCounter(rec.CommandName), 1)
	c.Increment(CounterCommandsTotal, 1)
	if !rec.Success {
		c.Increment(CounterCommandsFailed, 1)
	}

	if c.promDuration != nil {
		c.promDuration.WithLabelValues(rec.CommandName, outcome(rec.Success)).
			Observe(float64(rec.ExecutionTimeMs) / 1000)
	}

	if c.crumbs != nil {
		level := slog.LevelInfo
		if !rec.Success {
			level = slog.LevelError
		}
		c.crumbs.AddBreadcrumb("discord.command", "Discord command executed: "+rec.CommandName, level, map[string]any{
			"commandName":   rec.CommandName,
			"userId":        rec.UserID,
			"guildId":       rec.GuildID,
			"executionTime": rec.ExecutionTimeMs,
			"success":       rec.Success,
		})
	}
}

// CommandStats aggregates records from the trailing window.
func (c *Collector) CommandStats(ctx context.Context, window time.Duration) (CommandStats, error) {
	now := c.now()
	records, err := c.log.Between(ctx, now.Add(-window), now)
	if err != nil {
		return CommandStats{Window: window}, err
	}
	return Aggregate(records, window, DefaultTopN), nil
}

// ErrorsInWindow returns the number of failed executions in the trailing window.
func (c *Collector) ErrorsInWindow(ctx context.Context, window time.Duration) (int, error) {
	stats, err := c.CommandStats(ctx, window)
	if err != nil {
		return 0, err
	}
	return stats.FailedCommands, nil
}

// Cleanup purges records older than the retention period.
func (c *Collector) Cleanup(ctx context.Context) error {
	removed, err := c.log.PurgeBefore(ctx, c.now().Add(-c.retention))
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to cleanup old metrics",
			logger.Component("metrics"),
			logger.Error(err))
		return err
	}

	c.logger.InfoContext(ctx, "Cleaned up old metrics",
		logger.Component("metrics"),
		logger.Count("removed", removed))
	return nil
}

// Aggregate computes statistics over records. topN <= 0 keeps every command.
func Aggregate(records []ExecutionRecord, window time.Duration, topN int) CommandStats {
	stats := CommandStats{
		Window:        window,
		TotalCommands: len(records),
		TopCommands:   []CommandCount{},
		Errors:        []string{},
	}

	var totalMs int64
	counts := make(map[string]int)
	for _, r := range records {
		if r.Success {
			stats.SuccessfulCommands++
		} else {
			stats.FailedCommands++
			if r.Error != "" {
				stats.Errors = append(stats.Errors, r.Error)
			}
		}
		totalMs += r.ExecutionTimeMs
		counts[r.CommandName]++
	}

	if stats.TotalCommands > 0 {
		stats.AverageExecutionTimeMs = float64(totalMs) / float64(stats.TotalCommands)
	}

	for name, n := range counts {
		stats.TopCommands = append(stats.TopCommands, CommandCount{Name: name, Count: n})
	}
	sort.Slice(stats.TopCommands, func(i, j int) bool {
		a, b := stats.TopCommands[i], stats.TopCommands[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	if topN > 0 && len(stats.TopCommands) > topN {
		stats.TopCommands = stats.TopCommands[:topN]
	}

	return stats
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
