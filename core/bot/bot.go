package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/auditbot/core/alert"
	"github.com/dmitrymomot/auditbot/core/command"
	"github.com/dmitrymomot/auditbot/core/command/builtin"
	"github.com/dmitrymomot/auditbot/core/health"
	"github.com/dmitrymomot/auditbot/core/logger"
	"github.com/dmitrymomot/auditbot/core/metrics"
	"github.com/dmitrymomot/auditbot/core/scheduler"
	"github.com/dmitrymomot/auditbot/pkg/ratelimiter"
)

// Scheduled task names.
const (
	TaskHealth         = "health"
	TaskMetricsCleanup = "metrics-cleanup"
	TaskLimiterCleanup = "ratelimit-cleanup"
)

// State is the lifecycle state of a Bot.
type State int32

const (
	StateUninitialized State = iota
	StateStopped
	StateStarting
	StateReady
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return "uninitialized"
	}
}

// Bot owns the gateway connection and everything driven by it.
type Bot struct {
	cfg     Config
	gw      Gateway
	logger  *slog.Logger
	now     func() time.Time
	alerter alert.Alerter
	probe   func(context.Context) error

	metrics    *metrics.Collector
	limiter    command.Checker
	memStore   *ratelimiter.MemoryStore
	monitor    *health.Monitor
	healthOpts []health.Option
	registry   *command.Registry
	dispatcher *command.Dispatcher
	scheduler  *scheduler.Scheduler
	handlers   map[EventKind]func(context.Context, Event)

	mu       sync.Mutex
	state    State
	opened   bool
	stopping bool
	inflight sync.WaitGroup

	// presenceMu orders presence updates so the shutdown text is never overwritten.
	presenceMu sync.Mutex

	tasksOnce sync.Once
	stopOnce  sync.Once
	closeOnce sync.Once
	stopErr   error
	fatal     chan error
}

// Option configures a Bot.
type Option func(*Bot)

// WithLogger sets the bot logger. Collaborators built by New derive from it.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bot) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetrics replaces the default in-memory collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(b *Bot) {
		b.metrics = c
	}
}

// WithRateLimiter replaces the default in-memory limiter.
func WithRateLimiter(l command.Checker) Option {
	return func(b *Bot) {
		b.limiter = l
	}
}

// WithAlerter sets the alert sink shared by the health task and alert commands.
func WithAlerter(a alert.Alerter) Option {
	return func(b *Bot) {
		if a != nil {
			b.alerter = a
		}
	}
}

// WithProbe sets the shared store ping used for health latency.
func WithProbe(fn func(context.Context) error) Option {
	return func(b *Bot) {
		b.probe = fn
	}
}

// WithHealthOptions passes extra options to the health monitor.
func WithHealthOptions(opts ...health.Option) Option {
	return func(b *Bot) {
		b.healthOpts = append(b.healthOpts, opts...)
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Bot) {
		if now != nil {
			b.now = now
		}
	}
}

// New validates cfg and wires the bot around gw. The bot is Stopped until Start.
func New(cfg Config, gw Gateway, opts ...Option) (*Bot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if gw == nil {
		return nil, ErrNilGateway
	}

	b := &Bot{
		cfg:     cfg.withDefaults(),
		gw:      gw,
		logger:  logger.Discard(),
		now:     time.Now,
		alerter: alert.Nop{},
		fatal:   make(chan error, 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(logger.Component("bot"))

	if err := b.wire(); err != nil {
		return nil, err
	}
	b.handlers = b.eventTable()
	b.state = StateStopped

	return b, nil
}

func (b *Bot) wire() error {
	if b.metrics == nil {
		c, err := metrics.New(metrics.NewMemoryLog(),
			metrics.WithLogger(b.logger),
			metrics.WithClock(b.now))
		if err != nil {
			return fmt.Errorf("bot: metrics: %w", err)
		}
		b.metrics = c
	}

	if b.limiter == nil {
		b.memStore = ratelimiter.NewMemoryStore(
			ratelimiter.WithMemoryStoreLogger(b.logger),
			ratelimiter.WithMemoryStoreClock(b.now))
		l, err := ratelimiter.New(b.memStore,
			ratelimiter.WithConfig(b.cfg.RateLimit),
			ratelimiter.WithLogger(b.logger),
			ratelimiter.WithClock(b.now))
		if err != nil {
			return &ConfigurationError{Field: "RATE_LIMIT", Message: err.Error()}
		}
		b.limiter = l
	}

	b.monitor = health.NewMonitor(append([]health.Option{
		health.WithProbe(b.probe),
		health.WithMetrics(b.metrics),
		health.WithAlerter(b.alerter),
		health.WithLogger(b.logger),
		health.WithClock(b.now),
		health.WithProduction(b.cfg.IsProduction()),
		health.WithAlertOnDegraded(b.cfg.AlertOnDegraded),
	}, b.healthOpts...)...)

	reg, err := builtin.NewRegistry(
		builtin.WithStatusProvider(b),
		builtin.WithAlerter(b.alerter),
		builtin.WithLogger(b.logger),
		builtin.WithClock(b.now))
	if err != nil {
		return fmt.Errorf("bot: commands: %w", err)
	}
	b.registry = reg

	b.dispatcher = command.NewDispatcher(reg,
		command.WithLogger(b.logger),
		command.WithRecorder(b.metrics),
		command.WithClock(b.now),
		command.WithMiddleware(
			command.RateLimitMiddleware(b.limiter, b.logger),
			command.LoggingMiddleware(b.logger),
		))

	b.scheduler = scheduler.New(
		scheduler.WithLogger(b.logger),
		scheduler.WithClock(b.now),
		scheduler.WithShutdownTimeout(b.cfg.ShutdownGrace))

	if err := b.scheduler.Every(TaskHealth, b.cfg.HealthInterval, b.monitor.Tick); err != nil {
		return err
	}
	if err := b.scheduler.Every(TaskMetricsCleanup, b.cfg.CleanupInterval, b.metrics.Cleanup); err != nil {
		return err
	}
	if b.memStore != nil {
		err := b.scheduler.Every(TaskLimiterCleanup, b.cfg.RateLimit.Window, func(context.Context) error {
			b.memStore.RemoveExpired()
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Config returns a copy of the bot configuration.
func (b *Bot) Config() Config {
	return b.cfg
}

// State returns the current lifecycle state.
func (b *Bot) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsReady reports whether the gateway signalled ready and the bot is not shutting down.
func (b *Bot) IsReady() bool {
	return b.State() == StateReady
}

func (b *Bot) Logger() *slog.Logger {
	return b.logger
}

func (b *Bot) Metrics() *metrics.Collector {
	return b.metrics
}

// Commands returns the immutable command registry.
func (b *Bot) Commands() *command.Registry {
	return b.registry
}

// Scheduler exposes the periodic task runner for stats and health checks.
func (b *Bot) Scheduler() *scheduler.Scheduler {
	return b.scheduler
}

// Dispatcher returns the command dispatcher.
func (b *Bot) Dispatcher() *command.Dispatcher {
	return b.dispatcher
}

// HealthStatus computes a fresh health snapshot.
func (b *Bot) HealthStatus(ctx context.Context) health.Snapshot {
	return b.monitor.Check(ctx)
}

// Check implements health.Checker.
func (b *Bot) Check(ctx context.Context) health.Snapshot {
	return b.HealthStatus(ctx)
}

// Stats summarises bot activity from the metrics counters.
func (b *Bot) Stats(ctx context.Context) health.BotStats {
	return health.BotStats{
		GuildCount:   b.metrics.Counter(metrics.CounterGuilds),
		UserCount:    b.metrics.Counter(metrics.CounterUsers),
		CommandCount: b.metrics.Counter(metrics.CounterCommandsTotal),
		Uptime:       b.monitor.Uptime(),
		Memory:       health.ReadMemory(ctx),
	}
}

// Ready reports an error unless the bot is connected. Suitable for readiness probes.
func (b *Bot) Ready(context.Context) error {
	if !b.IsReady() {
		return fmt.Errorf("bot is %s", b.State())
	}
	return nil
}
