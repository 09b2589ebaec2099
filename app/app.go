package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/auditbot/core/alert"
	"github.com/dmitrymomot/auditbot/core/bot"
	"github.com/dmitrymomot/auditbot/core/config"
	"github.com/dmitrymomot/auditbot/core/health"
	"github.com/dmitrymomot/auditbot/core/logger"
	"github.com/dmitrymomot/auditbot/core/metrics"
	"github.com/dmitrymomot/auditbot/core/server"
	"github.com/dmitrymomot/auditbot/integration/database/redis"
	"github.com/dmitrymomot/auditbot/integration/discord"
	"github.com/dmitrymomot/auditbot/integration/sentry"
	"github.com/dmitrymomot/auditbot/pkg/ratelimiter"
)

// ErrUnknownStore is returned for an unsupported BOT_STORE value.
var ErrUnknownStore = errors.New("app: unknown store backend")

// App wires configuration, logging, error tracking, storage, the Discord
// gateway and the bot into one runnable process.
type App struct {
	config   Config
	logger   *slog.Logger
	tracker  *sentry.Tracker
	redis    *goredis.Client
	registry *prometheus.Registry
	gateway  bot.Gateway
	alerter  alert.Alerter
	bot      *bot.Bot
	server   *server.Server
}

// AppOption customises an App before its components are built.
type AppOption func(*App) error

// WithConfig replaces the configuration loaded from the environment.
func WithConfig(cfg Config) AppOption {
	return func(a *App) error {
		a.config = cfg
		return nil
	}
}

// WithLogger replaces the logger built from configuration.
func WithLogger(l *slog.Logger) AppOption {
	return func(a *App) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		a.logger = l
		return nil
	}
}

// WithGateway replaces the Discord gateway.
func WithGateway(gw bot.Gateway) AppOption {
	return func(a *App) error {
		if gw == nil {
			return errors.New("gateway cannot be nil")
		}
		a.gateway = gw
		return nil
	}
}

// WithAlerter replaces the webhook alerter.
func WithAlerter(al alert.Alerter) AppOption {
	return func(a *App) error {
		if al == nil {
			return errors.New("alerter cannot be nil")
		}
		a.alerter = al
		return nil
	}
}

// WithRedis uses an existing client instead of connecting.
func WithRedis(c *goredis.Client) AppOption {
	return func(a *App) error {
		if c == nil {
			return errors.New("redis client cannot be nil")
		}
		a.redis = c
		return nil
	}
}

// NewApp loads configuration and builds every component. The process-wide
// bot instance is installed through bot.Init.
func NewApp(ctx context.Context, opts ...AppOption) (*App, error) {
	a := &App{}
	if err := config.Load(&a.config); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if err := a.config.Bot.Validate(); err != nil {
		return nil, err
	}

	if err := a.build(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.config

	tracker, err := sentry.New(cfg.Sentry, sentry.WithServerName(cfg.AppName))
	if err != nil {
		return err
	}
	a.tracker = tracker

	if a.logger == nil {
		a.logger = newLogger(cfg, tracker)
	}
	logger.SetAsDefault(a.logger)

	if cfg.Bot.EnableMetrics {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	botOpts := []bot.Option{bot.WithLogger(a.logger)}

	metricOpts := []metrics.Option{
		metrics.WithLogger(a.logger),
		metrics.WithBreadcrumbs(tracker),
	}
	if a.registry != nil {
		metricOpts = append(metricOpts, metrics.WithRegisterer(a.registry))
	}

	switch cfg.Store {
	case StoreRedis:
		if a.redis == nil {
			client, err := redis.Connect(ctx, cfg.Redis)
			if err != nil {
				return fmt.Errorf("app: redis: %w", err)
			}
			a.redis = client
		}

		collector, err := metrics.New(metrics.NewRedisLog(a.redis), metricOpts...)
		if err != nil {
			return err
		}
		limiter, err := ratelimiter.New(ratelimiter.NewRedisStore(a.redis),
			ratelimiter.WithConfig(cfg.Bot.RateLimit),
			ratelimiter.WithLogger(a.logger))
		if err != nil {
			return err
		}
		botOpts = append(botOpts,
			bot.WithMetrics(collector),
			bot.WithRateLimiter(limiter),
			bot.WithProbe(redis.Healthcheck(a.redis)))
	case StoreMemory:
		collector, err := metrics.New(metrics.NewMemoryLog(), metricOpts...)
		if err != nil {
			return err
		}
		botOpts = append(botOpts, bot.WithMetrics(collector))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Store)
	}

	if a.alerter == nil {
		a.alerter = alert.Nop{}
		if cfg.Webhook.URL != "" {
			wh, err := discord.NewWebhook(cfg.Webhook, discord.WithWebhookLogger(a.logger))
			if err != nil {
				return err
			}
			a.alerter = wh
		}
	}
	botOpts = append(botOpts, bot.WithAlerter(a.alerter))

	if a.gateway == nil {
		gw, err := discord.New(cfg.Bot.Token, cfg.Bot.AppID, discord.WithLogger(a.logger))
		if err != nil {
			return err
		}
		a.gateway = gw
	}

	b, err := bot.Init(cfg.Bot, a.gateway, botOpts...)
	if err != nil {
		return err
	}
	a.bot = b

	if cfg.Server.Enabled() {
		srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(a.logger))
		if err != nil {
			return err
		}
		a.server = srv
	}

	return nil
}

func newLogger(cfg Config, tracker *sentry.Tracker) *slog.Logger {
	opts := []logger.Option{logger.WithDevelopment(cfg.AppName)}
	if cfg.Bot.IsProduction() {
		opts = []logger.Option{logger.WithProduction(cfg.AppName)}
	}
	opts = append(opts, logger.WithLevel(logger.ParseLevel(cfg.Bot.ResolvedLogLevel())))
	if tracker != nil && tracker.Enabled() {
		opts = append(opts, logger.WithReporter(tracker))
	}
	return logger.New(opts...)
}

// Bot returns the bot.
func (a *App) Bot() *bot.Bot {
	return a.bot
}

// Logger returns the process logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Run runs the bot and, when configured, the status server until the bot
// stops. A signal or a fatal bot error stops both.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return a.bot.Run(gctx)
	})

	if a.server != nil {
		g.Go(a.server.Run(gctx, a.HealthHandler()))
	}

	return g.Wait()
}

// HealthHandler serves liveness, readiness, the health snapshot and, with
// metrics enabled, /metrics. Readiness requires a ready bot with its
// scheduled tasks running and, when configured, a reachable Redis.
func (a *App) HealthHandler() http.Handler {
	var gatherer prometheus.Gatherer
	if a.registry != nil {
		gatherer = a.registry
	}
	checks := []func(context.Context) error{a.bot.Ready, a.bot.Scheduler().Healthcheck}
	if a.redis != nil {
		checks = append(checks, redis.Healthcheck(a.redis))
	}
	return health.NewHandler(a.logger, a.bot, gatherer, checks...)
}

// Close releases the store connection and flushes the error tracker.
func (a *App) Close() error {
	var errs []error
	if a.bot != nil {
		errs = append(errs, bot.Reset(context.Background()))
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.tracker != nil {
		errs = append(errs, a.tracker.Close())
	}
	return errors.Join(errs...)
}
