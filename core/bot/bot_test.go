package bot_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/auditbot/core/alert"
	"github.com/dmitrymomot/auditbot/core/bot"
	"github.com/dmitrymomot/auditbot/core/command"
	"github.com/dmitrymomot/auditbot/core/command/commandtest"
	"github.com/dmitrymomot/auditbot/core/health"
	"github.com/dmitrymomot/auditbot/core/metrics"
	"github.com/dmitrymomot/auditbot/pkg/ratelimiter"
)

type fakeGateway struct {
	mu         sync.Mutex
	handler    bot.EventHandler
	opens      int
	closes     int
	presences  []string
	registered [][]command.Descriptor
	scopes     []string
	openErr    error

	// When set, Open signals entered and blocks until release is closed.
	entered chan struct{}
	release chan struct{}
}

func (g *fakeGateway) Open(_ context.Context, handle bot.EventHandler) error {
	if g.release != nil {
		close(g.entered)
		<-g.release
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.openErr != nil {
		return g.openErr
	}
	g.opens++
	g.handler = handle
	return nil
}

func (g *fakeGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closes++
	return nil
}

func (g *fakeGateway) SetPresence(_ context.Context, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.presences = append(g.presences, text)
	return nil
}

func (g *fakeGateway) RegisterCommands(_ context.Context, scopeID string, cmds []command.Descriptor) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scopes = append(g.scopes, scopeID)
	g.registered = append(g.registered, cmds)
	return nil
}

func (g *fakeGateway) Latency() time.Duration { return 42 * time.Millisecond }

func (g *fakeGateway) emit(ctx context.Context, ev bot.Event) {
	g.mu.Lock()
	h := g.handler
	g.mu.Unlock()
	h(ctx, ev)
}

func (g *fakeGateway) closeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closes
}

func (g *fakeGateway) lastPresence() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.presences) == 0 {
		return ""
	}
	return g.presences[len(g.presences)-1]
}

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (a *recordingAlerter) SendAlert(_ context.Context, msg string, _ alert.Level) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, msg)
	return nil
}

func (a *recordingAlerter) SendLeadAlert(context.Context, alert.Lead) error { return nil }

func (a *recordingAlerter) messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.alerts...)
}

type denyAll struct{}

func (denyAll) Check(context.Context, string) ratelimiter.Result {
	return ratelimiter.Result{Allowed: false, Limit: 10, ResetAt: time.Unix(1700000060, 0)}
}

func testConfig() bot.Config {
	return bot.Config{
		Token:         "token",
		AppID:         "app",
		ServerID:      "guild-1",
		ShutdownGrace: 200 * time.Millisecond,
	}
}

func newBot(t *testing.T, cfg bot.Config, opts ...bot.Option) (*bot.Bot, *fakeGateway) {
	t.Helper()
	gw := &fakeGateway{}
	b, err := bot.New(cfg, gw, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Stop(context.Background()) })
	return b, gw
}

func startReady(t *testing.T, b *bot.Bot, gw *fakeGateway) {
	t.Helper()
	require.NoError(t, b.Start(context.Background()))
	gw.emit(context.Background(), bot.Event{Kind: bot.EventReady, BotTag: "auditbot#0001", GuildCount: 3, UserCount: 120})
	require.True(t, b.IsReady())
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.Token = ""
		_, err := bot.New(cfg, &fakeGateway{})
		require.Error(t, err)
		assert.ErrorIs(t, err, bot.ErrConfiguration)

		var cerr *bot.ConfigurationError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "DISCORD_BOT_TOKEN", cerr.Field)
	})

	t.Run("missing app id", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.AppID = ""
		_, err := bot.New(cfg, &fakeGateway{})

		var cerr *bot.ConfigurationError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "DISCORD_APP_ID", cerr.Field)
	})

	t.Run("nil gateway", func(t *testing.T) {
		t.Parallel()

		_, err := bot.New(testConfig(), nil)
		assert.ErrorIs(t, err, bot.ErrNilGateway)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		b, _ := newBot(t, bot.Config{Token: "t", AppID: "a"})
		cfg := b.Config()
		assert.Equal(t, bot.DefaultPresence, cfg.Presence)
		assert.Equal(t, 5*time.Minute, cfg.HealthInterval)
		assert.Equal(t, time.Hour, cfg.CleanupInterval)
		assert.Equal(t, ratelimiter.DefaultMaxRequests, cfg.RateLimit.MaxRequests)
		assert.Equal(t, bot.StateStopped, b.State())
		assert.Equal(t, []string{"alert-lead", "alert-system", "help", "ping", "status"}, b.Commands().Names())
	})
}

func TestConfig(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "debug", bot.Config{}.ResolvedLogLevel())
	assert.Equal(t, "info", bot.Config{Environment: "production"}.ResolvedLogLevel())
	assert.Equal(t, "warn", bot.Config{Environment: "production", LogLevel: "warn"}.ResolvedLogLevel())
	assert.True(t, bot.Config{Environment: "production"}.IsProduction())
	assert.False(t, bot.Config{Environment: "staging"}.IsProduction())
}

func TestStart(t *testing.T) {
	t.Parallel()

	t.Run("registers commands then opens gateway", func(t *testing.T) {
		t.Parallel()

		b, gw := newBot(t, testConfig())
		require.NoError(t, b.Start(context.Background()))

		assert.Equal(t, bot.StateStarting, b.State())
		assert.Equal(t, 1, gw.opens)
		require.Len(t, gw.registered, 1)
		assert.Equal(t, []string{"guild-1"}, gw.scopes)
		assert.Len(t, gw.registered[0], 5)
	})

	t.Run("skips registration without server id", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.ServerID = ""
		b, gw := newBot(t, cfg)

		require.NoError(t, b.RegisterCommands(context.Background()))
		assert.Empty(t, gw.registered)
	})

	t.Run("second start fails", func(t *testing.T) {
		t.Parallel()

		b, _ := newBot(t, testConfig())
		require.NoError(t, b.Start(context.Background()))
		assert.ErrorIs(t, b.Start(context.Background()), bot.ErrAlreadyStarted)
	})

	t.Run("gateway failure", func(t *testing.T) {
		t.Parallel()

		gw := &fakeGateway{openErr: errors.New("invalid token")}
		b, err := bot.New(testConfig(), gw)
		require.NoError(t, err)

		err = b.Start(context.Background())
		assert.ErrorIs(t, err, bot.ErrGatewayOpen)
		assert.Equal(t, bot.StateStopped, b.State())

		require.NoError(t, b.Stop(context.Background()))
		assert.Zero(t, gw.closeCount())
	})
}

func TestReady(t *testing.T) {
	t.Parallel()

	b, gw := newBot(t, testConfig())
	startReady(t, b, gw)

	assert.Equal(t, bot.DefaultPresence, gw.lastPresence())
	assert.Equal(t, int64(3), b.Metrics().Counter(metrics.CounterGuilds))

	stats := b.Stats(context.Background())
	assert.Equal(t, int64(3), stats.GuildCount)
	assert.Equal(t, int64(120), stats.UserCount)
	assert.Zero(t, stats.CommandCount)

	sched := b.Scheduler().Stats()
	assert.True(t, sched.IsRunning)
	require.Len(t, sched.Tasks, 3)
	assert.Equal(t, bot.TaskHealth, sched.Tasks[0].Name)
	assert.Equal(t, 5*time.Minute, sched.Tasks[0].Interval)
	assert.Equal(t, bot.TaskMetricsCleanup, sched.Tasks[1].Name)
	assert.Equal(t, time.Hour, sched.Tasks[1].Interval)

	// Reconnects deliver ready again; counters and tasks are not doubled.
	gw.emit(context.Background(), bot.Event{Kind: bot.EventReady, BotTag: "auditbot#0001", GuildCount: 3})
	assert.Equal(t, int64(3), b.Metrics().Counter(metrics.CounterGuilds))
	assert.NoError(t, b.Ready(context.Background()))
}

func TestStop(t *testing.T) {
	t.Parallel()

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		b, gw := newBot(t, testConfig())
		startReady(t, b, gw)

		require.NoError(t, b.Stop(context.Background()))
		require.NoError(t, b.Stop(context.Background()))

		assert.Equal(t, 1, gw.closeCount())
		assert.Equal(t, bot.ShutdownPresence, gw.lastPresence())
		assert.Equal(t, bot.StateStopped, b.State())
		assert.False(t, b.Scheduler().Stats().IsRunning)
		assert.Error(t, b.Ready(context.Background()))
		assert.ErrorIs(t, b.Start(context.Background()), bot.ErrShuttingDown)
	})

	t.Run("concurrent", func(t *testing.T) {
		t.Parallel()

		b, gw := newBot(t, testConfig())
		startReady(t, b, gw)

		var wg sync.WaitGroup
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = b.Stop(context.Background())
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, gw.closeCount())
	})

	t.Run("interactions after shutdown are dropped", func(t *testing.T) {
		t.Parallel()

		b, gw := newBot(t, testConfig())
		startReady(t, b, gw)
		require.NoError(t, b.Stop(context.Background()))

		resp := &commandtest.Responder{}
		b.HandleEvent(context.Background(), bot.Event{
			Kind:        bot.EventInteraction,
			Interaction: &command.Context{Name: "ping", UserID: "u1", Responder: resp},
		})

		assert.False(t, resp.Replied())
		assert.Zero(t, b.Metrics().Counter(metrics.CounterCommandsTotal))
	})

	t.Run("ready after stop starts nothing", func(t *testing.T) {
		t.Parallel()

		b, gw := newBot(t, testConfig())
		require.NoError(t, b.Start(context.Background()))
		require.NoError(t, b.Stop(context.Background()))

		gw.emit(context.Background(), bot.Event{Kind: bot.EventReady, BotTag: "auditbot#0001", GuildCount: 3})

		assert.Equal(t, bot.StateStopped, b.State())
		assert.False(t, b.Scheduler().Stats().IsRunning)
		assert.Equal(t, bot.ShutdownPresence, gw.lastPresence())
		assert.Zero(t, b.Metrics().Counter(metrics.CounterGuilds))

		require.NoError(t, b.Stop(context.Background()))
		assert.False(t, b.Scheduler().Stats().IsRunning)
	})

	t.Run("stop while opening closes the gateway", func(t *testing.T) {
		t.Parallel()

		gw := &fakeGateway{entered: make(chan struct{}), release: make(chan struct{})}
		b, err := bot.New(testConfig(), gw)
		require.NoError(t, err)

		started := make(chan error, 1)
		go func() { started <- b.Start(context.Background()) }()
		<-gw.entered

		require.NoError(t, b.Stop(context.Background()))
		assert.Zero(t, gw.closeCount())

		close(gw.release)
		select {
		case err := <-started:
			assert.ErrorIs(t, err, bot.ErrShuttingDown)
		case <-time.After(time.Second):
			t.Fatal("Start did not return")
		}

		assert.Equal(t, 1, gw.closeCount())
		assert.Equal(t, bot.StateStopped, b.State())

		require.NoError(t, b.Stop(context.Background()))
		assert.Equal(t, 1, gw.closeCount())
	})

	t.Run("production notifies operators", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.Environment = "production"
		alerter := &recordingAlerter{}
		b, gw := newBot(t, cfg, bot.WithAlerter(alerter))
		startReady(t, b, gw)

		assert.Eventually(t, func() bool {
			return len(alerter.messages()) == 1
		}, time.Second, 10*time.Millisecond)

		require.NoError(t, b.Stop(context.Background()))
		assert.Contains(t, alerter.messages(), "Bot shutting down")
	})
}

func TestInteraction(t *testing.T) {
	t.Parallel()

	t.Run("dispatches ping", func(t *testing.T) {
		t.Parallel()

		b, gw := newBot(t, testConfig())
		startReady(t, b, gw)

		resp := &commandtest.Responder{Ping: 30 * time.Millisecond}
		gw.emit(context.Background(), bot.Event{
			Kind:        bot.EventInteraction,
			Interaction: &command.Context{Name: "ping", UserID: "u1", GuildID: "guild-1", Responder: resp},
		})

		require.Len(t, resp.Edits(), 1)
		assert.Equal(t, int64(1), b.Metrics().Counter(metrics.CounterCommandsTotal))
		assert.Equal(t, int64(1), b.Metrics().Counter(metrics.CommandCounter("ping")))
	})

	t.Run("rate limited never reaches handler", func(t *testing.T) {
		t.Parallel()

		b, gw := newBot(t, testConfig(), bot.WithRateLimiter(denyAll{}))
		startReady(t, b, gw)

		resp := &commandtest.Responder{}
		gw.emit(context.Background(), bot.Event{
			Kind:        bot.EventInteraction,
			Interaction: &command.Context{Name: "ping", UserID: "u1", Responder: resp},
		})

		replies := resp.Replies()
		require.Len(t, replies, 1)
		assert.Equal(t, "❌ Rate limit exceeded. Please try again <t:1700000060:R>.", replies[0].Content)
		assert.True(t, replies[0].Ephemeral)
		assert.Empty(t, resp.Edits())
		assert.Zero(t, b.Metrics().Counter(metrics.CounterCommandsTotal))
	})

	t.Run("default limiter admits ten per window", func(t *testing.T) {
		t.Parallel()

		b, gw := newBot(t, testConfig())
		startReady(t, b, gw)

		var last *commandtest.Responder
		for range 11 {
			last = &commandtest.Responder{}
			gw.emit(context.Background(), bot.Event{
				Kind:        bot.EventInteraction,
				Interaction: &command.Context{Name: "help", UserID: "u2", Responder: last},
			})
		}

		assert.Equal(t, int64(10), b.Metrics().Counter(metrics.CounterCommandsTotal))
		reply, ok := last.Last()
		require.True(t, ok)
		assert.Contains(t, reply.Content, "Rate limit exceeded")
	})

	t.Run("unknown command gets failure reply", func(t *testing.T) {
		t.Parallel()

		b, gw := newBot(t, testConfig())
		startReady(t, b, gw)

		resp := &commandtest.Responder{}
		gw.emit(context.Background(), bot.Event{
			Kind:        bot.EventInteraction,
			Interaction: &command.Context{Name: "missing", UserID: "u1", Responder: resp},
		})

		replies := resp.Replies()
		require.Len(t, replies, 1)
		assert.Equal(t, command.NotFoundMessage, replies[0].Content)
		assert.True(t, replies[0].Ephemeral)
		assert.Zero(t, b.Metrics().Counter(metrics.CounterCommandsTotal))
	})
}

func TestGuildEvents(t *testing.T) {
	t.Parallel()

	b, gw := newBot(t, testConfig())
	startReady(t, b, gw)
	ctx := context.Background()

	gw.emit(ctx, bot.Event{Kind: bot.EventGuildJoined, GuildID: "g2", GuildName: "New Guild", MemberCount: 10})
	gw.emit(ctx, bot.Event{Kind: bot.EventGuildJoined, GuildID: "g3", GuildName: "Another"})
	gw.emit(ctx, bot.Event{Kind: bot.EventGuildLeft, GuildID: "g2", GuildName: "New Guild"})

	assert.Equal(t, int64(2), b.Metrics().Counter(metrics.CounterGuildsJoined))
	assert.Equal(t, int64(1), b.Metrics().Counter(metrics.CounterGuildsLeft))
	assert.Equal(t, int64(4), b.Metrics().Counter(metrics.CounterGuilds))

	// Diagnostic events only log.
	gw.emit(ctx, bot.Event{Kind: bot.EventError, Err: errors.New("socket closed")})
	gw.emit(ctx, bot.Event{Kind: bot.EventWarning, Message: "slow heartbeat"})
	gw.emit(ctx, bot.Event{Kind: bot.EventDebug, Message: "heartbeat ack"})
	gw.emit(ctx, bot.Event{Kind: bot.EventRateLimit, RateLimit: bot.RateLimitInfo{Route: "/channels", RetryAfter: time.Second}})
	gw.emit(ctx, bot.Event{Kind: bot.EventKind(99)})

	assert.True(t, b.IsReady())
}

func TestHealthStatus(t *testing.T) {
	t.Parallel()

	b, gw := newBot(t, testConfig(), bot.WithProbe(func(context.Context) error { return nil }))
	startReady(t, b, gw)

	snap := b.HealthStatus(context.Background())
	assert.Equal(t, int64(3), snap.GuildCount)
	assert.Zero(t, snap.ErrorsInLastHour)
	assert.Equal(t, health.StatusHealthy, snap.Status)
	assert.Equal(t, snap.GuildCount, b.Check(context.Background()).GuildCount)
}

func TestRun(t *testing.T) {
	t.Parallel()

	b, gw := newBot(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, func() bool { return b.State() == bot.StateStarting }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, 1, gw.closeCount())
	assert.Equal(t, bot.StateStopped, b.State())
}

func TestInstance(t *testing.T) {
	require.NoError(t, bot.Reset(context.Background()))

	_, err := bot.Default()
	assert.ErrorIs(t, err, bot.ErrNotInitialized)

	b1, err := bot.Init(testConfig(), &fakeGateway{})
	require.NoError(t, err)
	b2, err := bot.Init(testConfig(), &fakeGateway{})
	require.NoError(t, err)
	assert.Same(t, b1, b2)

	got, err := bot.Default()
	require.NoError(t, err)
	assert.Same(t, b1, got)

	require.NoError(t, bot.Reset(context.Background()))
	_, err = bot.Default()
	assert.ErrorIs(t, err, bot.ErrNotInitialized)
}
