package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/dmitrymomot/auditbot/core/bot"
	"github.com/dmitrymomot/auditbot/core/command"
	"github.com/dmitrymomot/auditbot/core/logger"
)

// Intents requested by the gateway. Slash commands need no privileged intents.
const Intents = discordgo.IntentsGuilds

// Gateway adapts a discordgo session to bot.Gateway.
type Gateway struct {
	session  *discordgo.Session
	appID    string
	logger   *slog.Logger
	logLevel int

	mu       sync.Mutex
	handle   bot.EventHandler
	ctx      context.Context
	removers []func()
	// guilds announced by Ready; their GuildCreate is an initial load, not a join.
	pending map[string]struct{}
}

var _ bot.Gateway = (*Gateway)(nil)

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the adapter logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithLibraryLogLevel sets the most verbose discordgo log level forwarded
// to the bot (discordgo.LogError through discordgo.LogDebug).
func WithLibraryLogLevel(level int) Option {
	return func(g *Gateway) {
		g.logLevel = level
	}
}

// WithSession replaces the session created by New. Tests use it to inject an HTTP client.
func WithSession(s *discordgo.Session) Option {
	return func(g *Gateway) {
		if s != nil {
			g.session = s
		}
	}
}

// New creates a gateway for the bot token and application id.
func New(token, appID string, opts ...Option) (*Gateway, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	if appID == "" {
		return nil, ErrMissingAppID
	}

	g := &Gateway{
		appID:    appID,
		logger:   logger.Discard(),
		logLevel: discordgo.LogWarning,
		pending:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(logger.Component("discord"))

	if g.session == nil {
		s, err := discordgo.New("Bot " + token)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		g.session = s
	}
	g.session.Identify.Intents = Intents
	g.session.LogLevel = g.logLevel

	return g, nil
}

// Session returns the underlying discordgo session.
func (g *Gateway) Session() *discordgo.Session {
	return g.session
}

// Open installs the event handlers and connects. Events are delivered to
// handle from discordgo's handler goroutines.
func (g *Gateway) Open(ctx context.Context, handle bot.EventHandler) error {
	g.mu.Lock()
	if g.handle != nil {
		g.mu.Unlock()
		return ErrAlreadyOpen
	}
	g.handle = handle
	g.ctx = context.WithoutCancel(ctx)
	g.removers = []func(){
		g.session.AddHandler(g.onReady),
		g.session.AddHandler(g.onGuildCreate),
		g.session.AddHandler(g.onGuildDelete),
		g.session.AddHandler(g.onRateLimit),
		g.session.AddHandler(g.onInteraction),
	}
	g.mu.Unlock()

	setLibraryLogger(g.emit)

	g.logger.DebugContext(ctx, "opening gateway session", slog.Int("intents", int(Intents)))
	if err := g.session.Open(); err != nil {
		g.detach()
		return err
	}
	return nil
}

// Close disconnects and removes the handlers.
func (g *Gateway) Close() error {
	g.mu.Lock()
	open := g.handle != nil
	g.mu.Unlock()
	if !open {
		return ErrNotOpen
	}

	g.detach()
	g.logger.Debug("closing gateway session")
	return g.session.Close()
}

func (g *Gateway) detach() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, remove := range g.removers {
		remove()
	}
	g.removers = nil
	g.handle = nil
	setLibraryLogger(nil)
}

// SetPresence sets a "playing" activity.
func (g *Gateway) SetPresence(_ context.Context, text string) error {
	return g.session.UpdateGameStatus(0, text)
}

// RegisterCommands overwrites the guild command catalog in one request.
func (g *Gateway) RegisterCommands(ctx context.Context, scopeID string, cmds []command.Descriptor) error {
	_, err := g.session.ApplicationCommandBulkOverwrite(g.appID, scopeID, ApplicationCommands(cmds), discordgo.WithContext(ctx))
	return err
}

// Latency returns the last heartbeat round trip.
func (g *Gateway) Latency() time.Duration {
	return g.session.HeartbeatLatency()
}

func (g *Gateway) emit(ev bot.Event) {
	g.mu.Lock()
	handle, ctx := g.handle, g.ctx
	g.mu.Unlock()
	if handle == nil {
		return
	}
	handle(ctx, ev)
}

func (g *Gateway) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	users := 0
	g.mu.Lock()
	for _, guild := range r.Guilds {
		g.pending[guild.ID] = struct{}{}
		users += guild.MemberCount
	}
	g.mu.Unlock()

	ev := bot.Event{Kind: bot.EventReady, GuildCount: len(r.Guilds), UserCount: users}
	if r.User != nil {
		ev.BotTag = r.User.String()
		ev.BotID = r.User.ID
	}
	g.emit(ev)
}

func (g *Gateway) onGuildCreate(_ *discordgo.Session, c *discordgo.GuildCreate) {
	if c.Guild == nil {
		return
	}

	g.mu.Lock()
	_, initial := g.pending[c.ID]
	delete(g.pending, c.ID)
	g.mu.Unlock()
	if initial {
		return
	}

	g.emit(bot.Event{
		Kind:        bot.EventGuildJoined,
		GuildID:     c.ID,
		GuildName:   c.Name,
		MemberCount: c.MemberCount,
	})
}

func (g *Gateway) onGuildDelete(_ *discordgo.Session, d *discordgo.GuildDelete) {
	// Outages also arrive as GuildDelete with Unavailable set.
	if d.Guild == nil || d.Unavailable {
		return
	}

	name := d.Name
	if name == "" && d.BeforeDelete != nil {
		name = d.BeforeDelete.Name
	}
	g.emit(bot.Event{Kind: bot.EventGuildLeft, GuildID: d.ID, GuildName: name})
}

func (g *Gateway) onRateLimit(_ *discordgo.Session, r *discordgo.RateLimit) {
	info := bot.RateLimitInfo{Route: r.URL}
	if r.TooManyRequests != nil {
		info.RetryAfter = r.RetryAfter
		if info.Route == "" {
			info.Route = r.Bucket
		}
	}
	g.emit(bot.Event{Kind: bot.EventRateLimit, RateLimit: info})
}

func (g *Gateway) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cc := CommandContext(s, i.Interaction)
	if cc == nil {
		g.logger.Debug("ignoring non-command interaction", slog.Int("type", int(i.Type)))
		return
	}
	g.emit(bot.Event{Kind: bot.EventInteraction, Interaction: cc})
}

var (
	libLoggerOnce sync.Once
	libLoggerMu   sync.RWMutex
	libLoggerSink func(bot.Event)
)

// setLibraryLogger routes discordgo's own log lines into bot events.
// A nil sink drops them.
func setLibraryLogger(sink func(bot.Event)) {
	libLoggerMu.Lock()
	libLoggerSink = sink
	libLoggerMu.Unlock()

	libLoggerOnce.Do(func() {
		discordgo.Logger = func(level, _ int, format string, a ...any) {
			libLoggerMu.RLock()
			sink := libLoggerSink
			libLoggerMu.RUnlock()
			if sink != nil {
				sink(LogEvent(level, fmt.Sprintf(format, a...)))
			}
		}
	})
}

// LogEvent maps a discordgo log line to a bot event.
func LogEvent(level int, msg string) bot.Event {
	switch level {
	case discordgo.LogError:
		return bot.Event{Kind: bot.EventError, Message: msg, Err: fmt.Errorf("discordgo: %s", msg)}
	case discordgo.LogWarning:
		return bot.Event{Kind: bot.EventWarning, Message: msg}
	default:
		return bot.Event{Kind: bot.EventDebug, Message: msg}
	}
}
