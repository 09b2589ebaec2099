package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/dmitrymomot/auditbot/core/alert"
	"github.com/dmitrymomot/auditbot/core/command"
	"github.com/dmitrymomot/auditbot/core/logger"
	"github.com/dmitrymomot/auditbot/core/metrics"
)

func (b *Bot) eventTable() map[EventKind]func(context.Context, Event) {
	return map[EventKind]func(context.Context, Event){
		EventReady:       b.onReady,
		EventGuildJoined: b.onGuildJoined,
		EventGuildLeft:   b.onGuildLeft,
		EventError:       b.onError,
		EventWarning:     b.onWarning,
		EventDebug:       b.onDebug,
		EventRateLimit:   b.onRateLimit,
		EventInteraction: b.onInteraction,
	}
}

// HandleEvent routes ev to its handler. Gateways call it from their own goroutines.
// A panicking handler is recovered and logged.
func (b *Bot) HandleEvent(ctx context.Context, ev Event) {
	h, ok := b.handlers[ev.Kind]
	if !ok {
		b.logger.DebugContext(ctx, "unhandled gateway event", logger.Event(ev.Kind.String()))
		return
	}

	if ev.Kind == EventInteraction && !b.track() {
		b.logger.DebugContext(ctx, "interaction dropped during shutdown",
			logger.Event(ev.Kind.String()),
			logger.Status(b.State().String()))
		return
	}
	if ev.Kind == EventInteraction {
		defer b.inflight.Done()
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "Error handling gateway event",
				logger.Event(ev.Kind.String()),
				logger.Error(fmt.Errorf("%w: %v", ErrUncaughtPanic, r)),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	h(ctx, ev)
}

// track registers an in-flight interaction unless the bot is shutting down.
func (b *Bot) track() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateShuttingDown || b.state == StateStopped {
		return false
	}
	b.inflight.Add(1)
	return true
}

func (b *Bot) onReady(ctx context.Context, ev Event) {
	// Tasks start under b.mu: shutdown either stops them or is seen here.
	b.mu.Lock()
	if st := b.state; st == StateShuttingDown || st == StateStopped {
		b.mu.Unlock()
		b.logger.DebugContext(ctx, "Ignoring ready event during shutdown",
			logger.Status(st.String()))
		return
	}
	if b.state == StateStarting {
		b.state = StateReady
	}
	first := false
	b.tasksOnce.Do(func() {
		first = true
		if err := b.scheduler.Start(ctx); err != nil {
			b.logger.ErrorContext(ctx, "Failed to start scheduled tasks", logger.Error(err))
		}
	})
	b.mu.Unlock()

	b.logger.InfoContext(ctx, "Logged in as "+ev.BotTag,
		logger.Count("guilds", ev.GuildCount))

	b.setPresence(ctx, b.cfg.Presence)

	if !first {
		return
	}

	b.metrics.Increment(metrics.CounterGuilds, int64(ev.GuildCount))
	b.metrics.Increment(metrics.CounterUsers, int64(ev.UserCount))

	if b.cfg.IsProduction() {
		b.logger.InfoContext(ctx, "Bot started successfully")
		b.goSafe(ctx, "startup-notification", func(ctx context.Context) error {
			return b.alerter.SendAlert(ctx, fmt.Sprintf("Bot started successfully as %s (%d guilds)", ev.BotTag, ev.GuildCount), alert.LevelInfo)
		})
	}
}

func (b *Bot) onGuildJoined(ctx context.Context, ev Event) {
	b.logger.InfoContext(ctx, "Joined new guild: "+ev.GuildName,
		logger.GuildID(ev.GuildID),
		logger.Count("members", ev.MemberCount))
	b.metrics.Increment(metrics.CounterGuildsJoined, 1)
	b.metrics.Increment(metrics.CounterGuilds, 1)
}

func (b *Bot) onGuildLeft(ctx context.Context, ev Event) {
	b.logger.InfoContext(ctx, "Left guild: "+ev.GuildName,
		logger.GuildID(ev.GuildID))
	b.metrics.Increment(metrics.CounterGuildsLeft, 1)
	b.metrics.Increment(metrics.CounterGuilds, -1)
}

func (b *Bot) onError(ctx context.Context, ev Event) {
	err := ev.Err
	if err == nil {
		err = errors.New(ev.Message)
	}
	b.logger.ErrorContext(ctx, "Discord client error", logger.Error(err))
}

func (b *Bot) onWarning(ctx context.Context, ev Event) {
	b.logger.WarnContext(ctx, "Discord client warning", slog.String("warning", ev.Message))
}

func (b *Bot) onDebug(ctx context.Context, ev Event) {
	b.logger.DebugContext(ctx, "Discord debug", slog.String("info", ev.Message))
}

func (b *Bot) onRateLimit(ctx context.Context, ev Event) {
	b.logger.WarnContext(ctx, "Rate limit hit",
		slog.String("route", ev.RateLimit.Route),
		logger.Duration(ev.RateLimit.RetryAfter),
		slog.Bool("global", ev.RateLimit.Global))
}

func (b *Bot) onInteraction(ctx context.Context, ev Event) {
	cc := ev.Interaction
	if cc == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "Error handling interaction",
				logger.Command(cc.Name),
				logger.UserID(cc.UserID),
				logger.Error(fmt.Errorf("%w: %v", ErrUncaughtPanic, r)),
				slog.String("stack", string(debug.Stack())))
			b.replyFailure(ctx, cc, "❌ "+command.UnexpectedMessage)
		}
	}()

	res := b.dispatcher.Execute(ctx, cc)
	if res.Success {
		return
	}

	msg := res.Error
	if msg == "" {
		msg = command.FailedMessage
	}
	b.replyFailure(ctx, cc, msg)
}

func (b *Bot) replyFailure(ctx context.Context, cc *command.Context, msg string) {
	if cc.Responder == nil || cc.Replied() {
		return
	}
	if err := cc.Reply(ctx, command.Reply{Content: msg, Ephemeral: true}); err != nil {
		b.logger.WarnContext(ctx, "Failed to send failure reply",
			logger.Command(cc.Name),
			logger.Error(err))
	}
}
