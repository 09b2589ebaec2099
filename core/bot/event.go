package bot

import (
	"context"
	"time"

	"github.com/dmitrymomot/auditbot/core/command"
)

// EventKind identifies a gateway event.
type EventKind int

const (
	EventReady EventKind = iota + 1
	EventGuildJoined
	EventGuildLeft
	EventError
	EventWarning
	EventDebug
	EventRateLimit
	EventInteraction
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventGuildJoined:
		return "guild_joined"
	case EventGuildLeft:
		return "guild_left"
	case EventError:
		return "error"
	case EventWarning:
		return "warning"
	case EventDebug:
		return "debug"
	case EventRateLimit:
		return "rate_limit"
	case EventInteraction:
		return "interaction"
	default:
		return "unknown"
	}
}

// Event is a platform-neutral gateway event. Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind

	// Ready.
	BotTag     string
	BotID      string
	GuildCount int
	UserCount  int

	// GuildJoined, GuildLeft.
	GuildID     string
	GuildName   string
	MemberCount int

	// Error, Warning, Debug.
	Message string
	Err     error

	// RateLimit.
	RateLimit RateLimitInfo

	// Interaction.
	Interaction *command.Context
}

// RateLimitInfo describes a platform rate limit notice.
type RateLimitInfo struct {
	Route      string
	RetryAfter time.Duration
	Global     bool
}

// EventHandler receives gateway events.
type EventHandler func(ctx context.Context, ev Event)

// Gateway is the chat platform connection owned by the bot.
type Gateway interface {
	// Open authenticates and starts delivering events to handle.
	Open(ctx context.Context, handle EventHandler) error
	// Close disconnects. The bot calls it exactly once per Open.
	Close() error
	// SetPresence updates the bot's activity text.
	SetPresence(ctx context.Context, text string) error
	// RegisterCommands replaces the command catalog of scope in one call.
	RegisterCommands(ctx context.Context, scopeID string, cmds []command.Descriptor) error
	// Latency returns the heartbeat round trip.
	Latency() time.Duration
}
