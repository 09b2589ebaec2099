package command

import (
	"context"
	"time"
)

// Context carries a single command invocation.
type Context struct {
	Name       string
	UserID     string
	UserTag    string
	GuildID    string
	ChannelID  string
	IsAdmin    bool
	Options    map[string]any
	Responder  Responder
	ReceivedAt time.Time
}

// Scope returns the guild id, or "DM" for direct messages.
func (c *Context) Scope() string {
	if c.GuildID == "" {
		return "DM"
	}
	return c.GuildID
}

// Has reports whether the option was supplied.
func (c *Context) Has(name string) bool {
	_, ok := c.Options[name]
	return ok
}

// String returns a string option, empty when absent.
func (c *Context) String(name string) string {
	s, _ := c.Options[name].(string)
	return s
}

// Int returns an integer option.
func (c *Context) Int(name string) (int64, bool) {
	switch v := c.Options[name].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// Float returns a numeric option.
func (c *Context) Float(name string) (float64, bool) {
	switch v := c.Options[name].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// Bool returns a boolean option.
func (c *Context) Bool(name string) (bool, bool) {
	b, ok := c.Options[name].(bool)
	return b, ok
}

// Reply sends a reply through the attached responder.
func (c *Context) Reply(ctx context.Context, r Reply) error {
	if c.Responder == nil {
		return ErrNoResponder
	}
	return c.Responder.Reply(ctx, r)
}

// Replied reports whether a reply (or deferral) was already sent.
func (c *Context) Replied() bool {
	return c.Responder != nil && c.Responder.Replied()
}

// Responder answers an invocation on the chat platform.
type Responder interface {
	// Reply sends the initial response.
	Reply(ctx context.Context, r Reply) error
	// Defer acknowledges the invocation; the answer follows via Edit.
	Defer(ctx context.Context, ephemeral bool) error
	// Edit replaces the deferred or initial response.
	Edit(ctx context.Context, r Reply) error
	// Replied reports whether Reply or Defer succeeded.
	Replied() bool
	// Latency returns the gateway heartbeat latency.
	Latency() time.Duration
}

// Reply is a platform-neutral message.
type Reply struct {
	Content   string
	Ephemeral bool
	Embeds    []Embed
}

// Embed is a rich message block.
type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []EmbedField
	Footer      string
	Timestamp   time.Time
}

// EmbedField is a name/value row inside an Embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

type executionIDCtx struct{}

// WithExecutionID attaches an execution id to ctx for log correlation.
func WithExecutionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, executionIDCtx{}, id)
}

// ExecutionID extracts the execution id. Empty when absent.
func ExecutionID(ctx context.Context) string {
	if id, ok := ctx.Value(executionIDCtx{}).(string); ok {
		return id
	}
	return ""
}

type startProcessingAt struct{}

// WithStartProcessingTime attaches the dispatch start time to ctx.
func WithStartProcessingTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startProcessingAt{}, t)
}

// StartProcessingTime extracts the dispatch start time. Zero when absent.
func StartProcessingTime(ctx context.Context) time.Time {
	if t, ok := ctx.Value(startProcessingAt{}).(time.Time); ok {
		return t
	}
	return time.Time{}
}
