package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/auditbot/core/command"
)

// PingResult is the data returned by the ping command, in milliseconds.
type PingResult struct {
	Latency    int64 `json:"latency"`
	APILatency int64 `json:"apiLatency"`
}

type ping struct {
	options
}

// NewPing returns the ping command: round trip and gateway heartbeat latency.
func NewPing(opts ...Option) command.Command {
	return &ping{options: newOptions(opts)}
}

func (*ping) Name() string { return "ping" }

func (*ping) Describe() command.Descriptor {
	return command.Descriptor{
		Name:        "ping",
		Description: "Check bot latency and response time",
	}
}

func (*ping) Validate(*command.Context) error { return nil }

func (p *ping) Execute(ctx context.Context, cc *command.Context) command.Result {
	start := p.now()
	if err := cc.Reply(ctx, command.Reply{Content: "🏓 Pinging..."}); err != nil {
		return command.Fail(err.Error())
	}

	res := PingResult{
		Latency:    max(p.now().Sub(start).Milliseconds(), 0),
		APILatency: max(cc.Responder.Latency().Round(time.Millisecond).Milliseconds(), 0),
	}

	err := cc.Responder.Edit(ctx, command.Reply{Embeds: []command.Embed{{
		Title: "🏓 Pong!",
		Color: ColorSuccess,
		Fields: []command.EmbedField{
			{Name: "Bot Latency", Value: fmt.Sprintf("%dms", res.Latency), Inline: true},
			{Name: "API Latency", Value: fmt.Sprintf("%dms", res.APILatency), Inline: true},
		},
		Timestamp: p.now(),
	}}})
	if err != nil {
		return command.Fail(err.Error())
	}

	return command.OK(res)
}
