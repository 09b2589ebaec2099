package builtin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrymomot/auditbot/core/command"
	"github.com/dmitrymomot/auditbot/core/health"
)

// StatusResult is the data returned by the status command.
type StatusResult struct {
	Health health.Snapshot `json:"health"`
	Stats  health.BotStats `json:"stats"`
}

type status struct {
	options
}

// NewStatus returns the status command. Without a StatusProvider it fails.
func NewStatus(opts ...Option) command.Command {
	return &status{options: newOptions(opts)}
}

func (*status) Name() string { return "status" }

func (*status) Describe() command.Descriptor {
	return command.Descriptor{
		Name:        "status",
		Description: "Get detailed bot status and statistics",
	}
}

func (*status) Validate(*command.Context) error { return nil }

func (s *status) Execute(ctx context.Context, cc *command.Context) command.Result {
	if s.provider == nil {
		return command.Fail("Status is not available")
	}

	snap := s.provider.HealthStatus(ctx)
	stats := s.provider.Stats(ctx)

	err := cc.Reply(ctx, command.Reply{Embeds: []command.Embed{{
		Title: "🔧 Bot Status",
		Color: statusColor(snap.Status),
		Fields: []command.EmbedField{
			{Name: "Status", Value: strings.ToUpper(string(snap.Status)), Inline: true},
			{Name: "Uptime", Value: FormatDuration(snap.Uptime), Inline: true},
			{Name: "Latency", Value: fmt.Sprintf("%dms", snap.Latency.Milliseconds()), Inline: true},
			{Name: "Guilds", Value: strconv.FormatInt(stats.GuildCount, 10), Inline: true},
			{Name: "Commands", Value: strconv.FormatInt(stats.CommandCount, 10), Inline: true},
			{Name: "Errors (1h)", Value: strconv.Itoa(snap.ErrorsInLastHour), Inline: true},
			{Name: "Memory Usage", Value: fmt.Sprintf("%dMB", snap.Memory.HeapMB()), Inline: true},
		},
		Timestamp: s.now(),
	}}})
	if err != nil {
		return command.Fail(err.Error())
	}

	return command.OK(StatusResult{Health: snap, Stats: stats})
}
