package discord

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/dmitrymomot/auditbot/core/command"
)

// responder answers one interaction through the REST API.
type responder struct {
	s       *discordgo.Session
	i       *discordgo.Interaction
	replied atomic.Bool
}

var _ command.Responder = (*responder)(nil)

func newResponder(s *discordgo.Session, i *discordgo.Interaction) *responder {
	return &responder{s: s, i: i}
}

func (r *responder) Reply(ctx context.Context, rep command.Reply) error {
	err := r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: rep.Content,
			Embeds:  MessageEmbeds(rep.Embeds),
			Flags:   flags(rep.Ephemeral),
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	r.replied.Store(true)
	return nil
}

func (r *responder) Defer(ctx context.Context, ephemeral bool) error {
	err := r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags(ephemeral)},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	r.replied.Store(true)
	return nil
}

func (r *responder) Edit(ctx context.Context, rep command.Reply) error {
	content := rep.Content
	embeds := MessageEmbeds(rep.Embeds)
	_, err := r.s.InteractionResponseEdit(r.i, &discordgo.WebhookEdit{
		Content: &content,
		Embeds:  &embeds,
	}, discordgo.WithContext(ctx))
	return err
}

func (r *responder) Replied() bool {
	return r.replied.Load()
}

func (r *responder) Latency() time.Duration {
	return r.s.HeartbeatLatency()
}

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}
