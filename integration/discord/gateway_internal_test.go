package discord

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/auditbot/core/bot"
)

type eventSink struct {
	mu     sync.Mutex
	events []bot.Event
}

func (s *eventSink) handle(_ context.Context, ev bot.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *eventSink) all() []bot.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bot.Event(nil), s.events...)
}

func attachedGateway(t *testing.T) (*Gateway, *eventSink) {
	t.Helper()
	g, err := New("token", "app")
	require.NoError(t, err)

	sink := &eventSink{}
	g.handle = sink.handle
	g.ctx = context.Background()
	return g, sink
}

func TestGatewayEvents(t *testing.T) {
	t.Parallel()

	g, sink := attachedGateway(t)

	g.onReady(g.session, &discordgo.Ready{
		User:   &discordgo.User{ID: "b1", Username: "auditbot", Discriminator: "0"},
		Guilds: []*discordgo.Guild{{ID: "g1"}, {ID: "g2"}},
	})
	// Initial loads of guilds announced by Ready are not joins.
	g.onGuildCreate(g.session, &discordgo.GuildCreate{Guild: &discordgo.Guild{ID: "g1", Name: "One"}})
	g.onGuildCreate(g.session, &discordgo.GuildCreate{Guild: &discordgo.Guild{ID: "g3", Name: "Three", MemberCount: 7}})
	// Outages are not leaves.
	g.onGuildDelete(g.session, &discordgo.GuildDelete{Guild: &discordgo.Guild{ID: "g2", Unavailable: true}})
	g.onGuildDelete(g.session, &discordgo.GuildDelete{
		Guild:        &discordgo.Guild{ID: "g2"},
		BeforeDelete: &discordgo.Guild{ID: "g2", Name: "Two"},
	})
	g.onRateLimit(g.session, &discordgo.RateLimit{
		TooManyRequests: &discordgo.TooManyRequests{Bucket: "b", RetryAfter: 2 * time.Second},
		URL:             "https://discord.com/api/v9/channels/1/messages",
	})

	events := sink.all()
	require.Len(t, events, 4)

	assert.Equal(t, bot.EventReady, events[0].Kind)
	assert.Equal(t, "auditbot", events[0].BotTag)
	assert.Equal(t, 2, events[0].GuildCount)

	assert.Equal(t, bot.EventGuildJoined, events[1].Kind)
	assert.Equal(t, "g3", events[1].GuildID)
	assert.Equal(t, "Three", events[1].GuildName)
	assert.Equal(t, 7, events[1].MemberCount)

	assert.Equal(t, bot.EventGuildLeft, events[2].Kind)
	assert.Equal(t, "Two", events[2].GuildName)

	assert.Equal(t, bot.EventRateLimit, events[3].Kind)
	assert.Equal(t, 2*time.Second, events[3].RateLimit.RetryAfter)
	assert.Contains(t, events[3].RateLimit.Route, "/channels/1/messages")
}

func TestGatewayInteraction(t *testing.T) {
	t.Parallel()

	g, sink := attachedGateway(t)

	g.onInteraction(g.session, &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		User: &discordgo.User{ID: "u1", Username: "jane", Discriminator: "0"},
		Data: discordgo.ApplicationCommandInteractionData{Name: "ping"},
	}})
	g.onInteraction(g.session, &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionMessageComponent,
	}})

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, bot.EventInteraction, events[0].Kind)
	require.NotNil(t, events[0].Interaction)
	assert.Equal(t, "ping", events[0].Interaction.Name)
}

func TestGatewayDetached(t *testing.T) {
	t.Parallel()

	g, sink := attachedGateway(t)
	g.detach()

	g.onReady(g.session, &discordgo.Ready{})
	assert.Empty(t, sink.all())
}
