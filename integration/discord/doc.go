// Package discord connects the bot to Discord through bwmarrin/discordgo.
//
// Gateway implements bot.Gateway. It translates Ready, GuildCreate,
// GuildDelete, RateLimit and InteractionCreate into bot events, forwards
// discordgo's own log lines as error, warning and debug events and publishes
// the slash command catalog with a single bulk overwrite. Interactions carry a
// responder that answers through the interaction REST endpoints.
//
// Webhook implements alert.Alerter on top of a Discord webhook. Delivery is
// throttled with golang.org/x/time/rate and guarded by a sony/gobreaker
// circuit breaker.
//
//	gw, err := discord.New(cfg.Token, cfg.AppID, discord.WithLogger(log))
//	alerts, err := discord.NewWebhook(discord.WebhookConfig{URL: cfg.AlertWebhookURL})
package discord
