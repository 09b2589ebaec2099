package app

import (
	"github.com/dmitrymomot/auditbot/core/bot"
	"github.com/dmitrymomot/auditbot/core/server"
	"github.com/dmitrymomot/auditbot/integration/database/redis"
	"github.com/dmitrymomot/auditbot/integration/discord"
	"github.com/dmitrymomot/auditbot/integration/sentry"
)

// Store backends for rate limit windows and the execution log.
const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config aggregates every component configuration of the bot process.
type Config struct {
	Bot     bot.Config
	Redis   redis.Config
	Sentry  sentry.Config
	Webhook discord.WebhookConfig
	Server  server.Config

	AppName string `env:"APP_NAME" envDefault:"auditbot"`
	Store   string `env:"BOT_STORE" envDefault:"redis"`
}
