package app

import (
	"context"

	"github.com/dmitrymomot/auditbot/core/bot"
	"github.com/dmitrymomot/auditbot/core/config"
	"github.com/dmitrymomot/auditbot/core/logger"
	"github.com/dmitrymomot/auditbot/integration/discord"
)

// Register publishes the command catalog and returns. It builds only the
// logger, the gateway and a standalone bot with in-memory defaults: no Redis,
// Sentry, Prometheus or webhook, and no process-wide bot instance.
func Register(ctx context.Context, opts ...AppOption) error {
	a := &App{}
	if err := config.Load(&a.config); err != nil {
		return err
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return err
		}
	}

	cfg := a.config.Bot
	if err := cfg.Validate(); err != nil {
		return err
	}

	if a.logger == nil {
		a.logger = newLogger(a.config, nil)
	}

	if a.gateway == nil {
		gw, err := discord.New(cfg.Token, cfg.AppID, discord.WithLogger(a.logger))
		if err != nil {
			return err
		}
		a.gateway = gw
	}

	b, err := bot.New(cfg, a.gateway, bot.WithLogger(a.logger))
	if err != nil {
		return err
	}

	a.logger.InfoContext(ctx, "Registering application commands", logger.Component("register"))
	return b.RegisterCommands(ctx)
}
