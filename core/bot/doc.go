// Package bot is the lifecycle controller of the chat bot.
//
// A Bot owns a Gateway connection, the command dispatcher with its rate limit
// gate, the metrics collector and the health monitor. Gateway events enter
// through HandleEvent and are routed by a fixed event table built in New.
//
// Lifecycle:
//
//	Stopped -> Starting -> Ready -> ShuttingDown -> Stopped
//
// Start registers the command catalog and opens the gateway. The ready event
// starts the periodic health and metrics cleanup tasks. Stop is idempotent:
// it stops the tasks, waits for in-flight interactions up to the configured
// grace period and closes the gateway exactly once. Interactions arriving
// after shutdown began are dropped.
//
// Run wraps Start and Stop with SIGINT/SIGTERM handling and stops the bot when
// a goroutine launched by the bot panics.
//
// Basic usage:
//
//	var cfg bot.Config
//	config.MustLoad(&cfg)
//
//	b, err := bot.New(cfg, gateway, bot.WithLogger(log), bot.WithAlerter(alerter))
//	if err != nil {
//		return err
//	}
//	return b.Run(ctx)
//
// Init, Default and Reset manage a single process-wide instance.
package bot
