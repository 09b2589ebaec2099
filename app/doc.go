// Package app is the composition root of the bot process.
//
// NewApp loads Config from the environment and builds the logger (escalating
// to Sentry when SENTRY_DSN is set), the Redis or in-memory stores, the
// Prometheus registry, the webhook alerter, the Discord gateway and the bot.
// Run serves the bot and the optional status server under one errgroup.
// Register publishes the command catalog without building the stores.
//
//	a, err := app.NewApp(ctx)
//	if err != nil {
//		return err
//	}
//	defer a.Close()
//	return a.Run(ctx)
package app
