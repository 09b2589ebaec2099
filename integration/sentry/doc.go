// Package sentry adapts getsentry/sentry-go to the bot's error tracking
// collaborator.
//
//	tracker, err := sentry.New(cfg)
//	if err != nil {
//		return err
//	}
//	defer tracker.Close()
//
//	log := logger.New(logger.WithReporter(tracker))
//	collector, _ := metrics.New(store, metrics.WithBreadcrumbs(tracker))
//
// With an empty DSN the tracker is disabled and every call is a no-op.
package sentry
