// Package health monitors bot health and exposes it over HTTP.
//
// A Monitor measures shared store latency, the error rate of the last hour,
// process memory and uptime, and classifies them:
//
//   - unhealthy: probe latency above 5s or heap above 500MB
//   - degraded: more than 10 failed commands in the last hour
//   - healthy: everything else
//
// Tick is meant to be scheduled every few minutes; it logs non-healthy
// snapshots and, in production, alerts operators.
//
//	monitor := health.NewMonitor(
//		health.WithProbe(redis.Healthcheck(client)),
//		health.WithMetrics(collector),
//		health.WithAlerter(alerter),
//		health.WithProduction(cfg.IsProduction()),
//	)
//
// HTTP handlers:
//   - Liveness: process is running
//   - Readiness: all dependency checks pass
//   - StatusHandler: JSON snapshot, 503 when unhealthy
//
// Dependency checks follow the func(context.Context) error signature:
//
//	http.ListenAndServe(addr, health.NewHandler(log, monitor, prometheus.DefaultGatherer,
//		redis.Healthcheck(client),
//	))
package health
