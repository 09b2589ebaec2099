// Package metrics records command executions and keeps bot counters.
//
// A Collector owns a set of named process-local counters and an execution Log.
// Every dispatch of a registered command is appended to the log, which is kept
// to the newest 1000 records; Cleanup purges records older than seven days.
//
//	log := metrics.NewRedisLog(redisClient)
//	collector, err := metrics.New(log,
//		metrics.WithLogger(l),
//		metrics.WithRegisterer(prometheus.DefaultRegisterer),
//		metrics.WithBreadcrumbs(tracker),
//	)
//
//	collector.RecordCommandExecution(ctx, metrics.ExecutionRecord{
//		CommandName:     "ping",
//		UserID:          userID,
//		GuildID:         guildID,
//		ExecutionTimeMs: elapsed.Milliseconds(),
//		Success:         true,
//	})
//
//	stats, err := collector.CommandStats(ctx, 24*time.Hour)
//
// With WithRegisterer the counters are mirrored into the
// auditbot_bot_counter_total{name} Prometheus counter and execution times into
// the auditbot_command_execution_seconds histogram.
package metrics
