// Package logger provides structured logging utilities built on Go's standard slog package.
//
// # Basic Usage
//
//	log := logger.New(
//		logger.WithProduction("auditbot"),
//		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
//	)
//
//	log.Info("Logged in",
//		logger.Component("bot"),
//		logger.Event("ready"),
//		logger.Count("guilds", n),
//	)
//
// # Error Escalation
//
// WithReporter wraps the handler in a ReportingHandler. Every record at warn level or
// above is forwarded to the Reporter after it has been written:
//
//	log := logger.New(logger.WithReporter(tracker))
//
//	// reported as an exception with tag component=dispatcher
//	log.Error("Command execution failed", logger.Component("dispatcher"), logger.Error(err))
//
//	// reported as a message at warning level
//	log.Warn("Rate limit hit", logger.Key("route", route))
//
// # Attribute Helpers
//
// Helpers return an empty slog.Attr for nil or empty input, so they can be passed
// unconditionally:
//
//	log.Info("Command executed",
//		logger.Command(name),
//		logger.UserID(userID),
//		logger.GuildID(guildID), // dropped for direct messages
//		logger.Duration(elapsed),
//		logger.Error(err),       // dropped when err == nil
//	)
//
// # Testing with Custom Output
//
//	var buf bytes.Buffer
//	log := logger.New(logger.WithJSONFormatter(), logger.WithOutput(&buf))
//	log.Info("Test message", logger.Component("test"))
//	assert.Contains(t, buf.String(), `"component":"test"`)
package logger
