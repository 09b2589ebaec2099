// Package command provides the slash command registry and dispatcher.
//
// Commands are registered once, at construction, into an immutable Registry.
// The Dispatcher looks a command up by name, runs the middleware chain, then
// Validate and Execute, and finally sends an execution record to the
// configured Recorder. Panics inside a command are recovered, logged at error
// level and turned into a failed Result.
//
// # Quick Start
//
//	ping := &command.Definition{
//		Descriptor: command.Descriptor{Name: "ping", Description: "Check bot latency"},
//		ExecuteFunc: func(ctx context.Context, cc *command.Context) command.Result {
//			return command.OK(map[string]any{"latency": 0})
//		},
//	}
//
//	registry, err := command.NewRegistry(ping)
//	if err != nil {
//		return err // duplicate or empty names
//	}
//
//	dispatcher := command.NewDispatcher(registry,
//		command.WithLogger(log),
//		command.WithRecorder(collector),
//		command.WithMiddleware(
//			command.RateLimitMiddleware(limiter, log),
//			command.LoggingMiddleware(log),
//		),
//	)
//
//	res := dispatcher.Execute(ctx, &command.Context{Name: "ping", UserID: "42"})
//
// # Results
//
// Unknown names yield Fail("Command not found") and produce no execution
// record. Invocations rejected by RateLimitMiddleware never reach the command
// and are not recorded either. Everything else is recorded, including
// validation failures and recovered panics.
//
// # Validation
//
// Returning a *ValidationError (see Invalid) from Validate makes the
// dispatcher answer the user with an ephemeral "❌ <message>" reply. Commands
// with Descriptor.AdminOnly are rejected the same way for non-admin users.
package command
