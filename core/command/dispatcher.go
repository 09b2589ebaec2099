package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/auditbot/core/logger"
	"github.com/dmitrymomot/auditbot/core/metrics"
)

// User-visible failure texts.
const (
	NotFoundMessage   = "Command not found"
	FailedMessage     = "Command failed to execute"
	UnexpectedMessage = "An unexpected error occurred. Please try again later."
)

// Recorder receives one record per dispatch of a registered command.
type Recorder interface {
	RecordCommandExecution(ctx context.Context, rec metrics.ExecutionRecord)
}

// Dispatcher routes invocations to registered commands.
//
// Within one dispatch the order is: middleware (rate limit, logging), then
// Validate and Execute, then the execution record.
type Dispatcher struct {
	registry   *Registry
	middleware []Middleware
	recorder   Recorder
	logger     *slog.Logger
	now        func() time.Time
}

// NewDispatcher creates a dispatcher for an immutable registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	if registry == nil {
		registry = MustRegistry()
	}

	d := &Dispatcher{
		registry: registry,
		logger:   logger.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Registry returns the dispatcher's command table.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Execute runs the command named by cc.Name. It never panics.
func (d *Dispatcher) Execute(ctx context.Context, cc *Context) Result {
	cmd, ok := d.registry.Get(cc.Name)
	if !ok {
		d.logger.DebugContext(ctx, "unknown command",
			logger.Component("dispatcher"),
			logger.Command(cc.Name),
			logger.UserID(cc.UserID))
		return Fail(NotFoundMessage)
	}

	if cc.ReceivedAt.IsZero() {
		cc.ReceivedAt = d.now()
	}
	ctx = WithExecutionID(ctx, uuid.NewString())

	h := chainMiddleware(d.invoke(cmd), d.middleware)
	return h(ctx, cc)
}

// invoke returns the innermost handler: validate, execute, record.
func (d *Dispatcher) invoke(cmd Command) HandlerFunc {
	return func(ctx context.Context, cc *Context) Result {
		start := d.now()
		ctx = WithStartProcessingTime(ctx, start)

		res := d.run(ctx, cmd, cc)
		elapsed := d.now().Sub(start)

		if d.recorder != nil {
			d.recorder.RecordCommandExecution(ctx, metrics.ExecutionRecord{
				ID:              ExecutionID(ctx),
				CommandName:     cmd.Name(),
				UserID:          cc.UserID,
				GuildID:         cc.Scope(),
				ExecutionTimeMs: elapsed.Milliseconds(),
				Success:         res.Success,
				Error:           res.Error,
				Timestamp:       start,
			})
		}

		return res
	}
}

func (d *Dispatcher) run(ctx context.Context, cmd Command, cc *Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			perr := &ExecutionError{Command: cmd.Name(), Value: r, Stack: debug.Stack()}
			d.logger.ErrorContext(ctx, "Command execution failed: "+cmd.Name(),
				logger.Component("dispatcher"),
				logger.Command(cmd.Name()),
				logger.UserID(cc.UserID),
				logger.GuildID(cc.GuildID),
				logger.Error(perr),
				slog.String("stack", string(perr.Stack)))
			res = Fail(perr.Error())
		}
	}()

	if desc := cmd.Describe(); desc.AdminOnly && !cc.IsAdmin {
		return d.reject(ctx, cc, "This command requires administrator permissions")
	}

	if err := cmd.Validate(cc); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return d.reject(ctx, cc, verr.Message)
		}
		d.logger.ErrorContext(ctx, "Command validation failed: "+cmd.Name(),
			logger.Component("dispatcher"),
			logger.Command(cmd.Name()),
			logger.Error(err))
		return Fail(err.Error())
	}

	return cmd.Execute(ctx, cc)
}

// reject answers a user input problem and returns the matching failure.
func (d *Dispatcher) reject(ctx context.Context, cc *Context, msg string) Result {
	d.logger.InfoContext(ctx, "command rejected",
		logger.Component("dispatcher"),
		logger.Command(cc.Name),
		logger.UserID(cc.UserID),
		logger.Result(msg))

	if cc.Responder != nil && !cc.Responder.Replied() {
		if err := cc.Reply(ctx, Reply{Content: "❌ " + msg, Ephemeral: true}); err != nil {
			d.logger.WarnContext(ctx, "failed to send rejection reply",
				logger.Component("dispatcher"),
				logger.Command(cc.Name),
				logger.Error(fmt.Errorf("reply: %w", err)))
		}
	}
	return Fail(msg)
}
