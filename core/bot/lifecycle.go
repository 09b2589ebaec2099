package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/dmitrymomot/auditbot/core/alert"
	"github.com/dmitrymomot/auditbot/core/logger"
	"github.com/dmitrymomot/auditbot/core/scheduler"
)

// RegisterCommands publishes the command catalog to the configured server in one call.
// Without a server id registration is skipped.
func (b *Bot) RegisterCommands(ctx context.Context) error {
	if b.cfg.ServerID == "" {
		b.logger.WarnContext(ctx, "Server ID not provided, skipping command registration")
		return nil
	}

	descs := b.registry.Descriptors()
	b.logger.InfoContext(ctx, fmt.Sprintf("Refreshing %d application commands", len(descs)),
		logger.GuildID(b.cfg.ServerID))

	if err := b.gw.RegisterCommands(ctx, b.cfg.ServerID, descs); err != nil {
		b.logger.ErrorContext(ctx, "Failed to register commands", logger.Error(err))
		return fmt.Errorf("%w: %w", ErrRegisterCommand, err)
	}

	b.logger.InfoContext(ctx, "Successfully registered application commands")
	return nil
}

// Start registers commands and opens the gateway. The bot becomes Ready when
// the gateway delivers its ready event.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	switch b.state {
	case StateStopped:
		if b.closing() {
			b.mu.Unlock()
			return ErrShuttingDown
		}
		b.state = StateStarting
	case StateShuttingDown:
		b.mu.Unlock()
		return ErrShuttingDown
	default:
		b.mu.Unlock()
		return ErrAlreadyStarted
	}
	b.mu.Unlock()

	b.logger.InfoContext(ctx, "Starting Discord bot...")

	if err := b.RegisterCommands(ctx); err != nil {
		b.setState(StateStopped)
		return err
	}

	b.mu.Lock()
	stopping := b.closing()
	b.mu.Unlock()
	if stopping {
		return ErrShuttingDown
	}

	if err := b.gw.Open(ctx, b.HandleEvent); err != nil {
		b.mu.Lock()
		if !b.closing() {
			b.state = StateStopped
		}
		b.mu.Unlock()
		b.logger.ErrorContext(ctx, "Failed to start Discord bot", logger.Error(err))
		return fmt.Errorf("%w: %w", ErrGatewayOpen, err)
	}

	// Stop may have run while Open was blocked. It saw opened == false and
	// left the connection alone, so it is closed here.
	b.mu.Lock()
	stopping = b.closing()
	if !stopping {
		b.opened = true
	}
	b.mu.Unlock()
	if stopping {
		if err := b.closeGateway(); err != nil {
			b.logger.WarnContext(ctx, "Failed to close gateway opened during shutdown", logger.Error(err))
		}
		return ErrShuttingDown
	}

	b.logger.InfoContext(ctx, "Discord bot started successfully")
	return nil
}

// Stop shuts the bot down. It is idempotent: later calls return the first result.
//
// Order: stop scheduled tasks, set the shutdown presence, notify operators in
// production, wait up to the grace period for in-flight interactions, close
// the gateway.
func (b *Bot) Stop(ctx context.Context) error {
	b.stopOnce.Do(func() {
		b.stopErr = b.shutdown(ctx)
	})
	return b.stopErr
}

func (b *Bot) shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.stopping = true
	b.state = StateShuttingDown
	opened := b.opened
	b.mu.Unlock()

	b.logger.InfoContext(ctx, "Stopping Discord bot...")

	var errs []error
	if err := b.scheduler.Stop(); err != nil && !errors.Is(err, scheduler.ErrNotStarted) {
		errs = append(errs, fmt.Errorf("stop scheduled tasks: %w", err))
	}

	if opened {
		b.setPresence(ctx, ShutdownPresence)
	}

	if b.cfg.IsProduction() {
		b.logger.InfoContext(ctx, "Bot shutting down")
		if err := b.alerter.SendAlert(ctx, "Bot shutting down", alert.LevelInfo); err != nil {
			b.logger.WarnContext(ctx, "Failed to send shutdown notification", logger.Error(err))
		}
	}

	if !b.waitInflight(b.cfg.ShutdownGrace) {
		b.logger.WarnContext(ctx, "Shutdown grace period elapsed with interactions in flight",
			logger.Duration(b.cfg.ShutdownGrace))
	}

	if opened {
		if err := b.closeGateway(); err != nil {
			errs = append(errs, fmt.Errorf("close gateway: %w", err))
		}
	}

	b.setState(StateStopped)
	b.logger.InfoContext(ctx, "Discord bot stopped")

	return errors.Join(errs...)
}

func (b *Bot) waitInflight(grace time.Duration) bool {
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()

	t := time.NewTimer(grace)
	defer t.Stop()

	select {
	case <-done:
		return true
	case <-t.C:
		return false
	}
}

// Run starts the bot and blocks until SIGINT, SIGTERM, ctx cancellation or a
// panic in a bot goroutine, then stops it. A single shutdown runs no matter how
// many signals arrive. Run returns the panic cause, if any.
func (b *Bot) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := b.Start(ctx); err != nil {
		return err
	}

	var cause error
	select {
	case sig := <-sigCh:
		b.logger.InfoContext(ctx, fmt.Sprintf("Received %s, shutting down gracefully...", signalName(sig)))
	case <-ctx.Done():
		b.logger.InfoContext(ctx, "Context cancelled, shutting down gracefully...")
	case err := <-b.fatal:
		cause = err
		b.logger.ErrorContext(ctx, "Uncaught exception", logger.Error(err))
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*b.cfg.ShutdownGrace)
	defer cancel()

	if err := b.Stop(stopCtx); err != nil {
		b.logger.ErrorContext(stopCtx, "Error during shutdown", logger.Error(err))
	}
	b.logger.InfoContext(stopCtx, "Bot shutdown complete")

	return cause
}

// goSafe runs fn in a goroutine. A returned error is logged only; a panic is
// logged and triggers shutdown through Run.
func (b *Bot) goSafe(ctx context.Context, name string, fn func(context.Context) error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("%w in %s: %v", ErrUncaughtPanic, name, r)
				b.logger.ErrorContext(ctx, "Uncaught exception in background task",
					logger.Error(err),
					slog.String("stack", string(debug.Stack())))
				select {
				case b.fatal <- err:
				default:
				}
			}
		}()

		if err := fn(ctx); err != nil {
			b.logger.ErrorContext(ctx, "Unhandled background error",
				slog.String("task", name),
				logger.Error(err))
		}
	}()
}

// closeGateway closes the connection at most once.
func (b *Bot) closeGateway() error {
	var err error
	b.closeOnce.Do(func() {
		err = b.gw.Close()
	})
	return err
}

// setPresence serializes presence updates. Once shutdown has begun only the
// shutdown presence is applied.
func (b *Bot) setPresence(ctx context.Context, text string) {
	b.presenceMu.Lock()
	defer b.presenceMu.Unlock()

	if text != ShutdownPresence {
		b.mu.Lock()
		stopping := b.closing()
		b.mu.Unlock()
		if stopping {
			return
		}
	}

	if err := b.gw.SetPresence(ctx, text); err != nil {
		b.logger.WarnContext(ctx, "Failed to set presence", logger.Error(err))
	}
}

func (b *Bot) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// closing reports whether Stop has begun. Callers hold b.mu.
func (b *Bot) closing() bool {
	return b.stopping
}

func signalName(sig os.Signal) string {
	switch sig {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return sig.String()
	}
}
