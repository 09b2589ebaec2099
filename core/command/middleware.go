package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/auditbot/core/logger"
	"github.com/dmitrymomot/auditbot/pkg/ratelimiter"
)

// HandlerFunc handles one invocation.
type HandlerFunc func(ctx context.Context, cc *Context) Result

// Middleware wraps a HandlerFunc to add cross-cutting functionality.
type Middleware func(next HandlerFunc) HandlerFunc

func chainMiddleware(h HandlerFunc, middleware []Middleware) HandlerFunc {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

// LoggingMiddleware logs command start, completion and failure.
func LoggingMiddleware(log *slog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, cc *Context) Result {
			start := time.Now()

			log.DebugContext(ctx, "command started",
				logger.Command(cc.Name),
				logger.UserID(cc.UserID),
				logger.GuildID(cc.GuildID))

			res := next(ctx, cc)

			attrs := []any{
				logger.Command(cc.Name),
				logger.UserID(cc.UserID),
				logger.GuildID(cc.GuildID),
				logger.Elapsed(start),
				logger.ID("execution_id", ExecutionID(ctx)),
			}
			if res.Success {
				log.InfoContext(ctx, "command completed", attrs...)
			} else {
				log.InfoContext(ctx, "command failed", append(attrs, logger.Result(res.Error))...)
			}

			return res
		}
	}
}

// Checker is the rate limiter contract used by RateLimitMiddleware.
type Checker interface {
	Check(ctx context.Context, subject string) ratelimiter.Result
}

// RateLimitMessage formats the reply sent to a rate-limited user.
func RateLimitMessage(resetAt time.Time) string {
	return fmt.Sprintf("Rate limit exceeded. Please try again <t:%d:R>.", resetAt.Unix())
}

// RateLimitMiddleware admits at most the limiter's quota of invocations per user.
// Rejected invocations get an ephemeral reply and never reach the command.
// The failure result carries the same message, so a caller can still answer
// the user when the reply could not be sent.
func RateLimitMiddleware(limiter Checker, log *slog.Logger) Middleware {
	if log == nil {
		log = logger.Discard()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, cc *Context) Result {
			rl := limiter.Check(ctx, cc.UserID)
			if rl.Allowed {
				return next(ctx, cc)
			}

			msg := RateLimitMessage(rl.ResetAt)
			log.InfoContext(ctx, "command rate limited",
				logger.Command(cc.Name),
				logger.UserID(cc.UserID),
				slog.Time("reset_at", rl.ResetAt))

			if cc.Responder != nil && !cc.Responder.Replied() {
				if err := cc.Reply(ctx, Reply{Content: "❌ " + msg, Ephemeral: true}); err != nil {
					log.WarnContext(ctx, "failed to send rate limit reply",
						logger.Command(cc.Name),
						logger.UserID(cc.UserID),
						logger.Error(fmt.Errorf("%w: reply: %w", ErrRateLimited, err)))
				}
			}
			return Result{Success: false, Error: msg, Data: rl}
		}
	}
}
