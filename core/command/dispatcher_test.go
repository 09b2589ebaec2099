package command_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/auditbot/core/command"
	"github.com/dmitrymomot/auditbot/core/command/commandtest"
	"github.com/dmitrymomot/auditbot/core/logger"
	"github.com/dmitrymomot/auditbot/core/metrics"
	"github.com/dmitrymomot/auditbot/pkg/ratelimiter"
)

type recorder struct {
	mu      sync.Mutex
	records []metrics.ExecutionRecord
}

func (r *recorder) RecordCommandExecution(_ context.Context, rec metrics.ExecutionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *recorder) all() []metrics.ExecutionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]metrics.ExecutionRecord(nil), r.records...)
}

func TestDispatcher_Execute(t *testing.T) {
	t.Parallel()

	t.Run("unknown command is not recorded", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		d := command.NewDispatcher(command.MustRegistry(def("ping", nil)), command.WithRecorder(rec))

		res := d.Execute(context.Background(), &command.Context{Name: "nope", UserID: "u1"})
		assert.Equal(t, command.Result{Success: false, Error: "Command not found"}, res)
		assert.Empty(t, rec.all())
	})

	t.Run("success is recorded", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		d := command.NewDispatcher(command.MustRegistry(def("ping", func(ctx context.Context, cc *command.Context) command.Result {
			assert.NotEmpty(t, command.ExecutionID(ctx))
			assert.False(t, command.StartProcessingTime(ctx).IsZero())
			return command.OK("pong")
		})), command.WithRecorder(rec))

		res := d.Execute(context.Background(), &command.Context{Name: "ping", UserID: "u1", GuildID: "g1"})
		assert.True(t, res.Success)
		assert.Equal(t, "pong", res.Data)

		records := rec.all()
		require.Len(t, records, 1)
		assert.Equal(t, "ping", records[0].CommandName)
		assert.Equal(t, "u1", records[0].UserID)
		assert.Equal(t, "g1", records[0].GuildID)
		assert.True(t, records[0].Success)
		assert.NotEmpty(t, records[0].ID)
		assert.GreaterOrEqual(t, records[0].ExecutionTimeMs, int64(0))
	})

	t.Run("direct message uses DM scope", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		d := command.NewDispatcher(command.MustRegistry(def("ping", nil)), command.WithRecorder(rec))
		d.Execute(context.Background(), &command.Context{Name: "ping", UserID: "u1"})

		require.Len(t, rec.all(), 1)
		assert.Equal(t, "DM", rec.all()[0].GuildID)
	})

	t.Run("failure result is recorded", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		d := command.NewDispatcher(command.MustRegistry(def("status", func(context.Context, *command.Context) command.Result {
			return command.Fail("Failed to retrieve bot status")
		})), command.WithRecorder(rec))

		res := d.Execute(context.Background(), &command.Context{Name: "status", UserID: "u1"})
		assert.False(t, res.Success)
		assert.Equal(t, "Failed to retrieve bot status", res.Error)

		require.Len(t, rec.all(), 1)
		assert.False(t, rec.all()[0].Success)
		assert.Equal(t, "Failed to retrieve bot status", rec.all()[0].Error)
	})

	t.Run("panic is recovered logged and recorded", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		rec := &recorder{}
		d := command.NewDispatcher(
			command.MustRegistry(def("boom", func(context.Context, *command.Context) command.Result {
				panic(errors.New("kaboom"))
			})),
			command.WithRecorder(rec),
			command.WithLogger(logger.New(logger.WithOutput(&buf))),
		)

		var res command.Result
		require.NotPanics(t, func() {
			res = d.Execute(context.Background(), &command.Context{Name: "boom", UserID: "u1"})
		})

		assert.False(t, res.Success)
		assert.Equal(t, "kaboom", res.Error)
		assert.Contains(t, buf.String(), "Command execution failed: boom")

		require.Len(t, rec.all(), 1)
		assert.False(t, rec.all()[0].Success)
	})

	t.Run("validation error replies to user", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		executed := false
		cmd := &command.Definition{
			Descriptor: command.Descriptor{Name: "alert-lead"},
			ValidateFunc: func(cc *command.Context) error {
				return command.Invalid("email", "Invalid email format")
			},
			ExecuteFunc: func(context.Context, *command.Context) command.Result {
				executed = true
				return command.OK(nil)
			},
		}
		d := command.NewDispatcher(command.MustRegistry(cmd), command.WithRecorder(rec))

		resp := &commandtest.Responder{}
		res := d.Execute(context.Background(), &command.Context{Name: "alert-lead", UserID: "u1", Responder: resp})

		assert.False(t, executed)
		assert.Equal(t, command.Fail("Invalid email format"), res)
		require.Len(t, resp.Replies(), 1)
		assert.Equal(t, "❌ Invalid email format", resp.Replies()[0].Content)
		assert.True(t, resp.Replies()[0].Ephemeral)
		assert.Len(t, rec.all(), 1)
	})

	t.Run("non validation error does not reply", func(t *testing.T) {
		t.Parallel()

		cmd := &command.Definition{
			Descriptor:   command.Descriptor{Name: "x"},
			ValidateFunc: func(*command.Context) error { return errors.New("internal") },
			ExecuteFunc:  func(context.Context, *command.Context) command.Result { return command.OK(nil) },
		}
		d := command.NewDispatcher(command.MustRegistry(cmd))

		resp := &commandtest.Responder{}
		res := d.Execute(context.Background(), &command.Context{Name: "x", Responder: resp})
		assert.Equal(t, "internal", res.Error)
		assert.Empty(t, resp.Replies())
	})

	t.Run("admin only rejects regular users", func(t *testing.T) {
		t.Parallel()

		cmd := &command.Definition{
			Descriptor:  command.Descriptor{Name: "alert-system", AdminOnly: true},
			ExecuteFunc: func(context.Context, *command.Context) command.Result { return command.OK("sent") },
		}
		d := command.NewDispatcher(command.MustRegistry(cmd))

		resp := &commandtest.Responder{}
		res := d.Execute(context.Background(), &command.Context{Name: "alert-system", Responder: resp})
		assert.False(t, res.Success)
		require.Len(t, resp.Replies(), 1)
		assert.Contains(t, resp.Replies()[0].Content, "administrator")

		res = d.Execute(context.Background(), &command.Context{Name: "alert-system", IsAdmin: true})
		assert.True(t, res.Success)
	})

	t.Run("nil execute func fails", func(t *testing.T) {
		t.Parallel()
		d := command.NewDispatcher(command.MustRegistry(&command.Definition{Descriptor: command.Descriptor{Name: "x"}}))
		assert.Equal(t, command.Fail(command.FailedMessage), d.Execute(context.Background(), &command.Context{Name: "x"}))
	})

	t.Run("execution time uses clock", func(t *testing.T) {
		t.Parallel()

		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		var mu sync.Mutex
		calls := 0
		clock := func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			calls++
			return base.Add(time.Duration(calls) * 25 * time.Millisecond)
		}

		rec := &recorder{}
		d := command.NewDispatcher(command.MustRegistry(def("ping", nil)), command.WithRecorder(rec), command.WithClock(clock))
		d.Execute(context.Background(), &command.Context{Name: "ping"})

		require.Len(t, rec.all(), 1)
		assert.Equal(t, int64(25), rec.all()[0].ExecutionTimeMs)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("order is outermost first", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var trace []string
		mark := func(name string) command.Middleware {
			return func(next command.HandlerFunc) command.HandlerFunc {
				return func(ctx context.Context, cc *command.Context) command.Result {
					mu.Lock()
					trace = append(trace, name)
					mu.Unlock()
					return next(ctx, cc)
				}
			}
		}

		d := command.NewDispatcher(
			command.MustRegistry(def("ping", func(context.Context, *command.Context) command.Result {
				mu.Lock()
				trace = append(trace, "handler")
				mu.Unlock()
				return command.OK(nil)
			})),
			command.WithMiddleware(mark("first"), mark("second")),
		)
		d.Execute(context.Background(), &command.Context{Name: "ping"})

		assert.Equal(t, []string{"first", "second", "handler"}, trace)
	})

	t.Run("logging middleware", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf))
		d := command.NewDispatcher(
			command.MustRegistry(def("ping", nil), def("bad", func(context.Context, *command.Context) command.Result {
				return command.Fail("nope")
			})),
			command.WithMiddleware(command.LoggingMiddleware(log)),
		)

		d.Execute(context.Background(), &command.Context{Name: "ping", UserID: "u1"})
		d.Execute(context.Background(), &command.Context{Name: "bad", UserID: "u1"})

		out := buf.String()
		assert.Contains(t, out, "command completed")
		assert.Contains(t, out, "command failed")
		assert.Contains(t, out, "result=nope")
	})

	t.Run("rate limited invocation never reaches handler", func(t *testing.T) {
		t.Parallel()

		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		limiter, err := ratelimiter.New(ratelimiter.NewMemoryStore(),
			ratelimiter.WithClock(func() time.Time { return base }),
			ratelimiter.WithConfig(ratelimiter.Config{Window: time.Minute, MaxRequests: 1}))
		require.NoError(t, err)

		calls := 0
		rec := &recorder{}
		d := command.NewDispatcher(
			command.MustRegistry(def("ping", func(context.Context, *command.Context) command.Result {
				calls++
				return command.OK(nil)
			})),
			command.WithRecorder(rec),
			command.WithMiddleware(command.RateLimitMiddleware(limiter, nil)),
		)

		assert.True(t, d.Execute(context.Background(), &command.Context{Name: "ping", UserID: "u1"}).Success)

		resp := &commandtest.Responder{}
		res := d.Execute(context.Background(), &command.Context{Name: "ping", UserID: "u1", Responder: resp})

		assert.False(t, res.Success)
		assert.Equal(t, command.RateLimitMessage(base.Add(time.Minute)), res.Error)
		assert.Equal(t, 1, calls)
		assert.Len(t, rec.all(), 1)

		require.Len(t, resp.Replies(), 1)
		assert.Equal(t, "❌ "+command.RateLimitMessage(base.Add(time.Minute)), resp.Replies()[0].Content)
		assert.True(t, resp.Replies()[0].Ephemeral)

		rl, ok := res.Data.(ratelimiter.Result)
		require.True(t, ok)
		assert.False(t, rl.Allowed)
	})
}

func TestRateLimitMiddleware_ReplyFailure(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter, err := ratelimiter.New(ratelimiter.NewMemoryStore(),
		ratelimiter.WithClock(func() time.Time { return base }),
		ratelimiter.WithConfig(ratelimiter.Config{Window: time.Minute, MaxRequests: 1}))
	require.NoError(t, err)

	var buf bytes.Buffer
	d := command.NewDispatcher(
		command.MustRegistry(def("ping", nil)),
		command.WithMiddleware(command.RateLimitMiddleware(limiter, logger.New(logger.WithOutput(&buf)))),
	)

	require.True(t, d.Execute(context.Background(), &command.Context{Name: "ping", UserID: "u1"}).Success)

	resp := &commandtest.Responder{Err: errors.New("interaction expired")}
	res := d.Execute(context.Background(), &command.Context{Name: "ping", UserID: "u1", Responder: resp})

	assert.False(t, res.Success)
	assert.False(t, resp.Replied())
	assert.Equal(t, command.RateLimitMessage(base.Add(time.Minute)), res.Error)
	assert.Contains(t, buf.String(), "failed to send rate limit reply")
	assert.Contains(t, buf.String(), "interaction expired")
}

func TestRateLimitMessage(t *testing.T) {
	t.Parallel()
	at := time.Unix(1767225600, 0)
	assert.Equal(t, "Rate limit exceeded. Please try again <t:1767225600:R>.", command.RateLimitMessage(at))
}
