package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/auditbot/core/logger"
)

// Func is the body of a periodic task. ctx is cancelled when the scheduler stops.
type Func func(ctx context.Context) error

type task struct {
	name     string
	interval time.Duration
	fn       Func

	runs     atomic.Int64
	failures atomic.Int64

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// Scheduler runs named tasks at fixed intervals, each in its own goroutine.
// A task never overlaps with itself: the next tick waits for the current run.
type Scheduler struct {
	mu    sync.RWMutex
	tasks []*task
	index map[string]*task

	logger          *slog.Logger
	now             func() time.Time
	shutdownTimeout time.Duration

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
	active  atomic.Int32
}

// TaskStats describes one registered task.
type TaskStats struct {
	Name      string
	Interval  time.Duration
	Runs      int64
	Failures  int64
	LastRun   time.Time
	LastError string
}

// Stats provides observability data for monitoring and debugging.
type Stats struct {
	Tasks     []TaskStats
	Active    int32 // tasks currently executing
	IsRunning bool
}

// New creates a scheduler with no tasks.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		index:           make(map[string]*task),
		logger:          logger.Discard(),
		now:             time.Now,
		shutdownTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Every registers fn to run every interval once the scheduler starts.
// The first run happens one interval after Start.
func (s *Scheduler) Every(name string, interval time.Duration, fn Func) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, name)
	}
	if fn == nil {
		return fmt.Errorf("%w: %s", ErrNilTask, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyStarted
	}
	if _, exists := s.index[name]; exists {
		return fmt.Errorf("%w: %s", ErrTaskAlreadyRegistered, name)
	}

	t := &task{name: name, interval: interval, fn: fn}
	s.tasks = append(s.tasks, t)
	s.index[name] = t

	s.logger.Debug("registered periodic task",
		logger.Component("scheduler"),
		slog.String("task_name", name),
		slog.Duration("interval", interval))

	return nil
}

// Start launches every task and returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyStarted
	}
	if len(s.tasks) == 0 {
		return ErrNoTasks
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.running.Store(true)

	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(runCtx, t)
	}

	s.logger.InfoContext(ctx, "scheduler started",
		logger.Component("scheduler"),
		slog.Int("task_count", len(s.tasks)))

	return nil
}

// Stop cancels every task and waits up to the shutdown timeout for running
// ones to return. Calling Stop on a stopped scheduler returns ErrNotStarted.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return ErrNotStarted
	}
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	s.running.Store(false)
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(s.shutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		s.logger.Info("scheduler stopped cleanly", logger.Component("scheduler"))
		return nil
	case <-timer.C:
		s.logger.Warn("scheduler shutdown timeout exceeded, some tasks may be abandoned",
			logger.Component("scheduler"),
			slog.Duration("timeout", s.shutdownTimeout))
		return fmt.Errorf("%w after %s", ErrShutdownTimeout, s.shutdownTimeout)
	}
}

// Stats returns a point-in-time view of every task.
func (s *Scheduler) Stats() Stats {
	s.mu.RLock()
	tasks := append([]*task(nil), s.tasks...)
	s.mu.RUnlock()

	st := Stats{
		Tasks:     make([]TaskStats, 0, len(tasks)),
		Active:    s.active.Load(),
		IsRunning: s.running.Load(),
	}
	for _, t := range tasks {
		t.mu.Lock()
		ts := TaskStats{
			Name:     t.name,
			Interval: t.interval,
			Runs:     t.runs.Load(),
			Failures: t.failures.Load(),
			LastRun:  t.lastRun,
		}
		if t.lastErr != nil {
			ts.LastError = t.lastErr.Error()
		}
		t.mu.Unlock()
		st.Tasks = append(st.Tasks, ts)
	}
	return st
}

// Healthcheck returns ErrNotStarted when the scheduler is not running.
// It fits the readiness check signature.
func (s *Scheduler) Healthcheck(context.Context) error {
	if !s.running.Load() {
		return ErrNotStarted
	}
	return nil
}

func (s *Scheduler) loop(ctx context.Context, t *task) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, t)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, t *task) {
	s.active.Add(1)
	defer s.active.Add(-1)

	start := s.now()
	err := s.safeCall(ctx, t)

	t.runs.Add(1)
	t.mu.Lock()
	t.lastRun = start
	t.lastErr = err
	t.mu.Unlock()

	if err != nil {
		t.failures.Add(1)
		s.logger.ErrorContext(ctx, "scheduled task failed",
			logger.Component("scheduler"),
			slog.String("task_name", t.name),
			logger.Error(err))
		return
	}

	s.logger.DebugContext(ctx, "scheduled task completed",
		logger.Component("scheduler"),
		slog.String("task_name", t.name),
		logger.Duration(s.now().Sub(start)))
}

func (s *Scheduler) safeCall(ctx context.Context, t *task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrTaskPanicked, t.name, r)
			s.logger.ErrorContext(ctx, "scheduled task panicked",
				logger.Component("scheduler"),
				slog.String("task_name", t.name),
				slog.String("stack", string(debug.Stack())))
		}
	}()
	return t.fn(ctx)
}
