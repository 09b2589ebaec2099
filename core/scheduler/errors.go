package scheduler

import "errors"

var (
	ErrTaskAlreadyRegistered = errors.New("task already registered")
	ErrInvalidInterval       = errors.New("task interval must be positive")
	ErrNilTask               = errors.New("task function cannot be nil")
	ErrNoTasks               = errors.New("scheduler has no tasks")
	ErrAlreadyStarted        = errors.New("scheduler already started")
	ErrNotStarted            = errors.New("scheduler not started")
	ErrShutdownTimeout       = errors.New("scheduler shutdown timeout exceeded")
	ErrTaskPanicked          = errors.New("task panicked")
)
