package command

import (
	"errors"
	"fmt"
)

var (
	// ErrCommandNotFound is returned when no command is registered under a name.
	ErrCommandNotFound = errors.New("command not found")

	// ErrDuplicateCommand is returned when two commands share a name.
	ErrDuplicateCommand = errors.New("command already registered")

	// ErrEmptyCommandName is returned when a command reports an empty name.
	ErrEmptyCommandName = errors.New("command name cannot be empty")

	// ErrNilCommand is returned when a nil command is passed to the registry.
	ErrNilCommand = errors.New("command cannot be nil")

	// ErrCommandPanicked is wrapped by ExecutionError.
	ErrCommandPanicked = errors.New("command panicked")

	// ErrRateLimited marks rate-limited invocations in logs.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNoResponder is returned by Context helpers when the invocation cannot reply.
	ErrNoResponder = errors.New("no responder attached to invocation")
)

// ValidationError is a user-facing input error returned by Command.Validate.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid creates a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ExecutionError wraps a panic recovered while running a command.
type ExecutionError struct {
	Command string
	Value   any
	Stack   []byte
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%v", e.Value)
}

func (e *ExecutionError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return errors.Join(ErrCommandPanicked, err)
	}
	return ErrCommandPanicked
}
