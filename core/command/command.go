package command

import (
	"context"
)

// Command is a named, self-describing slash command.
type Command interface {
	// Name returns the unique command name.
	Name() string

	// Describe returns the schema published to the chat platform.
	Describe() Descriptor

	// Validate checks invocation input before Execute runs.
	// Returning a *ValidationError produces a user-facing reply.
	Validate(cc *Context) error

	// Execute runs the command. Failures should be reported through the
	// returned Result rather than by panicking.
	Execute(ctx context.Context, cc *Context) Result
}

// Descriptor describes a command for catalog registration and help output.
type Descriptor struct {
	Name        string
	Description string
	Params      []Param
	AdminOnly   bool
}

// ParamType enumerates supported parameter kinds.
type ParamType int

const (
	ParamString ParamType = iota + 1
	ParamInteger
	ParamNumber
	ParamBoolean
	ParamUser
	ParamChannel
)

func (t ParamType) String() string {
	switch t {
	case ParamString:
		return "string"
	case ParamInteger:
		return "integer"
	case ParamNumber:
		return "number"
	case ParamBoolean:
		return "boolean"
	case ParamUser:
		return "user"
	case ParamChannel:
		return "channel"
	default:
		return "unknown"
	}
}

// Param describes one command parameter.
type Param struct {
	Name        string
	Description string
	Type        ParamType
	Required    bool
	Choices     []Choice
	MinValue    *float64
	MaxValue    *float64
	MaxLength   int
}

// Choice is a predefined value for a parameter.
type Choice struct {
	Name  string
	Value any
}

// Float returns a pointer to v, for Param.MinValue and Param.MaxValue.
func Float(v float64) *float64 {
	return &v
}

// Result is the outcome of a command.
type Result struct {
	Success bool
	Error   string
	Data    any
}

// OK returns a successful result carrying data.
func OK(data any) Result {
	return Result{Success: true, Data: data}
}

// Fail returns a failed result with a user-facing message.
func Fail(msg string) Result {
	return Result{Success: false, Error: msg}
}

// Definition implements Command from plain functions.
// ValidateFunc may be nil.
type Definition struct {
	Descriptor   Descriptor
	ValidateFunc func(cc *Context) error
	ExecuteFunc  func(ctx context.Context, cc *Context) Result
}

var _ Command = (*Definition)(nil)

func (d *Definition) Name() string         { return d.Descriptor.Name }
func (d *Definition) Describe() Descriptor { return d.Descriptor }

func (d *Definition) Validate(cc *Context) error {
	if d.ValidateFunc == nil {
		return nil
	}
	return d.ValidateFunc(cc)
}

func (d *Definition) Execute(ctx context.Context, cc *Context) Result {
	if d.ExecuteFunc == nil {
		return Fail("Command failed to execute")
	}
	return d.ExecuteFunc(ctx, cc)
}
