package command

import (
	"fmt"
)

// Registry is an immutable name-to-command table built once at startup.
type Registry struct {
	commands map[string]Command
	order    []string
}

// NewRegistry builds a registry. Commands keep their registration order.
func NewRegistry(cmds ...Command) (*Registry, error) {
	r := &Registry{
		commands: make(map[string]Command, len(cmds)),
		order:    make([]string, 0, len(cmds)),
	}

	for _, c := range cmds {
		if c == nil {
			return nil, ErrNilCommand
		}
		name := c.Name()
		if name == "" {
			return nil, ErrEmptyCommandName
		}
		if _, exists := r.commands[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
		}
		r.commands[name] = c
		r.order = append(r.order, name)
	}

	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(cmds ...Command) *Registry {
	r, err := NewRegistry(cmds...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the command registered under name.
func (r *Registry) Get(name string) (Command, bool) {
	c, ok := r.commands[name]
	return c, ok
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	return len(r.order)
}

// Names returns command names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// List returns commands in registration order.
func (r *Registry) List() []Command {
	out := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.commands[name])
	}
	return out
}

// Descriptors returns every command's descriptor in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.commands[name].Describe())
	}
	return out
}
