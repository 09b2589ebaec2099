package builtin

import (
	"context"

	"github.com/dmitrymomot/auditbot/core/command"
)

type help struct {
	options
	list func() []command.Descriptor
}

// NewHelp returns the help command. list supplies the commands to show;
// help itself is omitted.
func NewHelp(list func() []command.Descriptor, opts ...Option) command.Command {
	return &help{options: newOptions(opts), list: list}
}

func (*help) Name() string { return "help" }

func (*help) Describe() command.Descriptor {
	return command.Descriptor{
		Name:        "help",
		Description: "Display available commands and their usage",
	}
}

func (*help) Validate(*command.Context) error { return nil }

func (h *help) Execute(ctx context.Context, cc *command.Context) command.Result {
	var fields []command.EmbedField
	if h.list != nil {
		for _, d := range h.list() {
			if d.Name == "help" {
				continue
			}
			fields = append(fields, command.EmbedField{Name: "/" + d.Name, Value: d.Description})
		}
	}

	err := cc.Reply(ctx, command.Reply{Embeds: []command.Embed{{
		Title:       "🤖 Bot Commands",
		Color:       ColorInfo,
		Description: "Here are all available commands:",
		Fields:      fields,
		Footer:      "Use /command-name to execute a command",
		Timestamp:   h.now(),
	}}})
	if err != nil {
		return command.Fail(err.Error())
	}
	return command.OK(nil)
}
