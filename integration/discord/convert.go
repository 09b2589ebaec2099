package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/dmitrymomot/auditbot/core/command"
)

var optionTypes = map[command.ParamType]discordgo.ApplicationCommandOptionType{
	command.ParamString:  discordgo.ApplicationCommandOptionString,
	command.ParamInteger: discordgo.ApplicationCommandOptionInteger,
	command.ParamNumber:  discordgo.ApplicationCommandOptionNumber,
	command.ParamBoolean: discordgo.ApplicationCommandOptionBoolean,
	command.ParamUser:    discordgo.ApplicationCommandOptionUser,
	command.ParamChannel: discordgo.ApplicationCommandOptionChannel,
}

// ApplicationCommands converts descriptors into the slash command catalog.
// Admin-only commands are hidden from members without the Administrator permission.
func ApplicationCommands(descs []command.Descriptor) []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(descs))
	for _, d := range descs {
		ac := &discordgo.ApplicationCommand{
			Type:        discordgo.ChatApplicationCommand,
			Name:        d.Name,
			Description: d.Description,
		}
		if d.AdminOnly {
			perm := int64(discordgo.PermissionAdministrator)
			ac.DefaultMemberPermissions = &perm
		}
		for _, p := range d.Params {
			ac.Options = append(ac.Options, applicationCommandOption(p))
		}
		out = append(out, ac)
	}
	return out
}

func applicationCommandOption(p command.Param) *discordgo.ApplicationCommandOption {
	opt := &discordgo.ApplicationCommandOption{
		Type:        optionTypes[p.Type],
		Name:        p.Name,
		Description: p.Description,
		Required:    p.Required,
		MinValue:    p.MinValue,
		MaxLength:   p.MaxLength,
	}
	if p.MaxValue != nil {
		opt.MaxValue = *p.MaxValue
	}
	for _, c := range p.Choices {
		opt.Choices = append(opt.Choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  c.Name,
			Value: c.Value,
		})
	}
	return opt
}

// Options flattens interaction options into typed values.
func Options(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]any {
	out := make(map[string]any, len(opts))
	for _, o := range opts {
		switch o.Type {
		case discordgo.ApplicationCommandOptionString:
			out[o.Name] = o.StringValue()
		case discordgo.ApplicationCommandOptionInteger:
			out[o.Name] = o.IntValue()
		case discordgo.ApplicationCommandOptionNumber:
			out[o.Name] = o.FloatValue()
		case discordgo.ApplicationCommandOptionBoolean:
			out[o.Name] = o.BoolValue()
		default:
			out[o.Name] = o.Value
		}
	}
	return out
}

// CommandContext builds an invocation from a slash command interaction.
// It returns nil for other interaction types.
func CommandContext(s *discordgo.Session, i *discordgo.Interaction) *command.Context {
	if i == nil || i.Type != discordgo.InteractionApplicationCommand {
		return nil
	}

	data := i.ApplicationCommandData()
	cc := &command.Context{
		Name:       data.Name,
		GuildID:    i.GuildID,
		ChannelID:  i.ChannelID,
		Options:    Options(data.Options),
		Responder:  newResponder(s, i),
		ReceivedAt: time.Now(),
	}

	user := i.User
	if i.Member != nil {
		user = i.Member.User
		cc.IsAdmin = i.Member.Permissions&discordgo.PermissionAdministrator != 0
	}
	if user != nil {
		cc.UserID = user.ID
		cc.UserTag = user.String()
	}

	return cc
}

// MessageEmbeds converts reply embeds.
func MessageEmbeds(embeds []command.Embed) []*discordgo.MessageEmbed {
	out := make([]*discordgo.MessageEmbed, 0, len(embeds))
	for _, e := range embeds {
		me := &discordgo.MessageEmbed{
			Title:       e.Title,
			Description: e.Description,
			Color:       e.Color,
		}
		for _, f := range e.Fields {
			me.Fields = append(me.Fields, &discordgo.MessageEmbedField{
				Name:   f.Name,
				Value:  f.Value,
				Inline: f.Inline,
			})
		}
		if e.Footer != "" {
			me.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
		}
		if !e.Timestamp.IsZero() {
			me.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
		}
		out = append(out, me)
	}
	return out
}
