package builtin

import (
	"context"
	"strings"

	"github.com/dmitrymomot/auditbot/core/alert"
	"github.com/dmitrymomot/auditbot/core/command"
	"github.com/dmitrymomot/auditbot/core/logger"
	"github.com/dmitrymomot/auditbot/core/sanitizer"
	"github.com/dmitrymomot/auditbot/core/validator"
)

// System alert option names.
const (
	OptMessage = "message"
	OptLevel   = "level"
	OptSource  = "source"
)

// SystemAlert is the data returned by the alert-system command.
type SystemAlert struct {
	Message       string      `json:"message"`
	Level         alert.Level `json:"level"`
	Source        string      `json:"source,omitempty"`
	TriggeredBy   string      `json:"triggeredBy"`
	TriggeredByID string      `json:"triggeredById"`
}

type alertSystem struct {
	options
}

// NewAlertSystem returns the admin-only alert-system command.
func NewAlertSystem(opts ...Option) command.Command {
	return &alertSystem{options: newOptions(opts)}
}

func (*alertSystem) Name() string { return "alert-system" }

func (*alertSystem) Describe() command.Descriptor {
	return command.Descriptor{
		Name:        "alert-system",
		Description: "Send a system alert (Admin only)",
		AdminOnly:   true,
		Params: []command.Param{
			{Name: OptMessage, Description: "Alert message (required)", Type: command.ParamString, Required: true},
			{Name: OptLevel, Description: "Alert level", Type: command.ParamString, Choices: []command.Choice{
				{Name: "Info", Value: string(alert.LevelInfo)},
				{Name: "Warning", Value: string(alert.LevelWarning)},
				{Name: "Error", Value: string(alert.LevelError)},
				{Name: "Critical", Value: string(alert.LevelCritical)},
			}},
			{Name: OptSource, Description: "Alert source", Type: command.ParamString},
		},
	}
}

func (*alertSystem) Validate(cc *command.Context) error {
	if err := firstInvalid(validator.Apply(validator.Required(OptMessage, cc.String(OptMessage)))); err != nil {
		return err
	}
	if _, err := alert.ParseLevel(cc.String(OptLevel)); err != nil {
		return command.Invalid(OptLevel, "Invalid alert level")
	}
	return nil
}

func (a *alertSystem) Execute(ctx context.Context, cc *command.Context) command.Result {
	if err := cc.Responder.Defer(ctx, true); err != nil {
		return command.Fail(err.Error())
	}

	level, _ := alert.ParseLevel(cc.String(OptLevel))
	sa := SystemAlert{
		Message:       sanitizer.ChatText(cc.String(OptMessage), 2000),
		Level:         level,
		Source:        sanitizer.ChatText(cc.String(OptSource), 100),
		TriggeredBy:   cc.UserTag,
		TriggeredByID: cc.UserID,
	}

	if err := a.alerter.SendAlert(ctx, sa.Message, sa.Level); err != nil {
		a.logger.ErrorContext(ctx, "System alert command failed",
			logger.Command("alert-system"),
			logger.UserID(cc.UserID),
			logger.Error(err))
		if eerr := cc.Responder.Edit(ctx, command.Reply{Content: "❌ Failed to send system alert: " + err.Error()}); eerr != nil {
			a.logger.WarnContext(ctx, "failed to edit reply", logger.Error(eerr))
		}
		return command.Fail(err.Error())
	}

	source := sa.Source
	if source == "" {
		source = "Manual"
	}
	err := cc.Responder.Edit(ctx, command.Reply{Embeds: []command.Embed{{
		Title:       "📢 System Alert Sent",
		Color:       ColorInfo,
		Description: sa.Message,
		Fields: []command.EmbedField{
			{Name: "Level", Value: strings.ToUpper(string(sa.Level)), Inline: true},
			{Name: "Source", Value: source, Inline: true},
			{Name: "Sent by", Value: cc.UserTag, Inline: true},
		},
		Timestamp: a.now(),
	}}})
	if err != nil {
		return command.Fail(err.Error())
	}

	a.logger.InfoContext(ctx, "Manual system alert sent",
		logger.UserID(cc.UserID),
		logger.Key("level", string(sa.Level)))

	return command.OK(sa)
}
