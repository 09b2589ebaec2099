package builtin

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dmitrymomot/auditbot/core/alert"
	"github.com/dmitrymomot/auditbot/core/command"
	"github.com/dmitrymomot/auditbot/core/logger"
	"github.com/dmitrymomot/auditbot/core/sanitizer"
	"github.com/dmitrymomot/auditbot/core/validator"
)

// Lead option names.
const (
	OptName           = "name"
	OptEmail          = "email"
	OptCompany        = "company"
	OptPainScore      = "pain-score"
	OptEstimatedValue = "estimated-value"
	OptTimeline       = "timeline"
	OptTopOpportunity = "top-opportunity"
)

type alertLead struct {
	options
}

// NewAlertLead returns the alert-lead command, which forwards a manually
// reported lead to the alerter.
func NewAlertLead(opts ...Option) command.Command {
	return &alertLead{options: newOptions(opts)}
}

func (*alertLead) Name() string { return "alert-lead" }

func (*alertLead) Describe() command.Descriptor {
	choices := make([]command.Choice, 0, len(alert.Timelines))
	for _, t := range alert.Timelines {
		choices = append(choices, command.Choice{Name: t.Label(), Value: string(t)})
	}

	return command.Descriptor{
		Name:        "alert-lead",
		Description: "Send a lead alert notification",
		Params: []command.Param{
			{Name: OptName, Description: "Lead name (required)", Type: command.ParamString, Required: true},
			{Name: OptEmail, Description: "Lead email (required)", Type: command.ParamString, Required: true},
			{Name: OptCompany, Description: "Lead company", Type: command.ParamString},
			{Name: OptPainScore, Description: "Pain score (0-100)", Type: command.ParamInteger, MinValue: command.Float(0), MaxValue: command.Float(100)},
			{Name: OptEstimatedValue, Description: "Estimated value in USD", Type: command.ParamInteger, MinValue: command.Float(0)},
			{Name: OptTimeline, Description: "Project timeline", Type: command.ParamString, Choices: choices},
			{Name: OptTopOpportunity, Description: "Top opportunity identified", Type: command.ParamString},
		},
	}
}

func (*alertLead) Validate(cc *command.Context) error {
	email := strings.TrimSpace(cc.String(OptEmail))
	score, hasScore := cc.Int(OptPainScore)
	value, hasValue := cc.Int(OptEstimatedValue)
	timeline := alert.Timeline(cc.String(OptTimeline))

	return firstInvalid(validator.Apply(
		validator.Required(OptName, cc.String(OptName)),
		validator.Required(OptEmail, email),
		validator.When(email != "", validator.ValidEmail(OptEmail, email)),
		validator.When(hasScore, validator.InRange(OptPainScore, score, 0, 100)),
		validator.When(hasValue, validator.InRange(OptEstimatedValue, value, 0, math.MaxInt64)),
		validator.When(timeline != "", validator.OneOf(OptTimeline, timeline, alert.Timelines...)),
	))
}

func (a *alertLead) Execute(ctx context.Context, cc *command.Context) command.Result {
	if err := cc.Responder.Defer(ctx, true); err != nil {
		return command.Fail(err.Error())
	}

	lead := a.lead(cc)
	if err := a.alerter.SendLeadAlert(ctx, lead); err != nil {
		a.logger.ErrorContext(ctx, "Lead alert command failed",
			logger.Command("alert-lead"),
			logger.UserID(cc.UserID),
			logger.Error(err))
		if eerr := cc.Responder.Edit(ctx, command.Reply{Content: "❌ Failed to send lead alert: " + err.Error()}); eerr != nil {
			a.logger.WarnContext(ctx, "failed to edit reply", logger.Error(eerr))
		}
		return command.Fail(err.Error())
	}

	company := lead.Company
	if company == "" {
		company = "Not specified"
	}
	embed := command.Embed{
		Title:       "✅ Lead Alert Sent",
		Color:       ColorSuccess,
		Description: "Successfully sent lead alert for " + lead.Name,
		Fields: []command.EmbedField{
			{Name: "Name", Value: lead.Name, Inline: true},
			{Name: "Email", Value: lead.Email, Inline: true},
			{Name: "Company", Value: company, Inline: true},
		},
		Timestamp: a.now(),
	}
	if lead.PainScore != nil {
		embed.Fields = append(embed.Fields, command.EmbedField{
			Name: "Pain Score", Value: strconv.Itoa(*lead.PainScore) + "/100", Inline: true,
		})
	}
	if lead.EstimatedValue != nil {
		embed.Fields = append(embed.Fields, command.EmbedField{
			Name: "Estimated Value", Value: FormatCurrency(*lead.EstimatedValue), Inline: true,
		})
	}

	if err := cc.Responder.Edit(ctx, command.Reply{Embeds: []command.Embed{embed}}); err != nil {
		return command.Fail(err.Error())
	}

	a.logger.InfoContext(ctx, "Manual lead alert sent",
		logger.UserID(cc.UserID),
		logger.ID("session_id", lead.SessionID))

	return command.OK(lead)
}

func (a *alertLead) lead(cc *command.Context) alert.Lead {
	now := a.now()
	lead := alert.Lead{
		SessionID:      fmt.Sprintf("manual-%d-%s", now.UnixMilli(), cc.UserID),
		Name:           sanitizer.ChatText(cc.String(OptName), 0),
		Email:          sanitizer.NormalizeEmail(cc.String(OptEmail)),
		Company:        sanitizer.ChatText(cc.String(OptCompany), 0),
		Timeline:       alert.Timeline(cc.String(OptTimeline)),
		TopOpportunity: sanitizer.ChatText(cc.String(OptTopOpportunity), 200),
		ReportedBy:     cc.UserTag,
		ReportedAt:     now,
	}
	if v, ok := cc.Int(OptPainScore); ok {
		score := int(v)
		lead.PainScore = &score
	}
	if v, ok := cc.Int(OptEstimatedValue); ok {
		lead.EstimatedValue = &v
	}
	return lead
}

// firstInvalid turns the first validator failure into a user-facing command error.
func firstInvalid(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		if first, ok := errs.First(); ok {
			return command.Invalid(first.Field, "%s", first.Message)
		}
	}
	return err
}
