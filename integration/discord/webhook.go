package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sony/gobreaker"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/time/rate"

	"github.com/dmitrymomot/auditbot/core/alert"
	"github.com/dmitrymomot/auditbot/core/logger"
)

const webhookPathMarker = "/api/webhooks/"

// Webhook display names.
const (
	SystemUsername = "AI Audit System"
	LeadUsername   = "AI Audit Bot"
)

// WebhookConfig configures alert delivery.
type WebhookConfig struct {
	URL             string        `env:"DISCORD_WEBHOOK_URL"`
	PerMinute       int           `env:"DISCORD_WEBHOOK_PER_MINUTE" envDefault:"30"`
	Burst           int           `env:"DISCORD_WEBHOOK_BURST" envDefault:"5"`
	BreakerFailures uint32        `env:"DISCORD_WEBHOOK_BREAKER_FAILURES" envDefault:"5"`
	BreakerTimeout  time.Duration `env:"DISCORD_WEBHOOK_BREAKER_TIMEOUT" envDefault:"30s"`
}

// Webhook delivers alerts through a Discord webhook. Consecutive failures
// open a circuit breaker; sends are throttled to stay under Discord's limits.
type Webhook struct {
	session *discordgo.Session
	id      string
	token   string
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *slog.Logger
	now     func() time.Time
}

var _ alert.Alerter = (*Webhook)(nil)

// WebhookOption configures a Webhook.
type WebhookOption func(*Webhook)

// WithWebhookLogger sets the logger used for breaker state changes.
func WithWebhookLogger(l *slog.Logger) WebhookOption {
	return func(w *Webhook) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithHTTPClient replaces the HTTP client used for webhook requests.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *Webhook) {
		if c != nil {
			w.session.Client = c
		}
	}
}

// WithWebhookClock replaces time.Now for embed timestamps.
func WithWebhookClock(now func() time.Time) WebhookOption {
	return func(w *Webhook) {
		if now != nil {
			w.now = now
		}
	}
}

// ParseWebhookURL extracts the webhook id and token.
func ParseWebhookURL(raw string) (id, token string, err error) {
	idx := strings.Index(raw, webhookPathMarker)
	if idx < 0 {
		return "", "", fmt.Errorf("%w: missing %s", ErrInvalidWebhookURL, webhookPathMarker)
	}
	parts := strings.Split(strings.Trim(raw[idx+len(webhookPathMarker):], "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: expected id and token", ErrInvalidWebhookURL)
	}
	return parts[0], strings.SplitN(parts[1], "?", 2)[0], nil
}

// NewWebhook creates a webhook alerter.
func NewWebhook(cfg WebhookConfig, opts ...WebhookOption) (*Webhook, error) {
	if cfg.URL == "" {
		return nil, ErrWebhookNotSet
	}
	id, token, err := ParseWebhookURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	// Webhook execution needs no bot token.
	s, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("discord: create webhook session: %w", err)
	}

	w := &Webhook{
		session: s,
		id:      id,
		token:   token,
		logger:  logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(logger.Component("webhook"))

	perMinute := max(cfg.PerMinute, 1)
	w.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), max(cfg.Burst, 1))

	failures := max(cfg.BreakerFailures, 1)
	w.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "discord-webhook",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			w.logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return w, nil
}

// SendAlert posts a system alert.
func (w *Webhook) SendAlert(ctx context.Context, msg string, level alert.Level) error {
	return w.SendSystemAlert(ctx, msg, level, nil)
}

// SendSystemAlert posts a system alert with extra inline context fields.
func (w *Webhook) SendSystemAlert(ctx context.Context, msg string, level alert.Level, fields map[string]string) error {
	return w.execute(ctx, &discordgo.WebhookParams{
		Username: SystemUsername,
		Embeds:   []*discordgo.MessageEmbed{SystemEmbed(msg, level, fields, w.now())},
	})
}

// SendLeadAlert posts a lead notification.
func (w *Webhook) SendLeadAlert(ctx context.Context, lead alert.Lead) error {
	return w.execute(ctx, &discordgo.WebhookParams{
		Username: LeadUsername,
		Embeds:   []*discordgo.MessageEmbed{LeadEmbed(lead, w.now())},
	})
}

// State returns the circuit breaker state.
func (w *Webhook) State() gobreaker.State {
	return w.breaker.State()
}

func (w *Webhook) execute(ctx context.Context, params *discordgo.WebhookParams) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("discord: webhook throttled: %w", err)
	}

	_, err := w.breaker.Execute(func() (any, error) {
		_, err := w.session.WebhookExecute(w.id, w.token, false, params, discordgo.WithContext(ctx))
		return nil, err
	})
	if err == nil {
		return nil
	}

	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) && rerr.Response != nil {
		return fmt.Errorf("%w: %d - %s", ErrWebhookFailed, rerr.Response.StatusCode, strings.TrimSpace(string(rerr.ResponseBody)))
	}
	return fmt.Errorf("%w: %w", ErrWebhookFailed, err)
}

// SystemEmbed renders a system alert.
func SystemEmbed(msg string, level alert.Level, fields map[string]string, now time.Time) *discordgo.MessageEmbed {
	emoji, color := "📢", 0x808080
	switch level {
	case alert.LevelCritical, alert.LevelError:
		emoji, color = "🚨", 0xff0000
	case alert.LevelWarning:
		emoji, color = "⚠️", 0xffa500
	case alert.LevelInfo:
		emoji, color = "ℹ️", 0x0099ff
	}

	e := &discordgo.MessageEmbed{
		Title:       emoji + " System Alert",
		Description: msg,
		Color:       color,
		Timestamp:   now.UTC().Format(time.RFC3339),
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: k, Value: fields[k], Inline: true})
	}
	return e
}

// LeadColor maps a pain score to an embed color: red from 80, orange from 60,
// yellow from 40, green below.
func LeadColor(painScore int) int {
	switch {
	case painScore >= 80:
		return 0xff0000
	case painScore >= 60:
		return 0xffa500
	case painScore >= 40:
		return 0xffff00
	default:
		return 0x00ff00
	}
}

// LeadEmbed renders a lead notification.
func LeadEmbed(lead alert.Lead, now time.Time) *discordgo.MessageEmbed {
	company := lead.Company
	if company == "" {
		company = "Not specified"
	}
	timeline := "Not specified"
	if lead.Timeline != "" {
		timeline = lead.Timeline.Label()
	}

	score, scoreText := 0, "N/A"
	if lead.PainScore != nil {
		score = *lead.PainScore
		scoreText = fmt.Sprintf("%d/100", score)
	}
	value := "Not specified"
	if lead.EstimatedValue != nil {
		value = message.NewPrinter(language.AmericanEnglish).Sprintf("$%d", *lead.EstimatedValue)
	}

	e := &discordgo.MessageEmbed{
		Title: "🎯 New AI Audit Lead",
		Color: LeadColor(score),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "👤 Contact",
				Value: fmt.Sprintf("**Name:** %s\n**Email:** %s\n**Company:** %s", lead.Name, lead.Email, company),
			},
			{
				Name:  "📊 Qualification",
				Value: fmt.Sprintf("**Pain Score:** %s\n**Timeline:** %s", scoreText, timeline),
			},
			{
				Name:  "💰 Value",
				Value: "**Estimated Value:** " + value,
			},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Session ID: " + lead.SessionID},
		Timestamp: now.UTC().Format(time.RFC3339),
	}
	if lead.TopOpportunity != "" {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "🚀 Top Opportunity", Value: lead.TopOpportunity})
	}
	if lead.ReportedBy != "" {
		e.Description = "Reported by " + lead.ReportedBy
	}
	return e
}
