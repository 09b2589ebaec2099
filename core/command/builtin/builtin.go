package builtin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dmitrymomot/auditbot/core/alert"
	"github.com/dmitrymomot/auditbot/core/command"
	"github.com/dmitrymomot/auditbot/core/health"
	"github.com/dmitrymomot/auditbot/core/logger"
)

// Embed colors.
const (
	ColorSuccess = 0x00ff00
	ColorWarning = 0xffaa00
	ColorDanger  = 0xff0000
	ColorInfo    = 0x0099ff
)

// StatusProvider reports live bot health for the status command.
type StatusProvider interface {
	HealthStatus(ctx context.Context) health.Snapshot
	Stats(ctx context.Context) health.BotStats
}

type options struct {
	provider StatusProvider
	alerter  alert.Alerter
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures the built-in commands.
type Option func(*options)

// WithStatusProvider sets the source for the status command.
func WithStatusProvider(p StatusProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithAlerter sets the sink used by alert-lead and alert-system.
func WithAlerter(a alert.Alerter) Option {
	return func(o *options) {
		if a != nil {
			o.alerter = a
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.With(logger.Component("commands"))
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		alerter: alert.Nop{},
		logger:  logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewRegistry builds the registry of built-in commands.
func NewRegistry(opts ...Option) (*command.Registry, error) {
	var reg *command.Registry
	list := func() []command.Descriptor {
		if reg == nil {
			return nil
		}
		return reg.Descriptors()
	}

	r, err := command.NewRegistry(
		NewPing(opts...),
		NewStatus(opts...),
		NewAlertLead(opts...),
		NewAlertSystem(opts...),
		NewHelp(list, opts...),
	)
	if err != nil {
		return nil, fmt.Errorf("builtin: %w", err)
	}
	reg = r
	return reg, nil
}

// FormatDuration renders d as "1h 2m 3s", dropping leading zero units.
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders a whole dollar amount as US currency, e.g. "$25,000.00".
func FormatCurrency(amount int64) string {
	return usd.Sprintf("$%.2f", float64(amount))
}

func statusColor(s health.Status) int {
	switch s {
	case health.StatusHealthy:
		return ColorSuccess
	case health.StatusDegraded:
		return ColorWarning
	default:
		return ColorDanger
	}
}
