package bot

import (
	"time"

	"github.com/dmitrymomot/auditbot/pkg/ratelimiter"
)

// Default tunables.
const (
	DefaultPresence        = "AI Audits | /help"
	ShutdownPresence       = "Shutting down..."
	DefaultHealthInterval  = 5 * time.Minute
	DefaultCleanupInterval = time.Hour
	DefaultShutdownGrace   = 5 * time.Second
)

// Config holds bot settings loaded from the environment.
type Config struct {
	Token     string `env:"DISCORD_BOT_TOKEN"`
	AppID     string `env:"DISCORD_APP_ID"`
	ServerID  string `env:"DISCORD_SERVER_ID"`
	PublicKey string `env:"DISCORD_PUBLIC_KEY"`

	// LogLevel defaults to info in production and debug elsewhere.
	LogLevel      string `env:"LOG_LEVEL"`
	EnableMetrics bool   `env:"BOT_ENABLE_METRICS" envDefault:"false"`
	Environment   string `env:"APP_ENV" envDefault:"development"`

	Presence        string        `env:"BOT_PRESENCE" envDefault:"AI Audits | /help"`
	HealthInterval  time.Duration `env:"BOT_HEALTH_INTERVAL" envDefault:"5m"`
	CleanupInterval time.Duration `env:"BOT_CLEANUP_INTERVAL" envDefault:"60m"`
	ShutdownGrace   time.Duration `env:"BOT_SHUTDOWN_GRACE" envDefault:"5s"`
	AlertOnDegraded bool          `env:"BOT_ALERT_ON_DEGRADED" envDefault:"false"`

	AlertWebhookURL string `env:"DISCORD_WEBHOOK_URL"`
	HTTPAddr        string `env:"HTTP_ADDR"`

	RateLimit ratelimiter.Config
}

// IsProduction reports whether alerts and notifications are delivered.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// ResolvedLogLevel returns LogLevel or the environment default.
func (c Config) ResolvedLogLevel() string {
	switch {
	case c.LogLevel != "":
		return c.LogLevel
	case c.IsProduction():
		return "info"
	default:
		return "debug"
	}
}

// Validate reports the first missing required setting.
func (c Config) Validate() error {
	if c.Token == "" {
		return &ConfigurationError{Field: "DISCORD_BOT_TOKEN", Message: "is required"}
	}
	if c.AppID == "" {
		return &ConfigurationError{Field: "DISCORD_APP_ID", Message: "is required"}
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Presence == "" {
		c.Presence = DefaultPresence
	}
	if c.HealthInterval <= 0 {
		c.HealthInterval = DefaultHealthInterval
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = DefaultCleanupInterval
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = DefaultShutdownGrace
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = ratelimiter.DefaultWindow
	}
	if c.RateLimit.MaxRequests <= 0 {
		c.RateLimit.MaxRequests = ratelimiter.DefaultMaxRequests
	}
	return c
}
