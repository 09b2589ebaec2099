package ratelimiter

import (
	"fmt"
	"time"
)

// Default policy applied to interactive commands: 10 requests per minute per user.
const (
	DefaultWindow      = time.Minute
	DefaultMaxRequests = 10
	DefaultKeyPrefix   = "discord:ratelimit:"
)

// Config describes a sliding window policy.
type Config struct {
	Window      time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	MaxRequests int           `env:"RATE_LIMIT_MAX_REQUESTS" envDefault:"10"`
}

// DefaultConfig returns the default interactive command policy.
func DefaultConfig() Config {
	return Config{Window: DefaultWindow, MaxRequests: DefaultMaxRequests}
}

// Validate reports whether the policy is usable.
func (c Config) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %s", ErrInvalidConfig, c.Window)
	}
	if c.MaxRequests <= 0 {
		return fmt.Errorf("%w: max requests must be positive, got %d", ErrInvalidConfig, c.MaxRequests)
	}
	return nil
}
