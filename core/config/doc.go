// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package loads a .env file on first use (a missing file is ignored) and
// uses the caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	type Config struct {
//		Token    string `env:"DISCORD_BOT_TOKEN"`
//		ClientID string `env:"DISCORD_APP_ID"`
//		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	// Or panic on failure (useful for startup)
//	config.MustLoad(&cfg)
//
// # Caching Behavior
//
// Each configuration type is loaded only once per process lifetime. Different
// types are cached independently. Parse bypasses the cache and is meant for tests
// that change the environment with t.Setenv.
package config
