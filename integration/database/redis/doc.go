// Package redis provides Redis client initialization and health checking for the
// bot's shared keyed store (rate-limit windows and the command execution log).
//
// This package wraps the go-redis client with URL validation, retry logic and
// connection verification.
//
//   - Connect: creates a client with exponential retry and verifies it with PING
//   - Healthcheck: returns a func(context.Context) error suitable for readiness probes
//
// # Configuration
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//	}
//
// Both redis:// and rediss:// (TLS) schemes are accepted.
//
// # Usage Example
//
//	client, err := redis.Connect(ctx, cfg.Redis)
//	if err != nil {
//		log.Fatal("Failed to connect to Redis:", err)
//	}
//	defer client.Close()
//
//	limiter := ratelimiter.New(ratelimiter.NewRedisStore(client))
//	ready := health.Readiness(log, redis.Healthcheck(client))
//
// # Error Handling
//
//   - ErrFailedToParseRedisConnString: the connection URL is malformed
//   - ErrRedisNotReady: Redis did not answer within the retry budget
//   - ErrEmptyConnectionURL: no connection URL was provided
//   - ErrHealthcheckFailed: a health check ping failed
package redis
