// Package ratelimiter implements per-subject sliding window rate limiting.
//
// A subject (typically a chat user id) may perform at most MaxRequests actions
// in any trailing Window. Every admitted action is recorded with its timestamp;
// entries older than the window are discarded on the next check.
//
// # Usage
//
//	store := ratelimiter.NewRedisStore(redisClient)
//	limiter, err := ratelimiter.New(store,
//		ratelimiter.WithConfig(ratelimiter.Config{Window: time.Minute, MaxRequests: 10}),
//		ratelimiter.WithLogger(log),
//	)
//	if err != nil {
//		return err
//	}
//
//	res := limiter.Check(ctx, userID)
//	if !res.Allowed {
//		reply("Rate limit exceeded. Please try again <t:%d:R>.", res.ResetAt.Unix())
//		return
//	}
//
// # Failure Policy
//
// The limiter fails open. When the store returns an error the check is
// reported as allowed with Remaining = MaxRequests-1 and the failure is logged
// at warn level. Result.FailOpen marks such results.
//
// # Stores
//
// MemoryStore keeps windows in process memory; idle windows are dropped by
// RemoveExpired, which the owner calls periodically. RedisStore keeps one sorted set per subject
// under "discord:ratelimit:<subject>" and lets Redis expire idle keys.
package ratelimiter
