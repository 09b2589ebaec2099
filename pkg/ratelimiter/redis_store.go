package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each window in a sorted set scored by unix milliseconds.
// Members carry a random suffix so hits landing in the same millisecond are
// all counted.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a store on top of an existing client.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// Admit implements Store.
func (s *RedisStore) Admit(ctx context.Context, key string, now time.Time, span time.Duration, limit int) (Decision, error) {
	nowMs := now.UnixMilli()
	cutoff := nowMs - span.Milliseconds()

	var (
		card   *redis.IntCmd
		oldest *redis.ZSliceCmd
	)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		// Scores strictly below the cutoff are outside the window.
		p.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
		card = p.ZCard(ctx, key)
		oldest = p.ZRangeWithScores(ctx, key, 0, 0)
		return nil
	})
	if err != nil {
		return Decision{}, errors.Join(ErrStoreUnavailable, fmt.Errorf("trim window %q: %w", key, err))
	}

	d := Decision{Count: int(card.Val())}
	if z := oldest.Val(); len(z) > 0 {
		d.Oldest = time.UnixMilli(int64(z[0].Score))
	}

	if d.Count >= limit {
		return d, nil
	}

	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, key, redis.Z{Score: float64(nowMs), Member: member})
		p.PExpire(ctx, key, span)
		return nil
	})
	if err != nil {
		return Decision{}, errors.Join(ErrStoreUnavailable, fmt.Errorf("record hit %q: %w", key, err))
	}

	d.Admitted = true
	return d, nil
}

// Reset implements Store.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
