package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultLogKey is the sorted set holding recent executions.
const DefaultLogKey = "discord:commands:recent"

// RedisLog stores records as JSON members of a sorted set scored by unix milliseconds.
type RedisLog struct {
	client redis.Cmdable
	key    string
}

// RedisLogOption configures a RedisLog.
type RedisLogOption func(*RedisLog)

// WithLogKey overrides DefaultLogKey.
func WithLogKey(key string) RedisLogOption {
	return func(l *RedisLog) {
		if key != "" {
			l.key = key
		}
	}
}

// NewRedisLog creates a log on top of an existing client.
func NewRedisLog(client redis.Cmdable, opts ...RedisLogOption) *RedisLog {
	l := &RedisLog{client: client, key: DefaultLogKey}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLog) Append(ctx context.Context, rec ExecutionRecord, maxEntries int) error {
	member, err := json.Marshal(rec)
	if err != nil {
		return errors.Join(ErrInvalidRecord, err)
	}

	_, err = l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, l.key, redis.Z{Score: float64(rec.Timestamp.UnixMilli()), Member: string(member)})
		if maxEntries > 0 {
			p.ZRemRangeByRank(ctx, l.key, 0, int64(-maxEntries-1))
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrLogUnavailable, fmt.Errorf("append %s: %w", l.key, err))
	}
	return nil
}

func (l *RedisLog) Between(ctx context.Context, from, to time.Time) ([]ExecutionRecord, error) {
	members, err := l.client.ZRangeByScore(ctx, l.key, &redis.ZRangeBy{
		Min: strconv.FormatInt(from.UnixMilli(), 10),
		Max: strconv.FormatInt(to.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, errors.Join(ErrLogUnavailable, fmt.Errorf("range %s: %w", l.key, err))
	}

	out := make([]ExecutionRecord, 0, len(members))
	for _, m := range members {
		var rec ExecutionRecord
		if err := json.Unmarshal([]byte(m), &rec); err != nil {
			// Foreign or corrupted members are skipped.
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (l *RedisLog) PurgeBefore(ctx context.Context, before time.Time) (int, error) {
	n, err := l.client.ZRemRangeByScore(ctx, l.key, "-inf", strconv.FormatInt(before.UnixMilli(), 10)).Result()
	if err != nil {
		return 0, errors.Join(ErrLogUnavailable, fmt.Errorf("purge %s: %w", l.key, err))
	}
	return int(n), nil
}

func (l *RedisLog) Len(ctx context.Context) (int, error) {
	n, err := l.client.ZCard(ctx, l.key).Result()
	if err != nil {
		return 0, errors.Join(ErrLogUnavailable, err)
	}
	return int(n), nil
}
