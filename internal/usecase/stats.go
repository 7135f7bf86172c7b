package usecase

import (
	"context"
	"strconv"

	"github.com/go-redis/redis/v8"
)

const statsKeyPrefix = "webdetect:stats:"

// Stats counter names.
const (
	StatRequests              = "requests"
	StatSucceeded             = "succeeded"
	StatFailed                = "failed"
	StatFullMatches           = "full_matches"
	StatPartialMatches        = "partial_matches"
	StatVisuallySimilarImages = "visually_similar_images"
)

var statNames = []string{
	StatRequests,
	StatSucceeded,
	StatFailed,
	StatFullMatches,
	StatPartialMatches,
	StatVisuallySimilarImages,
}

// Stats abstracts the live counters so the use case can be tested without Redis.
type Stats interface {
	Incr(ctx context.Context, counters map[string]int64) error
	Snapshot(ctx context.Context) (map[string]int64, error)
}

// RedisStats keeps counters in Redis so they survive restarts and are shared by replicas.
type RedisStats struct {
	client *redis.Client
}

// NewRedisStats constructs a Redis-backed counter set.
func NewRedisStats(client *redis.Client) *RedisStats {
	return &RedisStats{client: client}
}

// Incr adds every delta in one pipeline.
func (s *RedisStats) Incr(ctx context.Context, counters map[string]int64) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for name, delta := range counters {
			if delta == 0 {
				continue
			}
			pipe.IncrBy(ctx, statsKeyPrefix+name, delta)
		}
		return nil
	})
	return err
}

// Snapshot reads all counters. Missing keys read as zero.
func (s *RedisStats) Snapshot(ctx context.Context) (map[string]int64, error) {
	keys := make([]string, len(statNames))
	for i, name := range statNames {
		keys[i] = statsKeyPrefix + name
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	snapshot := make(map[string]int64, len(statNames))
	for i, name := range statNames {
		raw, ok := values[i].(string)
		if !ok {
			snapshot[name] = 0
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		snapshot[name] = n
	}
	return snapshot, nil
}
