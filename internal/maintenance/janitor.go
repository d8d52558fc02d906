package maintenance

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisIndexJanitor rolls old daily report buckets out of redis: for every
// index set older than the cutoff it deletes the member reports and then the
// index itself.
type RedisIndexJanitor struct {
	client *redis.Client
}

func NewRedisIndexJanitor(client *redis.Client) *RedisIndexJanitor {
	return &RedisIndexJanitor{client: client}
}

func (j *RedisIndexJanitor) DeleteOldIndices(ctx context.Context, prefix string, days int) (int, error) {
	if days < 1 {
		return 0, fmt.Errorf("retention days must be positive, got %d", days)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	deleted := 0

	iter := j.client.Scan(ctx, 0, prefix+"-*", 100).Iterator()
	for iter.Next(ctx) {
		index := iter.Val()

		day, err := time.Parse("2006.01.02", strings.TrimPrefix(index, prefix+"-"))
		if err != nil {
			// Not a daily index key; leave it alone.
			continue
		}
		if !day.Before(cutoff) {
			continue
		}

		members, err := j.client.SMembers(ctx, index).Result()
		if err != nil {
			return deleted, fmt.Errorf("read index %s: %w", index, err)
		}

		pipe := j.client.TxPipeline()
		for _, taskID := range members {
			pipe.Del(ctx, fmt.Sprintf("%s:%s", prefix, taskID))
		}
		pipe.Del(ctx, index)
		if _, err := pipe.Exec(ctx); err != nil {
			return deleted, fmt.Errorf("delete index %s: %w", index, err)
		}

		log.Printf("deleted report index %s (%d reports)", index, len(members))
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}

	return deleted, nil
}
