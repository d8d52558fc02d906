package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"scanpipe/types"
)

// ReportIndexPrefix is the prefix of the daily report buckets the redis
// backend writes and the index janitor deletes.
const ReportIndexPrefix = "reports"

// RedisResultStore keeps the report under reports:<taskID> and tracks the task
// id in a daily index set keyed by scan time, so retention can roll whole days
// off without scanning individual reports.
type RedisResultStore struct {
	client *redis.Client
}

func NewRedisResultStore(client *redis.Client) *RedisResultStore {
	return &RedisResultStore{client: client}
}

func (s *RedisResultStore) ID() string {
	return "redis"
}

func (s *RedisResultStore) Store(ctx context.Context, env *types.ScanResultEnvelope, wait bool) error {
	report, err := json.Marshal(env.Report())
	if err != nil {
		return fmt.Errorf("marshal report for task %s: %w", env.TaskID, err)
	}

	index := DailyIndex(ReportIndexPrefix, env.ScanTime)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, fmt.Sprintf("%s:%s", ReportIndexPrefix, env.TaskID), report, 0)
	pipe.SAdd(ctx, index, env.TaskID)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisResultStore) Close() error {
	return s.client.Close()
}
