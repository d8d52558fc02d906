package di

import (
	"database/sql"

	"github.com/redis/go-redis/v9"

	"scanpipe/internal/lock"
	"scanpipe/internal/maintenance"
	"scanpipe/internal/queue"
	"scanpipe/internal/storage"
	"scanpipe/internal/store"
	"scanpipe/internal/store/postgres"
	"scanpipe/types/config"
)

func createTaskStore(db *sql.DB) store.TaskStore {
	return postgres.NewPostgresTaskStore(db)
}

func createDistributedLockManager(db *sql.DB) lock.DistributedLockManager {
	return lock.NewPostgresDistributedLockManager(db)
}

func createQueueFabric(cfg *config.Config) (queue.Fabric, error) {
	switch cfg.QueueDriver {
	case config.RabbitMQ:
		return queue.NewRabbitMQFabric(cfg.RabbitMQConfig.URL, cfg.RabbitMQConfig.Exchange, cfg.LaneCapacity)
	default:
		return queue.NewMemoryFabric(cfg.LaneCapacity), nil
	}
}

// createResultHandler assembles the report fan-out set: postgres is always
// present, redis and the file backend join when configured.
func createResultHandler(cfg *config.Config, db *sql.DB, redisClient *redis.Client) (*storage.Handler, error) {
	stores := []storage.ResultStore{storage.NewPostgresResultStore(db)}

	if redisClient != nil {
		stores = append(stores, storage.NewRedisResultStore(redisClient))
	}
	if cfg.ReportDir != "" {
		fileStore, err := storage.NewFileResultStore(cfg.ReportDir)
		if err != nil {
			return nil, err
		}
		stores = append(stores, fileStore)
	}

	return storage.NewHandler(stores...), nil
}

func createIndexJanitor(redisClient *redis.Client) maintenance.IndexJanitor {
	if redisClient == nil {
		return nil
	}
	return maintenance.NewRedisIndexJanitor(redisClient)
}
